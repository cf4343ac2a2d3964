package command

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/pinghanh/ledgerbot/internal/models"
)

// RangeKind tags how a range spec was written.
type RangeKind int

const (
	// RangeScope is a relative window anchored to now: 日/周/月/年/全部.
	RangeScope RangeKind = iota
	// RangeDate is a single absolute day, M/D of the current year.
	RangeDate
	// RangeMonthYear is a specific month of a specific (or current) year.
	RangeMonthYear
	// RangeYearExact is a whole calendar year.
	RangeYearExact
	// RangeMonthRange is M月到N月 within the current year.
	RangeMonthRange
)

// RangeSpec is a resolved query range. Label is the human form echoed back
// in replies.
type RangeSpec struct {
	Kind       RangeKind
	Scope      string
	Year       int
	Month      int
	Day        int
	StartMonth int
	EndMonth   int
	Label      string
}

var (
	monthRe      = regexp.MustCompile(`^(\d{1,2})月$`)
	yearRe       = regexp.MustCompile(`^(\d{4})(?:年)?$`)
	monthRangeRe = regexp.MustCompile(`^(\d{1,2})月到(\d{1,2})月$`)
)

var scopeSynonyms = map[string]string{
	"日": "日", "天": "日",
	"周": "周", "週": "周",
	"月": "月",
	"年": "年",
	"全部": "全部", "all": "全部", "ALL": "全部",
}

// NormalizeScope maps a scope token to its canonical form, or returns the
// default when the token is empty.
func NormalizeScope(token, defaultScope string) (string, error) {
	if token == "" {
		return defaultScope, nil
	}
	scope := scopeSynonyms[token]
	if scope == "" {
		return "", usagef("範圍只能填：日、周、月、年、全部")
	}
	return scope, nil
}

// ParseRangeSpec resolves zero, one or two free tokens into a tagged range.
// Empty input falls back to the caller's default scope.
func ParseRangeSpec(parts []string, defaultScope string, now time.Time) (*RangeSpec, error) {
	switch len(parts) {
	case 0:
		scope, err := NormalizeScope("", defaultScope)
		if err != nil {
			return nil, err
		}
		return &RangeSpec{Kind: RangeScope, Scope: scope, Label: scope}, nil

	case 1:
		return parseSingleRangeToken(parts[0], defaultScope, now)

	case 2:
		// Two tokens: one month-shaped, one year-shaped, either order.
		var month, year int
		for _, token := range parts {
			if m := monthRe.FindStringSubmatch(token); m != nil {
				month, _ = strconv.Atoi(m[1])
				continue
			}
			if m := yearRe.FindStringSubmatch(token); m != nil {
				year, _ = strconv.Atoi(m[1])
				continue
			}
			return nil, usagef("範圍格式錯誤，可用：日/周/月/年/全部，或 2月、2025、2月 2025年、2/25")
		}
		if month == 0 || year == 0 {
			return nil, usagef("範圍格式錯誤，可用：日/周/月/年/全部，或 2月、2025、2月 2025年、2/25")
		}
		if month < 1 || month > 12 {
			return nil, usagef("月份需介於 1 到 12")
		}
		return &RangeSpec{
			Kind: RangeMonthYear, Year: year, Month: month,
			Label: fmt.Sprintf("%d年%d月", year, month),
		}, nil
	}

	return nil, usagef("範圍參數過多")
}

func parseSingleRangeToken(token, defaultScope string, now time.Time) (*RangeSpec, error) {
	if m := monthDayRe.FindStringSubmatch(token); m != nil {
		month, _ := strconv.Atoi(m[1])
		day, _ := strconv.Atoi(m[2])
		year := now.Year()
		if !validDate(year, month, day) {
			return nil, usagef("日期格式請用 M/D 或 MM/DD，且需是有效日期")
		}
		return &RangeSpec{
			Kind: RangeDate, Year: year, Month: month, Day: day,
			Label: fmt.Sprintf("%d/%02d/%02d", year, month, day),
		}, nil
	}

	if m := monthRe.FindStringSubmatch(token); m != nil {
		month, _ := strconv.Atoi(m[1])
		if month < 1 || month > 12 {
			return nil, usagef("月份需介於 1 到 12")
		}
		year := now.Year()
		return &RangeSpec{
			Kind: RangeMonthYear, Year: year, Month: month,
			Label: fmt.Sprintf("%d年%d月", year, month),
		}, nil
	}

	if m := yearRe.FindStringSubmatch(token); m != nil {
		year, _ := strconv.Atoi(m[1])
		return &RangeSpec{
			Kind: RangeYearExact, Year: year,
			Label: fmt.Sprintf("%d年", year),
		}, nil
	}

	scope, err := NormalizeScope(token, defaultScope)
	if err != nil {
		return nil, err
	}
	return &RangeSpec{Kind: RangeScope, Scope: scope, Label: scope}, nil
}

// ParseMonthRangeSpec parses the 範圍查詢 grammar: M月到N月 within the
// current year, start ≤ end. The tokens are rejoined first so both
// "2月到5月" and "2月 到 5月" work.
func ParseMonthRangeSpec(parts []string, now time.Time) (*RangeSpec, error) {
	const hint = "範圍查詢格式：@記帳 範圍查詢 起始月到結束月（例如：2月到5月）"
	if len(parts) == 0 {
		return nil, usagef(hint)
	}

	var joined string
	for _, p := range parts {
		joined += p
	}
	m := monthRangeRe.FindStringSubmatch(joined)
	if m == nil {
		return nil, usagef(hint)
	}

	start, _ := strconv.Atoi(m[1])
	end, _ := strconv.Atoi(m[2])
	if start < 1 || start > 12 || end < 1 || end > 12 {
		return nil, usagef("月份需介於 1 到 12")
	}
	if start > end {
		return nil, usagef("起始月不可大於結束月")
	}

	return &RangeSpec{
		Kind: RangeMonthRange, Year: now.Year(),
		StartMonth: start, EndMonth: end,
		Label: fmt.Sprintf("%d月到%d月", start, end),
	}, nil
}

// Window converts the spec into a half-open query window anchored at now.
func (r *RangeSpec) Window(now time.Time) models.Window {
	switch r.Kind {
	case RangeScope:
		start := scopeStart(r.Scope, now)
		return models.Window{Start: start}

	case RangeDate:
		start := time.Date(r.Year, time.Month(r.Month), r.Day, 0, 0, 0, 0, now.Location())
		end := start.AddDate(0, 0, 1)
		return models.Window{Start: &start, End: &end}

	case RangeMonthYear:
		start := time.Date(r.Year, time.Month(r.Month), 1, 0, 0, 0, 0, now.Location())
		end := start.AddDate(0, 1, 0)
		return models.Window{Start: &start, End: &end}

	case RangeYearExact:
		start := time.Date(r.Year, 1, 1, 0, 0, 0, 0, now.Location())
		end := start.AddDate(1, 0, 0)
		return models.Window{Start: &start, End: &end}

	case RangeMonthRange:
		start := time.Date(r.Year, time.Month(r.StartMonth), 1, 0, 0, 0, 0, now.Location())
		end := time.Date(r.Year, time.Month(r.EndMonth), 1, 0, 0, 0, 0, now.Location()).AddDate(0, 1, 0)
		return models.Window{Start: &start, End: &end}
	}
	return models.Window{}
}

// scopeStart returns the lower bound for a relative scope; nil means
// unbounded (全部).
func scopeStart(scope string, now time.Time) *time.Time {
	var start time.Time
	switch scope {
	case "日":
		start = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	case "周":
		// ISO week: Monday start.
		monday := now.AddDate(0, 0, -((int(now.Weekday()) + 6) % 7))
		start = time.Date(monday.Year(), monday.Month(), monday.Day(), 0, 0, 0, 0, now.Location())
	case "月":
		start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	case "年":
		start = time.Date(now.Year(), 1, 1, 0, 0, 0, 0, now.Location())
	default:
		return nil
	}
	return &start
}
