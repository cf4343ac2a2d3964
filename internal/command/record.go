package command

import (
	"strconv"
	"strings"
	"time"
)

const recordFormatHint = "@記帳 項目 金額 [支出或收入] [MM/DD]"

// NewRecord is one parsed record line, ready to insert.
type NewRecord struct {
	Item       string
	Amount     int64
	RecordType string
	CreatedAt  time.Time

	// Target is the manual member name from an @名字 token, booking the
	// line under that person instead of the message author. Empty when
	// the author is the contributor.
	Target string
}

// ParseRecordMessage parses a (possibly multi-line) record message. Every
// non-blank line must start with the command prefix; each line is parsed
// independently with its own resolved date, type and target. Validation is
// all-or-nothing: the first bad line fails the whole batch with its line
// number.
func ParseRecordMessage(text string, now time.Time) ([]NewRecord, error) {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) == 0 || !strings.HasPrefix(lines[0], Prefix) {
		return nil, nil
	}

	var records []NewRecord
	for i, line := range lines {
		lineNo := i + 1
		if !strings.HasPrefix(line, Prefix) {
			return nil, usagef("第%d行格式錯誤，請用：%s", lineNo, recordFormatHint)
		}

		rec, err := parseRecordLine(strings.TrimSpace(line[len(Prefix):]), lineNo, now)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, nil
}

func parseRecordLine(payload string, lineNo int, now time.Time) (*NewRecord, error) {
	fields := Tokenize(payload)

	// An @名字 token may appear anywhere among the fields; strip it out
	// before positional parsing.
	var target string
	kept := fields[:0]
	for _, f := range fields {
		if strings.HasPrefix(f, "@") && len(f) > 1 {
			if target != "" {
				return nil, usagef("第%d行格式錯誤，每行僅能指定一位 @對象", lineNo)
			}
			target = strings.TrimPrefix(f, "@")
			continue
		}
		kept = append(kept, f)
	}
	fields = kept

	if len(fields) < 2 || len(fields) > 4 {
		return nil, usagef("第%d行格式錯誤，請用：%s（分隔可用空白/，/,）", lineNo, recordFormatHint)
	}

	item := fields[0]
	if Reserved(item) {
		return nil, usagef("多行輸入僅支援記帳格式：%s（分隔可用空白/，/,）", recordFormatHint)
	}

	rec := &NewRecord{
		Item:       item,
		RecordType: defaultRecordType(item),
		CreatedAt:  now.Truncate(time.Second),
		Target:     target,
	}

	amount, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil || amount <= 0 {
		return nil, usagef("第%d行金額錯誤，金額必須是正整數，例如：@記帳 銀行，50000 收入", lineNo)
	}
	rec.Amount = amount

	var option1, option2 string
	if len(fields) >= 3 {
		option1 = fields[2]
	}
	if len(fields) >= 4 {
		option2 = fields[3]
	}

	// One option: try record type first, then fall back to a date. Two
	// options: the first must be a type and the second a date.
	if option1 != "" && option2 == "" {
		if recordType, err := NormalizeRecordType(option1); err == nil {
			rec.RecordType = recordType
		} else if rec.CreatedAt, err = ParseMonthDay(option1, now); err != nil {
			return nil, err
		}
	}
	if option1 != "" && option2 != "" {
		if rec.RecordType, err = NormalizeRecordType(option1); err != nil {
			return nil, err
		}
		if rec.CreatedAt, err = ParseMonthDay(option2, now); err != nil {
			return nil, err
		}
	}
	return rec, nil
}

// defaultRecordType is 支出 unless the item label carries the shared-fund
// marker, in which case an untyped line books as 收入.
func defaultRecordType(item string) string {
	if strings.Contains(item, "銀行") {
		return "收入"
	}
	return "支出"
}
