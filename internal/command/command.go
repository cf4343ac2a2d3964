// Package command turns raw chat text into typed ledger operations.
//
// The grammar is deliberately forgiving: fields may be separated by runs of
// whitespace, half-width or full-width commas, most keywords have synonyms,
// and trailing option fields are disambiguated by shape (a token is tried as
// a record type before being re-tried as a date). All user-visible error
// messages are Traditional Chinese and name the line or field at fault.
package command

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
)

var monthDayRe = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})$`)

// Prefix is the command trigger every line must start with.
const Prefix = "@記帳"

// Clock supplies "now" for date defaults and scope anchors. Injected so
// parsing and settlement stay deterministic under test.
type Clock func() time.Time

// UsageError is a user-facing parse failure. Its message is replied verbatim.
type UsageError struct {
	Message string
}

func (e *UsageError) Error() string { return e.Message }

func usagef(format string, args ...any) error {
	return &UsageError{Message: fmt.Sprintf(format, args...)}
}

// reservedWords are command keywords an item label may never collide with.
// A batch line whose first field matches one of these fails validation
// immediately instead of being booked as a record.
var reservedWords = map[string]bool{
	"刪除": true, "修改": true, "更新": true,
	"查詢": true, "總覽": true, "餘額": true, "查餘額": true,
	"範圍查詢": true, "詳細查詢": true, "明細": true, "詳細": true,
	"格式": true, "算錢": true, "分帳": true,
	"成員": true, "成員檢查": true, "新增成員": true, "刪除成員": true,
	"補款": true, "狀態": true,
}

// Reserved reports whether the token is a command keyword.
func Reserved(token string) bool { return reservedWords[token] }

// Tokenize splits a payload on runs of whitespace and half/full-width
// commas, dropping empty fields.
func Tokenize(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || r == ',' || r == '，'
	})
}

// ParseAmount parses a strictly positive base-10 integer amount.
func ParseAmount(s string) (int64, error) {
	amount, err := strconv.ParseInt(s, 10, 64)
	if err != nil || amount <= 0 {
		return 0, usagef("金額必須是正整數")
	}
	return amount, nil
}

// NormalizeRecordType maps a type token to 支出 or 收入. English synonyms
// are case-insensitive.
func NormalizeRecordType(token string) (string, error) {
	switch token {
	case "支出":
		return "支出", nil
	case "收入":
		return "收入", nil
	}
	switch strings.ToLower(token) {
	case "expense":
		return "支出", nil
	case "income":
		return "收入", nil
	}
	return "", usagef("收支類型只能填：支出 或 收入")
}

// ParseMonthDay parses an MM/DD date. The year is always the current year
// and the time of day is taken from now, so two entries dated the same
// calendar day still sort by time of entry.
func ParseMonthDay(token string, now time.Time) (time.Time, error) {
	m := monthDayRe.FindStringSubmatch(token)
	if m == nil {
		return time.Time{}, usagef("日期格式請用 MM/DD，例如 02/27")
	}
	month, _ := strconv.Atoi(m[1])
	day, _ := strconv.Atoi(m[2])
	if !validDate(now.Year(), month, day) {
		return time.Time{}, usagef("日期格式請用 MM/DD，例如 02/27")
	}
	return time.Date(now.Year(), time.Month(month), day,
		now.Hour(), now.Minute(), now.Second(), 0, now.Location()), nil
}

// validDate checks the calendar date without relying on time.Date
// normalization (which silently turns 2/30 into 3/2).
func validDate(year, month, day int) bool {
	if month < 1 || month > 12 || day < 1 {
		return false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	return int(t.Month()) == month && t.Day() == day
}
