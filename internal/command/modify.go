package command

import (
	"strconv"
	"time"
)

const modifyFormatError = "修改格式：@記帳 修改 ID 項目 金額 [收支] [日期]，" +
	"或 @記帳 修改 ID [收支或日期]，" +
	"或 @記帳 修改 ID [項目|金額|日期|收支] 值 ...（可一次改多欄位，分隔可用空白/，/,）"

// ModifyForm tags which of the three mutually exclusive modify grammars
// matched. Keeping the tag explicit makes precedence testable instead of
// being implicit in parser fallthrough.
type ModifyForm int

const (
	// FormKeyword is the keyword-tagged multi-field shape:
	// 修改 ID 項目 A 金額 1000 日期 2/20 收支 收入
	FormKeyword ModifyForm = iota
	// FormSingleOption is a lone trailing option: 修改 ID 收入 / 修改 ID 2/20
	FormSingleOption
	// FormPositional is the full shape: 修改 ID 項目 金額 [收支] [日期]
	FormPositional
)

// Modify is a parsed modify command. Nil fields are left untouched on the
// existing record.
type Modify struct {
	DisplayID  int
	Form       ModifyForm
	Item       *string
	Amount     *int64
	RecordType *string
	Date       *time.Time
}

var modifyKeywords = map[string]string{
	"項目": "item",
	"金額": "amount",
	"日期": "date",
	"收支": "record_type",
	"類型": "record_type",
}

// ParseModify parses the tokens following the 修改 keyword. Grammar shapes
// are tried in priority order: keyword-tagged pairs, single bare option,
// full positional.
func ParseModify(tokens []string, now time.Time) (*Modify, error) {
	if len(tokens) == 0 {
		return nil, usagef(modifyFormatError)
	}

	displayID, err := strconv.Atoi(tokens[0])
	if err != nil || displayID <= 0 {
		return nil, usagef(modifyFormatError)
	}

	rest := tokens[1:]
	// Optional legacy 更新 keyword after the id.
	if len(rest) > 0 && rest[0] == "更新" {
		rest = rest[1:]
	}
	if len(rest) == 0 {
		return nil, usagef(modifyFormatError)
	}

	if len(rest) >= 2 && modifyKeywords[rest[0]] != "" {
		return parseModifyKeywordForm(displayID, rest, now)
	}
	if len(rest) == 1 {
		return parseModifySingleOption(displayID, rest[0], now)
	}
	return parseModifyPositional(displayID, rest, now)
}

func parseModifyKeywordForm(displayID int, pairs []string, now time.Time) (*Modify, error) {
	if len(pairs)%2 != 0 {
		return nil, usagef(modifyFormatError)
	}

	mod := &Modify{DisplayID: displayID, Form: FormKeyword}
	for i := 0; i < len(pairs); i += 2 {
		value := pairs[i+1]
		switch modifyKeywords[pairs[i]] {
		case "item":
			mod.Item = &value
		case "amount":
			amount, err := ParseAmount(value)
			if err != nil {
				return nil, err
			}
			mod.Amount = &amount
		case "date":
			date, err := ParseMonthDay(value, now)
			if err != nil {
				return nil, err
			}
			mod.Date = &date
		case "record_type":
			recordType, err := NormalizeRecordType(value)
			if err != nil {
				return nil, err
			}
			mod.RecordType = &recordType
		default:
			return nil, usagef(modifyFormatError)
		}
	}
	return mod, nil
}

func parseModifySingleOption(displayID int, option string, now time.Time) (*Modify, error) {
	mod := &Modify{DisplayID: displayID, Form: FormSingleOption}
	if recordType, err := NormalizeRecordType(option); err == nil {
		mod.RecordType = &recordType
		return mod, nil
	}
	date, err := ParseMonthDay(option, now)
	if err != nil {
		return nil, err
	}
	mod.Date = &date
	return mod, nil
}

func parseModifyPositional(displayID int, rest []string, now time.Time) (*Modify, error) {
	if len(rest) < 2 {
		return nil, usagef(modifyFormatError)
	}

	item := rest[0]
	amount, err := ParseAmount(rest[1])
	if err != nil {
		return nil, err
	}

	mod := &Modify{DisplayID: displayID, Form: FormPositional, Item: &item, Amount: &amount}

	options := rest[2:]
	if len(options) > 2 {
		return nil, usagef(modifyFormatError)
	}
	if len(options) == 1 {
		if recordType, err := NormalizeRecordType(options[0]); err == nil {
			mod.RecordType = &recordType
		} else {
			date, err := ParseMonthDay(options[0], now)
			if err != nil {
				return nil, err
			}
			mod.Date = &date
		}
	}
	if len(options) == 2 {
		recordType, err := NormalizeRecordType(options[0])
		if err != nil {
			return nil, err
		}
		date, err := ParseMonthDay(options[1], now)
		if err != nil {
			return nil, err
		}
		mod.RecordType = &recordType
		mod.Date = &date
	}
	return mod, nil
}
