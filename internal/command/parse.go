package command

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ParseDeleteID parses the tokens following 刪除: exactly one positive
// display id.
func ParseDeleteID(tokens []string) (int, error) {
	if len(tokens) != 1 {
		return 0, usagef("刪除格式：@記帳 刪除 ID（分隔可用空白/，/,）")
	}
	id, err := strconv.Atoi(tokens[0])
	if err != nil || id <= 0 {
		return 0, usagef("刪除格式：@記帳 刪除 ID（分隔可用空白/，/,）")
	}
	return id, nil
}

// SettleArgs are the parsed arguments of 算錢/分帳.
type SettleArgs struct {
	Range *RangeSpec
	// Headcount is the requested participant count; 0 means use the
	// configured default.
	Headcount int
}

var headcountRe = regexp.MustCompile(`^\d{1,2}$`)

// ParseSettleArgs splits the settlement arguments into an optional headcount
// and a range spec. A bare one- or two-digit integer is a headcount: it is
// not month-shaped (no 月 suffix), not a date (no slash) and not a 4-digit
// year, so the disambiguation is unambiguous. Default scope is 月.
func ParseSettleArgs(tokens []string, now time.Time) (*SettleArgs, error) {
	args := &SettleArgs{}
	var rangeParts []string
	for _, token := range tokens {
		if headcountRe.MatchString(token) {
			if args.Headcount != 0 {
				return nil, usagef("人數只能指定一次")
			}
			n, _ := strconv.Atoi(token)
			if n <= 0 {
				return nil, usagef("人數必須是正整數")
			}
			args.Headcount = n
			continue
		}
		rangeParts = append(rangeParts, token)
	}

	rangeSpec, err := ParseRangeSpec(rangeParts, "月", now)
	if err != nil {
		return nil, err
	}
	args.Range = rangeSpec
	return args, nil
}

// PaymentArgs are the parsed arguments of 補款.
type PaymentArgs struct {
	ToName string
	Amount int64
}

// ParsePaymentArgs parses 補款 @對象 金額 (tokens in either order).
func ParsePaymentArgs(tokens []string) (*PaymentArgs, error) {
	const hint = "補款格式：@記帳 補款 @對象 金額（分隔可用空白/，/,）"
	if len(tokens) != 2 {
		return nil, usagef(hint)
	}

	args := &PaymentArgs{}
	for _, token := range tokens {
		if strings.HasPrefix(token, "@") && len(token) > 1 {
			args.ToName = strings.TrimPrefix(token, "@")
			continue
		}
		amount, err := strconv.ParseInt(token, 10, 64)
		if err != nil || amount <= 0 {
			return nil, usagef(hint)
		}
		args.Amount = amount
	}
	if args.ToName == "" || args.Amount == 0 {
		return nil, usagef(hint)
	}
	return args, nil
}

// ParseMemberName parses 新增成員 名字.
func ParseMemberName(tokens []string) (string, error) {
	if len(tokens) != 1 {
		return "", usagef("新增成員格式：@記帳 新增成員 名字")
	}
	name := strings.TrimPrefix(tokens[0], "@")
	if name == "" || Reserved(name) {
		return "", usagef("新增成員格式：@記帳 新增成員 名字")
	}
	return name, nil
}

// ParseMemberPosition parses 刪除成員 編號: the member's position in the
// manual-member segment of the 成員檢查 listing.
func ParseMemberPosition(tokens []string) (int, error) {
	if len(tokens) != 1 {
		return 0, usagef("刪除成員格式：@記帳 刪除成員 編號（編號見 成員檢查）")
	}
	pos, err := strconv.Atoi(tokens[0])
	if err != nil || pos <= 0 {
		return 0, usagef("刪除成員格式：@記帳 刪除成員 編號（編號見 成員檢查）")
	}
	return pos, nil
}
