package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/pinghanh/ledgerbot/internal/command"
	"github.com/pinghanh/ledgerbot/internal/models"
)

// detailLimit caps how many rows a detail listing shows.
const detailLimit = 30

const helpText = "請用以下格式：\n" +
	"記帳：\n@記帳 項目 金額 [收支] [日期] [@對象]\n（欄位分隔支援：空白 / ， / ,；支援多行輸入）\n-\n" +
	"刪除：\n@記帳 刪除 ID\n（回覆「確認」後才會刪除）\n-\n" +
	"修改：\n@記帳 修改 ID 項目 金額 [收支] [日期]\n@記帳 修改 ID [收支或日期]\n@記帳 修改 ID [項目|金額|日期|收支] 值\n" +
	"可一次改多欄位：@記帳 修改 ID 項目 A 金額 1000 日期 2/20 收支 收入\n-\n" +
	"查詢：\n@記帳 查詢 [範圍]\n-\n" +
	"範圍查詢：\n@記帳 範圍查詢 起始月到結束月\n-\n" +
	"詳細查詢：\n@記帳 詳細查詢 [範圍]\n-\n" +
	"算錢：\n@記帳 算錢 [範圍] [人數]\n-\n" +
	"成員：\n@記帳 成員檢查\n@記帳 新增成員 名字\n@記帳 刪除成員 編號\n-\n" +
	"補款：\n@記帳 補款 @對象 金額\n-\n" +
	"狀態：\n@記帳 狀態\n-\n" +
	"範圍選項：日 / 周 / 月 / 年 / 全部\n" +
	"可用範圍例子：2/25、2月、2025、2月到5月\n" +
	"查詢預設範圍：全部\n詳細查詢預設範圍：月\n算錢預設範圍：月\n記帳預設：支出、當天"

// buildDetail renders a detail listing. Scopes within the current year
// (日/周/月) use short MM/DD dates under a per-year【YYYY】header; everything
// else shows full dates.
func (b *Bot) buildDetail(ctx context.Context, ev Event, spec *command.RangeSpec, rows []models.RankedRecord) string {
	lines := []string{fmt.Sprintf("記帳詳細（%s）", spec.Label)}
	if len(rows) == 0 {
		lines = append(lines, "該範圍尚無紀錄")
		return strings.Join(lines, "\n")
	}

	scope := "全部"
	if spec.Kind == command.RangeScope {
		scope = spec.Scope
	}
	useMonthDay := scope == "日" || scope == "周" || scope == "月"

	shownYear := 0
	for _, row := range rows {
		var dateText string
		if useMonthDay {
			if year := row.CreatedAt.Year(); year != shownYear {
				lines = append(lines, fmt.Sprintf("【%d】", year))
				shownYear = year
			}
			dateText = row.CreatedAt.Format("01/02")
		} else {
			dateText = row.CreatedAt.Format("2006/01/02")
		}

		name := b.contributorName(ctx, ev, row.UserID)
		lines = append(lines,
			fmt.Sprintf("日期：%s　ID：%d　", dateText, row.DisplayID),
			fmt.Sprintf("項目：%s", row.Item),
			fmt.Sprintf("金額：%d　登記人：%s", row.Amount, name),
			"-",
		)
	}
	return strings.Join(lines, "\n")
}
