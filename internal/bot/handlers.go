package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/pinghanh/ledgerbot/internal/command"
	"github.com/pinghanh/ledgerbot/internal/models"
	"github.com/pinghanh/ledgerbot/internal/storage"
)

const rangeExamplesHint = "可用範圍例子：2/25、2月、2025、2月到5月"

// resolveDisplayID resolves a user-typed display id to a record. The cached
// mapping from the last detail listing wins; a missing or stale cache falls
// through to fresh rank resolution against the full history.
func (b *Bot) resolveDisplayID(ctx context.Context, chatID string, displayID int) (*models.Record, error) {
	if recordID, ok := b.sessions.ResolveDetail(chatID, displayID); ok {
		record, err := b.store.GetRecord(ctx, chatID, recordID)
		if err == nil {
			return record, nil
		}
		if !errors.Is(err, storage.ErrNotFound) {
			return nil, err
		}
	}
	return b.store.GetRecordByRank(ctx, chatID, displayID)
}

func (b *Bot) handleRecord(ctx context.Context, ev Event, text string) (string, error) {
	records, err := command.ParseRecordMessage(text, b.now())
	if err != nil {
		return "", err
	}
	if len(records) == 0 {
		return "", nil
	}

	author := ev.UserID
	if author == "" {
		author = "unknown"
	}

	for i := range records {
		rec := &records[i]
		userID := author
		if rec.Target != "" {
			if err := b.store.UpsertMember(ctx, ev.ChatID, rec.Target); err != nil {
				return "", err
			}
			userID = models.ManualUserID(rec.Target)
		}
		row := &models.Record{
			ChatID:     ev.ChatID,
			UserID:     userID,
			Item:       rec.Item,
			Amount:     rec.Amount,
			RecordType: rec.RecordType,
			CreatedAt:  rec.CreatedAt,
		}
		if err := b.store.InsertRecord(ctx, row); err != nil {
			return "", err
		}
		slog.Info("record created", "chat_id", ev.ChatID, "record_id", row.ID,
			"type", row.RecordType, "amount", row.Amount)
	}

	if len(records) == 1 {
		rec := records[0]
		return fmt.Sprintf("記帳成功\n類型：%s\n項目：%s\n金額：%d",
			rec.RecordType, rec.Item, rec.Amount), nil
	}

	lines := []string{fmt.Sprintf("記帳成功（共%d筆）", len(records))}
	for i, rec := range records {
		lines = append(lines, fmt.Sprintf("%d. %s %s %d", i+1, rec.RecordType, rec.Item, rec.Amount))
	}
	return strings.Join(lines, "\n"), nil
}

func (b *Bot) handleDelete(ctx context.Context, ev Event, args []string) (string, error) {
	displayID, err := command.ParseDeleteID(args)
	if err != nil {
		return "", err
	}

	record, err := b.resolveDisplayID(ctx, ev.ChatID, displayID)
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Sprintf("找不到可刪除的紀錄 ID：%d", displayID), nil
	}
	if err != nil {
		return "", err
	}

	b.sessions.ArmDelete(ev.ChatID, record.ID, displayID)
	return fmt.Sprintf(
		"即將刪除以下紀錄：\nID：%d\n日期：%s\n類型：%s\n項目：%s\n金額：%d\n請回覆「確認」後刪除",
		displayID, record.CreatedAt.Format("2006/01/02"),
		record.RecordType, record.Item, record.Amount,
	), nil
}

func (b *Bot) handleModify(ctx context.Context, ev Event, args []string) (string, error) {
	mod, err := command.ParseModify(args, b.now())
	if err != nil {
		return "", err
	}

	record, err := b.resolveDisplayID(ctx, ev.ChatID, mod.DisplayID)
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Sprintf("找不到可修改的紀錄 ID：%d", mod.DisplayID), nil
	}
	if err != nil {
		return "", err
	}

	// Overlay only the fields the command supplied.
	if mod.Item != nil {
		record.Item = *mod.Item
	}
	if mod.Amount != nil {
		record.Amount = *mod.Amount
	}
	if mod.RecordType != nil {
		record.RecordType = *mod.RecordType
	}
	if mod.Date != nil {
		record.CreatedAt = *mod.Date
	}

	err = b.store.UpdateRecord(ctx, record)
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Sprintf("找不到可修改的紀錄 ID：%d", mod.DisplayID), nil
	}
	if err != nil {
		return "", err
	}

	slog.Info("record modified", "chat_id", ev.ChatID, "record_id", record.ID)
	return fmt.Sprintf("已修改紀錄 ID：%d\n類型：%s\n項目：%s\n金額：%d\n日期：%s",
		mod.DisplayID, record.RecordType, record.Item, record.Amount,
		record.CreatedAt.Format("2006/01/02"),
	), nil
}

// withRangeHint appends the range examples to range parse failures so the
// user sees valid spellings next to the complaint.
func withRangeHint(err error) error {
	var usage *command.UsageError
	if errors.As(err, &usage) {
		return &command.UsageError{Message: usage.Message + "\n" + rangeExamplesHint}
	}
	return err
}

func (b *Bot) handleSummary(ctx context.Context, ev Event, args []string) (string, error) {
	spec, err := command.ParseRangeSpec(args, "全部", b.now())
	if err != nil {
		return "", withRangeHint(err)
	}
	return b.buildSummary(ctx, ev, spec)
}

func (b *Bot) handleMonthRangeSummary(ctx context.Context, ev Event, args []string) (string, error) {
	spec, err := command.ParseMonthRangeSpec(args, b.now())
	if err != nil {
		return "", withRangeHint(err)
	}
	return b.buildSummary(ctx, ev, spec)
}

func (b *Bot) buildSummary(ctx context.Context, ev Event, spec *command.RangeSpec) (string, error) {
	window := spec.Window(b.now())

	totalExpense, err := b.store.SumByType(ctx, ev.ChatID, models.TypeExpense, window)
	if err != nil {
		return "", err
	}
	totalIncome, err := b.store.SumByType(ctx, ev.ChatID, models.TypeIncome, window)
	if err != nil {
		return "", err
	}
	paid, err := b.store.PaidByContributor(ctx, ev.ChatID, window)
	if err != nil {
		return "", err
	}

	lines := []string{
		fmt.Sprintf("記帳總覽（%s）", spec.Label),
		fmt.Sprintf("總收入：%d", totalIncome),
		fmt.Sprintf("總支出：%d", totalExpense),
		fmt.Sprintf("目前餘額：%d", totalIncome-totalExpense),
		"",
		"誰目前付了多少：",
	}
	if len(paid) == 0 {
		lines = append(lines, "尚無支出紀錄")
	}
	for i, row := range paid {
		name := b.contributorName(ctx, ev, row.UserID)
		lines = append(lines, fmt.Sprintf("%d. %s：%d", i+1, name, row.Paid))
	}
	return strings.Join(lines, "\n"), nil
}

func (b *Bot) handleDetail(ctx context.Context, ev Event, args []string) (string, error) {
	spec, err := command.ParseRangeSpec(args, "月", b.now())
	if err != nil {
		return "", withRangeHint(err)
	}

	rows, err := b.store.ListRecords(ctx, ev.ChatID, spec.Window(b.now()), detailLimit)
	if err != nil {
		return "", err
	}

	// Arm the detail-view cache so a follow-up 刪除/修改 addresses the
	// rows this listing displayed, even if records land in between.
	view := make(map[int]int64, len(rows))
	for _, row := range rows {
		view[row.DisplayID] = row.ID
	}
	b.sessions.SetDetailView(ev.ChatID, view)

	return b.buildDetail(ctx, ev, spec, rows), nil
}

// handleMemberCheck lists who a settlement would include: the platform
// roster and the manual members with the positions 刪除成員 addresses.
func (b *Bot) handleMemberCheck(ctx context.Context, ev Event) (string, error) {
	lines := []string{"成員檢查"}

	rosterIDs, err := b.dir.RosterIDs(ctx, ev)
	if err != nil {
		lines = append(lines, fmt.Sprintf("（成員名單取得失敗：%v）", err))
	} else {
		var names []string
		for _, id := range rosterIDs {
			if id == b.botUserID {
				continue
			}
			names = append(names, b.dir.DisplayName(ctx, ev, id))
		}
		lines = append(lines, fmt.Sprintf("群組成員（%d 位）：", len(names)))
		for i, name := range names {
			lines = append(lines, fmt.Sprintf("%d. %s", i+1, name))
		}
	}

	members, err := b.store.ListMembers(ctx, ev.ChatID)
	if err != nil {
		return "", err
	}
	if len(members) == 0 {
		lines = append(lines, "手動成員：無")
	} else {
		lines = append(lines, fmt.Sprintf("手動成員（%d 位）：", len(members)))
		for i, m := range members {
			lines = append(lines, fmt.Sprintf("%d. %s", i+1, m.Name))
		}
	}
	return strings.Join(lines, "\n"), nil
}

func (b *Bot) handleAddMember(ctx context.Context, ev Event, args []string) (string, error) {
	name, err := command.ParseMemberName(args)
	if err != nil {
		return "", err
	}
	if err := b.store.UpsertMember(ctx, ev.ChatID, name); err != nil {
		return "", err
	}
	return fmt.Sprintf("已新增成員：%s", name), nil
}

func (b *Bot) handleDeleteMember(ctx context.Context, ev Event, args []string) (string, error) {
	pos, err := command.ParseMemberPosition(args)
	if err != nil {
		return "", err
	}

	members, err := b.store.ListMembers(ctx, ev.ChatID)
	if err != nil {
		return "", err
	}
	if pos > len(members) {
		return fmt.Sprintf("找不到手動成員編號：%d", pos), nil
	}

	name := members[pos-1].Name
	err = b.store.DeleteMember(ctx, ev.ChatID, name)
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Sprintf("找不到手動成員編號：%d", pos), nil
	}
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("已刪除成員：%s", name), nil
}

func (b *Bot) handlePayment(ctx context.Context, ev Event, args []string) (string, error) {
	payment, err := command.ParsePaymentArgs(args)
	if err != nil {
		return "", err
	}

	author := ev.UserID
	if author == "" {
		author = "unknown"
	}
	row := &models.SettlementPayment{
		ChatID:     ev.ChatID,
		FromUserID: author,
		ToName:     payment.ToName,
		Amount:     payment.Amount,
		CreatedAt:  b.now().Truncate(time.Second),
	}
	if err := b.store.InsertPayment(ctx, row); err != nil {
		return "", err
	}

	return fmt.Sprintf("補款成功\n付款人：%s\n收款人：%s\n金額：%d",
		b.contributorName(ctx, ev, author), payment.ToName, payment.Amount), nil
}

func (b *Bot) handleStatus(ctx context.Context, ev Event) (string, error) {
	count, err := b.store.CountRecords(ctx, ev.ChatID)
	if err != nil {
		return "", err
	}
	all := models.Window{}
	totalExpense, err := b.store.SumByType(ctx, ev.ChatID, models.TypeExpense, all)
	if err != nil {
		return "", err
	}
	totalIncome, err := b.store.SumByType(ctx, ev.ChatID, models.TypeIncome, all)
	if err != nil {
		return "", err
	}
	members, err := b.store.ListMembers(ctx, ev.ChatID)
	if err != nil {
		return "", err
	}

	lines := []string{
		"記帳狀態",
		fmt.Sprintf("紀錄筆數：%d", count),
		fmt.Sprintf("總收入：%d", totalIncome),
		fmt.Sprintf("總支出：%d", totalExpense),
		fmt.Sprintf("目前餘額：%d", totalIncome-totalExpense),
		fmt.Sprintf("手動成員：%d 位", len(members)),
	}
	if b.headcount > 0 {
		lines = append(lines, fmt.Sprintf("預設分帳人數：%d", b.headcount))
	}
	return strings.Join(lines, "\n"), nil
}

// contributorName resolves a contributor id to a display name. Manual
// placeholders resolve locally; everything else asks the directory.
func (b *Bot) contributorName(ctx context.Context, ev Event, userID string) string {
	if name, ok := strings.CutPrefix(userID, "manual:"); ok {
		return name
	}
	return b.dir.DisplayName(ctx, ev, userID)
}
