package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pinghanh/ledgerbot/internal/command"
	"github.com/pinghanh/ledgerbot/internal/models"
	"github.com/pinghanh/ledgerbot/internal/settlement"
)

func (b *Bot) handleSettle(ctx context.Context, ev Event, args []string) (string, error) {
	settleArgs, err := command.ParseSettleArgs(args, b.now())
	if err != nil {
		return "", withRangeHint(err)
	}
	window := settleArgs.Range.Window(b.now())

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

	// The shared fund covers outlays up to its balance: whatever was
	// carried in from before the range plus in-range income.
	carried, err := b.carriedBalance(ctx, ev.ChatID, window)
	if err != nil {
		return "", err
	}
	pool := carried + totalIncome
	if pool < 0 {
		pool = 0
	}
	if pool > totalExpense {
		pool = totalExpense
	}

	headcount := settleArgs.Headcount
	if headcount == 0 {
		headcount = b.headcount
	}

	participants, rosterNote, err := b.buildRoster(ctx, ev, paid, headcount)
	if err != nil {
		return "", err
	}
	if len(participants) == 0 {
		return fmt.Sprintf("分帳結果（%s）\n尚無可分帳的成員或支出", settleArgs.Range.Label), nil
	}

	adjustments, err := b.paymentAdjustments(ctx, ev.ChatID, window, participants)
	if err != nil {
		return "", err
	}

	result, err := settlement.Compute(participants, totalExpense, pool, adjustments)
	if err != nil {
		return "", err
	}
	slog.Info("settlement computed", "chat_id", ev.ChatID,
		"participants", len(participants), "expense", totalExpense, "pool", pool)

	return formatSettlement(settleArgs.Range, result, rosterNote), nil
}

// carriedBalance is the shared fund's balance strictly before the window
// start: prior income minus prior expense. An unbounded window carries zero.
func (b *Bot) carriedBalance(ctx context.Context, chatID string, w models.Window) (int64, error) {
	if w.Start == nil {
		return 0, nil
	}
	prior := models.Window{End: w.Start}
	income, err := b.store.SumByType(ctx, chatID, models.TypeIncome, prior)
	if err != nil {
		return 0, err
	}
	expense, err := b.store.SumByType(ctx, chatID, models.TypeExpense, prior)
	if err != nil {
		return 0, err
	}
	return income - expense, nil
}

// buildRoster assembles the settlement participants: the platform roster
// (minus the bot itself), any in-range payer the roster missed, manual
// members, then numbered placeholders padding up to headcount. When the
// roster is larger than the headcount the union wins; nothing is truncated.
// A roster lookup failure degrades to the payers+manual union and returns
// an informational note.
func (b *Bot) buildRoster(ctx context.Context, ev Event, paid []models.ContributorTotal, headcount int) ([]settlement.Participant, string, error) {
	paidBy := make(map[string]int64, len(paid))
	for _, row := range paid {
		paidBy[row.UserID] = row.Paid
	}

	var participants []settlement.Participant
	seen := make(map[string]bool)
	add := func(id, name string) {
		if id != "" && seen[id] {
			return
		}
		seen[id] = true
		participants = append(participants, settlement.Participant{
			ID: id, Name: name, Paid: paidBy[id],
		})
	}

	var rosterNote string
	rosterIDs, err := b.dir.RosterIDs(ctx, ev)
	if err != nil {
		rosterNote = fmt.Sprintf("（成員名單取得失敗：%v，僅以付款人與手動成員計算）", err)
		slog.Warn("roster lookup failed", "chat_id", ev.ChatID, "error", err)
	}
	for _, id := range rosterIDs {
		if id == b.botUserID {
			continue
		}
		add(id, b.dir.DisplayName(ctx, ev, id))
	}

	// Payers the roster lookup missed still owe and are owed.
	for _, row := range paid {
		add(row.UserID, b.contributorName(ctx, ev, row.UserID))
	}

	members, err := b.store.ListMembers(ctx, ev.ChatID)
	if err != nil {
		return nil, "", err
	}
	for _, m := range members {
		add(models.ManualUserID(m.Name), m.Name)
	}

	for i := len(participants) + 1; len(participants) < headcount; i++ {
		add("", fmt.Sprintf("成員%d", i))
	}
	return participants, rosterNote, nil
}

// paymentAdjustments nets recorded settlement payments into per-participant
// deltas: paid out minus received.
func (b *Bot) paymentAdjustments(ctx context.Context, chatID string, w models.Window, participants []settlement.Participant) ([]int64, error) {
	payments, err := b.store.ListPayments(ctx, chatID, w)
	if err != nil {
		return nil, err
	}
	if len(payments) == 0 {
		return nil, nil
	}

	byID := make(map[string]int, len(participants))
	byName := make(map[string]int, len(participants))
	for i, p := range participants {
		if p.ID != "" {
			byID[p.ID] = i
		}
		byName[p.Name] = i
	}

	adjustments := make([]int64, len(participants))
	for _, payment := range payments {
		if i, ok := byID[payment.FromUserID]; ok {
			adjustments[i] += payment.Amount
		}
		if i, ok := byName[payment.ToName]; ok {
			adjustments[i] -= payment.Amount
		}
	}
	return adjustments, nil
}

func formatSettlement(spec *command.RangeSpec, result *settlement.Result, rosterNote string) string {
	lines := []string{
		fmt.Sprintf("分帳結果（%s）", spec.Label),
		fmt.Sprintf("總支出：%d", result.TotalExpense),
		fmt.Sprintf("公費支應：%d", result.Pool),
		fmt.Sprintf("參與人數：%d", len(result.Positions)),
	}
	if rosterNote != "" {
		lines = append(lines, rosterNote)
	}

	lines = append(lines, "", "每人結算：")
	for _, pos := range result.Positions {
		switch {
		case pos.Net > 0:
			lines = append(lines, fmt.Sprintf("%s 應收 %d", pos.Name, pos.Net))
		case pos.Net < 0:
			lines = append(lines, fmt.Sprintf("%s 應付 %d", pos.Name, -pos.Net))
		default:
			lines = append(lines, fmt.Sprintf("%s 已結清", pos.Name))
		}
	}

	lines = append(lines, "", "建議轉帳：")
	if len(result.Transfers) == 0 {
		lines = append(lines, "無需轉帳")
	}
	for _, t := range result.Transfers {
		lines = append(lines, fmt.Sprintf("%s → %s：%d", t.From, t.To, t.Amount))
	}
	return strings.Join(lines, "\n")
}
