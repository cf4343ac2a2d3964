package bot

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pinghanh/ledgerbot/internal/models"
	"github.com/pinghanh/ledgerbot/internal/session"
	"github.com/pinghanh/ledgerbot/internal/storage/sqlite"
)

// fakeDirectory serves canned names and rosters.
type fakeDirectory struct {
	names     map[string]string
	roster    []string
	rosterErr error
}

func (d *fakeDirectory) DisplayName(_ context.Context, _ Event, userID string) string {
	if name, ok := d.names[userID]; ok {
		return name
	}
	return userID
}

func (d *fakeDirectory) RosterIDs(_ context.Context, _ Event) ([]string, error) {
	return d.roster, d.rosterErr
}

type testBot struct {
	bot   *Bot
	store *sqlite.SQLiteStore
	ev    Event
	now   time.Time
}

func newTestBot(t *testing.T, dir *fakeDirectory, opts Options) *testBot {
	t.Helper()
	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	tb := &testBot{
		store: store,
		ev:    Event{ChatID: "group:g1", UserID: "u1", SourceType: "group", GroupID: "g1"},
		now:   time.Date(2026, 8, 31, 14, 0, 0, 0, time.Local),
	}
	opts.Now = func() time.Time { return tb.now }
	tb.bot = New(store, dir, session.New(0, nil), opts)
	return tb
}

func (tb *testBot) handle(t *testing.T, text string) string {
	t.Helper()
	reply, err := tb.bot.Handle(context.Background(), tb.ev, text)
	if err != nil {
		t.Fatalf("Handle(%q) error = %v", text, err)
	}
	return reply
}

func (tb *testBot) handleAs(t *testing.T, userID, text string) string {
	t.Helper()
	ev := tb.ev
	ev.UserID = userID
	reply, err := tb.bot.Handle(context.Background(), ev, text)
	if err != nil {
		t.Fatalf("Handle(%q) as %s error = %v", text, userID, err)
	}
	return reply
}

func wantContains(t *testing.T, reply string, parts ...string) {
	t.Helper()
	for _, part := range parts {
		if !strings.Contains(reply, part) {
			t.Errorf("reply missing %q:\n%s", part, reply)
		}
	}
}

func TestHandleIgnoresUnprefixedText(t *testing.T) {
	tb := newTestBot(t, &fakeDirectory{}, Options{})
	if reply := tb.handle(t, "午餐 120"); reply != "" {
		t.Errorf("unprefixed text got reply %q, want silence", reply)
	}
	if reply := tb.handle(t, "確認"); reply != "" {
		t.Errorf("stray confirmation got reply %q, want silence", reply)
	}
}

func TestHandleRecord(t *testing.T) {
	dir := &fakeDirectory{names: map[string]string{"u1": "阿明"}}
	tb := newTestBot(t, dir, Options{})

	reply := tb.handle(t, "@記帳 午餐 120")
	wantContains(t, reply, "記帳成功", "類型：支出", "項目：午餐", "金額：120")

	reply = tb.handle(t, "@記帳 查詢")
	wantContains(t, reply, "記帳總覽（全部）", "總支出：120", "目前餘額：-120", "1. 阿明：120")
}

func TestHandleRecordForTarget(t *testing.T) {
	tb := newTestBot(t, &fakeDirectory{}, Options{})

	tb.handle(t, "@記帳 門票 200 @小明")

	reply := tb.handle(t, "@記帳 查詢")
	wantContains(t, reply, "1. 小明：200")

	// Naming a target also registers them as a manual member.
	reply = tb.handle(t, "@記帳 成員檢查")
	wantContains(t, reply, "手動成員（1 位）：", "1. 小明")
}

func TestHandleUsageErrorBecomesReply(t *testing.T) {
	tb := newTestBot(t, &fakeDirectory{}, Options{})

	reply := tb.handle(t, "@記帳 午餐")
	wantContains(t, reply, "格式錯誤")

	reply = tb.handle(t, "@記帳 查詢 亂填")
	wantContains(t, reply, "範圍只能填", "可用範圍例子：2/25、2月、2025、2月到5月")
}

func TestHelp(t *testing.T) {
	tb := newTestBot(t, &fakeDirectory{}, Options{})
	for _, text := range []string{"@記帳", "@記帳 格式", "@記帳格式"} {
		wantContains(t, tb.handle(t, text), "請用以下格式")
	}
}

func TestDeleteConfirmFlow(t *testing.T) {
	tb := newTestBot(t, &fakeDirectory{}, Options{})
	tb.handle(t, "@記帳 午餐 120")

	reply := tb.handle(t, "@記帳 刪除 1")
	wantContains(t, reply, "即將刪除以下紀錄", "項目：午餐", "請回覆「確認」後刪除")

	reply = tb.handle(t, "確認")
	wantContains(t, reply, "已刪除紀錄 ID：1")

	count, err := tb.store.CountRecords(context.Background(), tb.ev.ChatID)
	if err != nil {
		t.Fatalf("CountRecords() error = %v", err)
	}
	if count != 0 {
		t.Errorf("count after delete = %d, want 0", count)
	}

	// Nothing pending anymore: a second confirmation is ordinary chatter.
	if reply := tb.handle(t, "確認"); reply != "" {
		t.Errorf("confirmation with nothing pending got reply %q", reply)
	}
}

func TestDeleteDisarmedByNextMessage(t *testing.T) {
	tb := newTestBot(t, &fakeDirectory{}, Options{})
	tb.handle(t, "@記帳 午餐 120")
	tb.handle(t, "@記帳 刪除 1")

	// A non-confirmation routes normally and disarms the pending delete.
	reply := tb.handle(t, "@記帳 狀態")
	wantContains(t, reply, "記帳狀態", "紀錄筆數：1")

	if reply := tb.handle(t, "確認"); reply != "" {
		t.Errorf("disarmed confirmation got reply %q, want silence", reply)
	}
	count, err := tb.store.CountRecords(context.Background(), tb.ev.ChatID)
	if err != nil {
		t.Fatalf("CountRecords() error = %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d, want the record untouched", count)
	}
}

func TestDeleteNotFound(t *testing.T) {
	tb := newTestBot(t, &fakeDirectory{}, Options{})
	reply := tb.handle(t, "@記帳 刪除 5")
	wantContains(t, reply, "找不到可刪除的紀錄 ID：5")
}

func TestDetailViewPinsDisplayIDs(t *testing.T) {
	tb := newTestBot(t, &fakeDirectory{}, Options{})

	tb.handle(t, "@記帳 早餐 60")
	tb.now = tb.now.Add(time.Hour)
	tb.handle(t, "@記帳 午餐 120")

	// Listing shows 午餐 as 1, 早餐 as 2 and caches that mapping.
	reply := tb.handle(t, "@記帳 詳細查詢 全部")
	wantContains(t, reply, "記帳詳細（全部）", "項目：午餐", "項目：早餐")

	// A record landing after the listing shifts every fresh rank down,
	// but the ids the user just saw must keep meaning the same rows.
	tb.now = tb.now.Add(time.Hour)
	tb.handle(t, "@記帳 宵夜 80")

	reply = tb.handle(t, "@記帳 刪除 2")
	wantContains(t, reply, "項目：早餐")
	tb.handle(t, "確認")

	rows, err := tb.store.ListRecords(context.Background(), tb.ev.ChatID, models.Window{}, 30)
	if err != nil {
		t.Fatalf("ListRecords() error = %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows after delete, want 2", len(rows))
	}
	for _, row := range rows {
		if row.Item == "早餐" {
			t.Errorf("早餐 should be deleted, still present: %+v", row)
		}
	}
}

func TestModify(t *testing.T) {
	tb := newTestBot(t, &fakeDirectory{}, Options{})
	tb.handle(t, "@記帳 午餐 120")

	reply := tb.handle(t, "@記帳 修改 1 項目 聚餐 金額 1000 收支 收入")
	wantContains(t, reply, "已修改紀錄 ID：1", "類型：收入", "項目：聚餐", "金額：1000")

	rec, err := tb.store.GetRecordByRank(context.Background(), tb.ev.ChatID, 1)
	if err != nil {
		t.Fatalf("GetRecordByRank() error = %v", err)
	}
	if rec.Item != "聚餐" || rec.Amount != 1000 || rec.RecordType != models.TypeIncome {
		t.Errorf("stored record = %+v", rec)
	}

	reply = tb.handle(t, "@記帳 修改 5 收入")
	wantContains(t, reply, "找不到可修改的紀錄 ID：5")
}

func TestSettleSinglePayer(t *testing.T) {
	dir := &fakeDirectory{
		names:  map[string]string{"u1": "阿明", "u2": "小華", "u3": "小美"},
		roster: []string{"u1", "u2", "u3", "bot"},
	}
	tb := newTestBot(t, dir, Options{BotUserID: "bot"})

	tb.handle(t, "@記帳 晚餐 300")

	reply := tb.handle(t, "@記帳 算錢 全部")
	wantContains(t, reply,
		"分帳結果（全部）",
		"總支出：300",
		"公費支應：0",
		"參與人數：3",
		"阿明 應收 200",
		"小華 應付 100",
		"小美 應付 100",
		"小華 → 阿明：100",
		"小美 → 阿明：100",
	)
}

func TestSettleUsesIncomeAsPool(t *testing.T) {
	dir := &fakeDirectory{
		names:  map[string]string{"u1": "阿明", "u2": "小華"},
		roster: []string{"u1", "u2"},
	}
	tb := newTestBot(t, dir, Options{})

	// 300 of shared funds fully cover 阿明's outlay; nothing to split.
	tb.handle(t, "@記帳 班費 300 收入")
	tb.handle(t, "@記帳 晚餐 300")

	reply := tb.handle(t, "@記帳 算錢 全部")
	wantContains(t, reply,
		"總支出：300",
		"公費支應：300",
		"阿明 已結清",
		"小華 已結清",
		"無需轉帳",
	)
}

func TestSettleAfterPayment(t *testing.T) {
	dir := &fakeDirectory{
		names:  map[string]string{"u1": "阿明", "u2": "小華", "u3": "小美"},
		roster: []string{"u1", "u2", "u3"},
	}
	tb := newTestBot(t, dir, Options{})

	tb.handle(t, "@記帳 晚餐 300")

	reply := tb.handleAs(t, "u2", "@記帳 補款 @阿明 100")
	wantContains(t, reply, "補款成功", "付款人：小華", "收款人：阿明", "金額：100")

	reply = tb.handle(t, "@記帳 算錢 全部")
	wantContains(t, reply,
		"阿明 應收 100",
		"小華 已結清",
		"小美 應付 100",
		"小美 → 阿明：100",
	)
	if strings.Contains(reply, "小華 → ") {
		t.Errorf("小華 already settled up, reply still asks for a transfer:\n%s", reply)
	}
}

func TestSettleRosterDegradesOnLookupFailure(t *testing.T) {
	dir := &fakeDirectory{
		names:     map[string]string{"u1": "阿明"},
		rosterErr: errors.New("members API unavailable"),
	}
	tb := newTestBot(t, dir, Options{})

	tb.handle(t, "@記帳 晚餐 300")

	// Roster lookup fails: the payer plus padded placeholders still settle.
	reply := tb.handle(t, "@記帳 算錢 全部 3")
	wantContains(t, reply,
		"參與人數：3",
		"成員名單取得失敗",
		"阿明 應收 200",
		"成員2 應付 100",
		"成員3 應付 100",
	)
}

func TestSettleHeadcountPadding(t *testing.T) {
	dir := &fakeDirectory{names: map[string]string{"u1": "阿明"}, roster: []string{"u1"}}
	tb := newTestBot(t, dir, Options{DefaultHeadcount: 4})

	tb.handle(t, "@記帳 晚餐 400")

	reply := tb.handle(t, "@記帳 算錢 全部")
	wantContains(t, reply, "參與人數：4", "阿明 應收 300", "成員4 應付 100")
}

func TestMemberCommands(t *testing.T) {
	dir := &fakeDirectory{names: map[string]string{"u1": "阿明"}, roster: []string{"u1"}}
	tb := newTestBot(t, dir, Options{})

	wantContains(t, tb.handle(t, "@記帳 新增成員 小明"), "已新增成員：小明")
	wantContains(t, tb.handle(t, "@記帳 新增成員 小華"), "已新增成員：小華")

	reply := tb.handle(t, "@記帳 成員檢查")
	wantContains(t, reply, "群組成員（1 位）：", "1. 阿明", "手動成員（2 位）：", "1. 小明", "2. 小華")

	wantContains(t, tb.handle(t, "@記帳 刪除成員 1"), "已刪除成員：小明")
	wantContains(t, tb.handle(t, "@記帳 刪除成員 2"), "找不到手動成員編號：2")
	wantContains(t, tb.handle(t, "@記帳 成員檢查"), "手動成員（1 位）：", "1. 小華")
}

func TestStatus(t *testing.T) {
	tb := newTestBot(t, &fakeDirectory{}, Options{DefaultHeadcount: 5})

	tb.handle(t, "@記帳 午餐 120")
	tb.handle(t, "@記帳 班費 500 收入")
	tb.handle(t, "@記帳 新增成員 小明")

	reply := tb.handle(t, "@記帳 狀態")
	wantContains(t, reply,
		"記帳狀態",
		"紀錄筆數：2",
		"總收入：500",
		"總支出：120",
		"目前餘額：380",
		"手動成員：1 位",
		"預設分帳人數：5",
	)
}

func TestInternalErrorsStayInternal(t *testing.T) {
	tb := newTestBot(t, &fakeDirectory{}, Options{})
	tb.store.Close()

	_, err := tb.bot.Handle(context.Background(), tb.ev, "@記帳 午餐 120")
	if err == nil {
		t.Fatal("closed store should surface an internal error")
	}
}
