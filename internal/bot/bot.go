// Package bot routes inbound chat text to ledger operations and builds the
// reply for each one. Exactly one reply string is produced per handled
// event; text that doesn't carry the command prefix (and doesn't answer a
// pending delete) produces none.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/pinghanh/ledgerbot/internal/command"
	"github.com/pinghanh/ledgerbot/internal/session"
	"github.com/pinghanh/ledgerbot/internal/storage"
)

// Event is one inbound message, already stripped of transport concerns.
type Event struct {
	// ChatID is the conversation key: "group:<id>", "room:<id>" or
	// "user:<id>".
	ChatID string

	// UserID is the author's platform id; may be empty when the platform
	// withholds it.
	UserID string

	// SourceType is "group", "room" or "user".
	SourceType string

	GroupID string
	RoomID  string
}

// Directory resolves participant identity against the chat platform.
// The live implementation talks to the platform API; tests inject a fake.
type Directory interface {
	// DisplayName returns a human name for the user, or a masked
	// fallback id when the lookup fails. It never errors.
	DisplayName(ctx context.Context, ev Event, userID string) string

	// RosterIDs lists all known member ids of a group/room conversation.
	// Callers degrade gracefully on error.
	RosterIDs(ctx context.Context, ev Event) ([]string, error)
}

// Bot is the command router plus its collaborators.
type Bot struct {
	store     storage.Store
	dir       Directory
	sessions  *session.Store
	now       command.Clock
	headcount int
	botUserID string
}

// Options tunes a Bot. The zero value is usable in tests.
type Options struct {
	// Now supplies the clock; nil means wall clock via time.Now.
	Now command.Clock

	// DefaultHeadcount pads the settlement roster when the command
	// doesn't name a headcount. Zero disables padding.
	DefaultHeadcount int

	// BotUserID is excluded from settlement rosters.
	BotUserID string
}

// New creates a Bot with the given storage backend and directory.
func New(store storage.Store, dir Directory, sessions *session.Store, opts Options) *Bot {
	b := &Bot{
		store:     store,
		dir:       dir,
		sessions:  sessions,
		now:       opts.Now,
		headcount: opts.DefaultHeadcount,
		botUserID: opts.BotUserID,
	}
	if b.now == nil {
		b.now = time.Now
	}
	return b
}

var confirmKeywords = map[string]bool{
	"確定": true, "確認": true, "好": true,
}

func isConfirm(text string) bool {
	return confirmKeywords[text] || strings.EqualFold(text, "ok")
}

// Handle processes one inbound message and returns the reply text. An empty
// reply means stay silent. Returned errors are internal (storage/infra);
// every parse failure is already a localized reply.
func (b *Bot) Handle(ctx context.Context, ev Event, text string) (string, error) {
	text = strings.TrimSpace(text)

	// An armed delete intercepts the very next message: a confirmation
	// executes it, anything else disarms the slot and is then routed
	// normally.
	if pending := b.sessions.TakeDelete(ev.ChatID); pending != nil && isConfirm(text) {
		return b.executeDelete(ctx, ev, pending)
	}

	if !strings.HasPrefix(text, command.Prefix) {
		return "", nil
	}

	reply, err := b.dispatch(ctx, ev, text)
	var usage *command.UsageError
	if errors.As(err, &usage) {
		return usage.Message, nil
	}
	if err != nil {
		slog.Error("command failed", "chat_id", ev.ChatID, "error", err)
		return "", err
	}
	return reply, nil
}

func (b *Bot) dispatch(ctx context.Context, ev Event, text string) (string, error) {
	tokens := command.Tokenize(text)

	// The glued form "@記帳格式" has no separate dispatch token.
	if tokens[0] != command.Prefix {
		if tokens[0] == command.Prefix+"格式" && len(tokens) == 1 {
			return helpText, nil
		}
		return b.handleRecord(ctx, ev, text)
	}

	if len(tokens) == 1 {
		return helpText, nil
	}

	args := tokens[2:]
	switch tokens[1] {
	case "格式":
		return helpText, nil
	case "刪除":
		return b.handleDelete(ctx, ev, args)
	case "修改", "更新":
		return b.handleModify(ctx, ev, args)
	case "查詢", "總覽", "餘額", "查餘額":
		return b.handleSummary(ctx, ev, args)
	case "範圍查詢":
		return b.handleMonthRangeSummary(ctx, ev, args)
	case "詳細查詢", "明細", "詳細":
		return b.handleDetail(ctx, ev, args)
	case "算錢", "分帳":
		return b.handleSettle(ctx, ev, args)
	case "成員檢查", "成員":
		return b.handleMemberCheck(ctx, ev)
	case "新增成員":
		return b.handleAddMember(ctx, ev, args)
	case "刪除成員":
		return b.handleDeleteMember(ctx, ev, args)
	case "補款":
		return b.handlePayment(ctx, ev, args)
	case "狀態":
		return b.handleStatus(ctx, ev)
	}

	// Anything else prefixed is a record message (possibly multi-line).
	return b.handleRecord(ctx, ev, text)
}

func (b *Bot) executeDelete(ctx context.Context, ev Event, pending *session.PendingDelete) (string, error) {
	err := b.store.DeleteRecord(ctx, ev.ChatID, pending.RecordID)
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Sprintf("找不到可刪除的紀錄 ID：%d", pending.DisplayID), nil
	}
	if err != nil {
		return "", err
	}
	slog.Info("record deleted", "chat_id", ev.ChatID, "record_id", pending.RecordID)
	return fmt.Sprintf("已刪除紀錄 ID：%d", pending.DisplayID), nil
}
