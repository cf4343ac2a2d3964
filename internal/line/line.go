// Package line adapts the bot to the LINE Messaging API: webhook parsing
// with signature verification, reply delivery, and the member directory.
package line

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/line/line-bot-sdk-go/v7/linebot"

	"github.com/pinghanh/ledgerbot/internal/bot"
)

// NewAPI creates the underlying LINE API client.
func NewAPI(channelSecret, channelToken string) (*linebot.Client, error) {
	api, err := linebot.New(channelSecret, channelToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create LINE client: %w", err)
	}
	return api, nil
}

// ChatKey namespaces a conversation id by its source kind.
func ChatKey(source *linebot.EventSource) string {
	switch {
	case source == nil:
		return "user:unknown"
	case source.GroupID != "":
		return "group:" + source.GroupID
	case source.RoomID != "":
		return "room:" + source.RoomID
	case source.UserID != "":
		return "user:" + source.UserID
	}
	return "user:unknown"
}

// eventFrom flattens a LINE event source into a bot.Event.
func eventFrom(source *linebot.EventSource) bot.Event {
	ev := bot.Event{ChatID: ChatKey(source)}
	if source != nil {
		ev.UserID = source.UserID
		ev.SourceType = string(source.Type)
		ev.GroupID = source.GroupID
		ev.RoomID = source.RoomID
	}
	return ev
}

// Directory implements bot.Directory against the LINE profile and member
// APIs.
type Directory struct {
	api *linebot.Client
}

// NewDirectory creates the live directory adapter.
func NewDirectory(api *linebot.Client) *Directory {
	return &Directory{api: api}
}

// DisplayName resolves a member's display name, falling back to a masked
// id when the profile lookup fails (e.g. the user never added the bot).
func (d *Directory) DisplayName(ctx context.Context, ev bot.Event, userID string) string {
	if userID == "" || userID == "unknown" {
		return "未知使用者"
	}

	var profile *linebot.UserProfileResponse
	var err error
	switch {
	case ev.SourceType == "group" && ev.GroupID != "":
		profile, err = d.api.GetGroupMemberProfile(ev.GroupID, userID).WithContext(ctx).Do()
	case ev.SourceType == "room" && ev.RoomID != "":
		profile, err = d.api.GetRoomMemberProfile(ev.RoomID, userID).WithContext(ctx).Do()
	default:
		profile, err = d.api.GetProfile(userID).WithContext(ctx).Do()
	}
	if err != nil {
		slog.Debug("profile lookup failed", "user_id", userID, "error", err)
		return maskUserID(userID)
	}
	return profile.DisplayName
}

// RosterIDs lists the conversation's member ids. Listing group/room member
// ids requires a verified LINE account; the caller degrades gracefully when
// the API refuses.
func (d *Directory) RosterIDs(ctx context.Context, ev bot.Event) ([]string, error) {
	switch {
	case ev.SourceType == "group" && ev.GroupID != "":
		return d.pagedMemberIDs(ctx, func(token string) (*linebot.MemberIDsResponse, error) {
			return d.api.GetGroupMemberIDs(ev.GroupID, token).WithContext(ctx).Do()
		})
	case ev.SourceType == "room" && ev.RoomID != "":
		return d.pagedMemberIDs(ctx, func(token string) (*linebot.MemberIDsResponse, error) {
			return d.api.GetRoomMemberIDs(ev.RoomID, token).WithContext(ctx).Do()
		})
	case ev.UserID != "":
		return []string{ev.UserID}, nil
	}
	return nil, fmt.Errorf("成員名單僅支援群組或聊天室")
}

func (d *Directory) pagedMemberIDs(ctx context.Context, fetch func(token string) (*linebot.MemberIDsResponse, error)) ([]string, error) {
	var ids []string
	token := ""
	for {
		page, err := fetch(token)
		if err != nil {
			return nil, fmt.Errorf("failed to list member ids: %w", err)
		}
		ids = append(ids, page.MemberIDs...)
		if page.Next == "" {
			return ids, nil
		}
		token = page.Next
	}
}

func maskUserID(userID string) string {
	if len(userID) <= 10 {
		return userID
	}
	return userID[:6] + "..." + userID[len(userID)-4:]
}
