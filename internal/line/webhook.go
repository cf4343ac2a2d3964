package line

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/line/line-bot-sdk-go/v7/linebot"

	"github.com/pinghanh/ledgerbot/internal/bot"
	"github.com/pinghanh/ledgerbot/internal/metrics"
)

// Webhook is the HTTP handler for LINE message events. Signature
// verification happens inside ParseRequest using the channel secret.
type Webhook struct {
	api *linebot.Client
	bot *bot.Bot
}

// NewWebhook creates the webhook handler.
func NewWebhook(api *linebot.Client, b *bot.Bot) *Webhook {
	return &Webhook{api: api, bot: b}
}

// ServeHTTP parses the webhook body and hands every text message to the
// bot, replying once per handled event.
func (w *Webhook) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	events, err := w.api.ParseRequest(r)
	if err != nil {
		if errors.Is(err, linebot.ErrInvalidSignature) {
			slog.Warn("webhook signature rejected", "remote_addr", r.RemoteAddr)
			rw.WriteHeader(http.StatusBadRequest)
			return
		}
		slog.Error("webhook parse failed", "error", err)
		rw.WriteHeader(http.StatusInternalServerError)
		return
	}

	for _, event := range events {
		if event.Type != linebot.EventTypeMessage {
			continue
		}
		message, ok := event.Message.(*linebot.TextMessage)
		if !ok {
			continue
		}
		w.handleText(r, event, message.Text)
	}
	rw.WriteHeader(http.StatusOK)
}

func (w *Webhook) handleText(r *http.Request, event *linebot.Event, text string) {
	requestID := uuid.NewString()
	ev := eventFrom(event.Source)
	logger := slog.With("request_id", requestID, "chat_id", ev.ChatID)

	start := time.Now()
	reply, err := w.bot.Handle(r.Context(), ev, text)
	metrics.HandleDuration.Observe(time.Since(start).Seconds())

	switch {
	case err != nil:
		metrics.EventsTotal.WithLabelValues("error").Inc()
		logger.Error("event handling failed", "error", err)
		reply = "系統發生錯誤，請稍後再試"
	case reply == "":
		metrics.EventsTotal.WithLabelValues("ignored").Inc()
		return
	default:
		metrics.EventsTotal.WithLabelValues("replied").Inc()
	}

	if _, err := w.api.ReplyMessage(event.ReplyToken, linebot.NewTextMessage(reply)).Do(); err != nil {
		logger.Error("reply failed", "error", err)
		return
	}
	logger.Info("event handled", "duration_ms", time.Since(start).Milliseconds())
}
