package telegram

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"spendbot/internal/pipeline"
)

// WebhookHandler is the stateless transport adapter: Telegram POSTs one
// update per request. It always answers 200 so Telegram never retries an
// update; failures are reported to the user in-chat instead.
type WebhookHandler struct {
	sender Sender
	pipe   *pipeline.Pipeline
}

func NewWebhookHandler(sender Sender, pipe *pipeline.Pipeline) *WebhookHandler {
	return &WebhookHandler{sender: sender, pipe: pipe}
}

func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	defer func() {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}()

	if r.Method != http.MethodPost {
		return
	}

	var update Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		slog.ErrorContext(r.Context(), "Failed to decode update", "error", err)
		return
	}

	msg := update.Message
	if msg == nil || msg.Text == "" {
		return
	}

	ctx := r.Context()

	if strings.HasPrefix(msg.Text, "/start") {
		h.reply(ctx, msg.Chat.ID, WelcomeMessage)
		return
	}
	if strings.HasPrefix(msg.Text, "/") {
		return
	}

	sentAt := time.Unix(msg.Date, 0)
	if reply, handled := h.pipe.Handle(ctx, msg.Text, sentAt); handled {
		h.reply(ctx, msg.Chat.ID, reply)
	}
}

func (h *WebhookHandler) reply(ctx context.Context, chatID int64, text string) {
	if err := h.sender.SendMessage(ctx, chatID, text); err != nil {
		slog.ErrorContext(ctx, "Failed to send reply", "chat_id", chatID, "error", err)
	}
}
