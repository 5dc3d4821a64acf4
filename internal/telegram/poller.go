package telegram

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"spendbot/internal/pipeline"
)

// Pause between polls after a transport error.
const errorBackoff = time.Second

// UpdateSource is the inbound side of long polling, extracted for tests.
type UpdateSource interface {
	GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]Update, error)
}

// Poller is the stateful long-poll adapter: it drains updates in order,
// feeds them to the pipeline one at a time and persists the offset cursor
// after each update. Sequential processing keeps rows in the sheet in the
// order messages arrived.
type Poller struct {
	source  UpdateSource
	sender  Sender
	pipe    *pipeline.Pipeline
	offsets *OffsetStore
	timeout time.Duration
}

func NewPoller(source UpdateSource, sender Sender, pipe *pipeline.Pipeline, offsets *OffsetStore, timeout time.Duration) *Poller {
	return &Poller{
		source:  source,
		sender:  sender,
		pipe:    pipe,
		offsets: offsets,
		timeout: timeout,
	}
}

// Run polls until the context is cancelled.
func (p *Poller) Run(ctx context.Context) error {
	offset := p.offsets.Load()
	slog.InfoContext(ctx, "Expense tracker bot is running", "offset", offset)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		updates, err := p.source.GetUpdates(ctx, offset, p.timeout)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			slog.ErrorContext(ctx, "Polling error", "error", err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(errorBackoff):
			}
			continue
		}

		for _, u := range updates {
			p.handleUpdate(ctx, u)
			offset = u.UpdateID + 1
			if err := p.offsets.Save(offset); err != nil {
				slog.ErrorContext(ctx, "Failed to persist offset", "offset", offset, "error", err)
			}
		}
	}
}

func (p *Poller) handleUpdate(ctx context.Context, u Update) {
	msg := u.Message
	if msg == nil || msg.Text == "" {
		return
	}

	if strings.HasPrefix(msg.Text, "/start") {
		p.reply(ctx, msg.Chat.ID, WelcomeMessage)
		return
	}
	if strings.HasPrefix(msg.Text, "/") {
		// Unknown commands are silently ignored, matching the webhook variant.
		return
	}

	sentAt := time.Unix(msg.Date, 0)
	if reply, handled := p.pipe.Handle(ctx, msg.Text, sentAt); handled {
		p.reply(ctx, msg.Chat.ID, reply)
	}
}

func (p *Poller) reply(ctx context.Context, chatID int64, text string) {
	if err := p.sender.SendMessage(ctx, chatID, text); err != nil {
		slog.ErrorContext(ctx, "Failed to send reply", "chat_id", chatID, "error", err)
	}
}
