// Package telegram is the transport layer: a thin Bot API client plus the
// long-poll and webhook adapters that feed the pipeline.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const apiBase = "https://api.telegram.org"

// Client is a minimal Bot API client covering exactly what the bot needs:
// getUpdates, sendMessage and setWebhook.
type Client struct {
	token   string
	baseURL string
	http    *http.Client
}

// Sender is the outbound side of the transport, extracted so the webhook
// handler and poller can be tested with a fake.
type Sender interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
}

func NewClient(token string) *Client {
	return &Client{
		token:   token,
		baseURL: apiBase,
		// No client timeout: long polling holds the connection open for the
		// requested timeout; per-call bounds come from the context.
		http: &http.Client{},
	}
}

type apiResponse struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result"`
	Description string          `json:"description"`
}

func (c *Client) call(ctx context.Context, method string, payload any, result any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", method, err)
	}

	url := fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s response: %w", method, err)
	}

	var api apiResponse
	if err := json.Unmarshal(raw, &api); err != nil {
		return fmt.Errorf("decode %s response: %w", method, err)
	}
	if !api.OK {
		return fmt.Errorf("%s rejected: %s", method, api.Description)
	}
	if result != nil {
		if err := json.Unmarshal(api.Result, result); err != nil {
			return fmt.Errorf("decode %s result: %w", method, err)
		}
	}
	return nil
}

// GetUpdates long-polls for updates starting at offset. The server holds the
// request open up to timeout before returning an empty batch.
func (c *Client) GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]Update, error) {
	payload := map[string]any{
		"offset":          offset,
		"timeout":         int(timeout.Seconds()),
		"allowed_updates": []string{"message"},
	}
	var updates []Update
	if err := c.call(ctx, "getUpdates", payload, &updates); err != nil {
		return nil, err
	}
	return updates, nil
}

// SendMessage sends Markdown-formatted text to a chat.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string) error {
	payload := map[string]any{
		"chat_id":    chatID,
		"text":       text,
		"parse_mode": "Markdown",
	}
	return c.call(ctx, "sendMessage", payload, nil)
}

// SetWebhook registers url as the update target, replacing long polling.
func (c *Client) SetWebhook(ctx context.Context, url string) error {
	payload := map[string]any{
		"url":             url,
		"allowed_updates": []string{"message"},
	}
	return c.call(ctx, "setWebhook", payload, nil)
}
