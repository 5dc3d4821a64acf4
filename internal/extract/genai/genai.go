// Package genai implements the extraction port on top of the Gemini API.
// The model is asked for a strict JSON object; anything else fails the
// message rather than propagating a half-parsed record.
package genai

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"google.golang.org/genai"

	"spendbot/internal/core"
	"spendbot/internal/extract"
)

const (
	// DefaultModel balances latency and cost for a one-line extraction task.
	DefaultModel = "gemini-2.0-flash"

	// Near-zero temperature biases toward deterministic, literal extraction.
	extractionTemperature = 0.1

	// Enough for a short JSON object, bounds runaway output.
	maxOutputTokens = 150
)

type Parser struct {
	client *genai.Client
	model  string
}

var _ extract.Parser = (*Parser)(nil)

// New creates a Gemini-backed parser. The API key comes from cfg; when empty
// the SDK falls back to the GEMINI_API_KEY / GOOGLE_API_KEY environment.
func New(ctx context.Context, apiKey, model string) (*Parser, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	if model == "" {
		model = DefaultModel
	}
	return &Parser{client: client, model: model}, nil
}

// Parse sends the raw user text to the model together with the fixed
// instruction payload and decodes the response into expense fields.
func (p *Parser) Parse(ctx context.Context, text string) (extract.Expense, error) {
	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: text}},
		},
	}

	cfg := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: systemPrompt()}}},
		Temperature:       genai.Ptr[float32](extractionTemperature),
		MaxOutputTokens:   maxOutputTokens,
		ResponseMIMEType:  "application/json",
	}

	resp, err := p.client.Models.GenerateContent(ctx, p.model, contents, cfg)
	if err != nil {
		return extract.Expense{}, &extract.Error{Err: fmt.Errorf("generate content: %w", err)}
	}

	raw := resp.Text()
	if raw == "" {
		return extract.Expense{}, &extract.Error{Err: extract.ErrEmptyResponse}
	}

	return decodeExpense(raw)
}

// modelExpense is the exact shape the model is instructed to return. Pointer
// fields make absence detectable; Amount stays raw so both a JSON number and
// a numeric string coerce while anything else is rejected.
type modelExpense struct {
	Name     *string         `json:"name"`
	Category string          `json:"category"`
	Amount   json.RawMessage `json:"amount"`
}

// decodeExpense strictly decodes a model response. Markdown fences are
// stripped first in case the model ignores the no-markdown instruction.
func decodeExpense(raw string) (extract.Expense, error) {
	clean := stripFences(raw)

	var out modelExpense
	if err := json.Unmarshal([]byte(clean), &out); err != nil {
		return extract.Expense{}, &extract.Error{Raw: raw, Err: fmt.Errorf("unmarshal model output: %w", err)}
	}

	if out.Name == nil || strings.TrimSpace(*out.Name) == "" {
		return extract.Expense{}, &extract.Error{Raw: raw, Err: extract.ErrMissingName}
	}
	if len(out.Amount) == 0 || string(out.Amount) == "null" {
		return extract.Expense{}, &extract.Error{Raw: raw, Err: extract.ErrMissingAmount}
	}

	amount, err := coerceAmount(out.Amount)
	if err != nil {
		return extract.Expense{}, &extract.Error{Raw: raw, Err: err}
	}

	return extract.Expense{
		Name:     core.TitleCase(*out.Name),
		Category: core.NormalizeCategory(out.Category),
		Amount:   amount,
	}, nil
}

// coerceAmount accepts a JSON number or a numeric string. A malformed amount
// fails the message instead of silently becoming NaN or zero.
func coerceAmount(raw json.RawMessage) (float64, error) {
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if n, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return n, nil
		}
	}
	return 0, fmt.Errorf("%w: %s", extract.ErrBadAmount, raw)
}

// stripFences removes a ```json ... ``` wrapper and keeps only the outermost
// JSON object when stray text surrounds it.
func stripFences(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		}
		if idx := strings.LastIndex(s, "```"); idx != -1 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}

	if start := strings.Index(s, "{"); start != -1 {
		if end := strings.LastIndex(s, "}"); end > start {
			s = strings.TrimSpace(s[start : end+1])
		}
	}

	return s
}
