package genai

import (
	"errors"
	"strings"
	"testing"

	"spendbot/internal/core"
	"spendbot/internal/extract"
)

func TestDecodeExpense(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    extract.Expense
		wantErr error
	}{
		{
			name: "plain object",
			raw:  `{"name": "Chicken Rice", "category": "Food", "amount": 12.9}`,
			want: extract.Expense{Name: "Chicken Rice", Category: core.Food, Amount: 12.9},
		},
		{
			name: "errand classification",
			raw:  `{"name": "Chicken Rice", "category": "Errand", "amount": 12.9}`,
			want: extract.Expense{Name: "Chicken Rice", Category: core.Errand, Amount: 12.9},
		},
		{
			name: "markdown fenced despite instructions",
			raw:  "```json\n{\"name\": \"Netflix\", \"category\": \"Entertainment\", \"amount\": 15.90}\n```",
			want: extract.Expense{Name: "Netflix", Category: core.Entertainment, Amount: 15.9},
		},
		{
			name: "surrounding commentary",
			raw:  "Here you go: {\"name\": \"grab home\", \"category\": \"Transport\", \"amount\": 45}",
			want: extract.Expense{Name: "Grab Home", Category: core.Transport, Amount: 45},
		},
		{
			name: "name gets title cased",
			raw:  `{"name": "chicken rice", "category": "Food", "amount": 12.9}`,
			want: extract.Expense{Name: "Chicken Rice", Category: core.Food, Amount: 12.9},
		},
		{
			name: "unrecognized category normalizes to Others",
			raw:  `{"name": "Mystery", "category": "Gambling", "amount": 5}`,
			want: extract.Expense{Name: "Mystery", Category: core.Others, Amount: 5},
		},
		{
			name: "absent category defaults to Others",
			raw:  `{"name": "Mystery", "amount": 5}`,
			want: extract.Expense{Name: "Mystery", Category: core.Others, Amount: 5},
		},
		{
			name: "amount as numeric string coerces",
			raw:  `{"name": "Kopi", "category": "Food", "amount": "1.80"}`,
			want: extract.Expense{Name: "Kopi", Category: core.Food, Amount: 1.8},
		},
		{
			name: "zero amount preserved",
			raw:  `{"name": "Freebie", "category": "Others", "amount": 0}`,
			want: extract.Expense{Name: "Freebie", Category: core.Others, Amount: 0},
		},
		{
			name:    "not json at all",
			raw:     "sorry, I can't help with that",
			wantErr: &extract.Error{},
		},
		{
			name:    "missing name",
			raw:     `{"category": "Food", "amount": 12.9}`,
			wantErr: extract.ErrMissingName,
		},
		{
			name:    "missing amount",
			raw:     `{"name": "Chicken Rice", "category": "Food"}`,
			wantErr: extract.ErrMissingAmount,
		},
		{
			name:    "null amount",
			raw:     `{"name": "Chicken Rice", "category": "Food", "amount": null}`,
			wantErr: extract.ErrMissingAmount,
		},
		{
			name:    "non-numeric amount rejected",
			raw:     `{"name": "Chicken Rice", "category": "Food", "amount": "a lot"}`,
			wantErr: extract.ErrBadAmount,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeExpense(tt.raw)
			if tt.wantErr != nil {
				if err == nil {
					t.Fatalf("decodeExpense(%q) succeeded, want error", tt.raw)
				}
				var ee *extract.Error
				if !errors.As(err, &ee) {
					t.Fatalf("decodeExpense(%q) error %T, want *extract.Error", tt.raw, err)
				}
				if sentinel, ok := tt.wantErr.(*extract.Error); !ok || sentinel.Err != nil {
					if !errors.Is(err, tt.wantErr) {
						t.Fatalf("decodeExpense(%q) error %v, want %v", tt.raw, err, tt.wantErr)
					}
				}
				if ee.Raw != tt.raw {
					t.Errorf("extract.Error.Raw = %q, want the offending payload %q", ee.Raw, tt.raw)
				}
				return
			}
			if err != nil {
				t.Fatalf("decodeExpense(%q) failed: %v", tt.raw, err)
			}
			if got != tt.want {
				t.Errorf("decodeExpense(%q) = %+v, want %+v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestSystemPromptContract(t *testing.T) {
	prompt := systemPrompt()

	for _, c := range core.Taxonomy {
		if !strings.Contains(prompt, string(c)) {
			t.Errorf("prompt does not mention category %q", c)
		}
	}

	for _, cue := range []string{"under mommy", "paid by mommy", "claim from mom", "for mommy", "ONLY valid JSON"} {
		if !strings.Contains(prompt, cue) {
			t.Errorf("prompt missing cue %q", cue)
		}
	}

	// The worked example that pins down the name-stripping behavior.
	if !strings.Contains(prompt, `"12.9 chicken rice under mommy"`) {
		t.Error("prompt missing the errand worked example")
	}
}

func TestStripFences(t *testing.T) {
	tests := []struct{ in, want string }{
		{"{\"a\":1}", "{\"a\":1}"},
		{"```json\n{\"a\":1}\n```", "{\"a\":1}"},
		{"```\n{\"a\":1}\n```", "{\"a\":1}"},
		{"noise {\"a\":1} noise", "{\"a\":1}"},
	}
	for _, tt := range tests {
		if got := stripFences(tt.in); got != tt.want {
			t.Errorf("stripFences(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
