package google

import (
	"encoding/base64"
	"testing"
)

func TestDecodeKey(t *testing.T) {
	rawJSON := `{"type":"service_account","project_id":"x"}`

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"raw json passes through", rawJSON, rawJSON},
		{"base64 is decoded", base64.StdEncoding.EncodeToString([]byte(rawJSON)), rawJSON},
		{"garbage falls through unchanged", "!!not-base64!!", "!!not-base64!!"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := string(decodeKey(tt.in)); got != tt.want {
				t.Errorf("decodeKey(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNewDefaults(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Error("New without spreadsheet ID should fail")
	}

	c, err := New(Config{SpreadsheetID: "abc"})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if c.cfg.SheetName != "Sheet1" {
		t.Errorf("default sheet name = %q, want Sheet1", c.cfg.SheetName)
	}
}
