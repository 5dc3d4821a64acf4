// Package google appends expense rows to a Google Sheet.
//
// The authenticated Sheets handle is established lazily on first append and
// cached for the lifetime of the client; concurrent cold starts collapse to a
// single auth attempt via singleflight.
package google

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"spendbot/internal/core"
	"spendbot/internal/sheets"
)

// How many rows the category dropdown covers. Reapplying the rule over the
// same range is a no-op for the spreadsheet state.
const validationRows = 1000

type Config struct {
	SpreadsheetID string
	// SheetName is the tab holding expense rows, e.g. "Sheet1".
	SheetName string
	// ServiceAccountKey is the service account JSON, optionally base64-encoded
	// (the deploy-friendly form produced by cmd/encode-key).
	ServiceAccountKey string
	// ServiceAccountFile is a path fallback when no inline key is set.
	ServiceAccountFile string
}

type Client struct {
	cfg Config

	mu      sync.Mutex
	svc     *gsheet.Service
	sheetID int64
	flight  singleflight.Group

	// validationApplied gates the best-effort dropdown request so it runs
	// once per process, not once per append.
	validationApplied bool
}

var _ sheets.ExpenseWriter = (*Client)(nil)

func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet ID")
	}
	if cfg.SheetName == "" {
		cfg.SheetName = "Sheet1"
	}
	return &Client{cfg: cfg, sheetID: -1}, nil
}

// Append writes [date, name, category, amount] to the next row of the sheet.
// USER_ENTERED makes the backend coerce the numeric string into a number and
// the date string into a date cell.
func (c *Client) Append(ctx context.Context, e core.Expense) (string, error) {
	if err := e.Validate(); err != nil {
		return "", fmt.Errorf("validation failed: %w", err)
	}

	svc, err := c.service(ctx)
	if err != nil {
		return "", fmt.Errorf("sheets service: %w", err)
	}

	rng := fmt.Sprintf("%s!A:D", c.cfg.SheetName)
	vr := &gsheet.ValueRange{
		Values: [][]any{{e.Date.String(), e.Name, string(e.Category), e.Amount}},
	}

	resp, err := svc.Spreadsheets.Values.Append(c.cfg.SpreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("append to %s: %w", rng, err)
	}

	// Cosmetic: keep the category column constrained to the taxonomy. A
	// failure here is logged and swallowed, the row write is the guarantee.
	if err := c.ensureCategoryValidation(ctx, svc); err != nil {
		slog.WarnContext(ctx, "Failed to apply category dropdown",
			"spreadsheet_id", c.cfg.SpreadsheetID, "error", err)
	}

	ref := rng
	if resp.Updates != nil && resp.Updates.UpdatedRange != "" {
		ref = resp.Updates.UpdatedRange
	}
	return ref, nil
}

// service returns the cached Sheets handle, authenticating on first use.
func (c *Client) service(ctx context.Context) (*gsheet.Service, error) {
	c.mu.Lock()
	if c.svc != nil {
		svc := c.svc
		c.mu.Unlock()
		return svc, nil
	}
	c.mu.Unlock()

	v, err, _ := c.flight.Do("auth", func() (any, error) {
		svc, err := newService(ctx, c.cfg)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.svc = svc
		c.mu.Unlock()
		return svc, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*gsheet.Service), nil
}

// newService builds an authenticated Sheets service from service account
// credentials: inline key (raw or base64 JSON), then file path, then the
// standard GOOGLE_APPLICATION_CREDENTIALS location.
func newService(ctx context.Context, cfg Config) (*gsheet.Service, error) {
	key := strings.TrimSpace(cfg.ServiceAccountKey)
	file := strings.TrimSpace(cfg.ServiceAccountFile)
	if key == "" && file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	switch {
	case key != "":
		credentialsJSON = decodeKey(key)
	case file != "":
		b, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = b
	default:
		return nil, errors.New("missing service account credentials")
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return svc, nil
}

// decodeKey accepts either raw JSON or the base64-encoded form.
func decodeKey(key string) []byte {
	if strings.HasPrefix(key, "{") {
		return []byte(key)
	}
	if b, err := base64.StdEncoding.DecodeString(key); err == nil {
		return b
	}
	return []byte(key)
}

// ensureCategoryValidation sets a ONE_OF_LIST dropdown on the category column
// over a bounded row range. The request is idempotent: it overwrites the same
// rule with the same values every time.
func (c *Client) ensureCategoryValidation(ctx context.Context, svc *gsheet.Service) error {
	c.mu.Lock()
	done := c.validationApplied
	c.mu.Unlock()
	if done {
		return nil
	}

	sheetID, err := c.resolveSheetID(ctx, svc)
	if err != nil {
		return err
	}

	values := make([]*gsheet.ConditionValue, 0, len(core.Taxonomy))
	for _, cat := range core.Taxonomy {
		values = append(values, &gsheet.ConditionValue{UserEnteredValue: string(cat)})
	}

	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			SetDataValidation: &gsheet.SetDataValidationRequest{
				Range: &gsheet.GridRange{
					SheetId:          sheetID,
					StartRowIndex:    1, // skip header row
					EndRowIndex:      validationRows,
					StartColumnIndex: 2, // column C, category
					EndColumnIndex:   3,
				},
				Rule: &gsheet.DataValidationRule{
					Condition: &gsheet.BooleanCondition{
						Type:   "ONE_OF_LIST",
						Values: values,
					},
					ShowCustomUi: true,
				},
			},
		}},
	}

	if _, err := svc.Spreadsheets.BatchUpdate(c.cfg.SpreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("set data validation: %w", err)
	}

	c.mu.Lock()
	c.validationApplied = true
	c.mu.Unlock()
	return nil
}

// resolveSheetID looks up the numeric sheet ID for the configured tab name.
func (c *Client) resolveSheetID(ctx context.Context, svc *gsheet.Service) (int64, error) {
	c.mu.Lock()
	if c.sheetID >= 0 {
		id := c.sheetID
		c.mu.Unlock()
		return id, nil
	}
	c.mu.Unlock()

	ss, err := svc.Spreadsheets.Get(c.cfg.SpreadsheetID).
		Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("get spreadsheet: %w", err)
	}
	for _, s := range ss.Sheets {
		if s.Properties != nil && s.Properties.Title == c.cfg.SheetName {
			c.mu.Lock()
			c.sheetID = s.Properties.SheetId
			c.mu.Unlock()
			return s.Properties.SheetId, nil
		}
	}
	return 0, fmt.Errorf("sheet %q not found in spreadsheet", c.cfg.SheetName)
}
