// Package backup mirrors transactions to a Google Sheets spreadsheet.
// The mirror is a best-effort secondary copy; the primary store never
// waits on it.
package backup

import (
	"context"
	"errors"
	"fmt"
	"os"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"github.com/uestliguci/LifestyleCalculator/internal/config"
	"github.com/uestliguci/LifestyleCalculator/internal/core"
)

// One transaction per row, ID in column A.
const mirrorColumns = "A:I"

type SheetsMirror struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

// NewSheetsMirror builds a mirror client from the worker configuration.
// Credentials come from the configured JSON blob or file.
func NewSheetsMirror(ctx context.Context, cfg *config.Config) (*SheetsMirror, error) {
	if cfg.GoogleSpreadsheetID == "" {
		return nil, errors.New("missing Google spreadsheet ID")
	}

	opts := []goption.ClientOption{goption.WithScopes(gsheet.SpreadsheetsScope)}
	switch {
	case cfg.GoogleOAuthClientJSON != "":
		opts = append(opts, goption.WithCredentialsJSON([]byte(cfg.GoogleOAuthClientJSON)))
	case cfg.GoogleOAuthClientFile != "":
		raw, err := os.ReadFile(cfg.GoogleOAuthClientFile)
		if err != nil {
			return nil, fmt.Errorf("read credentials file: %w", err)
		}
		opts = append(opts, goption.WithCredentialsJSON(raw))
	default:
		return nil, errors.New("missing Google credentials (set GOOGLE_OAUTH_CLIENT_JSON or GOOGLE_OAUTH_CLIENT_FILE)")
	}

	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return &SheetsMirror{
		svc:           svc,
		spreadsheetID: cfg.GoogleSpreadsheetID,
		sheetName:     cfg.GoogleSheetName,
	}, nil
}

// Upsert writes the transaction's row, replacing an existing row with
// the same ID or appending a new one.
func (m *SheetsMirror) Upsert(ctx context.Context, t core.Transaction) error {
	row, err := m.findRow(ctx, t.ID)
	if err != nil {
		return err
	}

	values := &gsheet.ValueRange{Values: [][]any{{
		t.ID,
		string(t.Type),
		t.Amount.Units(),
		t.Category,
		t.Description,
		t.Date,
		t.Timestamp,
		t.UserID,
		t.LastModified,
	}}}

	if row > 0 {
		rng := fmt.Sprintf("%s!A%d:I%d", m.sheetName, row, row)
		_, err = m.svc.Spreadsheets.Values.Update(m.spreadsheetID, rng, values).
			ValueInputOption("RAW").Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("update row %d in sheet %s: %w", row, m.sheetName, err)
		}
		return nil
	}

	rng := fmt.Sprintf("%s!%s", m.sheetName, mirrorColumns)
	_, err = m.svc.Spreadsheets.Values.Append(m.spreadsheetID, rng, values).
		ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append to sheet %s: %w", m.sheetName, err)
	}
	return nil
}

// Delete clears the mirrored row for the given transaction ID. A row
// that was never mirrored is not an error.
func (m *SheetsMirror) Delete(ctx context.Context, id string) error {
	row, err := m.findRow(ctx, id)
	if err != nil {
		return err
	}
	if row == 0 {
		return nil
	}

	rng := fmt.Sprintf("%s!A%d:I%d", m.sheetName, row, row)
	_, err = m.svc.Spreadsheets.Values.Clear(m.spreadsheetID, rng, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("clear row %d in sheet %s: %w", row, m.sheetName, err)
	}
	return nil
}

// findRow scans the ID column and returns the 1-based row holding id,
// or 0 when absent.
func (m *SheetsMirror) findRow(ctx context.Context, id string) (int, error) {
	rng := fmt.Sprintf("%s!A:A", m.sheetName)
	resp, err := m.svc.Spreadsheets.Values.Get(m.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("read ID column of sheet %s: %w", m.sheetName, err)
	}
	for i, row := range resp.Values {
		if len(row) > 0 {
			if cell, ok := row[0].(string); ok && cell == id {
				return i + 1, nil
			}
		}
	}
	return 0, nil
}
