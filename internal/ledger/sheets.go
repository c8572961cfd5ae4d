package ledger

import (
	"context"
	"fmt"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// SheetsGrid implements Grid over the Google Sheets API v4.
type SheetsGrid struct {
	svc           *sheets.Service
	spreadsheetID string
	worksheet     string
}

// SheetsConfig carries the connection settings for the shared order sheet.
type SheetsConfig struct {
	SpreadsheetID   string
	Worksheet       string // tab name, e.g. "ORDER"
	CredentialsJSON []byte // service-account key
}

// NewSheetsGrid opens the spreadsheet with service-account credentials.
func NewSheetsGrid(ctx context.Context, cfg SheetsConfig) (*SheetsGrid, error) {
	if cfg.SpreadsheetID == "" {
		return nil, fmt.Errorf("spreadsheet id is required")
	}
	if cfg.Worksheet == "" {
		cfg.Worksheet = "ORDER"
	}

	opts := []option.ClientOption{option.WithScopes(sheets.SpreadsheetsScope)}
	if len(cfg.CredentialsJSON) > 0 {
		opts = append(opts, option.WithCredentialsJSON(cfg.CredentialsJSON))
	}
	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return &SheetsGrid{
		svc:           svc,
		spreadsheetID: cfg.SpreadsheetID,
		worksheet:     cfg.Worksheet,
	}, nil
}

// ReadBand implements Grid: one bounded range read over columns D..W.
func (s *SheetsGrid) ReadBand(ctx context.Context, startRow, endRow int) ([][]string, error) {
	rng := fmt.Sprintf("%s!%s%d:%s%d",
		s.worksheet, ColumnLetters(colBandStart), startRow, ColumnLetters(colBandEnd), endRow)

	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("range read %s: %w", rng, err)
	}

	rows := make([][]string, len(resp.Values))
	for i, raw := range resp.Values {
		row := make([]string, len(raw))
		for j, v := range raw {
			row[j] = fmt.Sprint(v)
		}
		rows[i] = row
	}
	return rows, nil
}

// UpdateCell implements Grid with a single-cell value update. RAW input
// keeps the sheet from reinterpreting quantities or notes.
func (s *SheetsGrid) UpdateCell(ctx context.Context, row, col int, value string) error {
	a1 := fmt.Sprintf("%s!%s%d", s.worksheet, ColumnLetters(col), row)
	vr := &sheets.ValueRange{Values: [][]interface{}{{value}}}

	_, err := s.svc.Spreadsheets.Values.Update(s.spreadsheetID, a1, vr).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("cell update %s: %w", a1, err)
	}
	return nil
}
