// ABOUTME: Google Sheets implementation of the RemoteStore contract
// ABOUTME: Maps logical tables to sheet tabs and A1 ranges via the Sheets v4 API
package remote

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/oauth2"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// SheetsConfig names the spreadsheet and the tab backing each table.
type SheetsConfig struct {
	SpreadsheetID string
	RecordsSheet  string
	ZonesSheet    string
}

// SheetsStore reads and writes table ranges of one spreadsheet.
type SheetsStore struct {
	svc *sheets.Service
	cfg SheetsConfig
}

// NewSheetsClient creates a Sheets API service from an OAuth token.
func NewSheetsClient(ctx context.Context, token *oauth2.Token) (*sheets.Service, error) {
	if token == nil {
		return nil, fmt.Errorf("token cannot be nil")
	}

	config := NewOAuthConfig()
	client := config.Client(ctx, token)

	service, err := sheets.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("failed to create Sheets service: %w", err)
	}

	return service, nil
}

// NewSheetsStore wraps an existing Sheets service.
func NewSheetsStore(svc *sheets.Service, cfg SheetsConfig) (*SheetsStore, error) {
	if svc == nil {
		return nil, fmt.Errorf("sheets service cannot be nil")
	}
	if cfg.SpreadsheetID == "" {
		return nil, fmt.Errorf("spreadsheet id cannot be empty")
	}
	if cfg.RecordsSheet == "" {
		cfg.RecordsSheet = "Notaires"
	}
	if cfg.ZonesSheet == "" {
		cfg.ZonesSheet = "Zones"
	}
	return &SheetsStore{svc: svc, cfg: cfg}, nil
}

// ReadRange fetches formatted cell values, padding every row to the table width.
func (s *SheetsStore) ReadRange(ctx context.Context, rangeID string) ([][]string, error) {
	r, err := ParseRange(rangeID)
	if err != nil {
		return nil, err
	}

	resp, err := s.svc.Spreadsheets.Values.Get(s.cfg.SpreadsheetID, s.a1(r, 0)).
		ValueRenderOption("FORMATTED_VALUE").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to read range %s: %w", rangeID, err)
	}

	width := Width(r.Table)
	rows := make([][]string, 0, len(resp.Values))
	for _, raw := range resp.Values {
		row := make([]string, width)
		for i := 0; i < len(raw) && i < width; i++ {
			if raw[i] != nil {
				row[i] = fmt.Sprint(raw[i])
			}
		}
		rows = append(rows, row)
	}

	return rows, nil
}

// WriteRange overwrites the range. Whole-table writes clear existing data first so
// a shorter row set leaves no stale rows behind.
func (s *SheetsStore) WriteRange(ctx context.Context, rangeID string, rows [][]string) error {
	r, err := ParseRange(rangeID)
	if err != nil {
		return err
	}
	if !r.Whole() && len(rows) != 1 {
		return fmt.Errorf("range %s expects exactly one row, got %d", rangeID, len(rows))
	}

	width := Width(r.Table)
	if r.Whole() {
		_, err := s.svc.Spreadsheets.Values.Clear(s.cfg.SpreadsheetID, s.a1(r, 0), &sheets.ClearValuesRequest{}).
			Context(ctx).
			Do()
		if err != nil {
			return fmt.Errorf("failed to clear range %s: %w", rangeID, err)
		}
		if len(rows) == 0 {
			return nil
		}
	}

	values := make([][]interface{}, len(rows))
	for i, row := range rows {
		padded := PadRow(row, width)
		values[i] = make([]interface{}, width)
		for j, cell := range padded {
			values[i][j] = cell
		}
	}

	target := s.a1(r, len(rows))
	_, err = s.svc.Spreadsheets.Values.Update(s.cfg.SpreadsheetID, target, &sheets.ValueRange{Values: values}).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to write range %s: %w", rangeID, err)
	}

	return nil
}

// a1 converts a parsed range to A1 notation. For whole-table writes n bounds the
// last row; n == 0 leaves the range open-ended.
func (s *SheetsStore) a1(r Range, n int) string {
	sheet := s.cfg.RecordsSheet
	if r.Table == TableInterestZones {
		sheet = s.cfg.ZonesSheet
	}
	sheet = strings.ReplaceAll(sheet, "'", "''")
	last := columnLetter(Width(r.Table))

	switch {
	case !r.Whole():
		return fmt.Sprintf("'%s'!A%d:%s%d", sheet, r.Row, last, r.Row)
	case n > 0:
		return fmt.Sprintf("'%s'!A%d:%s%d", sheet, FirstDataRow, last, FirstDataRow+n-1)
	default:
		return fmt.Sprintf("'%s'!A%d:%s", sheet, FirstDataRow, last)
	}
}

// columnLetter converts a 1-based column index to its letter name.
func columnLetter(n int) string {
	var out []byte
	for n > 0 {
		n--
		out = append([]byte{byte('A' + n%26)}, out...)
		n /= 26
	}
	return string(out)
}
