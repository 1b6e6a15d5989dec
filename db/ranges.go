// ABOUTME: SQLite-backed implementation of the RemoteStore range contract
// ABOUTME: Stores each spreadsheet row as a JSON cell array keyed by table and row
package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/harperreed/notaires/remote"
)

// RangeStore serves table ranges out of a local SQLite database.
type RangeStore struct {
	db *sql.DB
}

// NewRangeStore wraps an open database. The schema must already be initialized.
func NewRangeStore(database *sql.DB) *RangeStore {
	return &RangeStore{db: database}
}

// ReadRange returns rows ordered by spreadsheet row. Missing rows inside the table
// come back empty so row positions stay aligned with FirstDataRow.
func (s *RangeStore) ReadRange(ctx context.Context, rangeID string) ([][]string, error) {
	r, err := remote.ParseRange(rangeID)
	if err != nil {
		return nil, err
	}

	query := `SELECT row_index, cells FROM sheet_rows WHERE table_name = ? ORDER BY row_index`
	args := []interface{}{r.Table}
	if !r.Whole() {
		query = `SELECT row_index, cells FROM sheet_rows WHERE table_name = ? AND row_index = ?`
		args = append(args, r.Row)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to read range %s: %w", rangeID, err)
	}
	defer func() { _ = rows.Close() }()

	width := remote.Width(r.Table)
	next := remote.FirstDataRow
	if !r.Whole() {
		next = r.Row
	}

	result := [][]string{}
	for rows.Next() {
		var rowIndex int
		var raw string
		if err := rows.Scan(&rowIndex, &raw); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		for ; next < rowIndex; next++ {
			result = append(result, make([]string, width))
		}

		var cells []string
		if err := json.Unmarshal([]byte(raw), &cells); err != nil {
			return nil, fmt.Errorf("failed to decode row %d of %s: %w", rowIndex, r.Table, err)
		}
		result = append(result, remote.PadRow(cells, width))
		next = rowIndex + 1
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return result, nil
}

// WriteRange overwrites the range inside a single transaction.
func (s *RangeStore) WriteRange(ctx context.Context, rangeID string, rows [][]string) error {
	r, err := remote.ParseRange(rangeID)
	if err != nil {
		return err
	}
	if !r.Whole() && len(rows) != 1 {
		return fmt.Errorf("range %s expects exactly one row, got %d", rangeID, len(rows))
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	first := r.Row
	if r.Whole() {
		if _, err := tx.ExecContext(ctx, `DELETE FROM sheet_rows WHERE table_name = ?`, r.Table); err != nil {
			return fmt.Errorf("failed to clear range %s: %w", rangeID, err)
		}
		first = remote.FirstDataRow
	}

	width := remote.Width(r.Table)
	for i, row := range rows {
		cells, err := json.Marshal(remote.PadRow(row, width))
		if err != nil {
			return fmt.Errorf("failed to encode row: %w", err)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO sheet_rows (table_name, row_index, cells, updated_at)
			VALUES (?, ?, ?, CURRENT_TIMESTAMP)
			ON CONFLICT(table_name, row_index) DO UPDATE SET
				cells = excluded.cells,
				updated_at = CURRENT_TIMESTAMP
		`, r.Table, first+i, string(cells))
		if err != nil {
			return fmt.Errorf("failed to write row %d of %s: %w", first+i, r.Table, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit range %s: %w", rangeID, err)
	}

	return nil
}
