// ABOUTME: RemoteStore contract over the shared spreadsheet
// ABOUTME: Defines table names, range identifiers and column widths
package remote

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// Logical tables stored as contiguous ranges, data starting on row 2.
const (
	TableRecords       = "Records"
	TableInterestZones = "InterestZones"
)

// Fixed positional widths. Changing them breaks existing spreadsheets.
const (
	RecordColumns = 20
	ZoneColumns   = 7
)

// FirstDataRow is the spreadsheet row of the first data row; row 1 holds headers.
const FirstDataRow = 2

// Store is a key-range read/write API over the spreadsheet.
//
// ReadRange returns an empty slice, never an error, when the range holds no data.
// WriteRange overwrites the whole target range with rows.
type Store interface {
	ReadRange(ctx context.Context, rangeID string) ([][]string, error)
	WriteRange(ctx context.Context, rangeID string, rows [][]string) error
}

// Range is a parsed range identifier. Row is zero for a whole table.
type Range struct {
	Table string
	Row   int
}

// Whole reports whether the range covers the entire table.
func (r Range) Whole() bool {
	return r.Row == 0
}

func (r Range) String() string {
	if r.Whole() {
		return r.Table
	}
	return RowRange(r.Table, r.Row)
}

// RowRange addresses exactly one spreadsheet row of table.
func RowRange(table string, row int) string {
	return fmt.Sprintf("%s#%d", table, row)
}

// ParseRange validates a range identifier such as "Records" or "Records#5".
func ParseRange(rangeID string) (Range, error) {
	table, rowStr, hasRow := strings.Cut(rangeID, "#")
	if _, ok := tableWidths[table]; !ok {
		return Range{}, fmt.Errorf("unknown table %q in range %q", table, rangeID)
	}
	if !hasRow {
		return Range{Table: table}, nil
	}
	row, err := strconv.Atoi(rowStr)
	if err != nil || row < FirstDataRow {
		return Range{}, fmt.Errorf("invalid row in range %q", rangeID)
	}
	return Range{Table: table, Row: row}, nil
}

var tableWidths = map[string]int{
	TableRecords:       RecordColumns,
	TableInterestZones: ZoneColumns,
}

// Width returns the column count of table.
func Width(table string) int {
	return tableWidths[table]
}

// PadRow extends row with empty cells up to width, copying it.
func PadRow(row []string, width int) []string {
	out := make([]string, width)
	copy(out, row)
	return out
}
