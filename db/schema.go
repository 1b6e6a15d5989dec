// ABOUTME: Database schema definitions for the local range store
// ABOUTME: Handles SQLite table creation and initialization
package db

import (
	"database/sql"
)

const schema = `
CREATE TABLE IF NOT EXISTS sheet_rows (
	table_name TEXT NOT NULL,
	row_index INTEGER NOT NULL CHECK(row_index >= 2),
	cells TEXT NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (table_name, row_index)
);

CREATE INDEX IF NOT EXISTS idx_sheet_rows_table ON sheet_rows(table_name, row_index);
`

func InitSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
