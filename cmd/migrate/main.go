// ABOUTME: Migration utility for copying the record tables between backends.
// ABOUTME: Moves Records and InterestZones from Sheets to SQLite or back, with dry-run and backup.

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/harperreed/notaires/cli"
	"github.com/harperreed/notaires/config"
	"github.com/harperreed/notaires/models"
	"github.com/harperreed/notaires/remote"
	"github.com/harperreed/notaires/sync"
)

func main() {
	configPath := flag.String("config", "", "Config file path (default: ~/.local/share/notaires/config.json)")
	from := flag.String("from", config.BackendSheets, "Source backend (sheets or sqlite)")
	to := flag.String("to", config.BackendSQLite, "Destination backend (sheets or sqlite)")
	dbPath := flag.String("db", "", "SQLite database path (default from config)")
	dryRun := flag.Bool("dry-run", false, "Show what would happen without making changes")
	backup := flag.Bool("backup", true, "Back up a SQLite destination before overwriting it")
	force := flag.Bool("force", false, "Overwrite a destination that already holds records")
	flag.Parse()

	if *from == *to {
		log.Fatal("Error: -from and -to must differ")
	}

	var cfg *config.Config
	var err error
	if *configPath == "" {
		cfg, err = config.Load()
	} else {
		cfg, err = config.LoadFrom(*configPath)
	}
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *dbPath != "" {
		cfg.DatabasePath = *dbPath
	}

	ctx := context.Background()
	if err := migrate(ctx, cfg, *from, *to, options{dryRun: *dryRun, backup: *backup, force: *force}); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	log.Println("Migration completed successfully")
}

type options struct {
	dryRun bool
	backup bool
	force  bool
}

func migrate(ctx context.Context, cfg *config.Config, from, to string, opts options) error {
	src, closeSrc, err := open(ctx, cfg, from)
	if err != nil {
		return fmt.Errorf("failed to open source: %w", err)
	}
	defer closeSrc()

	return copyTables(ctx, src, cfg, to, opts)
}

// copyTables writes both tables of src to the backend named by to.
func copyTables(ctx context.Context, src remote.Store, cfg *config.Config, to string, opts options) error {
	records, err := src.ReadRange(ctx, remote.TableRecords)
	if err != nil {
		return err
	}
	zones, err := src.ReadRange(ctx, remote.TableInterestZones)
	if err != nil {
		return err
	}

	valid, invalid := countRecords(records)
	log.Printf("Source: %d record rows (%d valid, %d skipped), %d zone rows", len(records), valid, invalid, len(zones))
	if valid == 0 {
		return fmt.Errorf("%w: refusing to copy", sync.ErrNoValidData)
	}

	if opts.backup && to == config.BackendSQLite && !opts.dryRun {
		if err := backupFile(cfg.DatabasePath); err != nil {
			return err
		}
	}

	dst, closeDst, err := open(ctx, cfg, to)
	if err != nil {
		return fmt.Errorf("failed to open destination: %w", err)
	}
	defer closeDst()

	existing, err := dst.ReadRange(ctx, remote.TableRecords)
	if err != nil {
		return err
	}
	if len(existing) > 0 && !opts.force {
		log.Printf("WARNING: destination %s already holds %d record rows", to, len(existing))
		log.Printf("Use -force flag to overwrite them")
		return fmt.Errorf("migration requires -force flag")
	}

	if opts.dryRun {
		log.Printf("[DRY RUN] Would write %d record rows and %d zone rows to %s", len(records), len(zones), to)
		if len(existing) > 0 {
			log.Printf("[DRY RUN] - Replace %d existing record rows", len(existing))
		}
		return nil
	}

	// Rows are copied verbatim so spreadsheet row numbers stay aligned.
	if err := dst.WriteRange(ctx, remote.TableRecords, records); err != nil {
		return fmt.Errorf("failed to write records: %w", err)
	}
	log.Printf("Wrote %d record rows", len(records))

	if err := dst.WriteRange(ctx, remote.TableInterestZones, zones); err != nil {
		return fmt.Errorf("failed to write zones: %w", err)
	}
	log.Printf("Wrote %d zone rows", len(zones))

	return nil
}

func open(ctx context.Context, cfg *config.Config, backend string) (remote.Store, func(), error) {
	c := *cfg
	c.Backend = backend
	return cli.OpenRemote(ctx, &c)
}

// countRecords reports how many non-blank rows decode to a valid record.
func countRecords(rows [][]string) (valid, invalid int) {
	for i, row := range rows {
		if isBlank(row) {
			continue
		}
		rec, err := sync.DecodeRecordRow(row, remote.FirstDataRow+i)
		if err != nil || !models.IsValidRecord(&rec) {
			invalid++
			continue
		}
		valid++
	}
	return valid, invalid
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if cell != "" {
			return false
		}
	}
	return true
}

func backupFile(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	backupPath := fmt.Sprintf("%s.backup.%s", path, time.Now().Format("20060102-150405"))
	log.Printf("Creating backup: %s", backupPath)

	input, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read database: %w", err)
	}

	if err := os.WriteFile(backupPath, input, 0644); err != nil {
		return fmt.Errorf("failed to create backup: %w", err)
	}
	log.Printf("Backup created successfully")
	return nil
}
