// ABOUTME: Configuration CLI command
// ABOUTME: Prints the effective settings and writes a starter config file
package cli

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/harperreed/notaires/config"
)

// ConfigCommand prints the effective configuration, or writes it to path with --init.
func ConfigCommand(cfg *config.Config, path string, args []string) error {
	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	initFile := fs.Bool("init", false, "Write the current settings to the config file")
	force := fs.Bool("force", false, "Overwrite an existing config file with --init")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *initFile {
		if _, err := os.Stat(path); err == nil && !*force {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
		if err := config.Save(cfg, path); err != nil {
			return err
		}
		success("Wrote %s", path)
		return nil
	}

	_, _ = fmt.Fprintf(stdout, "# %s\n", path)
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(cfg)
}
