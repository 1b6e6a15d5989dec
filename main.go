// ABOUTME: Entry point for the notaires prospect CRM
// ABOUTME: Loads config, opens the synced store and routes to CLI, TUI or MCP commands
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/harperreed/notaires/cli"
	"github.com/harperreed/notaires/config"
	"github.com/harperreed/notaires/sync"
	"github.com/harperreed/notaires/tui"
)

const version = "0.2.0"

type storeCommand func(ctx context.Context, store *sync.Store, args []string) error

func main() {
	// Global flags
	showVersion := flag.Bool("version", false, "Show version and exit")
	configPath := flag.String("config", "", "Config file path (default: ~/.local/share/notaires/config.json)")

	_ = flag.CommandLine.Parse(os.Args[1:])

	if *showVersion {
		fmt.Printf("notaires version %s\n", version)
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(0)
	}

	path := *configPath
	var cfg *config.Config
	var err error
	if path == "" {
		path = config.Path()
		cfg, err = config.Load()
	} else {
		cfg, err = config.LoadFrom(path)
	}
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	command := args[0]
	commandArgs := args[1:]

	// Commands that do not need the record store.
	switch command {
	case "auth":
		if err := cli.AuthCommand(ctx, commandArgs); err != nil {
			log.Fatalf("Error: %v", err)
		}
		return
	case "config":
		if err := cli.ConfigCommand(cfg, path, commandArgs); err != nil {
			log.Fatalf("Error: %v", err)
		}
		return
	}

	commands := map[string]storeCommand{
		"status":      cli.StatusCommand,
		"list":        cli.ListCommand,
		"show":        cli.ShowCommand,
		"set-status":  cli.SetStatusCommand,
		"log-contact": cli.LogContactCommand,
		"respond":     cli.RespondCommand,
		"set-address": cli.SetAddressCommand,
		"followups":   cli.FollowupsCommand,
		"zones":       cli.ZonesCommand,
		"add-zone":    cli.AddZoneCommand,
		"remove-zone": cli.RemoveZoneCommand,
		"resync":      cli.ResyncCommand,
		"watch":       cli.WatchCommand,
		"dashboard":   cli.DashboardCommand,
		"graph":       cli.GraphCommand,
		"web":         cli.WebCommand,
		"geocode": func(ctx context.Context, store *sync.Store, args []string) error {
			return cli.GeocodeCommand(ctx, store, cfg, args)
		},
		"tui": func(_ context.Context, store *sync.Store, _ []string) error {
			return tui.Run(store)
		},
		"mcp": func(ctx context.Context, store *sync.Store, _ []string) error {
			return cli.MCPCommand(ctx, store, version)
		},
	}

	run, ok := commands[command]
	if !ok {
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}

	store, closeStore, err := cli.OpenStore(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}

	err = run(ctx, store, commandArgs)
	closeStore()
	if err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func printUsage() {
	fmt.Printf(`notaires v%s - Notary office prospect CRM

USAGE:
  notaires [global flags] <command> [flags] [args]

GLOBAL FLAGS:
  --version              Show version and exit
  --config <path>        Config file (default: ~/.local/share/notaires/config.json)

SETUP:
  notaires auth          Authorize Google Sheets access
  notaires config        Print the effective configuration
    --init                 Write it to the config file
    --force                Overwrite an existing file

RECORDS:
  notaires list          List offices
    --query <text>         Search name, address, email and staff
    --status <list>        favorite,considering,not_interested,undefined
    --contact-status <list> mail_sent,followup_sent,response_received,closed
    --uncontacted          Only offices never contacted
    --email                Only offices with an email
    --type <type>          all, individual, grouped
    --negotiation <v>      all, yes, no
    --in-zones             Only offices inside an interest zone
    --zones <ids>          Restrict --in-zones to these zones
    --min-associates <n>   --max-associates <n>
    --min-employees <n>    --max-employees <n>
    --limit <n>            Max results (default: 50)
    --json                 Print JSON

  notaires show [--json] <id>           Show an office and its contacts
  notaires set-status <id> <status>     Change an office's status
  notaires log-contact [flags] <id>     Record a mail or follow-up
    --kind <kind>          initial or followup (default by history)
    --status <status>      Contact status
    --by <name>            Who sent it
    --date <date>          YYYY-MM-DD (default now)
  notaires respond [flags] <id>         Record a response to the last contact
    --positive             Response was positive
    --comment <text>       Comment
  notaires set-address [flags] <id>     Change the address
    --street --postal-code --city
  notaires followups [--days 14]        Offices waiting for a follow-up

ZONES:
  notaires zones                        List interest zones
  notaires add-zone [flags]             Add or replace a zone
    --id --name --radius --lat --lon --region --population
  notaires remove-zone <id>             Delete a zone

GEOCODING:
  notaires geocode       Place flagged offices on the map
    --limit <n>            Max records
    --dry-run              Only list what would be geocoded
    --no-cache             Skip the response cache
    --purge-cache          Empty the cache first

SYNC:
  notaires status        Show store and write queue state
  notaires resync        Flush pending writes and reload everything
  notaires watch         Keep syncing and log changes until interrupted

VIEWS:
  notaires tui           Interactive terminal UI
  notaires dashboard     Pipeline summary
  notaires graph [--output <file>]  Zone coverage graph (xdot)
  notaires web [--port 8080]        Web dashboard
  notaires mcp           Start MCP server for Claude Desktop

EXAMPLES:
  notaires list --status favorite --in-zones
  notaires log-contact --by Anne n42
  notaires add-zone --name Lyon --radius 30 --lat 45.764 --lon 4.8357

`, version)
}
