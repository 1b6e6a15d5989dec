// ABOUTME: MCP server subcommand
// ABOUTME: Serves the record store over stdio for MCP clients
package cli

import (
	"context"
	"log"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/notaires/handlers"
	"github.com/harperreed/notaires/sync"
)

// MCPCommand starts the MCP server on stdio. Pending writes are flushed when the
// client disconnects.
func MCPCommand(ctx context.Context, store *sync.Store, version string) error {
	log.Println("Starting notaires MCP Server...")

	server := handlers.NewServer(store, version)
	err := server.Run(ctx, &mcp.StdioTransport{})

	res := store.Flush(context.Background())
	if res.Attempted > 0 {
		log.Printf("flushed %d pending writes (%d failed)", res.Attempted, res.Failed+res.Dropped)
	}
	return err
}
