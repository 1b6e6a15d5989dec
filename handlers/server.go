// ABOUTME: Builds the MCP server exposing the prospect store
// ABOUTME: Registers tools, resources and prompts against one shared store
package handlers

import (
	"github.com/harperreed/notaires/sync"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// NewServer creates an MCP server backed by store.
func NewServer(store *sync.Store, version string) *mcp.Server {
	recordHandlers := NewRecordHandlers(store)
	zoneHandlers := NewZoneHandlers(store)
	resourceHandlers := NewResourceHandlers(store)
	promptHandlers := NewPromptHandlers(store)

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "notaires",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "find_records",
		Description: "Search and filter notary offices by text, type, status, contact state and interest zone",
	}, recordHandlers.FindRecords)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_record",
		Description: "Get a notary office with its full contact history",
	}, recordHandlers.GetRecord)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "set_record_status",
		Description: "Set a notary office's prospect status and optionally its notes",
	}, recordHandlers.SetStatus)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "log_contact",
		Description: "Append an outreach contact (initial mail or follow-up) to a notary office",
	}, recordHandlers.LogContact)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "record_response",
		Description: "Record the office's response to the most recent contact",
	}, recordHandlers.RecordResponse)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "set_address",
		Description: "Update a notary office's address; changed addresses are flagged for geocoding",
	}, recordHandlers.SetAddress)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "sync_status",
		Description: "Show store state, pending writes and failed writes",
	}, recordHandlers.SyncStatus)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "resync",
		Description: "Flush pending writes and reload everything from the spreadsheet",
	}, recordHandlers.Resync)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_zones",
		Description: "List interest zones used by the radius filter",
	}, zoneHandlers.ListZones)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "save_zone",
		Description: "Create or update an interest zone",
	}, zoneHandlers.SaveZone)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "remove_zone",
		Description: "Delete an interest zone",
	}, zoneHandlers.RemoveZone)

	server.AddResource(&mcp.Resource{
		URI:         uriScheme + "records",
		Name:        "records",
		Description: "Every notary office",
		MIMEType:    "application/json",
	}, resourceHandlers.ReadResource)

	server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "records/{id}",
		Name:        "record",
		Description: "One notary office with its contact history",
		MIMEType:    "application/json",
	}, resourceHandlers.ReadResource)

	server.AddResource(&mcp.Resource{
		URI:         uriScheme + "zones",
		Name:        "zones",
		Description: "Interest zones",
		MIMEType:    "application/json",
	}, resourceHandlers.ReadResource)

	server.AddResource(&mcp.Resource{
		URI:         uriScheme + "status",
		Name:        "status",
		Description: "Sync store diagnostics",
		MIMEType:    "application/json",
	}, resourceHandlers.ReadResource)

	server.AddPrompt(&mcp.Prompt{
		Name:        "record-summary",
		Description: "Summarize a notary office and suggest the next step",
		Arguments: []*mcp.PromptArgument{
			{Name: "record_id", Description: "Record ID", Required: true},
		},
	}, promptHandlers.GetPrompt)

	server.AddPrompt(&mcp.Prompt{
		Name:        "follow-up-suggestions",
		Description: "List unanswered outreach older than a number of days",
		Arguments: []*mcp.PromptArgument{
			{Name: "days", Description: "Age threshold in days (default 14)"},
		},
	}, promptHandlers.GetPrompt)

	return server
}
