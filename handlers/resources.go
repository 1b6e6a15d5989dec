// ABOUTME: MCP resource handlers exposing records, zones and sync status
// ABOUTME: Provides read-only JSON views addressed by notaires:// URIs
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/harperreed/notaires/sync"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const uriScheme = "notaires://"

type ResourceHandlers struct {
	store *sync.Store
}

func NewResourceHandlers(store *sync.Store) *ResourceHandlers {
	return &ResourceHandlers{store: store}
}

// ReadResource handles resource read requests
func (h *ResourceHandlers) ReadResource(ctx context.Context, request *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	uri := request.Params.URI
	if !strings.HasPrefix(uri, uriScheme) {
		return nil, fmt.Errorf("invalid URI scheme: expected %s", uriScheme)
	}

	parts := strings.Split(strings.TrimPrefix(uri, uriScheme), "/")
	switch parts[0] {
	case "records":
		if len(parts) == 1 || parts[1] == "" {
			return h.readAllRecords(uri)
		}
		return h.readRecord(uri, parts[1])
	case "zones":
		return h.jsonResult(uri, h.store.GetInterestZones())
	case "status":
		return h.jsonResult(uri, statusToOutput(h.store.ServiceStatus()))
	default:
		return nil, fmt.Errorf("unknown resource: %s", parts[0])
	}
}

func (h *ResourceHandlers) readAllRecords(uri string) (*mcp.ReadResourceResult, error) {
	records := h.store.GetRecords()
	out := make([]RecordOutput, len(records))
	for i := range records {
		out[i] = recordToOutput(&records[i])
	}
	return h.jsonResult(uri, out)
}

func (h *ResourceHandlers) readRecord(uri, id string) (*mcp.ReadResourceResult, error) {
	rec, ok := h.store.GetRecordByID(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", sync.ErrNotFound, id)
	}
	return h.jsonResult(uri, recordToDetail(&rec))
}

func (h *ResourceHandlers) jsonResult(uri string, v interface{}) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal resource: %w", err)
	}
	return &mcp.ReadResourceResult{Contents: []*mcp.ResourceContents{
		{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}}, nil
}
