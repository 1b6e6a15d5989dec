// ABOUTME: MCP prompt handlers for prospecting workflows
// ABOUTME: Builds record summaries and follow-up suggestions from the live record set
package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/harperreed/notaires/filter"
	"github.com/harperreed/notaires/sync"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type PromptHandlers struct {
	store *sync.Store
	now   func() time.Time
}

func NewPromptHandlers(store *sync.Store) *PromptHandlers {
	return &PromptHandlers{store: store, now: time.Now}
}

// GetPrompt generates the prompt message based on the template
func (h *PromptHandlers) GetPrompt(ctx context.Context, request *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	switch request.Params.Name {
	case "record-summary":
		return h.getRecordSummaryPrompt(request.Params.Arguments)
	case "follow-up-suggestions":
		return h.getFollowUpSuggestionsPrompt(request.Params.Arguments)
	default:
		return nil, fmt.Errorf("unknown prompt: %s", request.Params.Name)
	}
}

func (h *PromptHandlers) getRecordSummaryPrompt(args map[string]string) (*mcp.GetPromptResult, error) {
	id, ok := args["record_id"]
	if !ok || id == "" {
		return nil, fmt.Errorf("record_id is required")
	}
	rec, found := h.store.GetRecordByID(id)
	if !found {
		return nil, fmt.Errorf("%w: %s", sync.ErrNotFound, id)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Notary office: %s\n", rec.Name)
	if addr := rec.FullAddress(); addr != "" {
		fmt.Fprintf(&b, "Address: %s\n", addr)
	}
	if rec.Email != "" {
		fmt.Fprintf(&b, "Email: %s\n", rec.Email)
	}
	fmt.Fprintf(&b, "Status: %s\n", rec.Status)
	fmt.Fprintf(&b, "Associates: %d, employees: %d\n", rec.AssociateCount, rec.EmployeeCount)
	if rec.NegotiationService {
		b.WriteString("Has a negotiation service\n")
	}
	if len(rec.Contacts) > 0 {
		b.WriteString("\nContact history:\n")
		for _, c := range rec.Contacts {
			fmt.Fprintf(&b, "- %s %s (%s)", c.Date.Format("2006-01-02"), c.Kind, c.ContactStatus)
			if c.Response != nil {
				verdict := "negative"
				if c.Response.Positive {
					verdict = "positive"
				}
				fmt.Fprintf(&b, ", %s response: %s", verdict, c.Response.Comment)
			}
			b.WriteString("\n")
		}
	}
	if rec.Notes != "" {
		fmt.Fprintf(&b, "\nNotes: %s\n", rec.Notes)
	}

	b.WriteString("\nPlease analyze this office and provide:")
	b.WriteString("\n1. A short assessment of its fit as a prospect")
	b.WriteString("\n2. The next outreach step and its timing")

	return userPrompt(fmt.Sprintf("Summary for record: %s", rec.Name), b.String()), nil
}

func (h *PromptHandlers) getFollowUpSuggestionsPrompt(args map[string]string) (*mcp.GetPromptResult, error) {
	days := 14
	if v, ok := args["days"]; ok && v != "" {
		if _, err := fmt.Sscanf(v, "%d", &days); err != nil || days < 0 {
			return nil, fmt.Errorf("invalid days: %s", v)
		}
	}

	stale := filter.StaleContacts(h.store.GetRecords(), h.now().Add(-time.Duration(days)*24*time.Hour))

	var b strings.Builder
	fmt.Fprintf(&b, "These offices were contacted more than %d days ago without a response:\n\n", days)
	if len(stale) == 0 {
		b.WriteString("(none)\n")
	}
	for _, rec := range stale {
		last := rec.LastContact()
		fmt.Fprintf(&b, "- %s (%s), last %s on %s, status %s\n",
			rec.Name, rec.City, last.Kind, last.Date.Format("2006-01-02"), rec.Status)
	}
	b.WriteString("\nSuggest which offices to follow up with first and draft a short follow-up message.")

	return userPrompt("Follow-up suggestions", b.String()), nil
}

func userPrompt(description, text string) *mcp.GetPromptResult {
	return &mcp.GetPromptResult{
		Description: description,
		Messages: []*mcp.PromptMessage{
			{
				Role:    "user",
				Content: &mcp.TextContent{Text: text},
			},
		},
	}
}
