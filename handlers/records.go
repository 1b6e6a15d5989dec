// ABOUTME: Record MCP tool handlers
// ABOUTME: Implements find_records, get_record, set_record_status, log_contact, record_response and set_address
package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/harperreed/notaires/filter"
	"github.com/harperreed/notaires/models"
	"github.com/harperreed/notaires/sync"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type RecordHandlers struct {
	store *sync.Store
}

func NewRecordHandlers(store *sync.Store) *RecordHandlers {
	return &RecordHandlers{store: store}
}

type RecordOutput struct {
	ID                 string   `json:"id"`
	Name               string   `json:"name"`
	Address            string   `json:"address,omitempty"`
	Email              string   `json:"email,omitempty"`
	Status             string   `json:"status"`
	AssociateCount     int      `json:"associate_count"`
	EmployeeCount      int      `json:"employee_count"`
	NegotiationService bool     `json:"negotiation_service"`
	Latitude           *float64 `json:"latitude,omitempty"`
	Longitude          *float64 `json:"longitude,omitempty"`
	ContactCount       int      `json:"contact_count"`
	LastContactStatus  string   `json:"last_contact_status,omitempty"`
	LastContactDate    string   `json:"last_contact_date,omitempty"`
	Notes              string   `json:"notes,omitempty"`
	ModifiedAt         string   `json:"modified_at,omitempty"`
	GeocodeStatus      string   `json:"geocode_status,omitempty"`
}

type ContactOutput struct {
	Index            int    `json:"index"`
	Date             string `json:"date"`
	Kind             string `json:"kind"`
	By               string `json:"by,omitempty"`
	ContactStatus    string `json:"contact_status"`
	ResponseDate     string `json:"response_date,omitempty"`
	ResponsePositive *bool  `json:"response_positive,omitempty"`
	ResponseComment  string `json:"response_comment,omitempty"`
}

type RecordDetailOutput struct {
	RecordOutput
	AssociateNames string          `json:"associate_names,omitempty"`
	EmployeeNames  string          `json:"employee_names,omitempty"`
	Contacts       []ContactOutput `json:"contacts"`
}

// WriteOutput reports a record change and whether it already reached the sheet.
type WriteOutput struct {
	Record    RecordOutput `json:"record"`
	Persisted bool         `json:"persisted"`
	Error     string       `json:"error,omitempty"`
}

type FindRecordsInput struct {
	Query              string   `json:"query,omitempty" jsonschema:"Free-text search over name, address, email and staff names; every word must match"`
	Type               string   `json:"type,omitempty" jsonschema:"Office type: all, individual or grouped (default all)"`
	NegotiationService string   `json:"negotiation_service,omitempty" jsonschema:"Negotiation service filter: all, yes or no (default all)"`
	Statuses           []string `json:"statuses,omitempty" jsonschema:"Keep only these statuses (favorite, considering, not_interested, undefined)"`
	ContactStatuses    []string `json:"contact_statuses,omitempty" jsonschema:"Keep records whose last contact has one of these statuses (mail_sent, followup_sent, response_received, closed)"`
	ShowUncontacted    bool     `json:"show_uncontacted,omitempty" jsonschema:"Keep records that were never contacted"`
	OnlyWithEmail      bool     `json:"only_with_email,omitempty" jsonschema:"Keep only records with an email address"`
	OnlyInRadius       bool     `json:"only_in_radius,omitempty" jsonschema:"Keep only records inside an interest zone"`
	ZoneIDs            []string `json:"zone_ids,omitempty" jsonschema:"Interest zones used by the radius filter (default all zones)"`
	MinAssociates      *int     `json:"min_associates,omitempty" jsonschema:"Minimum associate count"`
	MaxAssociates      *int     `json:"max_associates,omitempty" jsonschema:"Maximum associate count"`
	MinEmployees       *int     `json:"min_employees,omitempty" jsonschema:"Minimum employee count"`
	MaxEmployees       *int     `json:"max_employees,omitempty" jsonschema:"Maximum employee count"`
	Limit              int      `json:"limit,omitempty" jsonschema:"Maximum number of results (default 25)"`
}

type FindRecordsOutput struct {
	Records []RecordOutput `json:"records"`
	Count   int            `json:"count"`
	Total   int            `json:"total"`
}

func (h *RecordHandlers) FindRecords(_ context.Context, _ *mcp.CallToolRequest, input FindRecordsInput) (*mcp.CallToolResult, FindRecordsOutput, error) {
	if h.store.State() != sync.StateReady {
		return nil, FindRecordsOutput{}, sync.ErrNotInitialized
	}

	spec, err := BuildFilterSpec(input, h.store.GetInterestZones())
	if err != nil {
		return nil, FindRecordsOutput{}, err
	}

	limit := input.Limit
	if limit <= 0 {
		limit = 25
	}

	matched := filter.FilterRecords(h.store.GetRecords(), spec, input.Query)
	out := FindRecordsOutput{Records: []RecordOutput{}, Total: len(matched)}
	for i := 0; i < len(matched) && i < limit; i++ {
		out.Records = append(out.Records, recordToOutput(&matched[i]))
	}
	out.Count = len(out.Records)

	return nil, out, nil
}

// BuildFilterSpec converts tool input into a FilterSpec.
func BuildFilterSpec(input FindRecordsInput, zones []models.InterestZone) (models.FilterSpec, error) {
	spec := models.DefaultFilterSpec()

	switch t := models.TypeFilter(strings.ToLower(input.Type)); t {
	case "", models.TypeAll:
	case models.TypeIndividual, models.TypeGrouped:
		spec.Type = t
	default:
		return spec, fmt.Errorf("invalid type: %s (valid: all, individual, grouped)", input.Type)
	}

	switch ns := models.TriState(strings.ToLower(input.NegotiationService)); ns {
	case "", models.TriAll:
	case models.TriYes, models.TriNo:
		spec.NegotiationService = ns
	default:
		return spec, fmt.Errorf("invalid negotiation_service: %s (valid: all, yes, no)", input.NegotiationService)
	}

	for _, s := range input.Statuses {
		status := models.ParseStatus(s)
		if status == models.StatusUndefined && !strings.EqualFold(strings.TrimSpace(s), string(models.StatusUndefined)) {
			return spec, fmt.Errorf("invalid status: %s", s)
		}
		spec.Statuses = append(spec.Statuses, status)
	}

	for _, s := range input.ContactStatuses {
		cs, ok := models.ParseContactStatus(s)
		if !ok {
			return spec, fmt.Errorf("invalid contact status: %s", s)
		}
		spec.ContactStatuses = append(spec.ContactStatuses, cs)
	}

	if input.MinAssociates != nil {
		spec.Associates.Min = *input.MinAssociates
	}
	if input.MaxAssociates != nil {
		spec.Associates.Max = *input.MaxAssociates
	}
	if input.MinEmployees != nil {
		spec.Employees.Min = *input.MinEmployees
	}
	if input.MaxEmployees != nil {
		spec.Employees.Max = *input.MaxEmployees
	}

	spec.ShowUncontacted = input.ShowUncontacted
	spec.OnlyWithEmail = input.OnlyWithEmail
	spec.OnlyInRadius = input.OnlyInRadius

	if len(input.ZoneIDs) == 0 {
		spec.Zones = zones
	} else {
		byID := make(map[string]models.InterestZone, len(zones))
		for _, z := range zones {
			byID[z.ID] = z
		}
		for _, id := range input.ZoneIDs {
			z, ok := byID[id]
			if !ok {
				return spec, fmt.Errorf("unknown zone: %s", id)
			}
			spec.Zones = append(spec.Zones, z)
		}
	}

	return spec, nil
}

type GetRecordInput struct {
	ID string `json:"id" jsonschema:"Record ID (required)"`
}

func (h *RecordHandlers) GetRecord(_ context.Context, _ *mcp.CallToolRequest, input GetRecordInput) (*mcp.CallToolResult, RecordDetailOutput, error) {
	rec, err := h.lookup(input.ID)
	if err != nil {
		return nil, RecordDetailOutput{}, err
	}
	return nil, recordToDetail(&rec), nil
}

type SetStatusInput struct {
	ID     string `json:"id" jsonschema:"Record ID (required)"`
	Status string `json:"status" jsonschema:"New status: favorite, considering, not_interested or undefined (required)"`
	Notes  string `json:"notes,omitempty" jsonschema:"Replace the record notes"`
}

func (h *RecordHandlers) SetStatus(ctx context.Context, _ *mcp.CallToolRequest, input SetStatusInput) (*mcp.CallToolResult, WriteOutput, error) {
	status := models.ParseStatus(input.Status)
	if status == models.StatusUndefined && !strings.EqualFold(strings.TrimSpace(input.Status), string(models.StatusUndefined)) {
		return nil, WriteOutput{}, fmt.Errorf("invalid status: %s (valid: favorite, considering, not_interested, undefined)", input.Status)
	}

	rec, err := h.lookup(input.ID)
	if err != nil {
		return nil, WriteOutput{}, err
	}
	rec.Status = status
	if input.Notes != "" {
		rec.Notes = input.Notes
	}
	return h.save(ctx, rec)
}

type LogContactInput struct {
	ID     string `json:"id" jsonschema:"Record ID (required)"`
	Kind   string `json:"kind,omitempty" jsonschema:"initial or followup (default: initial for the first contact, followup afterwards)"`
	By     string `json:"by,omitempty" jsonschema:"Who made the contact"`
	Date   string `json:"date,omitempty" jsonschema:"Contact date (ISO 8601 format, defaults to now)"`
	Status string `json:"status,omitempty" jsonschema:"Contact status (default mail_sent or followup_sent by kind)"`
}

func (h *RecordHandlers) LogContact(ctx context.Context, _ *mcp.CallToolRequest, input LogContactInput) (*mcp.CallToolResult, WriteOutput, error) {
	rec, err := h.lookup(input.ID)
	if err != nil {
		return nil, WriteOutput{}, err
	}

	date, err := parseDate(input.Date)
	if err != nil {
		return nil, WriteOutput{}, err
	}

	kind := models.ContactInitial
	if len(rec.Contacts) > 0 {
		kind = models.ContactFollowup
	}
	switch k := models.ContactKind(strings.ToLower(input.Kind)); k {
	case "":
	case models.ContactInitial, models.ContactFollowup:
		kind = k
	default:
		return nil, WriteOutput{}, fmt.Errorf("invalid kind: %s (valid: initial, followup)", input.Kind)
	}

	status := models.ContactMailSent
	if kind == models.ContactFollowup {
		status = models.ContactFollowupSent
	}
	if input.Status != "" {
		cs, ok := models.ParseContactStatus(input.Status)
		if !ok {
			return nil, WriteOutput{}, fmt.Errorf("invalid contact status: %s", input.Status)
		}
		status = cs
	}

	rec.AddContact(models.Contact{Date: date, Kind: kind, By: input.By, ContactStatus: status})
	return h.save(ctx, rec)
}

type RecordResponseInput struct {
	ID       string `json:"id" jsonschema:"Record ID (required)"`
	Positive bool   `json:"positive" jsonschema:"Whether the response was positive"`
	Comment  string `json:"comment,omitempty" jsonschema:"Response details"`
	Date     string `json:"date,omitempty" jsonschema:"Response date (ISO 8601 format, defaults to now)"`
}

func (h *RecordHandlers) RecordResponse(ctx context.Context, _ *mcp.CallToolRequest, input RecordResponseInput) (*mcp.CallToolResult, WriteOutput, error) {
	rec, err := h.lookup(input.ID)
	if err != nil {
		return nil, WriteOutput{}, err
	}

	date, err := parseDate(input.Date)
	if err != nil {
		return nil, WriteOutput{}, err
	}

	if !rec.RecordResponse(models.ContactResponse{Date: date, Positive: input.Positive, Comment: input.Comment}) {
		return nil, WriteOutput{}, fmt.Errorf("record %s has no contact to attach a response to", rec.ID)
	}
	return h.save(ctx, rec)
}

type SetAddressInput struct {
	ID         string `json:"id" jsonschema:"Record ID (required)"`
	Street     string `json:"street" jsonschema:"Street address"`
	PostalCode string `json:"postal_code" jsonschema:"Postal code"`
	City       string `json:"city" jsonschema:"City"`
	Email      string `json:"email,omitempty" jsonschema:"Replace the email address"`
}

func (h *RecordHandlers) SetAddress(ctx context.Context, _ *mcp.CallToolRequest, input SetAddressInput) (*mcp.CallToolResult, WriteOutput, error) {
	rec, err := h.lookup(input.ID)
	if err != nil {
		return nil, WriteOutput{}, err
	}
	rec.SetAddress(input.Street, input.PostalCode, input.City)
	if input.Email != "" {
		rec.Email = input.Email
	}
	return h.save(ctx, rec)
}

type SyncStatusInput struct{}

type FailedWriteOutput struct {
	ID        string `json:"id"`
	Attempts  int    `json:"attempts"`
	LastError string `json:"last_error"`
	FailedAt  string `json:"failed_at"`
}

type StatusOutput struct {
	State           string              `json:"state"`
	Initialized     bool                `json:"initialized"`
	Loading         bool                `json:"loading"`
	RecordCount     int                 `json:"record_count"`
	ZoneCount       int                 `json:"zone_count"`
	SubscriberCount int                 `json:"subscriber_count"`
	LastSync        string              `json:"last_sync,omitempty"`
	LastError       string              `json:"last_error,omitempty"`
	PendingWrites   int                 `json:"pending_writes"`
	Draining        bool                `json:"draining"`
	FailedWrites    []FailedWriteOutput `json:"failed_writes"`
}

func (h *RecordHandlers) SyncStatus(_ context.Context, _ *mcp.CallToolRequest, _ SyncStatusInput) (*mcp.CallToolResult, StatusOutput, error) {
	return nil, statusToOutput(h.store.ServiceStatus()), nil
}

type ResyncInput struct{}

func (h *RecordHandlers) Resync(ctx context.Context, _ *mcp.CallToolRequest, _ ResyncInput) (*mcp.CallToolResult, StatusOutput, error) {
	if err := h.store.FullResync(ctx); err != nil {
		return nil, StatusOutput{}, fmt.Errorf("failed to resync: %w", err)
	}
	return nil, statusToOutput(h.store.ServiceStatus()), nil
}

func statusToOutput(st sync.ServiceStatus) StatusOutput {
	out := StatusOutput{
		State:           st.State,
		Initialized:     st.Initialized,
		Loading:         st.Loading,
		RecordCount:     st.RecordCount,
		ZoneCount:       st.ZoneCount,
		SubscriberCount: st.SubscriberCount,
		LastError:       st.LastError,
		PendingWrites:   st.Queue.Pending,
		Draining:        st.Queue.Draining,
		FailedWrites:    make([]FailedWriteOutput, len(st.Queue.Failed)),
	}
	if !st.LastSync.IsZero() {
		out.LastSync = st.LastSync.Format(time.RFC3339)
	}
	for i, f := range st.Queue.Failed {
		out.FailedWrites[i] = FailedWriteOutput{
			ID:        f.ID,
			Attempts:  f.Attempts,
			LastError: f.LastError,
			FailedAt:  f.FailedAt.Format(time.RFC3339),
		}
	}
	return out
}

func (h *RecordHandlers) lookup(id string) (models.Record, error) {
	if id == "" {
		return models.Record{}, fmt.Errorf("id is required")
	}
	if h.store.State() != sync.StateReady {
		return models.Record{}, sync.ErrNotInitialized
	}
	rec, ok := h.store.GetRecordByID(id)
	if !ok {
		return models.Record{}, fmt.Errorf("%w: %s", sync.ErrNotFound, id)
	}
	return rec, nil
}

func (h *RecordHandlers) save(ctx context.Context, rec models.Record) (*mcp.CallToolResult, WriteOutput, error) {
	pw, err := h.store.UpdateRecord(ctx, rec)
	if err != nil {
		return nil, WriteOutput{}, fmt.Errorf("failed to update record: %w", err)
	}

	saved, _ := h.store.GetRecordByID(rec.ID)
	out := WriteOutput{Record: recordToOutput(&saved)}
	select {
	case <-pw.Done():
		if err := pw.Err(); err != nil {
			out.Error = err.Error()
		} else {
			out.Persisted = true
		}
	default:
	}
	return nil, out, nil
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Now().UTC(), nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date format (use ISO 8601/RFC3339): %w", err)
	}
	return t, nil
}

func recordToOutput(r *models.Record) RecordOutput {
	out := RecordOutput{
		ID:                 r.ID,
		Name:               r.Name,
		Address:            r.FullAddress(),
		Email:              r.Email,
		Status:             string(r.Status),
		AssociateCount:     r.AssociateCount,
		EmployeeCount:      r.EmployeeCount,
		NegotiationService: r.NegotiationService,
		ContactCount:       len(r.Contacts),
		Notes:              r.Notes,
		GeocodeStatus:      r.GeocodeStatus,
	}
	if r.HasCoordinates() {
		lat, lon := r.Latitude, r.Longitude
		out.Latitude = &lat
		out.Longitude = &lon
	}
	if last := r.LastContact(); last != nil {
		out.LastContactStatus = string(last.ContactStatus)
		out.LastContactDate = last.Date.Format("2006-01-02")
	}
	if !r.ModifiedAt.IsZero() {
		out.ModifiedAt = r.ModifiedAt.Format(time.RFC3339)
	}
	return out
}

func recordToDetail(r *models.Record) RecordDetailOutput {
	out := RecordDetailOutput{
		RecordOutput:   recordToOutput(r),
		AssociateNames: r.AssociateNames,
		EmployeeNames:  r.EmployeeNames,
		Contacts:       make([]ContactOutput, len(r.Contacts)),
	}
	for i, c := range r.Contacts {
		co := ContactOutput{
			Index:         i,
			Date:          c.Date.Format(time.RFC3339),
			Kind:          string(c.Kind),
			By:            c.By,
			ContactStatus: string(c.ContactStatus),
		}
		if c.Response != nil {
			positive := c.Response.Positive
			co.ResponseDate = c.Response.Date.Format(time.RFC3339)
			co.ResponsePositive = &positive
			co.ResponseComment = c.Response.Comment
		}
		out.Contacts[i] = co
	}
	return out
}
