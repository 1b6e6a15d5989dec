// ABOUTME: Record CLI commands
// ABOUTME: Lists, shows and edits notary offices through the sync store
package cli

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/harperreed/notaires/filter"
	"github.com/harperreed/notaires/handlers"
	"github.com/harperreed/notaires/models"
	"github.com/harperreed/notaires/sync"
)

// persist hands rec to the store and drives the queue until the write settles.
func persist(ctx context.Context, store *sync.Store, rec models.Record) error {
	pw, err := store.UpdateRecord(ctx, rec)
	if err != nil {
		return fmt.Errorf("failed to update record: %w", err)
	}
	return settle(ctx, pw, store.Flush, store.DrainInterval())
}

// settle flushes until pw resolves. After a pass with failures it waits one
// drain interval before retrying.
func settle(ctx context.Context, pw *sync.PendingWrite, flush func(context.Context) sync.DrainResult, interval time.Duration) error {
	for {
		select {
		case <-pw.Done():
			return pw.Err()
		default:
		}

		res := flush(ctx)
		if res.Attempted == 0 {
			return pw.Wait(ctx)
		}
		if res.Failed == 0 || interval <= 0 {
			continue
		}

		timer := time.NewTimer(interval)
		select {
		case <-pw.Done():
			timer.Stop()
			return pw.Err()
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func lookup(store *sync.Store, id string) (models.Record, error) {
	rec, ok := store.GetRecordByID(id)
	if !ok {
		return models.Record{}, fmt.Errorf("%w: %s", sync.ErrNotFound, id)
	}
	return rec, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// intFlag distinguishes an unset bound from an explicit zero.
type intFlag struct {
	value *int
}

func (f *intFlag) String() string {
	if f.value == nil {
		return ""
	}
	return fmt.Sprint(*f.value)
}

func (f *intFlag) Set(s string) error {
	var n int
	if _, err := fmt.Sscan(s, &n); err != nil {
		return fmt.Errorf("invalid number %q", s)
	}
	f.value = &n
	return nil
}

// ListCommand lists records matching the filter flags.
func ListCommand(ctx context.Context, store *sync.Store, args []string) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	query := fs.String("query", "", "Search name, address, email and staff names")
	status := fs.String("status", "", "Comma-separated statuses (favorite,considering,not_interested,undefined)")
	contactStatus := fs.String("contact-status", "", "Comma-separated last contact statuses")
	uncontacted := fs.Bool("uncontacted", false, "Only offices never contacted")
	email := fs.Bool("email", false, "Only offices with an email")
	officeType := fs.String("type", "", "Office type: all, individual, grouped")
	negotiation := fs.String("negotiation", "", "Negotiation service: all, yes, no")
	inZones := fs.Bool("in-zones", false, "Only offices inside an interest zone")
	zones := fs.String("zones", "", "Comma-separated zone IDs for --in-zones (default all)")
	limit := fs.Int("limit", 50, "Max results (0 for all)")
	asJSON := fs.Bool("json", false, "Print JSON")
	var minAssoc, maxAssoc, minEmp, maxEmp intFlag
	fs.Var(&minAssoc, "min-associates", "Minimum associate count")
	fs.Var(&maxAssoc, "max-associates", "Maximum associate count")
	fs.Var(&minEmp, "min-employees", "Minimum employee count")
	fs.Var(&maxEmp, "max-employees", "Maximum employee count")
	if err := fs.Parse(args); err != nil {
		return err
	}

	spec, err := handlers.BuildFilterSpec(handlers.FindRecordsInput{
		Type:               *officeType,
		NegotiationService: *negotiation,
		Statuses:           splitList(*status),
		ContactStatuses:    splitList(*contactStatus),
		ShowUncontacted:    *uncontacted,
		OnlyWithEmail:      *email,
		OnlyInRadius:       *inZones,
		ZoneIDs:            splitList(*zones),
		MinAssociates:      minAssoc.value,
		MaxAssociates:      maxAssoc.value,
		MinEmployees:       minEmp.value,
		MaxEmployees:       maxEmp.value,
	}, store.GetInterestZones())
	if err != nil {
		return err
	}

	matched := filter.FilterRecords(store.GetRecords(), spec, *query)
	total := len(matched)
	if *limit > 0 && len(matched) > *limit {
		matched = matched[:*limit]
	}

	if *asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(matched)
	}

	if total == 0 {
		_, _ = fmt.Fprintln(stdout, "No offices found")
		return nil
	}

	rows := make([][]string, 0, len(matched))
	for _, r := range matched {
		lastContact := "-"
		if last := r.LastContact(); last != nil {
			lastContact = fmt.Sprintf("%s %s", last.Date.Format("2006-01-02"), last.ContactStatus)
		}
		rows = append(rows, []string{
			r.ID,
			truncate(r.Name, 32),
			truncate(r.City, 20),
			string(r.Status),
			fmt.Sprintf("%d/%d", r.AssociateCount, r.EmployeeCount),
			lastContact,
		})
	}
	printTable([]string{"ID", "NAME", "CITY", "STATUS", "ASSOC/EMP", "LAST CONTACT"}, rows)
	_, _ = fmt.Fprintf(stdout, "\n%d of %d offices\n", len(matched), total)
	return nil
}

// ShowCommand prints one record with its contact history.
func ShowCommand(_ context.Context, store *sync.Store, args []string) error {
	fs := flag.NewFlagSet("show", flag.ContinueOnError)
	asJSON := fs.Bool("json", false, "Print JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("record ID required")
	}

	rec, err := lookup(store, fs.Arg(0))
	if err != nil {
		return err
	}

	if *asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rec)
	}

	field := func(label, value string) {
		if strings.TrimSpace(value) == "" {
			value = "-"
		}
		_, _ = fmt.Fprintf(stdout, "%-14s %s\n", label+":", value)
	}

	field("ID", rec.ID)
	field("Name", rec.Name)
	field("Status", string(rec.Status))
	field("Address", rec.FullAddress())
	field("Email", rec.Email)
	field("Associates", fmt.Sprintf("%d %s", rec.AssociateCount, rec.AssociateNames))
	field("Employees", fmt.Sprintf("%d %s", rec.EmployeeCount, rec.EmployeeNames))
	if rec.NegotiationService {
		field("Negotiation", "yes")
	}
	if rec.HasCoordinates() {
		field("Location", fmt.Sprintf("%.5f, %.5f", rec.Latitude, rec.Longitude))
		if z, d, ok := filter.NearestZone(rec, store.GetInterestZones()); ok {
			field("Nearest zone", fmt.Sprintf("%s (%.1f km)", z.Name, d))
		}
	}
	if rec.NeedsGeocoding {
		field("Geocoding", "pending")
	} else if rec.GeocodeStatus != "" {
		field("Geocoding", fmt.Sprintf("%s (score %.2f)", rec.GeocodeStatus, rec.GeocodeScore))
	}
	field("Notes", rec.Notes)
	if !rec.ModifiedAt.IsZero() {
		field("Modified", rec.ModifiedAt.Format(time.RFC3339))
	}

	_, _ = fmt.Fprintln(stdout, "\nContacts:")
	if len(rec.Contacts) == 0 {
		_, _ = fmt.Fprintln(stdout, "  (none)")
	}
	for i, c := range rec.Contacts {
		line := fmt.Sprintf("  %d. %s %s %s", i+1, c.Date.Format("2006-01-02"), c.Kind, c.ContactStatus)
		if c.By != "" {
			line += " by " + c.By
		}
		if c.Response != nil {
			verdict := "negative"
			if c.Response.Positive {
				verdict = "positive"
			}
			line += fmt.Sprintf(", %s response on %s", verdict, c.Response.Date.Format("2006-01-02"))
			if c.Response.Comment != "" {
				line += ": " + c.Response.Comment
			}
		}
		_, _ = fmt.Fprintln(stdout, line)
	}
	return nil
}

// SetStatusCommand changes a record's status.
func SetStatusCommand(ctx context.Context, store *sync.Store, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: set-status <id> <favorite|considering|not_interested|undefined>")
	}

	status := models.ParseStatus(args[1])
	if status == models.StatusUndefined && !strings.EqualFold(strings.TrimSpace(args[1]), string(models.StatusUndefined)) {
		return fmt.Errorf("invalid status: %s", args[1])
	}

	rec, err := lookup(store, args[0])
	if err != nil {
		return err
	}
	rec.Status = status

	if err := persist(ctx, store, rec); err != nil {
		return err
	}
	success("%s is now %s", rec.Name, status)
	return nil
}

// LogContactCommand appends a contact to a record's history.
func LogContactCommand(ctx context.Context, store *sync.Store, args []string) error {
	fs := flag.NewFlagSet("log-contact", flag.ContinueOnError)
	kind := fs.String("kind", "", "initial or followup (default by history)")
	status := fs.String("status", "", "Contact status (default mail_sent or followup_sent)")
	by := fs.String("by", "", "Who made the contact")
	date := fs.String("date", "", "Date YYYY-MM-DD or RFC3339 (default now)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("record ID required")
	}

	rec, err := lookup(store, fs.Arg(0))
	if err != nil {
		return err
	}

	when, err := parseDate(*date)
	if err != nil {
		return err
	}

	contact := models.Contact{Date: when, By: *by}
	switch models.ContactKind(strings.ToLower(*kind)) {
	case "":
		contact.Kind = models.ContactInitial
		if len(rec.Contacts) > 0 {
			contact.Kind = models.ContactFollowup
		}
	case models.ContactInitial:
		contact.Kind = models.ContactInitial
	case models.ContactFollowup:
		contact.Kind = models.ContactFollowup
	default:
		return fmt.Errorf("invalid kind: %s (valid: initial, followup)", *kind)
	}

	contact.ContactStatus = models.ContactMailSent
	if contact.Kind == models.ContactFollowup {
		contact.ContactStatus = models.ContactFollowupSent
	}
	if *status != "" {
		cs, ok := models.ParseContactStatus(*status)
		if !ok {
			return fmt.Errorf("invalid contact status: %s", *status)
		}
		contact.ContactStatus = cs
	}

	rec.AddContact(contact)
	if err := persist(ctx, store, rec); err != nil {
		return err
	}
	success("Logged %s contact with %s", contact.Kind, rec.Name)
	return nil
}

// RespondCommand records a response to the last contact.
func RespondCommand(ctx context.Context, store *sync.Store, args []string) error {
	fs := flag.NewFlagSet("respond", flag.ContinueOnError)
	positive := fs.Bool("positive", false, "Response was positive")
	comment := fs.String("comment", "", "Comment about the response")
	date := fs.String("date", "", "Date YYYY-MM-DD or RFC3339 (default now)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("record ID required")
	}

	rec, err := lookup(store, fs.Arg(0))
	if err != nil {
		return err
	}
	when, err := parseDate(*date)
	if err != nil {
		return err
	}

	if !rec.RecordResponse(models.ContactResponse{Date: when, Positive: *positive, Comment: *comment}) {
		return fmt.Errorf("%s has no contact to respond to", rec.Name)
	}
	if err := persist(ctx, store, rec); err != nil {
		return err
	}
	success("Recorded response from %s", rec.Name)
	return nil
}

// SetAddressCommand updates a record's address and flags it for geocoding.
func SetAddressCommand(ctx context.Context, store *sync.Store, args []string) error {
	fs := flag.NewFlagSet("set-address", flag.ContinueOnError)
	street := fs.String("street", "", "Street")
	postalCode := fs.String("postal-code", "", "Postal code")
	city := fs.String("city", "", "City")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("record ID required")
	}

	rec, err := lookup(store, fs.Arg(0))
	if err != nil {
		return err
	}

	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	if len(set) == 0 {
		return fmt.Errorf("at least one of --street, --postal-code, --city is required")
	}

	newStreet, newPostal, newCity := rec.Street, rec.PostalCode, rec.City
	if set["street"] {
		newStreet = strings.TrimSpace(*street)
	}
	if set["postal-code"] {
		newPostal = strings.TrimSpace(*postalCode)
	}
	if set["city"] {
		newCity = strings.TrimSpace(*city)
	}
	rec.SetAddress(newStreet, newPostal, newCity)

	if err := persist(ctx, store, rec); err != nil {
		return err
	}
	success("Updated address of %s", rec.Name)
	if rec.NeedsGeocoding {
		_, _ = fmt.Fprintln(stdout, "  Run 'notaires geocode' to place it on the map.")
	}
	return nil
}

// FollowupsCommand lists offices whose last mail is unanswered.
func FollowupsCommand(_ context.Context, store *sync.Store, args []string) error {
	fs := flag.NewFlagSet("followups", flag.ContinueOnError)
	days := fs.Int("days", 14, "Days without a response")
	if err := fs.Parse(args); err != nil {
		return err
	}

	now := time.Now()
	stale := filter.StaleContacts(store.GetRecords(), now.Add(-time.Duration(*days)*24*time.Hour))
	if len(stale) == 0 {
		_, _ = fmt.Fprintln(stdout, "No follow-ups due")
		return nil
	}

	rows := make([][]string, 0, len(stale))
	for _, r := range stale {
		last := r.LastContact()
		rows = append(rows, []string{
			r.ID,
			truncate(r.Name, 32),
			truncate(r.City, 20),
			fmt.Sprintf("%d", int(now.Sub(last.Date).Hours()/24)),
			string(last.ContactStatus),
			r.Email,
		})
	}
	printTable([]string{"ID", "NAME", "CITY", "DAYS", "LAST", "EMAIL"}, rows)
	return nil
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
		return time.Time{}, fmt.Errorf("invalid date %q (use YYYY-MM-DD or RFC3339)", s)
	}
	return t, nil
}
