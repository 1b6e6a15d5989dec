// ABOUTME: Web UI server with embedded templates
// ABOUTME: Serves the dashboard, office list, follow-ups and zone graph from the synced store
package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/harperreed/notaires/filter"
	"github.com/harperreed/notaires/models"
	"github.com/harperreed/notaires/sync"
	"github.com/harperreed/notaires/viz"
)

//go:embed templates/*.html templates/partials/*.html
var templatesFS embed.FS

const listLimit = 200

type Server struct {
	store     *sync.Store
	templates *template.Template
	now       func() time.Time
}

func NewServer(store *sync.Store) (*Server, error) {
	funcMap := template.FuncMap{
		"date": func(t time.Time) string {
			if t.IsZero() {
				return "-"
			}
			return t.Format("2006-01-02")
		},
		"daysSince": func(now, t time.Time) int {
			return int(now.Sub(t).Hours() / 24)
		},
	}

	tmpl, err := template.New("").Funcs(funcMap).ParseFS(templatesFS, "templates/*.html", "templates/partials/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	return &Server{store: store, templates: tmpl, now: time.Now}, nil
}

// Handler returns the routed UI.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleDashboard)
	mux.HandleFunc("GET /records", s.handleRecords)
	mux.HandleFunc("GET /records/{id}", s.handleRecordDetail)
	mux.HandleFunc("GET /followups", s.handleFollowups)
	mux.HandleFunc("POST /followups/log/{id}", s.handleFollowupLog)
	mux.HandleFunc("GET /graph", s.handleGraph)
	return mux
}

// Start serves until ctx is cancelled.
func (s *Server) Start(ctx context.Context, port int) error {
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	log.Printf("Starting web server at http://localhost%s", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	stats := viz.GenerateDashboardStats(s.store.GetRecords(), s.store.GetInterestZones(), s.now())

	data := map[string]interface{}{
		"Stats":           stats,
		"Statuses":        models.AllStatuses,
		"ContactStatuses": models.AllContactStatuses,
		"Title":           "Dashboard",
		"ContentTemplate": "dashboard-content",
	}

	s.renderTemplate(w, "layout.html", data)
}

func (s *Server) renderTemplate(w http.ResponseWriter, name string, data interface{}) {
	err := s.templates.ExecuteTemplate(w, name, data)
	if err != nil {
		log.Printf("Template error rendering %s: %v", name, err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	spec := models.DefaultFilterSpec()

	if raw := r.URL.Query().Get("status"); raw != "" {
		spec.Statuses = []models.Status{models.ParseStatus(raw)}
	}
	if r.URL.Query().Get("in_zones") == "1" {
		spec.OnlyInRadius = true
		spec.Zones = s.store.GetInterestZones()
	}

	records := filter.FilterRecords(s.store.GetRecords(), spec, query)
	total := len(records)
	if len(records) > listLimit {
		records = records[:listLimit]
	}

	data := map[string]interface{}{
		"Records":         records,
		"Total":           total,
		"Query":           query,
		"Status":          r.URL.Query().Get("status"),
		"Statuses":        models.AllStatuses,
		"Title":           "Offices",
		"ContentTemplate": "records-content",
	}

	s.renderTemplate(w, "layout.html", data)
}

func (s *Server) handleRecordDetail(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.store.GetRecordByID(r.PathValue("id"))
	if !ok {
		http.Error(w, "Office not found", http.StatusNotFound)
		return
	}

	data := map[string]interface{}{
		"Record": &rec,
	}
	if zone, km, ok := filter.NearestZone(rec, s.store.GetInterestZones()); ok {
		data["NearestZone"] = zone.Name
		data["NearestKm"] = fmt.Sprintf("%.1f", km)
	}

	s.renderTemplate(w, "record-detail", data)
}

func (s *Server) handleFollowups(w http.ResponseWriter, r *http.Request) {
	now := s.now()
	stale := filter.StaleContacts(s.store.GetRecords(), now.Add(-viz.StaleAfter))

	data := map[string]interface{}{
		"Followups":       stale,
		"Now":             now,
		"Title":           "Follow-ups",
		"ContentTemplate": "followups-content",
	}

	s.renderTemplate(w, "layout.html", data)
}

func (s *Server) handleFollowupLog(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.store.GetRecordByID(r.PathValue("id"))
	if !ok {
		http.Error(w, "Office not found", http.StatusNotFound)
		return
	}

	rec.AddContact(models.Contact{
		Date:          s.now().UTC(),
		Kind:          models.ContactFollowup,
		By:            strings.TrimSpace(r.FormValue("by")),
		ContactStatus: models.ContactFollowupSent,
	})

	pw, err := s.store.UpdateRecord(r.Context(), rec)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if err := pw.Wait(r.Context()); err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	_, err = w.Write([]byte(`<td colspan="5" class="px-4 py-3 text-green-600">✓ Follow-up logged</td>`))
	if err != nil {
		log.Printf("Error writing response: %v", err)
	}
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	dot, err := viz.GenerateZoneGraph(r.Context(), s.store.GetRecords(), s.store.GetInterestZones())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	data := map[string]interface{}{
		"DOT":             dot,
		"Title":           "Zone graph",
		"ContentTemplate": "graph-content",
	}

	s.renderTemplate(w, "layout.html", data)
}
