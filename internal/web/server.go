package web

import (
	"context"
	"embed"
	"html/template"
	"log"
	"net/http"
	"strings"
	"sync"

	"github.com/ticketsmith/ticketsmith/internal/db"
	"github.com/ticketsmith/ticketsmith/internal/pipeline"
)

//go:embed templates
var templateFS embed.FS

var funcMap = template.FuncMap{
	"passClass": func(ok bool) string {
		if ok {
			return "result-pass"
		}
		return "result-fail"
	},
	"relTime": relTime,
}

// Runner starts a pipeline run for a ticket key.
type Runner interface {
	Process(ctx context.Context, ticketKey string, pushEnabled bool) *pipeline.ProcessingResult
}

// Server serves the dashboard and the JSON API.
type Server struct {
	store    *pipeline.Store
	database *db.DB // nil when no database is configured
	runner   Runner // nil disables POST /api/process
	addr     string

	// procMu serializes pipeline runs; the working copy cannot host two
	// runs at once.
	procMu sync.Mutex

	dashboardTmpl *template.Template
}

// NewServer creates a Server with parsed templates. database and runner
// may be nil; the affected endpoints report their absence.
func NewServer(store *pipeline.Store, database *db.DB, runner Runner, addr string) *Server {
	return &Server{
		store:         store,
		database:      database,
		runner:        runner,
		addr:          addr,
		dashboardTmpl: mustParseTmpl("base.html", "dashboard.html"),
	}
}

func mustParseTmpl(names ...string) *template.Template {
	t := template.New("").Funcs(funcMap)
	for _, n := range names {
		t = template.Must(t.ParseFS(templateFS, "templates/"+n))
	}
	return t
}

// Handler returns the route table, split out from Start so tests can
// drive it directly.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" {
			s.handleDashboard(w, r)
			return
		}
		http.NotFound(w, r)
	})
	mux.HandleFunc("/api/runs", s.handleRunList)
	mux.HandleFunc("/api/runs/", s.routeRuns)
	mux.HandleFunc("/api/process/", s.handleProcess)
	mux.HandleFunc("/api/stats", s.handleStats)
	return mux
}

// Start listens on the configured address.
func (s *Server) Start() error {
	log.Printf("ticketsmith UI: http://localhost%s", s.addr)
	return http.ListenAndServe(s.addr, s.Handler())
}

func (s *Server) routeRuns(w http.ResponseWriter, r *http.Request) {
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/runs/"), "/")
	parts := strings.Split(rest, "/")
	switch {
	case len(parts) == 1 && parts[0] != "":
		s.handleTicketLatest(w, r, parts[0])
	case len(parts) == 2 && parts[1] == "events":
		s.handleTicketEvents(w, r, parts[0])
	default:
		http.NotFound(w, r)
	}
}
