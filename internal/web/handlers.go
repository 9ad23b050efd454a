package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ticketsmith/ticketsmith/internal/analytics"
	"github.com/ticketsmith/ticketsmith/internal/db"
	"github.com/ticketsmith/ticketsmith/internal/pipeline"
)

// ---- view models ----

type DashboardData struct {
	Rows     []RunRow
	Overview *analytics.Overview // nil when no database is configured
	Activity []ActivityRow
}

type RunRow struct {
	TicketKey   string
	Summary     string
	Succeeded   bool
	BranchName  string
	Pushed      bool
	PRURL       string
	FileCount   int
	Duration    string
	FinishedAgo string
}

type ActivityRow struct {
	TicketKey string
	Stage     string
	Event     string
	TimeAgo   string
}

// StatsResponse bundles every analytics query for the stats endpoint.
type StatsResponse struct {
	Overview *analytics.Overview          `json:"overview"`
	Stages   []analytics.StageDuration    `json:"stage_durations"`
	Weekly   []analytics.WeeklyThroughput `json:"weekly_throughput"`
	Failures []analytics.StageFailure     `json:"stage_failures"`
}

// ---- helpers ----

func relTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}

func fmtDuration(d time.Duration) string {
	if d <= 0 {
		return ""
	}
	d = d.Round(time.Second)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	sec := int(d.Seconds()) % 60
	if h > 0 {
		return fmt.Sprintf("%dh%dm", h, m)
	}
	if m > 0 {
		return fmt.Sprintf("%dm%ds", m, sec)
	}
	return fmt.Sprintf("%ds", sec)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// ---- Dashboard ----

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	results, err := s.store.ListAll(25)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	rows := make([]RunRow, 0, len(results))
	for _, res := range results {
		rows = append(rows, RunRow{
			TicketKey:   res.TicketKey,
			Summary:     res.Summary,
			Succeeded:   res.Success,
			BranchName:  res.BranchName,
			Pushed:      res.Pushed,
			PRURL:       res.PRURL,
			FileCount:   len(res.FilesGenerated),
			Duration:    fmtDuration(res.Duration()),
			FinishedAgo: relTime(res.FinishedAt),
		})
	}

	data := DashboardData{Rows: rows}
	if s.database != nil {
		if ov, err := analytics.QueryOverview(s.database, time.Time{}); err == nil {
			data.Overview = ov
		}
		if events, err := s.recentEvents(15); err == nil {
			for _, e := range events {
				data.Activity = append(data.Activity, ActivityRow{
					TicketKey: e.TicketKey,
					Stage:     e.Stage,
					Event:     e.Event,
					TimeAgo:   relTime(e.Timestamp),
				})
			}
		}
	}

	if err := s.dashboardTmpl.ExecuteTemplate(w, "base", data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// ---- Run list ----

func (s *Server) handleRunList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			jsonError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	var (
		results []pipeline.ProcessingResult
		err     error
	)
	if ticket := r.URL.Query().Get("ticket"); ticket != "" {
		results, err = s.store.ListResults(ticket)
		if err == nil && len(results) > limit {
			results = results[:limit]
		}
	} else {
		results, err = s.store.ListAll(limit)
	}
	if err != nil {
		jsonError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if results == nil {
		results = []pipeline.ProcessingResult{}
	}
	writeJSON(w, http.StatusOK, results)
}

// ---- Latest run for a ticket ----

func (s *Server) handleTicketLatest(w http.ResponseWriter, r *http.Request, ticketKey string) {
	if r.Method != http.MethodGet {
		jsonError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	res, err := s.store.LatestResult(ticketKey)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if res == nil {
		jsonError(w, http.StatusNotFound, fmt.Sprintf("no runs for %s", ticketKey))
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// ---- Run events for a ticket ----

func (s *Server) handleTicketEvents(w http.ResponseWriter, r *http.Request, ticketKey string) {
	if r.Method != http.MethodGet {
		jsonError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.database == nil {
		jsonError(w, http.StatusServiceUnavailable, "database not configured")
		return
	}

	events, err := s.database.GetTicketEvents(ticketKey)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if events == nil {
		events = []db.RunEvent{}
	}
	writeJSON(w, http.StatusOK, events)
}

// ---- Process ----

func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		jsonError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	ticketKey := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/process/"), "/")
	if ticketKey == "" || strings.Contains(ticketKey, "/") {
		jsonError(w, http.StatusBadRequest, "invalid ticket key")
		return
	}
	if s.runner == nil {
		jsonError(w, http.StatusServiceUnavailable, "processing not configured")
		return
	}

	push := true
	if v := r.URL.Query().Get("push"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			jsonError(w, http.StatusBadRequest, "invalid push parameter")
			return
		}
		push = b
	}

	s.procMu.Lock()
	res := s.runner.Process(r.Context(), ticketKey, push)
	s.procMu.Unlock()

	writeJSON(w, http.StatusOK, res)
}

// ---- Stats ----

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.database == nil {
		jsonError(w, http.StatusServiceUnavailable, "database not configured")
		return
	}

	var since time.Time
	if v := r.URL.Query().Get("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			jsonError(w, http.StatusBadRequest, "invalid days")
			return
		}
		since = time.Now().AddDate(0, 0, -n)
	}

	overview, err := analytics.QueryOverview(s.database, since)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, err.Error())
		return
	}
	stages, err := analytics.QueryStageDurations(s.database, since)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, err.Error())
		return
	}
	weekly, err := analytics.QueryWeeklyThroughput(s.database, since)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, err.Error())
		return
	}
	failures, err := analytics.QueryStageFailures(s.database, since)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, StatsResponse{
		Overview: overview,
		Stages:   stages,
		Weekly:   weekly,
		Failures: failures,
	})
}
