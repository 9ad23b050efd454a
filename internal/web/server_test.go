package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ticketsmith/ticketsmith/internal/pipeline"
)

type stubRunner struct {
	res  *pipeline.ProcessingResult
	keys []string
	push []bool
}

func (s *stubRunner) Process(ctx context.Context, ticketKey string, pushEnabled bool) *pipeline.ProcessingResult {
	s.keys = append(s.keys, ticketKey)
	s.push = append(s.push, pushEnabled)
	return s.res
}

func seedResult(t *testing.T, store *pipeline.Store, key string, start time.Time, success bool) pipeline.ProcessingResult {
	t.Helper()
	res := &pipeline.ProcessingResult{
		RunID:      uuid.New(),
		TicketKey:  key,
		Summary:    "Add CSV export",
		Success:    success,
		BranchName: strings.ToLower(key),
		StartedAt:  start,
		FinishedAt: start.Add(90 * time.Second),
	}
	if err := store.SaveResult(res); err != nil {
		t.Fatalf("seed result: %v", err)
	}
	return *res
}

func get(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHandleRunList(t *testing.T) {
	store := pipeline.NewStore(t.TempDir())
	base := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	seedResult(t, store, "PROJ-1", base, true)
	newest := seedResult(t, store, "PROJ-2", base.Add(time.Hour), false)

	s := NewServer(store, nil, nil, ":0")
	rec := get(t, s, "/api/runs")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var results []pipeline.ProcessingResult
	if err := json.Unmarshal(rec.Body.Bytes(), &results); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].RunID != newest.RunID {
		t.Errorf("first result = %s, want newest %s", results[0].RunID, newest.RunID)
	}
}

func TestHandleRunListTicketFilter(t *testing.T) {
	store := pipeline.NewStore(t.TempDir())
	base := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	seedResult(t, store, "PROJ-1", base, true)
	seedResult(t, store, "PROJ-2", base.Add(time.Hour), true)

	s := NewServer(store, nil, nil, ":0")
	rec := get(t, s, "/api/runs?ticket=PROJ-1")

	var results []pipeline.ProcessingResult
	if err := json.Unmarshal(rec.Body.Bytes(), &results); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(results) != 1 || results[0].TicketKey != "PROJ-1" {
		t.Errorf("results = %v", results)
	}
}

func TestHandleRunListEmptyStore(t *testing.T) {
	s := NewServer(pipeline.NewStore(t.TempDir()), nil, nil, ":0")
	rec := get(t, s, "/api/runs")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != "[]" {
		t.Errorf("body = %q, want []", got)
	}
}

func TestHandleRunListInvalidLimit(t *testing.T) {
	s := NewServer(pipeline.NewStore(t.TempDir()), nil, nil, ":0")
	rec := get(t, s, "/api/runs?limit=zero")

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestHandleTicketLatest(t *testing.T) {
	store := pipeline.NewStore(t.TempDir())
	base := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	seedResult(t, store, "PROJ-1", base, false)
	latest := seedResult(t, store, "PROJ-1", base.Add(time.Hour), true)

	s := NewServer(store, nil, nil, ":0")
	rec := get(t, s, "/api/runs/PROJ-1")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var res pipeline.ProcessingResult
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.RunID != latest.RunID {
		t.Errorf("RunID = %s, want %s", res.RunID, latest.RunID)
	}
}

func TestHandleTicketLatestNotFound(t *testing.T) {
	s := NewServer(pipeline.NewStore(t.TempDir()), nil, nil, ":0")
	rec := get(t, s, "/api/runs/PROJ-404")

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !strings.Contains(body["error"], "PROJ-404") {
		t.Errorf("error = %q", body["error"])
	}
}

func TestHandleTicketEventsNoDatabase(t *testing.T) {
	s := NewServer(pipeline.NewStore(t.TempDir()), nil, nil, ":0")
	rec := get(t, s, "/api/runs/PROJ-1/events")

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}

func TestHandleProcess(t *testing.T) {
	runner := &stubRunner{res: &pipeline.ProcessingResult{
		RunID:     uuid.New(),
		TicketKey: "PROJ-9",
		Success:   true,
	}}
	s := NewServer(pipeline.NewStore(t.TempDir()), nil, runner, ":0")

	req := httptest.NewRequest(http.MethodPost, "/api/process/PROJ-9?push=false", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if len(runner.keys) != 1 || runner.keys[0] != "PROJ-9" {
		t.Errorf("runner keys = %v", runner.keys)
	}
	if len(runner.push) != 1 || runner.push[0] {
		t.Errorf("runner push = %v, want [false]", runner.push)
	}
	var res pipeline.ProcessingResult
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.TicketKey != "PROJ-9" || !res.Success {
		t.Errorf("result = %+v", res)
	}
}

func TestHandleProcessDefaultsToPush(t *testing.T) {
	runner := &stubRunner{res: &pipeline.ProcessingResult{TicketKey: "PROJ-9"}}
	s := NewServer(pipeline.NewStore(t.TempDir()), nil, runner, ":0")

	req := httptest.NewRequest(http.MethodPost, "/api/process/PROJ-9", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if len(runner.push) != 1 || !runner.push[0] {
		t.Errorf("runner push = %v, want [true]", runner.push)
	}
}

func TestHandleProcessWrongMethod(t *testing.T) {
	runner := &stubRunner{res: &pipeline.ProcessingResult{}}
	s := NewServer(pipeline.NewStore(t.TempDir()), nil, runner, ":0")

	rec := get(t, s, "/api/process/PROJ-9")

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", rec.Code)
	}
	if len(runner.keys) != 0 {
		t.Errorf("runner keys = %v, want none", runner.keys)
	}
}

func TestHandleProcessNoRunner(t *testing.T) {
	s := NewServer(pipeline.NewStore(t.TempDir()), nil, nil, ":0")

	req := httptest.NewRequest(http.MethodPost, "/api/process/PROJ-9", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}

func TestHandleStatsNoDatabase(t *testing.T) {
	s := NewServer(pipeline.NewStore(t.TempDir()), nil, nil, ":0")
	rec := get(t, s, "/api/stats")

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}

func TestDashboardRenders(t *testing.T) {
	store := pipeline.NewStore(t.TempDir())
	seedResult(t, store, "PROJ-1", time.Now().Add(-time.Hour), true)

	s := NewServer(store, nil, nil, ":0")
	rec := get(t, s, "/")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	if !strings.Contains(body, "PROJ-1") {
		t.Error("dashboard should list the seeded run")
	}
	if !strings.Contains(body, "Add CSV export") {
		t.Error("dashboard should show the run summary")
	}
}

func TestDashboardUnknownPath(t *testing.T) {
	s := NewServer(pipeline.NewStore(t.TempDir()), nil, nil, ":0")
	rec := get(t, s, "/nope")

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestFmtDuration(t *testing.T) {
	cases := []struct {
		d    time.Duration
		want string
	}{
		{0, ""},
		{42 * time.Second, "42s"},
		{90 * time.Second, "1m30s"},
		{3*time.Hour + 5*time.Minute, "3h5m"},
	}
	for _, c := range cases {
		if got := fmtDuration(c.d); got != c.want {
			t.Errorf("fmtDuration(%v) = %q, want %q", c.d, got, c.want)
		}
	}
}

func TestRelTime(t *testing.T) {
	if got := relTime(time.Time{}); got != "" {
		t.Errorf("relTime(zero) = %q, want empty", got)
	}
	if got := relTime(time.Now().Add(-30 * time.Second)); got != "just now" {
		t.Errorf("relTime(-30s) = %q", got)
	}
	if got := relTime(time.Now().Add(-2 * time.Hour)); got != "2h ago" {
		t.Errorf("relTime(-2h) = %q", got)
	}
}
