package analytics

import (
	"testing"
	"time"
)

func ts(t *testing.T, s string) time.Time {
	t.Helper()
	parsed, err := time.Parse("2006-01-02 15:04:05", s)
	if err != nil {
		t.Fatalf("parse timestamp %q: %v", s, err)
	}
	return parsed
}

// --- stageDurationsFromEvents ---

func TestStageDurationsFromEvents(t *testing.T) {
	ticks := []eventTick{
		{RunID: "r1", Stage: "run", Event: "started", Timestamp: ts(t, "2024-06-01 10:00:00")},
		{RunID: "r1", Stage: "fetch", Event: "completed", Timestamp: ts(t, "2024-06-01 10:00:02")},
		{RunID: "r1", Stage: "generate", Event: "completed", Timestamp: ts(t, "2024-06-01 10:00:32")},
		{RunID: "r1", Stage: "validate", Event: "completed", Timestamp: ts(t, "2024-06-01 10:01:32")},
	}

	results := stageDurationsFromEvents(ticks)
	if len(results) != 3 {
		t.Fatalf("expected 3 stages, got %d: %v", len(results), results)
	}

	// Sorted by stage name: fetch, generate, validate.
	if results[0].Stage != "fetch" || results[0].Avg != 2.0 {
		t.Errorf("fetch = %+v, want avg 2.0", results[0])
	}
	if results[1].Stage != "generate" || results[1].Avg != 30.0 {
		t.Errorf("generate = %+v, want avg 30.0", results[1])
	}
	if results[2].Stage != "validate" || results[2].Avg != 60.0 {
		t.Errorf("validate = %+v, want avg 60.0", results[2])
	}
}

func TestStageDurationsFromEvents_MultipleRuns(t *testing.T) {
	ticks := []eventTick{
		{RunID: "r1", Stage: "run", Event: "started", Timestamp: ts(t, "2024-06-01 10:00:00")},
		{RunID: "r1", Stage: "generate", Event: "completed", Timestamp: ts(t, "2024-06-01 10:00:10")},
		{RunID: "r2", Stage: "run", Event: "started", Timestamp: ts(t, "2024-06-02 09:00:00")},
		{RunID: "r2", Stage: "generate", Event: "completed", Timestamp: ts(t, "2024-06-02 09:00:20")},
	}

	results := stageDurationsFromEvents(ticks)
	if len(results) != 1 {
		t.Fatalf("expected 1 stage, got %d", len(results))
	}
	if results[0].Count != 2 {
		t.Errorf("count = %d, want 2", results[0].Count)
	}
	if results[0].Avg != 15.0 {
		t.Errorf("avg = %f, want 15.0", results[0].Avg)
	}
	if results[0].P50 != 15.0 {
		t.Errorf("p50 = %f, want 15.0", results[0].P50)
	}
}

func TestStageDurationsFromEvents_RunBoundaryNotCrossed(t *testing.T) {
	// r2 has no preceding event of its own, so its gap to r1 must not count.
	ticks := []eventTick{
		{RunID: "r1", Stage: "run", Event: "started", Timestamp: ts(t, "2024-06-01 10:00:00")},
		{RunID: "r1", Stage: "fetch", Event: "completed", Timestamp: ts(t, "2024-06-01 10:00:05")},
		{RunID: "r2", Stage: "fetch", Event: "completed", Timestamp: ts(t, "2024-06-01 12:00:00")},
	}

	results := stageDurationsFromEvents(ticks)
	if len(results) != 1 {
		t.Fatalf("expected 1 stage, got %d", len(results))
	}
	if results[0].Count != 1 {
		t.Errorf("count = %d, want 1", results[0].Count)
	}
	if results[0].Avg != 5.0 {
		t.Errorf("avg = %f, want 5.0", results[0].Avg)
	}
}

func TestStageDurationsFromEvents_RunMarkersGetNoDuration(t *testing.T) {
	ticks := []eventTick{
		{RunID: "r1", Stage: "run", Event: "started", Timestamp: ts(t, "2024-06-01 10:00:00")},
		{RunID: "r1", Stage: "fetch", Event: "completed", Timestamp: ts(t, "2024-06-01 10:00:05")},
		{RunID: "r1", Stage: "run", Event: "completed", Timestamp: ts(t, "2024-06-01 10:00:06")},
	}

	results := stageDurationsFromEvents(ticks)
	for _, r := range results {
		if r.Stage == "run" {
			t.Errorf("run marker should not be attributed a duration: %+v", r)
		}
	}
	if len(results) != 1 || results[0].Stage != "fetch" {
		t.Fatalf("expected only fetch, got %v", results)
	}
}

func TestStageDurationsFromEvents_FailedStagesCount(t *testing.T) {
	ticks := []eventTick{
		{RunID: "r1", Stage: "run", Event: "started", Timestamp: ts(t, "2024-06-01 10:00:00")},
		{RunID: "r1", Stage: "validate", Event: "failed", Timestamp: ts(t, "2024-06-01 10:02:00")},
	}

	results := stageDurationsFromEvents(ticks)
	if len(results) != 1 || results[0].Stage != "validate" {
		t.Fatalf("expected validate, got %v", results)
	}
	if results[0].Avg != 120.0 {
		t.Errorf("avg = %f, want 120.0", results[0].Avg)
	}
}

func TestStageDurationsFromEvents_Empty(t *testing.T) {
	if results := stageDurationsFromEvents(nil); len(results) != 0 {
		t.Errorf("expected no results, got %v", results)
	}
}

// --- throughputFromRuns ---

func TestThroughputFromRuns(t *testing.T) {
	facts := []weekFact{
		{FinishedAt: ts(t, "2024-06-03 10:00:00"), Success: true},  // W23
		{FinishedAt: ts(t, "2024-06-05 10:00:00"), Success: true},  // W23
		{FinishedAt: ts(t, "2024-06-07 10:00:00"), Success: false}, // W23
		{FinishedAt: ts(t, "2024-05-28 10:00:00"), Success: true},  // W22
	}

	results := throughputFromRuns(facts)
	if len(results) != 2 {
		t.Fatalf("expected 2 weeks, got %d: %v", len(results), results)
	}

	// Newest week first.
	if results[0].Week != "2024-W23" {
		t.Errorf("week = %q, want 2024-W23", results[0].Week)
	}
	if results[0].Runs != 3 || results[0].Succeeded != 2 || results[0].Failed != 1 {
		t.Errorf("W23 = %+v, want runs 3 succeeded 2 failed 1", results[0])
	}
	if results[0].SuccessPct != 66.7 {
		t.Errorf("W23 success pct = %f, want 66.7", results[0].SuccessPct)
	}
	if results[1].Week != "2024-W22" || results[1].Runs != 1 {
		t.Errorf("W22 = %+v, want runs 1", results[1])
	}
}

func TestThroughputFromRuns_CapsAtTenWeeks(t *testing.T) {
	var facts []weekFact
	start := ts(t, "2024-01-01 10:00:00")
	for i := 0; i < 12; i++ {
		facts = append(facts, weekFact{FinishedAt: start.AddDate(0, 0, 7*i), Success: true})
	}

	results := throughputFromRuns(facts)
	if len(results) != 10 {
		t.Fatalf("expected 10 weeks, got %d", len(results))
	}
	// The two oldest weeks fall off.
	if results[len(results)-1].Week != "2024-W03" {
		t.Errorf("oldest kept week = %q, want 2024-W03", results[len(results)-1].Week)
	}
}

func TestWeekOf(t *testing.T) {
	tests := []struct {
		date string
		want string
	}{
		{"2024-01-01 00:00:00", "2024-W01"},
		{"2021-01-01 00:00:00", "2020-W53"}, // ISO week belongs to prior year
		{"2024-06-05 12:00:00", "2024-W23"},
	}
	for _, tt := range tests {
		if got := weekOf(ts(t, tt.date)); got != tt.want {
			t.Errorf("weekOf(%s) = %q, want %q", tt.date, got, tt.want)
		}
	}
}

// --- helpers ---

func TestAvg(t *testing.T) {
	if got := avg(nil); got != 0 {
		t.Errorf("avg(nil) = %f, want 0", got)
	}
	if got := avg([]float64{10, 20}); got != 15.0 {
		t.Errorf("avg = %f, want 15.0", got)
	}
	if got := avg([]float64{1, 2, 2}); got != 1.7 {
		t.Errorf("avg = %f, want 1.7", got)
	}
}

func TestPercentile(t *testing.T) {
	if got := percentile(nil, 50); got != 0 {
		t.Errorf("percentile(nil) = %f, want 0", got)
	}
	if got := percentile([]float64{10}, 50); got != 10.0 {
		t.Errorf("p50 of single = %f, want 10.0", got)
	}
	if got := percentile([]float64{10, 20}, 50); got != 15.0 {
		t.Errorf("p50 = %f, want 15.0", got)
	}
	sorted := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	if got := percentile(sorted, 95); got != 9.6 {
		t.Errorf("p95 = %f, want 9.6", got)
	}
}

func TestPct(t *testing.T) {
	if got := pct(0, 0); got != 0 {
		t.Errorf("pct(0,0) = %f, want 0", got)
	}
	if got := pct(1, 2); got != 50.0 {
		t.Errorf("pct(1,2) = %f, want 50.0", got)
	}
	if got := pct(1, 3); got != 33.3 {
		t.Errorf("pct(1,3) = %f, want 33.3", got)
	}
	if got := pct(2, 3); got != 66.7 {
		t.Errorf("pct(2,3) = %f, want 66.7", got)
	}
}
