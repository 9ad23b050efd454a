package analytics

import (
	"database/sql"
	"fmt"
	"math"
	"sort"
	"time"
)

// DB is the interface for database queries used by analytics.
type DB interface {
	Conn() *sql.DB
}

// Overview summarizes run outcomes.
type Overview struct {
	Runs         int     `json:"runs"`
	Tickets      int     `json:"tickets"`
	Succeeded    int     `json:"succeeded"`
	Failed       int     `json:"failed"`
	SuccessPct   float64 `json:"success_pct"`
	BuildsPassed int     `json:"builds_passed"`
	TestsPassed  int     `json:"tests_passed"`
	Pushed       int     `json:"pushed"`
	PRsCreated   int     `json:"prs_created"`
}

// QueryOverview returns aggregate counts across all recorded runs.
// A non-zero since restricts the window by finish time.
func QueryOverview(database DB, since time.Time) (*Overview, error) {
	query := `
		SELECT COUNT(*),
			COUNT(DISTINCT ticket_key),
			SUM(CASE WHEN success THEN 1 ELSE 0 END),
			SUM(CASE WHEN build_success THEN 1 ELSE 0 END),
			SUM(CASE WHEN tests_success THEN 1 ELSE 0 END),
			SUM(CASE WHEN pushed THEN 1 ELSE 0 END),
			SUM(CASE WHEN pr_url != '' THEN 1 ELSE 0 END)
		FROM runs`

	args := []interface{}{}
	if !since.IsZero() {
		query += ` WHERE finished_at >= $1`
		args = append(args, since)
	}

	// The SUMs come back NULL when the table is empty.
	var o Overview
	var succeeded, builds, tests, pushed, prs sql.NullInt64
	err := database.Conn().QueryRow(query, args...).Scan(
		&o.Runs, &o.Tickets, &succeeded, &builds, &tests, &pushed, &prs,
	)
	if err != nil {
		return nil, fmt.Errorf("query overview: %w", err)
	}
	o.Succeeded = int(succeeded.Int64)
	o.BuildsPassed = int(builds.Int64)
	o.TestsPassed = int(tests.Int64)
	o.Pushed = int(pushed.Int64)
	o.PRsCreated = int(prs.Int64)
	o.Failed = o.Runs - o.Succeeded
	o.SuccessPct = pct(o.Succeeded, o.Runs)
	return &o, nil
}

// StageDuration holds duration stats for a pipeline stage.
type StageDuration struct {
	Stage string  `json:"stage"`
	Count int     `json:"count"`
	Avg   float64 `json:"avg_seconds"`
	P50   float64 `json:"p50_seconds"`
	P95   float64 `json:"p95_seconds"`
}

// eventTick is the slice of a run_events row needed for duration math.
type eventTick struct {
	RunID     string
	Stage     string
	Event     string
	Timestamp time.Time
}

// QueryStageDurations returns average and percentile durations per stage.
// Events are logged when a stage finishes, so the gap between consecutive
// events of the same run is the later event's stage duration.
func QueryStageDurations(database DB, since time.Time) ([]StageDuration, error) {
	query := `SELECT run_id, stage, event, timestamp FROM run_events`
	args := []interface{}{}
	if !since.IsZero() {
		query += ` WHERE timestamp >= $1`
		args = append(args, since)
	}
	query += ` ORDER BY run_id, id`

	rows, err := database.Conn().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query stage durations: %w", err)
	}
	defer rows.Close()

	var ticks []eventTick
	for rows.Next() {
		var tk eventTick
		if err := rows.Scan(&tk.RunID, &tk.Stage, &tk.Event, &tk.Timestamp); err != nil {
			return nil, fmt.Errorf("scan run event: %w", err)
		}
		ticks = append(ticks, tk)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return stageDurationsFromEvents(ticks), nil
}

// stageDurationsFromEvents pairs each event with the previous event of the
// same run. Run-level markers ("run" started/completed) anchor the math but
// get no duration of their own.
func stageDurationsFromEvents(ticks []eventTick) []StageDuration {
	byStage := make(map[string][]float64)
	for i := 1; i < len(ticks); i++ {
		cur, prev := ticks[i], ticks[i-1]
		if cur.RunID != prev.RunID || cur.Stage == "run" {
			continue
		}
		if secs := cur.Timestamp.Sub(prev.Timestamp).Seconds(); secs > 0 {
			byStage[cur.Stage] = append(byStage[cur.Stage], secs)
		}
	}

	var results []StageDuration
	for stage, samples := range byStage {
		sort.Float64s(samples)
		results = append(results, StageDuration{
			Stage: stage,
			Count: len(samples),
			Avg:   avg(samples),
			P50:   percentile(samples, 50),
			P95:   percentile(samples, 95),
		})
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Stage < results[j].Stage
	})
	return results
}

// WeeklyThroughput holds run counts grouped by ISO week of finish time.
type WeeklyThroughput struct {
	Week       string  `json:"week"`
	Runs       int     `json:"runs"`
	Succeeded  int     `json:"succeeded"`
	Failed     int     `json:"failed"`
	SuccessPct float64 `json:"success_pct"`
}

// QueryWeeklyThroughput returns run metrics for the ten most recent weeks.
func QueryWeeklyThroughput(database DB, since time.Time) ([]WeeklyThroughput, error) {
	query := `SELECT finished_at, success FROM runs`
	args := []interface{}{}
	if !since.IsZero() {
		query += ` WHERE finished_at >= $1`
		args = append(args, since)
	}
	query += ` ORDER BY finished_at`

	rows, err := database.Conn().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query weekly throughput: %w", err)
	}
	defer rows.Close()

	var facts []weekFact
	for rows.Next() {
		var f weekFact
		if err := rows.Scan(&f.FinishedAt, &f.Success); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		facts = append(facts, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return throughputFromRuns(facts), nil
}

type weekFact struct {
	FinishedAt time.Time
	Success    bool
}

func throughputFromRuns(facts []weekFact) []WeeklyThroughput {
	byWeek := make(map[string]*WeeklyThroughput)
	for _, f := range facts {
		week := weekOf(f.FinishedAt)
		wt := byWeek[week]
		if wt == nil {
			wt = &WeeklyThroughput{Week: week}
			byWeek[week] = wt
		}
		wt.Runs++
		if f.Success {
			wt.Succeeded++
		} else {
			wt.Failed++
		}
	}

	var results []WeeklyThroughput
	for _, wt := range byWeek {
		wt.SuccessPct = pct(wt.Succeeded, wt.Runs)
		results = append(results, *wt)
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Week > results[j].Week
	})
	if len(results) > 10 {
		results = results[:10]
	}
	return results
}

func weekOf(t time.Time) string {
	year, week := t.UTC().ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

// StageFailure counts failed stage events per stage.
type StageFailure struct {
	Stage string `json:"stage"`
	Count int    `json:"count"`
}

// QueryStageFailures returns which stages fail most, descending by count.
func QueryStageFailures(database DB, since time.Time) ([]StageFailure, error) {
	query := `SELECT stage, COUNT(*) FROM run_events WHERE event = 'failed' AND stage != 'run'`
	args := []interface{}{}
	if !since.IsZero() {
		query += ` AND timestamp >= $1`
		args = append(args, since)
	}
	query += ` GROUP BY stage ORDER BY COUNT(*) DESC, stage`

	rows, err := database.Conn().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query stage failures: %w", err)
	}
	defer rows.Close()

	var results []StageFailure
	for rows.Next() {
		var sf StageFailure
		if err := rows.Scan(&sf.Stage, &sf.Count); err != nil {
			return nil, fmt.Errorf("scan stage failure: %w", err)
		}
		results = append(results, sf)
	}
	return results, rows.Err()
}

// --- helpers ---

// round1 rounds to one decimal place.
func round1(x float64) float64 {
	return math.Round(x*10) / 10
}

func avg(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return round1(sum / float64(len(values)))
}

// percentile linearly interpolates over a sorted sample.
func percentile(sorted []float64, p int) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	rank := float64(p) / 100.0 * float64(n-1)
	lo, hi := int(math.Floor(rank)), int(math.Ceil(rank))
	if lo == hi || hi >= n {
		return round1(sorted[lo])
	}
	w := rank - float64(lo)
	return round1(sorted[lo]*(1-w) + sorted[hi]*w)
}

func pct(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return round1(float64(n) / float64(total) * 100)
}
