package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/google/uuid"
)

// Store keeps run results on disk, one directory per ticket with one
// subdirectory per run.
type Store struct {
	baseDir string
}

// NewStore creates a Store rooted at baseDir.
func NewStore(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

// DefaultStore returns a Store at ~/.ticketsmith/runs, creating the
// directory if needed.
func DefaultStore() (*Store, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("get home dir: %w", err)
	}
	dir := filepath.Join(home, ".ticketsmith", "runs")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return &Store{baseDir: dir}, nil
}

// BaseDir returns the store's root directory.
func (s *Store) BaseDir() string {
	return s.baseDir
}

func (s *Store) ticketDir(ticketKey string) string {
	return filepath.Join(s.baseDir, ticketKey)
}

func (s *Store) runDir(ticketKey string, runID uuid.UUID) string {
	return filepath.Join(s.ticketDir(ticketKey), runID.String())
}

func (s *Store) resultPath(ticketKey string, runID uuid.UUID) string {
	return filepath.Join(s.runDir(ticketKey, runID), "result.json")
}

// SaveResult persists a run result.
func (s *Store) SaveResult(res *ProcessingResult) error {
	if res.TicketKey == "" {
		return fmt.Errorf("save result: empty ticket key")
	}
	return writeJSON(s.resultPath(res.TicketKey, res.RunID), res)
}

// SaveRawOutput keeps the unparsed generator output next to the result
// so failed parses can be inspected later.
func (s *Store) SaveRawOutput(ticketKey string, runID uuid.UUID, raw string) error {
	return writeAtomic(filepath.Join(s.runDir(ticketKey, runID), "output.txt"), []byte(raw))
}

// GetResult reads a single run result.
func (s *Store) GetResult(ticketKey string, runID uuid.UUID) (*ProcessingResult, error) {
	var res ProcessingResult
	if err := readJSON(s.resultPath(ticketKey, runID), &res); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("run %s for %s not found", runID, ticketKey)
		}
		return nil, err
	}
	return &res, nil
}

// ListResults returns all runs for a ticket, newest first.
func (s *Store) ListResults(ticketKey string) ([]ProcessingResult, error) {
	entries, err := os.ReadDir(s.ticketDir(ticketKey))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read dir %s: %w", s.ticketDir(ticketKey), err)
	}

	var results []ProcessingResult
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		runID, err := uuid.Parse(entry.Name())
		if err != nil {
			continue
		}
		res, err := s.GetResult(ticketKey, runID)
		if err != nil {
			continue
		}
		results = append(results, *res)
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].StartedAt.After(results[j].StartedAt)
	})
	return results, nil
}

// LatestResult returns the most recent run for a ticket, or nil if none.
func (s *Store) LatestResult(ticketKey string) (*ProcessingResult, error) {
	results, err := s.ListResults(ticketKey)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return &results[0], nil
}

// ListAll returns runs across all tickets, newest first.
// limit > 0 caps the number returned.
func (s *Store) ListAll(limit int) ([]ProcessingResult, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read dir %s: %w", s.baseDir, err)
	}

	var results []ProcessingResult
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		ticketRuns, err := s.ListResults(entry.Name())
		if err != nil {
			continue
		}
		results = append(results, ticketRuns...)
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].StartedAt.After(results[j].StartedAt)
	})
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// writeAtomic lands data at path via a temp file in the same directory so
// readers never observe a partial write.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".result-*")
	if err != nil {
		return fmt.Errorf("temp file in %s: %w", dir, err)
	}

	_, werr := tmp.Write(data)
	cerr := tmp.Close()
	if werr != nil || cerr != nil {
		os.Remove(tmp.Name())
		if werr != nil {
			return fmt.Errorf("write %s: %w", path, werr)
		}
		return fmt.Errorf("flush %s: %w", path, cerr)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}

func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return writeAtomic(path, append(data, '\n'))
}

func readJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
