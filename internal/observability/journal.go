package observability

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"
)

// Entry is one journal line.
type Entry struct {
	Time  time.Time      `json:"time"`
	Run   string         `json:"run,omitempty"`
	Level string         `json:"level"`
	Type  string         `json:"type"`
	Data  map[string]any `json:"data,omitempty"`
}

// Query selects journal entries. Zero fields match everything.
type Query struct {
	Since time.Time
	Types []string
	Level string
	Run   string
	// Limit keeps only the newest Limit matches.
	Limit int
}

func (q Query) matches(e Entry) bool {
	if !q.Since.IsZero() && e.Time.Before(q.Since) {
		return false
	}
	if len(q.Types) > 0 && !slices.Contains(q.Types, e.Type) {
		return false
	}
	if q.Level != "" && e.Level != q.Level {
		return false
	}
	if q.Run != "" && e.Run != q.Run {
		return false
	}
	return true
}

// Journal appends entries to a JSONL file. The file is created on the first
// entry, so runs that record nothing leave no file behind.
type Journal struct {
	path string
	run  string
	now  func() time.Time

	mu   sync.Mutex
	file *os.File
}

// NewJournal creates a Journal at path whose entries are tagged with run.
func NewJournal(path, run string) *Journal {
	return &Journal{path: path, run: run, now: func() time.Time { return time.Now().UTC() }}
}

// Path returns the journal file path.
func (j *Journal) Path() string { return j.path }

// Run returns the id this journal tags its entries with.
func (j *Journal) Run() string { return j.run }

// LogEvent records an entry for the current run.
func (j *Journal) LogEvent(level, eventType string, data map[string]any) error {
	return j.append(Entry{Time: j.now(), Run: j.run, Level: level, Type: eventType, Data: data})
}

func (j *Journal) append(e Entry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encoding journal entry: %w", err)
	}
	data = append(data, '\n')

	j.mu.Lock()
	defer j.mu.Unlock()
	if j.file == nil {
		if err := os.MkdirAll(filepath.Dir(j.path), 0o755); err != nil {
			return fmt.Errorf("creating journal directory: %w", err)
		}
		f, err := os.OpenFile(j.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("opening journal: %w", err)
		}
		j.file = f
	}
	if _, err := j.file.Write(data); err != nil {
		return fmt.Errorf("writing journal: %w", err)
	}
	return nil
}

// Entries returns the entries matching q, oldest first. A missing journal
// holds no entries. Lines that do not decode are skipped.
func (j *Journal) Entries(q Query) ([]Entry, error) {
	f, err := os.Open(j.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening journal: %w", err)
	}
	defer func() { _ = f.Close() }()

	var out []Entry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var e Entry
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			continue
		}
		if q.matches(e) {
			out = append(out, e)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading journal: %w", err)
	}
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[len(out)-q.Limit:]
	}
	return out, nil
}

// Last returns the newest entry of eventType, or nil when there is none.
func (j *Journal) Last(eventType string) (*Entry, error) {
	entries, err := j.Entries(Query{Types: []string{eventType}, Limit: 1})
	if err != nil || len(entries) == 0 {
		return nil, err
	}
	return &entries[0], nil
}

// LastRun returns the run id of the newest entry, or "" for an empty journal.
func (j *Journal) LastRun() (string, error) {
	entries, err := j.Entries(Query{Limit: 1})
	if err != nil || len(entries) == 0 {
		return "", err
	}
	return entries[0].Run, nil
}

// Close closes the journal file if an entry was ever written.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.file == nil {
		return nil
	}
	err := j.file.Close()
	j.file = nil
	if err != nil {
		return fmt.Errorf("closing journal: %w", err)
	}
	return nil
}
