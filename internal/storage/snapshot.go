package storage

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/valter-silva-au/todoist-interlingua/pkg/models"
)

// ErrSnapshotNotFound is returned by Read when no snapshot file exists yet.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// MalformedSnapshotError reports a snapshot line that could not be decoded.
type MalformedSnapshotError struct {
	Path string
	Line int
	Err  error
}

func (e *MalformedSnapshotError) Error() string {
	return fmt.Sprintf("%s:%d: malformed snapshot record: %v", e.Path, e.Line, e.Err)
}

func (e *MalformedSnapshotError) Unwrap() error { return e.Err }

// maxLineSize bounds a single snapshot record. Task descriptions can be long.
const maxLineSize = 4 << 20

// SnapshotStore persists a Snapshot as newline-delimited JSON. Every line is
// one flat record tagged with its kind:
//
//	{"type":"project","id":"1","name":"Work",...}
//
// Records are written in hierarchy order: each project, then each of its
// sections followed by that section's tasks depth-first, then the project's
// own tasks depth-first. Unattached sections and tasks follow the projects,
// then labels, then comments. Owned lists are never written; they are rebuilt
// from join keys on read.
type SnapshotStore struct {
	path string
}

// NewSnapshotStore creates a SnapshotStore backed by the file at path.
func NewSnapshotStore(path string) *SnapshotStore {
	return &SnapshotStore{path: path}
}

// Path returns the snapshot file path.
func (s *SnapshotStore) Path() string {
	return s.path
}

// Write replaces the snapshot file with snap. The file is written to a
// temporary file in the same directory and renamed into place, so a failed
// write leaves the previous snapshot intact. Concurrent writers are refused
// with ErrSnapshotLocked.
func (s *SnapshotStore) Write(snap *models.Snapshot) error {
	if snap == nil {
		return fmt.Errorf("writing snapshot: nil snapshot")
	}

	var buf bytes.Buffer
	enc := &lineEncoder{buf: &buf}
	for _, p := range snap.Projects {
		enc.encode(models.KindProject, p.Flat())
		for _, sec := range p.Sections {
			enc.encode(models.KindSection, sec.Flat())
			enc.encodeTasks(sec.Tasks)
		}
		enc.encodeTasks(p.Tasks)
	}
	for _, sec := range snap.UnattachedSections {
		enc.encode(models.KindSection, sec.Flat())
	}
	for _, t := range snap.UnattachedTasks {
		enc.encode(models.KindTask, t.Flat())
	}
	for _, l := range snap.Labels {
		enc.encode(models.KindLabel, l)
	}
	for _, c := range snap.Comments {
		enc.encode(models.KindComment, c)
	}
	if enc.err != nil {
		return fmt.Errorf("writing snapshot: %w", enc.err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	unlock, err := lockFile(s.path + ".lock")
	if err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	defer func() { _ = unlock() }()

	return writeFileAtomic(s.path, buf.Bytes())
}

// Read decodes every record of the snapshot file, grouped by kind in file
// order. Blank lines are skipped.
func (s *SnapshotStore) Read() (*models.RawCollections, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("reading %s: %w", s.path, ErrSnapshotNotFound)
		}
		return nil, fmt.Errorf("opening snapshot: %w", err)
	}
	defer func() { _ = f.Close() }()

	raw := &models.RawCollections{}
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	line := 0
	for scanner.Scan() {
		line++
		data := bytes.TrimSpace(scanner.Bytes())
		if len(data) == 0 {
			continue
		}

		var tag struct {
			Type *models.Kind `json:"type"`
		}
		if err := json.Unmarshal(data, &tag); err != nil {
			return nil, &MalformedSnapshotError{Path: s.path, Line: line, Err: err}
		}
		if tag.Type == nil {
			return nil, &MalformedSnapshotError{Path: s.path, Line: line, Err: errors.New(`missing "type"`)}
		}
		record := append(json.RawMessage(nil), data...)
		if !raw.Add(*tag.Type, record) {
			return nil, &MalformedSnapshotError{Path: s.path, Line: line, Err: fmt.Errorf("unknown type %q", *tag.Type)}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, &MalformedSnapshotError{Path: s.path, Line: line + 1, Err: err}
	}
	return raw, nil
}

// lineEncoder writes tagged records and keeps the first error.
type lineEncoder struct {
	buf *bytes.Buffer
	err error
}

func (e *lineEncoder) encode(kind models.Kind, record any) {
	if e.err != nil {
		return
	}
	body, err := json.Marshal(record)
	if err != nil {
		e.err = fmt.Errorf("encoding %s: %w", kind, err)
		return
	}
	if len(body) < 2 || body[0] != '{' {
		e.err = fmt.Errorf("encoding %s: record is not a JSON object", kind)
		return
	}

	fmt.Fprintf(e.buf, `{"type":%q`, kind)
	if rest := body[1:]; len(rest) > 1 {
		e.buf.WriteByte(',')
		e.buf.Write(rest)
	} else {
		e.buf.WriteByte('}')
	}
	e.buf.WriteByte('\n')
}

func (e *lineEncoder) encodeTasks(tasks []models.Task) {
	for _, t := range tasks {
		e.encode(models.KindTask, t.Flat())
		e.encodeTasks(t.Subtasks)
	}
}

// writeFileAtomic writes data to a temporary sibling of path and renames it
// over path.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file for %s: %w", path, err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		cleanup()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}
