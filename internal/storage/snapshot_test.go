package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/valter-silva-au/todoist-interlingua/internal/core"
	"github.com/valter-silva-au/todoist-interlingua/pkg/models"
)

func str(s string) *string { return &s }

func intPtr(n int) *int { return &n }

func task(id, projectID string, sectionID, parentID *string, subtasks ...models.Task) models.Task {
	return models.Task{
		ID:        id,
		CreatorID: "2671355",
		CreatedAt: "2019-12-11T22:36:50.000000Z",
		Content:   "Task " + id,
		Labels:    []string{},
		Priority:  1,
		ProjectID: projectID,
		SectionID: sectionID,
		ParentID:  parentID,
		URL:       "https://todoist.com/showTask?id=" + id,
		Subtasks:  subtasks,
	}
}

func sampleSnapshot() *models.Snapshot {
	return &models.Snapshot{
		Projects: []models.Project{{
			ID: "1", Name: "Work", Color: "charcoal", ViewStyle: "list", URL: "https://todoist.com/showProject?id=1",
			Sections: []models.Section{{
				ID: "10", ProjectID: "1", Order: 1, Name: "Backlog",
				Tasks: []models.Task{task("100", "1", str("10"), nil, task("101", "1", str("10"), str("100")))},
			}},
			Tasks: []models.Task{task("102", "1", nil, nil)},
		}},
		Labels: []models.Label{{ID: "7", Name: "Food", Color: str("berry_red"), Order: intPtr(1)}},
		Comments: []models.Comment{{
			ID: "c1", TaskID: str("100"), PostedAt: "2016-09-22T07:00:00.000000Z", Content: "Need milk",
			Attachment: &models.Attachment{FileName: "a.pdf", FileType: "application/pdf", FileURL: "https://x/a.pdf", ResourceType: "file"},
		}},
		UnattachedSections: []models.Section{{ID: "20", ProjectID: "404", Order: 1, Name: "Orphan"}},
		UnattachedTasks:    []models.Task{task("200", "404", nil, nil)},
	}
}

func lineTypes(t *testing.T, data []byte) []string {
	t.Helper()
	var types []string
	for _, line := range bytes.Split(bytes.TrimSpace(data), []byte("\n")) {
		var tag struct {
			Type string `json:"type"`
			ID   string `json:"id"`
		}
		if err := json.Unmarshal(line, &tag); err != nil {
			t.Fatalf("line %q: %v", line, err)
		}
		types = append(types, tag.Type+":"+tag.ID)
	}
	return types
}

func TestSnapshotStore_WriteOrderAndTags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "todoist_data.jsonl")
	store := NewSnapshotStore(path)

	if err := store.Write(sampleSnapshot()); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading snapshot: %v", err)
	}

	want := []string{
		"project:1", "section:10", "task:100", "task:101", "task:102",
		"section:20", "task:200", "label:7", "comment:c1",
	}
	if got := lineTypes(t, data); strings.Join(got, " ") != strings.Join(want, " ") {
		t.Errorf("line order = %v, want %v", got, want)
	}
	if !bytes.HasPrefix(data, []byte(`{"type":"project","id":"1",`)) {
		t.Errorf("first line should lead with the type tag: %s", data[:40])
	}
	for _, owned := range []string{`"sections"`, `"subtasks"`, `"tasks"`} {
		if bytes.Contains(data, []byte(owned)) {
			t.Errorf("owned list %s must not be written", owned)
		}
	}
}

func TestSnapshotStore_RoundTripIsByteIdentical(t *testing.T) {
	dir := t.TempDir()
	first := NewSnapshotStore(filepath.Join(dir, "a.jsonl"))
	second := NewSnapshotStore(filepath.Join(dir, "b.jsonl"))

	orig := sampleSnapshot()
	if err := first.Write(orig); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	raw, err := first.Read()
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	snap, err := core.NewReconciler().Revalidate(raw)
	if err != nil {
		t.Fatalf("Revalidate() error = %v", err)
	}
	if got, want := snap.Counts(), orig.Counts(); got != want {
		t.Errorf("counts = %+v, want %+v", got, want)
	}
	if len(snap.UnattachedSections) != 1 || len(snap.UnattachedTasks) != 1 {
		t.Errorf("unattached records lost: %+v %+v", snap.UnattachedSections, snap.UnattachedTasks)
	}
	if sub := snap.Projects[0].Sections[0].Tasks[0].Subtasks; len(sub) != 1 || sub[0].ID != "101" {
		t.Errorf("subtask not rebuilt: %+v", sub)
	}

	if err := second.Write(snap); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	a, _ := os.ReadFile(first.Path())
	b, _ := os.ReadFile(second.Path())
	if !bytes.Equal(a, b) {
		t.Errorf("rewrite differs:\n%s\n---\n%s", a, b)
	}
}

func TestSnapshotStore_ReadMissingFile(t *testing.T) {
	store := NewSnapshotStore(filepath.Join(t.TempDir(), "missing.jsonl"))

	_, err := store.Read()
	if !errors.Is(err, ErrSnapshotNotFound) {
		t.Fatalf("error = %v, want ErrSnapshotNotFound", err)
	}
}

func TestSnapshotStore_ReadMalformed(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		wantLine int
		wantMsg  string
	}{
		{"bad json", "{\"type\":\"label\",\"id\":\"1\"}\n{oops\n", 2, "invalid character"},
		{"unknown type", "\n{\"type\":\"filter\",\"id\":\"1\"}\n", 2, `unknown type "filter"`},
		{"missing type", "{\"id\":\"1\"}\n", 1, `missing "type"`},
		{"not an object", "[1,2]\n", 1, "cannot unmarshal"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "todoist_data.jsonl")
			if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
				t.Fatal(err)
			}

			_, err := NewSnapshotStore(path).Read()
			var merr *MalformedSnapshotError
			if !errors.As(err, &merr) {
				t.Fatalf("error = %v, want *MalformedSnapshotError", err)
			}
			if merr.Line != tt.wantLine || merr.Path != path {
				t.Errorf("line/path = %d/%s, want %d/%s", merr.Line, merr.Path, tt.wantLine, path)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error = %v, want %q", err, tt.wantMsg)
			}
		})
	}
}

func TestSnapshotStore_ReadSkipsBlankLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "todoist_data.jsonl")
	content := "\n{\"type\":\"label\",\"id\":\"1\",\"name\":\"a\"}\n\n  \n{\"type\":\"label\",\"id\":\"2\",\"name\":\"b\"}\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	raw, err := NewSnapshotStore(path).Read()
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(raw.Labels) != 2 {
		t.Errorf("expected 2 labels, got %d", len(raw.Labels))
	}
}

func TestSnapshotStore_WriteReplacesAndCleansUp(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "todoist_data.jsonl")
	store := NewSnapshotStore(path)

	if err := store.Write(sampleSnapshot()); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := store.Write(&models.Snapshot{}); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) != 0 {
		t.Errorf("expected empty snapshot, got %q", data)
	}

	entries, _ := os.ReadDir(filepath.Dir(path))
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".tmp") {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}
	if err := store.Write(nil); err == nil {
		t.Error("expected error for nil snapshot")
	}
}

func TestSnapshotStore_WriteRefusedWhileLocked(t *testing.T) {
	path := filepath.Join(t.TempDir(), "todoist_data.jsonl")
	unlock, err := lockFile(path + ".lock")
	if err != nil {
		t.Fatalf("lockFile() error = %v", err)
	}

	err = NewSnapshotStore(path).Write(sampleSnapshot())
	if !errors.Is(err, ErrSnapshotLocked) {
		t.Errorf("error = %v, want ErrSnapshotLocked", err)
	}

	if err := unlock(); err != nil {
		t.Fatalf("unlock() error = %v", err)
	}
	if err := NewSnapshotStore(path).Write(sampleSnapshot()); err != nil {
		t.Errorf("Write() after unlock error = %v", err)
	}
}

func TestWriteSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "todoist_schema.json")
	if err := WriteSchema(path, core.ProjectSchema()); err != nil {
		t.Fatalf("WriteSchema() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasSuffix(data, []byte("}\n")) {
		t.Error("schema should end with a newline")
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("schema is not JSON: %v", err)
	}
	if doc["title"] != "Project" {
		t.Errorf("title = %v, want Project", doc["title"])
	}
	if !strings.Contains(string(data), "\n  \"") {
		t.Error("schema should be indented")
	}

	if err := WriteSchema(path, nil); err == nil {
		t.Error("expected error for nil schema")
	}
}
