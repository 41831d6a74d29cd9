package core

import (
	"encoding/json"
	"testing"

	"github.com/valter-silva-au/todoist-interlingua/pkg/models"
)

// record marshals a field map, applying overrides. A nil override value
// deletes the field.
func record(t testing.TB, base map[string]any, overrides map[string]any) json.RawMessage {
	t.Helper()
	fields := make(map[string]any, len(base))
	for k, v := range base {
		fields[k] = v
	}
	for k, v := range overrides {
		if v == nil {
			delete(fields, k)
			continue
		}
		fields[k] = v
	}
	data, err := json.Marshal(fields)
	if err != nil {
		t.Fatalf("marshalling fixture: %v", err)
	}
	return data
}

func projectFields(id, name string) map[string]any {
	return map[string]any{
		"id":               id,
		"name":             name,
		"comment_count":    0,
		"order":            1,
		"color":            "charcoal",
		"is_shared":        false,
		"is_favorite":      false,
		"parent_id":        nil,
		"is_inbox_project": false,
		"is_team_inbox":    false,
		"view_style":       "list",
		"url":              "https://todoist.com/showProject?id=" + id,
	}
}

func sectionFields(id, projectID, name string) map[string]any {
	return map[string]any{
		"id":         id,
		"project_id": projectID,
		"order":      1,
		"name":       name,
	}
}

func taskFields(id, projectID string, sectionID, parentID any) map[string]any {
	return map[string]any{
		"id":            id,
		"creator_id":    "2671355",
		"created_at":    "2019-12-11T22:36:50.000000Z",
		"assignee_id":   nil,
		"assigner_id":   nil,
		"comment_count": 0,
		"is_completed":  false,
		"content":       "Task " + id,
		"description":   "",
		"due":           nil,
		"duration":      nil,
		"labels":        []string{},
		"order":         1,
		"priority":      1,
		"project_id":    projectID,
		"section_id":    sectionID,
		"parent_id":     parentID,
		"url":           "https://todoist.com/showTask?id=" + id,
	}
}

func labelFields(id, name string) map[string]any {
	return map[string]any{
		"id":          id,
		"name":        name,
		"color":       "berry_red",
		"order":       1,
		"is_favorite": false,
	}
}

func commentFields(id string, taskID, projectID any) map[string]any {
	return map[string]any{
		"id":         id,
		"task_id":    taskID,
		"project_id": projectID,
		"posted_at":  "2016-09-22T07:00:00.000000Z",
		"content":    "Need one bottle of milk",
		"attachment": nil,
	}
}

func mustProject(t testing.TB, id, name string) models.Project {
	t.Helper()
	res := Validate[models.Project](models.KindProject, record(t, projectFields(id, name), nil))
	if !res.OK() {
		t.Fatalf("fixture project %s invalid: %v", id, res.Violations)
	}
	return res.Record
}

func mustSection(t testing.TB, id, projectID string) models.Section {
	t.Helper()
	res := Validate[models.Section](models.KindSection, record(t, sectionFields(id, projectID, "Section "+id), nil))
	if !res.OK() {
		t.Fatalf("fixture section %s invalid: %v", id, res.Violations)
	}
	return res.Record
}

func mustTask(t testing.TB, id, projectID string, sectionID, parentID any) models.Task {
	t.Helper()
	res := Validate[models.Task](models.KindTask, record(t, taskFields(id, projectID, sectionID, parentID), nil))
	if !res.OK() {
		t.Fatalf("fixture task %s invalid: %v", id, res.Violations)
	}
	return res.Record
}
