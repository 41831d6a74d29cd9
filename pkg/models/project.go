package models

// Project is a Todoist project together with the sections and tasks it owns.
// Tasks holds the tasks filed directly under the project, outside any section.
type Project struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	CommentCount   int       `json:"comment_count"`
	Order          int       `json:"order"`
	Color          string    `json:"color"`
	IsShared       bool      `json:"is_shared"`
	IsFavorite     bool      `json:"is_favorite"`
	ParentID       *string   `json:"parent_id"`
	IsInboxProject bool      `json:"is_inbox_project"`
	IsTeamInbox    bool      `json:"is_team_inbox"`
	ViewStyle      string    `json:"view_style"`
	URL            string    `json:"url"`
	Sections       []Section `json:"sections,omitempty"`
	Tasks          []Task    `json:"tasks,omitempty"`
}

// Flat returns a copy of the project without its owned sections and tasks.
func (p Project) Flat() Project {
	p.Sections = nil
	p.Tasks = nil
	return p
}

// Section is a Todoist project section and the tasks filed directly in it.
type Section struct {
	ID        string `json:"id"`
	ProjectID string `json:"project_id"`
	Order     int    `json:"order"`
	Name      string `json:"name"`
	Tasks     []Task `json:"tasks,omitempty"`
}

// Flat returns a copy of the section without its owned tasks.
func (s Section) Flat() Section {
	s.Tasks = nil
	return s
}
