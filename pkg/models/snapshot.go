package models

import "encoding/json"

// Kind names one of the Todoist resource types handled by the sync. The value
// doubles as the REST resource name's singular form and the snapshot line tag.
type Kind string

const (
	KindProject Kind = "project"
	KindSection Kind = "section"
	KindTask    Kind = "task"
	KindLabel   Kind = "label"
	KindComment Kind = "comment"
)

// Resource returns the REST collection path for the kind.
func (k Kind) Resource() string {
	return string(k) + "s"
}

// RawCollections holds undecoded records per resource type, either as fetched
// from the API or as read back from a snapshot file.
type RawCollections struct {
	Projects []json.RawMessage
	Sections []json.RawMessage
	Tasks    []json.RawMessage
	Labels   []json.RawMessage
	Comments []json.RawMessage
}

// Add appends a record to the collection for kind. It reports false for an
// unknown kind.
func (c *RawCollections) Add(kind Kind, record json.RawMessage) bool {
	switch kind {
	case KindProject:
		c.Projects = append(c.Projects, record)
	case KindSection:
		c.Sections = append(c.Sections, record)
	case KindTask:
		c.Tasks = append(c.Tasks, record)
	case KindLabel:
		c.Labels = append(c.Labels, record)
	case KindComment:
		c.Comments = append(c.Comments, record)
	default:
		return false
	}
	return true
}

// Snapshot is the reconciled state of a Todoist account: the project
// hierarchy plus the flat label and comment collections.
//
// UnattachedSections and UnattachedTasks keep the flat records that could not
// be placed in the hierarchy because their join keys resolved to nothing.
type Snapshot struct {
	Projects           []Project
	Labels             []Label
	Comments           []Comment
	UnattachedSections []Section
	UnattachedTasks    []Task
}

// Counts summarises how many records of each kind the snapshot's hierarchy
// and flat collections hold.
type Counts struct {
	Projects int
	Sections int
	Tasks    int
	Labels   int
	Comments int
}

// Counts walks the hierarchy and returns per-kind record counts. Unattached
// records are not counted.
func (s *Snapshot) Counts() Counts {
	c := Counts{
		Projects: len(s.Projects),
		Labels:   len(s.Labels),
		Comments: len(s.Comments),
	}
	for _, p := range s.Projects {
		c.Sections += len(p.Sections)
		for _, sec := range p.Sections {
			c.Tasks += countTasks(sec.Tasks)
		}
		c.Tasks += countTasks(p.Tasks)
	}
	return c
}

func countTasks(tasks []Task) int {
	n := len(tasks)
	for _, t := range tasks {
		n += countTasks(t.Subtasks)
	}
	return n
}

// Violation is a single field-level schema failure.
type Violation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}
