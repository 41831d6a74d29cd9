package models

// DueDate is the due information attached to a Todoist task.
type DueDate struct {
	String      string  `json:"string"`
	Date        string  `json:"date"`
	IsRecurring bool    `json:"is_recurring"`
	Datetime    *string `json:"datetime"`
	Timezone    *string `json:"timezone"`
}

// DurationUnit is the unit of a task Duration.
type DurationUnit string

const (
	DurationMinute DurationUnit = "minute"
	DurationDay    DurationUnit = "day"
)

// Duration is the planned length of a task.
type Duration struct {
	Amount int          `json:"amount"`
	Unit   DurationUnit `json:"unit"`
}

// Task priorities as used by the Todoist API: 1 is normal, 4 is urgent.
const (
	PriorityNormal = 1
	PriorityUrgent = 4
)

// Task is a Todoist task. Subtasks holds the tasks whose parent_id references
// this task; it is filled in by hierarchy assembly and never sent by the API.
type Task struct {
	ID           string    `json:"id"`
	CreatorID    string    `json:"creator_id"`
	CreatedAt    string    `json:"created_at"`
	AssigneeID   *string   `json:"assignee_id"`
	AssignerID   *string   `json:"assigner_id"`
	CommentCount int       `json:"comment_count"`
	IsCompleted  bool      `json:"is_completed"`
	Content      string    `json:"content"`
	Description  *string   `json:"description"`
	Due          *DueDate  `json:"due"`
	Duration     *Duration `json:"duration"`
	Labels       []string  `json:"labels"`
	Order        int       `json:"order"`
	Priority     int       `json:"priority"`
	ProjectID    string    `json:"project_id"`
	SectionID    *string   `json:"section_id"`
	ParentID     *string   `json:"parent_id"`
	URL          string    `json:"url"`
	Subtasks     []Task    `json:"subtasks,omitempty"`
}

// Flat returns a copy of the task without its owned subtasks.
func (t Task) Flat() Task {
	t.Subtasks = nil
	if t.Labels == nil {
		t.Labels = []string{}
	}
	return t
}

// Label is a personal Todoist label.
type Label struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Color      *string `json:"color"`
	Order      *int    `json:"order"`
	IsFavorite bool    `json:"is_favorite"`
}
