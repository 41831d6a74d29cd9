package models

// Attachment is a file attached to a comment.
type Attachment struct {
	FileName     string `json:"file_name"`
	FileType     string `json:"file_type"`
	FileURL      string `json:"file_url"`
	ResourceType string `json:"resource_type"`
}

// Comment is a note on either a task or a project. Exactly one of TaskID and
// ProjectID is set.
type Comment struct {
	ID         string      `json:"id"`
	TaskID     *string     `json:"task_id"`
	ProjectID  *string     `json:"project_id"`
	PostedAt   string      `json:"posted_at"`
	Content    string      `json:"content"`
	Attachment *Attachment `json:"attachment"`
}
