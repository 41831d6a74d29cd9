package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/valter-silva-au/todoist-interlingua/pkg/models"
)

// MaxNameLength is the upper bound, in characters, for project, section, and
// label names and label colors.
const MaxNameLength = 255

type fieldType int

const (
	fieldString fieldType = iota
	fieldInt
	fieldBool
	fieldStringList
	fieldObject
)

func (ft fieldType) String() string {
	switch ft {
	case fieldString:
		return "a string"
	case fieldInt:
		return "an integer"
	case fieldBool:
		return "a boolean"
	case fieldStringList:
		return "an array of strings"
	case fieldObject:
		return "an object"
	}
	return "a known type"
}

// fieldRule describes one JSON field of a record. The same rules drive record
// validation and the generated JSON Schema document.
type fieldRule struct {
	name      string
	typ       fieldType
	required  bool
	maxLength int
	minInt    *int
	maxInt    *int
	enum      []string
	// object holds the nested rules for fieldObject; def names the schema
	// definition the nested object is published under.
	object []fieldRule
	def    string
}

func intPtr(n int) *int { return &n }

var dueDateRules = []fieldRule{
	{name: "string", typ: fieldString, required: true},
	{name: "date", typ: fieldString, required: true},
	{name: "is_recurring", typ: fieldBool, required: true},
	{name: "datetime", typ: fieldString},
	{name: "timezone", typ: fieldString},
}

var durationRules = []fieldRule{
	{name: "amount", typ: fieldInt, required: true, minInt: intPtr(1)},
	{name: "unit", typ: fieldString, required: true, enum: []string{string(models.DurationMinute), string(models.DurationDay)}},
}

var attachmentRules = []fieldRule{
	{name: "file_name", typ: fieldString, required: true},
	{name: "file_type", typ: fieldString, required: true},
	{name: "file_url", typ: fieldString, required: true},
	{name: "resource_type", typ: fieldString, required: true},
}

var projectRules = []fieldRule{
	{name: "id", typ: fieldString, required: true},
	{name: "name", typ: fieldString, required: true, maxLength: MaxNameLength},
	{name: "comment_count", typ: fieldInt, required: true, minInt: intPtr(0)},
	{name: "order", typ: fieldInt, required: true},
	{name: "color", typ: fieldString, required: true},
	{name: "is_shared", typ: fieldBool, required: true},
	{name: "is_favorite", typ: fieldBool, required: true},
	{name: "parent_id", typ: fieldString},
	{name: "is_inbox_project", typ: fieldBool, required: true},
	{name: "is_team_inbox", typ: fieldBool, required: true},
	{name: "view_style", typ: fieldString, required: true},
	{name: "url", typ: fieldString, required: true},
}

var sectionRules = []fieldRule{
	{name: "id", typ: fieldString, required: true},
	{name: "project_id", typ: fieldString, required: true},
	{name: "order", typ: fieldInt, required: true},
	{name: "name", typ: fieldString, required: true, maxLength: MaxNameLength},
}

var taskRules = []fieldRule{
	{name: "id", typ: fieldString, required: true},
	{name: "creator_id", typ: fieldString, required: true},
	{name: "created_at", typ: fieldString, required: true},
	{name: "assignee_id", typ: fieldString},
	{name: "assigner_id", typ: fieldString},
	{name: "comment_count", typ: fieldInt, required: true, minInt: intPtr(0)},
	{name: "is_completed", typ: fieldBool, required: true},
	{name: "content", typ: fieldString, required: true},
	{name: "description", typ: fieldString},
	{name: "due", typ: fieldObject, object: dueDateRules, def: "DueDate"},
	{name: "duration", typ: fieldObject, object: durationRules, def: "Duration"},
	{name: "labels", typ: fieldStringList, required: true},
	{name: "order", typ: fieldInt, required: true},
	{name: "priority", typ: fieldInt, required: true, minInt: intPtr(models.PriorityNormal), maxInt: intPtr(models.PriorityUrgent)},
	{name: "project_id", typ: fieldString, required: true},
	{name: "section_id", typ: fieldString},
	{name: "parent_id", typ: fieldString},
	{name: "url", typ: fieldString, required: true},
}

var labelRules = []fieldRule{
	{name: "id", typ: fieldString, required: true},
	{name: "name", typ: fieldString, required: true, maxLength: MaxNameLength},
	{name: "color", typ: fieldString, maxLength: MaxNameLength},
	{name: "order", typ: fieldInt},
	{name: "is_favorite", typ: fieldBool},
}

var commentRules = []fieldRule{
	{name: "id", typ: fieldString, required: true},
	{name: "task_id", typ: fieldString},
	{name: "project_id", typ: fieldString},
	{name: "posted_at", typ: fieldString, required: true},
	{name: "content", typ: fieldString, required: true},
	{name: "attachment", typ: fieldObject, object: attachmentRules, def: "Attachment"},
}

// rulesFor returns the field rules of a record kind.
func rulesFor(kind models.Kind) []fieldRule {
	switch kind {
	case models.KindProject:
		return projectRules
	case models.KindSection:
		return sectionRules
	case models.KindTask:
		return taskRules
	case models.KindLabel:
		return labelRules
	case models.KindComment:
		return commentRules
	}
	return nil
}

// Result is the outcome of validating one raw record: either the typed record
// or the list of field violations that prevented building it.
type Result[T any] struct {
	Record     T
	Violations []models.Violation
}

// OK reports whether the record passed validation.
func (r Result[T]) OK() bool {
	return len(r.Violations) == 0
}

// Validate checks raw against the field rules of kind and, when it conforms,
// decodes it into T.
func Validate[T any](kind models.Kind, raw json.RawMessage) Result[T] {
	var res Result[T]

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var fields map[string]any
	if err := dec.Decode(&fields); err != nil || fields == nil {
		res.Violations = []models.Violation{{Message: "must be a JSON object"}}
		return res
	}

	res.Violations = checkFields("", fields, rulesFor(kind))
	if kind == models.KindComment {
		res.Violations = append(res.Violations, checkCommentOwner(fields)...)
	}
	if !res.OK() {
		return res
	}

	if err := json.Unmarshal(raw, &res.Record); err != nil {
		res.Violations = []models.Violation{{Message: fmt.Sprintf("decoding record: %v", err)}}
	}
	return res
}

// checkFields validates fields against rules, prefixing nested field names
// with prefix. Fields without a rule are ignored.
func checkFields(prefix string, fields map[string]any, rules []fieldRule) []models.Violation {
	var out []models.Violation
	for _, rule := range rules {
		name := prefix + rule.name
		value, present := fields[rule.name]
		if !present || value == nil {
			if rule.required {
				out = append(out, models.Violation{Field: name, Message: "field required"})
			}
			continue
		}
		out = append(out, checkValue(name, value, rule)...)
	}
	return out
}

func checkValue(name string, value any, rule fieldRule) []models.Violation {
	wrongType := []models.Violation{{Field: name, Message: "must be " + rule.typ.String()}}

	switch rule.typ {
	case fieldString:
		s, ok := value.(string)
		if !ok {
			return wrongType
		}
		if rule.maxLength > 0 && utf8.RuneCountInString(s) > rule.maxLength {
			return []models.Violation{{Field: name, Message: fmt.Sprintf("must be at most %d characters", rule.maxLength)}}
		}
		if len(rule.enum) > 0 && !contains(rule.enum, s) {
			return []models.Violation{{Field: name, Message: "must be one of " + strings.Join(rule.enum, ", ")}}
		}
	case fieldInt:
		num, ok := value.(json.Number)
		if !ok {
			return wrongType
		}
		n, err := num.Int64()
		if err != nil {
			return []models.Violation{{Field: name, Message: "must be an integer"}}
		}
		if rule.minInt != nil && n < int64(*rule.minInt) {
			return []models.Violation{{Field: name, Message: fmt.Sprintf("must be at least %d", *rule.minInt)}}
		}
		if rule.maxInt != nil && n > int64(*rule.maxInt) {
			return []models.Violation{{Field: name, Message: fmt.Sprintf("must be at most %d", *rule.maxInt)}}
		}
	case fieldBool:
		if _, ok := value.(bool); !ok {
			return wrongType
		}
	case fieldStringList:
		items, ok := value.([]any)
		if !ok {
			return wrongType
		}
		for i, item := range items {
			if _, ok := item.(string); !ok {
				return []models.Violation{{Field: fmt.Sprintf("%s[%d]", name, i), Message: "must be a string"}}
			}
		}
	case fieldObject:
		obj, ok := value.(map[string]any)
		if !ok {
			return wrongType
		}
		return checkFields(name+".", obj, rule.object)
	}
	return nil
}

// checkCommentOwner enforces that a comment belongs to exactly one of a task
// or a project. An empty id counts as unset, matching how join keys resolve.
func checkCommentOwner(fields map[string]any) []models.Violation {
	hasTask := isRef(fields["task_id"])
	hasProject := isRef(fields["project_id"])
	switch {
	case hasTask && hasProject:
		return []models.Violation{{Field: "task_id", Message: "only one of task_id and project_id may be set"}}
	case !hasTask && !hasProject:
		return []models.Violation{{Field: "task_id", Message: "one of task_id and project_id is required"}}
	}
	return nil
}

func isRef(v any) bool {
	s, ok := v.(string)
	return ok && s != ""
}

func contains(values []string, s string) bool {
	for _, v := range values {
		if v == s {
			return true
		}
	}
	return false
}

// SchemaValidationError reports the first record of a batch that failed
// validation. Record holds the offending raw JSON.
type SchemaValidationError struct {
	Kind       models.Kind
	Index      int
	Record     json.RawMessage
	Violations []models.Violation
}

func (e *SchemaValidationError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "invalid %s at index %d", e.Kind, e.Index)
	if id := recordID(e.Record); id != "" {
		fmt.Fprintf(&b, " (id %q)", id)
	}
	b.WriteString(": ")
	for i, v := range e.Violations {
		if i > 0 {
			b.WriteString("; ")
		}
		if v.Field != "" {
			b.WriteString(v.Field)
			b.WriteString(": ")
		}
		b.WriteString(v.Message)
	}
	return b.String()
}

// recordID extracts a string id from a raw record for error messages.
func recordID(raw json.RawMessage) string {
	var head struct {
		ID any `json:"id"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return ""
	}
	if s, ok := head.ID.(string); ok {
		return s
	}
	return ""
}

// ValidateBatch validates every raw record of a kind. It stops at the first
// invalid record and returns a *SchemaValidationError without any partial
// result. Identifiers must be unique within a batch.
func ValidateBatch[T any](kind models.Kind, raws []json.RawMessage, id func(T) string) ([]T, error) {
	out := make([]T, 0, len(raws))
	seen := make(map[string]bool, len(raws))
	for i, raw := range raws {
		res := Validate[T](kind, raw)
		if res.OK() {
			key := id(res.Record)
			if seen[key] {
				res.Violations = []models.Violation{{Field: "id", Message: "duplicate identifier"}}
			}
			seen[key] = true
		}
		if !res.OK() {
			return nil, &SchemaValidationError{Kind: kind, Index: i, Record: raw, Violations: res.Violations}
		}
		out = append(out, res.Record)
	}
	return out, nil
}
