package core

import (
	"github.com/google/jsonschema-go/jsonschema"
)

// SchemaDialect is the JSON Schema draft the generated document declares.
const SchemaDialect = "https://json-schema.org/draft/2020-12/schema"

// ProjectSchema builds the declarative JSON Schema of the nested Project
// record tree. The document is derived from the same field rules that
// Validate enforces, so snapshots accepted by one are accepted by the other.
func ProjectSchema() *jsonschema.Schema {
	defs := map[string]*jsonschema.Schema{}

	task := objectSchema("Task", taskRules, defs)
	task.Properties["subtasks"] = arrayOf("#/$defs/Task")
	defs["Task"] = task

	section := objectSchema("Section", sectionRules, defs)
	section.Properties["tasks"] = arrayOf("#/$defs/Task")
	defs["Section"] = section

	root := objectSchema("Project", projectRules, defs)
	root.Schema = SchemaDialect
	root.Description = "A Todoist project with its sections, tasks, and subtasks."
	root.Properties["sections"] = arrayOf("#/$defs/Section")
	root.Properties["tasks"] = arrayOf("#/$defs/Task")
	root.Defs = defs
	return root
}

// objectSchema converts field rules into an object schema, registering nested
// object definitions in defs.
func objectSchema(title string, rules []fieldRule, defs map[string]*jsonschema.Schema) *jsonschema.Schema {
	s := &jsonschema.Schema{
		Title:      title,
		Type:       "object",
		Properties: make(map[string]*jsonschema.Schema, len(rules)),
	}
	for _, rule := range rules {
		if rule.required {
			s.Required = append(s.Required, rule.name)
		}
		s.Properties[rule.name] = fieldSchema(rule, defs)
	}
	return s
}

func fieldSchema(rule fieldRule, defs map[string]*jsonschema.Schema) *jsonschema.Schema {
	var s *jsonschema.Schema
	switch rule.typ {
	case fieldString:
		s = &jsonschema.Schema{Type: "string"}
		if rule.maxLength > 0 {
			s.MaxLength = intPtr(rule.maxLength)
		}
		for _, v := range rule.enum {
			s.Enum = append(s.Enum, v)
		}
	case fieldInt:
		s = &jsonschema.Schema{Type: "integer"}
		if rule.minInt != nil {
			s.Minimum = floatPtr(float64(*rule.minInt))
		}
		if rule.maxInt != nil {
			s.Maximum = floatPtr(float64(*rule.maxInt))
		}
	case fieldBool:
		s = &jsonschema.Schema{Type: "boolean"}
	case fieldStringList:
		s = &jsonschema.Schema{Type: "array", Items: &jsonschema.Schema{Type: "string"}}
	case fieldObject:
		if _, ok := defs[rule.def]; !ok {
			defs[rule.def] = objectSchema(rule.def, rule.object, defs)
		}
		ref := &jsonschema.Schema{Ref: "#/$defs/" + rule.def}
		if rule.required {
			return ref
		}
		return &jsonschema.Schema{AnyOf: []*jsonschema.Schema{ref, {Type: "null"}}}
	}

	if !rule.required {
		s.Types = []string{s.Type, "null"}
		s.Type = ""
	}
	return s
}

func arrayOf(ref string) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "array", Items: &jsonschema.Schema{Ref: ref}}
}

func floatPtr(f float64) *float64 { return &f }
