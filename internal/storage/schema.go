package storage

import (
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
)

// WriteSchema writes schema to path as indented JSON with a trailing newline,
// replacing any existing file.
func WriteSchema(path string, schema *jsonschema.Schema) error {
	if schema == nil {
		return fmt.Errorf("writing schema: nil schema")
	}
	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding schema: %w", err)
	}
	data = append(data, '\n')
	return writeFileAtomic(path, data)
}
