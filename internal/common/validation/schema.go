package validation

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// ValidationResult reports the outcome of a schema check.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Validate checks data against a JSON-schema map and returns per-field errors.
func Validate(schemaMap, data map[string]interface{}) (*ValidationResult, error) {
	schemaLoader := gojsonschema.NewGoLoader(schemaMap)
	documentLoader := gojsonschema.NewGoLoader(data)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}

	out := &ValidationResult{Valid: result.Valid()}
	for _, desc := range result.Errors() {
		out.Errors = append(out.Errors, ValidationError{
			Field:   desc.Field(),
			Message: desc.Description(),
		})
	}

	return out, nil
}

// FirstError flattens a failed result into a single human-readable message.
func (r *ValidationResult) FirstError() string {
	if r.Valid || len(r.Errors) == 0 {
		return ""
	}
	e := r.Errors[0]
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}
