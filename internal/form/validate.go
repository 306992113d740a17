package form

import (
	"fmt"
	"strings"
)

// ValidationError 指向一个具体字段，便于前端做行内提示。
type ValidationError struct {
	FieldID string
	Message string
}

func (e *ValidationError) Error() string {
	if e.FieldID == "" {
		return e.Message
	}
	return fmt.Sprintf("field %s: %s", e.FieldID, e.Message)
}

// ErrNoFields 在保存零字段的表单模板时返回。
var ErrNoFields = &ValidationError{Message: "please add fields"}

// Validate checks a form template before it is persisted. A template must have
// a name and at least one field; choice-type fields must carry non-empty
// options; header/paragraph content lives in Value, not Label.
func Validate(t Template) error {
	if strings.TrimSpace(t.Name) == "" {
		return &ValidationError{Message: "template name is required"}
	}
	if len(t.Fields) == 0 {
		return ErrNoFields
	}

	seen := make(map[string]struct{}, len(t.Fields))
	for _, f := range t.Fields {
		if strings.TrimSpace(f.ID) == "" {
			return &ValidationError{Message: "field id is required"}
		}
		if _, dup := seen[f.ID]; dup {
			return &ValidationError{FieldID: f.ID, Message: "duplicate field id"}
		}
		seen[f.ID] = struct{}{}

		if !f.Type.Valid() {
			return &ValidationError{FieldID: f.ID, Message: fmt.Sprintf("unknown field type %q", f.Type)}
		}
		if f.Type.HasOptions() && len(f.Options) == 0 {
			return &ValidationError{FieldID: f.ID, Message: "options must not be empty"}
		}
		if f.Type.Static() {
			if strings.TrimSpace(f.Value) == "" {
				return &ValidationError{FieldID: f.ID, Message: "static content is required in value"}
			}
			continue
		}
		if strings.TrimSpace(f.Label) == "" {
			return &ValidationError{FieldID: f.ID, Message: "label is required"}
		}
	}
	return nil
}
