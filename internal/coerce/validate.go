package coerce

import (
	"fmt"
	"strings"

	"catalog-migrate/internal/domain"
)

// FieldError describes one failed field check.
type FieldError struct {
	Field  string
	Reason string
}

// ValidationError lists every field check a product failed.
type ValidationError struct {
	ExternalID string
	Fields     []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+" "+f.Reason)
	}
	return fmt.Sprintf("invalid product %q: %s", e.ExternalID, strings.Join(parts, ", "))
}

// Validate reports required string fields that coerced to empty.
func Validate(p domain.Product) error {
	required := []struct {
		field string
		value string
	}{
		{"external_id", p.ExternalID},
		{"style_number", p.StyleNumber},
		{"display_name", p.DisplayName},
		{"style_name", p.StyleName},
	}

	var verr *ValidationError
	for _, r := range required {
		if r.value != "" {
			continue
		}
		if verr == nil {
			verr = &ValidationError{ExternalID: p.ExternalID}
		}
		verr.Fields = append(verr.Fields, FieldError{Field: r.field, Reason: "required"})
	}
	if verr != nil {
		return verr
	}
	return nil
}
