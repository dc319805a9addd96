package submission

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/formgate/formgate/app/models"
)

// Basic shape check only; real deliverability is the mail transport's problem.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// validateFormData checks the payload against the form's declared field
// schema and returns a ValidationError naming the first offending field's
// label.
func validateFormData(form *models.Form, data map[string]interface{}) error {
	for _, field := range form.Settings.Fields {
		label := field.Label
		if label == "" {
			label = field.ID
		}

		value, present := data[field.ID]

		if field.Required && (!present || isBlank(value)) {
			return &ValidationError{
				Field:   label,
				Message: fmt.Sprintf("field %q is required", label),
			}
		}
		if !present || isBlank(value) {
			continue
		}

		switch field.Type {
		case models.FIELD_EMAIL:
			s, ok := value.(string)
			if !ok || !emailPattern.MatchString(strings.TrimSpace(s)) {
				return &ValidationError{
					Field:   label,
					Message: fmt.Sprintf("field %q must be a valid email address", label),
				}
			}
		case models.FIELD_NUMBER:
			if !isNumeric(value) {
				return &ValidationError{
					Field:   label,
					Message: fmt.Sprintf("field %q must be a number", label),
				}
			}
		}
	}
	return nil
}

// isBlank treats nil and whitespace-only strings as empty. Numbers and bools
// always count as present.
func isBlank(value interface{}) bool {
	if value == nil {
		return true
	}
	if s, ok := value.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}

func isNumeric(value interface{}) bool {
	switch v := value.(type) {
	case float64, float32, int, int32, int64, uint, uint32, uint64:
		return true
	case string:
		_, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return err == nil
	default:
		return false
	}
}
