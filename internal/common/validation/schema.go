package validation

import (
	"fmt"
	"unicode/utf8"

	"admission-intake/internal/models"
)

// JSONSchema defines the field rules an application must satisfy before it
// is sent.
type JSONSchema struct {
	Type                 string              `json:"type"`
	Properties           map[string]Property `json:"properties"`
	Required             []string            `json:"required,omitempty"`
	AdditionalProperties bool                `json:"additionalProperties,omitempty"`
}

type Property struct {
	Type        string   `json:"type"`
	Description string   `json:"description,omitempty"`
	Enum        []string `json:"enum,omitempty"`
	MinLength   *int     `json:"minLength,omitempty"`
	MaxLength   *int     `json:"maxLength,omitempty"`
}

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

func intPtr(v int) *int { return &v }

// ApplicationSchema returns the submitter-side rules for an application:
// every field non-empty and the course one of the offered programs.
func ApplicationSchema() JSONSchema {
	text := func(desc string) Property {
		return Property{Type: "string", Description: desc, MinLength: intPtr(1), MaxLength: intPtr(1024)}
	}
	course := text("Program to enroll in")
	course.Enum = models.Courses

	return JSONSchema{
		Type: "object",
		Properties: map[string]Property{
			"name":             text("Full name"),
			"address":          text("Postal address"),
			"qualifications":   text("Educational qualifications"),
			"course":           course,
			"start_year_month": text("Intended start year and month"),
		},
		Required: []string{"name", "address", "qualifications", "course", "start_year_month"},
	}
}

// ValidateRecord checks rec against ApplicationSchema.
func ValidateRecord(rec models.ApplicationRecord) *ValidationResult {
	return ValidateInput(map[string]interface{}{
		"name":             rec.Name,
		"address":          rec.Address,
		"qualifications":   rec.Qualifications,
		"course":           rec.Course,
		"start_year_month": rec.StartPeriod,
	}, ApplicationSchema())
}

// ValidateField checks one value against the named property of schema.
func ValidateField(schema JSONSchema, field, value string) []ValidationError {
	prop, ok := schema.Properties[field]
	if !ok {
		return []ValidationError{{Field: field, Message: "field not allowed in schema", Code: "EXTRA_FIELD"}}
	}
	return validateField(field, value, prop)
}

// ValidateInput validates input against JSON schema with detailed errors
func ValidateInput(input map[string]interface{}, schema JSONSchema) *ValidationResult {
	errors := []ValidationError{}

	for _, requiredField := range schema.Required {
		if _, exists := input[requiredField]; !exists {
			errors = append(errors, ValidationError{
				Field:   requiredField,
				Message: "required field missing",
				Code:    "REQUIRED_FIELD_MISSING",
			})
		}
	}

	for fieldName, value := range input {
		prop, exists := schema.Properties[fieldName]
		if !exists {
			if !schema.AdditionalProperties {
				errors = append(errors, ValidationError{
					Field:   fieldName,
					Message: "field not allowed in schema",
					Code:    "EXTRA_FIELD",
				})
			}
			continue
		}

		if fieldErrors := validateField(fieldName, value, prop); len(fieldErrors) > 0 {
			errors = append(errors, fieldErrors...)
		}
	}

	return &ValidationResult{
		Valid:  len(errors) == 0,
		Errors: errors,
	}
}

func validateField(fieldName string, value interface{}, prop Property) []ValidationError {
	errors := []ValidationError{}

	strVal, ok := value.(string)
	if !ok {
		return append(errors, ValidationError{
			Field:   fieldName,
			Message: fmt.Sprintf("expected %s, got %T", prop.Type, value),
			Code:    "INVALID_TYPE",
		})
	}

	length := utf8.RuneCountInString(strVal)
	if prop.MinLength != nil && length < *prop.MinLength {
		code, msg := "MIN_LENGTH_VIOLATION", fmt.Sprintf("value must be at least %d characters", *prop.MinLength)
		if length == 0 {
			code, msg = "REQUIRED_FIELD_EMPTY", "value is required"
		}
		errors = append(errors, ValidationError{Field: fieldName, Message: msg, Code: code})
	}
	if prop.MaxLength != nil && length > *prop.MaxLength {
		errors = append(errors, ValidationError{
			Field:   fieldName,
			Message: fmt.Sprintf("value must be at most %d characters", *prop.MaxLength),
			Code:    "MAX_LENGTH_VIOLATION",
		})
	}

	if len(prop.Enum) > 0 && length > 0 {
		found := false
		for _, enumVal := range prop.Enum {
			if strVal == enumVal {
				found = true
				break
			}
		}
		if !found {
			errors = append(errors, ValidationError{
				Field:   fieldName,
				Message: fmt.Sprintf("value must be one of %v", prop.Enum),
				Code:    "INVALID_ENUM_VALUE",
			})
		}
	}

	return errors
}

// GetErrorMessages returns a simple list of error messages
func (vr *ValidationResult) GetErrorMessages() []string {
	messages := make([]string, len(vr.Errors))
	for i, err := range vr.Errors {
		messages[i] = fmt.Sprintf("%s: %s", err.Field, err.Message)
	}
	return messages
}

// HasErrors checks if validation has errors for specific field
func (vr *ValidationResult) HasErrors(field string) bool {
	for _, err := range vr.Errors {
		if err.Field == field {
			return true
		}
	}
	return false
}
