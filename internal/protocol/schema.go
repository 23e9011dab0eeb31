package protocol

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// requestSchemaJSON describes the request document: five required string
// fields. Content rules (non-empty, offered course) belong to the submitter.
const requestSchemaJSON = `{
	"type": "object",
	"required": ["name", "address", "qualifications", "course", "start_year_month"],
	"properties": {
		"name":             {"type": "string"},
		"address":          {"type": "string"},
		"qualifications":   {"type": "string"},
		"course":           {"type": "string"},
		"start_year_month": {"type": "string"}
	}
}`

var requestSchema = mustSchema(requestSchemaJSON)

func mustSchema(src string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
	if err != nil {
		panic(fmt.Sprintf("protocol: compile schema: %v", err))
	}
	return schema
}

// ValidateRequest checks payload against the request schema.
func ValidateRequest(payload []byte) error {
	result, err := requestSchema.Validate(gojsonschema.NewBytesLoader(payload))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return fmt.Errorf("%w: %s", ErrInvalidDocument, strings.Join(errs, "; "))
	}
	return nil
}
