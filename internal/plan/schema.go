package plan

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// planSchema requires the four top-level fields with their JSON types.
// Arrays may be empty.
const planSchema = `{
  "type": "object",
  "required": ["summary", "routine", "diet", "mindfulness"],
  "properties": {
    "summary": {"type": "string"},
    "mindfulness": {"type": "string"},
    "routine": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["name"],
        "properties": {
          "name": {"type": "string"},
          "sanskrit": {"type": "string"},
          "duration": {"type": "string"},
          "type": {"type": "string"},
          "benefit": {"type": "string"},
          "instruction": {"type": "string"}
        }
      }
    },
    "diet": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["item"],
        "properties": {
          "time": {"type": "string"},
          "item": {"type": "string"},
          "reason": {"type": "string"}
        }
      }
    }
  }
}`

var planSchemaLoader = gojsonschema.NewStringLoader(planSchema)

func validatePlanJSON(doc string) error {
	result, err := gojsonschema.Validate(planSchemaLoader, gojsonschema.NewStringLoader(doc))
	if err != nil {
		return &ParseError{Reason: "invalid JSON", Err: err}
	}

	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return &ParseError{Reason: "schema", Err: fmt.Errorf("%w: %s", ErrSchema, strings.Join(errs, "; "))}
	}

	return nil
}
