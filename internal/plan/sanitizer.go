package plan

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"yoga-guide/internal/models"
)

var (
	ErrNoJSONObject = errors.New("no JSON object in response")
	ErrSchema       = errors.New("response does not match plan schema")
)

// ParseError is returned when model output cannot be turned into a Plan.
type ParseError struct {
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err == nil {
		return "plan parse failure: " + e.Reason
	}
	return fmt.Sprintf("plan parse failure: %s: %v", e.Reason, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

var fencePattern = regexp.MustCompile("(?i)```(?:json)?")

// ExtractStructuredPlan pulls the outermost JSON object out of free-form model
// output and validates it as a Plan.
func ExtractStructuredPlan(raw string) (models.Plan, error) {
	text := strings.TrimSpace(fencePattern.ReplaceAllString(raw, ""))

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return models.Plan{}, &ParseError{Reason: "locate object", Err: ErrNoJSONObject}
	}
	candidate := text[start : end+1]

	if err := validatePlanJSON(candidate); err != nil {
		return models.Plan{}, err
	}

	var p models.Plan
	if err := json.Unmarshal([]byte(candidate), &p); err != nil {
		return models.Plan{}, &ParseError{Reason: "decode", Err: err}
	}
	return p, nil
}
