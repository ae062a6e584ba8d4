// Package jsonparse provides lenient JSON helpers for device responses.
//
// Printer firmware and cloud endpoints are inconsistent about payload
// shape, so parsing here never panics on malformed input: callers get a
// boolean verdict and work with whatever fields were present.
package jsonparse

import (
	"encoding/json"
	"fmt"
)

// Read parses body as a JSON object and returns its top-level fields.
//
// ok is false when the body is not valid JSON or not an object. A nil
// fields map is never returned when ok is true.
func Read(body []byte) (fields map[string]any, ok bool) {
	if len(body) == 0 {
		return nil, false
	}

	var parsed map[string]any
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, false
	}
	if parsed == nil {
		parsed = map[string]any{}
	}
	return parsed, true
}

// GetValue extracts a single top-level field from a JSON object body,
// rendered as a string. Non-string scalars are formatted with %v.
//
// The second return is false when the body is not a JSON object or the
// key is absent.
func GetValue(body []byte, key string) (string, bool) {
	fields, ok := Read(body)
	if !ok {
		return "", false
	}

	value, present := fields[key]
	if !present {
		return "", false
	}

	if s, isString := value.(string); isString {
		return s, true
	}
	return fmt.Sprintf("%v", value), true
}

// Validate reports whether body parses as a JSON object that does not
// carry a top-level "error" field. This is the minimal success check the
// cloud service offers for management responses.
func Validate(body []byte) bool {
	fields, ok := Read(body)
	if !ok {
		return false
	}
	_, hasError := fields["error"]
	return !hasError
}
