package validation

import (
	"fmt"
	"strings"
)

// Issue describes a single failed field check.
type Issue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Issues accumulates field-level problems for one payload. It implements
// error so a non-empty set can flow through the normal error path and be
// translated into a VALIDATION_ERROR envelope.
type Issues struct {
	issues []Issue
}

func New() *Issues {
	return &Issues{}
}

func (e *Issues) Error() string {
	if len(e.issues) == 0 {
		return "validation failed"
	}
	fields := make([]string, 0, len(e.issues))
	for _, issue := range e.issues {
		fields = append(fields, issue.Field)
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(fields, ", "))
}

// Add records an issue for the given field path.
func (e *Issues) Add(field, message string) {
	e.issues = append(e.issues, Issue{Field: field, Message: message})
}

// Require flags empty string values.
func (e *Issues) Require(field, value string) {
	if strings.TrimSpace(value) == "" {
		e.Add(field, "required")
	}
}

// OneOf flags values outside the allowed set; empty values are left to Require.
func (e *Issues) OneOf(field, value string, allowed ...string) {
	if strings.TrimSpace(value) == "" {
		return
	}
	for _, candidate := range allowed {
		if value == candidate {
			return
		}
	}
	e.Add(field, fmt.Sprintf("must be one of: %s", strings.Join(allowed, ", ")))
}

// Positive flags zero or negative numbers.
func (e *Issues) Positive(field string, value int64) {
	if value <= 0 {
		e.Add(field, "must be positive")
	}
}

// MaxLen flags over-long values.
func (e *Issues) MaxLen(field, value string, max int) {
	if len(value) > max {
		e.Add(field, fmt.Sprintf("must be at most %d characters", max))
	}
}

// MinLen flags under-length values; empty values are left to Require.
func (e *Issues) MinLen(field, value string, min int) {
	if value != "" && len(value) < min {
		e.Add(field, fmt.Sprintf("must be at least %d characters", min))
	}
}

// Empty reports whether no issues were recorded.
func (e *Issues) Empty() bool {
	return len(e.issues) == 0
}

// List returns recorded issues in insertion order.
func (e *Issues) List() []Issue {
	return e.issues
}

// Err returns the set as an error, or nil when all checks passed.
func (e *Issues) Err() error {
	if e.Empty() {
		return nil
	}
	return e
}
