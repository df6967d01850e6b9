package triage

import (
	"errors"
	"fmt"
)

// ErrEmptyResponse reports that the model returned no usable content for a
// stage. Branch stages substitute a default Incomplete result; the
// classification stage surfaces it because routing cannot proceed without
// a label.
var ErrEmptyResponse = errors.New("triage: empty model response")

// SchemaValidationError reports a model response that does not conform to
// the stage's expected record shape. It is surfaced to the caller rather
// than coerced into a default.
type SchemaValidationError struct {
	Stage  string
	Reason string
}

func (e *SchemaValidationError) Error() string {
	return fmt.Sprintf("triage: %s: schema validation failed: %s", e.Stage, e.Reason)
}

func schemaErr(stage, format string, args ...any) error {
	return &SchemaValidationError{Stage: stage, Reason: fmt.Sprintf(format, args...)}
}
