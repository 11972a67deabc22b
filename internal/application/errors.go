package application

import "fmt"

// SkipError means a file was left in place without any mutation. Stage names
// the step that gave up (extract, analyze).
type SkipError struct {
	Stage  string
	Reason string
	Err    error
}

func (e *SkipError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Stage, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Stage, e.Reason)
}

func (e *SkipError) Unwrap() error { return e.Err }

// Skip builds a SkipError.
func Skip(stage, reason string, err error) *SkipError {
	return &SkipError{Stage: stage, Reason: reason, Err: err}
}
