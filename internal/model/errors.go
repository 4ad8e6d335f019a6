package model

import "fmt"

// ValidationError reports an out-of-range or malformed scalar input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

// InvariantViolation reports a series mutation that was rejected because it
// would break spacing, sum or order rules. The series is left unchanged.
type InvariantViolation struct {
	Op     string
	Step   int
	Reason string
}

func (e *InvariantViolation) Error() string {
	return fmt.Sprintf("%s at step %d rejected: %s", e.Op, e.Step, e.Reason)
}

// TransportError reports a failed call to the simulation service.
type TransportError struct {
	StatusCode int
	Code       string
	Message    string
	RetryAfter string // For rate limit errors
	Err        error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
