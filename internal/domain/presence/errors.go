package presence

import "fmt"

// InvariantViolation reports a toggle or interval sequence that broke the
// alternation and ordering rules. It is always fatal.
type InvariantViolation struct {
	Op     string
	Detail string
}

func (e *InvariantViolation) Error() string {
	return fmt.Sprintf("%s: invariant violation: %s", e.Op, e.Detail)
}

// InvalidInputError reports input that cannot be analysed at all, such as a
// video without frames.
type InvalidInputError struct {
	Field  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid input: %s %s", e.Field, e.Reason)
}

// CollaboratorError wraps a failure of the sampler, the oracle or the encoder.
// Second is -1 when the failing stage is not tied to a sampled second.
type CollaboratorError struct {
	Stage  string
	Second int
	Err    error
}

func (e *CollaboratorError) Error() string {
	if e.Second < 0 {
		return fmt.Sprintf("%s: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("%s at second %d: %v", e.Stage, e.Second, e.Err)
}

func (e *CollaboratorError) Unwrap() error { return e.Err }

func violation(op, format string, args ...any) error {
	return &InvariantViolation{Op: op, Detail: fmt.Sprintf(format, args...)}
}
