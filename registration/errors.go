package registration

import "fmt"

// ValidationError reports user input that failed a validator rule. It is
// recoverable: the flow re-prompts in the same state.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// PersistenceError wraps a store read or write failure. The user is shown a
// generic failure message and must resubmit; there is no automatic retry.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("registration store %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// ProtocolAnomaly marks durable data that does not match any known case.
// It is handled by a fail-safe restart of the flow and is never fatal.
type ProtocolAnomaly struct {
	Detail string
}

func (e *ProtocolAnomaly) Error() string { return e.Detail }
