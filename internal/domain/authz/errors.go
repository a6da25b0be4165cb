package authz

import (
	"fmt"
	"strings"
)

// ConnectionError reports that the decision engine could not be reached
// after exhausting all retry attempts. It is fatal to the call that raised
// it; callers must not retry further up the stack.
type ConnectionError struct {
	// URL is the engine endpoint that could not be reached.
	URL string
	// Err is the last underlying transport error.
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("policy engine unreachable at %s: %v", e.URL, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// EvaluationError reports that a policy evaluation failed: the engine
// responded with an error status, the response could not be parsed, or the
// transport gave out. Whether the call proceeds is decided by the
// enforcement layer's fail-open configuration.
type EvaluationError struct {
	// PolicyPath is the dotted policy identifier that was evaluated.
	PolicyPath string
	// Input is the policy input that was sent, kept for diagnostics.
	Input map[string]any
	// EngineError is the underlying engine or transport error text.
	EngineError string
	// Err is the underlying error, if any.
	Err error
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("policy evaluation failed for %s: %s", e.PolicyPath, e.EngineError)
}

func (e *EvaluationError) Unwrap() error { return e.Err }

// ViolationError is the terminal, caller-visible denial: the engine
// explicitly denied the operation, or evaluation failed under a fail-closed
// policy. It is the only error type that crosses the enforcement boundary.
type ViolationError struct {
	// PolicyPath is the policy that produced the denial.
	PolicyPath string
	// Violations are the denial reasons, never empty after normalization.
	Violations []string
	// Decision is the raw engine decision, empty on fail-closed denials.
	Decision map[string]any
	// Context is the serialized authorization context, for audit.
	Context map[string]any
	// Err is the chained cause when the denial stems from an evaluation
	// failure rather than an explicit deny.
	Err error
}

func (e *ViolationError) Error() string {
	return fmt.Sprintf("request denied by policy %s: %s", e.PolicyPath, strings.Join(e.Violations, ", "))
}

func (e *ViolationError) Unwrap() error { return e.Err }

// LoadError reports a policy bundle upload or management failure. It is
// reported but never fatal to request processing.
type LoadError struct {
	// PolicyPath is the policy being loaded.
	PolicyPath string
	// Err is the underlying failure.
	Err error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("policy load failed for %s: %v", e.PolicyPath, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }
