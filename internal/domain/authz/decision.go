package authz

// Decision is the outcome of one policy evaluation by the decision engine.
type Decision struct {
	// Allow is true when the engine permitted the operation.
	Allow bool `json:"allow"`
	// DecisionID uniquely identifies this evaluation for audit correlation.
	DecisionID string `json:"decision_id,omitempty"`
	// Result is the full raw engine response body.
	Result map[string]any `json:"result"`
	// Violations are the human-readable denial reasons from the engine,
	// in the order the engine returned them.
	Violations []string `json:"violations"`
	// Metadata carries evaluation details: policy path, engine metrics,
	// and the evaluation trace when requested.
	Metadata map[string]any `json:"metadata"`
}

// Query pairs a policy path with its evaluation input, for batch evaluation.
type Query struct {
	PolicyPath string
	Input      map[string]any
}

// DenyDecision builds a synthetic deny carrying the given reasons. Used when
// an evaluation in a batch fails and a decision must stand in for it.
func DenyDecision(reasons ...string) *Decision {
	return &Decision{
		Allow:      false,
		Result:     map[string]any{},
		Violations: reasons,
		Metadata:   map[string]any{},
	}
}
