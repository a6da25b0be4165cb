// Package audit contains domain types for policy decision audit logging.
package audit

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/cespare/xxhash/v2"
)

// Decision constants for audit records.
const (
	// DecisionAllow indicates the operation was permitted.
	DecisionAllow = "allow"
	// DecisionDeny indicates the operation was blocked.
	DecisionDeny = "deny"
	// DecisionError indicates evaluation failed and fail-open let the
	// operation proceed.
	DecisionError = "error"
)

// Record is one audit entry for a policy decision.
type Record struct {
	// Timestamp is when the decision was made (UTC).
	Timestamp time.Time `json:"timestamp"`
	// Operation is the semantic operation that was authorized.
	Operation string `json:"operation"`
	// Method is the wire method name of the call.
	Method string `json:"method"`
	// Decision is the outcome: allow, deny, or error.
	Decision string `json:"decision"`
	// PolicyPath is the policy that produced the decision.
	PolicyPath string `json:"policy_path"`
	// RequesterID identifies the requesting agent, empty when unknown.
	RequesterID string `json:"requester_id"`
	// DecisionID correlates the record with the engine's decision log.
	DecisionID string `json:"decision_id,omitempty"`
	// Violations are the denial reasons, empty on allow.
	Violations []string `json:"violations,omitempty"`
	// InputDigest fingerprints the policy input for correlation without
	// storing the input itself.
	InputDigest string `json:"input_digest,omitempty"`
	// LatencyMs is the evaluation latency in milliseconds.
	LatencyMs int64 `json:"latency_ms"`
}

// InputDigest computes a stable fingerprint of a policy input map.
// JSON marshaling keys maps in sorted order, so equal inputs hash equally.
func InputDigest(input map[string]any) string {
	data, err := json.Marshal(input)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("%016x", xxhash.Sum64(data))
}
