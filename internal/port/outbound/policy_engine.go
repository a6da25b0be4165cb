// Package outbound defines the outbound ports: the interfaces the
// application core needs from external collaborators.
package outbound

import (
	"context"

	"github.com/filiprab/a2a-opa/internal/domain/authz"
)

// PolicyEngine is the decision-engine contract the enforcement services
// depend on. The production implementation talks to an OPA server over HTTP;
// tests substitute stubs.
type PolicyEngine interface {
	// Evaluate evaluates the policy at the dotted policyPath against input.
	// An explicit deny is a successful evaluation (Allow=false), not an
	// error. Errors are *authz.EvaluationError, possibly wrapping an
	// *authz.ConnectionError when the engine was unreachable.
	Evaluate(ctx context.Context, policyPath string, input map[string]any) (*authz.Decision, error)

	// EvaluateBatch evaluates all queries concurrently and returns one
	// decision per query, in query order. Individual failures yield
	// synthesized deny decisions instead of aborting the batch.
	EvaluateBatch(ctx context.Context, queries []authz.Query) []*authz.Decision

	// QueryRule evaluates a single named rule under a package path and
	// reports whether the result was truthy.
	QueryRule(ctx context.Context, packagePath, ruleName string, input map[string]any) (bool, error)

	// HealthCheck reports whether the engine is reachable and healthy.
	HealthCheck(ctx context.Context) bool
}

// PolicyStore manages policy and data documents on the decision engine.
// Implementations swallow transport errors and report failure through the
// return value; only request processing errors are typed.
type PolicyStore interface {
	// UploadPolicy installs the policy module text at the given path.
	UploadPolicy(ctx context.Context, policyPath, content string) bool

	// DeletePolicy removes the policy module at the given path.
	DeletePolicy(ctx context.Context, policyPath string) bool

	// ListPolicies returns the paths of all installed policy modules.
	ListPolicies(ctx context.Context) []string

	// UploadData writes a JSON data document at the given path.
	UploadData(ctx context.Context, dataPath string, value any) bool
}
