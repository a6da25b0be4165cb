// Package client provides the client-side enforcement interceptor: it
// evaluates a discovery policy before an outbound protocol call is put on
// the wire.
package client

import (
	"context"
	"log/slog"

	"github.com/filiprab/a2a-opa/internal/domain/a2a"
	"github.com/filiprab/a2a-opa/internal/domain/authz"
	"github.com/filiprab/a2a-opa/internal/port/outbound"
)

// Default policy location for the client-side discovery rule.
const (
	DefaultPackagePath = "a2a.client"
	DefaultRuleName    = "agent_card_discovery_allow"
)

// Call-context state keys written by the interceptor after an allow.
const (
	// StateKeyPolicyEvaluated marks the call as having passed the
	// discovery policy check.
	StateKeyPolicyEvaluated = "policy_evaluated"
	// StateKeyDiscoveryContext holds the serialized discovery context for
	// downstream use.
	StateKeyDiscoveryContext = "discovery_context"
	// StateKeyTargetAgentURL is the fallback source of the target URL when
	// no agent card has been resolved yet.
	StateKeyTargetAgentURL = "target_agent_url"
)

// clientMetadataKeys are the call-state keys forwarded as client metadata.
// Anything else in the state stays private to the client.
var clientMetadataKeys = []string{"client_version", "client_type", "environment"}

// requestParamKeys are the message parameter keys forwarded as request
// metadata.
var requestParamKeys = []string{"priority", "timeout", "streaming"}

// CallContext carries mutable per-call state across client middleware.
type CallContext struct {
	State map[string]any
}

// NewCallContext creates an empty call context.
func NewCallContext() *CallContext {
	return &CallContext{State: map[string]any{}}
}

// Request is an outbound protocol call as seen by the interceptor, before
// the wire request is built.
type Request struct {
	// Method is the protocol method name.
	Method string
	// Payload is the JSON-RPC request payload.
	Payload map[string]any
	// Headers are the transport headers that will be sent.
	Headers map[string]string
	// AgentCard is the resolved target agent descriptor, when available.
	AgentCard *a2a.AgentCard
	// Call is the per-call middleware state.
	Call *CallContext
}

// DiscoveryInterceptor enforces the agent discovery policy on outbound
// calls. A denial raises a *authz.ViolationError before any network request
// to the target agent is made.
type DiscoveryInterceptor struct {
	engine         outbound.PolicyEngine
	clientIdentity string
	packagePath    string
	ruleName       string
	failClosed     bool
	logger         *slog.Logger
}

// InterceptorOption is a functional option for configuring
// DiscoveryInterceptor.
type InterceptorOption func(*DiscoveryInterceptor)

// WithPolicyRule overrides the policy package path and rule name.
func WithPolicyRule(packagePath, ruleName string) InterceptorOption {
	return func(i *DiscoveryInterceptor) {
		i.packagePath = packagePath
		i.ruleName = ruleName
	}
}

// WithFailOpen allows the call through when policy evaluation fails. The
// default is fail-closed.
func WithFailOpen() InterceptorOption {
	return func(i *DiscoveryInterceptor) { i.failClosed = false }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) InterceptorOption {
	return func(i *DiscoveryInterceptor) { i.logger = logger }
}

// NewDiscoveryInterceptor creates an interceptor evaluating the discovery
// rule as the given client identity.
func NewDiscoveryInterceptor(engine outbound.PolicyEngine, clientIdentity string, opts ...InterceptorOption) *DiscoveryInterceptor {
	i := &DiscoveryInterceptor{
		engine:         engine,
		clientIdentity: clientIdentity,
		packagePath:    DefaultPackagePath,
		ruleName:       DefaultRuleName,
		failClosed:     true,
	}
	for _, opt := range opts {
		opt(i)
	}
	if i.logger == nil {
		i.logger = slog.Default()
	}
	return i
}

// Intercept evaluates the discovery policy for req. On allow it annotates
// the call state and returns nil with the payload untouched; on deny it
// returns a *authz.ViolationError. A call without a determinable target URL
// is allowed through with a warning: there is nothing to evaluate against.
func (i *DiscoveryInterceptor) Intercept(ctx context.Context, req *Request) error {
	targetURL := i.targetURL(req)
	if targetURL == "" {
		i.logger.Warn("no target agent URL found, skipping discovery policy check",
			"method", req.Method)
		return nil
	}

	dc := authz.NewDiscoveryContext(i.clientIdentity, targetURL, req.Method)
	dc.ClientMetadata = i.clientMetadata(req.Call)
	dc.RequestMetadata = requestMetadata(req.Payload)
	for k, v := range req.Headers {
		dc.RequestHeaders[k] = v
	}

	input := dc.ToPolicyInput()
	allowed, err := i.engine.QueryRule(ctx, i.packagePath, i.ruleName, input)
	if err != nil {
		if i.failClosed {
			i.logger.Error("discovery policy evaluation failed, denying",
				"method", req.Method,
				"target", targetURL,
				"error", err)
			return err
		}
		i.logger.Warn("discovery policy evaluation failed, allowing",
			"method", req.Method,
			"target", targetURL,
			"error", err)
		allowed = true
	}

	i.logger.Info("discovery policy decision",
		"client", i.clientIdentity,
		"target", targetURL,
		"method", req.Method,
		"allowed", allowed)

	if !allowed {
		return &authz.ViolationError{
			PolicyPath: i.packagePath + "." + i.ruleName,
			Violations: []string{"agent discovery denied by policy for " + targetURL},
			Decision:   map[string]any{"allowed": false},
			Context:    input,
		}
	}

	if req.Call != nil {
		req.Call.State[StateKeyPolicyEvaluated] = true
		req.Call.State[StateKeyDiscoveryContext] = input
	}
	return nil
}

// targetURL determines the target agent URL: a resolved agent card wins,
// then prior call-context state, then nothing.
func (i *DiscoveryInterceptor) targetURL(req *Request) string {
	if req.AgentCard != nil && req.AgentCard.URL != "" {
		return req.AgentCard.URL
	}
	if req.Call != nil {
		if u, ok := req.Call.State[StateKeyTargetAgentURL].(string); ok {
			return u
		}
	}
	return ""
}

// clientMetadata extracts the whitelisted client metadata keys from the
// call state.
func (i *DiscoveryInterceptor) clientMetadata(call *CallContext) map[string]any {
	metadata := map[string]any{}
	if call == nil {
		return metadata
	}
	for _, key := range clientMetadataKeys {
		if v, ok := call.State[key]; ok {
			metadata[key] = v
		}
	}
	return metadata
}

// requestMetadata extracts the request ID and the recognized message
// parameter keys from the request payload.
func requestMetadata(payload map[string]any) map[string]any {
	metadata := map[string]any{}
	if payload == nil {
		return metadata
	}
	if id, ok := payload["id"]; ok {
		metadata["request_id"] = id
	}
	if params, ok := payload["params"].(map[string]any); ok {
		for _, key := range requestParamKeys {
			if v, ok := params[key]; ok {
				metadata[key] = v
			}
		}
	}
	return metadata
}
