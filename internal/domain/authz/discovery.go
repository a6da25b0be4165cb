package authz

import (
	"net/url"
	"strings"
	"time"
)

// DiscoverySourceClient marks discovery contexts originating from the
// client-side interceptor.
const DiscoverySourceClient = "client"

// DiscoveryContext is the authorization input for an outbound discovery
// call, built on the client side before the wire request is sent. It is
// derived purely from the call's method name and target URL; construction
// performs no network access.
type DiscoveryContext struct {
	ClientIdentity string
	ClientMetadata map[string]any

	TargetAgentURL    string
	TargetAgentDomain string
	TargetAgentPath   string

	// OperationType is the coarse operation group, inferred from the method
	// name prefix when not given explicitly.
	OperationType string
	MethodName    string

	DiscoveryTimestamp time.Time
	DiscoverySource    string

	RequestHeaders  map[string]string
	RequestMetadata map[string]any
}

// NewDiscoveryContext builds a DiscoveryContext from client call details.
// The target domain and path come from parsing targetAgentURL; a URL that
// fails to parse yields empty domain and path rather than an error, since
// the policy decides what to do with an unparseable target.
func NewDiscoveryContext(clientIdentity, targetAgentURL, methodName string) *DiscoveryContext {
	var domain, path string
	if u, err := url.Parse(targetAgentURL); err == nil {
		domain = u.Host
		path = u.Path
	}

	operationType := methodName
	if idx := strings.Index(methodName, "/"); idx >= 0 {
		operationType = methodName[:idx]
	}

	return &DiscoveryContext{
		ClientIdentity:     clientIdentity,
		ClientMetadata:     map[string]any{},
		TargetAgentURL:     targetAgentURL,
		TargetAgentDomain:  domain,
		TargetAgentPath:    path,
		OperationType:      operationType,
		MethodName:         methodName,
		DiscoveryTimestamp: time.Now().UTC(),
		DiscoverySource:    DiscoverySourceClient,
		RequestHeaders:     map[string]string{},
		RequestMetadata:    map[string]any{},
	}
}

// ToPolicyInput projects the discovery context into the input map evaluated
// by the client-side discovery rule.
func (c *DiscoveryContext) ToPolicyInput() map[string]any {
	headers := make(map[string]any, len(c.RequestHeaders))
	for k, v := range c.RequestHeaders {
		headers[k] = v
	}
	return map[string]any{
		"client": map[string]any{
			"identity": c.ClientIdentity,
			"metadata": emptyMap(c.ClientMetadata),
		},
		"target_agent": map[string]any{
			"url":    c.TargetAgentURL,
			"domain": c.TargetAgentDomain,
			"path":   c.TargetAgentPath,
		},
		"request": map[string]any{
			"operation_type": c.OperationType,
			"method_name":    c.MethodName,
			"headers":        headers,
			"metadata":       emptyMap(c.RequestMetadata),
		},
		"discovery": map[string]any{
			"timestamp": c.DiscoveryTimestamp.UTC().Format(time.RFC3339Nano),
			"source":    c.DiscoverySource,
		},
	}
}
