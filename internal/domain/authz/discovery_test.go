package authz

import (
	"testing"
)

func TestNewDiscoveryContext_ParsesTargetURL(t *testing.T) {
	t.Parallel()

	dc := NewDiscoveryContext("client-1", "https://agents.example.com/assistant/v1", "message/send")
	if dc.TargetAgentDomain != "agents.example.com" {
		t.Errorf("TargetAgentDomain = %q", dc.TargetAgentDomain)
	}
	if dc.TargetAgentPath != "/assistant/v1" {
		t.Errorf("TargetAgentPath = %q", dc.TargetAgentPath)
	}
	if dc.OperationType != "message" {
		t.Errorf("OperationType = %q, want message", dc.OperationType)
	}
	if dc.DiscoverySource != DiscoverySourceClient {
		t.Errorf("DiscoverySource = %q", dc.DiscoverySource)
	}
}

func TestNewDiscoveryContext_UnparseableURL(t *testing.T) {
	t.Parallel()

	dc := NewDiscoveryContext("client-1", "://not a url", "tasks/get")
	if dc.TargetAgentDomain != "" || dc.TargetAgentPath != "" {
		t.Errorf("unparseable URL should yield empty domain/path, got %q/%q",
			dc.TargetAgentDomain, dc.TargetAgentPath)
	}
	if dc.TargetAgentURL != "://not a url" {
		t.Errorf("raw URL should be preserved, got %q", dc.TargetAgentURL)
	}
}

func TestNewDiscoveryContext_MethodWithoutSlash(t *testing.T) {
	t.Parallel()

	dc := NewDiscoveryContext("client-1", "https://a.example.com", "ping")
	if dc.OperationType != "ping" {
		t.Errorf("OperationType = %q, want full method when no slash", dc.OperationType)
	}
}

func TestDiscoveryContext_ToPolicyInput(t *testing.T) {
	t.Parallel()

	dc := NewDiscoveryContext("client-1", "https://agents.example.com/x", "message/send")
	dc.ClientMetadata["client_version"] = "1.2.0"
	dc.RequestHeaders["Accept"] = "application/json"
	dc.RequestMetadata["request_id"] = "req-9"

	input := dc.ToPolicyInput()

	client, _ := input["client"].(map[string]any)
	if client["identity"] != "client-1" {
		t.Errorf("client.identity = %v", client["identity"])
	}
	meta, _ := client["metadata"].(map[string]any)
	if meta["client_version"] != "1.2.0" {
		t.Errorf("client.metadata = %v", meta)
	}

	target, _ := input["target_agent"].(map[string]any)
	if target["domain"] != "agents.example.com" {
		t.Errorf("target_agent.domain = %v", target["domain"])
	}

	req, _ := input["request"].(map[string]any)
	if req["operation_type"] != "message" || req["method_name"] != "message/send" {
		t.Errorf("request = %v", req)
	}
	headers, _ := req["headers"].(map[string]any)
	if headers["Accept"] != "application/json" {
		t.Errorf("request.headers = %v", headers)
	}

	discovery, _ := input["discovery"].(map[string]any)
	if discovery["source"] != DiscoverySourceClient {
		t.Errorf("discovery.source = %v", discovery["source"])
	}
}
