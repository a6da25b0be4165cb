package service

import (
	"testing"
	"time"

	"github.com/filiprab/a2a-opa/internal/domain/a2a"
	"github.com/filiprab/a2a-opa/internal/domain/authz"
)

func testCall(agentID string) *a2a.CallContext {
	return &a2a.CallContext{
		RemoteAddr: "10.0.0.9:5000",
		UserAgent:  "test-agent/1.0",
		Headers:    map[string]string{"X-Agent-ID": agentID},
	}
}

func TestDirectoryResolver_HeaderThenMetadata(t *testing.T) {
	t.Parallel()

	r := DirectoryResolver{}

	info := r.ResolveAgent(&a2a.CallContext{Headers: map[string]string{"x-agent-id": "agent1"}})
	if info.AgentID != "agent1" {
		t.Errorf("header resolution: AgentID = %q", info.AgentID)
	}

	info = r.ResolveAgent(&a2a.CallContext{Metadata: map[string]any{"agent_id": "agent2"}})
	if info.AgentID != "agent2" {
		t.Errorf("metadata fallback: AgentID = %q", info.AgentID)
	}

	info = r.ResolveAgent(&a2a.CallContext{})
	if info.AgentID != "" {
		t.Errorf("no identity: AgentID = %q, want empty", info.AgentID)
	}
}

func TestDirectoryResolver_UpgradesKnownAgents(t *testing.T) {
	t.Parallel()

	dir := NewAgentDirectory()
	dir.Register(authz.AgentInfo{
		AgentID:        "agent1",
		Name:           "Analyst",
		Role:           "operator",
		ClearanceLevel: 3,
		Permissions:    []string{"handle_sensitive_data"},
	})
	r := DirectoryResolver{Directory: dir}

	info := r.ResolveAgent(testCall("agent1"))
	if info.Name != "Analyst" || info.ClearanceLevel != 3 {
		t.Errorf("known agent not upgraded: %+v", info)
	}

	info = r.ResolveAgent(testCall("stranger"))
	if info.AgentID != "stranger" || info.Name != "" {
		t.Errorf("unknown agent should be minimal: %+v", info)
	}
}

func TestExtract_MessageSend(t *testing.T) {
	t.Parallel()

	e := NewContextExtractor(DirectoryResolver{})
	e.now = func() time.Time { return time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC) }

	params := a2a.MessageSendParams{
		Message: a2a.Message{
			MessageID: "msg-1",
			TaskID:    "task-7",
			Parts:     []a2a.Part{a2a.TextPart{Text: "hello there"}},
		},
	}
	ac := e.Extract(a2a.MethodMessageSend, params, testCall("agent1"), map[string]any{"tenant": "acme"})

	if ac.Requester.AgentID != "agent1" {
		t.Errorf("Requester.AgentID = %q", ac.Requester.AgentID)
	}
	if ac.Resource != authz.ResourceMessage {
		t.Errorf("Resource = %q", ac.Resource)
	}
	if ac.Message == nil || ac.Message.MessageID != "msg-1" {
		t.Fatalf("Message = %+v", ac.Message)
	}
	if ac.Task == nil || ac.Task.TaskID != "task-7" {
		t.Errorf("message TaskID should seed the task info, got %+v", ac.Task)
	}
	if ac.Operation != a2a.MethodMessageSend {
		t.Errorf("Operation = %q", ac.Operation)
	}
	if ac.Data["tenant"] != "acme" {
		t.Errorf("additional data not merged: %v", ac.Data)
	}
	if ac.Request.Timestamp != time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC) {
		t.Errorf("Timestamp = %v", ac.Request.Timestamp)
	}
}

func TestExtract_TasksCancelOverridesOperation(t *testing.T) {
	t.Parallel()

	e := NewContextExtractor(DirectoryResolver{})
	ac := e.Extract(a2a.MethodTasksCancel, a2a.TaskIDParams{TaskID: "task-1"}, testCall("agent1"), nil)

	if ac.Operation != authz.OperationTaskCancel {
		t.Errorf("Operation = %q, want %q", ac.Operation, authz.OperationTaskCancel)
	}
	if ac.Resource != authz.ResourceTask {
		t.Errorf("Resource = %q", ac.Resource)
	}
	if ac.Task == nil || ac.Task.TaskID != "task-1" {
		t.Errorf("Task = %+v", ac.Task)
	}
}

func TestExtract_PushConfigOperations(t *testing.T) {
	t.Parallel()

	e := NewContextExtractor(DirectoryResolver{})

	cases := []struct {
		method string
		params any
	}{
		{a2a.MethodPushConfigSet, a2a.TaskPushConfig{TaskID: "task-1"}},
		{a2a.MethodPushConfigGet, a2a.GetTaskPushConfigParams{TaskID: "task-1"}},
		{a2a.MethodPushConfigList, a2a.ListTaskPushConfigParams{TaskID: "task-1"}},
		{a2a.MethodPushConfigDelete, a2a.DeleteTaskPushConfigParams{TaskID: "task-1", ConfigID: "cfg-1"}},
	}
	for _, tc := range cases {
		ac := e.Extract(tc.method, tc.params, testCall("agent1"), nil)
		if ac.Resource != authz.ResourcePushNotification {
			t.Errorf("%s: Resource = %q", tc.method, ac.Resource)
		}
		if ac.Task == nil || ac.Task.TaskID != "task-1" {
			t.Errorf("%s: Task = %+v", tc.method, ac.Task)
		}
	}
}

func TestExtract_MismatchedParamsSkipEnrichment(t *testing.T) {
	t.Parallel()

	e := NewContextExtractor(DirectoryResolver{})
	ac := e.Extract(a2a.MethodMessageSend, "not params", testCall("agent1"), nil)

	if ac.Message != nil {
		t.Errorf("Message = %+v, want nil for mismatched params", ac.Message)
	}
	if ac.Requester.AgentID != "agent1" {
		t.Error("requester resolution must still happen without enrichment")
	}
}

func TestClassifyMessage_Sensitivity(t *testing.T) {
	t.Parallel()

	e := NewContextExtractor(DirectoryResolver{})

	cases := []struct {
		name          string
		text          string
		wantSensitive bool
		wantClass     string
	}{
		{"public", "what is the weather", false, authz.ClassificationPublic},
		{"internal", "internal planning doc", false, authz.ClassificationInternal},
		{"sensitive lowercase", "my password is hunter2", true, authz.ClassificationConfidential},
		{"sensitive token", "here is the API_KEY value", true, authz.ClassificationConfidential},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			info := e.ClassifyMessage(a2a.Message{
				MessageID: "m",
				Parts:     []a2a.Part{a2a.TextPart{Text: tc.text}},
			})
			if info.ContainsSensitiveData != tc.wantSensitive {
				t.Errorf("ContainsSensitiveData = %v, want %v", info.ContainsSensitiveData, tc.wantSensitive)
			}
			if info.DataClassification != tc.wantClass {
				t.Errorf("DataClassification = %q, want %q", info.DataClassification, tc.wantClass)
			}
		})
	}
}

func TestClassifyMessage_MixedParts(t *testing.T) {
	t.Parallel()

	e := NewContextExtractor(DirectoryResolver{})
	info := e.ClassifyMessage(a2a.Message{
		MessageID: "m",
		Parts: []a2a.Part{
			a2a.TextPart{Text: "see attachment"},
			a2a.FilePart{Name: "notes.txt", MimeType: "text/plain"},
			a2a.DataPart{Data: map[string]any{"k": "v"}, MimeType: "application/json"},
		},
	})

	if info.Content != "see attachment" {
		t.Errorf("Content = %q, want text parts only", info.Content)
	}
	if len(info.Parts) != 3 {
		t.Fatalf("Parts length = %d, want 3", len(info.Parts))
	}
	if info.Parts[1].Filename != "notes.txt" {
		t.Errorf("file part descriptor = %+v", info.Parts[1])
	}
	if info.Parts[2].Payload != "<structured_data>" {
		t.Errorf("data part payload descriptor = %q", info.Parts[2].Payload)
	}
}

func TestClassifyMessage_EmptyMessageIsPublic(t *testing.T) {
	t.Parallel()

	e := NewContextExtractor(DirectoryResolver{})
	info := e.ClassifyMessage(a2a.Message{MessageID: "m"})
	if info.DataClassification != authz.ClassificationPublic {
		t.Errorf("DataClassification = %q, want public", info.DataClassification)
	}
	if info.ContainsSensitiveData {
		t.Error("empty message flagged sensitive")
	}
}

func TestExtract_CustomSensitiveTerms(t *testing.T) {
	t.Parallel()

	e := NewContextExtractor(DirectoryResolver{}, WithSensitiveTerms([]string{"PROJECT_X"}))
	info := e.ClassifyMessage(a2a.Message{
		MessageID: "m",
		Parts:     []a2a.Part{a2a.TextPart{Text: "status of project_x"}},
	})
	if !info.ContainsSensitiveData {
		t.Error("custom sensitive term not matched")
	}

	info = e.ClassifyMessage(a2a.Message{
		MessageID: "m",
		Parts:     []a2a.Part{a2a.TextPart{Text: "my password is hunter2"}},
	})
	if info.ContainsSensitiveData {
		t.Error("default terms should be replaced, not extended")
	}
}
