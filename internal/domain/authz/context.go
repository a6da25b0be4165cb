// Package authz contains the domain types for policy-based authorization of
// protocol operations: the per-call authorization context sent to the
// decision engine, the decision it returns, the operation-to-policy route
// map, and the error taxonomy of the enforcement pipeline.
package authz

import (
	"time"
)

// Data classification levels for message content.
const (
	ClassificationPublic       = "public"
	ClassificationInternal     = "internal"
	ClassificationConfidential = "confidential"
)

// Resource type identifiers attached to the authorization context.
const (
	ResourceMessage          = "message"
	ResourceTask             = "task"
	ResourcePushNotification = "push_notification"
)

// OperationTaskCancel is the semantic operation recorded for tasks/cancel,
// distinct from the wire method name.
const OperationTaskCancel = "task_cancel"

// AgentInfo describes a calling or target agent: its identity, what it may
// do, and how far it is cleared.
type AgentInfo struct {
	AgentID        string         `json:"agent_id"`
	Name           string         `json:"name"`
	Capabilities   []string       `json:"capabilities"`
	Permissions    []string       `json:"permissions"`
	Role           string         `json:"role"`
	ClearanceLevel int            `json:"clearance_level"`
	Metadata       map[string]any `json:"metadata"`
}

// HasPermission reports whether the agent holds the named permission.
func (a AgentInfo) HasPermission(perm string) bool {
	for _, p := range a.Permissions {
		if p == perm {
			return true
		}
	}
	return false
}

// PartInfo is the policy-facing descriptor of a message part.
type PartInfo struct {
	// Kind is the part variant: "text", "file", or "data".
	Kind string `json:"kind"`
	// Content is the text content for text parts.
	Content string `json:"content,omitempty"`
	// Filename is the file name for file parts.
	Filename string `json:"filename,omitempty"`
	// MimeType is the declared media type for file and data parts.
	MimeType string `json:"mime_type,omitempty"`
	// Payload is a descriptor of non-text payloads, never the payload itself.
	Payload string `json:"payload,omitempty"`
}

// MessageInfo is the classified view of a message used in policy input.
type MessageInfo struct {
	MessageID             string         `json:"message_id"`
	Content               string         `json:"content"`
	Parts                 []PartInfo     `json:"parts"`
	Metadata              map[string]any `json:"metadata"`
	ContainsSensitiveData bool           `json:"contains_sensitive_data"`
	DataClassification    string         `json:"data_classification"`
}

// TaskInfo is the policy-facing view of a task.
type TaskInfo struct {
	TaskID    string         `json:"task_id"`
	Status    string         `json:"status"`
	CreatedAt time.Time      `json:"created_at,omitzero"`
	UpdatedAt time.Time      `json:"updated_at,omitzero"`
	Metadata  map[string]any `json:"metadata"`
}

// RequestInfo captures transport-level request details.
type RequestInfo struct {
	Method     string            `json:"method"`
	Timestamp  time.Time         `json:"timestamp"`
	RemoteAddr string            `json:"remote_addr"`
	UserAgent  string            `json:"user_agent"`
	Headers    map[string]string `json:"headers"`
}

// Context is the immutable per-call authorization input snapshot assembled
// by the context extractor and sent to the decision engine.
type Context struct {
	Requester AgentInfo    `json:"requester"`
	Target    AgentInfo    `json:"target"`
	Message   *MessageInfo `json:"message"`
	Task      *TaskInfo    `json:"task"`
	Request   RequestInfo  `json:"request"`
	// Operation is the semantic action, which may differ from the wire
	// method (e.g. "task_cancel" for tasks/cancel).
	Operation string `json:"operation"`
	// Resource classifies the resource type the operation touches.
	Resource string `json:"resource"`
	// Data holds caller-supplied context for policies.
	Data map[string]any `json:"data"`
	// Environment holds static deployment context for policies.
	Environment map[string]any `json:"environment"`
}

// ToPolicyInput projects the context into the JSON-shaped input map the
// decision engine evaluates. The projection is pure: no I/O, no mutation of
// the context.
func (c *Context) ToPolicyInput() map[string]any {
	input := map[string]any{
		"requester":   agentInput(c.Requester),
		"target":      agentInput(c.Target),
		"message":     nil,
		"task":        nil,
		"request":     requestInput(c.Request),
		"operation":   c.Operation,
		"resource":    c.Resource,
		"data":        emptyMap(c.Data),
		"environment": emptyMap(c.Environment),
	}
	if c.Message != nil {
		input["message"] = messageInput(*c.Message)
	}
	if c.Task != nil {
		input["task"] = taskInput(*c.Task)
	}
	return input
}

func agentInput(a AgentInfo) map[string]any {
	return map[string]any{
		"agent_id":        a.AgentID,
		"name":            a.Name,
		"capabilities":    emptyList(a.Capabilities),
		"permissions":     emptyList(a.Permissions),
		"role":            a.Role,
		"clearance_level": a.ClearanceLevel,
		"metadata":        emptyMap(a.Metadata),
	}
}

func messageInput(m MessageInfo) map[string]any {
	parts := make([]map[string]any, 0, len(m.Parts))
	for _, p := range m.Parts {
		part := map[string]any{"kind": p.Kind}
		if p.Content != "" {
			part["content"] = p.Content
		}
		if p.Filename != "" {
			part["filename"] = p.Filename
		}
		if p.MimeType != "" {
			part["mime_type"] = p.MimeType
		}
		if p.Payload != "" {
			part["payload"] = p.Payload
		}
		parts = append(parts, part)
	}
	return map[string]any{
		"message_id":              m.MessageID,
		"content":                 m.Content,
		"parts":                   parts,
		"metadata":                emptyMap(m.Metadata),
		"contains_sensitive_data": m.ContainsSensitiveData,
		"data_classification":     m.DataClassification,
	}
}

func taskInput(t TaskInfo) map[string]any {
	input := map[string]any{
		"task_id":  t.TaskID,
		"status":   t.Status,
		"metadata": emptyMap(t.Metadata),
	}
	if !t.CreatedAt.IsZero() {
		input["created_at"] = t.CreatedAt.UTC().Format(time.RFC3339Nano)
	}
	if !t.UpdatedAt.IsZero() {
		input["updated_at"] = t.UpdatedAt.UTC().Format(time.RFC3339Nano)
	}
	return input
}

func requestInput(r RequestInfo) map[string]any {
	headers := make(map[string]any, len(r.Headers))
	for k, v := range r.Headers {
		headers[k] = v
	}
	return map[string]any{
		"method":      r.Method,
		"timestamp":   r.Timestamp.UTC().Format(time.RFC3339Nano),
		"remote_addr": r.RemoteAddr,
		"user_agent":  r.UserAgent,
		"headers":     headers,
	}
}

// emptyMap returns m, or a fresh empty map when m is nil, so policy input
// never contains JSON null where an object is expected.
func emptyMap(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}

func emptyList(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
