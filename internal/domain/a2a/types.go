// Package a2a contains the Agent-to-Agent protocol domain types the
// enforcement layer operates on: messages with their part variants, tasks,
// push notification configs, and the per-operation parameter structs.
package a2a

import (
	"time"
)

// Wire method names for the protocol operations intercepted by the
// enforcement layer.
const (
	MethodMessageSend       = "message/send"
	MethodMessageStream     = "message/stream"
	MethodTasksGet          = "tasks/get"
	MethodTasksCancel       = "tasks/cancel"
	MethodTasksResubscribe  = "tasks/resubscribe"
	MethodPushConfigSet     = "tasks/pushNotificationConfig/set"
	MethodPushConfigGet     = "tasks/pushNotificationConfig/get"
	MethodPushConfigList    = "tasks/pushNotificationConfig/list"
	MethodPushConfigDelete  = "tasks/pushNotificationConfig/delete"
	MethodAgentCard         = "agent/card"
	MethodAgentCapabilities = "agent/capabilities"
)

// TaskState represents the lifecycle state of a task.
type TaskState string

const (
	TaskStateSubmitted TaskState = "submitted"
	TaskStateWorking   TaskState = "working"
	TaskStateCompleted TaskState = "completed"
	TaskStateCanceled  TaskState = "canceled"
	TaskStateFailed    TaskState = "failed"
)

// TaskStatus is the current status of a task.
type TaskStatus struct {
	State     TaskState `json:"state"`
	Timestamp time.Time `json:"timestamp,omitzero"`
}

// Task represents a unit of work tracked by an agent.
type Task struct {
	ID        string         `json:"id"`
	ContextID string         `json:"contextId,omitempty"`
	Status    TaskStatus     `json:"status"`
	Artifacts []Artifact     `json:"artifacts,omitempty"`
	CreatedAt time.Time      `json:"createdAt,omitzero"`
	UpdatedAt time.Time      `json:"updatedAt,omitzero"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// Artifact is an output produced by a task.
type Artifact struct {
	ArtifactID string `json:"artifactId"`
	Name       string `json:"name,omitempty"`
	Parts      []Part `json:"parts,omitempty"`
}

// Message is a single protocol message composed of ordered parts.
type Message struct {
	MessageID string         `json:"messageId"`
	Role      string         `json:"role,omitempty"`
	Parts     []Part         `json:"parts"`
	TaskID    string         `json:"taskId,omitempty"`
	ContextID string         `json:"contextId,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// AgentCapabilities describes optional protocol features of an agent.
type AgentCapabilities struct {
	Streaming         bool `json:"streaming,omitempty"`
	PushNotifications bool `json:"pushNotifications,omitempty"`
}

// AgentCard is the public descriptor of an agent. Only the fields the
// enforcement layer reads are modeled here.
type AgentCard struct {
	Name         string            `json:"name"`
	Description  string            `json:"description,omitempty"`
	URL          string            `json:"url"`
	Version      string            `json:"version,omitempty"`
	Capabilities AgentCapabilities `json:"capabilities"`
}

// PushConfig describes a push notification endpoint for task updates.
type PushConfig struct {
	ID    string `json:"id,omitempty"`
	URL   string `json:"url"`
	Token string `json:"token,omitempty"`
}

// TaskPushConfig associates a push notification config with a task.
type TaskPushConfig struct {
	TaskID string     `json:"taskId"`
	Config PushConfig `json:"pushNotificationConfig"`
}

// MessageSendParams are the parameters for message/send and message/stream.
type MessageSendParams struct {
	Message  Message        `json:"message"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// TaskQueryParams are the parameters for tasks/get.
type TaskQueryParams struct {
	TaskID        string `json:"id"`
	HistoryLength int    `json:"historyLength,omitempty"`
}

// TaskIDParams are the parameters for operations addressing a task by ID
// (tasks/cancel, tasks/resubscribe).
type TaskIDParams struct {
	TaskID string `json:"id"`
}

// GetTaskPushConfigParams are the parameters for pushNotificationConfig/get.
type GetTaskPushConfigParams struct {
	TaskID   string `json:"id"`
	ConfigID string `json:"pushNotificationConfigId,omitempty"`
}

// ListTaskPushConfigParams are the parameters for pushNotificationConfig/list.
type ListTaskPushConfigParams struct {
	TaskID string `json:"id"`
}

// DeleteTaskPushConfigParams are the parameters for pushNotificationConfig/delete.
type DeleteTaskPushConfigParams struct {
	TaskID   string `json:"id"`
	ConfigID string `json:"pushNotificationConfigId"`
}

// SendResult is the outcome of message/send: the responding agent returns
// either a task or a direct message, never both.
type SendResult struct {
	Task    *Task    `json:"task,omitempty"`
	Message *Message `json:"message,omitempty"`
}

// Empty reports whether the result carries neither a task nor a message.
func (r *SendResult) Empty() bool {
	return r == nil || (r.Task == nil && r.Message == nil)
}
