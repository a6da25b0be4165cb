// Package policy holds the Rego policy templates shipped with the
// middleware and the bundle writer that materializes them on disk for an
// engine to load.
package policy

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const messageAuthorizationTemplate = `package a2a.message_authorization

import rego.v1

# Default deny
default allow := false

# Default violations list
default violations := []

# Allow messages between trusted agents
allow if {
    input.requester.agent_id in data.trusted_agents
    input.target.agent_id in data.trusted_agents
}

# Allow public messages from authenticated agents
allow if {
    input.requester.agent_id != ""
    input.message.data_classification == "public"
}

# Allow internal messages with proper clearance
allow if {
    input.requester.clearance_level >= 2
    input.message.data_classification in ["public", "internal"]
}

# Block messages containing sensitive data unless authorized
violations contains "Message contains sensitive data" if {
    input.message.contains_sensitive_data
    not input.requester.permissions[_] == "handle_sensitive_data"
}

# Block large messages unless authorized
violations contains "Message too large" if {
    count(input.message.content) > 10000
    not input.requester.permissions[_] == "send_large_messages"
}

# Block messages during maintenance windows
violations contains "System in maintenance mode" if {
    data.system.maintenance_mode == true
    not input.requester.role == "admin"
}
`

const taskAccessTemplate = `package a2a.task_access

import rego.v1

default allow := false

# Allow access to own tasks
allow if {
    input.task.task_id != ""
    input.requester.agent_id == data.task_owners[input.task.task_id]
}

# Allow administrators to access all tasks
allow if {
    input.requester.role == "admin"
}

# Allow access to public tasks
allow if {
    input.task.task_id in data.public_tasks
}

# Allow agents with task_viewer permission
allow if {
    input.requester.permissions[_] == "view_all_tasks"
}
`

const taskModificationTemplate = `package a2a.task_modification

import rego.v1

default allow := false

# Allow modification of own tasks
allow if {
    input.task.task_id != ""
    input.requester.agent_id == data.task_owners[input.task.task_id]
}

# Allow administrators to modify all tasks
allow if {
    input.requester.role == "admin"
}

# Allow agents with task modification permission
allow if {
    input.requester.permissions[_] == "modify_all_tasks"
}

# Block modification of completed tasks unless admin
allow if {
    input.task.status != "completed"
    input.requester.agent_id == data.task_owners[input.task.task_id]
}
`

const agentDiscoveryTemplate = `package a2a.agent_discovery

import rego.v1

default allow := false

# Allow authenticated agents to discover public agents
allow if {
    input.requester.agent_id != ""
    input.target.agent_id in data.public_agents
}

# Allow discovery within same organization
allow if {
    input.requester.agent_id != ""
    requester_org := data.agent_organizations[input.requester.agent_id]
    target_org := data.agent_organizations[input.target.agent_id]
    requester_org == target_org
}

# Allow administrators to discover all agents
allow if {
    input.requester.role == "admin"
}
`

const capabilityAccessTemplate = `package a2a.capability_access

import rego.v1

default allow := false

# Allow access to public capabilities
allow if {
    input.resource in data.public_capabilities
}

# Allow access based on agent permissions
allow if {
    required_permission := data.capability_permissions[input.resource]
    input.requester.permissions[_] == required_permission
}

# Allow access based on clearance level
allow if {
    required_clearance := data.capability_clearance[input.resource]
    input.requester.clearance_level >= required_clearance
}
`

const notificationManagementTemplate = `package a2a.notification_management

import rego.v1

default allow := false

# Allow managing notifications for own tasks
allow if {
    input.task.task_id != ""
    input.requester.agent_id == data.task_owners[input.task.task_id]
}

# Allow administrators to manage all notifications
allow if {
    input.requester.role == "admin"
}

# Allow agents with notification management permission
allow if {
    input.requester.permissions[_] == "manage_notifications"
}
`

const notificationAccessTemplate = `package a2a.notification_access

import rego.v1

default allow := false

# Allow viewing notifications for own tasks
allow if {
    input.task.task_id != ""
    input.requester.agent_id == data.task_owners[input.task.task_id]
}

# Allow administrators to view all notifications
allow if {
    input.requester.role == "admin"
}

# Allow agents with notification viewing permission
allow if {
    input.requester.permissions[_] == "view_notifications"
}
`

const defaultAuthorizationTemplate = `package a2a.default_authorization

import rego.v1

# Default deny - be explicit about authorization
default allow := false

# Only allow if explicitly authorized
allow if {
    input.requester.agent_id in data.authorized_agents
    input.operation in data.allowed_operations[input.requester.agent_id]
}

# Allow administrators for all operations
allow if {
    input.requester.role == "admin"
}
`

const clientDiscoveryTemplate = `package a2a.client

import rego.v1

default agent_card_discovery_allow := false

# Allow discovery of known target domains
agent_card_discovery_allow if {
    input.target_agent.domain in data.allowed_agent_domains
}

# Allow identified clients to reach public agents
agent_card_discovery_allow if {
    input.client.identity != ""
    input.target_agent.domain in data.public_agent_domains
}
`

// Templates returns the built-in Rego templates keyed by policy name. The
// key is the file stem used when writing a bundle.
func Templates() map[string]string {
	return map[string]string{
		"message_authorization":   messageAuthorizationTemplate,
		"task_access":             taskAccessTemplate,
		"task_modification":       taskModificationTemplate,
		"agent_discovery":         agentDiscoveryTemplate,
		"capability_access":       capabilityAccessTemplate,
		"notification_management": notificationManagementTemplate,
		"notification_access":     notificationAccessTemplate,
		"default_authorization":   defaultAuthorizationTemplate,
		"client_discovery":        clientDiscoveryTemplate,
	}
}

// SampleData returns the example data document referenced by the built-in
// templates. Operators replace it with their own agent inventory.
func SampleData() map[string]any {
	return map[string]any{
		"trusted_agents":    []string{"agent1", "agent2", "admin_agent"},
		"public_agents":     []string{"public_agent", "info_agent"},
		"authorized_agents": []string{"agent1", "agent2", "admin_agent"},
		"agent_organizations": map[string]string{
			"agent1":         "org1",
			"agent2":         "org1",
			"external_agent": "org2",
		},
		"task_owners": map[string]string{
			"task123": "agent1",
			"task456": "agent2",
		},
		"public_tasks":        []string{"public_task1"},
		"public_capabilities": []string{"calculator", "weather"},
		"capability_permissions": map[string]string{
			"file_access":     "read_files",
			"database_access": "db_read",
		},
		"capability_clearance": map[string]int{
			"sensitive_data":  3,
			"classified_info": 5,
		},
		"allowed_operations": map[string][]string{
			"agent1": {"message/send", "tasks/get"},
			"agent2": {"message/send", "message/stream", "tasks/get"},
		},
		"allowed_agent_domains": []string{"agents.example.com"},
		"public_agent_domains":  []string{"public.example.com"},
		"system": map[string]any{
			"maintenance_mode": false,
		},
	}
}

// WriteBundle writes every template as a .rego file under dir, creating the
// directory if needed. When includeData is true a data.json with the sample
// data document is written alongside the policies.
func WriteBundle(dir string, includeData bool) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create bundle directory: %w", err)
	}
	for name, content := range Templates() {
		path := filepath.Join(dir, name+".rego")
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return fmt.Errorf("write policy %s: %w", name, err)
		}
	}
	if includeData {
		raw, err := json.MarshalIndent(SampleData(), "", "  ")
		if err != nil {
			return fmt.Errorf("encode sample data: %w", err)
		}
		if err := os.WriteFile(filepath.Join(dir, "data.json"), raw, 0o644); err != nil {
			return fmt.Errorf("write sample data: %w", err)
		}
	}
	return nil
}
