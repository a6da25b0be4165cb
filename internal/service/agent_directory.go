// Package service contains the application services: context extraction,
// enforcement, and policy bundle loading.
package service

import (
	"fmt"
	"os"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/filiprab/a2a-opa/internal/domain/authz"
)

// AgentDirectory holds the known agents and their registered identity
// details. The context extractor consults it to upgrade a bare agent ID
// into a full AgentInfo. It is safe for concurrent use.
type AgentDirectory struct {
	mu     sync.RWMutex
	agents map[string]authz.AgentInfo
}

// NewAgentDirectory creates an empty AgentDirectory.
func NewAgentDirectory() *AgentDirectory {
	return &AgentDirectory{agents: make(map[string]authz.AgentInfo)}
}

// Register adds or replaces an agent entry. The entry's AgentID is the key.
func (d *AgentDirectory) Register(info authz.AgentInfo) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.agents[info.AgentID] = info
}

// Unregister removes an agent entry.
func (d *AgentDirectory) Unregister(agentID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.agents, agentID)
}

// Get returns the registered info for an agent ID.
func (d *AgentDirectory) Get(agentID string) (authz.AgentInfo, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	info, ok := d.agents[agentID]
	return info, ok
}

// List returns all registered agents sorted by agent ID.
func (d *AgentDirectory) List() []authz.AgentInfo {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]authz.AgentInfo, 0, len(d.agents))
	for _, info := range d.agents {
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AgentID < out[j].AgentID })
	return out
}

// directoryEntry is the YAML form of a directory entry; the agent ID is the
// map key in the file.
type directoryEntry struct {
	Name           string         `yaml:"name"`
	Capabilities   []string       `yaml:"capabilities"`
	Permissions    []string       `yaml:"permissions"`
	Role           string         `yaml:"role"`
	ClearanceLevel int            `yaml:"clearance_level"`
	Metadata       map[string]any `yaml:"metadata"`
}

// LoadAgentDirectory reads a YAML file mapping agent IDs to their identity
// details and returns a populated directory.
func LoadAgentDirectory(path string) (*AgentDirectory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read agent directory: %w", err)
	}
	var entries map[string]directoryEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse agent directory: %w", err)
	}

	d := NewAgentDirectory()
	for id, e := range entries {
		d.Register(authz.AgentInfo{
			AgentID:        id,
			Name:           e.Name,
			Capabilities:   e.Capabilities,
			Permissions:    e.Permissions,
			Role:           e.Role,
			ClearanceLevel: e.ClearanceLevel,
			Metadata:       e.Metadata,
		})
	}
	return d, nil
}
