package service

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/filiprab/a2a-opa/internal/domain/authz"
)

func TestAgentDirectory_RegisterGetUnregister(t *testing.T) {
	t.Parallel()

	d := NewAgentDirectory()
	d.Register(authz.AgentInfo{AgentID: "agent1", Role: "operator"})

	info, ok := d.Get("agent1")
	if !ok || info.Role != "operator" {
		t.Errorf("Get(agent1) = %+v, %v", info, ok)
	}

	d.Unregister("agent1")
	if _, ok := d.Get("agent1"); ok {
		t.Error("Get after Unregister should miss")
	}
}

func TestAgentDirectory_ListSorted(t *testing.T) {
	t.Parallel()

	d := NewAgentDirectory()
	d.Register(authz.AgentInfo{AgentID: "zeta"})
	d.Register(authz.AgentInfo{AgentID: "alpha"})
	d.Register(authz.AgentInfo{AgentID: "mid"})

	list := d.List()
	if len(list) != 3 {
		t.Fatalf("List() length = %d", len(list))
	}
	if list[0].AgentID != "alpha" || list[2].AgentID != "zeta" {
		t.Errorf("List() not sorted: %v", list)
	}
}

func TestLoadAgentDirectory(t *testing.T) {
	t.Parallel()

	content := `
agent1:
  name: Analyst
  role: operator
  clearance_level: 3
  permissions:
    - handle_sensitive_data
  capabilities:
    - summarize
agent2:
  name: Archivist
  role: viewer
`
	path := filepath.Join(t.TempDir(), "agents.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	d, err := LoadAgentDirectory(path)
	if err != nil {
		t.Fatalf("LoadAgentDirectory() unexpected error: %v", err)
	}

	info, ok := d.Get("agent1")
	if !ok {
		t.Fatal("agent1 missing from loaded directory")
	}
	if info.Name != "Analyst" || info.ClearanceLevel != 3 {
		t.Errorf("agent1 = %+v", info)
	}
	if !info.HasPermission("handle_sensitive_data") {
		t.Error("agent1 permissions not loaded")
	}
	if _, ok := d.Get("agent2"); !ok {
		t.Error("agent2 missing from loaded directory")
	}
}

func TestLoadAgentDirectory_MissingFile(t *testing.T) {
	t.Parallel()

	if _, err := LoadAgentDirectory(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadAgentDirectory_MalformedYAML(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "agents.yaml")
	if err := os.WriteFile(path, []byte("{not yaml"), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	if _, err := LoadAgentDirectory(path); err == nil {
		t.Error("expected error for malformed YAML")
	}
}
