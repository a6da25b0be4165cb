package config

import (
	"strings"
	"testing"
)

// minimalValidConfig returns a minimal valid Config for testing.
func minimalValidConfig() *Config {
	return &Config{
		Engine: EngineConfig{URL: "http://localhost:8181", Timeout: "10s"},
	}
}

func TestValidate_ValidConfig(t *testing.T) {
	t.Parallel()

	cfg := minimalValidConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() unexpected error: %v", err)
	}
}

func TestValidate_MissingEngineURL(t *testing.T) {
	t.Parallel()

	cfg := minimalValidConfig()
	cfg.Engine.URL = ""
	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() expected error for missing engine URL")
	}
	if !strings.Contains(err.Error(), "Engine.URL") {
		t.Errorf("error %q does not name the field", err)
	}
}

func TestValidate_BadEngineURL(t *testing.T) {
	t.Parallel()

	cfg := minimalValidConfig()
	cfg.Engine.URL = "not a url"
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() expected error for malformed engine URL")
	}
}

func TestValidate_BadTimeout(t *testing.T) {
	t.Parallel()

	cfg := minimalValidConfig()
	cfg.Engine.Timeout = "soon"
	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() expected error for unparseable timeout")
	}
	if !strings.Contains(err.Error(), "engine.timeout") {
		t.Errorf("error %q does not name the field", err)
	}
}

func TestValidate_RouteOverrides(t *testing.T) {
	t.Parallel()

	cfg := minimalValidConfig()
	cfg.Routes = map[string]string{"message/send": "org.custom_messages"}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() with valid route override: %v", err)
	}

	cfg.Routes = map[string]string{"message/send": "not/a/policy/path"}
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() expected error for malformed policy path")
	}
}

func TestValidate_BadLogLevel(t *testing.T) {
	t.Parallel()

	cfg := minimalValidConfig()
	cfg.LogLevel = "loud"
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() expected error for unknown log level")
	}
}

func TestSetDefaults(t *testing.T) {
	cfg := &Config{Engine: EngineConfig{URL: "http://localhost:8181"}}
	cfg.SetDefaults()

	if cfg.Engine.Timeout != "10s" {
		t.Errorf("Engine.Timeout = %q", cfg.Engine.Timeout)
	}
	if cfg.Engine.MaxRetries != 3 {
		t.Errorf("Engine.MaxRetries = %d", cfg.Engine.MaxRetries)
	}
	if cfg.Client.PackagePath != "a2a.client" {
		t.Errorf("Client.PackagePath = %q", cfg.Client.PackagePath)
	}
	if cfg.Client.RuleName != "agent_card_discovery_allow" {
		t.Errorf("Client.RuleName = %q", cfg.Client.RuleName)
	}
	if !cfg.Client.FailClosed {
		t.Error("Client.FailClosed should default to true")
	}
	if cfg.Enforcement.FailOpen {
		t.Error("Enforcement.FailOpen should default to false")
	}
	if cfg.Audit.Dir != "./audit" {
		t.Errorf("Audit.Dir = %q", cfg.Audit.Dir)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q", cfg.LogLevel)
	}
}
