// Package config provides the configuration schema for the a2a-opa
// middleware. Configuration is file-based (YAML) with environment variable
// overrides; there is no remote configuration source.
package config

import (
	"github.com/spf13/viper"
)

// Config is the top-level configuration for the a2a-opa middleware.
type Config struct {
	// Engine configures the connection to the OPA decision engine.
	Engine EngineConfig `yaml:"engine" mapstructure:"engine"`

	// Enforcement configures the server-side enforcement behavior.
	Enforcement EnforcementConfig `yaml:"enforcement" mapstructure:"enforcement"`

	// Client configures the client-side discovery interceptor.
	Client ClientConfig `yaml:"client" mapstructure:"client"`

	// Audit configures file-based decision audit persistence.
	Audit AuditConfig `yaml:"audit" mapstructure:"audit"`

	// Agents configures the agent registry used for context enrichment.
	Agents AgentsConfig `yaml:"agents" mapstructure:"agents"`

	// Routes maps protocol method names to policy paths, overriding the
	// built-in defaults. Methods not listed keep their default path.
	Routes map[string]string `yaml:"routes" mapstructure:"routes" validate:"omitempty,dive,policy_path"`

	// Environment is the deployment environment reported in policy input
	// (e.g. "production", "staging").
	Environment string `yaml:"environment" mapstructure:"environment"`

	// LogLevel sets the minimum log level.
	// Valid values: "debug", "info", "warn", "error".
	// Defaults to "info" if empty.
	LogLevel string `yaml:"log_level" mapstructure:"log_level" validate:"omitempty,oneof=debug info warn warning error"`
}

// EngineConfig configures the OPA HTTP client.
type EngineConfig struct {
	// URL is the base URL of the OPA server (e.g., "http://localhost:8181").
	URL string `yaml:"url" mapstructure:"url" validate:"required,url"`

	// Timeout is the per-request HTTP timeout (e.g., "10s").
	// Defaults to "10s" if not specified.
	Timeout string `yaml:"timeout" mapstructure:"timeout" validate:"omitempty"`

	// MaxRetries is the number of retries after the initial attempt for
	// transport failures. Defaults to 3.
	MaxRetries int `yaml:"max_retries" mapstructure:"max_retries" validate:"omitempty,min=0,max=10"`

	// AuthToken is an optional bearer token sent with every engine request.
	AuthToken string `yaml:"auth_token" mapstructure:"auth_token"`

	// InsecureSkipVerify disables TLS certificate verification.
	// Only for development against self-signed engines.
	InsecureSkipVerify bool `yaml:"insecure_skip_verify" mapstructure:"insecure_skip_verify"`

	// Metrics requests engine-side evaluation metrics with each decision.
	Metrics bool `yaml:"metrics" mapstructure:"metrics"`

	// Trace requests engine-side evaluation traces with each decision.
	// Expensive; development use only.
	Trace bool `yaml:"trace" mapstructure:"trace"`
}

// EnforcementConfig configures server-side request enforcement.
type EnforcementConfig struct {
	// FailOpen allows requests through when policy evaluation fails.
	// Default: false (evaluation failures deny the request).
	FailOpen bool `yaml:"fail_open" mapstructure:"fail_open"`

	// AuditDecisions enables decision audit recording.
	AuditDecisions bool `yaml:"audit_decisions" mapstructure:"audit_decisions"`
}

// ClientConfig configures the client-side discovery interceptor.
type ClientConfig struct {
	// Identity is the identity string this client presents in discovery
	// policy input.
	Identity string `yaml:"identity" mapstructure:"identity"`

	// PackagePath is the policy package evaluated before outbound calls.
	// Defaults to "a2a.client".
	PackagePath string `yaml:"package_path" mapstructure:"package_path" validate:"omitempty,policy_path"`

	// RuleName is the rule queried within PackagePath.
	// Defaults to "agent_card_discovery_allow".
	RuleName string `yaml:"rule_name" mapstructure:"rule_name"`

	// FailClosed denies outbound calls when discovery evaluation fails.
	// Default: true.
	FailClosed bool `yaml:"fail_closed" mapstructure:"fail_closed"`
}

// AuditConfig configures file-based decision audit output.
type AuditConfig struct {
	// Enabled turns file audit on or off.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`

	// Dir is the directory where daily audit files are written.
	// Defaults to "./audit".
	Dir string `yaml:"dir" mapstructure:"dir"`
}

// AgentsConfig configures the agent registry.
type AgentsConfig struct {
	// Registry is the path to a YAML file describing known agents.
	// Optional: without it requesters are identified by ID only.
	Registry string `yaml:"registry" mapstructure:"registry"`
}

// SetDefaults applies sensible default values to the configuration.
func (c *Config) SetDefaults() {
	if c.Engine.Timeout == "" {
		c.Engine.Timeout = "10s"
	}
	if c.Engine.MaxRetries == 0 && !viper.IsSet("engine.max_retries") {
		c.Engine.MaxRetries = 3
	}

	if c.Client.PackagePath == "" {
		c.Client.PackagePath = "a2a.client"
	}
	if c.Client.RuleName == "" {
		c.Client.RuleName = "agent_card_discovery_allow"
	}
	// Fail-closed by default for the client interceptor. viper.IsSet
	// distinguishes "not set" (zero value) from "explicitly false".
	if !viper.IsSet("client.fail_closed") {
		c.Client.FailClosed = true
	}

	if c.Audit.Dir == "" {
		c.Audit.Dir = "./audit"
	}

	if c.Environment == "" {
		c.Environment = "production"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}
