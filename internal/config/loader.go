// Package config provides configuration loading for the a2a-opa middleware.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// InitViper initializes Viper with the configuration file and environment
// variables. If configFile is empty, standard locations are searched for
// a2a-opa.yaml/.yml. The search requires an explicit YAML extension so the
// binary itself is never matched.
func InitViper(configFile string) {
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else if found := findConfigFile(); found != "" {
		viper.SetConfigFile(found)
	} else {
		// No config file in any standard location. Set name/type without
		// search paths so ReadInConfig returns ConfigFileNotFoundError,
		// which callers handle gracefully.
		viper.SetConfigName("a2a-opa")
		viper.SetConfigType("yaml")
	}

	// Environment variable support: A2A_OPA_ENGINE_URL
	viper.SetEnvPrefix("A2A_OPA")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	bindNestedEnvKeys()
}

// findConfigFile searches standard locations for an a2a-opa config file
// with an explicit YAML extension (.yaml or .yml).
func findConfigFile() string {
	home, _ := os.UserHomeDir()
	paths := []string{
		".",
		filepath.Join(home, ".a2a-opa"),
		"/etc/a2a-opa",
	}
	for _, dir := range paths {
		for _, ext := range []string{".yaml", ".yml"} {
			path := filepath.Join(dir, "a2a-opa"+ext)
			if _, err := os.Stat(path); err == nil {
				return path
			}
		}
	}
	return ""
}

// bindNestedEnvKeys binds all config keys for environment variable support.
// Example: A2A_OPA_ENGINE_URL overrides engine.url
func bindNestedEnvKeys() {
	_ = viper.BindEnv("engine.url")
	_ = viper.BindEnv("engine.timeout")
	_ = viper.BindEnv("engine.max_retries")
	_ = viper.BindEnv("engine.auth_token")
	_ = viper.BindEnv("engine.insecure_skip_verify")
	_ = viper.BindEnv("engine.metrics")
	_ = viper.BindEnv("engine.trace")

	_ = viper.BindEnv("enforcement.fail_open")
	_ = viper.BindEnv("enforcement.audit_decisions")

	_ = viper.BindEnv("client.identity")
	_ = viper.BindEnv("client.package_path")
	_ = viper.BindEnv("client.rule_name")
	_ = viper.BindEnv("client.fail_closed")

	_ = viper.BindEnv("audit.enabled")
	_ = viper.BindEnv("audit.dir")

	_ = viper.BindEnv("agents.registry")

	// Note: routes is a map, complex to override via env.
	// Users should use the config file for route overrides.

	_ = viper.BindEnv("environment")
	_ = viper.BindEnv("log_level")
}

// LoadConfig reads the configuration file, applies environment overrides,
// sets defaults, validates, and returns the Config.
func LoadConfig() (*Config, error) {
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found - continue with env vars only.
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.SetDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// ConfigFileUsed returns the path to the configuration file that was loaded.
// Returns an empty string if no config file was found (env vars only mode).
func ConfigFileUsed() string {
	return viper.ConfigFileUsed()
}
