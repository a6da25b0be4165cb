// Package cmd provides the CLI commands for a2a-opa.
package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/filiprab/a2a-opa/internal/adapter/outbound/opa"
	"github.com/filiprab/a2a-opa/internal/config"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "a2a-opa",
	Short: "a2a-opa - policy enforcement tooling for A2A agents",
	Long: `a2a-opa manages the OPA policies backing the A2A enforcement
middleware and checks engine health.

The middleware itself is a library embedded in agent servers and clients;
this binary covers the operational side: generating and pushing policy
bundles and verifying the decision engine is reachable.

Configuration:
  Config is loaded from a2a-opa.yaml in the current directory,
  $HOME/.a2a-opa/, or /etc/a2a-opa/.

  Environment variables can override config values with the A2A_OPA_ prefix.
  Example: A2A_OPA_ENGINE_URL=http://localhost:8181

Commands:
  policy      Generate or push the built-in policy bundle
  health      Check decision engine health
  version     Print version information`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./a2a-opa.yaml)")
}

func initConfig() {
	config.InitViper(cfgFile)
}

// engineClient builds an OPA client from the loaded configuration.
func engineClient(cfg *config.Config, logger *slog.Logger) (*opa.Client, error) {
	timeout, err := time.ParseDuration(cfg.Engine.Timeout)
	if err != nil {
		return nil, fmt.Errorf("parse engine timeout: %w", err)
	}
	opts := []opa.Option{
		opa.WithTimeout(timeout),
		opa.WithMaxRetries(cfg.Engine.MaxRetries),
		opa.WithLogger(logger),
	}
	if cfg.Engine.AuthToken != "" {
		opts = append(opts, opa.WithAuthToken(cfg.Engine.AuthToken))
	}
	if cfg.Engine.InsecureSkipVerify {
		opts = append(opts, opa.WithInsecureTLS())
	}
	if cfg.Engine.Metrics {
		opts = append(opts, opa.WithEngineMetrics())
	}
	if cfg.Engine.Trace {
		opts = append(opts, opa.WithEngineTrace())
	}
	return opa.NewClient(cfg.Engine.URL, opts...), nil
}

// newLogger builds a text logger at the configured level.
func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
