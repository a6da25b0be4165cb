package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/filiprab/a2a-opa/internal/config"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check decision engine health",
	Long: `Check whether the OPA server configured in engine.url is reachable
and healthy. Exits non-zero when the engine is down.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return err
		}
		logger := newLogger(cfg.LogLevel)
		client, err := engineClient(cfg, logger)
		if err != nil {
			return err
		}

		if !client.HealthCheck(cmd.Context()) {
			return fmt.Errorf("engine at %s is not healthy", cfg.Engine.URL)
		}
		fmt.Printf("Engine at %s is healthy\n", cfg.Engine.URL)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)
}
