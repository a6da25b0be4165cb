package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/filiprab/a2a-opa/internal/config"
	"github.com/filiprab/a2a-opa/internal/domain/policy"
	"github.com/filiprab/a2a-opa/internal/service"
)

var (
	policyOutDir   string
	policySkipData bool
	policyPushData bool
)

var policyCmd = &cobra.Command{
	Use:   "policy",
	Short: "Generate or push the built-in policy bundle",
}

var policyGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Write the built-in Rego templates to a directory",
	Long: `Write the built-in Rego policy templates to a directory as a bundle
an OPA server can load with --bundle or opa run.

A data.json with sample agent data is included unless --no-data is given.
The sample data is a starting point; replace it with your agent inventory.

Example:
  a2a-opa policy generate --out ./policies
  opa run --server --bundle ./policies`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := policy.WriteBundle(policyOutDir, !policySkipData); err != nil {
			return err
		}
		fmt.Printf("Policy bundle written to %s\n", policyOutDir)
		return nil
	},
}

var policyPushCmd = &cobra.Command{
	Use:   "push",
	Short: "Upload the built-in templates to the configured engine",
	Long: `Upload every built-in policy template to the OPA server configured
in engine.url, via the policy management API.

With --data the sample data document is uploaded as well. Individual
upload failures are reported but do not abort the push.

Example:
  a2a-opa policy push --data`,
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

		loader := service.NewPolicyLoader(client, logger)
		errs := loader.PushTemplates(cmd.Context())
		if policyPushData {
			if err := loader.PushSampleData(cmd.Context()); err != nil {
				errs = append(errs, err)
			}
		}
		if len(errs) > 0 {
			for _, e := range errs {
				fmt.Fprintln(cmd.ErrOrStderr(), e)
			}
			return fmt.Errorf("%d upload(s) failed", len(errs))
		}
		fmt.Println("Policy bundle pushed")
		return nil
	},
}

func init() {
	policyGenerateCmd.Flags().StringVar(&policyOutDir, "out", "./policies", "output directory for the bundle")
	policyGenerateCmd.Flags().BoolVar(&policySkipData, "no-data", false, "skip writing sample data.json")
	policyPushCmd.Flags().BoolVar(&policyPushData, "data", false, "also upload the sample data document")

	policyCmd.AddCommand(policyGenerateCmd)
	policyCmd.AddCommand(policyPushCmd)
	rootCmd.AddCommand(policyCmd)
}
