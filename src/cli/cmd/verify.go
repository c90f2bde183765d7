package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Prepare deployment: dependency reports and artifact checksums",
	Long: `Run the deployment preparation stage on its own.

Generates the Gradle dependency reports, then scans the packaged artifacts
and computes their SHA-256 checksums. Run it after a successful build.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := validateConfig(cfg); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if _, err := newOrchestrator(cmd.OutOrStdout()).PrepareDeployment(ctx); err != nil {
			return errBuildFailed
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}
