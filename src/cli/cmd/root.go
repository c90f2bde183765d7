package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/supernova/pipboy-build/src/config"
	"github.com/supernova/pipboy-build/src/logging"
)

var (
	cfgFile     string
	projectRoot string
	verbose     bool
	cfg         *config.Config
	logger      = zap.NewNop()
)

// errBuildFailed is returned after a failed run has been rendered.
var errBuildFailed = errors.New("build failed")

var rootCmd = &cobra.Command{
	Use:   "pipboy-build",
	Short: "Android build orchestrator",
	Long:  "pipboy-build drives the Pip-Boy Gradle build through validation, analysis, compilation, testing and packaging.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger = logging.New(verbose, os.Stderr)

		// Skip config loading for commands that don't need it.
		if cmd.Name() == "version" {
			return nil
		}
		var err error
		cfg, err = config.Load(cfgFile, projectRoot, os.Environ())
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: <project-root>/"+config.DefaultConfigFile+")")
	rootCmd.PersistentFlags().StringVar(&projectRoot, "project-root", ".", "Android project root directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// validateConfig checks the effective configuration and logs warnings.
func validateConfig(c *config.Config) error {
	warnings, err := config.Validate(c)
	for _, w := range warnings {
		logger.Warn(w)
	}
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// Execute runs the root command.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	return nil
}
