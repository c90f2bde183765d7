package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/supernova/pipboy-build/src/build"
	"github.com/supernova/pipboy-build/src/config"
	"github.com/supernova/pipboy-build/src/output"
	"github.com/supernova/pipboy-build/src/pipeline"
)

var (
	runType      string
	runNoWear    bool
	runNoDynamic bool
	runNoTests   bool
	runNoShrink  bool
	runUniversal bool
	runDryRun    bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the build pipeline",
	Long: `Run the build stages in order: validation, dependency check, static
analysis, compilation, testing and packaging.

The first failing stage aborts the run. A successful run writes the JSON
build report to the project root.`,
	RunE: runPipeline,
}

func init() {
	runCmd.Flags().StringVar(&runType, "type", string(config.VariantDebug), "build type: debug, release or benchmark")
	runCmd.Flags().BoolVar(&runNoWear, "no-wear", false, "disable the Wear OS module")
	runCmd.Flags().BoolVar(&runNoDynamic, "no-dynamic", false, "disable dynamic feature modules")
	runCmd.Flags().BoolVar(&runNoTests, "no-tests", false, "skip the testing stage")
	runCmd.Flags().BoolVar(&runNoShrink, "no-shrink", false, "disable code shrinking")
	runCmd.Flags().BoolVar(&runUniversal, "universal", false, "also build the app bundle")
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "show the stage plan without executing")

	rootCmd.AddCommand(runCmd)
}

// applyRunFlags overlays explicitly set flags on the loaded settings.
// Flags win over the config file and the environment.
func applyRunFlags(cmd *cobra.Command, s *config.BuildSettings) error {
	f := cmd.Flags()
	if f.Changed("type") {
		v, err := config.ParseVariant(runType)
		if err != nil {
			return err
		}
		s.Variant = v
	}
	if f.Changed("no-wear") {
		s.Wear = !runNoWear
	}
	if f.Changed("no-dynamic") {
		s.DynamicFeatures = !runNoDynamic
	}
	if f.Changed("no-tests") {
		s.Tests = !runNoTests
	}
	if f.Changed("no-shrink") {
		s.Shrink = !runNoShrink
	}
	if f.Changed("universal") {
		s.UniversalArtifact = runUniversal
	}
	return nil
}

func runPipeline(cmd *cobra.Command, args []string) error {
	if err := applyRunFlags(cmd, &cfg.Build); err != nil {
		return err
	}
	if err := validateConfig(cfg); err != nil {
		return err
	}

	orch := newOrchestrator(cmd.OutOrStdout())

	if runDryRun {
		printPlan(cmd.OutOrStdout(), orch)
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !orch.Execute(ctx) {
		return errBuildFailed
	}
	return nil
}

func newOrchestrator(w io.Writer) *pipeline.Orchestrator {
	runner := &build.ExecRunner{}
	if verbose {
		runner.Stderr = os.Stderr
	}
	return pipeline.New(cfg.BuildConfig(projectRoot), pipeline.Options{
		Runner:   runner,
		Settings: cfg,
		Out:      w,
		Color:    output.UseColor(),
		Logger:   logger,
	})
}

func printPlan(w io.Writer, orch *pipeline.Orchestrator) {
	color := output.UseColor()
	bc := orch.Config()
	output.ContextBlock(w, []output.KV{
		{Key: "Variant", Value: string(bc.Variant)},
		{Key: "Root", Value: bc.ProjectRoot},
	})
	for _, p := range orch.Plan() {
		sec := output.NewSection(w, p.ID.Title(), 0, color)
		if !p.Enabled {
			output.RowStatus(sec, "status", "disabled for this build", "skipped", color)
		}
		for _, step := range p.Steps {
			sec.Row("%s", step)
		}
		sec.Close()
	}
	fmt.Fprintln(w)
}
