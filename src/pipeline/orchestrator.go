package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/supernova/pipboy-build/src/artifact"
	"github.com/supernova/pipboy-build/src/badge"
	"github.com/supernova/pipboy-build/src/build"
	"github.com/supernova/pipboy-build/src/config"
	"github.com/supernova/pipboy-build/src/gitver"
	"github.com/supernova/pipboy-build/src/output"
	"github.com/supernova/pipboy-build/src/report"
	"github.com/supernova/pipboy-build/src/version"
)

// stderrTail is how many trailing stderr lines a failed stage shows.
const stderrTail = 20

// Options carries the collaborators of an Orchestrator.
type Options struct {
	Runner   build.Runner   // defaults to build.ExecRunner
	Settings *config.Config // tool settings; defaults to config.Defaults()
	Out      io.Writer      // operator output; defaults to os.Stdout
	Color    bool
	Logger   *zap.Logger
}

// Orchestrator walks the stage table for one build configuration.
type Orchestrator struct {
	cfg      config.BuildConfig
	settings *config.Config
	gradle   *build.Gradle
	out      io.Writer
	color    bool
	log      *zap.Logger

	stages    []Stage
	identity  *gitver.Identity
	artifacts artifact.Summary
	results   []StageResult
	current   *StageResult
}

// Result is the outcome of a run.
type Result struct {
	Config     config.BuildConfig
	Stages     []StageResult
	Total      time.Duration
	Artifacts  artifact.Summary
	Report     *report.BuildReport
	ReportPath string // empty when no report was written
	Err        error
}

// Succeeded reports whether every executed stage passed.
func (r *Result) Succeeded() bool { return r.Err == nil }

// New creates an orchestrator. cfg is copied and never modified.
func New(cfg config.BuildConfig, opts Options) *Orchestrator {
	settings := opts.Settings
	if settings == nil {
		settings = config.Defaults()
	}
	runner := opts.Runner
	if runner == nil {
		runner = &build.ExecRunner{}
	}
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	o := &Orchestrator{
		cfg:      cfg,
		settings: settings,
		out:      out,
		color:    opts.Color,
		log:      log,
		gradle: &build.Gradle{
			Runner:         runner,
			Dir:            cfg.ProjectRoot,
			Wrapper:        settings.Gradle.Wrapper,
			TaskTimeout:    settings.Gradle.TaskTimeout,
			CommandTimeout: settings.Gradle.CommandTimeout,
			Logger:         log,
		},
	}

	o.stages = []Stage{
		{ID: Validation, Enabled: always, Run: o.validate},
		{ID: DependencyCheck, Enabled: always, Run: o.checkDependencies},
		{ID: StaticAnalysis, Enabled: always, Run: o.analyze},
		{ID: Compilation, Enabled: always, Run: o.compile},
		{ID: Testing, Enabled: func(c config.BuildConfig) bool { return c.Toggles.Tests }, Run: o.test},
		{ID: Packaging, Enabled: always, Run: o.pack},
	}
	return o
}

// Config returns the build configuration of this orchestrator.
func (o *Orchestrator) Config() config.BuildConfig { return o.cfg }

// Stages returns the mandatory stage table in execution order.
func (o *Orchestrator) Stages() []Stage {
	return append([]Stage(nil), o.stages...)
}

// Execute runs the pipeline and reports success. Failures have already
// been rendered to the operator when it returns false.
func (o *Orchestrator) Execute(ctx context.Context) bool {
	_, err := o.Run(ctx)
	return err == nil
}

// Run executes every enabled stage in order and stops at the first
// failure. On success the build report is written.
func (o *Orchestrator) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	o.reset()
	o.header("Pip-Boy Build Pipeline")

	var runErr error
	for _, st := range o.stages {
		if !st.Enabled(o.cfg) {
			o.skip(st.ID)
			continue
		}
		if err := o.runStage(ctx, st); err != nil {
			runErr = err
			break
		}
	}

	res := o.finish(start, runErr)
	if runErr == nil {
		path := o.projectPath(o.settings.Report.Path)
		if err := res.Report.Write(path); err != nil {
			runErr = err
			res.Err = err
			res.Report.Status = report.StatusFailed
		} else {
			res.ReportPath = path
		}
	}
	o.writeExtras(res)

	report.PrintSummary(o.out, res.Report, o.reportStages(), o.color)
	if runErr != nil {
		output.Failure(o.out, runErr, o.color)
		return res, runErr
	}
	output.Success(o.out, "Build completed successfully", o.color)
	return res, nil
}

// PrepareDeployment runs the out-of-band deployment preparation stage:
// dependency reports followed by artifact checksum verification. No build
// report is written.
func (o *Orchestrator) PrepareDeployment(ctx context.Context) (*Result, error) {
	start := time.Now()
	o.reset()
	o.header("Pip-Boy Deployment Preparation")

	err := o.runStage(ctx, Stage{ID: DeploymentPreparation, Enabled: always, Run: o.prepareDeployment})
	res := o.finish(start, err)

	report.PrintSummary(o.out, res.Report, o.reportStages(), o.color)
	if err != nil {
		output.Failure(o.out, err, o.color)
		return res, err
	}
	output.Success(o.out, fmt.Sprintf("%d artifact(s) verified", o.artifacts.Count()), o.color)
	return res, nil
}

func (o *Orchestrator) reset() {
	o.results = nil
	o.current = nil
	o.artifacts = artifact.Summary{}

	id, err := gitver.Describe(o.cfg.ProjectRoot)
	if err != nil {
		o.log.Warn("reading git metadata", zap.Error(err))
	}
	o.identity = id
}

func (o *Orchestrator) header(title string) {
	var commit, branch string
	if o.identity != nil {
		commit, branch = o.identity.Commit, o.identity.Branch
	}
	output.Banner(o.out, output.NewBannerInfo(title, version.Version, commit, branch), o.color)

	t := o.cfg.Toggles
	output.ContextBlock(o.out, []output.KV{
		{Key: "Project", Value: o.projectName()},
		{Key: "Variant", Value: string(o.cfg.Variant)},
		{Key: "Root", Value: o.cfg.ProjectRoot},
		{Key: "Wear", Value: onOff(t.Wear)},
		{Key: "Dynamic", Value: onOff(t.DynamicFeatures)},
		{Key: "Tests", Value: onOff(t.Tests)},
		{Key: "Shrink", Value: onOff(t.Shrink)},
		{Key: "Universal", Value: onOff(t.UniversalArtifact)},
		{Key: "Commit", Value: o.identity.String()},
	})
}

// runStage times one stage and renders its section. The stage error is
// returned unmodified.
func (o *Orchestrator) runStage(ctx context.Context, st Stage) error {
	fold := output.OpenFold(o.out, string(st.ID), st.ID.Title())
	output.StageStart(o.out, string(st.ID), o.color)

	res := StageResult{ID: st.ID}
	o.current = &res
	start := time.Now()
	err := st.Run(ctx)
	res.Elapsed = time.Since(start)
	o.current = nil

	if err != nil {
		res.Status = report.StatusFailed
		res.Err = err
	} else {
		res.Status = report.StatusSuccess
	}
	o.results = append(o.results, res)
	o.render(res)
	fold.Close()

	o.log.Debug("stage finished",
		zap.String("stage", string(st.ID)),
		zap.String("status", res.Status),
		zap.Duration("elapsed", res.Elapsed),
		zap.Error(err),
	)
	return err
}

func (o *Orchestrator) skip(id StageID) {
	res := StageResult{ID: id, Status: report.StatusSkipped}
	o.results = append(o.results, res)
	o.render(res)
	o.log.Debug("stage skipped", zap.String("stage", string(id)))
}

func (o *Orchestrator) render(res StageResult) {
	sec := output.NewSection(o.out, res.ID.Title(), res.Elapsed, o.color)
	for _, r := range res.Rows {
		if r.Status == "" {
			sec.Row("%-44s %s", r.Label, r.Detail)
			continue
		}
		output.RowStatus(sec, r.Label, r.Detail, r.Status, o.color)
	}
	if len(res.Findings) > 0 {
		sec.Separator()
		output.SectionFindings(sec, res.Findings, o.color)
	}

	var taskErr *build.TaskError
	if errors.As(res.Err, &taskErr) && strings.TrimSpace(taskErr.Stderr) != "" {
		sec.Separator()
		sec.Lines(tail(taskErr.Stderr, stderrTail))
	}

	switch res.Status {
	case report.StatusFailed:
		output.RowStatus(sec, "status", res.Err.Error(), res.Status, o.color)
	case report.StatusSkipped:
		output.RowStatus(sec, "status", "disabled for this build", res.Status, o.color)
	default:
		output.RowStatus(sec, "status", "completed in "+output.FormatElapsed(res.Elapsed), res.Status, o.color)
	}
	sec.Close()
}

func (o *Orchestrator) finish(start time.Time, err error) *Result {
	total := time.Since(start)
	return &Result{
		Config:    o.cfg,
		Stages:    append([]StageResult(nil), o.results...),
		Total:     total,
		Artifacts: o.artifacts,
		Report:    report.New(o.cfg, o.reportStages(), total, o.artifacts.Count(), o.identity),
		Err:       err,
	}
}

// writeExtras writes the optional JUnit and badge outputs. Failures are
// logged and never change the run status.
func (o *Orchestrator) writeExtras(res *Result) {
	if p := o.settings.Report.JUnit; p != "" {
		err := report.WriteJUnit(o.projectPath(p), string(o.cfg.Variant), o.reportStages(), res.Total)
		if err != nil {
			o.log.Warn("writing junit report", zap.Error(err))
		}
	}

	if b := o.settings.Badge; b.Enabled {
		eng, err := badge.FromConfig(b)
		if err != nil {
			o.log.Warn("loading badge font", zap.Error(err))
			return
		}
		status := report.StatusSuccess
		if res.Err != nil {
			status = report.StatusFailed
		}
		if err := eng.WriteFile(o.projectPath(b.Output), badge.BuildStatus(b.Label, status, res.Total)); err != nil {
			o.log.Warn("writing badge", zap.Error(err))
		}
	}
}

func (o *Orchestrator) reportStages() []report.Stage {
	stages := make([]report.Stage, len(o.results))
	for i, r := range o.results {
		stages[i] = r.reportStage()
	}
	return stages
}

// row appends a line to the running stage's section.
func (o *Orchestrator) row(label, detail, status string) {
	if o.current == nil {
		return
	}
	o.current.Rows = append(o.current.Rows, Row{Label: label, Detail: detail, Status: status})
}

// projectPath resolves p against the project root unless it is absolute.
func (o *Orchestrator) projectPath(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(o.cfg.ProjectRoot, filepath.FromSlash(p))
}

// projectName is the repository name from the origin remote, or the
// project directory name when there is none.
func (o *Orchestrator) projectName() string {
	if o.identity != nil && o.identity.Name != "" {
		return o.identity.Name
	}
	if abs, err := filepath.Abs(o.cfg.ProjectRoot); err == nil {
		return filepath.Base(abs)
	}
	return o.cfg.ProjectRoot
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

// tail returns the last n non-empty-trailing lines of s.
func tail(s string, n int) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
