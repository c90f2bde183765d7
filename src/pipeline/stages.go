package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/supernova/pipboy-build/src/artifact"
	"github.com/supernova/pipboy-build/src/catalog"
	"github.com/supernova/pipboy-build/src/lint"
	_ "github.com/supernova/pipboy-build/src/lint/modules"
	"github.com/supernova/pipboy-build/src/report"
)

// validate checks the project layout. The first missing path fails.
func (o *Orchestrator) validate(context.Context) error {
	for _, f := range RequiredFiles() {
		if !o.exists(f, false) {
			return &MissingPathError{Path: f, Kind: PathFile}
		}
		o.row(f, "", report.StatusSuccess)
	}
	for _, m := range RequiredModules(o.cfg.Toggles) {
		if !o.exists(m, true) {
			return &MissingPathError{Path: m, Kind: PathModule}
		}
		o.row(m, "", report.StatusSuccess)
	}
	return nil
}

func (o *Orchestrator) checkDependencies(ctx context.Context) error {
	if err := o.calls(ctx, DependencyCalls(o.cfg.Toggles)); err != nil {
		return err
	}
	o.inspectCatalog()
	return nil
}

// inspectCatalog reports version catalog findings. It never fails the stage.
func (o *Orchestrator) inspectCatalog() {
	rel := o.settings.Catalog.Path
	if rel == "" || !o.exists(rel, false) {
		o.row("version catalog", "not found", report.StatusSkipped)
		return
	}

	c, err := catalog.Load(o.projectPath(rel))
	if err != nil {
		o.log.Warn("reading version catalog", zap.String("path", rel), zap.Error(err))
		o.row("version catalog", "unreadable", report.StatusSkipped)
		return
	}
	c.Path = rel

	findings := c.Check(o.cfg.Variant)
	libs, plugins := c.Count()
	_, warn, info := lint.Counts(findings)
	o.row("version catalog",
		fmt.Sprintf("%d libraries, %d plugins, %d bundles, %d warning(s), %d info",
			libs, plugins, len(c.Bundles), warn, info),
		report.StatusSuccess)
	o.current.Findings = append(o.current.Findings, findings...)
}

func (o *Orchestrator) analyze(ctx context.Context) error {
	if err := o.calls(ctx, LintCalls()); err != nil {
		return err
	}

	if o.exists(DetektConfig, false) {
		// best-effort
		if err := o.gradle.Command(ctx, o.gradle.Wrapper, detektTask); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			o.log.Warn("detekt failed", zap.Error(err))
			o.row(detektTask, err.Error(), report.StatusSkipped)
		} else {
			o.row(detektTask, "", report.StatusSuccess)
		}
	}

	if o.exists(SpotBugsScript, false) {
		if err := o.tasks(ctx, spotBugsTask); err != nil {
			return err
		}
	}

	o.repositoryChecks(ctx)
	return nil
}

// repositoryChecks runs the built-in lint modules over project files.
// Findings are reported and never fail the stage.
func (o *Orchestrator) repositoryChecks(ctx context.Context) {
	if !o.settings.Lint.Enabled {
		return
	}

	eng, err := lint.NewEngine(o.settings.Lint, o.cfg.ProjectRoot, o.log)
	if err != nil {
		o.log.Warn("repository checks disabled", zap.Error(err))
		return
	}
	files, err := eng.CollectFiles()
	if err != nil {
		o.log.Warn("collecting files for repository checks", zap.Error(err))
		return
	}
	findings, err := eng.Run(ctx, files)
	if err != nil {
		o.log.Warn("repository checks", zap.Error(err))
	}

	crit, warn, _ := lint.Counts(findings)
	status := report.StatusSuccess
	if crit > 0 {
		status = report.StatusFailed
	}
	o.row("repository checks",
		fmt.Sprintf("%d file(s) [%s], %d critical, %d warning(s)",
			len(files), strings.Join(eng.ModuleNames(), ", "), crit, warn),
		status)
	o.current.Findings = append(o.current.Findings, findings...)
}

func (o *Orchestrator) compile(ctx context.Context) error {
	return o.tasks(ctx, CompileTasks(o.cfg.Toggles)...)
}

func (o *Orchestrator) test(ctx context.Context) error {
	return o.tasks(ctx, TestTasks(o.cfg.Toggles)...)
}

func (o *Orchestrator) pack(ctx context.Context) error {
	if err := o.tasks(ctx, PackageTasks(o.cfg.Variant, o.cfg.Toggles)...); err != nil {
		return err
	}

	sum, err := artifact.Scan(o.cfg.ProjectRoot, o.settings.Artifacts)
	if err != nil {
		return fmt.Errorf("scanning artifacts: %w", err)
	}
	o.artifacts = sum
	o.artifactRows(sum, false)
	return nil
}

func (o *Orchestrator) prepareDeployment(ctx context.Context) error {
	if err := o.calls(ctx, DeploymentCalls()); err != nil {
		return err
	}

	sum, err := artifact.Scan(o.cfg.ProjectRoot, o.settings.Artifacts)
	if err != nil {
		return fmt.Errorf("scanning artifacts: %w", err)
	}
	if err := artifact.Verify(ctx, &sum); err != nil {
		return err
	}
	o.artifacts = sum
	o.artifactRows(sum, true)
	return nil
}

func (o *Orchestrator) artifactRows(sum artifact.Summary, checksums bool) {
	o.row("artifacts", fmt.Sprintf("%d package(s), %d bundle(s)",
		sum.CountKind(artifact.KindPackage), sum.CountKind(artifact.KindBundle)), "")
	for _, a := range sum.Artifacts {
		detail := fmt.Sprintf("%.1fMB", a.SizeMB())
		if checksums && a.SHA256 != "" {
			detail += "  sha256:" + a.SHA256[:12]
		}
		o.row("  "+a.Name(), detail, "")
	}
}

// tasks runs each task as its own Gradle invocation, in order.
func (o *Orchestrator) tasks(ctx context.Context, tasks ...string) error {
	for _, t := range tasks {
		if err := o.gradle.Tasks(ctx, t); err != nil {
			return err
		}
		o.row(t, "", report.StatusSuccess)
	}
	return nil
}

// calls runs each multi-argument invocation, in order.
func (o *Orchestrator) calls(ctx context.Context, calls []Call) error {
	for _, c := range calls {
		if err := o.gradle.Tasks(ctx, c...); err != nil {
			return err
		}
		o.row(strings.Join(c, " "), "", report.StatusSuccess)
	}
	return nil
}

// exists reports whether rel exists under the project root. When dir is
// set, it must be a directory.
func (o *Orchestrator) exists(rel string, dir bool) bool {
	fi, err := os.Stat(filepath.Join(o.cfg.ProjectRoot, filepath.FromSlash(rel)))
	if err != nil {
		return false
	}
	return !dir || fi.IsDir()
}
