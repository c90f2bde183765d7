package pipeline

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/supernova/pipboy-build/src/build"
	"github.com/supernova/pipboy-build/src/config"
	"github.com/supernova/pipboy-build/src/report"
)

// fakeRunner records invocations and answers from canned outcomes keyed
// by the joined argument list.
type fakeRunner struct {
	mu       sync.Mutex
	calls    []build.Invocation
	outcomes map[string]*build.Outcome
	errs     map[string]error
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{outcomes: map[string]*build.Outcome{}, errs: map[string]error{}}
}

func (f *fakeRunner) Run(_ context.Context, inv build.Invocation) (*build.Outcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, inv)

	key := strings.Join(inv.Args, " ")
	if err := f.errs[key]; err != nil {
		return nil, err
	}
	if out := f.outcomes[key]; out != nil {
		return out, nil
	}
	return &build.Outcome{Duration: time.Millisecond}, nil
}

func (f *fakeRunner) failTask(key string, code int, stderr string) {
	f.outcomes[key] = &build.Outcome{ExitCode: code, Stderr: stderr}
}

func (f *fakeRunner) invoked() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	for i, c := range f.calls {
		out[i] = strings.Join(c.Args, " ")
	}
	return out
}

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// newProject lays out a complete Android project skeleton.
func newProject(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFile(t, root, "build.gradle", "plugins { id 'com.android.application' }\n")
	writeFile(t, root, "gradle.properties", "org.gradle.jvmargs=-Xmx2g\n")
	writeFile(t, root, "src/main/AndroidManifest.xml", "<manifest/>\n")
	for _, m := range []string{"src/app", "src/domain", "src/data", "src/feature-status", "src/wear", "src/dynamic-feature-inventory"} {
		require.NoError(t, os.MkdirAll(filepath.Join(root, m), 0o755))
	}
	return root
}

func testSettings() *config.Config {
	s := config.Defaults()
	s.Lint.Enabled = false
	return s
}

func buildConfig(root string) config.BuildConfig {
	return config.BuildConfig{
		ProjectRoot: root,
		Variant:     config.VariantDebug,
		Toggles:     config.DefaultBuildSettings().Toggles,
	}
}

func newTestOrchestrator(cfg config.BuildConfig, r build.Runner, settings *config.Config) (*Orchestrator, *bytes.Buffer) {
	var out bytes.Buffer
	return New(cfg, Options{Runner: r, Settings: settings, Out: &out}), &out
}

func stageIDs(results []StageResult) []StageID {
	ids := make([]StageID, len(results))
	for i, r := range results {
		ids[i] = r.ID
	}
	return ids
}

func TestStages_Order(t *testing.T) {
	o, _ := newTestOrchestrator(buildConfig(t.TempDir()), newFakeRunner(), nil)
	var ids []StageID
	for _, st := range o.Stages() {
		ids = append(ids, st.ID)
	}
	assert.Equal(t, Sequence, ids)
	assert.NotContains(t, ids, DeploymentPreparation)
}

func TestStageTitle(t *testing.T) {
	assert.Equal(t, "Dependency Check", DependencyCheck.Title())
	assert.Equal(t, "Validation", Validation.Title())
}

func TestRun_FullDebugBuild(t *testing.T) {
	root := newProject(t)
	writeFile(t, root, "build/outputs/apk/debug/app-debug.apk", "apk")
	writeFile(t, root, "build/outputs/apk/wear/debug/wear-debug.apk", "apk")

	fr := newFakeRunner()
	o, out := newTestOrchestrator(buildConfig(root), fr, testSettings())

	res, err := o.Run(context.Background())
	require.NoError(t, err)
	require.True(t, res.Succeeded())

	assert.Equal(t, []string{
		"dependencies --refresh-dependencies",
		":wear:dependencies",
		":dynamic-feature-inventory:dependencies",
		"lint lintDebug",
		"compileDebugKotlin",
		"compileDebugJavaWithJavac",
		":wear:compileDebugKotlin",
		":wear:compileDebugJavaWithJavac",
		":dynamic-feature-inventory:compileDebugKotlin",
		":dynamic-feature-inventory:compileDebugJavaWithJavac",
		"testDebugUnitTest",
		"connectedDebugAndroidTest",
		":wear:connectedDebugAndroidTest",
		"assembleDebug",
		":wear:assembleDebug",
		":dynamic-feature-inventory:assembleDebug",
	}, fr.invoked())

	for _, c := range fr.calls {
		assert.Equal(t, root, c.Dir)
		assert.Equal(t, "./gradlew", c.Name)
		assert.Equal(t, 300*time.Second, c.Timeout)
	}

	assert.Equal(t, Sequence, stageIDs(res.Stages))
	assert.Equal(t, 2, res.Artifacts.Count())

	path := filepath.Join(root, "build_report.json")
	assert.Equal(t, path, res.ReportPath)
	rep, err := report.Read(path)
	require.NoError(t, err)
	assert.Equal(t, report.StatusSuccess, rep.Status)
	assert.Equal(t, "debug", rep.BuildType)
	assert.Equal(t, 2, rep.Artifacts)
	assert.Equal(t, []string{"validation", "dependency_check", "static_analysis", "compilation", "testing", "packaging"},
		rep.StageTimes.Names())
	assert.GreaterOrEqual(t, rep.TotalTime, rep.StageTimes.Sum())
	assert.True(t, rep.WearOSEnabled)
	assert.True(t, rep.TestsEnabled)

	assert.Contains(t, out.String(), "PIP-BOY BUILD PIPELINE")
	assert.Contains(t, out.String(), "── Summary")
	assert.Contains(t, out.String(), "Build completed successfully")
}

func TestRun_TestsDisabled(t *testing.T) {
	root := newProject(t)
	cfg := buildConfig(root)
	cfg.Toggles.Tests = false

	fr := newFakeRunner()
	o, _ := newTestOrchestrator(cfg, fr, testSettings())

	res, err := o.Run(context.Background())
	require.NoError(t, err)

	for _, inv := range fr.invoked() {
		assert.NotContains(t, inv, "Test", "no test task may run")
	}

	var testStage StageResult
	for _, s := range res.Stages {
		if s.ID == Testing {
			testStage = s
		}
	}
	assert.Equal(t, report.StatusSkipped, testStage.Status)
	assert.Zero(t, testStage.Elapsed)

	_, ok := res.Report.StageTimes.Get(string(Testing))
	assert.False(t, ok)
	assert.Equal(t, 5, res.Report.StageTimes.Len())
	assert.False(t, res.Report.TestsEnabled)
}

func TestRun_GradleFailureHaltsPipeline(t *testing.T) {
	root := newProject(t)
	fr := newFakeRunner()
	fr.failTask("compileDebugKotlin", 1, "e: MainActivity.kt:12 unresolved reference\nFAILURE: Build failed\n")

	o, out := newTestOrchestrator(buildConfig(root), fr, testSettings())
	res, err := o.Run(context.Background())
	require.Error(t, err)

	var taskErr *build.TaskError
	require.ErrorAs(t, err, &taskErr)
	assert.Equal(t, []string{"compileDebugKotlin"}, taskErr.Tasks)
	assert.Equal(t, 1, taskErr.ExitCode)

	invoked := fr.invoked()
	assert.Equal(t, "compileDebugKotlin", invoked[len(invoked)-1], "nothing runs after the failing task")

	assert.Equal(t, []StageID{Validation, DependencyCheck, StaticAnalysis, Compilation}, stageIDs(res.Stages))
	assert.Equal(t, report.StatusFailed, res.Stages[3].Status)
	assert.Equal(t, report.StatusFailed, res.Report.Status)

	assert.NoFileExists(t, filepath.Join(root, "build_report.json"))
	assert.Empty(t, res.ReportPath)

	assert.Contains(t, out.String(), "unresolved reference")
	assert.Contains(t, out.String(), "BUILD FAILED")
}

func TestRun_MissingManifest(t *testing.T) {
	root := newProject(t)
	require.NoError(t, os.Remove(filepath.Join(root, "src/main/AndroidManifest.xml")))

	fr := newFakeRunner()
	o, _ := newTestOrchestrator(buildConfig(root), fr, testSettings())

	res, err := o.Run(context.Background())
	require.Error(t, err)

	var missing *MissingPathError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "src/main/AndroidManifest.xml", missing.Path)
	assert.Equal(t, PathFile, missing.Kind)
	assert.Equal(t, "required file missing: src/main/AndroidManifest.xml", err.Error())

	assert.Empty(t, fr.invoked(), "no external invocation after a validation failure")
	assert.Len(t, res.Stages, 1)
	assert.NoFileExists(t, filepath.Join(root, "build_report.json"))
}

func TestRun_MissingWearModuleOnlyWhenEnabled(t *testing.T) {
	root := newProject(t)
	require.NoError(t, os.RemoveAll(filepath.Join(root, "src/wear")))

	o, _ := newTestOrchestrator(buildConfig(root), newFakeRunner(), testSettings())
	_, err := o.Run(context.Background())
	var missing *MissingPathError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "src/wear", missing.Path)
	assert.Equal(t, PathModule, missing.Kind)

	cfg := buildConfig(root)
	cfg.Toggles.Wear = false
	o, _ = newTestOrchestrator(cfg, newFakeRunner(), testSettings())
	_, err = o.Run(context.Background())
	require.NoError(t, err)
}

func TestRun_ReleaseScenario(t *testing.T) {
	root := newProject(t)
	writeFile(t, root, "build/outputs/apk/release/app-release.apk", "apk")
	writeFile(t, root, "build/outputs/apk/release/app-release.aab", "aab")

	cfg := config.BuildConfig{
		ProjectRoot: root,
		Variant:     config.VariantRelease,
		Toggles:     config.Toggles{Shrink: true, UniversalArtifact: true},
	}
	fr := newFakeRunner()
	o, _ := newTestOrchestrator(cfg, fr, testSettings())

	res, err := o.Run(context.Background())
	require.NoError(t, err)

	invoked := fr.invoked()
	for _, inv := range invoked {
		assert.NotContains(t, inv, ":wear:")
		assert.NotContains(t, inv, ":dynamic-feature-inventory:")
	}
	assert.Equal(t, []string{"assembleRelease", "bundleRelease"}, invoked[len(invoked)-2:])

	assert.Equal(t, "release", res.Report.BuildType)
	assert.Equal(t, 2, res.Report.Artifacts)
	assert.True(t, res.Report.UniversalArtifactEnabled)
	assert.False(t, res.Report.WearOSEnabled)
}

func TestRun_OptionalAnalysisTools(t *testing.T) {
	root := newProject(t)
	writeFile(t, root, DetektConfig, "build:\n  maxIssues: 0\n")

	fr := newFakeRunner()
	fr.failTask("detekt", 2, "detekt: 3 issues\n")
	o, _ := newTestOrchestrator(buildConfig(root), fr, testSettings())

	_, err := o.Run(context.Background())
	require.NoError(t, err, "detekt failures are swallowed")

	var detekt *build.Invocation
	for i, c := range fr.calls {
		if strings.Join(c.Args, " ") == "detekt" {
			detekt = &fr.calls[i]
		}
	}
	require.NotNil(t, detekt)
	assert.Equal(t, 60*time.Second, detekt.Timeout)
	assert.NotContains(t, fr.invoked(), "spotbugsDebug")

	writeFile(t, root, SpotBugsScript, "apply plugin: 'com.github.spotbugs'\n")
	fr = newFakeRunner()
	fr.failTask("spotbugsDebug", 1, "spotbugs: bugs found\n")
	o, _ = newTestOrchestrator(buildConfig(root), fr, testSettings())

	res, err := o.Run(context.Background())
	require.Error(t, err, "spotbugs failures are fatal")
	assert.Equal(t, StaticAnalysis, res.Stages[len(res.Stages)-1].ID)
}

func TestRun_ToolNotFound(t *testing.T) {
	root := newProject(t)
	fr := newFakeRunner()
	fr.errs["dependencies --refresh-dependencies"] = &build.ToolNotFoundError{Tool: "./gradlew"}

	o, _ := newTestOrchestrator(buildConfig(root), fr, testSettings())
	ok := o.Execute(context.Background())
	assert.False(t, ok)
	assert.Equal(t, []string{"dependencies --refresh-dependencies"}, fr.invoked())
}

func TestRun_Timeout(t *testing.T) {
	root := newProject(t)
	fr := newFakeRunner()
	fr.errs["lint lintDebug"] = &build.TimeoutError{Args: []string{"lint", "lintDebug"}, Timeout: 300 * time.Second}

	o, _ := newTestOrchestrator(buildConfig(root), fr, testSettings())
	_, err := o.Run(context.Background())

	var te *build.TimeoutError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, 300*time.Second, te.Timeout)
}

func TestRun_CatalogAndRepositoryChecks(t *testing.T) {
	root := newProject(t)
	writeFile(t, root, "gradle/libs.versions.toml", `
[versions]
wear = "1.3.0-rc01"

[libraries]
wear-compose = { module = "androidx.wear.compose:compose-material", version.ref = "wear" }
room = { module = "androidx.room:room-runtime", version.ref = "room" }

[bundles]
wear = ["wear-compose"]
`)

	settings := config.Defaults()
	settings.Lint.LargeFilesMax = 10
	fr := newFakeRunner()
	o, out := newTestOrchestrator(buildConfig(root), fr, settings)

	res, err := o.Run(context.Background())
	require.NoError(t, err, "catalog and repository findings never fail a stage")

	var deps, analysis StageResult
	for _, s := range res.Stages {
		switch s.ID {
		case DependencyCheck:
			deps = s
		case StaticAnalysis:
			analysis = s
		}
	}
	require.Len(t, deps.Findings, 1, "unresolved room ref")
	assert.Equal(t, "gradle/libs.versions.toml", deps.Findings[0].File)

	var filesize int
	for _, f := range analysis.Findings {
		if f.Module == "filesize" {
			filesize++
		}
	}
	assert.Positive(t, filesize)
	assert.Contains(t, out.String(), "repository checks")
	assert.Contains(t, out.String(), "version catalog")
	assert.Contains(t, out.String(), "1 bundles")
}

func TestRun_ContextShowsRepositoryName(t *testing.T) {
	root := newProject(t)
	repo, err := git.PlainInit(root, false)
	require.NoError(t, err)
	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add("build.gradle")
	require.NoError(t, err)
	_, err = wt.Commit("initial", &git.CommitOptions{
		Author: &object.Signature{Name: "ci", Email: "ci@example.com", When: time.Unix(1700000000, 0)},
	})
	require.NoError(t, err)
	_, err = repo.CreateRemote(&gitconfig.RemoteConfig{
		Name: "origin",
		URLs: []string{"https://gitlab.com/supernova/pipboy-android.git"},
	})
	require.NoError(t, err)

	o, out := newTestOrchestrator(buildConfig(root), newFakeRunner(), testSettings())
	res, err := o.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "pipboy-android", o.projectName())
	assert.Contains(t, out.String(), "Project     pipboy-android")
	assert.NotEmpty(t, res.Report.Commit)
	assert.Equal(t, "master", res.Report.Branch)
}

func TestProjectName_FallsBackToDirectory(t *testing.T) {
	root := filepath.Join(t.TempDir(), "pipboy")
	require.NoError(t, os.Mkdir(root, 0o755))

	o, _ := newTestOrchestrator(buildConfig(root), newFakeRunner(), testSettings())
	assert.Equal(t, "pipboy", o.projectName())
}

func TestRun_WritesJUnitAndBadge(t *testing.T) {
	root := newProject(t)
	settings := testSettings()
	settings.Report.JUnit = "build/reports/pipeline.xml"
	settings.Badge.Enabled = true

	fr := newFakeRunner()
	fr.failTask("lint lintDebug", 1, "lint errors\n")
	o, _ := newTestOrchestrator(buildConfig(root), fr, settings)

	_, err := o.Run(context.Background())
	require.Error(t, err)

	junit, err := os.ReadFile(filepath.Join(root, "build/reports/pipeline.xml"))
	require.NoError(t, err)
	assert.Contains(t, string(junit), `name="static_analysis"`)
	assert.Contains(t, string(junit), "<failure")

	svg, err := os.ReadFile(filepath.Join(root, "build/badges/build.svg"))
	require.NoError(t, err)
	assert.Contains(t, string(svg), "failed")
}

func TestRun_ReportOverwritten(t *testing.T) {
	root := newProject(t)
	writeFile(t, root, "build_report.json", `{"stale": true}`)

	o, _ := newTestOrchestrator(buildConfig(root), newFakeRunner(), testSettings())
	res, err := o.Run(context.Background())
	require.NoError(t, err)

	rep, err := report.Read(filepath.Join(root, "build_report.json"))
	require.NoError(t, err)
	assert.Equal(t, res.Report.RunID, rep.RunID)
}

func TestRun_ReportWriteFailureFailsRun(t *testing.T) {
	root := newProject(t)
	require.NoError(t, os.Mkdir(filepath.Join(root, "build_report.json"), 0o755))

	o, out := newTestOrchestrator(buildConfig(root), newFakeRunner(), testSettings())
	res, err := o.Run(context.Background())
	require.Error(t, err)

	assert.False(t, res.Succeeded())
	assert.Equal(t, report.StatusFailed, res.Report.Status)
	assert.Empty(t, res.ReportPath)
	assert.Contains(t, out.String(), "BUILD FAILED: writing report")
	assert.NotContains(t, out.String(), "Build completed successfully")
}

func TestRun_DependencyFailureStopsLaterStages(t *testing.T) {
	root := newProject(t)
	fr := newFakeRunner()
	fr.failTask("dependencies --refresh-dependencies", 1, "Could not resolve androidx.wear:wear:1.3.0\n")

	o, _ := newTestOrchestrator(buildConfig(root), fr, testSettings())
	res, err := o.Run(context.Background())

	var taskErr *build.TaskError
	require.ErrorAs(t, err, &taskErr)
	assert.Equal(t, []string{"dependencies", "--refresh-dependencies"}, taskErr.Tasks)

	assert.Equal(t, []string{"dependencies --refresh-dependencies"}, fr.invoked())
	require.Len(t, res.Stages, 2)
	assert.Equal(t, []StageID{Validation, DependencyCheck}, stageIDs(res.Stages))
	assert.Equal(t, report.StatusSuccess, res.Stages[0].Status)
	assert.Equal(t, report.StatusFailed, res.Stages[1].Status)
	assert.Equal(t, 1, res.Report.StageTimes.Len())
	assert.NoFileExists(t, filepath.Join(root, "build_report.json"))
}

func TestPrepareDeployment(t *testing.T) {
	root := newProject(t)
	writeFile(t, root, "build/outputs/apk/debug/app-debug.apk", "apk-bytes")

	fr := newFakeRunner()
	o, out := newTestOrchestrator(buildConfig(root), fr, testSettings())

	res, err := o.PrepareDeployment(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"androidDependencies", "dependencies"}, fr.invoked())
	assert.Equal(t, []StageID{DeploymentPreparation}, stageIDs(res.Stages))
	require.Equal(t, 1, res.Artifacts.Count())
	assert.Len(t, res.Artifacts.Artifacts[0].SHA256, 64)
	assert.Contains(t, out.String(), "sha256:")
	assert.NoFileExists(t, filepath.Join(root, "build_report.json"))
}

func TestPlan(t *testing.T) {
	root := newProject(t)
	writeFile(t, root, DetektConfig, "")

	cfg := buildConfig(root)
	cfg.Toggles.Tests = false
	fr := newFakeRunner()
	o, _ := newTestOrchestrator(cfg, fr, testSettings())

	plan := o.Plan()
	require.Len(t, plan, len(Sequence))
	assert.Empty(t, fr.invoked(), "planning executes nothing")

	byID := map[StageID]PlannedStage{}
	for _, p := range plan {
		byID[p.ID] = p
	}
	assert.False(t, byID[Testing].Enabled)
	assert.Empty(t, byID[Testing].Steps)
	assert.Contains(t, byID[StaticAnalysis].Steps, "./gradlew detekt (best-effort)")
	assert.Contains(t, byID[Validation].Steps, "require module src/wear")
	assert.Equal(t, "./gradlew assembleDebug", byID[Packaging].Steps[0])
}

func TestRun_ConfigIsNotMutated(t *testing.T) {
	root := newProject(t)
	cfg := buildConfig(root)
	o, _ := newTestOrchestrator(cfg, newFakeRunner(), testSettings())

	_, err := o.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, cfg, o.Config())
}
