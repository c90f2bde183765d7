package pipeline

import "github.com/supernova/pipboy-build/src/config"

// Module task prefixes.
const (
	wearPrefix    = ":wear:"
	dynamicPrefix = ":dynamic-feature-inventory:"
)

// Optional analysis inputs, relative to the project root.
const (
	DetektConfig   = "detekt.yml"
	SpotBugsScript = "spotbugs.gradle"

	detektTask   = "detekt"
	spotBugsTask = "spotbugsDebug"
)

// Call is the argument list of one Gradle wrapper invocation.
type Call []string

// RequiredFiles lists the files validation checks for.
func RequiredFiles() []string {
	return []string{
		"build.gradle",
		"gradle.properties",
		"src/main/AndroidManifest.xml",
	}
}

// RequiredModules lists the module directories validation checks for.
func RequiredModules(t config.Toggles) []string {
	mods := []string{"src/app", "src/domain", "src/data", "src/feature-status"}
	if t.Wear {
		mods = append(mods, "src/wear")
	}
	if t.DynamicFeatures {
		mods = append(mods, "src/dynamic-feature-inventory")
	}
	return mods
}

// DependencyCalls returns the dependency resolution invocations.
func DependencyCalls(t config.Toggles) []Call {
	calls := []Call{{"dependencies", "--refresh-dependencies"}}
	if t.Wear {
		calls = append(calls, Call{wearPrefix + "dependencies"})
	}
	if t.DynamicFeatures {
		calls = append(calls, Call{dynamicPrefix + "dependencies"})
	}
	return calls
}

// LintCalls returns the Android lint invocation.
func LintCalls() []Call {
	return []Call{{"lint", "lintDebug"}}
}

// CompileTasks returns the compile tasks, one invocation each. They always
// use the Debug task names.
func CompileTasks(t config.Toggles) []string {
	pair := []string{"compileDebugKotlin", "compileDebugJavaWithJavac"}
	tasks := append([]string(nil), pair...)
	if t.Wear {
		tasks = append(tasks, prefixed(wearPrefix, pair)...)
	}
	if t.DynamicFeatures {
		tasks = append(tasks, prefixed(dynamicPrefix, pair)...)
	}
	return tasks
}

// TestTasks returns the unit and instrumentation test tasks.
func TestTasks(t config.Toggles) []string {
	tasks := []string{"testDebugUnitTest", "connectedDebugAndroidTest"}
	if t.Wear {
		tasks = append(tasks, wearPrefix+"connectedDebugAndroidTest")
	}
	return tasks
}

// PackageTasks returns the variant-mapped assemble tasks, followed by the
// bundle task when a universal artifact is requested.
func PackageTasks(v config.Variant, t config.Toggles) []string {
	assemble := v.AssembleTask()
	tasks := []string{assemble}
	if t.Wear {
		tasks = append(tasks, wearPrefix+assemble)
	}
	if t.DynamicFeatures {
		tasks = append(tasks, dynamicPrefix+assemble)
	}
	if t.UniversalArtifact {
		tasks = append(tasks, v.BundleTask())
	}
	return tasks
}

// DeploymentCalls returns the dependency report invocations run before
// artifact verification.
func DeploymentCalls() []Call {
	return []Call{{"androidDependencies"}, {"dependencies"}}
}

func prefixed(prefix string, tasks []string) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = prefix + t
	}
	return out
}
