package pipeline

import (
	"fmt"
	"strings"
)

// PlannedStage describes what a stage would do, for dry runs.
type PlannedStage struct {
	ID      StageID
	Enabled bool
	Steps   []string
}

// Plan returns the stage table with the checks and invocations each
// enabled stage would perform. Nothing is executed.
func (o *Orchestrator) Plan() []PlannedStage {
	w := o.settings.Gradle.Wrapper
	invoke := func(args ...string) string { return w + " " + strings.Join(args, " ") }
	each := func(tasks []string) []string {
		out := make([]string, len(tasks))
		for i, t := range tasks {
			out[i] = invoke(t)
		}
		return out
	}
	eachCall := func(calls []Call) []string {
		out := make([]string, len(calls))
		for i, c := range calls {
			out[i] = invoke(c...)
		}
		return out
	}

	var plan []PlannedStage
	for _, st := range o.stages {
		p := PlannedStage{ID: st.ID, Enabled: st.Enabled(o.cfg)}
		if !p.Enabled {
			plan = append(plan, p)
			continue
		}

		switch st.ID {
		case Validation:
			for _, f := range RequiredFiles() {
				p.Steps = append(p.Steps, "require file "+f)
			}
			for _, m := range RequiredModules(o.cfg.Toggles) {
				p.Steps = append(p.Steps, "require module "+m)
			}
		case DependencyCheck:
			p.Steps = eachCall(DependencyCalls(o.cfg.Toggles))
			if o.exists(o.settings.Catalog.Path, false) {
				p.Steps = append(p.Steps, "inspect "+o.settings.Catalog.Path)
			}
		case StaticAnalysis:
			p.Steps = eachCall(LintCalls())
			if o.exists(DetektConfig, false) {
				p.Steps = append(p.Steps, invoke(detektTask)+" (best-effort)")
			}
			if o.exists(SpotBugsScript, false) {
				p.Steps = append(p.Steps, invoke(spotBugsTask))
			}
			if o.settings.Lint.Enabled {
				p.Steps = append(p.Steps, "repository checks")
			}
		case Compilation:
			p.Steps = each(CompileTasks(o.cfg.Toggles))
		case Testing:
			p.Steps = each(TestTasks(o.cfg.Toggles))
		case Packaging:
			p.Steps = each(PackageTasks(o.cfg.Variant, o.cfg.Toggles))
			p.Steps = append(p.Steps, fmt.Sprintf("scan %s", o.settings.Artifacts.Dir))
		}
		plan = append(plan, p)
	}
	return plan
}
