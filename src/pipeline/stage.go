// Package pipeline runs the ordered Android build stages against the
// project's Gradle wrapper.
package pipeline

import (
	"context"
	"strings"
	"time"

	"github.com/supernova/pipboy-build/src/config"
	"github.com/supernova/pipboy-build/src/lint"
	"github.com/supernova/pipboy-build/src/report"
)

// StageID names a pipeline stage.
type StageID string

const (
	Validation            StageID = "validation"
	DependencyCheck       StageID = "dependency_check"
	StaticAnalysis        StageID = "static_analysis"
	Compilation           StageID = "compilation"
	Testing               StageID = "testing"
	Packaging             StageID = "packaging"
	DeploymentPreparation StageID = "deployment_preparation"
)

// Sequence is the mandatory stage order of a build.
// DeploymentPreparation runs on its own and is not part of it.
var Sequence = []StageID{
	Validation,
	DependencyCheck,
	StaticAnalysis,
	Compilation,
	Testing,
	Packaging,
}

// Title returns the display name, e.g. "Dependency Check".
func (id StageID) Title() string {
	words := strings.Split(string(id), "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

// Stage is one entry of the stage table.
type Stage struct {
	ID      StageID
	Enabled func(config.BuildConfig) bool
	Run     func(ctx context.Context) error
}

func always(config.BuildConfig) bool { return true }

// StageResult is the logged outcome of a stage.
type StageResult struct {
	ID       StageID
	Status   string // report.StatusSuccess, StatusFailed or StatusSkipped
	Elapsed  time.Duration
	Err      error
	Rows     []Row
	Findings []lint.Finding
}

// Row is one line of a stage section. An empty Status renders the label
// and detail without an icon.
type Row struct {
	Label  string
	Detail string
	Status string
}

func (r StageResult) reportStage() report.Stage {
	return report.Stage{Name: string(r.ID), Status: r.Status, Elapsed: r.Elapsed, Err: r.Err}
}
