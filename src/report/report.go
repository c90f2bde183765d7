// Package report aggregates stage timings into the persisted build report.
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/supernova/pipboy-build/src/config"
	"github.com/supernova/pipboy-build/src/gitver"
	"github.com/supernova/pipboy-build/src/output"
)

// Stage statuses.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
	StatusSkipped = "skipped"
)

// Stage is the logged outcome of one pipeline stage.
type Stage struct {
	Name    string
	Status  string
	Elapsed time.Duration
	Err     error
}

// BuildReport is the summary persisted after a successful run.
type BuildReport struct {
	RunID      string     `json:"run_id"`
	Timestamp  string     `json:"timestamp"`
	BuildType  string     `json:"build_type"`
	Status     string     `json:"status"`
	TotalTime  float64    `json:"total_time"`
	StageTimes StageTimes `json:"stage_times"`
	Artifacts  int        `json:"artifacts"`

	WearOSEnabled            bool `json:"wear_os_enabled"`
	DynamicFeaturesEnabled   bool `json:"dynamic_features_enabled"`
	TestsEnabled             bool `json:"tests_enabled"`
	ShrinkEnabled            bool `json:"shrink_enabled"`
	UniversalArtifactEnabled bool `json:"universal_artifact_enabled"`

	Commit string `json:"commit,omitempty"`
	Branch string `json:"branch,omitempty"`
}

// New builds the report for a run. Skipped stages get no timing entry.
// The status is failed if any stage failed.
func New(cfg config.BuildConfig, stages []Stage, total time.Duration, artifacts int, id *gitver.Identity) *BuildReport {
	r := &BuildReport{
		RunID:     uuid.NewString(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		BuildType: string(cfg.Variant),
		Status:    StatusSuccess,
		TotalTime: total.Seconds(),
		Artifacts: artifacts,

		WearOSEnabled:            cfg.Toggles.Wear,
		DynamicFeaturesEnabled:   cfg.Toggles.DynamicFeatures,
		TestsEnabled:             cfg.Toggles.Tests,
		ShrinkEnabled:            cfg.Toggles.Shrink,
		UniversalArtifactEnabled: cfg.Toggles.UniversalArtifact,
	}
	for _, s := range stages {
		switch s.Status {
		case StatusSuccess:
			r.StageTimes.Set(s.Name, s.Elapsed)
		case StatusFailed:
			r.Status = StatusFailed
		}
	}
	if id != nil {
		r.Commit = id.Commit
		r.Branch = id.Branch
	}
	return r
}

// Write persists the report as indented JSON, replacing any existing file.
func (r *BuildReport) Write(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating report directory: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}

// Read loads a report written by Write.
func Read(path string) (*BuildReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var r BuildReport
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &r, nil
}

// PrintSummary renders the stage log and totals as a summary section.
func PrintSummary(w io.Writer, r *BuildReport, stages []Stage, color bool) {
	sec := output.NewSection(w, "Summary", 0, color)
	for _, s := range stages {
		detail := output.FormatElapsed(s.Elapsed)
		if s.Status == StatusSkipped {
			detail = output.Dimmed("skipped", color)
		}
		output.SummaryRow(w, s.Name, s.Status, detail, color)
	}
	sec.Separator()
	output.SummaryRow(w, "artifacts", r.Status, fmt.Sprintf("%d", r.Artifacts), color)
	output.SummaryTotal(w, time.Duration(r.TotalTime*float64(time.Second)), r.Status, color)
	sec.Close()
}

// StageTimes maps stage name to elapsed seconds, preserving insertion order.
type StageTimes struct {
	names []string
	secs  map[string]float64
}

// Set records d for stage. Re-setting a stage keeps its original position.
func (t *StageTimes) Set(stage string, d time.Duration) {
	t.set(stage, d.Seconds())
}

func (t *StageTimes) set(stage string, secs float64) {
	if t.secs == nil {
		t.secs = make(map[string]float64)
	}
	if _, ok := t.secs[stage]; !ok {
		t.names = append(t.names, stage)
	}
	t.secs[stage] = secs
}

// Get returns the seconds recorded for stage.
func (t StageTimes) Get(stage string) (float64, bool) {
	s, ok := t.secs[stage]
	return s, ok
}

// Names returns the recorded stages in order.
func (t StageTimes) Names() []string {
	return append([]string(nil), t.names...)
}

// Len returns the number of recorded stages.
func (t StageTimes) Len() int { return len(t.names) }

// Sum returns the total of all recorded stage times.
func (t StageTimes) Sum() float64 {
	var total float64
	for _, s := range t.secs {
		total += s
	}
	return total
}

// MarshalJSON writes the stages as an object in recorded order.
func (t StageTimes) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range t.names {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(t.secs[name])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads an object of stage seconds, keeping key order.
func (t *StageTimes) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("stage_times: expected object")
	}
	*t = StageTimes{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("stage_times: expected key")
		}
		var secs float64
		if err := dec.Decode(&secs); err != nil {
			return fmt.Errorf("stage_times[%s]: %w", name, err)
		}
		t.set(name, secs)
	}
	_, err = dec.Token()
	return err
}
