package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Validate checks structural invariants of a loaded Config.
// Returns warnings (soft issues) and a hard error if the config is invalid.
func Validate(cfg *Config) (warnings []string, err error) {
	var errs []string

	// ── Build ─────────────────────────────────────────────────────────────

	if !cfg.Build.Variant.Valid() {
		errs = append(errs, fmt.Sprintf("build.variant: unknown variant %q (supported: debug, release, benchmark)", cfg.Build.Variant))
	}
	if cfg.Build.UniversalArtifact && cfg.Build.Variant == VariantBenchmark {
		warnings = append(warnings, "build.universal_artifact: benchmark builds bundle the debug flavor")
	}

	// ── Gradle ────────────────────────────────────────────────────────────

	if cfg.Gradle.Wrapper == "" {
		errs = append(errs, "gradle.wrapper: is required")
	}
	if cfg.Gradle.TaskTimeout <= 0 {
		errs = append(errs, fmt.Sprintf("gradle.task_timeout: must be positive, got %s", cfg.Gradle.TaskTimeout))
	}
	if cfg.Gradle.CommandTimeout <= 0 {
		errs = append(errs, fmt.Sprintf("gradle.command_timeout: must be positive, got %s", cfg.Gradle.CommandTimeout))
	}

	// ── Artifacts ─────────────────────────────────────────────────────────

	if cfg.Artifacts.Dir == "" {
		errs = append(errs, "artifacts.dir: is required")
	} else if filepath.IsAbs(cfg.Artifacts.Dir) {
		errs = append(errs, fmt.Sprintf("artifacts.dir: must be relative to the project root, got %q", cfg.Artifacts.Dir))
	}
	for name, pattern := range map[string]string{"package": cfg.Artifacts.Package, "bundle": cfg.Artifacts.Bundle} {
		if !doublestar.ValidatePattern(pattern) {
			errs = append(errs, fmt.Sprintf("artifacts.%s: invalid glob %q", name, pattern))
		}
	}

	// ── Report ────────────────────────────────────────────────────────────

	if cfg.Report.Path == "" {
		errs = append(errs, "report.path: is required")
	}

	// ── Lint ──────────────────────────────────────────────────────────────

	for i, pattern := range cfg.Lint.Include {
		if !doublestar.ValidatePattern(pattern) {
			errs = append(errs, fmt.Sprintf("lint.include[%d]: invalid glob %q", i, pattern))
		}
	}
	for i, pattern := range cfg.Lint.Exclude {
		if !doublestar.ValidatePattern(pattern) {
			errs = append(errs, fmt.Sprintf("lint.exclude[%d]: invalid glob %q", i, pattern))
		}
	}
	if cfg.Lint.LargeFilesMax < 0 {
		errs = append(errs, fmt.Sprintf("lint.large_files_max: must not be negative, got %d", cfg.Lint.LargeFilesMax))
	}

	// ── Badge ─────────────────────────────────────────────────────────────

	if cfg.Badge.Enabled {
		if cfg.Badge.Output == "" {
			errs = append(errs, "badge.output: is required when badge.enabled is set")
		}
		if cfg.Badge.FontSize <= 0 {
			errs = append(errs, fmt.Sprintf("badge.font_size: must be positive, got %g", cfg.Badge.FontSize))
		}
	}

	if len(errs) > 0 {
		return warnings, fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return warnings, nil
}
