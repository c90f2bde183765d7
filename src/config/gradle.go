package config

import "time"

// GradleConfig controls how the Gradle wrapper is invoked.
type GradleConfig struct {
	Wrapper        string        `yaml:"wrapper" env:"WRAPPER"`                 // default: ./gradlew
	TaskTimeout    time.Duration `yaml:"task_timeout" env:"TASK_TIMEOUT"`       // bound for build-tool tasks
	CommandTimeout time.Duration `yaml:"command_timeout" env:"COMMAND_TIMEOUT"` // bound for ad-hoc commands
}

// DefaultGradleConfig returns production defaults.
func DefaultGradleConfig() GradleConfig {
	return GradleConfig{
		Wrapper:        "./gradlew",
		TaskTimeout:    300 * time.Second,
		CommandTimeout: 60 * time.Second,
	}
}

// ArtifactsConfig describes where packaged outputs are found.
type ArtifactsConfig struct {
	Dir     string `yaml:"dir" env:"DIR"`         // relative to the project root
	Package string `yaml:"package" env:"PACKAGE"` // glob for installable packages
	Bundle  string `yaml:"bundle" env:"BUNDLE"`   // glob for app bundles
}

// DefaultArtifactsConfig returns the standard Android output layout.
func DefaultArtifactsConfig() ArtifactsConfig {
	return ArtifactsConfig{
		Dir:     "build/outputs/apk",
		Package: "**/*.apk",
		Bundle:  "**/*.aab",
	}
}

// ReportConfig controls the persisted build report.
type ReportConfig struct {
	Path  string `yaml:"path" env:"PATH"`   // JSON report, relative to the project root
	JUnit string `yaml:"junit" env:"JUNIT"` // optional JUnit XML of stage results
}

// DefaultReportConfig returns production defaults.
func DefaultReportConfig() ReportConfig {
	return ReportConfig{
		Path: "build_report.json",
	}
}

// CatalogConfig points at the Gradle version catalog.
type CatalogConfig struct {
	Path string `yaml:"path" env:"PATH"`
}

// DefaultCatalogConfig returns the conventional catalog location.
func DefaultCatalogConfig() CatalogConfig {
	return CatalogConfig{Path: "gradle/libs.versions.toml"}
}
