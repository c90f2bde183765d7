package config

import (
	"fmt"
	"strings"
)

// Variant is the Android build profile selector.
type Variant string

const (
	VariantDebug     Variant = "debug"
	VariantRelease   Variant = "release"
	VariantBenchmark Variant = "benchmark"
)

// Variants lists every supported variant in display order.
var Variants = []Variant{VariantDebug, VariantRelease, VariantBenchmark}

// ParseVariant converts a user-supplied name into a Variant.
func ParseVariant(s string) (Variant, error) {
	v := Variant(strings.ToLower(strings.TrimSpace(s)))
	if !v.Valid() {
		return "", fmt.Errorf("unknown build variant %q (supported: debug, release, benchmark)", s)
	}
	return v, nil
}

// Valid reports whether v is one of the supported variants.
func (v Variant) Valid() bool {
	switch v {
	case VariantDebug, VariantRelease, VariantBenchmark:
		return true
	}
	return false
}

// TaskFlavor is the Gradle task infix for the variant. Benchmark builds
// package the debug flavor.
func (v Variant) TaskFlavor() string {
	if v == VariantRelease {
		return "Release"
	}
	return "Debug"
}

// AssembleTask returns assembleDebug or assembleRelease.
func (v Variant) AssembleTask() string {
	return "assemble" + v.TaskFlavor()
}

// BundleTask returns bundleDebug or bundleRelease.
func (v Variant) BundleTask() string {
	return "bundle" + v.TaskFlavor()
}

// Toggles are the feature switches of one build.
type Toggles struct {
	Wear              bool `yaml:"wear" env:"WEAR"`
	DynamicFeatures   bool `yaml:"dynamic_features" env:"DYNAMIC_FEATURES"`
	Tests             bool `yaml:"tests" env:"TESTS"`
	Shrink            bool `yaml:"shrink" env:"SHRINK"`
	UniversalArtifact bool `yaml:"universal_artifact" env:"UNIVERSAL_ARTIFACT"`
}

// BuildSettings is the file/env form of the build intent.
type BuildSettings struct {
	Variant Variant `yaml:"variant" env:"VARIANT"`
	Toggles `yaml:",inline"`
}

// DefaultBuildSettings returns a debug build with every module and tests
// enabled and no universal artifact.
func DefaultBuildSettings() BuildSettings {
	return BuildSettings{
		Variant: VariantDebug,
		Toggles: Toggles{
			Wear:            true,
			DynamicFeatures: true,
			Tests:           true,
			Shrink:          true,
		},
	}
}

// BuildConfig is the resolved build intent for a single run. It is handed
// to the orchestrator by value and never changes once the run starts.
type BuildConfig struct {
	ProjectRoot string
	Variant     Variant
	Toggles     Toggles
}

// BuildConfig resolves the run configuration rooted at projectRoot.
func (c *Config) BuildConfig(projectRoot string) BuildConfig {
	return BuildConfig{
		ProjectRoot: projectRoot,
		Variant:     c.Build.Variant,
		Toggles:     c.Build.Toggles,
	}
}
