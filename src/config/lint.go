package config

// ModuleConfig holds per-module overrides.
type ModuleConfig struct {
	Enabled *bool          `yaml:"enabled,omitempty"`
	Options map[string]any `yaml:"options,omitempty"`
}

// LintConfig holds configuration for the built-in repository checks that
// run during static analysis.
type LintConfig struct {
	Enabled       bool                    `yaml:"enabled" env:"ENABLED"`
	Include       []string                `yaml:"include"`
	Exclude       []string                `yaml:"exclude"`
	Modules       map[string]ModuleConfig `yaml:"modules"`
	LargeFilesMax int64                   `yaml:"large_files_max" env:"LARGE_FILES_MAX"`
}

// DefaultLintConfig returns production defaults.
func DefaultLintConfig() LintConfig {
	return LintConfig{
		Enabled: true,
		Include: []string{
			"*.properties",
			"**/*.gradle",
			"**/*.gradle.kts",
			"src/**/*.json",
			"src/**/res/raw/**",
			"src/**/assets/**",
			"src/**/*.{ogg,wav,mp3,m4a,mp4,webm}",
		},
		Exclude:       []string{"build/**", "**/build/**", ".gradle/**"},
		Modules:       map[string]ModuleConfig{},
		LargeFilesMax: 5 * 1024 * 1024, // 5 MiB
	}
}
