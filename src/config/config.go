package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is looked up in the project root when no --config is given.
const DefaultConfigFile = ".pipboy-build.yml"

// envPrefix scopes every environment override, e.g. PIPBOY_BUILD_VARIANT.
const envPrefix = "PIPBOY_"

// Config is the top-level pipboy-build configuration.
type Config struct {
	Build     BuildSettings   `yaml:"build" envPrefix:"BUILD_"`
	Gradle    GradleConfig    `yaml:"gradle" envPrefix:"GRADLE_"`
	Artifacts ArtifactsConfig `yaml:"artifacts" envPrefix:"ARTIFACTS_"`
	Report    ReportConfig    `yaml:"report" envPrefix:"REPORT_"`
	Catalog   CatalogConfig   `yaml:"catalog" envPrefix:"CATALOG_"`
	Lint      LintConfig      `yaml:"lint" envPrefix:"LINT_"`
	Badge     BadgeConfig     `yaml:"badge" envPrefix:"BADGE_"`
}

// Load reads configuration from a YAML file and applies PIPBOY_* overrides
// from environ.
// If path is empty, it tries DefaultConfigFile inside projectRoot.
// Returns defaults if the file doesn't exist.
func Load(path, projectRoot string, environ []string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = filepath.Join(projectRoot, DefaultConfigFile)
	}

	cfg := defaults()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
		// no config file, defaults apply
	default:
		return nil, err
	}

	if err := applyEnv(cfg, environ); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overlays environment variables onto cfg. Unset variables leave
// the loaded values untouched.
func applyEnv(cfg *Config, environ []string) error {
	err := env.ParseWithOptions(cfg, env.Options{
		Environment: env.ToMap(environ),
		Prefix:      envPrefix,
	})
	if err != nil {
		return fmt.Errorf("reading environment overrides: %w", err)
	}
	return nil
}

// Defaults returns the configuration used when no file is present.
func Defaults() *Config {
	return defaults()
}

func defaults() *Config {
	return &Config{
		Build:     DefaultBuildSettings(),
		Gradle:    DefaultGradleConfig(),
		Artifacts: DefaultArtifactsConfig(),
		Report:    DefaultReportConfig(),
		Catalog:   DefaultCatalogConfig(),
		Lint:      DefaultLintConfig(),
		Badge:     DefaultBadgeConfig(),
	}
}
