package config

// BadgeConfig holds build-status badge generation configuration.
type BadgeConfig struct {
	Enabled  bool    `yaml:"enabled" env:"ENABLED"`
	Label    string  `yaml:"label" env:"LABEL"`         // left side text
	Output   string  `yaml:"output" env:"OUTPUT"`       // relative to the project root
	FontSize float64 `yaml:"font_size" env:"FONT_SIZE"` // pixel size (default: 11)
	FontFile string  `yaml:"font_file" env:"FONT_FILE"` // custom TTF/OTF, default is the embedded Go font
}

// DefaultBadgeConfig returns sensible defaults for badge generation.
func DefaultBadgeConfig() BadgeConfig {
	return BadgeConfig{
		Label:    "build",
		Output:   "build/badges/build.svg",
		FontSize: 11,
	}
}
