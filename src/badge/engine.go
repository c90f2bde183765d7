package badge

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/image/font/gofont/goregular"

	"github.com/supernova/pipboy-build/src/config"
)

// Engine generates SVG badges with one measured font.
type Engine struct {
	face *face
}

// FromConfig loads the configured font file, or the Go Regular font
// bundled with x/image when none is set.
func FromConfig(cfg config.BadgeConfig) (*Engine, error) {
	size := cfg.FontSize
	if size <= 0 {
		size = 11
	}
	data := goregular.TTF
	if cfg.FontFile != "" {
		var err error
		if data, err = os.ReadFile(cfg.FontFile); err != nil {
			return nil, fmt.Errorf("reading badge font: %w", err)
		}
	}
	f, err := loadFace(data, size)
	if err != nil {
		return nil, err
	}
	return &Engine{face: f}, nil
}

// Badge defines the content and appearance of a single badge.
type Badge struct {
	Label string // left side text
	Value string // right side text
	Color string // hex color for right side (e.g. "#4c1")
}

// BuildStatus returns the badge for a finished build:
// "passing 42.1s" on success, "failed" otherwise.
func BuildStatus(label, status string, elapsed time.Duration) Badge {
	value := "failed"
	if status == "success" {
		value = fmt.Sprintf("passing %.1fs", elapsed.Seconds())
	}
	return Badge{Label: label, Value: value, Color: StatusColor(status)}
}

// Generate produces a shields.io-compatible SVG badge string.
func (e *Engine) Generate(b Badge) string {
	return e.renderSVG(b)
}

// WriteFile renders b and writes it to path, creating parent directories.
func (e *Engine) WriteFile(path string, b Badge) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating badge directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(e.Generate(b)), 0o644); err != nil {
		return fmt.Errorf("writing badge: %w", err)
	}
	return nil
}

// StatusColor maps a stage or build status to a badge hex color.
func StatusColor(status string) string {
	switch status {
	case "success":
		return "#4c1"
	case "skipped":
		return "#9f9f9f"
	case "failed":
		return "#e05d44"
	default:
		return "#dfb317"
	}
}
