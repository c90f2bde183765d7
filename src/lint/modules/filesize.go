package modules

import (
	"context"
	"fmt"
	"path"

	"github.com/supernova/pipboy-build/src/lint"
)

const defaultMaxBytes int64 = 5 << 20

func init() {
	lint.Register("filesize", func() lint.Module {
		return &filesizeModule{maxBytes: defaultMaxBytes}
	})
}

// filesizeModule flags files that bloat the base APK. The hint depends on
// where the file sits: sounds and images in a base module belong in the
// on-demand inventory feature, loose media belongs under res/raw.
type filesizeModule struct {
	maxBytes int64
}

type filesizeOptions struct {
	MaxBytes int64 `yaml:"max_bytes"`
}

func (m *filesizeModule) Name() string { return "filesize" }

func (m *filesizeModule) Configure(opts map[string]any) error {
	var o filesizeOptions
	if err := lint.DecodeOptions(opts, &o); err != nil {
		return fmt.Errorf("filesize options: %w", err)
	}
	switch {
	case o.MaxBytes < 0:
		return fmt.Errorf("filesize: max_bytes must be non-negative, got %d", o.MaxBytes)
	case o.MaxBytes == 0:
		m.maxBytes = defaultMaxBytes
	default:
		m.maxBytes = o.MaxBytes
	}
	return nil
}

func (m *filesizeModule) Check(_ context.Context, file lint.FileInfo) ([]lint.Finding, error) {
	if file.Size <= m.maxBytes {
		return nil, nil
	}

	loc := lint.Locate(file.Path)
	msg := fmt.Sprintf("%s in %s is %s, over the %s limit",
		loc.Class, loc.ModuleLabel(), humanSize(file.Size), humanSize(m.maxBytes))
	sev := lint.SeverityWarning

	switch {
	case loc.Module == lint.DynamicFeatureModule:
		// Delivered on demand, so it does not grow the install size.
		sev = lint.SeverityInfo
	case loc.Class == lint.ClassMedia:
		msg += "; keep media under " + rawDir(loc.Module)
	case loc.Class == lint.ClassRawResource, loc.Class == lint.ClassDrawable, loc.Class == lint.ClassAsset:
		msg += "; move it to src/" + lint.DynamicFeatureModule + " to ship it on demand"
	}

	return []lint.Finding{{
		File:     file.Path,
		Module:   m.Name(),
		Severity: sev,
		Message:  msg,
	}}, nil
}

func rawDir(module string) string {
	if module == "" {
		return "src/main/res/raw"
	}
	return path.Join("src", module, "src/main/res/raw")
}

func humanSize(b int64) string {
	switch {
	case b >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(b)/(1<<20))
	case b >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(b)/(1<<10))
	default:
		return fmt.Sprintf("%d B", b)
	}
}
