package lint

import (
	"path"
	"strings"
)

// DynamicFeatureModule is the on-demand module large assets can move to.
const DynamicFeatureModule = "dynamic-feature-inventory"

// AssetClass groups project files by how they end up in an APK.
type AssetClass string

const (
	ClassRawResource AssetClass = "raw resource"
	ClassDrawable    AssetClass = "drawable"
	ClassAsset       AssetClass = "asset"
	ClassMedia       AssetClass = "media file"
	ClassBuildScript AssetClass = "build script"
	ClassLibrary     AssetClass = "prebuilt library"
	ClassOther       AssetClass = "file"
)

var mediaExts = map[string]bool{
	".ogg": true, ".wav": true, ".mp3": true, ".m4a": true, ".flac": true,
	".mp4": true, ".webm": true, ".mkv": true,
}

// Location says where a project file lives in the Android layout.
type Location struct {
	// Module is the Gradle module directory name under src/, or empty for
	// files owned by the root project.
	Module string
	Class  AssetClass
}

// ModuleLabel is the module name for messages.
func (l Location) ModuleLabel() string {
	if l.Module == "" {
		return "root project"
	}
	return "module " + l.Module
}

// Locate classifies a slash-separated path relative to the project root.
func Locate(p string) Location {
	var loc Location
	if rest, ok := strings.CutPrefix(p, "src/"); ok {
		if mod, _, nested := strings.Cut(rest, "/"); nested && mod != "main" {
			loc.Module = mod
		}
	}

	base := path.Base(p)
	ext := strings.ToLower(path.Ext(base))
	switch {
	case strings.Contains(p, "/res/raw/"):
		loc.Class = ClassRawResource
	case strings.Contains(p, "/res/drawable") || strings.Contains(p, "/res/mipmap"):
		loc.Class = ClassDrawable
	case strings.Contains(p, "/assets/"):
		loc.Class = ClassAsset
	case mediaExts[ext]:
		loc.Class = ClassMedia
	case ext == ".gradle" || strings.HasSuffix(base, ".gradle.kts") ||
		ext == ".properties" || ext == ".toml":
		loc.Class = ClassBuildScript
	case ext == ".jar" || ext == ".aar" || ext == ".so":
		loc.Class = ClassLibrary
	default:
		loc.Class = ClassOther
	}
	return loc
}
