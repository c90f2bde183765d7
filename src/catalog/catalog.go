// Package catalog reads the Gradle version catalog (libs.versions.toml)
// and checks the declared dependency versions.
package catalog

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/pelletier/go-toml/v2"

	"github.com/supernova/pipboy-build/src/config"
	"github.com/supernova/pipboy-build/src/lint"
)

// Kind is the catalog section an entry came from.
type Kind string

const (
	KindLibrary Kind = "library"
	KindPlugin  Kind = "plugin"
)

// Entry is one library or plugin alias.
type Entry struct {
	Alias      string
	Kind       Kind
	Coordinate string // group:name for libraries, plugin id for plugins
	Version    string // literal version, empty when Ref is used
	Ref        string // version.ref target
}

// Catalog is a parsed version catalog.
type Catalog struct {
	Path     string
	Versions map[string]string
	Entries  []Entry
	Bundles  map[string][]string
}

type rawCatalog struct {
	Versions  map[string]any      `toml:"versions"`
	Libraries map[string]any      `toml:"libraries"`
	Plugins   map[string]any      `toml:"plugins"`
	Bundles   map[string][]string `toml:"bundles"`
}

// Load reads and parses the catalog at path.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	c.Path = path
	return c, nil
}

// Parse decodes catalog TOML.
func Parse(data []byte) (*Catalog, error) {
	var raw rawCatalog
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	c := &Catalog{
		Versions: make(map[string]string, len(raw.Versions)),
		Bundles:  raw.Bundles,
	}
	for alias, v := range raw.Versions {
		c.Versions[alias] = versionValue(v)
	}

	for alias, v := range raw.Libraries {
		e, err := libraryEntry(alias, v)
		if err != nil {
			return nil, err
		}
		c.Entries = append(c.Entries, e)
	}
	for alias, v := range raw.Plugins {
		e, err := pluginEntry(alias, v)
		if err != nil {
			return nil, err
		}
		c.Entries = append(c.Entries, e)
	}

	sort.Slice(c.Entries, func(i, j int) bool {
		if c.Entries[i].Kind != c.Entries[j].Kind {
			return c.Entries[i].Kind == KindLibrary
		}
		return c.Entries[i].Alias < c.Entries[j].Alias
	})
	return c, nil
}

// Count returns the number of libraries and plugins.
func (c *Catalog) Count() (libraries, plugins int) {
	for _, e := range c.Entries {
		if e.Kind == KindLibrary {
			libraries++
		} else {
			plugins++
		}
	}
	return libraries, plugins
}

// Resolve returns the effective version of e, following version.ref.
func (c *Catalog) Resolve(e Entry) (string, bool) {
	if e.Ref == "" {
		return e.Version, e.Version != ""
	}
	v, ok := c.Versions[e.Ref]
	return v, ok
}

// Check reports unresolved references, versions that are not semantic
// versions, and prerelease versions in release builds.
func (c *Catalog) Check(variant config.Variant) []lint.Finding {
	file := c.Path
	if file == "" {
		file = "libs.versions.toml"
	}

	var findings []lint.Finding
	add := func(sev lint.Severity, format string, args ...any) {
		findings = append(findings, lint.Finding{
			File:     file,
			Module:   "catalog",
			Severity: sev,
			Message:  fmt.Sprintf(format, args...),
		})
	}

	for _, e := range c.Entries {
		version, ok := c.Resolve(e)
		if !ok {
			if e.Ref != "" {
				add(lint.SeverityWarning, "%s %s: version.ref %q is not declared in [versions]", e.Kind, e.Alias, e.Ref)
			}
			continue
		}

		sv, err := semver.NewVersion(version)
		if err != nil {
			add(lint.SeverityInfo, "%s %s: %q is not a semantic version", e.Kind, e.Alias, version)
			continue
		}
		if sv.Prerelease() != "" && variant == config.VariantRelease {
			add(lint.SeverityWarning, "%s %s: prerelease version %s in a release build", e.Kind, e.Alias, version)
		}
	}
	return findings
}

// versionValue extracts a version from a plain string or a rich version
// table, preferring strictly over require over prefer.
func versionValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case map[string]any:
		for _, key := range []string{"strictly", "require", "prefer"} {
			if s, ok := t[key].(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}

func libraryEntry(alias string, v any) (Entry, error) {
	e := Entry{Alias: alias, Kind: KindLibrary}

	switch t := v.(type) {
	case string:
		// group:name:version
		parts := strings.Split(t, ":")
		if len(parts) < 2 {
			return e, fmt.Errorf("library %s: invalid notation %q", alias, t)
		}
		e.Coordinate = parts[0] + ":" + parts[1]
		if len(parts) > 2 {
			e.Version = parts[2]
		}
	case map[string]any:
		if m, ok := t["module"].(string); ok {
			e.Coordinate = m
		} else {
			group, _ := t["group"].(string)
			name, _ := t["name"].(string)
			if group == "" || name == "" {
				return e, fmt.Errorf("library %s: module or group and name are required", alias)
			}
			e.Coordinate = group + ":" + name
		}
		e.Version, e.Ref = versionOrRef(t["version"])
	default:
		return e, fmt.Errorf("library %s: unsupported value %T", alias, v)
	}
	return e, nil
}

func pluginEntry(alias string, v any) (Entry, error) {
	e := Entry{Alias: alias, Kind: KindPlugin}

	switch t := v.(type) {
	case string:
		// id:version
		id, version, _ := strings.Cut(t, ":")
		e.Coordinate, e.Version = id, version
	case map[string]any:
		id, ok := t["id"].(string)
		if !ok || id == "" {
			return e, fmt.Errorf("plugin %s: id is required", alias)
		}
		e.Coordinate = id
		e.Version, e.Ref = versionOrRef(t["version"])
	default:
		return e, fmt.Errorf("plugin %s: unsupported value %T", alias, v)
	}
	return e, nil
}

// versionOrRef interprets the value of a version key: a literal, a
// {ref = "..."} table (written version.ref), or a rich version table.
func versionOrRef(v any) (version, ref string) {
	if m, ok := v.(map[string]any); ok {
		if r, ok := m["ref"].(string); ok {
			return "", r
		}
	}
	return versionValue(v), ""
}
