package lint

import (
	"bytes"
	"context"
	"fmt"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// Module is one repository check run by the static analysis stage.
type Module interface {
	Name() string
	Check(ctx context.Context, file FileInfo) ([]Finding, error)
}

// Configurable modules take lint.modules.<name>.options from pipboy.yml.
type Configurable interface {
	Configure(opts map[string]any) error
}

type builtin struct {
	name string
	ctor func() Module
}

// builtins is kept sorted by name. Registration only happens from init,
// so it needs no lock.
var builtins []builtin

// Register adds a built-in module. It panics on a duplicate name.
func Register(name string, ctor func() Module) {
	i, found := slices.BinarySearchFunc(builtins, name, func(b builtin, n string) int {
		return strings.Compare(b.name, n)
	})
	if found {
		panic("lint: module registered twice: " + name)
	}
	builtins = slices.Insert(builtins, i, builtin{name: name, ctor: ctor})
}

// Get returns a fresh instance of the named module.
func Get(name string) (Module, error) {
	for _, b := range builtins {
		if b.name == name {
			return b.ctor(), nil
		}
	}
	return nil, fmt.Errorf("lint: unknown module %q", name)
}

// All returns the registered module names in order.
func All() []string {
	names := make([]string, len(builtins))
	for i, b := range builtins {
		names[i] = b.name
	}
	return names
}

// DecodeOptions decodes a module's options map into out, a pointer to
// the module's option struct with yaml tags. Unknown keys are an error.
func DecodeOptions(opts map[string]any, out any) error {
	if len(opts) == 0 {
		return nil
	}
	raw, err := yaml.Marshal(opts)
	if err != nil {
		return err
	}
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	return dec.Decode(out)
}
