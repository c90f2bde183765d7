package pipeline

import "fmt"

// PathKind says what a required path is.
type PathKind string

const (
	PathFile   PathKind = "file"
	PathModule PathKind = "module directory"
)

// MissingPathError is a structural failure: a required project path does
// not exist. Path is relative to the project root.
type MissingPathError struct {
	Path string
	Kind PathKind
}

func (e *MissingPathError) Error() string {
	return fmt.Sprintf("required %s missing: %s", e.Kind, e.Path)
}
