package build

import (
	"fmt"
	"strings"
	"time"
)

// ToolNotFoundError means the build tool entry point could not be launched.
type ToolNotFoundError struct {
	Tool string
	Err  error
}

func (e *ToolNotFoundError) Error() string {
	return fmt.Sprintf("build tool not found: %s (ensure the Gradle wrapper exists and is executable)", e.Tool)
}

func (e *ToolNotFoundError) Unwrap() error { return e.Err }

// TaskError is a build tool invocation that exited non-zero.
type TaskError struct {
	Tasks    []string
	ExitCode int
	Stderr   string
}

func (e *TaskError) Error() string {
	msg := fmt.Sprintf("gradle task failed: %s (exit %d)", strings.Join(e.Tasks, " "), e.ExitCode)
	if tail := lastLine(e.Stderr); tail != "" {
		msg += ": " + tail
	}
	return msg
}

// TimeoutError is an invocation that did not finish within its bound.
type TimeoutError struct {
	Name    string
	Args    []string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	cmd := strings.TrimSpace(e.Name + " " + strings.Join(e.Args, " "))
	return fmt.Sprintf("timed out after %s: %s", e.Timeout, cmd)
}

// lastLine returns the last non-blank line of s.
func lastLine(s string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if l := strings.TrimSpace(lines[i]); l != "" {
			return l
		}
	}
	return ""
}
