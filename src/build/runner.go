package build

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os/exec"
	"strings"
	"time"
)

// Invocation is one external command run.
type Invocation struct {
	Dir     string
	Name    string
	Args    []string
	Timeout time.Duration // zero means no bound
}

// String renders the command line.
func (inv Invocation) String() string {
	return strings.TrimSpace(inv.Name + " " + strings.Join(inv.Args, " "))
}

// Outcome is the result of a command that ran to completion.
type Outcome struct {
	ExitCode int
	Stderr   string
	Duration time.Duration
}

// Runner runs an external command with a timeout and captures its exit
// code and standard error.
//
// A command that starts and exits, successfully or not, yields an Outcome
// and a nil error. Errors are reserved for commands that could not be
// launched (*ToolNotFoundError), that exceeded their bound (*TimeoutError)
// or whose context was cancelled.
type Runner interface {
	Run(ctx context.Context, inv Invocation) (*Outcome, error)
}

// ExecRunner implements Runner with os/exec.
type ExecRunner struct {
	// Stdout receives the command's standard output. Defaults to discard.
	Stdout io.Writer
	// Stderr additionally receives standard error as it is produced.
	Stderr io.Writer
}

// Run executes inv, blocking until it exits, times out or parent is done.
func (r *ExecRunner) Run(parent context.Context, inv Invocation) (*Outcome, error) {
	ctx := parent
	if inv.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, inv.Timeout)
		defer cancel()
	}

	start := time.Now()

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, inv.Name, inv.Args...)
	cmd.Dir = inv.Dir
	cmd.Stdout = io.Discard
	if r.Stdout != nil {
		cmd.Stdout = r.Stdout
	}
	cmd.Stderr = &stderr
	if r.Stderr != nil {
		cmd.Stderr = io.MultiWriter(&stderr, r.Stderr)
	}
	// Grandchildren holding the pipes open must not stall Wait after a kill.
	cmd.WaitDelay = 2 * time.Second

	err := cmd.Run()
	out := &Outcome{Stderr: stderr.String(), Duration: time.Since(start)}

	// A cancelled or expired parent is the caller's error, not our bound.
	if parentErr := parent.Err(); parentErr != nil {
		return out, fmt.Errorf("running %s: %w", inv, parentErr)
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			return out, &TimeoutError{Name: inv.Name, Args: inv.Args, Timeout: inv.Timeout}
		}
		return out, fmt.Errorf("running %s: %w", inv, ctxErr)
	}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		return out, nil
	case errors.As(err, &exitErr):
		out.ExitCode = exitErr.ExitCode()
		return out, nil
	case errors.Is(err, fs.ErrNotExist), errors.Is(err, exec.ErrNotFound):
		return nil, &ToolNotFoundError{Tool: inv.Name, Err: err}
	default:
		return nil, fmt.Errorf("running %s: %w", inv, err)
	}
}
