package build

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Gradle drives the project's Gradle wrapper through a Runner.
type Gradle struct {
	Runner         Runner
	Dir            string        // project root, working directory of every call
	Wrapper        string        // e.g. ./gradlew
	TaskTimeout    time.Duration // bound for Tasks
	CommandTimeout time.Duration // bound for Command
	Logger         *zap.Logger
}

// Tasks runs the wrapper once with the given task names.
// A non-zero exit is returned as *TaskError carrying the captured stderr.
func (g *Gradle) Tasks(ctx context.Context, tasks ...string) error {
	inv := Invocation{
		Dir:     g.Dir,
		Name:    g.Wrapper,
		Args:    tasks,
		Timeout: g.TaskTimeout,
	}
	out, err := g.run(ctx, inv)
	if err != nil {
		return err
	}
	if out.ExitCode != 0 {
		return &TaskError{Tasks: tasks, ExitCode: out.ExitCode, Stderr: out.Stderr}
	}
	return nil
}

// Command runs an ad-hoc command with the shorter CommandTimeout bound.
// It reports failures like Tasks; callers decide whether they are fatal.
func (g *Gradle) Command(ctx context.Context, name string, args ...string) error {
	inv := Invocation{
		Dir:     g.Dir,
		Name:    name,
		Args:    args,
		Timeout: g.CommandTimeout,
	}
	out, err := g.run(ctx, inv)
	if err != nil {
		return err
	}
	if out.ExitCode != 0 {
		return &TaskError{Tasks: append([]string{name}, args...), ExitCode: out.ExitCode, Stderr: out.Stderr}
	}
	return nil
}

func (g *Gradle) run(ctx context.Context, inv Invocation) (*Outcome, error) {
	log := g.logger()
	log.Debug("exec", zap.String("cmd", inv.String()), zap.String("dir", inv.Dir), zap.Duration("timeout", inv.Timeout))

	out, err := g.Runner.Run(ctx, inv)
	if err != nil {
		log.Debug("exec failed", zap.String("cmd", inv.String()), zap.Error(err))
		return nil, err
	}

	log.Debug("exec finished",
		zap.String("cmd", inv.String()),
		zap.Int("exit_code", out.ExitCode),
		zap.Duration("elapsed", out.Duration),
	)
	return out, nil
}

func (g *Gradle) logger() *zap.Logger {
	if g.Logger == nil {
		return zap.NewNop()
	}
	return g.Logger
}
