// Package command abstracts process creation and parses the command lines
// found in session configuration.
package command

import (
	"context"
	"os/exec"
)

// Executor creates exec.Cmd instances. The indirection exists for tests:
// the supervisor spawns whatever the executor hands back, so tests can
// substitute shell stand-ins for the CV pipeline.
type Executor interface {
	Command(name string, args ...string) *exec.Cmd
	CommandContext(ctx context.Context, name string, args ...string) *exec.Cmd
}

// RealExecutor creates commands with the standard os/exec package.
type RealExecutor struct{}

func (e *RealExecutor) Command(name string, args ...string) *exec.Cmd {
	return exec.Command(name, args...)
}

func (e *RealExecutor) CommandContext(ctx context.Context, name string, args ...string) *exec.Cmd {
	return exec.CommandContext(ctx, name, args...)
}
