// Package compose runs the container tool's compose subcommand on behalf
// of workspace components.
package compose

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/artpar/uniform/internal/core/domain"
	"github.com/artpar/uniform/internal/core/paths"
)

// =============================================================================
// Invocation
// =============================================================================

// Invocation is a fully built external tool call. Args never pass through
// a shell.
type Invocation struct {
	Program     string
	Args        []string
	Context     *domain.Context // added to the process environment
	Dir         string          // working directory, empty for the current one
	Interactive bool            // inherit standard streams instead of capturing
}

// Argv returns the program followed by its arguments.
func (i Invocation) Argv() []string {
	return append([]string{i.Program}, i.Args...)
}

// String joins the argument vector for display. It is not shell-quoted and
// must not be executed.
func (i Invocation) String() string {
	return strings.Join(i.Argv(), " ")
}

// =============================================================================
// Executor
// =============================================================================

// Executor runs invocations. Captured runs return stdout.
type Executor interface {
	Run(ctx context.Context, inv Invocation) (string, error)
}

// ProcessExecutor spawns real processes.
type ProcessExecutor struct {
	Rewrite paths.Rewriter
	Stdin   io.Reader
	Stdout  io.Writer
	Stderr  io.Writer
}

// NewPlatformExecutor returns a ProcessExecutor wired to the standard
// streams, with the path rewrite of the host platform.
func NewPlatformExecutor() *ProcessExecutor {
	return &ProcessExecutor{
		Rewrite: paths.ForOS(runtime.GOOS),
		Stdin:   os.Stdin,
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
	}
}

// Environ returns the environment handed to the process: the current
// environment followed by the rewritten invocation context.
func (e *ProcessExecutor) Environ(inv Invocation) []string {
	rewrite := e.Rewrite
	if rewrite == nil {
		rewrite = paths.Identity
	}
	return append(os.Environ(), domain.Environ(rewrite(inv.Context))...)
}

// Run executes inv and waits for it to exit. A non-zero exit returns a
// *domain.ExternalToolError; in captured mode it carries stderr.
func (e *ProcessExecutor) Run(ctx context.Context, inv Invocation) (string, error) {
	cmd := exec.CommandContext(ctx, inv.Program, inv.Args...)
	cmd.Env = e.Environ(inv)
	cmd.Dir = inv.Dir

	if inv.Interactive {
		cmd.Stdin = e.Stdin
		cmd.Stdout = e.Stdout
		cmd.Stderr = e.Stderr
		if err := cmd.Run(); err != nil {
			return "", domain.NewExternalToolError(inv.Argv(), exitCode(err), "", err)
		}
		return "", nil
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return stdout.String(), domain.NewExternalToolError(inv.Argv(), exitCode(err), stderr.String(), err)
	}
	return stdout.String(), nil
}

// exitCode extracts the process exit status, or -1 when the process did
// not run to completion.
func exitCode(err error) int {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}
