package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"

	"github.com/artpar/uniform/internal/core/domain"
)

// Version information (set by build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

// Exit codes
const (
	ExitSuccess           = 0
	ExitFailure           = 1
	ExitConfigError       = 2
	ExitReferenceError    = 3
	ExitStateError        = 4
	ExitExternalToolError = 5
	ExitIOError           = 6
	ExitCycleError        = 7
)

func main() {
	os.Exit(run())
}

func run() int {
	a := newApp(os.Stdout, os.Stderr)
	defer a.close()

	cmd := newRootCommand(a)
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("✖ %v", err))
		return exitCode(err)
	}
	return ExitSuccess
}

// exitCode maps an error onto the process exit status. A ConfigError is
// checked first since it may wrap an IOError.
func exitCode(err error) int {
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, domain.ErrConfig):
		return ExitConfigError
	case errors.Is(err, domain.ErrCycle):
		return ExitCycleError
	case errors.Is(err, domain.ErrReference):
		return ExitReferenceError
	case errors.Is(err, domain.ErrState):
		return ExitStateError
	case errors.Is(err, domain.ErrExternalTool):
		return ExitExternalToolError
	case errors.Is(err, domain.ErrIO):
		return ExitIOError
	default:
		return ExitFailure
	}
}
