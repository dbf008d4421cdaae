// Package orchestrator drives the lifecycle of workspace components through
// the compose tool.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"

	"github.com/artpar/uniform/internal/core/domain"
	"github.com/artpar/uniform/internal/core/variables"
	"github.com/artpar/uniform/internal/core/workspace"
)

// DefaultExecService is the compose service that exec targets.
const DefaultExecService = "app"

// Runner invokes the compose tool for a component. *compose.Client
// implements it.
type Runner interface {
	Run(ctx context.Context, c *workspace.Component, interactive bool, args ...string) (string, error)
}

// Prober reports the running containers of a component as
// `compose ps -q` would print them.
type Prober interface {
	ContainerID(ctx context.Context, c *workspace.Component) (string, error)
}

// ComposeProber asks the compose tool itself.
type ComposeProber struct {
	runner Runner
}

// NewComposeProber creates a ComposeProber.
func NewComposeProber(runner Runner) *ComposeProber {
	return &ComposeProber{runner: runner}
}

// ContainerID runs `ps --status=running -q` captured.
func (p *ComposeProber) ContainerID(ctx context.Context, c *workspace.Component) (string, error) {
	return p.runner.Run(ctx, c, false, "ps", "--status=running", "-q")
}

// =============================================================================
// Orchestrator
// =============================================================================

// Orchestrator manages the lifecycle of the components of one workspace.
// Operations run sequentially; only the workspace snapshots are mutated.
type Orchestrator struct {
	ws          *workspace.Workspace
	runner      Runner
	prober      Prober
	opts        domain.GlobalOptions
	execService string
	isTerminal  func() bool
	logger      *slog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithProber replaces the compose based running-state probe.
func WithProber(p Prober) Option {
	return func(o *Orchestrator) { o.prober = p }
}

// WithExecService sets the compose service used by Exec.
func WithExecService(name string) Option {
	return func(o *Orchestrator) {
		if name != "" {
			o.execService = name
		}
	}
}

// WithTerminalCheck overrides the "stdout is a terminal" test.
func WithTerminalCheck(fn func() bool) Option {
	return func(o *Orchestrator) { o.isTerminal = fn }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// New creates an Orchestrator for an initialized workspace.
func New(ws *workspace.Workspace, runner Runner, opts domain.GlobalOptions, options ...Option) *Orchestrator {
	o := &Orchestrator{
		ws:          ws,
		runner:      runner,
		opts:        opts,
		execService: DefaultExecService,
		isTerminal:  func() bool { return term.IsTerminal(int(os.Stdout.Fd())) },
		logger:      slog.Default(),
	}
	for _, opt := range options {
		opt(o)
	}
	if o.prober == nil {
		o.prober = NewComposeProber(runner)
	}
	o.logger = o.logger.With("component", "orchestrator")
	return o
}

// Workspace returns the workspace the orchestrator acts on.
func (o *Orchestrator) Workspace() *workspace.Workspace {
	return o.ws
}

// Prober returns the running-state probe in use.
func (o *Orchestrator) Prober() Prober {
	return o.prober
}

// =============================================================================
// Targets
// =============================================================================

// Targets resolves the components an operation applies to. Explicit names
// win; with no names the --tag option selects every executable component
// carrying that tag. Templates are rejected.
func (o *Orchestrator) Targets(names []string) ([]*workspace.Component, error) {
	if len(names) == 0 && o.opts.Tag != "" {
		return o.ws.ByTag(o.opts.Tag), nil
	}
	out := make([]*workspace.Component, 0, len(names))
	for _, name := range names {
		c, err := o.ws.LookupExecutable(name)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// =============================================================================
// Running State
// =============================================================================

// ContainerID returns the probe output for c, trimmed.
func (o *Orchestrator) ContainerID(ctx context.Context, c *workspace.Component) (string, error) {
	out, err := o.prober.ContainerID(ctx, c)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// IsRunning reports whether c has a running container. A component
// started earlier in this process counts as running without a probe
// unless Force is set.
func (o *Orchestrator) IsRunning(ctx context.Context, c *workspace.Component) (bool, error) {
	if o.ws.Current(c).JustStarted && !o.opts.Force {
		return true, nil
	}
	id, err := o.ContainerID(ctx, c)
	if err != nil {
		return false, err
	}
	return id != "", nil
}

// =============================================================================
// Lifecycle
// =============================================================================

// Start brings c up, after its active dependencies. It returns an
// "already running" message without invoking the tool when c runs and
// Force is not set.
//
// Dependencies are started one at a time in resolver order, each after
// checking its own running state. A dependency whose probe or bring-up
// fails with an external tool error is logged and skipped; configuration,
// reference and cycle errors abort before anything is started.
func (o *Orchestrator) Start(ctx context.Context, c *workspace.Component) (string, error) {
	if err := checkExecutable(c); err != nil {
		return "", err
	}

	running, err := o.IsRunning(ctx, c)
	if err != nil {
		return "", err
	}
	if running && !o.opts.Force {
		return fmt.Sprintf("🚀 Component %q is already running", c.Name), nil
	}

	deps, err := o.ws.ResolveDependencies(c, o.opts.EffectiveMode())
	if err != nil {
		return "", err
	}
	for _, dep := range deps {
		if err := checkExecutable(dep); err != nil {
			return "", err
		}
	}

	if len(deps) > 0 {
		o.logger.Info("starting dependencies", "service", c.Name, "dependencies", names(deps))
	}
	for _, dep := range deps {
		if err := o.startDependency(ctx, dep); err != nil {
			return "", err
		}
	}

	out, err := o.runner.Run(ctx, c, true, "up", "-d")
	if err != nil {
		return "", err
	}
	o.ws.MarkStarted(c.Name)
	return out, nil
}

// startDependency brings dep up unless it already runs. External tool
// failures are logged and swallowed.
func (o *Orchestrator) startDependency(ctx context.Context, dep *workspace.Component) error {
	running, err := o.IsRunning(ctx, dep)
	if err != nil {
		return o.softFail(dep, err)
	}
	if running && !o.opts.Force {
		o.logger.Debug("dependency already running", "service", dep.Name)
		return nil
	}
	if _, err := o.runner.Run(ctx, dep, true, "up", "-d"); err != nil {
		return o.softFail(dep, err)
	}
	o.ws.MarkStarted(dep.Name)
	return nil
}

func (o *Orchestrator) softFail(dep *workspace.Component, err error) error {
	if errors.Is(err, domain.ErrExternalTool) {
		o.logger.Warn("dependency failed to start, continuing", "service", dep.Name, "error", err)
		return nil
	}
	return err
}

// Stop stops the containers of c, or returns an "already stopped"
// message when nothing runs.
func (o *Orchestrator) Stop(ctx context.Context, c *workspace.Component) (string, error) {
	if err := checkExecutable(c); err != nil {
		return "", err
	}
	running, err := o.IsRunning(ctx, c)
	if err != nil {
		return "", err
	}
	if !running {
		return fmt.Sprintf("📴 Component %q is already stopped", c.Name), nil
	}
	out, err := o.runner.Run(ctx, c, true, "stop")
	if err != nil {
		return "", err
	}
	o.ws.MarkStopped(c.Name)
	return out, nil
}

// Destroy tears down the containers of c when it runs.
func (o *Orchestrator) Destroy(ctx context.Context, c *workspace.Component) error {
	if err := checkExecutable(c); err != nil {
		return err
	}
	running, err := o.IsRunning(ctx, c)
	if err != nil {
		return err
	}
	if !running {
		return nil
	}
	if _, err := o.runner.Run(ctx, c, true, "down"); err != nil {
		return err
	}
	o.ws.MarkStopped(c.Name)
	return nil
}

// Restart stops (or with hard, destroys) c and starts it again.
func (o *Orchestrator) Restart(ctx context.Context, c *workspace.Component, hard bool) (string, error) {
	if hard {
		if err := o.Destroy(ctx, c); err != nil {
			return "", err
		}
	} else if _, err := o.Stop(ctx, c); err != nil {
		return "", err
	}
	return o.Start(ctx, c)
}

// Exec starts c if needed and runs command in its exec service.
//
// The user is the UID option when set, else USER_ID:GROUP_ID from the
// component context; neither is an error raised before anything starts.
// The working directory is the WorkingDir option, else the component's
// execPath. -T is passed when NoTTY is set or stdout is not a terminal.
func (o *Orchestrator) Exec(ctx context.Context, c *workspace.Component, command []string, interactive bool) (string, error) {
	if err := checkExecutable(c); err != nil {
		return "", err
	}
	args, err := o.execArgs(c, command)
	if err != nil {
		return "", err
	}

	if _, err := o.Start(ctx, c); err != nil {
		return "", err
	}
	return o.runner.Run(ctx, o.ws.Current(c), interactive, args...)
}

func (o *Orchestrator) execArgs(c *workspace.Component, command []string) ([]string, error) {
	args := []string{"exec"}

	if dir := o.workingDir(c); dir != "" {
		args = append(args, "-w", dir)
	}

	user, err := o.execUser(c)
	if err != nil {
		return nil, err
	}
	args = append(args, "-u", user)

	if o.opts.NoTTY || !o.isTerminal() {
		args = append(args, "-T")
	}

	args = append(args, o.execService)
	return append(args, command...), nil
}

func (o *Orchestrator) workingDir(c *workspace.Component) string {
	if o.opts.WorkingDir != "" {
		return o.opts.WorkingDir
	}
	if c.Config.ExecPath != "" {
		return variables.Substitute(c.Config.ExecPath, c.Context)
	}
	return ""
}

func (o *Orchestrator) execUser(c *workspace.Component) (string, error) {
	if o.opts.UID != nil {
		return strconv.Itoa(*o.opts.UID), nil
	}
	uid, ok := c.Var(workspace.KeyUserID)
	if !ok {
		return "", domain.NewStateError("exec", c.Name, `variable "USER_ID" is not set`, nil)
	}
	gid, ok := c.Var(workspace.KeyGroupID)
	if !ok {
		return "", domain.NewStateError("exec", c.Name, `variable "GROUP_ID" is not set`, nil)
	}
	return uid + ":" + gid, nil
}

// Compose passes args through to the compose tool for c, interactively.
func (o *Orchestrator) Compose(ctx context.Context, c *workspace.Component, args []string) error {
	if err := checkExecutable(c); err != nil {
		return err
	}
	_, err := o.runner.Run(ctx, c, true, args...)
	return err
}

func checkExecutable(c *workspace.Component) error {
	if c.IsTemplate() {
		return domain.NewStateError("execute", c.Name,
			"is a service template, use one of its instances instead", nil)
	}
	return nil
}

func names(cs []*workspace.Component) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.Name
	}
	return out
}
