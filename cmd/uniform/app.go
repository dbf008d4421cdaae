package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/artpar/uniform/internal/core/domain"
	"github.com/artpar/uniform/internal/core/workspace"
	"github.com/artpar/uniform/internal/shell/compose"
	"github.com/artpar/uniform/internal/shell/descriptor"
	"github.com/artpar/uniform/internal/shell/docker"
	"github.com/artpar/uniform/internal/shell/orchestrator"
	"github.com/artpar/uniform/internal/shell/status"
	"github.com/artpar/uniform/internal/shell/store"
)

// globalFlags are the persistent flags shared by every command.
type globalFlags struct {
	configPath string
	project    string
	workspace  string
	mode       string
	tag        string
	workdir    string
	uid        int
	debug      bool
	force      bool
	dryRun     bool
	noTTY      bool
}

// app carries the state of one CLI invocation.
type app struct {
	flags  globalFlags
	cfg    *Config
	logger *slog.Logger
	stdout io.Writer
	stderr io.Writer

	// options is set by the root command before any subcommand runs.
	options domain.GlobalOptions

	closers []func()
}

func newApp(stdout, stderr io.Writer) *app {
	return &app{stdout: stdout, stderr: stderr, logger: slog.Default()}
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// setup loads configuration, installs the logger and builds the global
// options from the flags.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := LoadConfig(a.flags.configPath)
	if err != nil {
		return domain.NewConfigError(a.flags.configPath, "", err)
	}
	a.cfg = cfg
	a.logger = SetupLogger(cfg, a.stderr, a.flags.debug)
	slog.SetDefault(a.logger)

	mode, err := domain.ParseMode(a.flags.mode)
	if err != nil {
		return domain.NewConfigError("--mode", "", err)
	}
	a.options = domain.GlobalOptions{
		Mode:       mode,
		Force:      a.flags.force,
		WorkingDir: a.flags.workdir,
		DryRun:     a.flags.dryRun,
		NoTTY:      a.flags.noTTY,
		Tag:        a.flags.tag,
		Debug:      a.flags.debug,
	}
	if cmd.Flags().Changed("uid") {
		uid := a.flags.uid
		a.options.UID = &uid
	}
	return nil
}

// =============================================================================
// Registry
// =============================================================================

func (a *app) registry() (*store.Registry, error) {
	dsn := a.cfg.Registry.DSN
	if dsn != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
			return nil, domain.NewIOError("mkdir", filepath.Dir(dsn), err)
		}
	}
	s, err := store.NewSQLiteStore(dsn)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func() { s.Close() })
	return store.NewRegistry(s, a.logger), nil
}

// =============================================================================
// Workspace
// =============================================================================

// workspaceRoot resolves the workspace directory: the --workspace flag,
// else the project named by --name, else the active project.
func (a *app) workspaceRoot(ctx context.Context) (string, error) {
	if a.flags.workspace != "" {
		return filepath.Abs(a.flags.workspace)
	}

	reg, err := a.registry()
	if err != nil {
		return "", err
	}
	var project *domain.Project
	if a.flags.project != "" {
		project, err = reg.Project(ctx, a.flags.project)
	} else {
		project, err = reg.ActiveProject(ctx)
	}
	if err != nil {
		return "", err
	}
	a.logger.Debug("using project", "project", project.Name, "path", project.Path)
	return project.Path, nil
}

// loadWorkspace reads and initializes the workspace of this invocation.
func (a *app) loadWorkspace(ctx context.Context) (*workspace.Workspace, error) {
	root, err := a.workspaceRoot(ctx)
	if err != nil {
		return nil, err
	}
	cfg, err := descriptor.Load(root, descriptor.Options{
		File:    a.cfg.Workspace.File,
		Overlay: a.cfg.Workspace.Overlay,
	})
	if err != nil {
		return nil, err
	}
	ws := workspace.New(root, cfg)
	if err := ws.Init(); err != nil {
		return nil, err
	}
	a.logger.Debug("workspace loaded", "workspace", cfg.Name, "root", root, "components", len(ws.Names()))
	return ws, nil
}

// =============================================================================
// Orchestration
// =============================================================================

func (a *app) composeClient(ws *workspace.Workspace) *compose.Client {
	return compose.NewClient(a.cfg.Docker.Binary, compose.NewPlatformExecutor(),
		compose.WithDryRun(a.options.DryRun),
		compose.WithDir(ws.Root),
		compose.WithLogger(a.logger),
	)
}

// prober returns the running-state probe selected by docker.probe. The
// Engine API is never contacted in dry-run mode.
func (a *app) prober(ctx context.Context, client *compose.Client) (orchestrator.Prober, error) {
	if a.cfg.Docker.Probe != ProbeAPI || a.options.DryRun {
		return orchestrator.NewComposeProber(client), nil
	}
	cli, err := docker.NewDockerClient(ctx, a.cfg.Docker.Host)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func() { cli.Close() })
	return docker.NewProber(cli), nil
}

// orchestrator loads the workspace and wires an Orchestrator for it.
func (a *app) orchestrator(ctx context.Context) (*orchestrator.Orchestrator, error) {
	ws, err := a.loadWorkspace(ctx)
	if err != nil {
		return nil, err
	}
	client := a.composeClient(ws)
	prober, err := a.prober(ctx, client)
	if err != nil {
		return nil, err
	}
	return orchestrator.New(ws, client, a.options,
		orchestrator.WithProber(prober),
		orchestrator.WithExecService(a.cfg.Exec.Service),
		orchestrator.WithLogger(a.logger),
	), nil
}

func (a *app) scanner(prober status.Prober) *status.Scanner {
	return status.NewScanner(prober, status.Config{MaxConcurrent: a.cfg.Status.MaxConcurrent}, a.logger)
}
