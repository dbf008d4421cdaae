package store

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/artpar/uniform/internal/core/domain"
)

// =============================================================================
// Registry
// =============================================================================

// Registry maps project names to workspace roots and tracks the active
// project. Store errors are translated into the domain taxonomy.
type Registry struct {
	store  Store
	logger *slog.Logger
}

// NewRegistry creates a registry over s.
func NewRegistry(s Store, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{store: s, logger: logger.With("component", "registry")}
}

// AddProject registers the workspace at path under name. An empty name is
// derived from the directory name. An existing name is only overwritten
// with force. The first registered project becomes active.
func (r *Registry) AddProject(ctx context.Context, name, path string, force bool) (*domain.Project, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, domain.NewIOError("resolve", path, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, domain.NewIOError("stat", abs, err)
	}
	if !info.IsDir() {
		return nil, domain.NewIOError("stat", abs, domain.ErrWorkspaceMissing)
	}

	if name == "" {
		name = domain.Slugify(filepath.Base(abs))
	}
	project, err := domain.NewProject(name, abs)
	if err != nil {
		return nil, domain.NewConfigError(name, "invalid project", err)
	}

	err = r.store.WithTx(ctx, func(tx Store) error {
		existing, err := tx.GetProjectByName(ctx, name)
		switch {
		case err == nil:
			if !force {
				return domain.NewStateError("add project", name, "already exists, use --force to overwrite", domain.ErrProjectExists)
			}
			existing.Path = abs
			existing.UpdatedAt = time.Now().UTC()
			project = existing
			return tx.UpdateProject(ctx, existing)
		case !errors.Is(err, ErrNotFound):
			return err
		}

		if err := tx.CreateProject(ctx, project); err != nil {
			return err
		}
		if _, err := tx.GetActiveProject(ctx); err != nil {
			if !errors.Is(err, ErrNotFound) {
				return err
			}
			project.Active = true
			return tx.SetActiveProject(ctx, name)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	r.logger.Debug("project registered", "project", name, "path", abs, "active", project.Active)
	return project, nil
}

// UseProject makes name the active project.
func (r *Registry) UseProject(ctx context.Context, name string) error {
	err := r.store.SetActiveProject(ctx, name)
	if errors.Is(err, ErrNotFound) {
		return r.unknown(ctx, "use project", name)
	}
	return err
}

// ListProjects returns all projects sorted by name.
func (r *Registry) ListProjects(ctx context.Context) ([]domain.Project, error) {
	return r.store.ListProjects(ctx)
}

// RemoveProject unregisters name. Removing the active project leaves no
// project active.
func (r *Registry) RemoveProject(ctx context.Context, name string) error {
	err := r.store.DeleteProject(ctx, name)
	if errors.Is(err, ErrNotFound) {
		return r.unknown(ctx, "remove project", name)
	}
	return err
}

// Project returns the project registered as name.
func (r *Registry) Project(ctx context.Context, name string) (*domain.Project, error) {
	p, err := r.store.GetProjectByName(ctx, name)
	if errors.Is(err, ErrNotFound) {
		return nil, r.unknown(ctx, "lookup", name)
	}
	return p, err
}

// ActiveProject returns the active project.
func (r *Registry) ActiveProject(ctx context.Context) (*domain.Project, error) {
	p, err := r.store.GetActiveProject(ctx)
	if errors.Is(err, ErrNotFound) {
		return nil, domain.NewStateError("active project", "", "is not set, run `uniform project use <name>`", domain.ErrNoActiveProject)
	}
	return p, err
}

func (r *Registry) unknown(ctx context.Context, op, name string) error {
	var known []string
	if projects, err := r.store.ListProjects(ctx); err == nil {
		for _, p := range projects {
			known = append(known, p.Name)
		}
	}
	return domain.NewReferenceError(op, "project", name, known)
}
