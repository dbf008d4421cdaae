package store

import (
	"context"

	"github.com/artpar/uniform/internal/core/domain"
)

// =============================================================================
// Store Interface
// =============================================================================

// Store defines the persistence interface for registered projects.
type Store interface {
	CreateProject(ctx context.Context, project *domain.Project) error
	GetProjectByName(ctx context.Context, name string) (*domain.Project, error)
	UpdateProject(ctx context.Context, project *domain.Project) error
	DeleteProject(ctx context.Context, name string) error
	ListProjects(ctx context.Context) ([]domain.Project, error)

	// At most one project is active.
	SetActiveProject(ctx context.Context, name string) error
	GetActiveProject(ctx context.Context) (*domain.Project, error)

	// Transaction support
	WithTx(ctx context.Context, fn func(Store) error) error

	// Lifecycle
	Close() error
}
