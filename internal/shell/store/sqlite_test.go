package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artpar/uniform/internal/core/domain"
)

// =============================================================================
// Test Helpers
// =============================================================================

func setupTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

func createTestProject(t *testing.T, store Store, name string) *domain.Project {
	t.Helper()
	project, err := domain.NewProject(name, "/srv/"+name)
	require.NoError(t, err)
	require.NoError(t, store.CreateProject(context.Background(), project))
	return project
}

// =============================================================================
// Error Tests
// =============================================================================

func TestNewSQLiteStore_UnreachableIsIOError(t *testing.T) {
	_, err := NewSQLiteStore(filepath.Join(t.TempDir(), "missing", "uniform.db"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConnectionFailed)
	assert.ErrorIs(t, err, domain.ErrIO)
}

func TestStoreError_IOCategory(t *testing.T) {
	assert.ErrorIs(t, NewStoreError("NewSQLiteStore", "", "", "boom", ErrMigrationFailed), domain.ErrIO)
	assert.NotErrorIs(t, NewStoreError("GetProjectByName", "project", "web", "not found", ErrNotFound), domain.ErrIO)
}

// =============================================================================
// Project CRUD Tests
// =============================================================================

func TestCreateProject(t *testing.T) {
	store := setupTestStore(t)
	project := createTestProject(t, store, "shop")

	got, err := store.GetProjectByName(context.Background(), "shop")
	require.NoError(t, err)
	assert.Equal(t, project.ID, got.ID)
	assert.Equal(t, "/srv/shop", got.Path)
	assert.False(t, got.Active)
	assert.Equal(t, project.CreatedAt.Unix(), got.CreatedAt.Unix())
}

func TestCreateProject_DuplicateName(t *testing.T) {
	store := setupTestStore(t)
	createTestProject(t, store, "shop")

	dup, err := domain.NewProject("shop", "/elsewhere")
	require.NoError(t, err)
	err = store.CreateProject(context.Background(), dup)
	assert.ErrorIs(t, err, ErrDuplicateName)
}

func TestGetProjectByName_NotFound(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.GetProjectByName(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateProject(t *testing.T) {
	store := setupTestStore(t)
	project := createTestProject(t, store, "shop")

	project.Path = "/moved"
	require.NoError(t, store.UpdateProject(context.Background(), project))

	got, err := store.GetProjectByName(context.Background(), "shop")
	require.NoError(t, err)
	assert.Equal(t, "/moved", got.Path)
}

func TestUpdateProject_NotFound(t *testing.T) {
	store := setupTestStore(t)
	project, err := domain.NewProject("ghost", "/x")
	require.NoError(t, err)

	assert.ErrorIs(t, store.UpdateProject(context.Background(), project), ErrNotFound)
}

func TestDeleteProject(t *testing.T) {
	store := setupTestStore(t)
	createTestProject(t, store, "shop")

	require.NoError(t, store.DeleteProject(context.Background(), "shop"))
	assert.ErrorIs(t, store.DeleteProject(context.Background(), "shop"), ErrNotFound)
}

func TestListProjects_SortedByName(t *testing.T) {
	store := setupTestStore(t)
	createTestProject(t, store, "zeta")
	createTestProject(t, store, "alpha")
	createTestProject(t, store, "mid")

	projects, err := store.ListProjects(context.Background())
	require.NoError(t, err)

	names := make([]string, len(projects))
	for i, p := range projects {
		names[i] = p.Name
	}
	assert.Equal(t, []string{"alpha", "mid", "zeta"}, names)
}

func TestListProjects_Empty(t *testing.T) {
	store := setupTestStore(t)

	projects, err := store.ListProjects(context.Background())
	require.NoError(t, err)
	assert.Empty(t, projects)
}

// =============================================================================
// Active Project Tests
// =============================================================================

func TestSetActiveProject_SwitchesActive(t *testing.T) {
	store := setupTestStore(t)
	createTestProject(t, store, "shop")
	createTestProject(t, store, "blog")
	ctx := context.Background()

	require.NoError(t, store.SetActiveProject(ctx, "shop"))
	require.NoError(t, store.SetActiveProject(ctx, "blog"))

	active, err := store.GetActiveProject(ctx)
	require.NoError(t, err)
	assert.Equal(t, "blog", active.Name)

	shop, err := store.GetProjectByName(ctx, "shop")
	require.NoError(t, err)
	assert.False(t, shop.Active)
}

func TestSetActiveProject_UnknownKeepsPrevious(t *testing.T) {
	store := setupTestStore(t)
	createTestProject(t, store, "shop")
	ctx := context.Background()
	require.NoError(t, store.SetActiveProject(ctx, "shop"))

	err := store.SetActiveProject(ctx, "ghost")
	assert.ErrorIs(t, err, ErrNotFound)

	active, err := store.GetActiveProject(ctx)
	require.NoError(t, err)
	assert.Equal(t, "shop", active.Name)
}

func TestGetActiveProject_None(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.GetActiveProject(context.Background())
	assert.ErrorIs(t, err, ErrNotFound)
}

// =============================================================================
// Transaction Tests
// =============================================================================

func TestWithTx_RollbackOnError(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	err := store.WithTx(ctx, func(tx Store) error {
		createTestProject(t, tx, "shop")
		return assert.AnError
	})
	assert.ErrorIs(t, err, assert.AnError)

	_, err = store.GetProjectByName(ctx, "shop")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestWithTx_Commit(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	err := store.WithTx(ctx, func(tx Store) error {
		createTestProject(t, tx, "shop")
		return tx.SetActiveProject(ctx, "shop")
	})
	require.NoError(t, err)

	active, err := store.GetActiveProject(ctx)
	require.NoError(t, err)
	assert.Equal(t, "shop", active.Name)
}
