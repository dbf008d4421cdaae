package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artpar/uniform/internal/core/domain"
)

func setupRegistry(t *testing.T) *Registry {
	t.Helper()
	return NewRegistry(setupTestStore(t), nil)
}

func workspaceDir(t *testing.T, name string) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.Mkdir(dir, 0o755))
	return dir
}

// =============================================================================
// Registry Tests
// =============================================================================

func TestRegistry_FirstProjectBecomesActive(t *testing.T) {
	r := setupRegistry(t)
	ctx := context.Background()

	shop, err := r.AddProject(ctx, "shop", workspaceDir(t, "shop"), false)
	require.NoError(t, err)
	assert.True(t, shop.Active)

	blog, err := r.AddProject(ctx, "blog", workspaceDir(t, "blog"), false)
	require.NoError(t, err)
	assert.False(t, blog.Active)

	active, err := r.ActiveProject(ctx)
	require.NoError(t, err)
	assert.Equal(t, "shop", active.Name)
}

func TestRegistry_AddDerivesNameFromDirectory(t *testing.T) {
	r := setupRegistry(t)

	p, err := r.AddProject(context.Background(), "", workspaceDir(t, "My Shop"), false)
	require.NoError(t, err)
	assert.Equal(t, "my-shop", p.Name)
}

func TestRegistry_AddMissingPathIsIOError(t *testing.T) {
	r := setupRegistry(t)

	_, err := r.AddProject(context.Background(), "shop", filepath.Join(t.TempDir(), "nope"), false)
	assert.ErrorIs(t, err, domain.ErrIO)
}

func TestRegistry_AddFilePathIsIOError(t *testing.T) {
	r := setupRegistry(t)
	file := filepath.Join(t.TempDir(), "uniform.json")
	require.NoError(t, os.WriteFile(file, []byte("{}"), 0o644))

	_, err := r.AddProject(context.Background(), "shop", file, false)
	assert.ErrorIs(t, err, domain.ErrIO)
}

func TestRegistry_AddInvalidName(t *testing.T) {
	r := setupRegistry(t)

	_, err := r.AddProject(context.Background(), "Bad Name", workspaceDir(t, "x"), false)
	assert.ErrorIs(t, err, domain.ErrConfig)
	assert.ErrorIs(t, err, domain.ErrProjectNameInvalidChars)
}

func TestRegistry_AddDuplicateNeedsForce(t *testing.T) {
	r := setupRegistry(t)
	ctx := context.Background()
	_, err := r.AddProject(ctx, "shop", workspaceDir(t, "a"), false)
	require.NoError(t, err)

	moved := workspaceDir(t, "b")
	_, err = r.AddProject(ctx, "shop", moved, false)
	assert.ErrorIs(t, err, domain.ErrState)
	assert.ErrorIs(t, err, domain.ErrProjectExists)

	p, err := r.AddProject(ctx, "shop", moved, true)
	require.NoError(t, err)
	assert.Equal(t, moved, p.Path)
	assert.True(t, p.Active)

	got, err := r.Project(ctx, "shop")
	require.NoError(t, err)
	assert.Equal(t, moved, got.Path)
}

func TestRegistry_UseProject(t *testing.T) {
	r := setupRegistry(t)
	ctx := context.Background()
	_, err := r.AddProject(ctx, "shop", workspaceDir(t, "shop"), false)
	require.NoError(t, err)
	_, err = r.AddProject(ctx, "blog", workspaceDir(t, "blog"), false)
	require.NoError(t, err)

	require.NoError(t, r.UseProject(ctx, "blog"))

	projects, err := r.ListProjects(ctx)
	require.NoError(t, err)
	require.Len(t, projects, 2)
	assert.Equal(t, "blog", projects[0].Name)
	assert.True(t, projects[0].Active)
	assert.False(t, projects[1].Active)
}

func TestRegistry_UseUnknownListsKnown(t *testing.T) {
	r := setupRegistry(t)
	ctx := context.Background()
	_, err := r.AddProject(ctx, "shop", workspaceDir(t, "shop"), false)
	require.NoError(t, err)

	err = r.UseProject(ctx, "ghost")
	assert.ErrorIs(t, err, domain.ErrReference)
	assert.Contains(t, err.Error(), "Known projects: shop")
}

func TestRegistry_RemoveActiveClearsActive(t *testing.T) {
	r := setupRegistry(t)
	ctx := context.Background()
	_, err := r.AddProject(ctx, "shop", workspaceDir(t, "shop"), false)
	require.NoError(t, err)

	require.NoError(t, r.RemoveProject(ctx, "shop"))

	_, err = r.ActiveProject(ctx)
	assert.ErrorIs(t, err, domain.ErrState)
	assert.ErrorIs(t, err, domain.ErrNoActiveProject)
}

func TestRegistry_RemoveUnknown(t *testing.T) {
	r := setupRegistry(t)

	err := r.RemoveProject(context.Background(), "ghost")
	assert.ErrorIs(t, err, domain.ErrReference)
}
