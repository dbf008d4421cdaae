package deps

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artpar/uniform/internal/core/domain"
)

// mapGraph is an in-memory Graph keyed by component name.
type mapGraph map[string][]string

func (g mapGraph) DependenciesOf(name string) ([]string, error) {
	children, ok := g[name]
	if !ok {
		return nil, domain.NewReferenceError("resolving dependencies", "component", name, nil)
	}
	return children, nil
}

func config(pairs ...any) domain.ComponentConfig {
	d := domain.NewOrderedMap[domain.ModeList]()
	for i := 0; i+1 < len(pairs); i += 2 {
		d.Set(pairs[i].(string), pairs[i+1].(domain.ModeList))
	}
	return domain.ComponentConfig{Dependencies: d}
}

// =============================================================================
// ActiveDependencies Tests
// =============================================================================

func TestActiveDependencies_FiltersByMode(t *testing.T) {
	cfg := config("redis", domain.ModeList{domain.ModeDefault})
	assert.Empty(t, ActiveDependencies(cfg, domain.ModeHook))
	assert.Equal(t, []string{"redis"}, ActiveDependencies(cfg, domain.ModeDefault))
}

func TestActiveDependencies_KeepsDeclarationOrder(t *testing.T) {
	cfg := config(
		"mysql", domain.ModeList{domain.ModeDefault},
		"mail", domain.ModeList{domain.ModeHook},
		"redis", domain.ModeList{domain.ModeHook, domain.ModeDefault},
	)
	assert.Equal(t, []string{"mysql", "redis"}, ActiveDependencies(cfg, domain.ModeDefault))
	assert.Equal(t, []string{"mail", "redis"}, ActiveDependencies(cfg, domain.ModeHook))
}

func TestActiveDependencies_NoDependencies(t *testing.T) {
	assert.Empty(t, ActiveDependencies(domain.ComponentConfig{}, domain.ModeDefault))
}

// =============================================================================
// ResolveTransitive Tests
// =============================================================================

func TestResolveTransitive_PreOrder(t *testing.T) {
	g := mapGraph{
		"api":   {"db", "queue"},
		"db":    {},
		"queue": {"redis"},
		"redis": {},
	}

	got, err := ResolveTransitive(g, []string{"api"})
	require.NoError(t, err)
	assert.Equal(t, []string{"api", "db", "queue", "redis"}, got)
}

func TestResolveTransitive_DiamondIsDeduplicated(t *testing.T) {
	g := mapGraph{
		"api":   {"db"},
		"cache": {"db"},
		"db":    {},
	}

	got, err := ResolveTransitive(g, []string{"api", "cache"})
	require.NoError(t, err)
	assert.Equal(t, []string{"api", "db", "cache"}, got)
}

func TestResolveTransitive_Cycle(t *testing.T) {
	g := mapGraph{
		"a": {"b"},
		"b": {"c"},
		"c": {"a"},
	}

	_, err := ResolveTransitive(g, []string{"a"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrCycle)

	var cycleErr *domain.CycleError
	require.ErrorAs(t, err, &cycleErr)
	assert.Equal(t, []string{"a", "b", "c", "a"}, cycleErr.Path)
}

func TestResolveTransitive_SelfDependency(t *testing.T) {
	g := mapGraph{"a": {"a"}}

	_, err := ResolveTransitive(g, []string{"a"})
	assert.ErrorIs(t, err, domain.ErrCycle)
}

func TestResolveTransitive_UnknownComponent(t *testing.T) {
	g := mapGraph{"api": {"ghost"}}

	_, err := ResolveTransitive(g, []string{"api"})
	assert.ErrorIs(t, err, domain.ErrReference)
	assert.Contains(t, err.Error(), "ghost")
}

func TestResolveTransitive_Empty(t *testing.T) {
	got, err := ResolveTransitive(mapGraph{}, nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}
