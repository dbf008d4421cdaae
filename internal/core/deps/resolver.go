// Package deps resolves which components must be running before another.
// This is part of the Functional Core - all functions are pure with no I/O.
package deps

import (
	"slices"

	"github.com/artpar/uniform/internal/core/domain"
)

// =============================================================================
// Dependency Resolution Functions
// =============================================================================

// Graph gives the resolver access to declared dependency edges.
type Graph interface {
	// DependenciesOf returns every declared dependency key of name in
	// declaration order, regardless of mode. Unknown names must produce a
	// *domain.ReferenceError.
	DependenciesOf(name string) ([]string, error)
}

// ActiveDependencies returns the dependency names of cfg whose mode list
// contains mode, in declaration order.
//
// Example:
//
//	// dependencies: {redis: [default], mail: [hook]}
//	ActiveDependencies(cfg, domain.ModeHook) // ["mail"]
func ActiveDependencies(cfg domain.ComponentConfig, mode domain.Mode) []string {
	var names []string
	cfg.Dependencies.Each(func(name string, modes domain.ModeList) {
		if modes.Contains(mode) {
			names = append(names, name)
		}
	})
	return names
}

// ResolveTransitive expands names depth-first in pre-order: each name is
// emitted, then all of its declared dependencies are expanded. Only the
// caller filters by mode; deeper levels follow every edge.
//
// A component reached twice through different paths (a diamond) is
// emitted once, at its first position. A component reached again while it
// is still on the current path returns a *domain.CycleError.
//
// Example:
//
//	// web -> [api, cache], api -> [db], cache -> [db]
//	ResolveTransitive(g, []string{"api", "cache"}) // [api, db, cache]
func ResolveTransitive(g Graph, names []string) ([]string, error) {
	r := &resolver{
		graph:   g,
		emitted: make(map[string]bool),
		onPath:  make(map[string]bool),
	}
	for _, name := range names {
		if err := r.visit(name); err != nil {
			return nil, err
		}
	}
	return r.order, nil
}

type resolver struct {
	graph   Graph
	order   []string
	emitted map[string]bool
	onPath  map[string]bool
	path    []string
}

func (r *resolver) visit(name string) error {
	if r.onPath[name] {
		cycle := slices.Clone(r.path[slices.Index(r.path, name):])
		return &domain.CycleError{Path: append(cycle, name)}
	}

	children, err := r.graph.DependenciesOf(name)
	if err != nil {
		return err
	}
	if r.emitted[name] {
		return nil
	}

	r.emitted[name] = true
	r.order = append(r.order, name)

	r.onPath[name] = true
	r.path = append(r.path, name)
	for _, child := range children {
		if err := r.visit(child); err != nil {
			return err
		}
	}
	r.path = r.path[:len(r.path)-1]
	r.onPath[name] = false

	return nil
}
