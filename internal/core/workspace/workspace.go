package workspace

import (
	"github.com/artpar/uniform/internal/core/deps"
	"github.com/artpar/uniform/internal/core/domain"
)

// =============================================================================
// Component
// =============================================================================

// Component is the runtime view of a declared component. Snapshots are
// immutable: recomputing the context or marking a start produces a new
// value.
type Component struct {
	Name        string
	Config      domain.ComponentConfig
	Template    *domain.ComponentConfig // resolved extends target, nil if none
	Context     *domain.Context
	JustStarted bool
}

// IsTemplate reports whether the component may only be used via extends.
func (c *Component) IsTemplate() bool {
	return c.Config.IsTemplate
}

// ComposeFile returns the resolved COMPOSE_FILE of the component.
func (c *Component) ComposeFile() string {
	v, _ := c.Context.Get(KeyComposeFile)
	return v
}

// ProjectName returns the resolved COMPOSE_PROJECT_NAME of the component.
func (c *Component) ProjectName() string {
	v, _ := c.Context.Get(KeyComposeProjectName)
	return v
}

// Var returns a context value.
func (c *Component) Var(key string) (string, bool) {
	return c.Context.Get(key)
}

// WithJustStarted returns a copy of the snapshot with the flag set.
func (c *Component) WithJustStarted() *Component {
	next := *c
	next.JustStarted = true
	return &next
}

// =============================================================================
// Workspace
// =============================================================================

// Workspace is an initialized workspace: its descriptor, shared context
// and one Component per declared entry, in declaration order.
type Workspace struct {
	Root       string
	Config     *domain.WorkspaceConfig
	Context    *domain.Context
	components *domain.OrderedMap[*Component]
}

// New creates a Workspace for root. cfg may be nil, in which case the
// workspace has no components. Call Init before use.
func New(root string, cfg *domain.WorkspaceConfig) *Workspace {
	return &Workspace{
		Root:       root,
		Config:     cfg,
		components: domain.NewOrderedMap[*Component](),
	}
}

// Init resolves templates and builds the context of every component. The
// component map is rebuilt wholesale and only replaced on success.
func (w *Workspace) Init() error {
	wsCtx := BuildWorkspaceContext(w.Root, w.Config)
	next := domain.NewOrderedMap[*Component]()

	if w.Config != nil {
		var initErr error
		w.Config.Components.Each(func(name string, cfg domain.ComponentConfig) {
			if initErr != nil {
				return
			}
			c, err := initComponent(name, cfg, w.Config, wsCtx)
			if err != nil {
				initErr = err
				return
			}
			next.Set(name, c)
		})
		if initErr != nil {
			return initErr
		}
	}

	w.Context = wsCtx
	w.components = next
	return nil
}

func initComponent(name string, cfg domain.ComponentConfig, ws *domain.WorkspaceConfig, wsCtx *domain.Context) (*Component, error) {
	tpl, err := ResolveTemplate(name, cfg, ws.Components)
	if err != nil {
		return nil, err
	}
	ctx, err := BuildComponentContext(name, cfg, tpl, ws.Name, wsCtx)
	if err != nil {
		return nil, err
	}
	return &Component{
		Name:     name,
		Config:   cfg.Clone(),
		Template: tpl,
		Context:  ctx,
	}, nil
}

// Names returns every component name, templates included.
func (w *Workspace) Names() []string {
	return w.components.Keys()
}

// ExecutableNames returns the names of non-template components in
// declaration order.
func (w *Workspace) ExecutableNames() []string {
	var names []string
	w.components.Each(func(name string, c *Component) {
		if !c.IsTemplate() {
			names = append(names, name)
		}
	})
	return names
}

// Components returns every component snapshot in declaration order.
func (w *Workspace) Components() []*Component {
	out := make([]*Component, 0, w.components.Len())
	w.components.Each(func(_ string, c *Component) {
		out = append(out, c)
	})
	return out
}

// Executables returns the non-template components in declaration order.
func (w *Workspace) Executables() []*Component {
	var out []*Component
	w.components.Each(func(_ string, c *Component) {
		if !c.IsTemplate() {
			out = append(out, c)
		}
	})
	return out
}

// ByTag returns the executable components carrying tag, in declaration order.
func (w *Workspace) ByTag(tag string) []*Component {
	var out []*Component
	for _, c := range w.Executables() {
		if c.Config.HasTag(tag) {
			out = append(out, c)
		}
	}
	return out
}

// Lookup returns the component named name. A component alias is accepted
// when no component has that exact name.
func (w *Workspace) Lookup(name string) (*Component, error) {
	if c, ok := w.components.Get(name); ok {
		return c, nil
	}
	var found *Component
	w.components.Each(func(_ string, c *Component) {
		if found == nil && c.Config.Alias != "" && c.Config.Alias == name {
			found = c
		}
	})
	if found != nil {
		return found, nil
	}
	return nil, domain.NewReferenceError("lookup", "service", name, w.ExecutableNames())
}

// LookupExecutable is Lookup restricted to non-template components.
func (w *Workspace) LookupExecutable(name string) (*Component, error) {
	c, err := w.Lookup(name)
	if err != nil {
		return nil, err
	}
	if c.IsTemplate() {
		return nil, domain.NewStateError("execute", name,
			"is a service template, use one of its instances instead", nil)
	}
	return c, nil
}

// MarkStarted replaces the snapshot of name with one flagged as just
// started and returns it.
func (w *Workspace) MarkStarted(name string) *Component {
	c, ok := w.components.Get(name)
	if !ok {
		return nil
	}
	next := c.WithJustStarted()
	w.components.Set(name, next)
	return next
}

// MarkStopped replaces the snapshot of name with one whose just started
// flag is cleared.
func (w *Workspace) MarkStopped(name string) *Component {
	c, ok := w.components.Get(name)
	if !ok {
		return nil
	}
	next := *c
	next.JustStarted = false
	w.components.Set(name, &next)
	return &next
}

// Current returns the latest snapshot of c, or c itself when the workspace
// does not know it.
func (w *Workspace) Current(c *Component) *Component {
	if latest, ok := w.components.Get(c.Name); ok {
		return latest
	}
	return c
}

// DependenciesOf implements deps.Graph.
func (w *Workspace) DependenciesOf(name string) ([]string, error) {
	c, ok := w.components.Get(name)
	if !ok {
		return nil, domain.NewReferenceError("resolving dependencies", "component", name, w.Names())
	}
	return c.Config.DependencyNames(), nil
}

// ResolveDependencies returns the components that must be running before
// c in the given mode, in start order.
func (w *Workspace) ResolveDependencies(c *Component, mode domain.Mode) ([]*Component, error) {
	names, err := deps.ResolveTransitive(w, deps.ActiveDependencies(c.Config, mode))
	if err != nil {
		return nil, err
	}
	out := make([]*Component, 0, len(names))
	for _, name := range names {
		dep, _ := w.components.Get(name)
		out = append(out, dep)
	}
	return out, nil
}
