// Package status reports the running state of every component of a
// workspace.
package status

import (
	"context"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/artpar/uniform/internal/core/workspace"
)

// State is the observed state of a component.
type State string

const (
	StateRunning State = "running"
	StateStopped State = "stopped"
)

// shortIDLength is how much of a container ID is displayed.
const shortIDLength = 12

// Entry is one row of a scan.
type Entry struct {
	Name    string
	State   State
	ShortID string
}

// Prober reports the running containers of a component.
type Prober interface {
	ContainerID(ctx context.Context, c *workspace.Component) (string, error)
}

// Config configures the scanner.
type Config struct {
	// MaxConcurrent is the maximum number of components probed at once.
	// Default: 8.
	MaxConcurrent int
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{MaxConcurrent: 8}
}

// Scanner probes all components of a workspace concurrently.
type Scanner struct {
	prober Prober
	config Config
	logger *slog.Logger
}

// NewScanner creates a new scanner.
func NewScanner(prober Prober, config Config, logger *slog.Logger) *Scanner {
	if config.MaxConcurrent <= 0 {
		config.MaxConcurrent = DefaultConfig().MaxConcurrent
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scanner{
		prober: prober,
		config: config,
		logger: logger.With("component", "status_scanner"),
	}
}

// ScanAll probes every executable component of ws. Entries come back in
// declared component order. A component whose probe fails is logged and
// left out; it does not affect the others.
func (s *Scanner) ScanAll(ctx context.Context, ws *workspace.Workspace) []Entry {
	components := ws.Executables()
	if len(components) == 0 {
		s.logger.Debug("no components to scan")
		return nil
	}

	s.logger.Debug("starting scan", "component_count", len(components), "max_concurrent", s.config.MaxConcurrent)

	results := make([]*Entry, len(components))

	// Probe errors are handled per component, never returned to the group,
	// so one failure cannot cancel the rest.
	var g errgroup.Group
	g.SetLimit(s.config.MaxConcurrent)
	for i, c := range components {
		g.Go(func() error {
			results[i] = s.scanComponent(ctx, c)
			return nil
		})
	}
	_ = g.Wait()

	entries := make([]Entry, 0, len(components))
	for _, e := range results {
		if e != nil {
			entries = append(entries, *e)
		}
	}
	s.logger.Debug("completed scan", "component_count", len(components), "reported", len(entries))
	return entries
}

func (s *Scanner) scanComponent(ctx context.Context, c *workspace.Component) *Entry {
	out, err := s.prober.ContainerID(ctx, c)
	if err != nil {
		s.logger.Warn("failed to check component", "service", c.Name, "error", err)
		return nil
	}

	id := ShortID(out)
	if id == "" {
		return &Entry{Name: c.Name, State: StateStopped}
	}
	return &Entry{Name: c.Name, State: StateRunning, ShortID: id}
}

// ShortID returns the first 12 characters of the first container ID in
// probe output, or "" when nothing runs.
func ShortID(output string) string {
	first, _, _ := strings.Cut(strings.TrimSpace(output), "\n")
	first = strings.TrimSpace(first)
	if len(first) > shortIDLength {
		return first[:shortIDLength]
	}
	return first
}
