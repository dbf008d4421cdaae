package docker

import (
	"context"
	"strings"

	"github.com/artpar/uniform/internal/core/workspace"
)

// ContainerLister is the part of DockerClient the prober needs.
type ContainerLister interface {
	ListContainers(ctx context.Context, opts ListOptions) ([]ContainerInfo, error)
}

// Prober answers "which containers of this component are running" from
// the Engine API instead of spawning the compose tool.
type Prober struct {
	lister ContainerLister
}

// NewProber creates a Prober backed by lister.
func NewProber(lister ContainerLister) *Prober {
	return &Prober{lister: lister}
}

// ContainerID returns the IDs of the running containers of the component's
// compose project, one per line, or "" when none runs. The format matches
// `compose ps --status=running -q`.
func (p *Prober) ContainerID(ctx context.Context, c *workspace.Component) (string, error) {
	project := c.ProjectName()
	containers, err := p.lister.ListContainers(ctx, ListOptions{
		Filters: map[string]string{
			"label":  LabelComposeProject + "=" + project,
			"status": string(ContainerStatusRunning),
		},
	})
	if err != nil {
		return "", err
	}

	ids := make([]string, 0, len(containers))
	for _, ci := range containers {
		if ci.Project != "" && ci.Project != project {
			continue
		}
		ids = append(ids, ci.ID)
	}
	if len(ids) == 0 {
		return "", nil
	}
	return strings.Join(ids, "\n") + "\n", nil
}
