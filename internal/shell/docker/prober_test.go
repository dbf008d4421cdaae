package docker

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artpar/uniform/internal/core/domain"
	"github.com/artpar/uniform/internal/core/workspace"
)

// fakeLister returns canned containers and records the filters it saw.
type fakeLister struct {
	containers []ContainerInfo
	err        error
	seen       ListOptions
}

func (f *fakeLister) ListContainers(_ context.Context, opts ListOptions) ([]ContainerInfo, error) {
	f.seen = opts
	return f.containers, f.err
}

func component(project string) *workspace.Component {
	return &workspace.Component{
		Name:    "web",
		Context: domain.ContextFromPairs("COMPOSE_PROJECT_NAME", project),
	}
}

func skipIfNoDocker(t *testing.T) *DockerClient {
	t.Helper()
	cli, err := NewDockerClient(context.Background(), "")
	if err != nil {
		t.Skip("Docker not available:", err)
	}
	if err := cli.Ping(context.Background()); err != nil {
		cli.Close()
		t.Skip("Docker not reachable:", err)
	}
	return cli
}

// =============================================================================
// Prober Tests
// =============================================================================

func TestProber_FiltersByProjectAndStatus(t *testing.T) {
	lister := &fakeLister{}
	_, err := NewProber(lister).ContainerID(context.Background(), component("acme-web"))
	require.NoError(t, err)

	assert.Equal(t, "com.docker.compose.project=acme-web", lister.seen.Filters["label"])
	assert.Equal(t, "running", lister.seen.Filters["status"])
	assert.False(t, lister.seen.All)
}

func TestProber_NoContainers(t *testing.T) {
	id, err := NewProber(&fakeLister{}).ContainerID(context.Background(), component("acme-web"))
	require.NoError(t, err)
	assert.Empty(t, id)
}

func TestProber_ReturnsOneIDPerLine(t *testing.T) {
	lister := &fakeLister{containers: []ContainerInfo{
		{ID: "aaaaaaaaaaaaaaaa", Project: "acme-web"},
		{ID: "bbbbbbbbbbbbbbbb", Project: "acme-web"},
		{ID: "cccccccccccccccc", Project: "other"},
	}}

	id, err := NewProber(lister).ContainerID(context.Background(), component("acme-web"))
	require.NoError(t, err)
	assert.Equal(t, "aaaaaaaaaaaaaaaa\nbbbbbbbbbbbbbbbb\n", id)
}

func TestProber_PropagatesErrors(t *testing.T) {
	lister := &fakeLister{err: NewDockerError("ListContainers", "container", "", "denied", ErrListFailed)}

	_, err := NewProber(lister).ContainerID(context.Background(), component("acme-web"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrListFailed))
}

// =============================================================================
// Error Tests
// =============================================================================

func TestDockerError_Error(t *testing.T) {
	err := NewDockerError("ListContainers", "container", "abc", "boom", ErrListFailed)
	assert.Equal(t, "ListContainers container abc: boom", err.Error())
	assert.ErrorIs(t, err, ErrListFailed)

	err = NewDockerError("Ping", "", "", "down", ErrConnectionFailed)
	assert.Equal(t, "Ping: down", err.Error())
}

func TestDockerError_IsExternalToolFailure(t *testing.T) {
	err := NewDockerError("ListContainers", "container", "", "denied", ErrListFailed)
	assert.ErrorIs(t, err, domain.ErrExternalTool)
	assert.NotErrorIs(t, err, domain.ErrIO)
}

// =============================================================================
// Live Daemon Tests
// =============================================================================

func TestDockerClient_ListUnknownProject(t *testing.T) {
	cli := skipIfNoDocker(t)
	defer cli.Close()

	id, err := NewProber(cli).ContainerID(context.Background(), component("uniform-test-no-such-project"))
	require.NoError(t, err)
	assert.Empty(t, id)
}
