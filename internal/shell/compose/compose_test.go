package compose

import (
	"bytes"
	"context"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artpar/uniform/internal/core/domain"
	"github.com/artpar/uniform/internal/core/paths"
	"github.com/artpar/uniform/internal/core/workspace"
)

// recordingExecutor records invocations and returns a canned result.
type recordingExecutor struct {
	calls []Invocation
	out   string
	err   error
}

func (r *recordingExecutor) Run(_ context.Context, inv Invocation) (string, error) {
	r.calls = append(r.calls, inv)
	return r.out, r.err
}

func testComponent() *workspace.Component {
	return &workspace.Component{
		Name: "web",
		Context: domain.ContextFromPairs(
			"WORKSPACE_PATH", "/srv",
			"APP_NAME", "web",
			"COMPOSE_PROJECT_NAME", "acme-web",
			"SVC_PATH", "/srv/web",
			"COMPOSE_FILE", "/srv/web/docker-compose.yml",
		),
	}
}

func skipOnWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
}

// =============================================================================
// Client Tests
// =============================================================================

func TestClient_BuildsArgumentVector(t *testing.T) {
	exec := &recordingExecutor{out: "abc\n"}
	client := NewClient("", exec)

	out, err := client.Run(context.Background(), testComponent(), false, "ps", "--status=running", "-q")
	require.NoError(t, err)
	assert.Equal(t, "abc\n", out)

	require.Len(t, exec.calls, 1)
	inv := exec.calls[0]
	assert.Equal(t, "docker", inv.Program)
	assert.Equal(t, []string{"compose", "-f", "/srv/web/docker-compose.yml", "ps", "--status=running", "-q"}, inv.Args)
	assert.False(t, inv.Interactive)
	assert.Equal(t, "docker compose -f /srv/web/docker-compose.yml ps --status=running -q", inv.String())

	v, _ := inv.Context.Get("COMPOSE_PROJECT_NAME")
	assert.Equal(t, "acme-web", v)
}

func TestClient_CustomBinaryAndDir(t *testing.T) {
	exec := &recordingExecutor{}
	client := NewClient("podman", exec, WithDir("/tmp"))

	_, err := client.Run(context.Background(), testComponent(), true, "up", "-d")
	require.NoError(t, err)

	require.Len(t, exec.calls, 1)
	assert.Equal(t, "podman", exec.calls[0].Program)
	assert.Equal(t, "/tmp", exec.calls[0].Dir)
	assert.True(t, exec.calls[0].Interactive)
}

func TestClient_DryRunSpawnsNothing(t *testing.T) {
	exec := &recordingExecutor{out: "should not be returned"}
	client := NewClient("docker", exec, WithDryRun(true))

	out, err := client.Run(context.Background(), testComponent(), true, "up", "-d")
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Empty(t, exec.calls)
	assert.True(t, client.DryRun())
}

func TestClient_MissingContextIsConfigError(t *testing.T) {
	exec := &recordingExecutor{}
	client := NewClient("docker", exec)
	comp := &workspace.Component{Name: "web", Context: domain.ContextFromPairs("APP_NAME", "web")}

	_, err := client.Run(context.Background(), comp, false, "ps")
	assert.ErrorIs(t, err, domain.ErrConfig)
	assert.Empty(t, exec.calls)
}

func TestClient_PropagatesExecutorError(t *testing.T) {
	toolErr := domain.NewExternalToolError([]string{"docker"}, 1, "boom", nil)
	client := NewClient("docker", &recordingExecutor{err: toolErr})

	_, err := client.Run(context.Background(), testComponent(), false, "ps")
	assert.ErrorIs(t, err, domain.ErrExternalTool)
}

// =============================================================================
// ProcessExecutor Tests
// =============================================================================

func TestProcessExecutor_CapturesStdoutWithContextEnv(t *testing.T) {
	skipOnWindows(t)
	e := &ProcessExecutor{}

	out, err := e.Run(context.Background(), Invocation{
		Program: "sh",
		Args:    []string{"-c", `printf '%s' "$COMPOSE_PROJECT_NAME"`},
		Context: testComponent().Context,
	})
	require.NoError(t, err)
	assert.Equal(t, "acme-web", out)
}

func TestProcessExecutor_NonZeroExitCarriesStderr(t *testing.T) {
	skipOnWindows(t)
	e := &ProcessExecutor{}

	_, err := e.Run(context.Background(), Invocation{
		Program: "sh",
		Args:    []string{"-c", "echo broken >&2; exit 3"},
	})
	require.Error(t, err)

	var toolErr *domain.ExternalToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, 3, toolErr.ExitCode)
	assert.Equal(t, "broken", strings.TrimSpace(toolErr.Stderr))
	assert.Equal(t, []string{"sh", "-c", "echo broken >&2; exit 3"}, toolErr.Args)
}

func TestProcessExecutor_InteractiveUsesGivenStreams(t *testing.T) {
	skipOnWindows(t)
	var stdout bytes.Buffer
	e := &ProcessExecutor{Stdout: &stdout, Stderr: &stdout}

	out, err := e.Run(context.Background(), Invocation{
		Program:     "sh",
		Args:        []string{"-c", "echo hello"},
		Interactive: true,
	})
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Equal(t, "hello\n", stdout.String())
}

func TestProcessExecutor_MissingProgram(t *testing.T) {
	e := &ProcessExecutor{}

	_, err := e.Run(context.Background(), Invocation{Program: "uniform-test-no-such-binary"})
	var toolErr *domain.ExternalToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, -1, toolErr.ExitCode)
}

func TestProcessExecutor_EnvironAppliesRewrite(t *testing.T) {
	e := &ProcessExecutor{Rewrite: paths.RewriteWSL}
	env := e.Environ(Invocation{Context: domain.ContextFromPairs("SVC_PATH", `C:\work\web`)})

	assert.Equal(t, "SVC_PATH=/mnt/c/work/web", env[len(env)-1])
}
