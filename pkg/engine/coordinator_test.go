package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scanhub/pkg/admission"
	"scanhub/pkg/adapters"
	"scanhub/pkg/executor"
	"scanhub/pkg/findings"
	"scanhub/pkg/scanerr"
)

// stubRegistry builds a registry whose port-scan adapter runs an arbitrary
// local command instead of a real scanner.
func stubRegistry(command string, args ...string) *adapters.Registry {
	r := adapters.NewRegistry()
	r.Register(adapters.NewNmapAdapter(adapters.ToolConfig{
		Name:    string(findings.KindPortScan),
		Command: command,
		Args:    args,
	}))
	return r
}

func TestExecute_EndToEnd(t *testing.T) {
	// printf interprets the escapes itself, so the stub emits two bare
	// port/state/service lines the way a wrapper script would.
	c := NewCoordinator(
		WithRegistry(stubRegistry("printf", "22/open/ssh\\n80/open/http\\n")),
		WithExecutor(executor.New(time.Second)),
		WithTimeout(10*time.Second),
	)

	result, err := c.Execute(context.Background(), ScanRequest{Target: "Scanme.Example", Kind: findings.KindPortScan})
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, findings.KindPortScan, result.Kind)
	assert.Equal(t, "scanme.example", result.Target)
	assert.NotEmpty(t, result.JobID)
	assert.Equal(t, 0, result.ToolExitCode)

	require.Len(t, result.Findings, 2)
	assert.Equal(t, 22, result.Findings[0].Port.Port)
	assert.Equal(t, "ssh", result.Findings[0].Port.Service)
	assert.Equal(t, 80, result.Findings[1].Port.Port)
	assert.Equal(t, "http", result.Findings[1].Port.Service)
}

func TestExecute_UnknownKind(t *testing.T) {
	c := NewCoordinator(WithRegistry(adapters.NewRegistry()))

	_, err := c.Execute(context.Background(), ScanRequest{Target: "example.com", Kind: findings.ScanKind("ldap")})
	require.Error(t, err)
	assert.ErrorIs(t, err, scanerr.ErrInvalidRequest)
	assert.Equal(t, 400, scanerr.HTTPStatus(err))
}

func TestExecute_InvalidTarget(t *testing.T) {
	c := NewCoordinator(WithRegistry(stubRegistry("true")))

	_, err := c.Execute(context.Background(), ScanRequest{Target: "example.com; rm -rf /", Kind: findings.KindPortScan})
	require.Error(t, err)
	assert.ErrorIs(t, err, scanerr.ErrInvalidTarget)

	// Nothing was admitted, so the slot count stays at zero.
	running, queued, _ := c.Admission().Status()
	assert.Equal(t, 0, running)
	assert.Equal(t, 0, queued)
}

func TestExecute_SpawnFailure(t *testing.T) {
	c := NewCoordinator(WithRegistry(stubRegistry("/nonexistent/scanhub-no-such-tool")))

	result, err := c.Execute(context.Background(), ScanRequest{Target: "example.com", Kind: findings.KindPortScan})
	require.Error(t, err)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, scanerr.ErrSpawn)
	assert.Equal(t, 500, scanerr.HTTPStatus(err))
}

func TestExecute_TimeoutReturnsPartialFindings(t *testing.T) {
	c := NewCoordinator(
		WithRegistry(stubRegistry("sh", "-c", "echo 22/open/ssh; sleep 10")),
		WithExecutor(executor.New(100*time.Millisecond)),
		WithTimeout(300*time.Millisecond),
	)

	result, err := c.Execute(context.Background(), ScanRequest{Target: "example.com", Kind: findings.KindPortScan})
	require.Error(t, err)
	assert.ErrorIs(t, err, scanerr.ErrTimeout)
	assert.Equal(t, 504, scanerr.HTTPStatus(err))

	// Output captured before the deadline still yields findings.
	require.NotNil(t, result)
	require.Len(t, result.Findings, 1)
	assert.Equal(t, 22, result.Findings[0].Port.Port)
}

func TestExecute_DuplicateTargetRejected(t *testing.T) {
	c := NewCoordinator(
		WithRegistry(stubRegistry("sleep", "5")),
		WithExecutor(executor.New(100*time.Millisecond)),
		WithAdmission(admission.New(2, 4)),
		WithTimeout(10*time.Second),
	)

	started := make(chan struct{})
	done := make(chan struct{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		defer close(done)
		close(started)
		c.Execute(ctx, ScanRequest{Target: "example.com", Kind: findings.KindPortScan})
	}()

	<-started
	require.Eventually(t, func() bool {
		running, _, _ := c.Admission().Status()
		return running == 1
	}, 2*time.Second, 10*time.Millisecond)

	_, err := c.Execute(context.Background(), ScanRequest{Target: "example.com", Kind: findings.KindPortScan})
	require.Error(t, err)
	assert.ErrorIs(t, err, scanerr.ErrAdmissionRejected)
	assert.Equal(t, 429, scanerr.HTTPStatus(err))

	cancel()
	<-done
}
