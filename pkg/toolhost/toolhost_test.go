package toolhost

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/BrianJOC/toolchain-prep/installer"
	"github.com/BrianJOC/toolchain-prep/utils/envprobe"
	"github.com/BrianJOC/toolchain-prep/utils/pkgmanager"
)

func TestIsToolReadyWhenBinaryPresent(t *testing.T) {
	t.Parallel()

	host := newTestHost(t, hostSetup{binaries: []string{"r2"}})

	require.False(t, host.IsToolReady(), "handle resolves lazily")
	require.True(t, host.EnsureTool(context.Background()))
	require.True(t, host.IsToolReady())

	tool := host.Tool()
	require.NotNil(t, tool)
	require.Equal(t, "radare2", tool.Name)
	require.Equal(t, "/usr/bin/r2", tool.Path)
}

func TestEnsureToolForegroundInstall(t *testing.T) {
	t.Parallel()

	// No fallback binary, so the attempt runs inline; the binary appears
	// once the install command has run.
	paths := &mutablePaths{}
	host := newTestHost(t, hostSetup{
		paths: paths,
		runner: runnerFunc(func(_ context.Context, argv []string) (string, string, error) {
			paths.add("r2")
			return "", "", nil
		}),
	})

	require.True(t, host.EnsureTool(context.Background()))
	require.True(t, host.IsToolReady())

	status := host.InstallStatus()
	require.NotNil(t, status.Outcome)
	require.True(t, *status.Outcome)
}

func TestEnsureToolBackgroundReportsNotReadyYet(t *testing.T) {
	t.Parallel()

	gate := make(chan struct{})
	paths := &mutablePaths{}
	paths.add("objdump")
	host := newTestHost(t, hostSetup{
		paths: paths,
		runner: runnerFunc(func(_ context.Context, argv []string) (string, string, error) {
			<-gate
			paths.add("r2")
			return "", "", nil
		}),
	})

	require.False(t, host.EnsureTool(context.Background()), "background installs resolve later")
	require.False(t, host.IsToolReady())
	require.False(t, host.ReloadTool(), "attempt has not succeeded yet")

	close(gate)
	require.Eventually(t, func() bool {
		return !host.InstallStatus().InProgress
	}, 2*time.Second, 2*time.Millisecond)

	require.True(t, host.ReloadTool())
	require.True(t, host.IsToolReady())
	require.True(t, host.ReloadTool(), "reload is idempotent once resolved")
}

func TestReloadToolRefusesAfterFailedAttempt(t *testing.T) {
	t.Parallel()

	host := newTestHost(t, hostSetup{
		runner: runnerFunc(func(context.Context, []string) (string, string, error) {
			return "", "broken", errors.New("exit status 1")
		}),
	})

	require.False(t, host.EnsureTool(context.Background()))
	require.False(t, host.ReloadTool())
	require.False(t, host.IsToolReady())

	status := host.InstallStatus()
	require.NotNil(t, status.Outcome)
	require.False(t, *status.Outcome)
	require.NotNil(t, status.Err)
}

func TestCancelInstallPassthrough(t *testing.T) {
	t.Parallel()

	host := newTestHost(t, hostSetup{binaries: []string{"r2"}})
	require.False(t, host.CancelInstall(), "nothing running to cancel")
}

func TestNewRequiresInstaller(t *testing.T) {
	t.Parallel()

	_, err := New(nil)
	require.Error(t, err)
	require.IsType(t, NilInstallerError{}, err)
}

// --- test harness ---

type hostSetup struct {
	binaries []string
	paths    *mutablePaths
	runner   runnerFunc
}

func newTestHost(t *testing.T, tc hostSetup) *Host {
	t.Helper()

	paths := tc.paths
	if paths == nil {
		paths = &mutablePaths{}
	}
	for _, bin := range tc.binaries {
		paths.add(bin)
	}

	runner := tc.runner
	if runner == nil {
		runner = func(context.Context, []string) (string, string, error) {
			return "", "", nil
		}
	}

	probe := envprobe.New().WithGetenv(func(string) string { return "" })
	adapter, err := pkgmanager.New(pkgmanager.WithRunner(runner), pkgmanager.WithProbe(probe))
	require.NoError(t, err)

	spec := Radare2Spec()
	spec.RequiresPrivilege = false
	spec.VerifyProbe.Argv = nil

	discard := slog.New(slog.NewTextHandler(io.Discard, nil))
	inst, err := installer.New(spec,
		installer.WithAdapter(adapter),
		installer.WithRunner(runner),
		installer.WithProbe(probe),
		installer.WithLookPath(paths.lookPath),
		installer.WithManagerDetect(func(func(string) (string, error)) (pkgmanager.Manager, error) {
			return pkgmanager.Apt, nil
		}),
		installer.WithLogger(discard),
	)
	require.NoError(t, err)

	host, err := New(inst, WithLookPath(paths.lookPath), WithLogger(discard))
	require.NoError(t, err)
	return host
}

type runnerFunc func(context.Context, []string) (string, string, error)

func (f runnerFunc) Run(ctx context.Context, argv []string) (string, string, error) {
	return f(ctx, argv)
}

// mutablePaths simulates binaries appearing on PATH mid-test.
type mutablePaths struct {
	mu   sync.Mutex
	bins map[string]bool
}

func (m *mutablePaths) add(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.bins == nil {
		m.bins = make(map[string]bool)
	}
	m.bins[name] = true
}

func (m *mutablePaths) lookPath(name string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.bins[name] {
		return "/usr/bin/" + name, nil
	}
	return "", errors.New("not found")
}
