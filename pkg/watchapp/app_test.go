package watchapp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/BrianJOC/toolchain-prep/installer"
)

func TestNewRequiresSource(t *testing.T) {
	t.Parallel()

	_, err := New()
	require.ErrorIs(t, err, ErrNoSource)

	app, err := New(WithSource(stubSource{}), WithToolName("radare2"))
	require.NoError(t, err)
	require.NotNil(t, app)
}

func TestStateLabel(t *testing.T) {
	t.Parallel()

	yes, no := true, false
	cancelErr := &installer.InstallError{Kind: installer.KindCancelled}
	cmdErr := &installer.InstallError{Kind: installer.KindCommandFailed, Detail: "exit 1"}

	tests := []struct {
		name      string
		status    installer.Status
		toolReady bool
		want      string
	}{
		{name: "running", status: installer.Status{InProgress: true}, want: "installing…"},
		{name: "never attempted", status: installer.Status{}, want: "no installation attempted"},
		{name: "ready without install", status: installer.Status{}, toolReady: true, want: "tool ready (no install needed)"},
		{name: "succeeded", status: installer.Status{Outcome: &yes}, want: "installed"},
		{name: "cancelled", status: installer.Status{Outcome: &no, Err: cancelErr}, want: "cancelled"},
		{name: "failed", status: installer.Status{Outcome: &no, Err: cmdErr}, want: "failed"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Contains(t, stateLabel(tt.status, tt.toolReady), tt.want)
		})
	}
}

func TestDurationLine(t *testing.T) {
	t.Parallel()

	require.Empty(t, durationLine(installer.Status{}))

	started := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	elapsed := 1500 * time.Millisecond
	line := durationLine(installer.Status{StartedAt: &started, Duration: &elapsed})
	require.Contains(t, line, "09:30:00")
	require.Contains(t, line, "1.5s")
}

func TestPollUpdatesModel(t *testing.T) {
	t.Parallel()

	yes := true
	source := stubSource{status: installer.Status{Outcome: &yes}, ready: true}
	app, err := New(WithSource(source), WithToolName("radare2"))
	require.NoError(t, err)

	m := newModel(app.cfg)
	updated, cmd := m.Update(statusTickMsg(time.Now()))
	require.NotNil(t, cmd, "polling must reschedule itself")

	got, ok := updated.(*model)
	require.True(t, ok)
	require.True(t, got.toolReady)
	require.NotNil(t, got.status.Outcome)
	require.Contains(t, got.View(), "installed")
}

type stubSource struct {
	status installer.Status
	ready  bool
	cancel bool
}

func (s stubSource) InstallStatus() installer.Status { return s.status }
func (s stubSource) CancelInstall() bool             { return s.cancel }
func (s stubSource) IsToolReady() bool               { return s.ready }
