package cmdrunner

import (
	"context"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLocalRunCapturesOutput(t *testing.T) {
	t.Parallel()
	skipWithoutShell(t)

	stdout, stderr, err := NewLocal().Run(context.Background(), []string{"sh", "-c", "printf ok; printf warn >&2"})
	require.NoError(t, err)
	require.Equal(t, "ok", stdout)
	require.Equal(t, "warn", stderr)
}

func TestLocalRunNonZeroExit(t *testing.T) {
	t.Parallel()
	skipWithoutShell(t)

	_, _, err := NewLocal().Run(context.Background(), []string{"sh", "-c", "echo broken >&2; exit 3"})
	require.Error(t, err)
	var exitErr ExitError
	require.ErrorAs(t, err, &exitErr)
	require.Equal(t, 3, exitErr.Code)
	require.Contains(t, exitErr.Stderr, "broken")
}

func TestLocalRunTimeout(t *testing.T) {
	t.Parallel()
	skipWithoutShell(t)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, _, err := NewLocal().Run(ctx, []string{"sh", "-c", "sleep 5"})
	require.Error(t, err)
	require.IsType(t, TimeoutError{}, err)
}

func TestLocalRunSpawnFailure(t *testing.T) {
	t.Parallel()

	_, _, err := NewLocal().Run(context.Background(), []string{"/nonexistent/binary-for-test"})
	require.Error(t, err)
	require.IsType(t, StartError{}, err)
}

func TestLocalRunValidatesArgv(t *testing.T) {
	t.Parallel()

	_, _, err := NewLocal().Run(context.Background(), nil)
	require.Error(t, err)
	require.IsType(t, EmptyCommandError{}, err)
}

func TestQuoteArgv(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		argv []string
		want string
	}{
		{name: "plain words", argv: []string{"apt-get", "install", "-y", "radare2"}, want: "apt-get install -y radare2"},
		{name: "spaces quoted", argv: []string{"echo", "two words"}, want: "echo 'two words'"},
		{name: "empty arg", argv: []string{"echo", ""}, want: "echo ''"},
		{name: "single quote escaped", argv: []string{"echo", "it's"}, want: `echo 'it'"'"'s'`},
		{name: "shell metacharacters", argv: []string{"echo", "a;b"}, want: "echo 'a;b'"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, quoteArgv(tt.argv))
		})
	}
}

func TestCredentialValidation(t *testing.T) {
	t.Parallel()

	_, err := Credential{}.authMethod()
	require.Error(t, err)
	require.IsType(t, CredentialError{}, err)

	_, err = Credential{Password: "x", KeyPath: "/tmp/key"}.authMethod()
	require.Error(t, err)
	require.IsType(t, CredentialError{}, err)

	method, err := Credential{Password: "secret"}.authMethod()
	require.NoError(t, err)
	require.NotNil(t, method)
}

func skipWithoutShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
}
