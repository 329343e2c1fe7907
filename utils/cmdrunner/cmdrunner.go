// Package cmdrunner executes argv-vector commands with bounded timeouts.
// Commands are never handed to a shell as interpolated strings; callers
// supply the argv and the runner enforces the deadline.
package cmdrunner

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
	"time"
)

// Runner executes a command described by argv and returns its output.
type Runner interface {
	Run(ctx context.Context, argv []string) (stdout string, stderr string, err error)
}

// Local runs commands on the current host via os/exec.
type Local struct{}

// NewLocal creates a Runner for the current host.
func NewLocal() *Local {
	return &Local{}
}

// Run executes argv and waits for completion or context expiry.
func (l *Local) Run(ctx context.Context, argv []string) (string, string, error) {
	if len(argv) == 0 {
		return "", "", EmptyCommandError{}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err == nil {
		return stdout.String(), stderr.String(), nil
	}

	if ctxErr := ctx.Err(); errors.Is(ctxErr, context.DeadlineExceeded) {
		return stdout.String(), stderr.String(), TimeoutError{Command: argv[0], Err: ctxErr}
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return stdout.String(), stderr.String(), ExitError{
			Command: argv[0],
			Code:    exitErr.ExitCode(),
			Stderr:  stderr.String(),
			Err:     err,
		}
	}

	return stdout.String(), stderr.String(), StartError{Command: argv[0], Err: err}
}

// RunWithTimeout is a convenience wrapper applying a fixed timeout around Run.
func RunWithTimeout(r Runner, timeout time.Duration, argv []string) (string, string, error) {
	ctx := context.Background()
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return r.Run(ctx, argv)
}

// quoteArgv renders argv as a single shell-safe command line. Remote
// transports only accept a command string, so each element is quoted
// individually to preserve the argv-vector contract.
func quoteArgv(argv []string) string {
	quoted := make([]string, 0, len(argv))
	for _, arg := range argv {
		quoted = append(quoted, shellQuote(arg))
	}
	return strings.Join(quoted, " ")
}

func shellQuote(value string) string {
	if value == "" {
		return "''"
	}
	if !strings.ContainsAny(value, " \t\n'\"\\$&|;<>()*?[]#~%{}") {
		return value
	}
	return "'" + strings.ReplaceAll(value, "'", `'"'"'`) + "'"
}
