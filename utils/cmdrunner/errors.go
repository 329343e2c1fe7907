package cmdrunner

import (
	"fmt"
	"strings"
)

// EmptyCommandError indicates Run was invoked without an argv.
type EmptyCommandError struct{}

func (EmptyCommandError) Error() string {
	return "command argv must not be empty"
}

// TimeoutError reports that a command exceeded its deadline.
type TimeoutError struct {
	Command string
	Err     error
}

func (e TimeoutError) Error() string {
	return fmt.Sprintf("%s timed out: %v", e.Command, e.Err)
}

func (e TimeoutError) Unwrap() error {
	return e.Err
}

// ExitError reports a command that ran but exited non-zero.
type ExitError struct {
	Command string
	Code    int
	Stderr  string
	Err     error
}

func (e ExitError) Error() string {
	return fmt.Sprintf("%s exited with code %d: %s", e.Command, e.Code, strings.TrimSpace(e.Stderr))
}

func (e ExitError) Unwrap() error {
	return e.Err
}

// StartError wraps spawn or transport failures before the command ran.
type StartError struct {
	Command string
	Err     error
}

func (e StartError) Error() string {
	return fmt.Sprintf("failed to start %s: %v", e.Command, e.Err)
}

func (e StartError) Unwrap() error {
	return e.Err
}

// DialError reports a failed connection to a remote runner target.
type DialError struct {
	Addr string
	Err  error
}

func (e DialError) Error() string {
	return fmt.Sprintf("failed to dial %s: %v", e.Addr, e.Err)
}

func (e DialError) Unwrap() error {
	return e.Err
}

// CredentialError captures invalid remote credentials.
type CredentialError struct {
	Reason string
}

func (e CredentialError) Error() string {
	return fmt.Sprintf("credential error: %s", e.Reason)
}
