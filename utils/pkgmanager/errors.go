package pkgmanager

import (
	"fmt"
	"strings"
)

// ValidationError captures invalid install inputs.
type ValidationError struct {
	Reason string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("install validation failed: %s", e.Reason)
}

// OptionError surfaces invalid adapter options.
type OptionError struct {
	Reason string
}

func (e OptionError) Error() string {
	return fmt.Sprintf("adapter option error: %s", e.Reason)
}

// UnknownManagerError indicates an unrecognized package manager was requested.
type UnknownManagerError struct {
	Manager string
}

func (e UnknownManagerError) Error() string {
	return fmt.Sprintf("unknown package manager %q", e.Manager)
}

// NoManagerError indicates no supported package manager exists on the host.
type NoManagerError struct{}

func (NoManagerError) Error() string {
	return "no supported package manager found"
}

// CommandError wraps an install command that ran but exited non-zero.
type CommandError struct {
	Manager Manager
	Package string
	Stderr  string
	Err     error
}

func (e CommandError) Error() string {
	return fmt.Sprintf("%s install of %s failed: %s", e.Manager, e.Package, strings.TrimSpace(e.Stderr))
}

func (e CommandError) Unwrap() error {
	return e.Err
}

// TimeoutError indicates the install command exceeded the fixed timeout.
type TimeoutError struct {
	Manager Manager
	Package string
	Err     error
}

func (e TimeoutError) Error() string {
	return fmt.Sprintf("%s install of %s timed out", e.Manager, e.Package)
}

func (e TimeoutError) Unwrap() error {
	return e.Err
}

// ExecError wraps spawn or IO failures before the command completed.
type ExecError struct {
	Manager Manager
	Package string
	Err     error
}

func (e ExecError) Error() string {
	return fmt.Sprintf("%s install of %s could not execute: %v", e.Manager, e.Package, e.Err)
}

func (e ExecError) Unwrap() error {
	return e.Err
}
