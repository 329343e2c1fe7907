package installer

import (
	"errors"
	"fmt"

	"github.com/BrianJOC/toolchain-prep/utils/pkgmanager"
)

// ErrorKind classifies why an installation attempt ended without a usable
// tool. Callers branch on the kind rather than matching message text.
type ErrorKind string

const (
	KindCancelled        ErrorKind = "cancelled"
	KindCommandFailed    ErrorKind = "command_failed"
	KindTimeout          ErrorKind = "timeout"
	KindSkipped          ErrorKind = "skipped_ci_privilege"
	KindNoPackageManager ErrorKind = "no_package_manager"
	KindUnknownManager   ErrorKind = "unknown_manager"
	KindExecFailure      ErrorKind = "exec_failure"
	KindUnexpected       ErrorKind = "unexpected"
)

// InstallError is the terminal error recorded for a failed or cancelled
// attempt: a stable kind plus an optional human-readable detail.
type InstallError struct {
	Kind   ErrorKind
	Detail string
}

func (e *InstallError) Error() string {
	if e.Detail == "" {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

// OptionError surfaces invalid installer options.
type OptionError struct {
	Reason string
}

func (e OptionError) Error() string {
	return fmt.Sprintf("installer option error: %s", e.Reason)
}

// classify maps adapter-level failures onto the stable error taxonomy.
func classify(err error) *InstallError {
	var timeoutErr pkgmanager.TimeoutError
	if errors.As(err, &timeoutErr) {
		return &InstallError{Kind: KindTimeout, Detail: timeoutErr.Error()}
	}

	var cmdErr pkgmanager.CommandError
	if errors.As(err, &cmdErr) {
		return &InstallError{Kind: KindCommandFailed, Detail: cmdErr.Error()}
	}

	var unknownErr pkgmanager.UnknownManagerError
	if errors.As(err, &unknownErr) {
		return &InstallError{Kind: KindUnknownManager, Detail: unknownErr.Error()}
	}

	var noManagerErr pkgmanager.NoManagerError
	if errors.As(err, &noManagerErr) {
		return &InstallError{Kind: KindNoPackageManager, Detail: noManagerErr.Error()}
	}

	var execErr pkgmanager.ExecError
	if errors.As(err, &execErr) {
		return &InstallError{Kind: KindExecFailure, Detail: execErr.Error()}
	}

	return &InstallError{Kind: KindUnexpected, Detail: err.Error()}
}
