// Package toolhost exposes tool readiness to the analysis pipeline. A Host
// owns the handle for one external tool, resolves it from PATH when
// possible, and delegates to the installer subsystem when it is missing.
// Consumers poll InstallStatus for progress; the install log is advisory
// and never the source of truth.
package toolhost

import (
	"context"
	"log/slog"
	"os/exec"
	"sync"

	"github.com/BrianJOC/toolchain-prep/installer"
	"github.com/BrianJOC/toolchain-prep/utils/logging"
	"github.com/BrianJOC/toolchain-prep/utils/toolverify"
)

// Tool is the resolved handle for a usable external tool.
type Tool struct {
	Name string
	Path string
}

// Host tracks one tool's readiness and drives installation when needed.
type Host struct {
	inst     *installer.Installer
	logger   *slog.Logger
	lookPath func(string) (string, error)

	mu   sync.Mutex
	tool *Tool
}

// Option mutates Host configuration.
type Option func(*Host)

// WithLookPath overrides binary resolution (for tests).
func WithLookPath(fn func(string) (string, error)) Option {
	return func(h *Host) {
		if fn != nil {
			h.lookPath = fn
		}
	}
}

// WithLogger overrides the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Host) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// New constructs a Host around an installer.
func New(inst *installer.Installer, opts ...Option) (*Host, error) {
	if inst == nil {
		return nil, NilInstallerError{}
	}
	h := &Host{
		inst:     inst,
		logger:   logging.Get(),
		lookPath: exec.LookPath,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h, nil
}

// IsToolReady reports whether the tool handle has been resolved.
func (h *Host) IsToolReady() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.tool != nil
}

// Tool returns a copy of the resolved handle, or nil when not ready.
func (h *Host) Tool() *Tool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.tool == nil {
		return nil
	}
	copied := *h.tool
	return &copied
}

// ReloadTool re-attempts handle resolution after a successful install. It
// is idempotent: once the handle exists it stays resolved and ReloadTool
// keeps returning true.
func (h *Host) ReloadTool() bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.tool != nil {
		return true
	}

	status := h.inst.Status()
	if status.Outcome == nil || !*status.Outcome {
		return false
	}
	return h.resolveLocked()
}

// EnsureTool makes the tool ready if it can: it resolves the binary from
// PATH first and only drives an installation attempt on a miss. The return
// value reports readiness right now; background installs report false
// until a later ReloadTool observes the finished attempt.
func (h *Host) EnsureTool(ctx context.Context) bool {
	h.mu.Lock()
	if h.tool != nil {
		h.mu.Unlock()
		return true
	}
	if h.resolveLocked() {
		h.mu.Unlock()
		return true
	}
	h.mu.Unlock()

	spec := h.inst.Spec()
	mode := h.inst.Ensure(ctx)
	h.logger.Info("tool missing; install dispatched", "tool", spec.Name, "mode", mode.String())

	if mode == installer.ModeForeground {
		return h.ReloadTool()
	}
	return false
}

// InstallStatus returns the snapshot of the current installation attempt.
func (h *Host) InstallStatus() installer.Status {
	return h.inst.Status()
}

// CancelInstall requests cooperative cancellation of a running background
// installation.
func (h *Host) CancelInstall() bool {
	return h.inst.Cancel()
}

// resolveLocked looks the binary up on PATH and sets the handle on success.
// Callers must hold h.mu.
func (h *Host) resolveLocked() bool {
	spec := h.inst.Spec()
	path, err := h.lookPath(spec.Binary)
	if err != nil {
		return false
	}
	h.tool = &Tool{Name: spec.Name, Path: path}
	return true
}

// Radare2Spec describes the disassembler the analysis pipeline wraps:
// radare2 installed through the platform package manager, with objdump as
// the fallback that makes background installation safe.
func Radare2Spec() installer.ToolSpec {
	return installer.ToolSpec{
		Name:              "radare2",
		Binary:            "r2",
		Package:           "radare2",
		FallbackBinaries:  []string{"objdump"},
		RequiresPrivilege: true,
		VerifyProbe: toolverify.Probe{
			Argv:   []string{"r2", "-v"},
			Marker: "radare2",
		},
	}
}
