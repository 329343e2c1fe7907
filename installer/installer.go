// Package installer drives one-shot installation attempts for an external
// tool through the platform package manager. An attempt runs in the
// background when a fallback tool already covers the caller, or inline when
// nothing else can serve; either way the caller observes progress through
// Status and may request cooperative cancellation of background attempts.
package installer

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"time"

	"github.com/BrianJOC/toolchain-prep/utils/cmdrunner"
	"github.com/BrianJOC/toolchain-prep/utils/envprobe"
	"github.com/BrianJOC/toolchain-prep/utils/logging"
	"github.com/BrianJOC/toolchain-prep/utils/pkgmanager"
	"github.com/BrianJOC/toolchain-prep/utils/toolverify"
)

// ToolSpec describes the tool an Installer manages.
type ToolSpec struct {
	// Name is the display name used in logs.
	Name string
	// Binary is the executable the tool provides.
	Binary string
	// Package is the package name handed to the package manager.
	Package string
	// PackageOverrides substitutes manager-specific package names.
	PackageOverrides map[pkgmanager.Manager]string
	// FallbackBinaries lists executables that can stand in for the tool.
	// When one is present, installation runs in the background.
	FallbackBinaries []string
	// RequiresPrivilege marks installs that need elevation.
	RequiresPrivilege bool
	// VerifyProbe proves the installed tool responds.
	VerifyProbe toolverify.Probe
}

// PackageFor resolves the package name for a concrete manager.
func (s ToolSpec) PackageFor(manager pkgmanager.Manager) string {
	if name, ok := s.PackageOverrides[manager]; ok {
		return name
	}
	return s.Package
}

// Mode reports how Ensure dispatched an attempt.
type Mode int

const (
	// ModeDisabled means automatic installation is administratively off.
	ModeDisabled Mode = iota
	// ModeAlreadyRunning means an attempt was already in flight.
	ModeAlreadyRunning
	// ModeBackground means a worker goroutine was spawned.
	ModeBackground
	// ModeForeground means the attempt ran inline before Ensure returned.
	ModeForeground
)

func (m Mode) String() string {
	switch m {
	case ModeDisabled:
		return "disabled"
	case ModeAlreadyRunning:
		return "already-running"
	case ModeBackground:
		return "background"
	case ModeForeground:
		return "foreground"
	default:
		return "unknown"
	}
}

// Observer receives lifecycle callbacks for install attempts. Callbacks are
// advisory; Status remains the source of truth.
type Observer interface {
	InstallStarted(tool string, mode Mode)
	InstallFinished(tool string, status Status)
}

// job carries everything the worker needs, captured at spawn time so the
// worker never aliases installer fields that a new attempt could replace.
type job struct {
	tool              string
	packageFor        func(pkgmanager.Manager) string
	requiresPrivilege bool
	probe             toolverify.Probe
}

// Installer owns the installation state machine for a single tool.
type Installer struct {
	spec ToolSpec

	adapter   *pkgmanager.Adapter
	runner    cmdrunner.Runner
	probe     *envprobe.Probe
	logger    *slog.Logger
	observers []Observer

	now      func() time.Time
	lookPath func(string) (string, error)
	detect   func(func(string) (string, error)) (pkgmanager.Manager, error)

	state guardedState
}

// Option configures an Installer.
type Option func(*Installer) error

// WithAdapter overrides the package-manager adapter.
func WithAdapter(a *pkgmanager.Adapter) Option {
	return func(i *Installer) error {
		if a == nil {
			return OptionError{Reason: "adapter must not be nil"}
		}
		i.adapter = a
		return nil
	}
}

// WithRunner overrides the command runner used for verification probes.
func WithRunner(r cmdrunner.Runner) Option {
	return func(i *Installer) error {
		if r == nil {
			return OptionError{Reason: "runner must not be nil"}
		}
		i.runner = r
		return nil
	}
}

// WithProbe overrides the environment probe.
func WithProbe(p *envprobe.Probe) Option {
	return func(i *Installer) error {
		if p == nil {
			return OptionError{Reason: "probe must not be nil"}
		}
		i.probe = p
		return nil
	}
}

// WithClock overrides the time source (for tests).
func WithClock(now func() time.Time) Option {
	return func(i *Installer) error {
		if now == nil {
			return OptionError{Reason: "clock must not be nil"}
		}
		i.now = now
		return nil
	}
}

// WithLookPath overrides binary resolution (for tests).
func WithLookPath(fn func(string) (string, error)) Option {
	return func(i *Installer) error {
		if fn == nil {
			return OptionError{Reason: "lookPath must not be nil"}
		}
		i.lookPath = fn
		return nil
	}
}

// WithManagerDetect overrides package-manager detection (for tests).
func WithManagerDetect(fn func(func(string) (string, error)) (pkgmanager.Manager, error)) Option {
	return func(i *Installer) error {
		if fn == nil {
			return OptionError{Reason: "detect must not be nil"}
		}
		i.detect = fn
		return nil
	}
}

// WithLogger overrides the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(i *Installer) error {
		if logger == nil {
			return OptionError{Reason: "logger must not be nil"}
		}
		i.logger = logger
		return nil
	}
}

// WithObserver registers an observer for lifecycle callbacks.
func WithObserver(obs Observer) Option {
	return func(i *Installer) error {
		if obs != nil {
			i.observers = append(i.observers, obs)
		}
		return nil
	}
}

// New constructs an Installer for the given tool.
func New(spec ToolSpec, opts ...Option) (*Installer, error) {
	if spec.Package == "" {
		return nil, OptionError{Reason: "tool spec requires a package name"}
	}
	if spec.Binary == "" {
		return nil, OptionError{Reason: "tool spec requires a binary name"}
	}
	if spec.Name == "" {
		spec.Name = spec.Binary
	}

	adapter, err := pkgmanager.New()
	if err != nil {
		return nil, err
	}

	inst := &Installer{
		spec:     spec,
		adapter:  adapter,
		runner:   cmdrunner.NewLocal(),
		probe:    envprobe.New(),
		logger:   logging.Get(),
		now:      time.Now,
		lookPath: exec.LookPath,
		detect:   pkgmanager.Detect,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(inst); err != nil {
			return nil, err
		}
	}
	return inst, nil
}

// Spec returns the tool description the installer was built with.
func (i *Installer) Spec() ToolSpec {
	return i.spec
}

// Ensure starts an installation attempt for the missing tool. When
// automatic installation is disabled nothing happens; when a fallback
// binary is available the attempt runs in a background worker; otherwise
// Ensure blocks until the inline attempt reaches a terminal state. The
// attempt itself never returns an error: failures are recorded in the
// status snapshot.
func (i *Installer) Ensure(ctx context.Context) Mode {
	if ctx == nil {
		ctx = context.Background()
	}
	if i.probe.AutoInstallDisabled() {
		i.logger.Info("automatic installation disabled; install manually and re-run",
			"tool", i.spec.Name,
			"switch", envprobe.DisableEnvVar,
		)
		return ModeDisabled
	}

	background := i.fallbackAvailable()
	if !i.begin(background) {
		return ModeAlreadyRunning
	}

	work := job{
		tool:              i.spec.Name,
		packageFor:        i.spec.PackageFor,
		requiresPrivilege: i.spec.RequiresPrivilege,
		probe:             i.spec.VerifyProbe,
	}

	if background {
		i.notifyStarted(ModeBackground)
		// The worker outlives the caller; cancellation is the cooperative
		// flag, not the caller's context.
		go i.runWorker(context.WithoutCancel(ctx), work)
		return ModeBackground
	}

	i.notifyStarted(ModeForeground)
	i.runWorker(ctx, work)
	return ModeForeground
}

// fallbackAvailable reports whether any fallback binary resolves on PATH.
func (i *Installer) fallbackAvailable() bool {
	for _, bin := range i.spec.FallbackBinaries {
		if bin == "" {
			continue
		}
		if _, err := i.lookPath(bin); err == nil {
			return true
		}
	}
	return false
}

// begin transitions into InProgress, resetting the record for a fresh
// attempt. Returns false when an attempt is already running.
func (i *Installer) begin(background bool) bool {
	i.state.mu.Lock()
	defer i.state.mu.Unlock()

	if i.state.rec.inProgress {
		return false
	}

	i.state.rec.reset()
	if background {
		i.state.rec.workerDone = make(chan struct{})
	}
	started := i.now()
	i.state.rec.startedAt = &started
	i.state.rec.inProgress = true
	return true
}

// runWorker executes one attempt. Cancellation is checked cooperatively at
// three checkpoints: before manager resolution, before the install command,
// and after the command but before verification. The worker always reaches
// a terminal transition, even when the adapter panics.
func (i *Installer) runWorker(ctx context.Context, work job) {
	defer func() {
		if r := recover(); r != nil {
			i.finish(false, &InstallError{Kind: KindUnexpected, Detail: fmt.Sprint(r)})
		}
	}()

	if i.cancelRequested() {
		i.finishCancelled(work)
		return
	}

	manager, err := i.detect(i.lookPath)
	if err != nil {
		i.finishFailed(work, classify(err))
		return
	}

	if i.cancelRequested() {
		i.finishCancelled(work)
		return
	}

	pkg := work.packageFor(manager)
	i.logger.Info("installing tool",
		"tool", work.tool,
		"manager", string(manager),
		"package", pkg,
		"privileged", work.requiresPrivilege,
	)

	result, err := i.adapter.Install(ctx, manager, pkg, work.requiresPrivilege)
	if err != nil {
		i.finishFailed(work, classify(err))
		return
	}
	if result.Skipped {
		i.finishFailed(work, &InstallError{Kind: KindSkipped, Detail: result.Reason})
		return
	}

	if i.cancelRequested() {
		i.finishCancelled(work)
		return
	}

	// Verification is advisory: a tool that installed but fails its probe
	// is still reported as Succeeded, with a warning in the log.
	if len(work.probe.Argv) > 0 && !toolverify.Verify(ctx, i.runner, work.probe) {
		i.logger.Warn("installed tool failed verification probe",
			"tool", work.tool,
			"probe", work.probe.Argv,
		)
	}

	i.finishSucceeded(work)
}

// cancelRequested is the checkpoint read.
func (i *Installer) cancelRequested() bool {
	i.state.mu.Lock()
	defer i.state.mu.Unlock()
	return i.state.rec.cancelRequested
}

func (i *Installer) finishSucceeded(work job) {
	status := i.finish(true, nil)
	i.logger.Info("tool installed", "tool", work.tool, "duration", durationOf(status))
	i.notifyFinished(status)
}

func (i *Installer) finishFailed(work job, instErr *InstallError) {
	status := i.finish(false, instErr)
	i.logger.Error("tool installation failed",
		"tool", work.tool,
		"kind", string(instErr.Kind),
		"error", instErr.Detail,
	)
	i.notifyFinished(status)
}

func (i *Installer) finishCancelled(work job) {
	status := i.finish(false, &InstallError{Kind: KindCancelled, Detail: "installation cancelled by caller"})
	i.logger.Info("tool installation cancelled", "tool", work.tool)
	i.notifyFinished(status)
}

// finish performs the terminal transition. The duration is computed exactly
// once here and never recomputed for this attempt.
func (i *Installer) finish(outcome bool, instErr *InstallError) Status {
	i.state.mu.Lock()
	defer i.state.mu.Unlock()

	rec := &i.state.rec
	if !rec.inProgress {
		return i.snapshotLocked()
	}

	elapsed := i.now().Sub(*rec.startedAt)
	rec.duration = &elapsed
	rec.outcome = &outcome
	rec.err = instErr
	rec.inProgress = false
	if rec.workerDone != nil {
		close(rec.workerDone)
	}
	return i.snapshotLocked()
}

// Status returns a consistent snapshot of the current attempt. While an
// attempt is in progress the duration is derived from a single clock
// reading; afterwards the stored terminal duration is returned unchanged.
func (i *Installer) Status() Status {
	i.state.mu.Lock()
	defer i.state.mu.Unlock()
	return i.snapshotLocked()
}

func (i *Installer) snapshotLocked() Status {
	rec := &i.state.rec

	status := Status{InProgress: rec.inProgress}
	if rec.outcome != nil {
		outcome := *rec.outcome
		status.Outcome = &outcome
	}
	if rec.err != nil {
		errCopy := *rec.err
		status.Err = &errCopy
	}
	if rec.startedAt != nil {
		started := *rec.startedAt
		status.StartedAt = &started
	}
	switch {
	case rec.inProgress:
		elapsed := i.now().Sub(*rec.startedAt)
		status.Duration = &elapsed
	case rec.duration != nil:
		stored := *rec.duration
		status.Duration = &stored
	}
	return status
}

// Cancel requests cooperative cancellation of the running attempt. It
// returns false when nothing is running or when the attempt runs in the
// foreground (no worker exists to signal), and true once the flag is set.
// Cancel never blocks waiting for the worker and is safe to call any
// number of times.
func (i *Installer) Cancel() bool {
	i.state.mu.Lock()
	defer i.state.mu.Unlock()

	rec := &i.state.rec
	if !rec.inProgress {
		return false
	}
	if rec.workerDone == nil {
		return false
	}
	rec.cancelRequested = true
	return true
}

func (i *Installer) notifyStarted(mode Mode) {
	for _, obs := range i.observers {
		obs.InstallStarted(i.spec.Name, mode)
	}
}

func (i *Installer) notifyFinished(status Status) {
	for _, obs := range i.observers {
		obs.InstallFinished(i.spec.Name, status)
	}
}

func durationOf(status Status) time.Duration {
	if status.Duration == nil {
		return 0
	}
	return *status.Duration
}
