// Package pkgmanager maps a logical (manager, package, privilege) tuple to a
// concrete install command and executes it with a bounded timeout. It never
// invokes a privileged command non-interactively inside CI; such requests
// are reported as skipped without touching the host.
package pkgmanager

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"time"

	"github.com/BrianJOC/toolchain-prep/utils/cmdrunner"
	"github.com/BrianJOC/toolchain-prep/utils/envprobe"
)

// Manager identifies a supported platform package manager.
type Manager string

const (
	Apt    Manager = "apt"
	Dnf    Manager = "dnf"
	Yum    Manager = "yum"
	Zypper Manager = "zypper"
	Pacman Manager = "pacman"
	Brew   Manager = "brew"
)

// InstallTimeout bounds every package-manager invocation.
const InstallTimeout = 300 * time.Second

// detectionOrder lists managers in the order Detect probes for them.
var detectionOrder = []Manager{Apt, Dnf, Yum, Zypper, Pacman, Brew}

// installTemplates holds the fixed argv template per manager. The package
// name is appended as the final element.
var installTemplates = map[Manager][]string{
	Apt:    {"apt-get", "install", "-y"},
	Dnf:    {"dnf", "install", "-y"},
	Yum:    {"yum", "install", "-y"},
	Zypper: {"zypper", "--non-interactive", "install"},
	Pacman: {"pacman", "-S", "--noconfirm"},
	Brew:   {"brew", "install"},
}

// managerBinaries maps each manager to the binary whose presence proves it.
var managerBinaries = map[Manager]string{
	Apt:    "apt-get",
	Dnf:    "dnf",
	Yum:    "yum",
	Zypper: "zypper",
	Pacman: "pacman",
	Brew:   "brew",
}

// Result reports what an install call did.
type Result struct {
	Manager Manager
	Package string
	Skipped bool
	Reason  string
}

// Adapter executes package installations through a Runner.
type Adapter struct {
	runner cmdrunner.Runner
	probe  *envprobe.Probe
}

// Option configures Adapter behavior.
type Option func(*Adapter) error

// WithRunner overrides the command runner (for tests or remote hosts).
func WithRunner(r cmdrunner.Runner) Option {
	return func(a *Adapter) error {
		if r == nil {
			return OptionError{Reason: "runner must not be nil"}
		}
		a.runner = r
		return nil
	}
}

// WithProbe overrides the environment probe.
func WithProbe(p *envprobe.Probe) Option {
	return func(a *Adapter) error {
		if p == nil {
			return OptionError{Reason: "probe must not be nil"}
		}
		a.probe = p
		return nil
	}
}

// New creates an Adapter running commands on the local host by default.
func New(opts ...Option) (*Adapter, error) {
	a := &Adapter{
		runner: cmdrunner.NewLocal(),
		probe:  envprobe.New(),
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(a); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// Install runs the manager's install command for pkg. When requiresPrivilege
// is set the argv is prefixed with a non-interactive sudo invocation, unless
// the process runs in CI, in which case the install is skipped entirely and
// the runner is never invoked.
func (a *Adapter) Install(ctx context.Context, manager Manager, pkg string, requiresPrivilege bool) (*Result, error) {
	pkg = strings.TrimSpace(pkg)
	if pkg == "" {
		return nil, ValidationError{Reason: "package name is required"}
	}

	template, ok := installTemplates[manager]
	if !ok {
		return nil, UnknownManagerError{Manager: string(manager)}
	}

	if requiresPrivilege && a.probe.IsCI() {
		return &Result{
			Manager: manager,
			Package: pkg,
			Skipped: true,
			Reason:  "privileged install suppressed in CI environment",
		}, nil
	}

	argv := make([]string, 0, len(template)+3)
	if requiresPrivilege {
		argv = append(argv, "sudo", "-n")
	}
	argv = append(argv, template...)
	argv = append(argv, pkg)

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, InstallTimeout)
	defer cancel()

	_, stderr, err := a.runner.Run(ctx, argv)
	if err != nil {
		return nil, classifyRunError(manager, pkg, stderr, err)
	}

	return &Result{Manager: manager, Package: pkg}, nil
}

// Detect returns the first available package manager on the host, probing
// in a fixed order. lookPath may be nil, in which case exec.LookPath is used.
func Detect(lookPath func(string) (string, error)) (Manager, error) {
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	for _, manager := range detectionOrder {
		if _, err := lookPath(managerBinaries[manager]); err == nil {
			return manager, nil
		}
	}
	return "", NoManagerError{}
}

func classifyRunError(manager Manager, pkg, stderr string, err error) error {
	var timeoutErr cmdrunner.TimeoutError
	if errors.As(err, &timeoutErr) {
		return TimeoutError{Manager: manager, Package: pkg, Err: err}
	}

	var exitErr cmdrunner.ExitError
	if errors.As(err, &exitErr) {
		return CommandError{Manager: manager, Package: pkg, Stderr: stderr, Err: err}
	}

	return ExecError{Manager: manager, Package: pkg, Err: err}
}
