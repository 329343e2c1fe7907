// Package envprobe inspects the execution environment for signals that
// change how tool installation should behave: an operator switch that
// disables automatic installation entirely, and CI indicators that suppress
// privileged package-manager invocations.
package envprobe

import (
	"os"
	"strings"
)

// DisableEnvVar is the operator switch that turns off automatic installation.
const DisableEnvVar = "TOOLPREP_NO_AUTO_INSTALL"

// ciIndicators is the fixed set of environment variables recognized as CI
// markers. Unrecognized CI systems yield a false negative, which only means
// a privileged install is attempted where it would have been skipped.
var ciIndicators = []string{
	"CI",
	"GITHUB_ACTIONS",
	"GITLAB_CI",
	"TRAVIS",
	"CIRCLECI",
	"JENKINS_URL",
	"BUILDKITE",
	"TEAMCITY_VERSION",
}

// Probe answers environment questions. The zero value reads the real
// process environment.
type Probe struct {
	getenv func(string) string
}

// New creates a Probe backed by os.Getenv.
func New() *Probe {
	return &Probe{getenv: os.Getenv}
}

// WithGetenv overrides the environment lookup (for tests).
func (p *Probe) WithGetenv(fn func(string) string) *Probe {
	if fn != nil {
		p.getenv = fn
	}
	return p
}

// AutoInstallDisabled reports whether automatic installation has been
// administratively disabled via DisableEnvVar.
func (p *Probe) AutoInstallDisabled() bool {
	return strings.TrimSpace(p.lookup(DisableEnvVar)) != ""
}

// IsCI reports whether any recognized CI indicator variable is present and
// non-empty.
func (p *Probe) IsCI() bool {
	for _, name := range ciIndicators {
		if strings.TrimSpace(p.lookup(name)) != "" {
			return true
		}
	}
	return false
}

func (p *Probe) lookup(name string) string {
	if p.getenv == nil {
		return os.Getenv(name)
	}
	return p.getenv(name)
}
