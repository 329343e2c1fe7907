// Package toolverify confirms an installed tool actually responds. It runs
// a short probe command and checks the output for an expected marker,
// distinguishing a broken binary from an absent one.
package toolverify

import (
	"context"
	"strings"
	"time"

	"github.com/BrianJOC/toolchain-prep/utils/cmdrunner"
)

// ProbeTimeout bounds every verification probe.
const ProbeTimeout = 5 * time.Second

// Probe describes how to prove a tool is usable.
type Probe struct {
	Argv   []string
	Marker string
}

// Verify runs the probe and reports whether the tool is usable: the command
// must exit zero and its combined output must contain the marker. Any
// failure, including a panicking runner, yields false; Verify never
// propagates an error.
func Verify(ctx context.Context, runner cmdrunner.Runner, probe Probe) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()

	if runner == nil || len(probe.Argv) == 0 {
		return false
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, ProbeTimeout)
	defer cancel()

	stdout, stderr, err := runner.Run(ctx, probe.Argv)
	if err != nil {
		return false
	}
	if probe.Marker == "" {
		return true
	}
	return strings.Contains(stdout, probe.Marker) || strings.Contains(stderr, probe.Marker)
}
