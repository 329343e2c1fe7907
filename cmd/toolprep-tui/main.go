// Command toolprep-tui watches an installation attempt interactively: it
// kicks off tool readiness and renders live install status with keys for
// cancelling the attempt and copying error details.
package main

import (
	"context"
	"log"

	"github.com/BrianJOC/toolchain-prep/installer"
	"github.com/BrianJOC/toolchain-prep/pkg/toolhost"
	"github.com/BrianJOC/toolchain-prep/pkg/watchapp"
)

func main() {
	spec := toolhost.Radare2Spec()

	inst, err := installer.New(spec)
	if err != nil {
		log.Fatalf("failed to initialize installer: %v", err)
	}
	host, err := toolhost.New(inst)
	if err != nil {
		log.Fatalf("failed to initialize tool host: %v", err)
	}

	ctx := context.Background()
	host.EnsureTool(ctx)

	app, err := watchapp.New(
		watchapp.WithSource(host),
		watchapp.WithToolName(spec.Name),
	)
	if err != nil {
		log.Fatalf("failed to initialize watch app: %v", err)
	}
	if err := app.Start(ctx); err != nil {
		log.Fatalf("tui exited with error: %v", err)
	}
}
