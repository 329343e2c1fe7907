// Command toolprep ensures the analysis toolchain is present on a host. It
// resolves the configured tool, drives an installation attempt when the
// tool is missing, and polls the install status until a terminal state.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/BrianJOC/toolchain-prep/installer"
	"github.com/BrianJOC/toolchain-prep/pkg/toolhost"
	"github.com/BrianJOC/toolchain-prep/utils/cmdrunner"
	"github.com/BrianJOC/toolchain-prep/utils/logging"
	"github.com/BrianJOC/toolchain-prep/utils/pkgmanager"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "toolprep: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath = flag.String("config", "", "path to config.toml")
		remoteHost = flag.String("remote", "", "prepare a remote host over SSH instead of the local one")
		remotePort = flag.Int("remote-port", 0, "SSH port for -remote")
		remoteUser = flag.String("remote-user", "", "SSH user for -remote")
		remoteKey  = flag.String("remote-key", "", "SSH private key path for -remote")
		wait       = flag.Bool("wait", true, "poll a background install until it finishes")
	)
	flag.Parse()

	cfg := defaultAppConfig()
	if *configPath != "" {
		loaded, err := loadAppConfig(*configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if *remoteHost != "" {
		cfg.Remote.Host = *remoteHost
	}
	if *remotePort != 0 {
		cfg.Remote.Port = *remotePort
	}
	if *remoteUser != "" {
		cfg.Remote.User = *remoteUser
	}
	if *remoteKey != "" {
		cfg.Remote.KeyPath = *remoteKey
	}

	runner, cleanup, err := buildRunner(cfg.Remote)
	if err != nil {
		return err
	}
	defer cleanup()

	adapter, err := pkgmanager.New(pkgmanager.WithRunner(runner))
	if err != nil {
		return err
	}
	inst, err := installer.New(cfg.Spec,
		installer.WithAdapter(adapter),
		installer.WithRunner(runner),
	)
	if err != nil {
		return err
	}
	host, err := toolhost.New(inst)
	if err != nil {
		return err
	}

	ctx := context.Background()
	if host.EnsureTool(ctx) {
		fmt.Printf("%s is ready: %s\n", cfg.Spec.Name, host.Tool().Path)
		return nil
	}

	status := host.InstallStatus()
	if !status.InProgress {
		return reportTerminal(host, cfg.Spec.Name)
	}
	if !*wait {
		fmt.Printf("%s installing in the background; re-run to check progress\n", cfg.Spec.Name)
		return nil
	}

	logging.Get().Info("waiting for background install", "tool", cfg.Spec.Name)
	ticker := time.NewTicker(cfg.PollInterval)
	defer ticker.Stop()
	for range ticker.C {
		if !host.InstallStatus().InProgress {
			break
		}
	}
	return reportTerminal(host, cfg.Spec.Name)
}

// reportTerminal prints the final state of the attempt and maps it to the
// process exit status.
func reportTerminal(host *toolhost.Host, tool string) error {
	status := host.InstallStatus()

	switch {
	case status.Outcome == nil:
		return fmt.Errorf("%s is not installed and no installation was attempted", tool)
	case *status.Outcome:
		if host.ReloadTool() {
			fmt.Printf("%s installed in %s: %s\n", tool, status.Duration.Round(time.Millisecond), host.Tool().Path)
			return nil
		}
		return fmt.Errorf("%s reported installed but its binary did not resolve", tool)
	default:
		return fmt.Errorf("%s installation did not complete: %s", tool, status.Err.Error())
	}
}

// buildRunner picks the local executor or an SSH-backed one when a remote
// host is configured.
func buildRunner(remote remoteConfig) (cmdrunner.Runner, func(), error) {
	if remote.Host == "" {
		return cmdrunner.NewLocal(), func() {}, nil
	}

	ssh, err := cmdrunner.ConnectSSH(remote.Host, remote.Port, remote.User, cmdrunner.Credential{KeyPath: remote.KeyPath})
	if err != nil {
		return nil, nil, err
	}
	return ssh, func() { _ = ssh.Close() }, nil
}
