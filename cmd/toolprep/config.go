package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/BrianJOC/toolchain-prep/installer"
	"github.com/BrianJOC/toolchain-prep/pkg/toolhost"
	"github.com/BrianJOC/toolchain-prep/utils/pkgmanager"
)

// toolprep config.toml key mapping onto the install spec and runtime knobs.
type fileConfig struct {
	Binary            string            `toml:"binary"`
	Package           string            `toml:"package"`
	RequiresPrivilege bool              `toml:"requires_privilege"`
	FallbackBinaries  []string          `toml:"fallback_binaries"`
	PackageOverrides  map[string]string `toml:"package_overrides"`
	VerifyArgs        []string          `toml:"verify_args"`
	VerifyMarker      string            `toml:"verify_marker"`
	PollInterval      string            `toml:"poll_interval"`
	Remote            remoteConfig      `toml:"remote"`
}

type remoteConfig struct {
	Host    string `toml:"host"`
	Port    int    `toml:"port"`
	User    string `toml:"user"`
	KeyPath string `toml:"key_path"`
}

type appConfig struct {
	Spec         installer.ToolSpec
	PollInterval time.Duration
	Remote       remoteConfig
}

func defaultAppConfig() appConfig {
	return appConfig{
		Spec:         toolhost.Radare2Spec(),
		PollInterval: time.Second,
	}
}

// loadAppConfig overlays config.toml onto the defaults; absent keys keep
// their default values.
func loadAppConfig(path string) (appConfig, error) {
	cfg := defaultAppConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return appConfig{}, fmt.Errorf("load toolprep config: %w", err)
	}

	if meta.IsDefined("binary") {
		cfg.Spec.Binary = strings.TrimSpace(raw.Binary)
		cfg.Spec.Name = cfg.Spec.Binary
	}
	if meta.IsDefined("package") {
		cfg.Spec.Package = strings.TrimSpace(raw.Package)
	}
	if meta.IsDefined("requires_privilege") {
		cfg.Spec.RequiresPrivilege = raw.RequiresPrivilege
	}
	if meta.IsDefined("fallback_binaries") {
		cfg.Spec.FallbackBinaries = raw.FallbackBinaries
	}
	if meta.IsDefined("package_overrides") {
		overrides := make(map[pkgmanager.Manager]string, len(raw.PackageOverrides))
		for manager, pkg := range raw.PackageOverrides {
			overrides[pkgmanager.Manager(manager)] = pkg
		}
		cfg.Spec.PackageOverrides = overrides
	}
	if meta.IsDefined("verify_args") {
		cfg.Spec.VerifyProbe.Argv = raw.VerifyArgs
	}
	if meta.IsDefined("verify_marker") {
		cfg.Spec.VerifyProbe.Marker = raw.VerifyMarker
	}
	if meta.IsDefined("poll_interval") {
		interval, parseErr := time.ParseDuration(strings.TrimSpace(raw.PollInterval))
		if parseErr != nil {
			return appConfig{}, fmt.Errorf("load toolprep config: invalid poll_interval: %w", parseErr)
		}
		if interval <= 0 {
			return appConfig{}, fmt.Errorf("load toolprep config: poll_interval must be positive")
		}
		cfg.PollInterval = interval
	}
	if meta.IsDefined("remote", "host") {
		cfg.Remote = raw.Remote
	}

	return cfg, nil
}
