// Package session loads the project and build context shared by every sub-command.
package session

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"
	"github.com/spf13/viper"

	"github.com/LegacyCodeHQ/kettle/logging"
	"github.com/LegacyCodeHQ/kettle/manifest"
	"github.com/LegacyCodeHQ/kettle/project"
	"github.com/LegacyCodeHQ/kettle/toolchain"
)

// Viper keys bound to the root command's persistent flags.
const (
	KeyRoot          = "root"
	KeyConfiguration = "configuration"
	KeyLogLevel      = "log-level"
	KeyPlatform      = "platform"
)

// Settings are the global options of a command invocation.
type Settings struct {
	Root          string
	Configuration string
	LogLevel      string
	Platform      string
}

// SettingsFrom reads settings from v, which merges flags and KETTLE_* variables.
func SettingsFrom(v *viper.Viper) Settings {
	return Settings{
		Root:          v.GetString(KeyRoot),
		Configuration: v.GetString(KeyConfiguration),
		LogLevel:      v.GetString(KeyLogLevel),
		Platform:      v.GetString(KeyPlatform),
	}
}

// Session is a loaded project ready to build.
type Session struct {
	Settings Settings
	Project  *manifest.Project
	Context  *project.Context
	Logger   *log.Logger
}

// Open loads the project described by settings. The returned context carries the logger.
func Open(ctx context.Context, settings Settings, fs afero.Fs, logOut io.Writer) (context.Context, *Session, error) {
	level := settings.LogLevel
	if level == "" {
		level = "info"
	}
	logger, err := logging.New(logOut, level)
	if err != nil {
		return ctx, nil, err
	}
	ctx = logging.WithLogger(ctx, logger)

	platform, err := resolvePlatform(settings.Platform)
	if err != nil {
		return ctx, nil, err
	}

	root := settings.Root
	if root == "" {
		root = "."
	}
	if root, err = filepath.Abs(root); err != nil {
		return ctx, nil, fmt.Errorf("failed to resolve project root: %w", err)
	}

	p, err := manifest.Load(ctx, fs, root)
	if err != nil {
		return ctx, nil, err
	}
	pctx, err := p.Context(settings.Configuration, platform, fs)
	if err != nil {
		return ctx, nil, err
	}
	logger.Debug("Loaded project", "root", root, "configuration", pctx.Configuration.Name,
		"platform", platform, "selection", pctx.Selection().Names(), "targets", len(pctx.Targets()))

	return ctx, &Session{Settings: settings, Project: p, Context: pctx, Logger: logger}, nil
}

func resolvePlatform(name string) (toolchain.Platform, error) {
	if name == "" {
		return toolchain.HostPlatform()
	}
	return toolchain.ParsePlatform(name)
}
