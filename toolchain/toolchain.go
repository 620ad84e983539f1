// Package toolchain builds and runs compiler and archiver command lines.
package toolchain

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mattn/go-shellwords"
	"github.com/spf13/afero"

	"github.com/LegacyCodeHQ/kettle/environment"
)

const defaultArFlags = "-cru"

// Toolchain invokes platform tools with settings taken from an environment.
type Toolchain struct {
	Platform Platform
	Runner   Runner
	Fs       afero.Fs
}

// New creates a toolchain that runs real processes and keeps its outputs on fs.
func New(platform Platform, fs afero.Fs) *Toolchain {
	return &Toolchain{Platform: platform, Runner: ExecRunner{}, Fs: fs}
}

// CompileRequest describes one translation unit.
type CompileRequest struct {
	Source string
	Object string
	// Inputs are the files the object depends on besides Source. An object
	// newer than Source and every input is not rebuilt.
	Inputs []string
}

// LinkStatic archives objects into the static library at library.
func (t *Toolchain) LinkStatic(ctx context.Context, env *environment.Environment, library string, objects []string) error {
	if err := t.Fs.MkdirAll(filepath.Dir(library), 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(library), err)
	}

	var cmd Command
	switch t.Platform {
	case Darwin:
		tool, err := stringOr(env, "libtool", "libtool")
		if err != nil {
			return err
		}
		cmd = Command{Name: tool, Args: append([]string{"-static", "-o", library}, objects...)}
	case Linux:
		tool, err := stringOr(env, "ar", "ar")
		if err != nil {
			return err
		}
		flags, err := arFlags(env)
		if err != nil {
			return err
		}
		if err := t.Fs.Remove(library); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove %s: %w", library, err)
		}
		args := append(flags, library)
		cmd = Command{Name: tool, Args: append(args, objects...)}
	default:
		return &UnsupportedPlatformError{Name: t.Platform.String()}
	}

	if err := t.Runner.Run(ctx, cmd); err != nil {
		return fmt.Errorf("failed to link %s: %w", library, err)
	}
	return nil
}

// Compile compiles req.Source into req.Object using the cc or cxx key and
// buildflags, unless the object is already up to date.
func (t *Toolchain) Compile(ctx context.Context, env *environment.Environment, req CompileRequest) error {
	fresh, err := t.UpToDate(req)
	if err != nil {
		return err
	}
	if fresh {
		return nil
	}

	key, fallback := "cc", "cc"
	if isCxx(req.Source) {
		key, fallback = "cxx", "c++"
	}
	compiler, err := stringOr(env, key, fallback)
	if err != nil {
		return err
	}

	var flags []string
	if env.Has("buildflags") {
		if flags, err = env.Strings("buildflags"); err != nil {
			return err
		}
	}

	if err := t.Fs.MkdirAll(filepath.Dir(req.Object), 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(req.Object), err)
	}

	args := append(append([]string(nil), flags...), "-c", req.Source, "-o", req.Object)
	if err := t.Runner.Run(ctx, Command{Name: compiler, Args: args}); err != nil {
		return fmt.Errorf("failed to compile %s: %w", req.Source, err)
	}
	return nil
}

// UpToDate reports whether req.Object exists and is not older than req.Source
// or any of req.Inputs. Missing sources or inputs make the object stale.
func (t *Toolchain) UpToDate(req CompileRequest) (bool, error) {
	object, err := t.Fs.Stat(req.Object)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to stat %s: %w", req.Object, err)
	}

	for _, path := range append([]string{req.Source}, req.Inputs...) {
		info, err := t.Fs.Stat(path)
		if os.IsNotExist(err) {
			return false, nil
		}
		if err != nil {
			return false, fmt.Errorf("failed to stat %s: %w", path, err)
		}
		if info.ModTime().After(object.ModTime()) {
			return false, nil
		}
	}
	return true, nil
}

func stringOr(env *environment.Environment, key, fallback string) (string, error) {
	if !env.Has(key) {
		return fallback, nil
	}
	return env.String(key)
}

func arFlags(env *environment.Environment) ([]string, error) {
	if !env.Has("arflags") {
		return []string{defaultArFlags}, nil
	}
	v, err := env.Lookup("arflags")
	if err != nil {
		return nil, err
	}
	if s, ok := v.(string); ok {
		flags, err := shellwords.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("arflags %q: %w", s, err)
		}
		return flags, nil
	}
	return env.Strings("arflags")
}

func isCxx(path string) bool {
	switch filepath.Ext(path) {
	case ".cc", ".cpp", ".cxx", ".mm":
		return true
	}
	return false
}
