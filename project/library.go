package project

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/afero"

	"github.com/LegacyCodeHQ/kettle/logging"
	"github.com/LegacyCodeHQ/kettle/toolchain"
)

// StaticLibrary compiles a package's sources into lib<Name>.a and installs
// its public headers.
type StaticLibrary struct {
	Name string
	// Sources and Headers are glob patterns relative to the package path.
	Sources []string
	Headers []string
	// HeaderRoot is stripped from header paths when they are installed.
	HeaderRoot string
}

// Install is an Action.
func (l StaticLibrary) Install(ctx context.Context, req InstallRequest) error {
	pctx, env, pkg := req.Context, req.Environment, req.Target.Package()
	logger := logging.FromContext(ctx)

	buildPrefix, err := env.String("build_prefix")
	if err != nil {
		return err
	}
	installPrefix, err := env.String("install_prefix")
	if err != nil {
		return err
	}

	sources, err := glob(pctx.Fs, pkg.Path, l.Sources)
	if err != nil {
		return err
	}
	graph, err := pctx.Graphs.Graph(env)
	if err != nil {
		return err
	}

	objects := make([]string, 0, len(sources))
	for _, rel := range sources {
		source := filepath.Join(pkg.Path, rel)
		inputs, err := graph.Closure(source)
		if err != nil {
			return err
		}
		object := filepath.Join(buildPrefix, pkg.Name, rel+".o")
		logger.Debug("Compiling", "source", source, "object", object, "inputs", len(inputs))

		compile := toolchain.CompileRequest{Source: source, Object: object, Inputs: inputs}
		if err := pctx.Toolchain.Compile(ctx, env, compile); err != nil {
			return err
		}
		objects = append(objects, object)
	}

	if len(objects) > 0 {
		library := filepath.Join(installPrefix, "lib", "lib"+l.Name+".a")
		logger.Debug("Linking", "library", library, "objects", len(objects))
		if err := pctx.Toolchain.LinkStatic(ctx, env, library, objects); err != nil {
			return err
		}
	}

	return l.installHeaders(pctx.Fs, pkg.Path, filepath.Join(installPrefix, "include"))
}

func (l StaticLibrary) installHeaders(fs afero.Fs, base, dest string) error {
	headers, err := glob(fs, base, l.Headers)
	if err != nil {
		return err
	}
	for _, rel := range headers {
		target := rel
		if l.HeaderRoot != "" {
			if target, err = filepath.Rel(l.HeaderRoot, rel); err != nil {
				return fmt.Errorf("header %s is outside %s: %w", rel, l.HeaderRoot, err)
			}
		}
		if err := copyFile(fs, filepath.Join(base, rel), filepath.Join(dest, target)); err != nil {
			return err
		}
	}
	return nil
}

// glob matches patterns under base and returns sorted, unique relative paths.
func glob(fs afero.Fs, base string, patterns []string) ([]string, error) {
	fsys := afero.NewIOFS(afero.NewBasePathFs(fs, base))
	seen := make(map[string]bool)
	var matches []string
	for _, pattern := range patterns {
		found, err := doublestar.Glob(fsys, filepath.ToSlash(pattern), doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("pattern %q: %w", pattern, err)
		}
		for _, m := range found {
			m = filepath.FromSlash(m)
			if !seen[m] {
				seen[m] = true
				matches = append(matches, m)
			}
		}
	}
	sort.Strings(matches)
	return matches, nil
}

func copyFile(fs afero.Fs, from, to string) error {
	content, err := afero.ReadFile(fs, from)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", from, err)
	}
	if err := fs.MkdirAll(filepath.Dir(to), 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(to), err)
	}
	if err := afero.WriteFile(fs, to, content, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", to, err)
	}
	return nil
}
