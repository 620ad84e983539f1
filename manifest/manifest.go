// Package manifest loads a project's configurations and packages from HCL files.
package manifest

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/hashicorp/go-multierror"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/spf13/afero"

	"github.com/LegacyCodeHQ/kettle/dependency"
	"github.com/LegacyCodeHQ/kettle/logging"
	"github.com/LegacyCodeHQ/kettle/project"
	"github.com/LegacyCodeHQ/kettle/toolchain"
)

const (
	// RootFile is the project file expected at the project root.
	RootFile = "kettle.hcl"
	// PackageFile is the file name expected in each package directory.
	PackageFile = "package.hcl"
)

// DefaultPackagePatterns locate package files when kettle.hcl names none.
var DefaultPackagePatterns = []string{"packages/*/" + PackageFile}

// Project is a loaded project tree.
type Project struct {
	Root           string
	Configurations []project.Configuration
	Packages       []*project.Package
}

// Load reads the project rooted at root. Errors from every file are reported together.
func Load(ctx context.Context, fs afero.Fs, root string) (*Project, error) {
	logger := logging.FromContext(ctx)
	parser := hclparse.NewParser()

	rootPath := filepath.Join(root, RootFile)
	var rootFile hclRootFile
	if err := decodeFile(fs, parser, rootPath, &rootFile); err != nil {
		return nil, err
	}

	p := &Project{Root: root}
	var errs *multierror.Error

	for _, c := range rootFile.Configurations {
		config, err := newConfiguration(root, c)
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("%s: configuration %q: %w", rootPath, c.Name, err))
			continue
		}
		p.Configurations = append(p.Configurations, config)
	}

	patterns := rootFile.Packages
	if len(patterns) == 0 {
		patterns = DefaultPackagePatterns
	}
	files, err := findPackageFiles(fs, root, patterns)
	if err != nil {
		return nil, err
	}
	logger.Debug("Loading packages", "root", root, "files", len(files))

	for _, file := range files {
		pkg, err := loadPackage(fs, parser, file)
		if err != nil {
			errs = multierror.Append(errs, err)
			continue
		}
		p.Packages = append(p.Packages, pkg)
	}

	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}
	return p, nil
}

func decodeFile(fs afero.Fs, parser *hclparse.Parser, path string, target any) error {
	src, err := afero.ReadFile(fs, path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	file, diags := parser.ParseHCL(src, path)
	if diags.HasErrors() {
		return fmt.Errorf("failed to parse HCL file %s: %w", path, diags)
	}
	if diags := gohcl.DecodeBody(file.Body, nil, target); diags.HasErrors() {
		return fmt.Errorf("failed to decode HCL file %s: %w", path, diags)
	}
	return nil
}

func newConfiguration(root string, c *hclConfiguration) (project.Configuration, error) {
	env, diags := decodeEnvironment(c.Environment)
	if diags.HasErrors() {
		return project.Configuration{}, diags
	}

	platformsPath := c.PlatformsPath
	if platformsPath == "" {
		platformsPath = "platforms"
	}
	if !filepath.IsAbs(platformsPath) {
		platformsPath = filepath.Join(root, platformsPath)
	}

	return project.Configuration{
		Name:          c.Name,
		PlatformsPath: platformsPath,
		Selection:     dependency.NewSelection(c.Select...),
		Environment:   env,
	}, nil
}

func findPackageFiles(fs afero.Fs, root string, patterns []string) ([]string, error) {
	fsys := afero.NewIOFS(afero.NewBasePathFs(fs, root))
	seen := make(map[string]bool)
	var files []string
	for _, pattern := range patterns {
		matches, err := doublestar.Glob(fsys, filepath.ToSlash(pattern), doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("package pattern %q: %w", pattern, err)
		}
		for _, m := range matches {
			path := filepath.Join(root, filepath.FromSlash(m))
			if !seen[path] {
				seen[path] = true
				files = append(files, path)
			}
		}
	}
	sort.Strings(files)
	return files, nil
}

func loadPackage(fs afero.Fs, parser *hclparse.Parser, path string) (*project.Package, error) {
	var file hclPackageFile
	if err := decodeFile(fs, parser, path, &file); err != nil {
		return nil, err
	}

	dir := filepath.Dir(path)
	name := file.Name
	if name == "" {
		name = filepath.Base(dir)
	}

	env, diags := decodeEnvironment(file.Environment)
	if diags.HasErrors() {
		return nil, fmt.Errorf("%s: %w", path, diags)
	}
	pkg := project.NewPackage(name, dir, env)

	for _, t := range file.Targets {
		target := pkg.AddTarget(t.Name).DependsOn(t.Depends...).SetPriority(t.Priority)
		for _, p := range t.Provides {
			fragment, diags := decodeFragment(p.Body)
			if diags.HasErrors() {
				return nil, fmt.Errorf("%s: target %q provides %q: %w", path, t.Name, p.Name, diags)
			}
			target.Provide(p.Name, fragment)
		}
		if t.Library != nil {
			target.Install(project.StaticLibrary{
				Name:       t.Library.Name,
				Sources:    t.Library.Sources,
				Headers:    t.Library.Headers,
				HeaderRoot: t.Library.HeaderRoot,
			}.Install)
		}
	}
	return pkg, nil
}

// Configuration returns the named configuration, or the first one when name is empty.
func (p *Project) Configuration(name string) (project.Configuration, error) {
	if len(p.Configurations) == 0 {
		return project.Configuration{}, fmt.Errorf("no configurations declared in %s", filepath.Join(p.Root, RootFile))
	}
	if name == "" {
		return p.Configurations[0], nil
	}
	names := make([]string, 0, len(p.Configurations))
	for _, c := range p.Configurations {
		if c.Name == name {
			return c, nil
		}
		names = append(names, c.Name)
	}
	return project.Configuration{}, fmt.Errorf("unknown configuration %q (available: %s)", name, strings.Join(names, ", "))
}

// Context builds a project context for the named configuration.
func (p *Project) Context(configuration string, platform toolchain.Platform, fs afero.Fs) (*project.Context, error) {
	config, err := p.Configuration(configuration)
	if err != nil {
		return nil, err
	}
	pctx := project.NewContext(config, platform, fs)
	for _, pkg := range p.Packages {
		if err := pctx.AddPackage(pkg); err != nil {
			return nil, err
		}
	}
	return pctx, nil
}
