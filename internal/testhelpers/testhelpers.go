// Package testhelpers holds fixtures shared by command tests.
package testhelpers

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"

	"github.com/LegacyCodeHQ/kettle/dependency"
	"github.com/LegacyCodeHQ/kettle/environment"
	"github.com/LegacyCodeHQ/kettle/project"
)

// Goldie returns a goldie instance reading testdata/<TestName>.gold.txt.
func Goldie(t *testing.T) *goldie.Goldie {
	t.Helper()
	return goldie.New(t, goldie.WithNameSuffix(".gold.txt"))
}

// SampleChain resolves "app" in a small project: app depends on a compiler
// and zlib, zlib depends on the compiler, and clang provides the compiler
// without an install action.
func SampleChain(t *testing.T) *dependency.Chain {
	t.Helper()
	noop := func(context.Context, project.InstallRequest) error { return nil }

	tools := project.NewPackage("tools", "/work/packages/tools", nil)
	clang := tools.AddTarget("clang").Provide("compiler", func(b *environment.Builder) {
		b.Set("cc", environment.Value("clang"))
	})

	app := project.NewPackage("app", "/work/packages/app", nil)
	appTarget := app.AddTarget("app").DependsOn("compiler", "zlib").Install(noop)
	zlib := app.AddTarget("zlib").DependsOn("compiler").Install(noop)

	chain, err := dependency.NewChain(dependency.NewSelection(), []string{"app"},
		[]dependency.Provider{appTarget, clang, zlib})
	require.NoError(t, err)
	return chain
}

// ProjectFiles is a minimal project on disk: clang provides the compiler, and
// app depends on it and on zlib.
var ProjectFiles = map[string]string{
	"kettle.hcl": `
configuration "debug" {
  environment {
    set "variant" {
      value = "debug"
    }
  }
}
`,
	"packages/tools/package.hcl": `
target "clang" {
  provides "compiler" {
    set "cc" {
      value = "clang"
    }
  }
}
`,
	"packages/app/package.hcl": `
target "app" {
  depends = ["compiler", "zlib"]
}

target "zlib" {
  depends = ["compiler"]
}
`,
}

// WriteProject writes files below a temporary directory and returns its path.
func WriteProject(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for path, content := range files {
		full := filepath.Join(root, path)
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	}
	return root
}

// Settings returns a viper instance rooted at root that targets linux.
func Settings(root string) *viper.Viper {
	v := viper.New()
	v.Set("root", root)
	v.Set("platform", "linux")
	return v
}
