package project_test

import (
	"context"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LegacyCodeHQ/kettle/environment"
	"github.com/LegacyCodeHQ/kettle/project"
)

func TestStaticLibrary_CompilesLinksAndInstallsHeaders(t *testing.T) {
	pctx, runner := newContext(t, debugConfig(environment.FromMap(map[string]any{"variant": "debug"})))
	files := map[string]string{
		"/pkgs/zlib/src/deflate.c":         "#include \"zutil.h\"\n#include <zlib.h>\n",
		"/pkgs/zlib/src/inflate.c":         "#include <zlib.h>\n",
		"/pkgs/zlib/src/zutil.h":           "",
		"/pkgs/zlib/src/README":            "",
		"/pkgs/zlib/include/zlib.h":        "",
		"/pkgs/zlib/include/zlib/zconf.h":  "",
		"/pkgs/zlib/include/zlib/notes.md": "",
	}
	for path, content := range files {
		require.NoError(t, afero.WriteFile(pctx.Fs, path, []byte(content), 0o644))
	}

	pkg := project.NewPackage("zlib", "/pkgs/zlib", environment.New().Merge(func(b *environment.Builder) {
		b.Append("buildflags", environment.Value("-I/pkgs/zlib/include"))
	}))
	lib := project.StaticLibrary{
		Name:       "z",
		Sources:    []string{"src/*.c"},
		Headers:    []string{"include/**/*.h"},
		HeaderRoot: "include",
	}
	target := pkg.AddTarget("zlib").Install(lib.Install)
	require.NoError(t, pctx.AddPackage(pkg))

	require.NoError(t, target.InstallNow(context.Background(), pctx))

	var lines []string
	for _, cmd := range runner.commands {
		lines = append(lines, cmd.String())
	}
	assert.Equal(t, []string{
		"cc -I/pkgs/zlib/include -I/p/linux-debug/include -c /pkgs/zlib/src/deflate.c -o /p/cache/linux-debug/zlib/src/deflate.c.o",
		"cc -I/pkgs/zlib/include -I/p/linux-debug/include -c /pkgs/zlib/src/inflate.c -o /p/cache/linux-debug/zlib/src/inflate.c.o",
		"ar -cru /p/linux-debug/lib/libz.a /p/cache/linux-debug/zlib/src/deflate.c.o /p/cache/linux-debug/zlib/src/inflate.c.o",
	}, lines)

	for _, header := range []string{"/p/linux-debug/include/zlib.h", "/p/linux-debug/include/zlib/zconf.h"} {
		exists, err := afero.Exists(pctx.Fs, header)
		require.NoError(t, err)
		assert.True(t, exists, header)
	}
	exists, err := afero.Exists(pctx.Fs, "/p/linux-debug/include/zlib/notes.md")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.Equal(t, 1, pctx.Graphs.Len())
}

func TestStaticLibrary_HeaderOnly(t *testing.T) {
	pctx, runner := newContext(t, debugConfig(environment.FromMap(map[string]any{"variant": "debug"})))
	require.NoError(t, afero.WriteFile(pctx.Fs, "/pkgs/fmt/fmt.h", []byte(""), 0o644))

	pkg := project.NewPackage("fmt", "/pkgs/fmt", nil)
	target := pkg.AddTarget("fmt").Install(project.StaticLibrary{Name: "fmt", Headers: []string{"*.h"}}.Install)
	require.NoError(t, pctx.AddPackage(pkg))

	require.NoError(t, target.InstallNow(context.Background(), pctx))

	assert.Empty(t, runner.commands)
	exists, err := afero.Exists(pctx.Fs, "/p/linux-debug/include/fmt.h")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestStaticLibrary_RecompilesOnlySourcesWithChangedIncludes(t *testing.T) {
	pctx, runner := newContext(t, debugConfig(environment.FromMap(map[string]any{"variant": "debug"})))
	built := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	files := map[string]time.Time{
		"/pkgs/zlib/src/deflate.c":                  built.Add(-time.Hour),
		"/pkgs/zlib/src/inflate.c":                  built.Add(-time.Hour),
		"/pkgs/zlib/src/zutil.h":                    built.Add(time.Hour),
		"/p/cache/linux-debug/zlib/src/deflate.c.o": built,
		"/p/cache/linux-debug/zlib/src/inflate.c.o": built,
	}
	for path, mtime := range files {
		content := ""
		if path == "/pkgs/zlib/src/deflate.c" {
			content = "#include \"zutil.h\"\n"
		}
		require.NoError(t, afero.WriteFile(pctx.Fs, path, []byte(content), 0o644))
		require.NoError(t, pctx.Fs.Chtimes(path, mtime, mtime))
	}

	pkg := project.NewPackage("zlib", "/pkgs/zlib", nil)
	target := pkg.AddTarget("zlib").Install(project.StaticLibrary{Name: "z", Sources: []string{"src/*.c"}}.Install)
	require.NoError(t, pctx.AddPackage(pkg))

	require.NoError(t, target.InstallNow(context.Background(), pctx))

	require.Len(t, runner.commands, 2)
	assert.Equal(t, "cc -I/p/linux-debug/include -c /pkgs/zlib/src/deflate.c -o /p/cache/linux-debug/zlib/src/deflate.c.o",
		runner.commands[0].String())
	assert.Equal(t, "ar", runner.commands[1].Name)
}
