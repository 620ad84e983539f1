package list

import (
	"bytes"
	"maps"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LegacyCodeHQ/kettle/internal/testhelpers"
)

func TestListCommand_ListsTargetsInPackageOrder(t *testing.T) {
	cmd := NewCommand(testhelpers.Settings(testhelpers.WriteProject(t, testhelpers.ProjectFiles)))
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{})

	err := cmd.Execute()

	require.NoError(t, err)
	assert.Equal(t, `app [app] depends: compiler, zlib
zlib [app] depends: compiler
clang [tools] provides: compiler
`, out.String())
}

func TestListCommand_MarksResolvedProvider(t *testing.T) {
	files := maps.Clone(testhelpers.ProjectFiles)
	files["packages/tools/package.hcl"] = `
target "gcc" {
  provides "compiler" {}
}

target "clang" {
  priority = 1

  provides "compiler" {}
}
`
	cmd := NewCommand(testhelpers.Settings(testhelpers.WriteProject(t, files)))
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--provides", "compiler"})

	err := cmd.Execute()

	require.NoError(t, err)
	assert.Equal(t, `  gcc [tools] provides: compiler
* clang [tools] provides: compiler priority: 1
`, out.String())
}

func TestListCommand_UnknownProvidedName(t *testing.T) {
	cmd := NewCommand(testhelpers.Settings(testhelpers.WriteProject(t, testhelpers.ProjectFiles)))
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"-p", "linker"})

	assert.ErrorContains(t, cmd.Execute(), `unresolved dependency "linker"`)
}
