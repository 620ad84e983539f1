package build

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LegacyCodeHQ/kettle/internal/testhelpers"
)

func TestBuildCommand_DryPrintsOrder(t *testing.T) {
	cmd := NewCommand(testhelpers.Settings(testhelpers.WriteProject(t, testhelpers.ProjectFiles)))
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs([]string{"app", "--dry"})

	err := cmd.Execute()

	require.NoError(t, err)
	assert.Equal(t, "clang (compiler)\nzlib (zlib)\napp (app)\n", out.String())
	assert.Contains(t, errOut.String(), "Dry run, no actions executed")
}

func TestBuildCommand_BuildsTargetsWithoutActions(t *testing.T) {
	cmd := NewCommand(testhelpers.Settings(testhelpers.WriteProject(t, testhelpers.ProjectFiles)))
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs([]string{"app", "-j", "2"})

	err := cmd.Execute()

	require.NoError(t, err)
	assert.Empty(t, out.String())
	assert.Contains(t, errOut.String(), "Completed build successfully.")
}

func TestBuildCommand_UnresolvedName(t *testing.T) {
	cmd := NewCommand(testhelpers.Settings(testhelpers.WriteProject(t, testhelpers.ProjectFiles)))
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"missing"})

	err := cmd.Execute()

	assert.ErrorContains(t, err, `unresolved dependency "missing"`)
}

func TestBuildCommand_RequiresName(t *testing.T) {
	cmd := NewCommand(testhelpers.Settings(testhelpers.WriteProject(t, testhelpers.ProjectFiles)))
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{})

	assert.Error(t, cmd.Execute())
}
