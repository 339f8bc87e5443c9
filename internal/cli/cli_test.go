package cli

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/specialistvlad/pipegraph/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const component = `
name: echo
version: 1.0.0
inputs:
  text:
    type: string
outputs:
  out:
    type: uri_file
command: echo ${{inputs.text}} > ${{outputs.out}}
`

const catComponent = `
name: cat
version: 0.1.0
inputs:
  file:
    type: uri_file
command: cat ${{inputs.file}}
`

const pipeline = `
name: hello
inputs:
  greeting: hi
jobs:
  first:
    component: azureml:echo:1.0.0
    inputs:
      text: ${{parent.inputs.greeting}}
  second:
    component: azureml:cat@latest
    inputs:
      file: ${{parent.jobs.first.outputs.out}}
`

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	err := Execute(context.Background(), append(args, "--no-color"), &out, &errOut)
	return out.String(), errOut.String(), err
}

func exitCode(t *testing.T, err error) int {
	t.Helper()
	var exitErr *ExitError
	require.True(t, errors.As(err, &exitErr), "expected *ExitError, got %T: %v", err, err)
	return exitErr.Code
}

func workspace(t *testing.T, files map[string]string) (manifest, components string) {
	t.Helper()
	root := testutil.WriteFiles(t, files)
	return filepath.Join(root, "pipeline.yaml"), filepath.Join(root, "components")
}

func TestExecute_Help(t *testing.T) {
	out, _, err := execute(t, "--help")
	require.NoError(t, err)
	assert.Contains(t, out, "Usage:")
	for _, sub := range []string{"validate", "order", "plan", "pin"} {
		assert.Contains(t, out, sub)
	}
}

func TestExecute_UsageErrors(t *testing.T) {
	manifest, _ := workspace(t, map[string]string{"pipeline.yaml": pipeline})

	testCases := []struct {
		name    string
		args    []string
		wantMsg string
	}{
		{"unknown flag", []string{"validate", "--bogus", manifest}, "unknown flag: --bogus"},
		{"missing path", []string{"validate"}, "requires at least one manifest"},
		{"unknown command", []string{"explode"}, "unknown command"},
		{"bad log level", []string{"validate", "--log-level", "loud", manifest}, "invalid log-level"},
		{"bad workers", []string{"order", "--workers", "0", manifest}, "workers must be at least 1"},
		{"bad output", []string{"order", "-o", "xml", manifest}, "invalid output format"},
		{"bad assignment", []string{"plan", "--set", "greeting", manifest}, "expected key=value"},
		{"pin without registry", []string{"pin", manifest}, "pin requires --registry"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := execute(t, tc.args...)
			require.Error(t, err)
			assert.Equal(t, ExitUsage, exitCode(t, err))
			assert.Contains(t, err.Error(), tc.wantMsg)
		})
	}
}

func TestExecute_Validate(t *testing.T) {
	manifest, components := workspace(t, map[string]string{
		"pipeline.yaml":        pipeline,
		"components/echo.yaml": component,
		"components/cat.yaml":  catComponent,
	})

	out, _, err := execute(t, "validate", "--components", components, "--log-level", "error", manifest)
	require.NoError(t, err)
	assert.Contains(t, out, "ok "+manifest+" (hello, 2 jobs)")
}

func TestExecute_ValidateFailure(t *testing.T) {
	broken := `
jobs:
  first:
    component: azureml:echo:1.0.0
    inputs:
      text: ${{parent.inputs.missing}}
`
	manifest, components := workspace(t, map[string]string{
		"pipeline.yaml":        broken,
		"components/echo.yaml": component,
		"components/cat.yaml":  catComponent,
	})

	out, _, err := execute(t, "validate", "-c", components, manifest)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, exitCode(t, err))
	assert.Contains(t, err.Error(), "validation failed")
	assert.Contains(t, out, `pipeline input "missing" is not declared`)
}

func TestExecute_WarnsWithoutComponents(t *testing.T) {
	manifest, _ := workspace(t, map[string]string{"pipeline.yaml": pipeline})

	_, errOut, err := execute(t, "validate", manifest)
	require.NoError(t, err)
	assert.Contains(t, errOut, "port checks are skipped")
}

func TestExecute_NoColorIsPerInvocation(t *testing.T) {
	manifest, _ := workspace(t, map[string]string{"pipeline.yaml": pipeline})

	prev := color.NoColor
	color.NoColor = false
	t.Cleanup(func() { color.NoColor = prev })

	_, errOut, err := execute(t, "validate", manifest)
	require.NoError(t, err)
	assert.NotContains(t, errOut, "\x1b[")
	assert.False(t, color.NoColor, "--no-color must not change the package-wide colour setting")

	var out, stderr bytes.Buffer
	require.NoError(t, Execute(context.Background(), []string{"validate", manifest}, &out, &stderr))
	assert.Contains(t, stderr.String(), "\x1b[93m")
}

func TestExecute_Order(t *testing.T) {
	manifest, components := workspace(t, map[string]string{
		"pipeline.yaml":        pipeline,
		"components/echo.yaml": component,
		"components/cat.yaml":  catComponent,
	})

	out, _, err := execute(t, "order", "-c", components, "-o", "yaml", manifest)
	require.NoError(t, err)
	assert.Regexp(t, `order:\n\s+- first\n\s+- second\n`, out)
	assert.Contains(t, out, "out -> file")
}

func TestExecute_Plan(t *testing.T) {
	manifest, components := workspace(t, map[string]string{
		"pipeline.yaml":        pipeline,
		"components/echo.yaml": component,
		"components/cat.yaml":  catComponent,
	})

	out, _, err := execute(t, "plan", "-c", components, "--set", "greeting=hello world", manifest)
	require.NoError(t, err)
	assert.Contains(t, out, "  first ready\n")
	assert.Contains(t, out, "$ echo hello world > ${{outputs.out}}")
	assert.Contains(t, out, "  second pending\n    waiting on first.out\n")

	out, _, err = execute(t, "plan", "-c", components,
		"--state", "first=completed",
		"--job-output", "first.out=azureml://datastores/out/greeting.txt",
		manifest)
	require.NoError(t, err)
	assert.Contains(t, out, "  second ready\n")
	assert.Contains(t, out, "$ cat azureml://datastores/out/greeting.txt\n")

	_, _, err = execute(t, "plan", "-c", components, "--state", "first=finished", manifest)
	require.Error(t, err)
	assert.Equal(t, ExitUsage, exitCode(t, err))
}

func TestExecute_PinDryRun(t *testing.T) {
	manifest, components := workspace(t, map[string]string{
		"pipeline.yaml":        pipeline,
		"components/echo.yaml": component,
		"components/cat.yaml":  catComponent,
	})

	out, _, err := execute(t, "pin", "-c", components, "--registry", "team", "--dry-run", manifest)
	require.NoError(t, err)
	assert.Contains(t, out, "component: azureml://registries/team/components/echo/versions/1.0.0\n")
	assert.Contains(t, out, "component: azureml://registries/team/components/cat/versions/0.1.0\n")
	assert.NotContains(t, out, "cat@latest")
}
