package pin

import (
	"context"
	"testing"

	"github.com/specialistvlad/pipegraph/internal/catalog"
	"github.com/specialistvlad/pipegraph/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c := catalog.New()
	for _, v := range []string{"0.0.1", "0.0.2"} {
		require.NoError(t, c.Add(&model.ComponentSpec{Name: "crack_and_chunk", Version: v}))
	}
	require.NoError(t, c.Add(&model.ComponentSpec{Name: "register", Version: "1.0.0"}))
	return c
}

const manifestSrc = `# RAG pipeline
jobs:
  import:
    # chunk the docs
    component: azureml:crack_and_chunk@latest
    inputs:
      input_data: ${{parent.inputs.source}}
  register:
    component: azureml://registries/azureml/components/register/versions/1.0.0
  custom:
    component: azureml:mystery:3
  inline:
    component:
      type: command
      command: echo hi
`

func TestPin(t *testing.T) {
	out, report, err := Pin(context.Background(), []byte(manifestSrc), testCatalog(t), Options{Registry: "my-registry", VersionSuffix: "rc1"})
	require.NoError(t, err)

	assert.Equal(t, []Change{
		{
			JobID: "import",
			From:  "azureml:crack_and_chunk@latest",
			To:    "azureml://registries/my-registry/components/crack_and_chunk/versions/0.0.2-rc1",
		},
		{
			JobID: "register",
			From:  "azureml://registries/azureml/components/register/versions/1.0.0",
			To:    "azureml://registries/azureml/components/register/versions/1.0.0-rc1",
		},
	}, report.Changes)
	assert.Equal(t, []string{"custom", "inline"}, report.Skipped)

	text := string(out)
	assert.Contains(t, text, "# RAG pipeline")
	assert.Contains(t, text, "# chunk the docs")
	assert.Contains(t, text, "component: azureml://registries/my-registry/components/crack_and_chunk/versions/0.0.2-rc1")
	assert.Contains(t, text, "component: azureml:mystery:3")
	assert.Contains(t, text, "input_data: ${{parent.inputs.source}}")
}

func TestPin_NoSuffixIsIdempotent(t *testing.T) {
	c := testCatalog(t)
	opts := Options{Registry: "my-registry"}

	once, _, err := Pin(context.Background(), []byte(manifestSrc), c, opts)
	require.NoError(t, err)
	twice, report, err := Pin(context.Background(), once, c, opts)
	require.NoError(t, err)

	assert.Equal(t, string(once), string(twice))
	assert.Empty(t, report.Changes)
}

func TestPin_Errors(t *testing.T) {
	testCases := map[string]struct {
		src     string
		opts    Options
		wantErr string
	}{
		"no registry": {
			src:     manifestSrc,
			wantErr: "a target registry is required",
		},
		"foreign registry": {
			src:     "jobs:\n  a:\n    component: azureml://registries/other/components/register/versions/1.0.0\n",
			opts:    Options{Registry: "mine"},
			wantErr: `references registry "other"`,
		},
		"bad reference": {
			src:     "jobs:\n  a:\n    component: nope\n",
			opts:    Options{Registry: "mine"},
			wantErr: "job a:",
		},
		"no jobs": {
			src:     "inputs: {}\n",
			opts:    Options{Registry: "mine"},
			wantErr: "a jobs mapping is required",
		},
	}
	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			_, _, err := Pin(context.Background(), []byte(tc.src), testCatalog(t), tc.opts)
			assert.ErrorContains(t, err, tc.wantErr)
		})
	}
}
