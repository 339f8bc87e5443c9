package manifest

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/specialistvlad/pipegraph/internal/catalog"
	"github.com/specialistvlad/pipegraph/internal/ctxlog"
	"github.com/specialistvlad/pipegraph/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

const chunkComponent = `
name: crack_and_chunk
version: 0.0.1
type: command
inputs:
  input_data:
    type: uri_folder
  chunk_size:
    type: integer
    default: 1024
  doc_format:
    type: string
    enum: [md, html]
    default: md
outputs:
  output_chunks:
    type: uri_folder
command: python chunk.py ${{inputs.input_data}} ${{inputs.chunk_size}} ${{inputs.doc_format}} ${{outputs.output_chunks}}
`

const registerComponent = `
name: register_mlindex_asset
version: 0.0.3
type: command
inputs:
  storage_uri:
    type: uri_folder
  asset_name:
    type: string
outputs:
  asset_id:
    type: uri_file
`

const ragPipeline = `
$schema: https://azuremlschemas.azureedge.net/latest/pipelineJob.schema.json
type: pipeline
name: rag_index
display_name: Build RAG index
settings:
  default_compute: cpu-cluster
inputs:
  source:
    type: uri_folder
    path: azureml://datastores/docs/paths/raw
  chunk_size: 512
  asset_name: docs-index
outputs:
  asset:
    type: uri_file
jobs:
  import:
    component: azureml:crack_and_chunk:0.0.1
    resources:
      instance_type: Standard_D4
      instance_count: 2
    inputs:
      input_data: ${{parent.inputs.source}}
      chunk_size: ${{parent.inputs.chunk_size}}
  register:
    component: azureml://registries/azureml/components/register_mlindex_asset/labels/latest
    compute: gpu-cluster
    inputs:
      storage_uri: ${{parent.jobs.import.outputs.output_chunks}}
      asset_name: ${{parent.inputs.asset_name}}
    outputs:
      asset_id: ${{parent.outputs.asset}}
`

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c := catalog.New()
	for _, src := range []string{chunkComponent, registerComponent} {
		spec, err := catalog.ParseComponent([]byte(src), "test.yaml")
		require.NoError(t, err)
		require.NoError(t, c.Add(spec))
	}
	return c
}

func parse(t *testing.T, src string, opts Options) (*model.PipelineDefinition, error) {
	t.Helper()
	if opts.Components == nil {
		opts.Components = testCatalog(t)
	}
	return Parse(context.Background(), []byte(src), opts)
}

func TestParse_RAGPipeline(t *testing.T) {
	def, err := parse(t, ragPipeline, Options{Source: "rag.yaml"})
	require.NoError(t, err)

	assert.Equal(t, "rag_index", def.Name)
	assert.Equal(t, "Build RAG index", def.DisplayName)
	assert.Equal(t, "rag.yaml", def.Source)
	assert.Equal(t, []string{"import", "register"}, def.JobIDs())

	source, ok := def.Input("source")
	require.True(t, ok)
	assert.Equal(t, model.TypeFolder, source.Type)
	assert.Equal(t, "azureml://datastores/docs/paths/raw", source.Default.String())

	chunk, _ := def.Input("chunk_size")
	assert.True(t, chunk.Inferred)
	assert.Equal(t, model.TypeInteger, chunk.Type)

	imp, _ := def.Job("import")
	assert.Equal(t, "crack_and_chunk", imp.Component.Name)
	require.NotNil(t, imp.Spec)
	assert.Equal(t, model.Resources{Compute: "cpu-cluster", InstanceType: "Standard_D4", InstanceCount: 2}, imp.Resources)
	assert.Equal(t, "command", imp.Type)

	reg, _ := def.Job("register")
	assert.Equal(t, "gpu-cluster", reg.Resources.Compute)
	assert.Equal(t, model.JobOutputRef{JobID: "import", Output: "output_chunks"}, reg.Inputs["storage_uri"])
	assert.Equal(t, "0.0.3", reg.Spec.Version)
	assert.Equal(t, "asset", reg.Outputs["asset_id"].Bind)
	assert.Equal(t, model.TypeFile, reg.Outputs["asset_id"].Type)
}

func TestParse_UnknownParentInput(t *testing.T) {
	src := `
jobs:
  import:
    component: azureml:crack_and_chunk:0.0.1
    inputs:
      input_data: ${{parent.inputs.missing}}
`
	_, err := parse(t, src, Options{})
	require.Error(t, err)

	var unknown *model.UnknownReferenceError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "missing", unknown.Name)
	assert.Equal(t, model.RefPipelineInput, unknown.Kind)
	assert.Equal(t, "import", unknown.JobID())
	assert.Equal(t, "jobs.import.inputs.input_data", unknown.Path.String())
	assert.Equal(t, 6, unknown.Line)
}

func TestParse_DuplicateJobID(t *testing.T) {
	src := `
jobs:
  import:
    component: azureml:crack_and_chunk:0.0.1
    inputs:
      input_data: {type: uri_folder, path: ./data}
  import:
    component: azureml:crack_and_chunk:0.0.1
`
	_, err := parse(t, src, Options{})
	require.Error(t, err)

	var dup *model.DuplicateJobIdError
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, "import", dup.ID)
	assert.Equal(t, []int{3, 7}, dup.Lines)
	assert.Len(t, multierr.Errors(err), 1)
}

func TestParse_ForwardReference(t *testing.T) {
	src := `
jobs:
  register:
    component: register_mlindex_asset:0.0.3
    inputs:
      storage_uri: ${{parent.jobs.import.outputs.output_chunks}}
      asset_name: idx
  import:
    component: crack_and_chunk:0.0.1
    inputs:
      input_data: ./docs
`
	def, err := parse(t, src, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"register", "import"}, def.JobIDs())
}

func TestParse_Errors(t *testing.T) {
	testCases := []struct {
		name    string
		src     string
		target  any
		wantErr string
	}{
		{
			name:    "empty document",
			src:     "",
			target:  new(*model.SchemaError),
			wantErr: "manifest is empty",
		},
		{
			name:    "missing jobs",
			src:     "inputs:\n  a: 1\n",
			target:  new(*model.SchemaError),
			wantErr: "a jobs mapping is required",
		},
		{
			name:    "empty jobs",
			src:     "jobs: {}\n",
			target:  new(*model.SchemaError),
			wantErr: "at least one job is required",
		},
		{
			name:    "missing component",
			src:     "jobs:\n  a:\n    inputs: {}\n",
			target:  new(*model.SchemaError),
			wantErr: "component is required",
		},
		{
			name:    "bad component reference",
			src:     "jobs:\n  a:\n    component: just-a-name\n",
			target:  new(*model.SchemaError),
			wantErr: "doesn't match workspace or registry component pattern",
		},
		{
			name:    "invalid job id",
			src:     "jobs:\n  9lives:\n    component: x:1\n",
			target:  new(*model.SchemaError),
			wantErr: `invalid job id "9lives"`,
		},
		{
			name:    "required input unbound",
			src:     "jobs:\n  a:\n    component: crack_and_chunk:0.0.1\n",
			target:  new(*model.SchemaError),
			wantErr: `required input "input_data" of component crack_and_chunk:0.0.1 is not bound`,
		},
		{
			name:    "undeclared component input",
			src:     "jobs:\n  a:\n    component: crack_and_chunk:0.0.1\n    inputs:\n      input_data: ./d\n      extra: 1\n",
			target:  new(*model.SchemaError),
			wantErr: `declares no input "extra"`,
		},
		{
			name:    "partial interpolation",
			src:     "inputs:\n  v: 1\njobs:\n  a:\n    component: crack_and_chunk:0.0.1\n    inputs:\n      input_data: ./d-${{parent.inputs.v}}\n",
			target:  new(*model.SchemaError),
			wantErr: "reference must be the whole value",
		},
		{
			name:    "enum violation",
			src:     "jobs:\n  a:\n    component: crack_and_chunk:0.0.1\n    inputs:\n      input_data: ./d\n      doc_format: pdf\n",
			target:  new(*model.TypeMismatchError),
			wantErr: "expected one of [md html], got pdf",
		},
		{
			name:    "enum violation through pipeline default",
			src:     "inputs:\n  fmt: pdf\njobs:\n  a:\n    component: crack_and_chunk:0.0.1\n    inputs:\n      input_data: ./d\n      doc_format: ${{parent.inputs.fmt}}\n",
			target:  new(*model.TypeMismatchError),
			wantErr: "expected one of [md html], got pdf",
		},
		{
			name:    "scalar literal on folder port",
			src:     "jobs:\n  a:\n    component: crack_and_chunk:0.0.1\n    inputs:\n      input_data: 42\n",
			target:  new(*model.TypeMismatchError),
			wantErr: `expected uri_folder, got integer "42"`,
		},
		{
			name: "folder output on integer port",
			src: `
jobs:
  a:
    component: crack_and_chunk:0.0.1
    inputs:
      input_data: ./d
  b:
    component: crack_and_chunk:0.0.1
    inputs:
      input_data: ./d
      chunk_size: ${{parent.jobs.a.outputs.output_chunks}}
`,
			target:  new(*model.TypeMismatchError),
			wantErr: `expected integer, got uri_folder (output "output_chunks" of job "a")`,
		},
		{
			name:    "declared number input on integer port",
			src:     "inputs:\n  n:\n    type: number\njobs:\n  a:\n    component: crack_and_chunk:0.0.1\n    inputs:\n      input_data: ./d\n      chunk_size: ${{parent.inputs.n}}\n",
			target:  new(*model.TypeMismatchError),
			wantErr: `expected integer, got number (pipeline input "n")`,
		},
		{
			name:    "unknown job",
			src:     "jobs:\n  a:\n    component: crack_and_chunk:0.0.1\n    inputs:\n      input_data: ${{parent.jobs.ghost.outputs.x}}\n",
			target:  new(*model.UnknownReferenceError),
			wantErr: `job "ghost" is not declared`,
		},
		{
			name:    "unknown job output",
			src:     "jobs:\n  a:\n    component: crack_and_chunk:0.0.1\n    inputs:\n      input_data: ./d\n  b:\n    component: crack_and_chunk:0.0.1\n    inputs:\n      input_data: ${{parent.jobs.a.outputs.nope}}\n",
			target:  new(*model.UnknownReferenceError),
			wantErr: `job output "a.nope" is not declared`,
		},
		{
			name:    "unknown pipeline output",
			src:     "jobs:\n  a:\n    component: crack_and_chunk:0.0.1\n    inputs:\n      input_data: ./d\n    outputs:\n      output_chunks: ${{parent.outputs.nope}}\n",
			target:  new(*model.UnknownReferenceError),
			wantErr: `pipeline output "nope" is not declared`,
		},
		{
			name:    "output not declared by component",
			src:     "jobs:\n  a:\n    component: crack_and_chunk:0.0.1\n    inputs:\n      input_data: ./d\n    outputs:\n      other: {type: uri_file}\n",
			target:  new(*model.SchemaError),
			wantErr: `declares no output "other"`,
		},
		{
			name:    "unsupported reference shape",
			src:     "jobs:\n  a:\n    component: x:1\n    inputs:\n      y: ${{parent.outputs.z}}\n",
			target:  new(*model.SchemaError),
			wantErr: "unsupported input reference",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			def, err := parse(t, tc.src, Options{})
			require.Error(t, err)
			assert.Nil(t, def)
			assert.True(t, errors.As(err, tc.target), "unexpected error type: %v", err)
			assert.ErrorContains(t, err, tc.wantErr)
		})
	}
}

func TestParse_CollectsAllErrors(t *testing.T) {
	src := `
jobs:
  a:
    component: crack_and_chunk:0.0.1
    inputs:
      input_data: ${{parent.inputs.one}}
  b:
    component: crack_and_chunk:0.0.1
    inputs:
      input_data: ${{parent.inputs.two}}
`
	_, err := parse(t, src, Options{})
	require.Error(t, err)

	errs := multierr.Errors(err)
	require.Len(t, errs, 2)
	assert.ErrorContains(t, errs[0], `"one"`)
	assert.ErrorContains(t, errs[1], `"two"`)
}

func TestParse_UnknownComponent(t *testing.T) {
	src := `
jobs:
  a:
    component: azureml:mystery:1
    inputs:
      anything: 1
  b:
    component: crack_and_chunk:0.0.1
    inputs:
      input_data: ${{parent.jobs.a.outputs.whatever}}
`
	t.Run("lenient", func(t *testing.T) {
		var buf bytes.Buffer
		ctx := ctxlog.WithLogger(context.Background(), slog.New(slog.NewTextHandler(&buf, nil)))

		def, err := Parse(ctx, []byte(src), Options{Components: testCatalog(t)})
		require.NoError(t, err)
		a, _ := def.Job("a")
		assert.Nil(t, a.Spec)
		assert.Contains(t, buf.String(), "Component not found in catalog")
	})

	t.Run("strict", func(t *testing.T) {
		_, err := parse(t, src, Options{Strict: true})
		var schemaErr *model.SchemaError
		require.True(t, errors.As(err, &schemaErr))
		assert.ErrorContains(t, err, "component not found: mystery:1")
	})

	t.Run("no catalog", func(t *testing.T) {
		def, err := Parse(context.Background(), []byte(src), Options{})
		require.NoError(t, err)
		assert.Len(t, def.Jobs, 2)
	})
}

func TestParse_ForeignRegistryWarning(t *testing.T) {
	src := `
jobs:
  a:
    component: azureml://registries/someone-else/components/crack_and_chunk/versions/0.0.1
    inputs:
      input_data: ./d
`
	var buf bytes.Buffer
	ctx := ctxlog.WithLogger(context.Background(), slog.New(slog.NewTextHandler(&buf, nil)))

	_, err := Parse(ctx, []byte(src), Options{Components: testCatalog(t), TargetRegistry: "azureml-preview"})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "registry=someone-else")
}

func TestParse_InlineComponent(t *testing.T) {
	src := `
jobs:
  hello:
    component:
      type: command
      inputs:
        who:
          type: string
      outputs:
        greeting:
          type: uri_file
      command: echo ${{inputs.who}} > ${{outputs.greeting}}
    inputs:
      who: world
  after:
    component: crack_and_chunk:0.0.1
    inputs:
      input_data: ${{parent.jobs.hello.outputs.greeting}}
`
	_, err := parse(t, src, Options{})
	require.Error(t, err)
	var mismatch *model.TypeMismatchError
	require.True(t, errors.As(err, &mismatch))
	assert.Equal(t, "uri_folder", mismatch.Expected)
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rag.yaml")
	require.NoError(t, os.WriteFile(path, []byte(ragPipeline), 0o644))

	def, err := ParseFile(context.Background(), path, Options{Components: testCatalog(t)})
	require.NoError(t, err)
	assert.Equal(t, path, def.Source)

	_, err = ParseFile(context.Background(), path+".missing", Options{})
	assert.ErrorContains(t, err, "failed to read manifest")
}
