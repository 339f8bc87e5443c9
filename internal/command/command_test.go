package command

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const chunkCmd = `python crack_and_chunk.py --input_data ${{inputs.input_data}} $[[--chunk_size ${{inputs.chunk_size}}]] --output ${{outputs.output_chunks}}`

func TestParse(t *testing.T) {
	tmpl, err := Parse(chunkCmd)
	require.NoError(t, err)

	required, optional := tmpl.Placeholders()
	assert.Equal(t, []Placeholder{
		{Kind: Input, Name: "input_data"},
		{Kind: Output, Name: "output_chunks"},
	}, required)
	assert.Equal(t, []Placeholder{{Kind: Input, Name: "chunk_size"}}, optional)
}

func TestParse_Errors(t *testing.T) {
	testCases := map[string]string{
		"unterminated": "run $[[--x ${{inputs.x}}",
		"nested":       "run $[[--x $[[${{inputs.x}}]]]]",
		"bad root":     "run ${{parent.inputs.x}}",
		"bad syntax":   "run ${{inputs..x}}",
	}
	for name, raw := range testCases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(raw)
			assert.Error(t, err)
		})
	}
}

func TestRender(t *testing.T) {
	tmpl, err := Parse(chunkCmd)
	require.NoError(t, err)

	t.Run("optional present", func(t *testing.T) {
		out, err := tmpl.Render(Values{
			Inputs:  map[string]string{"input_data": "/mnt/in", "chunk_size": "512"},
			Outputs: map[string]string{"output_chunks": "/mnt/out"},
		})
		require.NoError(t, err)
		assert.Equal(t, "python crack_and_chunk.py --input_data /mnt/in --chunk_size 512 --output /mnt/out", out)
	})

	t.Run("optional absent", func(t *testing.T) {
		out, err := tmpl.Render(Values{
			Inputs:  map[string]string{"input_data": "/mnt/in"},
			Outputs: map[string]string{"output_chunks": "/mnt/out"},
		})
		require.NoError(t, err)
		assert.Equal(t, "python crack_and_chunk.py --input_data /mnt/in --output /mnt/out", out)
	})

	t.Run("required absent", func(t *testing.T) {
		_, err := tmpl.Render(Values{Inputs: map[string]string{"chunk_size": "1"}})
		assert.ErrorContains(t, err, "${{inputs.input_data}}")
	})
}

func TestRender_KeepsWhitespace(t *testing.T) {
	testCases := []struct {
		name   string
		raw    string
		inputs map[string]string
		want   string
	}{
		{
			name:   "multiline and quoted",
			raw:    "cd src\npython run.py --sep \"a  b\" --x ${{inputs.x}}",
			inputs: map[string]string{"x": "v  w"},
			want:   "cd src\npython run.py --sep \"a  b\" --x v  w",
		},
		{
			name: "dropped fragment at line end",
			raw:  "cd src $[[--y ${{inputs.y}}]]\npython run.py",
			want: "cd src\npython run.py",
		},
		{
			name: "dropped fragment at start",
			raw:  "$[[--y ${{inputs.y}}]] run  --z",
			want: "run  --z",
		},
		{
			name: "dropped fragment at end",
			raw:  "run $[[--y ${{inputs.y}}]]",
			want: "run",
		},
		{
			name: "consecutive dropped fragments",
			raw:  "run $[[--y ${{inputs.y}}]] $[[--w ${{inputs.w}}]] --z",
			want: "run --z",
		},
		{
			name:   "present fragment kept verbatim",
			raw:    "run $[[--y  ${{inputs.y}}]]\tdone",
			inputs: map[string]string{"y": " 1"},
			want:   "run --y   1\tdone",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tmpl, err := Parse(tc.raw)
			require.NoError(t, err)
			out, err := tmpl.Render(Values{Inputs: tc.inputs})
			require.NoError(t, err)
			assert.Equal(t, tc.want, out)
		})
	}
}

func TestValidate(t *testing.T) {
	tmpl, err := Parse(`run ${{inputs.a}} ${{inputs.b}} $[[--c ${{inputs.c}}]] ${{outputs.z}} ${{inputs.missing}}`)
	require.NoError(t, err)

	errs := tmpl.Validate(PortSet{
		Inputs: map[string]PortInfo{
			"a": {},
			"b": {MayBeAbsent: true},
			"c": {MayBeAbsent: true},
		},
		Outputs: map[string]struct{}{"y": {}},
	})

	var msgs []string
	for _, e := range errs {
		msgs = append(msgs, e.Error())
	}
	assert.Equal(t, []string{
		`command references undeclared input "missing"`,
		`command references undeclared output "z"`,
		`optional input "b" must be wrapped in $[[...]]`,
	}, msgs)
}
