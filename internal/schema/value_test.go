package schema

import (
	"errors"
	"testing"

	"github.com/specialistvlad/pipegraph/internal/fieldpath"
	"github.com/specialistvlad/pipegraph/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func TestCoerce(t *testing.T) {
	loc := model.Location{Path: fieldpath.New("jobs", "a", "inputs", "x"), Line: 4}

	testCases := []struct {
		name    string
		raw     cty.Value
		src     model.PortType
		dst     model.PortType
		enum    []string
		want    string
		wantErr string
	}{
		{name: "integer to number", raw: cty.NumberIntVal(3), src: model.TypeInteger, dst: model.TypeNumber, want: "3"},
		{name: "string to integer", raw: cty.StringVal("7"), src: model.TypeString, dst: model.TypeInteger, want: "7"},
		{name: "integer to string", raw: cty.NumberIntVal(7), src: model.TypeInteger, dst: model.TypeString, want: "7"},
		{name: "string path to folder", raw: cty.StringVal("azureml:docs:1"), src: model.TypeString, dst: model.TypeFolder, want: "azureml:docs:1"},
		{name: "unknown port", raw: cty.True, src: model.TypeBoolean, dst: model.TypeUnknown, want: "true"},
		{name: "enum hit", raw: cty.StringVal("md"), src: model.TypeString, dst: model.TypeString, enum: []string{"md", "html"}, want: "md"},
		{
			name: "number to integer", raw: cty.NumberFloatVal(1.5), src: model.TypeNumber, dst: model.TypeInteger,
			wantErr: `type mismatch at jobs.a.inputs.x (line 4): expected integer, got number "1.5"`,
		},
		{
			name: "boolean to folder", raw: cty.True, src: model.TypeBoolean, dst: model.TypeFolder,
			wantErr: `expected uri_folder, got boolean "true"`,
		},
		{
			name: "file to folder", raw: cty.StringVal("a.csv"), src: model.TypeFile, dst: model.TypeFolder,
			wantErr: `expected uri_folder, got uri_file "a.csv"`,
		},
		{
			name: "table to string", raw: cty.StringVal("t"), src: model.TypeTable, dst: model.TypeString,
			wantErr: `expected string, got mltable "t"`,
		},
		{
			name: "unparsable string", raw: cty.StringVal("five"), src: model.TypeString, dst: model.TypeInteger,
			wantErr: `expected integer, got string "five"`,
		},
		{
			name: "enum miss", raw: cty.StringVal("pdf"), src: model.TypeString, dst: model.TypeString, enum: []string{"md", "html"},
			wantErr: "expected one of [md html], got pdf",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Coerce(tc.raw, tc.src, tc.dst, tc.enum, loc)
			if tc.wantErr != "" {
				require.Error(t, err)
				var mismatch *model.TypeMismatchError
				assert.True(t, errors.As(err, &mismatch))
				assert.ErrorContains(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got.String())
		})
	}
}
