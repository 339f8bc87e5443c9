package schema

import (
	"fmt"
	"slices"

	"github.com/specialistvlad/pipegraph/internal/model"
	"github.com/zclconf/go-cty/cty"
)

// Coerce checks that a literal of type src can be assigned to a port of type
// dst and converts it. Strings are accepted for every port type as long as
// they convert: a scalar port parses them, an asset port treats them as a
// path or URI. A non-empty enum restricts the rendered value.
func Coerce(raw cty.Value, src, dst model.PortType, enum []string, loc model.Location) (model.Value, error) {
	if dst == model.TypeUnknown {
		return model.Value{Type: src, Val: raw}, nil
	}
	actual := src.String()
	if !raw.IsNull() {
		actual = fmt.Sprintf("%s %q", src, model.FormatValue(raw))
	}
	mismatch := func() error {
		return &model.TypeMismatchError{Location: loc, Expected: dst.String(), Actual: actual}
	}

	switch {
	case src == model.TypeUnknown || src == model.TypeString:
	case dst.IsScalar() && !src.IsScalar():
		return model.Value{}, mismatch()
	case !dst.IsScalar() && src.IsScalar():
		return model.Value{}, mismatch()
	case dst != model.TypeString && !dst.Accepts(src):
		return model.Value{}, mismatch()
	}

	val, err := dst.Convert(raw)
	if err != nil {
		return model.Value{}, mismatch()
	}
	if len(enum) > 0 && !val.IsNull() && !slices.Contains(enum, model.FormatValue(val)) {
		return model.Value{}, &model.TypeMismatchError{
			Location: loc,
			Expected: fmt.Sprintf("one of %v", enum),
			Actual:   model.FormatValue(val),
		}
	}
	return model.Value{Type: dst, Val: val}, nil
}
