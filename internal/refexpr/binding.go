package refexpr

import (
	"fmt"
	"strings"

	"github.com/specialistvlad/pipegraph/internal/model"
)

// ParseInputBinding interprets a job input string. ok is false when the
// string holds no reference and must be treated as a literal.
//
// Accepted forms are `${{parent.inputs.<name>}}` and
// `${{parent.jobs.<job>.outputs.<output>}}`. A reference embedded in other
// text is rejected: bindings pass values through unchanged.
func ParseInputBinding(raw string) (b model.Binding, ok bool, err error) {
	if !Contains(raw) {
		return nil, false, nil
	}
	m, whole := Whole(raw)
	if !whole {
		return nil, true, fmt.Errorf("reference must be the whole value, got %q", raw)
	}
	names, err := ParseNames(m.Expr)
	if err != nil {
		return nil, true, err
	}

	switch {
	case len(names) == 3 && names[0] == "parent" && names[1] == "inputs":
		return model.ParentInputRef{Name: names[2]}, true, nil
	case len(names) == 5 && names[0] == "parent" && names[1] == "jobs" && names[3] == "outputs":
		return model.JobOutputRef{JobID: names[2], Output: names[4]}, true, nil
	}
	return nil, true, fmt.Errorf("unsupported input reference %q: expected parent.inputs.<name> or parent.jobs.<job>.outputs.<output>", strings.Join(names, "."))
}

// ParseOutputBinding interprets a job output string of the form
// `${{parent.outputs.<name>}}` and returns the pipeline output name.
func ParseOutputBinding(raw string) (string, error) {
	m, whole := Whole(raw)
	if !whole {
		return "", fmt.Errorf("output binding must be a single reference, got %q", raw)
	}
	names, err := ParseNames(m.Expr)
	if err != nil {
		return "", err
	}
	if len(names) != 3 || names[0] != "parent" || names[1] != "outputs" {
		return "", fmt.Errorf("unsupported output reference %q: expected parent.outputs.<name>", strings.Join(names, "."))
	}
	return names[2], nil
}
