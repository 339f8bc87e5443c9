package command

import (
	"fmt"
	"sort"
)

// PortSet describes the ports a template may reference.
type PortSet struct {
	Inputs map[string]PortInfo
	// Outputs holds the names of declared outputs.
	Outputs map[string]struct{}
}

// PortInfo is what validation needs to know about an input port.
type PortInfo struct {
	// MayBeAbsent is true for optional inputs without a default value.
	MayBeAbsent bool
}

// Validate checks that every placeholder names a declared port and that
// inputs which may be absent only appear inside optional fragments.
func (t *Template) Validate(ports PortSet) []error {
	var errs []error
	required, optional := t.Placeholders()

	check := func(p Placeholder, inOptional bool) {
		switch p.Kind {
		case Input:
			info, ok := ports.Inputs[p.Name]
			if !ok {
				errs = append(errs, fmt.Errorf("command references undeclared input %q", p.Name))
				return
			}
			if info.MayBeAbsent && !inOptional {
				errs = append(errs, fmt.Errorf("optional input %q must be wrapped in $[[...]]", p.Name))
			}
		case Output:
			if _, ok := ports.Outputs[p.Name]; !ok {
				errs = append(errs, fmt.Errorf("command references undeclared output %q", p.Name))
			}
		}
	}
	for _, p := range required {
		check(p, false)
	}
	for _, p := range optional {
		check(p, true)
	}

	sort.SliceStable(errs, func(i, j int) bool { return errs[i].Error() < errs[j].Error() })
	return errs
}
