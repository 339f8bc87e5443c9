// Package command models component command templates: literal text with
// `${{inputs.X}}` / `${{outputs.X}}` placeholders and `$[[ ... ]]` optional
// fragments that are emitted only when every input they mention is present.
package command

import (
	"fmt"
	"strings"

	"github.com/specialistvlad/pipegraph/internal/refexpr"
)

const (
	optOpen  = "$[["
	optClose = "]]"
)

// PortKind tells whether a placeholder refers to an input or an output.
type PortKind string

const (
	Input  PortKind = "inputs"
	Output PortKind = "outputs"
)

// Placeholder is a `${{inputs.X}}` or `${{outputs.X}}` reference.
type Placeholder struct {
	Kind PortKind
	Name string
}

func (p Placeholder) String() string {
	return fmt.Sprintf("${{%s.%s}}", p.Kind, p.Name)
}

// Part is one element of a template: text, a placeholder, or an optional
// group of further parts. Exactly one field is set.
type Part struct {
	Text        string
	Placeholder *Placeholder
	Optional    []Part
}

// Template is a parsed command line.
type Template struct {
	Raw   string
	Parts []Part
}

// Parse splits a command template into parts. Optional fragments cannot be
// nested.
func Parse(raw string) (*Template, error) {
	var parts []Part
	rest := raw
	for rest != "" {
		i := strings.Index(rest, optOpen)
		if i < 0 {
			seg, err := parseSegment(rest)
			if err != nil {
				return nil, err
			}
			parts = append(parts, seg...)
			break
		}
		seg, err := parseSegment(rest[:i])
		if err != nil {
			return nil, err
		}
		parts = append(parts, seg...)

		body := rest[i+len(optOpen):]
		j := strings.Index(body, optClose)
		if j < 0 {
			return nil, fmt.Errorf("unterminated %q in command", optOpen)
		}
		if strings.Contains(body[:j], optOpen) {
			return nil, fmt.Errorf("nested %q fragments are not supported", optOpen)
		}
		inner, err := parseSegment(body[:j])
		if err != nil {
			return nil, err
		}
		parts = append(parts, Part{Optional: inner})
		rest = body[j+len(optClose):]
	}
	return &Template{Raw: raw, Parts: parts}, nil
}

func parseSegment(s string) ([]Part, error) {
	var parts []Part
	last := 0
	for _, m := range refexpr.FindAll(s) {
		if m.Start > last {
			parts = append(parts, Part{Text: s[last:m.Start]})
		}
		names, err := refexpr.ParseNames(m.Expr)
		if err != nil {
			return nil, err
		}
		if len(names) != 2 || (names[0] != string(Input) && names[0] != string(Output)) {
			return nil, fmt.Errorf("unsupported placeholder %q: expected inputs.<name> or outputs.<name>", m.Expr)
		}
		parts = append(parts, Part{Placeholder: &Placeholder{Kind: PortKind(names[0]), Name: names[1]}})
		last = m.End
	}
	if last < len(s) {
		parts = append(parts, Part{Text: s[last:]})
	}
	return parts, nil
}

// Placeholders lists every placeholder, noting whether it sits inside an
// optional fragment.
func (t *Template) Placeholders() (required, optional []Placeholder) {
	for _, p := range t.Parts {
		switch {
		case p.Placeholder != nil:
			required = append(required, *p.Placeholder)
		case p.Optional != nil:
			for _, inner := range p.Optional {
				if inner.Placeholder != nil {
					optional = append(optional, *inner.Placeholder)
				}
			}
		}
	}
	return required, optional
}

// Values carries the rendered value of each present port. A missing key
// means the port is absent.
type Values struct {
	Inputs  map[string]string
	Outputs map[string]string
}

func (v Values) lookup(p Placeholder) (string, bool) {
	var m map[string]string
	if p.Kind == Input {
		m = v.Inputs
	} else {
		m = v.Outputs
	}
	s, ok := m[p.Name]
	return s, ok
}

// Render produces the command line. Optional fragments referring to an
// absent input are dropped along with one blank next to them; any other
// absent placeholder is an error. Literal text and values are kept as
// written.
func (t *Template) Render(v Values) (string, error) {
	var out []byte
	dropped := false
	for _, p := range t.Parts {
		var s string
		switch {
		case p.Placeholder != nil:
			val, ok := v.lookup(*p.Placeholder)
			if !ok {
				return "", fmt.Errorf("no value for %s", p.Placeholder)
			}
			s = val
		case p.Optional != nil:
			frag, ok := renderOptional(p.Optional, v)
			if !ok {
				dropped = true
				continue
			}
			s = frag
		default:
			s = p.Text
		}
		if dropped && p.Placeholder == nil && p.Optional == nil {
			out, s = joinAfterDrop(out, s)
		}
		dropped = false
		out = append(out, s...)
	}
	if dropped {
		out = trimBlank(out)
	}
	return string(out), nil
}

// joinAfterDrop removes the one blank a dropped fragment leaves between
// the text before it and the text after it.
func joinAfterDrop(out []byte, next string) ([]byte, string) {
	switch {
	case len(next) > 0 && isBlank(next[0]) && (len(out) == 0 || isBlank(out[len(out)-1]) || out[len(out)-1] == '\n'):
		return out, next[1:]
	case len(next) > 0 && next[0] == '\n':
		return trimBlank(out), next
	}
	return out, next
}

func trimBlank(out []byte) []byte {
	if len(out) > 0 && isBlank(out[len(out)-1]) {
		return out[:len(out)-1]
	}
	return out
}

func isBlank(b byte) bool {
	return b == ' ' || b == '\t'
}

func renderOptional(parts []Part, v Values) (string, bool) {
	var sb strings.Builder
	for _, p := range parts {
		if p.Placeholder == nil {
			sb.WriteString(p.Text)
			continue
		}
		s, ok := v.lookup(*p.Placeholder)
		if !ok {
			return "", false
		}
		sb.WriteString(s)
	}
	return sb.String(), true
}
