package refexpr

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
)

// Open and Close delimit a reference.
const (
	Open  = "${{"
	Close = "}}"
)

var refRegex = regexp.MustCompile(`\$\{\{([^{}]*)\}\}`)

// Match is one reference found in a string.
type Match struct {
	// Start and End are byte offsets of the whole `${{...}}` span.
	Start, End int
	// Expr is the trimmed text between the delimiters.
	Expr string
}

// Contains reports whether s holds anything that looks like a reference.
func Contains(s string) bool {
	return strings.Contains(s, Open)
}

// FindAll returns every reference in s, in order of appearance.
func FindAll(s string) []Match {
	locs := refRegex.FindAllStringSubmatchIndex(s, -1)
	out := make([]Match, 0, len(locs))
	for _, loc := range locs {
		out = append(out, Match{
			Start: loc[0],
			End:   loc[1],
			Expr:  strings.TrimSpace(s[loc[2]:loc[3]]),
		})
	}
	return out
}

// Whole returns the single reference that makes up all of s (ignoring
// surrounding whitespace). ok is false when s is not exactly one reference.
func Whole(s string) (m Match, ok bool) {
	trimmed := strings.TrimSpace(s)
	matches := FindAll(trimmed)
	if len(matches) != 1 || matches[0].Start != 0 || matches[0].End != len(trimmed) {
		return Match{}, false
	}
	return matches[0], true
}

// Parse parses a reference expression into an absolute HCL traversal.
func Parse(expr string) (hcl.Traversal, error) {
	if expr == "" {
		return nil, fmt.Errorf("empty reference")
	}
	traversal, diags := hclsyntax.ParseTraversalAbs([]byte(expr), "", hcl.InitialPos)
	if diags.HasErrors() {
		return nil, fmt.Errorf("invalid reference %q: %s", expr, diags[0].Detail)
	}
	return traversal, nil
}

// Names flattens a traversal into its step names. String index steps are
// accepted as names, so `parent.jobs["import"]` equals `parent.jobs.import`.
func Names(t hcl.Traversal) ([]string, error) {
	names := make([]string, 0, len(t))
	for _, step := range t {
		switch s := step.(type) {
		case hcl.TraverseRoot:
			names = append(names, s.Name)
		case hcl.TraverseAttr:
			names = append(names, s.Name)
		case hcl.TraverseIndex:
			if s.Key.Type() != cty.String || !s.Key.IsKnown() || s.Key.IsNull() {
				return nil, fmt.Errorf("reference %s: only string keys are supported", Format(t))
			}
			names = append(names, s.Key.AsString())
		default:
			return nil, fmt.Errorf("reference %s: unsupported traversal step", Format(t))
		}
	}
	return names, nil
}

// ParseNames is Parse followed by Names.
func ParseNames(expr string) ([]string, error) {
	t, err := Parse(expr)
	if err != nil {
		return nil, err
	}
	return Names(t)
}

// Format converts a traversal to a human-readable string for logging.
func Format(t hcl.Traversal) string {
	var sb strings.Builder
	for i, part := range t {
		switch p := part.(type) {
		case hcl.TraverseRoot:
			sb.WriteString(p.Name)
		case hcl.TraverseAttr:
			sb.WriteRune('.')
			sb.WriteString(p.Name)
		case hcl.TraverseIndex:
			sb.WriteRune('[')
			if p.Key.Type() == cty.String {
				sb.WriteString(fmt.Sprintf("%q", p.Key.AsString()))
			} else if p.Key.Type() == cty.Number {
				sb.WriteString(p.Key.AsBigFloat().Text('f', -1))
			} else {
				sb.WriteString("...")
			}
			sb.WriteRune(']')
		default:
			if i > 0 {
				sb.WriteRune('.')
			}
			sb.WriteString("?")
		}
	}
	return sb.String()
}
