package fieldpath

import (
	"fmt"
	"reflect"
	"strings"
)

// String serializes the path into its canonical dotted representation.
func (p Path) String() string {
	var sb strings.Builder
	for i, segment := range p.Segments {
		if i > 0 {
			sb.WriteRune('.')
		}
		sb.WriteString(segment.Name)
		if segment.HasIndex() {
			sb.WriteString(fmt.Sprintf("[%d]", segment.Index))
		}
	}
	return sb.String()
}

// Child returns a copy of the path extended with the given names.
func (p Path) Child(names ...string) Path {
	out := Path{Segments: make([]Segment, 0, len(p.Segments)+len(names))}
	out.Segments = append(out.Segments, p.Segments...)
	for _, n := range names {
		out.Segments = append(out.Segments, NewSegment(n))
	}
	return out
}

// At returns a copy of the path whose last segment carries the given index.
// It returns the path unchanged when it is empty.
func (p Path) At(index int) Path {
	if len(p.Segments) == 0 {
		return p
	}
	out := Path{Segments: make([]Segment, len(p.Segments))}
	copy(out.Segments, p.Segments)
	out.Segments[len(out.Segments)-1].Index = index
	return out
}

// JobID returns the job id when the path points inside `jobs.<id>`.
func (p Path) JobID() (string, bool) {
	if len(p.Segments) < 2 || p.Segments[0].Name != "jobs" || p.Segments[0].HasIndex() {
		return "", false
	}
	return p.Segments[1].Name, true
}

// IsZero reports whether the path has no segments.
func (p Path) IsZero() bool {
	return len(p.Segments) == 0
}

// Equal checks for deep equality between two paths.
func (p Path) Equal(other Path) bool {
	if len(p.Segments) == 0 && len(other.Segments) == 0 {
		return true
	}
	return reflect.DeepEqual(p.Segments, other.Segments)
}
