package fieldpath

// Segment is a single component of a path, e.g. `name` or `name[index]`.
type Segment struct {
	Name  string
	Index int // -1 indicates no index is present.
}

// NewSegment creates a new segment without an index.
func NewSegment(name string) Segment {
	return Segment{Name: name, Index: -1}
}

// NewSegmentWithIndex creates a new segment that includes an index.
func NewSegmentWithIndex(name string, index int) Segment {
	return Segment{Name: name, Index: index}
}

// HasIndex returns true if the segment has an explicit index.
func (s Segment) HasIndex() bool {
	return s.Index != -1
}

// Path is the structured form of a manifest field location.
type Path struct {
	Segments []Segment
}

// New builds a path from plain segment names.
func New(names ...string) Path {
	p := Path{Segments: make([]Segment, 0, len(names))}
	for _, n := range names {
		p.Segments = append(p.Segments, NewSegment(n))
	}
	return p
}

// Job returns the path of the job with the given id: `jobs.<id>`.
func Job(id string) Path {
	return New("jobs", id)
}
