package model

import (
	"fmt"
	"strings"

	"github.com/specialistvlad/pipegraph/internal/fieldpath"
)

// Location points at the manifest field an error is about.
type Location struct {
	Path fieldpath.Path
	// Line is the 1-based line in the source document, 0 when unknown.
	Line int
}

// JobID returns the id of the job the location is inside of, or "".
func (l Location) JobID() string {
	id, _ := l.Path.JobID()
	return id
}

func (l Location) String() string {
	where := l.Path.String()
	if where == "" {
		where = "<document>"
	}
	if l.Line > 0 {
		return fmt.Sprintf("%s (line %d)", where, l.Line)
	}
	return where
}

// SchemaError reports a structurally invalid manifest or component spec.
type SchemaError struct {
	Location
	Reason string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema error at %s: %s", e.Location, e.Reason)
}

// TypeMismatchError reports a binding whose type is incompatible with the
// port it is bound to, or a value outside a port's enum set.
type TypeMismatchError struct {
	Location
	Expected string
	Actual   string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("type mismatch at %s: expected %s, got %s", e.Location, e.Expected, e.Actual)
}

// ReferenceKind names what a dangling reference pointed at.
type ReferenceKind string

const (
	RefPipelineInput  ReferenceKind = "pipeline input"
	RefPipelineOutput ReferenceKind = "pipeline output"
	RefJob            ReferenceKind = "job"
	RefJobOutput      ReferenceKind = "job output"
)

// UnknownReferenceError reports a binding naming something that is not
// declared in the manifest.
type UnknownReferenceError struct {
	Location
	Kind ReferenceKind
	Name string
}

func (e *UnknownReferenceError) Error() string {
	return fmt.Sprintf("unknown reference at %s: %s %q is not declared", e.Location, e.Kind, e.Name)
}

// CyclicDependencyError reports a cycle between jobs. Cycle starts and ends
// with the same job id.
type CyclicDependencyError struct {
	Cycle []string
}

func (e *CyclicDependencyError) Error() string {
	return "cyclic dependency between jobs: " + strings.Join(e.Cycle, " -> ")
}

// JobID returns the first job of the cycle.
func (e *CyclicDependencyError) JobID() string {
	if len(e.Cycle) == 0 {
		return ""
	}
	return e.Cycle[0]
}

// DuplicateJobIdError reports two jobs declared with the same id.
type DuplicateJobIdError struct {
	Location
	ID    string
	Lines []int
}

func (e *DuplicateJobIdError) Error() string {
	if len(e.Lines) > 1 {
		lines := make([]string, len(e.Lines))
		for i, l := range e.Lines {
			lines[i] = fmt.Sprint(l)
		}
		return fmt.Sprintf("duplicate job id %q (lines %s)", e.ID, strings.Join(lines, ", "))
	}
	return fmt.Sprintf("duplicate job id %q", e.ID)
}

// JobID returns the duplicated id.
func (e *DuplicateJobIdError) JobID() string {
	return e.ID
}
