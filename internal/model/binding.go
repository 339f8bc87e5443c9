package model

import "fmt"

// Binding is the value or reference assigned to a job input. It is one of
// Literal, ParentInputRef or JobOutputRef.
type Binding interface {
	isBinding()
	String() string
}

// Literal binds a constant value.
type Literal struct {
	Value Value
}

// ParentInputRef binds a pipeline-level input: ${{parent.inputs.<Name>}}.
type ParentInputRef struct {
	Name string
}

// JobOutputRef binds another job's output: ${{parent.jobs.<JobID>.outputs.<Output>}}.
type JobOutputRef struct {
	JobID  string
	Output string
}

func (Literal) isBinding()        {}
func (ParentInputRef) isBinding() {}
func (JobOutputRef) isBinding()   {}

func (l Literal) String() string { return l.Value.String() }

func (r ParentInputRef) String() string {
	return fmt.Sprintf("${{parent.inputs.%s}}", r.Name)
}

func (r JobOutputRef) String() string {
	return fmt.Sprintf("${{parent.jobs.%s.outputs.%s}}", r.JobID, r.Output)
}
