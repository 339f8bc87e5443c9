// Package model defines the format-agnostic representation of a pipeline
// manifest: the pipeline definition, its jobs, their typed ports and input
// bindings, component references and the error kinds reported while
// validating them.
//
// Values in this package are built once by the manifest parser and are
// read-only afterwards, so they can be shared between goroutines freely.
package model
