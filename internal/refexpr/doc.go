// Package refexpr parses the `${{ ... }}` reference grammar used inside
// manifests and component command templates.
//
// The text between the braces is a dotted traversal such as
// `parent.inputs.data_path`, `parent.jobs.import.outputs.ml_index` or
// `inputs.chunk_size`. It is parsed with the HCL traversal syntax rather than
// treated as opaque text so that references can be checked statically.
package refexpr
