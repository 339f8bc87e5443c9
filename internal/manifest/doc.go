// Package manifest turns a pipeline manifest document into a validated
// model.PipelineDefinition.
//
// Parsing walks the yaml.Node tree instead of decoding into maps so that
// every error can name the field path and source line it refers to, and so
// that two jobs declared under the same id are caught rather than silently
// merged. Validation never stops at the first problem: all violations found
// in a manifest are returned together as a multierr, and no definition is
// returned alongside them.
package manifest
