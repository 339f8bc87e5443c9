// Package schema holds the YAML document shapes of pipeline manifests and
// component specs, plus helpers for walking yaml.Node trees.
//
// Structured fields are decoded through yaml struct tags. Mappings whose
// keys are user-defined (jobs, inputs, outputs) are kept as yaml.Node so
// callers can preserve declaration order, line numbers and detect
// duplicate keys.
package schema
