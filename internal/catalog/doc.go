// Package catalog is the component registry the manifest parser consults to
// learn the input/output schema behind a job's `component` reference.
//
// Components are loaded from YAML spec files, indexed by name and version,
// and resolved either by explicit version or by label. The `latest` label
// always selects the highest version by semantic version ordering. A
// catalog is safe for concurrent reads once loading is done.
package catalog
