/*
Package fieldpath provides a structured representation of locations inside a
manifest document, used to point errors at the offending field.

The format is a dot-separated sequence of segments with optional sequence
indices, e.g. `jobs.register.inputs.storage_uri` or `inputs.doc_type.enum[1]`.
*/
package fieldpath
