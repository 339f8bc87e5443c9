// Package dag builds the dependency graph between the jobs of a pipeline.
//
// Every job is a node; every input bound to another job's output adds an
// edge from the producing job to the consuming job. Build rejects graphs
// with cycles and computes a topological order in which ties between
// independent jobs are broken by declaration order, so the same manifest
// always yields the same order.
package dag
