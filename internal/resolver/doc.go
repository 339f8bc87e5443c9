// Package resolver computes what an external orchestrator needs to run a
// validated pipeline: for each job, the concrete values its inputs resolve
// to, the edges it is still waiting on, and whether it is ready.
//
// Nothing here executes jobs. The orchestrator reports job states and the
// outputs of completed jobs through a Context; Resolve, Readiness and Plan
// are pure functions of that context and the pipeline definition.
package resolver
