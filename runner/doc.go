// Package runner executes task agents against the agent stages of a
// workflow project.
//
// A Runner is bound to one project. Handlers are registered per stage with
// Stage, which validates everything eagerly - the stage, the handler's
// dependency graph, the context fields it uses - and returns the handler in
// its queue-style wrapped form: a TaskFunc taking a serialized
// TaskDescriptor and returning a serialized CompletionResult. From that
// point tasks can be driven two ways:
//
//   - Run polls the project for tasks, batching label-row fetches and
//     executing handlers over a worker pool with per-task retries.
//   - Populate/Work push task descriptors onto a Redis work queue and
//     consume them, publishing completion results to a pub/sub channel -
//     suitable for distributing work across processes or machines.
//
// Per-task failures never abort a batch or a worker loop: they are logged
// and encoded into the task's CompletionResult. Only registration problems
// fail fast, synchronously, from Stage.
package runner
