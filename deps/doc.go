// Package deps implements the dependency-resolution engine powering both
// agent invocation styles.
//
// An agent function (and every provider it depends on) declares its
// parameters once, at registration time, as a list of Params. Each Param
// names the parameter and states exactly one source for its value:
//
//   - FromContext(name, field): the value is bound directly from the ambient
//     invocation context - the platform client, the current task, the
//     current label row, the project handle, or the webhook trigger payload.
//   - FromProvider(name, provider): the value is computed by calling a
//     Provider, which may itself declare further Params.
//
// Build turns such a plan into a Dependant graph, validating it eagerly:
// ambiguous params (both sources), bare params (no source), unknown field
// tags and dependency cycles are all construction errors, surfaced before
// any task is ever processed.
//
// Solve walks a built graph for one invocation, resolving leaves first. Each
// distinct Provider runs at most once per invocation (the resolution cache is
// keyed by provider identity), and scoped providers register their release
// functions on an ExitStack, which runs them in reverse order when the
// invocation completes - whether the agent function succeeded or not.
//
// The engine is synchronous and performs no internal parallelism. Concurrent
// invocations are safe as long as each one uses its own Context, Cache and
// ExitStack; Dependant graphs and Providers are immutable after construction
// and may be shared freely.
package deps
