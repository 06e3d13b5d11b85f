// Package agents is the Labelworks Workflow Agents SDK for Go.
//
// The SDK lets you attach custom agent functions to stages of a Labelworks
// annotation-workflow project. Agents are triggered in one of two ways:
//
//   - Editor agents: synchronous HTTP webhooks fired from the label editor.
//   - Task agents: functions that process a work queue of workflow tasks and
//     decide which pathway each task should follow.
//
// Both invocation styles are powered by the same dependency-resolution
// engine in the deps package. An agent function declares, once, where each
// of its parameters comes from - an ambient context field such as the
// current task or label row, or a provider function that computes the value,
// possibly from further providers. The engine builds that plan into a
// dependency graph at registration time, validates it (fail fast, before any
// task is ever processed), and resolves it freshly on every invocation,
// caching each provider within an invocation and releasing scoped resources
// when the invocation completes.
//
// # Task agents
//
// Register a handler on a workflow stage and run the polling executor, or
// obtain the wrapped TaskFunc and drive it from a queue:
//
//	r, err := runner.New(ctx, client, projectHash)
//	if err != nil {
//		log.Fatal(err)
//	}
//	_, err = r.Stage("Review", func(v deps.Values) (string, error) {
//		task := deps.MustGet[workflow.Task](v, "task")
//		_ = task
//		return "Approved", nil
//	},
//		deps.FromContext("task", deps.FieldTask),
//		deps.FromContext("record", deps.FieldRecord),
//	)
//	if err != nil {
//		log.Fatal(err)
//	}
//	r.Run(ctx)
//
// # Editor agents
//
// Construct a webhook.Agent and mount it on any HTTP mux:
//
//	h, err := webhook.New(client, myHandler,
//		webhook.WithParams(deps.FromContext("record", deps.FieldRecord)),
//	)
//	if err != nil {
//		log.Fatal(err)
//	}
//	http.ListenAndServe(":8080", h)
//
// # Errors
//
// All SDK errors are *agents.Error values carrying an operation and a kind,
// compatible with errors.Is and errors.As. Construction problems (unknown
// stage, ambiguous parameter) surface synchronously at registration; task
// failures are isolated per task and never abort a batch.
package agents
