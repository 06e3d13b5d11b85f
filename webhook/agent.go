// Package webhook implements the editor-agent invocation style: a handler
// triggered synchronously by the label editor through an HTTP webhook.
//
// The editor POSTs a JSON trigger payload (projectHash, dataHash, frame);
// the Agent parses it, builds a fresh invocation context - fetching the
// label row only when some dependency needs it - resolves the handler's
// dependency graph inside an exit stack, calls the handler, and answers with
// an empty 200. Handler and provider failures become a 500; authorization
// failures from the platform client become a 403.
package webhook

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/labelworks/agents"
	"github.com/labelworks/agents/deps"
	"github.com/labelworks/agents/workflow"
)

// HandlerFunc is an editor-agent function. Unlike task agents it makes no
// routing decision; its effect is whatever it does to the labels.
type HandlerFunc func(v deps.Values) error

// editorFields are the context fields available to editor agents.
var editorFields = []deps.ContextField{deps.FieldClient, deps.FieldRecord, deps.FieldProject, deps.FieldFrame}

// Agent is an http.Handler wrapping one editor-agent function. Construct it
// with New; a zero Agent is not usable.
type Agent struct {
	client  workflow.Client
	handler HandlerFunc
	node    *deps.Dependant
	logger  *slog.Logger
	tracer  trace.Tracer
	rowOpts workflow.LabelRowOptions

	// pendingParams accumulates WithParams declarations until New builds the
	// graph; nil afterwards.
	pendingParams []deps.Param
}

// Option configures an Agent.
type Option func(*Agent)

// WithParams declares the handler's parameters. May be given several times;
// declarations accumulate in order.
func WithParams(params ...deps.Param) Option {
	return func(a *Agent) {
		a.pendingParams = append(a.pendingParams, params...)
	}
}

// WithLogger sets a custom logger for the agent.
// If not provided, slog.Default() is used.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Agent) {
		a.logger = logger
	}
}

// WithTracer sets an OpenTelemetry tracer for the agent. If not provided, a
// noop tracer is used.
func WithTracer(tracer trace.Tracer) Option {
	return func(a *Agent) {
		a.tracer = tracer
	}
}

// WithLabelRowOptions overrides the options used when fetching the label row
// for handlers that need it.
func WithLabelRowOptions(opts workflow.LabelRowOptions) Option {
	return func(a *Agent) {
		a.rowOpts = opts
	}
}

// New wraps an editor-agent function, building and validating its dependency
// graph eagerly so registration problems surface before the first trigger.
func New(client workflow.Client, handler HandlerFunc, opts ...Option) (*Agent, error) {
	a := &Agent{
		client:  client,
		handler: handler,
		logger:  slog.Default(),
		tracer:  noop.NewTracerProvider().Tracer("labelworks-agents"),
		rowOpts: workflow.DefaultLabelRowOptions(),
	}
	for _, opt := range opts {
		opt(a)
	}

	const funcName = "editor agent handler"
	node, err := deps.Build(funcName, a.pendingParams)
	if err != nil {
		return nil, err
	}
	if err := node.CheckFields(funcName, editorFields...); err != nil {
		return nil, err
	}
	a.node = node
	a.pendingParams = nil
	return a, nil
}

// ServeHTTP implements http.Handler.
func (a *Agent) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
	if err != nil {
		http.Error(w, "failed to read request body", http.StatusBadRequest)
		return
	}

	fd, err := workflow.ParseFrameData(body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ctx, span := a.tracer.Start(r.Context(), "webhook.Agent", trace.WithAttributes(
		attribute.String("project.hash", fd.ProjectHash.String()),
		attribute.String("data.hash", fd.DataHash.String()),
		attribute.Int("frame", fd.Frame),
	))
	defer span.End()

	a.logger.Info("editor agent triggered",
		"project_hash", fd.ProjectHash,
		"data_hash", fd.DataHash,
		"frame", fd.Frame)

	project, err := a.client.Project(ctx, fd.ProjectHash)
	if err != nil {
		a.respondError(w, fmt.Errorf("fetching project %s: %w", fd.ProjectHash, err))
		return
	}

	var record workflow.LabelRow
	if a.node.NeedsRecord() {
		rows, err := project.LabelRows(ctx, []uuid.UUID{fd.DataHash}, a.rowOpts)
		if err != nil || len(rows) == 0 {
			if err == nil {
				err = fmt.Errorf("no row returned")
			}
			a.respondError(w, fmt.Errorf("fetching label row %s: %w", fd.DataHash, err))
			return
		}
		record = rows[0]
		if err := record.Initialize(ctx); err != nil {
			a.respondError(w, fmt.Errorf("initializing label row %s: %w", fd.DataHash, err))
			return
		}
	}

	rctx := &deps.Context{
		Client:  a.client,
		Project: project,
		Record:  record,
		Frame:   fd,
	}

	stack := deps.NewExitStack()
	err = func() error {
		values, err := deps.Solve(rctx, a.node, stack, deps.NewCache())
		if err != nil {
			return err
		}
		return a.handler(values)
	}()
	if cerr := stack.Close(); cerr != nil {
		a.logger.Warn("scoped resource release failed",
			"data_hash", fd.DataHash,
			"error", cerr)
	}
	if err != nil {
		a.respondError(w, err)
		return
	}

	// Fixed-shape success response the editor expects: empty 200 with CORS.
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
}

// respondError maps an error to the webhook's transport semantics:
// authorization failures are 403, everything else is 500.
func (a *Agent) respondError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, agents.ErrUnauthorized) {
		status = http.StatusForbidden
	}
	a.logger.Error("editor agent failed", "status", status, "error", err)
	http.Error(w, err.Error(), status)
}
