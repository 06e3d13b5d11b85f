package deps

// ContextField tags an ambient value an invocation context can supply
// directly, without going through a provider.
type ContextField string

const (
	// FieldClient is the process-wide authenticated platform client.
	// Available in every invocation style.
	FieldClient ContextField = "client"

	// FieldTask is the workflow task currently being processed. Available in
	// task-agent invocations only.
	FieldTask ContextField = "task"

	// FieldRecord is the label row bound to the current data asset. Fetched
	// lazily: invocation wrappers only load it when some parameter in the
	// graph asks for it.
	FieldRecord ContextField = "record"

	// FieldProject is the project handle for the current invocation.
	FieldProject ContextField = "project"

	// FieldFrame is the parsed webhook trigger payload. Available in
	// editor-agent invocations only.
	FieldFrame ContextField = "frame"
)

// String returns the string representation of the field tag.
func (f ContextField) String() string {
	return string(f)
}

// IsValid checks if the field tag is a recognized value.
func (f ContextField) IsValid() bool {
	switch f {
	case FieldClient, FieldTask, FieldRecord, FieldProject, FieldFrame:
		return true
	default:
		return false
	}
}

// Param declares one parameter of an agent function or provider: a name plus
// exactly one source, either a context field or a provider. Params are
// immutable values; construct them with FromContext, FromProvider or
// FromProviderFunc rather than as literals.
type Param struct {
	// Name is the key under which the resolved value appears in Values.
	Name string

	// Field is the context field supplying the value, or "" when the value
	// comes from a provider.
	Field ContextField

	// Provider computes the value, or nil when the value comes from a
	// context field.
	Provider *Provider
}

// FromContext declares a parameter bound directly from the invocation
// context.
func FromContext(name string, field ContextField) Param {
	return Param{Name: name, Field: field}
}

// FromProvider declares a parameter computed by the given provider.
func FromProvider(name string, p *Provider) Param {
	return Param{Name: name, Provider: p}
}

// FromProviderFunc declares a parameter computed by a zero-dependency
// function, wrapping it in an anonymous provider named after the parameter.
// It is the shorthand for the common case of a self-contained factory.
func FromProviderFunc(name string, fn Func) Param {
	return Param{Name: name, Provider: NewProvider(name, fn)}
}
