package deps

// Func is a plain provider function. It receives the values resolved for its
// own declared Params and returns the provided value.
type Func func(v Values) (any, error)

// ScopedFunc is a scoped provider function. In addition to the provided
// value it returns a release function, which the resolver registers on the
// invocation's ExitStack and runs when the invocation completes. A nil
// release is permitted and skipped.
type ScopedFunc func(v Values) (value any, release func() error, err error)

// Provider is a named callable producing one dependency value, possibly from
// further dependencies declared as Params. Providers are immutable after
// construction and may be shared across graphs and across concurrent
// invocations.
//
// Provider identity (the pointer) keys the resolution cache: a provider
// referenced by several parameters, directly or transitively, runs at most
// once per invocation.
type Provider struct {
	name   string
	fn     Func
	scoped ScopedFunc
	params []Param
}

// NewProvider creates a plain provider. The name is used in diagnostics
// only; params declare the provider's own dependencies.
func NewProvider(name string, fn Func, params ...Param) *Provider {
	return &Provider{name: name, fn: fn, params: params}
}

// NewScopedProvider creates a scoped provider whose release function runs
// after the invocation completes, on success and on failure alike.
func NewScopedProvider(name string, fn ScopedFunc, params ...Param) *Provider {
	return &Provider{name: name, scoped: fn, params: params}
}

// Name returns the provider's diagnostic name.
func (p *Provider) Name() string {
	return p.name
}

// Params returns the provider's declared dependencies.
func (p *Provider) Params() []Param {
	return p.params
}

// IsScoped reports whether the provider carries a release function.
func (p *Provider) IsScoped() bool {
	return p.scoped != nil
}
