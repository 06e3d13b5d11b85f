package deps

import (
	"fmt"

	"github.com/labelworks/agents"
)

// Cache memoizes resolved values within one top-level resolution pass, keyed
// by provider identity. It is never shared across invocations.
type Cache map[*Provider]any

// NewCache creates an empty resolution cache.
func NewCache() Cache {
	return Cache(make(map[*Provider]any))
}

// Solve resolves one invocation of a built dependency graph.
//
// Children are resolved leaves-first, in declaration order. A provider
// already present in the cache is not called again; otherwise a plain
// provider is called with its own resolved sub-values, and a scoped provider
// is additionally entered through the exit stack so its release runs when
// the invocation completes. Context fields are filled last, by tag.
//
// Provider errors propagate out of Solve unchanged apart from resolution-
// error wrapping; Solve never retries and never swallows. The caller owns
// the exit stack and must Close it regardless of Solve's outcome.
func Solve(rctx *Context, node *Dependant, stack *ExitStack, cache Cache) (Values, error) {
	values := make(Values, len(node.Dependencies)+len(node.Fields))

	for _, sub := range node.Dependencies {
		subValues, err := Solve(rctx, sub, stack, cache)
		if err != nil {
			return nil, err
		}

		solved, hit := cache[sub.Provider]
		if !hit {
			solved, err = call(sub.Provider, subValues, stack)
			if err != nil {
				return nil, err
			}
			cache[sub.Provider] = solved
		}

		if sub.Name != "" {
			values[sub.Name] = solved
		}
	}

	for _, f := range node.Fields {
		v, err := rctx.field(f.Tag)
		if err != nil {
			return nil, err
		}
		values[f.Name] = v
	}

	return values, nil
}

func call(p *Provider, subValues Values, stack *ExitStack) (any, error) {
	if p.IsScoped() {
		v, release, err := p.scoped(subValues)
		if err != nil {
			return nil, providerErr(p, err)
		}
		stack.Push(release)
		return v, nil
	}

	v, err := p.fn(subValues)
	if err != nil {
		return nil, providerErr(p, err)
	}
	return v, nil
}

// providerErr wraps a failure at the provider that actually failed; the
// recursion above returns it unchanged.
func providerErr(p *Provider, err error) error {
	return agents.NewResolutionError("deps.Solve",
		fmt.Errorf("provider %q: %w", p.Name(), err))
}
