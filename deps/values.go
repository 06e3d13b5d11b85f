package deps

import "fmt"

// Values maps parameter names to their resolved values. Agent functions and
// providers receive exactly the Values for the Params they declared.
type Values map[string]any

// Get retrieves a resolved value by name, checking its type.
func Get[T any](v Values, name string) (T, error) {
	var zero T
	raw, ok := v[name]
	if !ok {
		return zero, fmt.Errorf("no resolved value named %q", name)
	}
	typed, ok := raw.(T)
	if !ok {
		return zero, fmt.Errorf("resolved value %q has type %T, want %T", name, raw, zero)
	}
	return typed, nil
}

// MustGet retrieves a resolved value by name, panicking on a missing name or
// a type mismatch. Intended for agent function bodies, where both conditions
// indicate a registration bug that graph construction already guards.
func MustGet[T any](v Values, name string) T {
	typed, err := Get[T](v, name)
	if err != nil {
		panic(err)
	}
	return typed
}
