package deps

import (
	"fmt"
	"strings"

	"github.com/labelworks/agents"
)

// Field is one parameter of a Dependant bound directly from the invocation
// context.
type Field struct {
	// Name is the parameter name the field fills.
	Name string

	// Tag is the context field supplying the value.
	Tag ContextField
}

// Dependant is one node of a built dependency graph. The root node
// represents the agent function itself (no provider, empty name); every
// other node represents a provider filling one named parameter.
//
// Dependants are built once per agent function, at registration time, and
// reused for every invocation. They are immutable after Build returns.
type Dependant struct {
	// Name is the parameter this node fills; "" for the root.
	Name string

	// Provider computes this node's value; nil for the root.
	Provider *Provider

	// Dependencies are the child nodes, in declaration order.
	Dependencies []*Dependant

	// Fields are the parameters bound directly from the context, in
	// declaration order.
	Fields []Field
}

// Build constructs the dependency graph for an agent function from its
// declared params. funcName is used in diagnostics.
//
// Build fails fast with a construction error when a param declares both a
// context field and a provider (ambiguous), neither (bare), an unknown field
// tag, or when a provider is reachable from itself (dependency cycle).
func Build(funcName string, params []Param) (*Dependant, error) {
	return build(funcName, "", nil, params, nil)
}

func build(funcName, nodeName string, provider *Provider, params []Param, path []*Provider) (*Dependant, error) {
	node := &Dependant{Name: nodeName, Provider: provider}

	for _, param := range params {
		switch {
		case param.Field != "" && param.Provider != nil:
			return nil, constructionErr(funcName, param.Name, agents.ErrAmbiguousParam)

		case param.Provider != nil:
			for i, seen := range path {
				if seen == param.Provider {
					return nil, cycleErr(funcName, path[i:], param.Provider)
				}
			}
			sub, err := build(funcName, param.Name, param.Provider, param.Provider.Params(), append(path, param.Provider))
			if err != nil {
				return nil, err
			}
			node.Dependencies = append(node.Dependencies, sub)

		case param.Field != "":
			if !param.Field.IsValid() {
				return nil, constructionErr(funcName, param.Name,
					fmt.Errorf("unknown context field %q", param.Field))
			}
			node.Fields = append(node.Fields, Field{Name: param.Name, Tag: param.Field})

		default:
			return nil, constructionErr(funcName, param.Name, agents.ErrBareParam)
		}
	}

	return node, nil
}

// NeedsRecord reports whether any parameter in the graph, at any depth, is
// bound from the record field. Invocation wrappers use this to skip the
// label-row fetch entirely when no dependency needs it.
func (d *Dependant) NeedsRecord() bool {
	return d.needsField(FieldRecord)
}

// NeedsTask reports whether any parameter in the graph is bound from the
// task field.
func (d *Dependant) NeedsTask() bool {
	return d.needsField(FieldTask)
}

func (d *Dependant) needsField(tag ContextField) bool {
	for _, f := range d.Fields {
		if f.Tag == tag {
			return true
		}
	}
	for _, sub := range d.Dependencies {
		if sub.needsField(tag) {
			return true
		}
	}
	return false
}

// CheckFields verifies that every context field used anywhere in the graph
// is one of the fields the calling invocation wrapper can supply. It returns
// a construction error naming the offending parameter otherwise.
func (d *Dependant) CheckFields(funcName string, allowed ...ContextField) error {
	set := make(map[ContextField]bool, len(allowed))
	for _, f := range allowed {
		set[f] = true
	}
	return d.checkFields(funcName, set)
}

func (d *Dependant) checkFields(funcName string, allowed map[ContextField]bool) error {
	for _, f := range d.Fields {
		if !allowed[f.Tag] {
			return constructionErr(funcName, f.Name,
				fmt.Errorf("context field %q is not available in this invocation style", f.Tag))
		}
	}
	for _, sub := range d.Dependencies {
		if err := sub.checkFields(funcName, allowed); err != nil {
			return err
		}
	}
	return nil
}

func constructionErr(funcName, paramName string, err error) error {
	return agents.NewConstructionError("deps.Build",
		fmt.Errorf("parameter %q of %q: %w", paramName, funcName, err))
}

func cycleErr(funcName string, path []*Provider, repeated *Provider) error {
	names := make([]string, 0, len(path)+1)
	for _, p := range path {
		names = append(names, p.Name())
	}
	names = append(names, repeated.Name())
	return agents.NewConstructionError("deps.Build",
		fmt.Errorf("%w in %q: %s", agents.ErrDependencyCycle, funcName, strings.Join(names, " -> ")))
}
