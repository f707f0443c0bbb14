// Package bind validates caller-supplied kwargs against an operation's
// declared parameter schema and reshapes them into the invocation the
// handler receives. All caller arguments arrive named; binding is the
// gate that keeps malformed calls away from operation code.
package bind

import (
	"strconv"

	"github.com/vexlio/courier/internal/fault"
	"github.com/vexlio/courier/internal/registry"
)

// Bind matches kwargs against op's declared parameters. Declared
// parameters are filled by exact name, defaults applied for omitted
// optionals. A missing required parameter or, unless the operation
// accepts extras, an undeclared kwarg fails the call. Binding the same
// kwargs twice yields identical invocations.
func Bind(op *registry.Operation, kwargs map[string]any) (*registry.Invocation, error) {
	positional := make([]any, 0, len(op.Params))
	matched := make(map[string]struct{}, len(op.Params))

	for _, p := range op.Params {
		v, ok := kwargs[p.Name]
		switch {
		case ok:
			positional = append(positional, v)
			matched[p.Name] = struct{}{}
		case p.Required:
			return nil, fault.MissingArgument(op.Name, p.Name)
		default:
			positional = append(positional, p.Default)
		}
	}

	extra := make(map[string]any)
	for k, v := range kwargs {
		if _, ok := matched[k]; ok {
			continue
		}
		if !op.AcceptsExtra {
			return nil, fault.UnexpectedArgument(op.Name, k)
		}
		extra[k] = v
	}

	return &registry.Invocation{Positional: positional, Keyword: extra}, nil
}

// MapPositional assigns positional CLI values to declared parameter
// names in order, merging them into kwargs. A positional value for a
// name that already has a kwarg, or more positionals than declared
// parameters, is an unexpected-argument failure. This runs in the
// argument-parsing layer so the binder itself only ever sees kwargs.
func MapPositional(op *registry.Operation, positional []any, kwargs map[string]any) (map[string]any, error) {
	merged := make(map[string]any, len(kwargs)+len(positional))
	for k, v := range kwargs {
		merged[k] = v
	}
	for i, v := range positional {
		if i >= len(op.Params) {
			return nil, fault.UnexpectedArgument(op.Name, "positional argument "+strconv.Itoa(i+1))
		}
		name := op.Params[i].Name
		if _, dup := merged[name]; dup {
			return nil, fault.UnexpectedArgument(op.Name, name)
		}
		merged[name] = v
	}
	return merged, nil
}
