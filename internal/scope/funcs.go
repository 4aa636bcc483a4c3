package scope

import (
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
)

// newFunctions builds the expression function table for a scope. The scope
// accessors close over the scope itself; fragments evaluate one statement at
// a time, so a mutation made by set_default is visible to every following
// statement.
func newFunctions(s *Scope) map[string]function.Function {
	return map[string]function.Function{
		"get":         getFunc(s),
		"is_defined":  isDefinedFunc(s),
		"set_default": setDefaultFunc(s),

		"coalesce": stdlib.CoalesceFunc,
		"concat":   stdlib.ConcatFunc,
		"format":   stdlib.FormatFunc,
		"length":   stdlib.LengthFunc,
		"lower":    stdlib.LowerFunc,
		"max":      stdlib.MaxFunc,
		"min":      stdlib.MinFunc,
		"replace":  stdlib.ReplaceFunc,
		"upper":    stdlib.UpperFunc,
	}
}

// getFunc returns the binding for a name, the supplied default when the name
// is unbound, or an error when neither exists.
func getFunc(s *Scope) function.Function {
	return function.New(&function.Spec{
		Params: []function.Parameter{
			{Name: "name", Type: cty.String},
		},
		VarParam: &function.Parameter{
			Name:      "default",
			Type:      cty.DynamicPseudoType,
			AllowNull: true,
		},
		Type: func(args []cty.Value) (cty.Type, error) {
			return cty.DynamicPseudoType, nil
		},
		Impl: func(args []cty.Value, retType cty.Type) (cty.Value, error) {
			name := args[0].AsString()
			if value, err := s.Get(name); err == nil {
				return value, nil
			}
			if len(args) > 1 {
				return args[1], nil
			}
			return cty.NilVal, &UndefinedNameError{Name: name}
		},
	})
}

func isDefinedFunc(s *Scope) function.Function {
	return function.New(&function.Spec{
		Params: []function.Parameter{
			{Name: "name", Type: cty.String},
		},
		Type: function.StaticReturnType(cty.Bool),
		Impl: func(args []cty.Value, retType cty.Type) (cty.Value, error) {
			return cty.BoolVal(s.IsDefined(args[0].AsString())), nil
		},
	})
}

// setDefaultFunc binds a name to a default when it is unbound (or null,
// unless a third argument disables null replacement) and returns the
// resulting binding.
func setDefaultFunc(s *Scope) function.Function {
	return function.New(&function.Spec{
		Params: []function.Parameter{
			{Name: "name", Type: cty.String},
			{Name: "default", Type: cty.DynamicPseudoType, AllowNull: true},
		},
		VarParam: &function.Parameter{
			Name: "set_if_none",
			Type: cty.Bool,
		},
		Type: func(args []cty.Value) (cty.Type, error) {
			return cty.DynamicPseudoType, nil
		},
		Impl: func(args []cty.Value, retType cty.Type) (cty.Value, error) {
			setIfNone := true
			if len(args) > 2 {
				setIfNone = args[2].True()
			}
			return s.SetDefault(args[0].AsString(), args[1], setIfNone), nil
		},
	})
}
