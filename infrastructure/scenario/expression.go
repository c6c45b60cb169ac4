package scenario

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/felixgeelhaar/goap-go/domain/worldstate"
)

// Expression is a compiled expr-lang program evaluated against a world
// state. Keys are visible as variables by name; missing keys are nil.
type Expression struct {
	source  string
	program *vm.Program
}

// Compile compiles source.
func Compile(source string) (*Expression, error) {
	program, err := expr.Compile(source, expr.AllowUndefinedVariables())
	if err != nil {
		return nil, fmt.Errorf("compile %q: %w", source, err)
	}
	return &Expression{source: source, program: program}, nil
}

// String returns the source text.
func (e *Expression) String() string { return e.source }

// Eval runs the expression against s.
func (e *Expression) Eval(s *worldstate.State) (any, error) {
	env := map[string]any{}
	if s != nil {
		env = s.Map()
	}
	out, err := expr.Run(e.program, env)
	if err != nil {
		return nil, fmt.Errorf("eval %q: %w", e.source, err)
	}
	return out, nil
}

// Float evaluates to a number.
func (e *Expression) Float(s *worldstate.State) (float64, error) {
	out, err := e.Eval(s)
	if err != nil {
		return 0, err
	}
	switch v := out.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case int32:
		return float64(v), nil
	default:
		return 0, fmt.Errorf("eval %q: got %T, want number", e.source, out)
	}
}

// Bool evaluates to a boolean.
func (e *Expression) Bool(s *worldstate.State) (bool, error) {
	out, err := e.Eval(s)
	if err != nil {
		return false, err
	}
	b, ok := out.(bool)
	if !ok {
		return false, fmt.Errorf("eval %q: got %T, want bool", e.source, out)
	}
	return b, nil
}
