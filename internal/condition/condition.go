package condition

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/ext"
)

// EvalError reports a condition expression that could not be compiled or
// evaluated. Callers treat it as fatal to the owning scope, the result is
// never coerced to false.
type EvalError struct {
	Expression string
	Err        error
}

func (e *EvalError) Error() string {
	return fmt.Sprintf("condition `%s` failed: %s", e.Expression, e.Err)
}

func (e *EvalError) Unwrap() error {
	return e.Err
}

// Evaluator compiles and evaluates CEL condition expressions against the
// variables exposed by a Context. Compiled programs are cached, the same
// expression is compiled once per evaluator.
type Evaluator struct {
	celEnv   *cel.Env
	mu       sync.Mutex
	programs map[string]cel.Program
}

func NewEvaluator() (*Evaluator, error) {
	celEnv, err := cel.NewEnv(
		ext.Strings(),
		cel.Variable("event", cel.MapType(cel.StringType, cel.DynType)),
		cel.Variable("matrix", cel.MapType(cel.StringType, cel.StringType)),
		cel.Variable("env", cel.MapType(cel.StringType, cel.StringType)),
		cel.Variable("steps", cel.MapType(cel.StringType, cel.DynType)),
		cel.Variable("job", cel.MapType(cel.StringType, cel.DynType)),
		cel.Variable("pipeline", cel.MapType(cel.StringType, cel.DynType)),
		cel.Variable("success", cel.BoolType),
		cel.Variable("failure", cel.BoolType),
		cel.Variable("cancelled", cel.BoolType),
		cel.Variable("always", cel.BoolType),
	)
	if err != nil {
		return nil, fmt.Errorf("setup cel env failed: %w", err)
	}

	return &Evaluator{
		celEnv:   celEnv,
		programs: make(map[string]cel.Program),
	}, nil
}

// Compile validates an expression without evaluating it. Used at load time
// to reject malformed conditions before any step runs.
func (e *Evaluator) Compile(expression string) error {
	_, err := e.program(expression)
	return err
}

// Eval evaluates an expression to a boolean. Any compile error, runtime
// error or non-boolean result yields an EvalError.
func (e *Evaluator) Eval(expression string, evalCtx Context) (bool, error) {
	prg, err := e.program(expression)
	if err != nil {
		return false, err
	}

	out, _, err := prg.Eval(evalCtx.Vars())
	if err != nil {
		return false, &EvalError{Expression: expression, Err: err}
	}

	result, ok := out.Value().(bool)
	if !ok {
		return false, &EvalError{Expression: expression, Err: fmt.Errorf("expression result is %T, expected bool", out.Value())}
	}

	return result, nil
}

func (e *Evaluator) program(expression string) (cel.Program, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if prg, ok := e.programs[expression]; ok {
		return prg, nil
	}

	ast, issues := e.celEnv.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, &EvalError{Expression: expression, Err: issues.Err()}
	}

	prg, err := e.celEnv.Program(ast)
	if err != nil {
		return nil, &EvalError{Expression: expression, Err: err}
	}

	e.programs[expression] = prg
	return prg, nil
}
