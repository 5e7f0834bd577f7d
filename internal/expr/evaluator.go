// Package expr implements the mapping sublanguage's condition and
// transformExpression evaluator on top of github.com/expr-lang/expr.
// Expressions see three bindings: the current source document's top-level
// fields, `value` (the field currently being read/transformed), and `ctx`
//. A `fn`
// binding exposes the built-in function namespace.
package expr

import (
	"fmt"
	"strings"
	"sync"

	exprlang "github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/pradeepkk321/fhir-mapper/internal/mapping"
	"github.com/pradeepkk321/fhir-mapper/internal/tree"
)

// Error wraps a condition/transformExpression parse or evaluation failure,
// carrying the original (pre-normalisation) expression text for diagnostics.
type Error struct {
	Expression string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("expr: %q: %v", e.Expression, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Evaluator compiles and runs mapping expressions, caching compiled programs
// by their normalised source text. An Evaluator is safe for concurrent use
// and is typically shared across every transformation in a process, since
// compiled expr.Program values never depend on the document or context they
// will be run against.
type Evaluator struct {
	mu sync.RWMutex
	cache map[string]*vm.Program
}

// NewEvaluator returns a ready-to-use Evaluator with an empty compile cache.
func NewEvaluator() *Evaluator {
	return &Evaluator{cache: make(map[string]*vm.Program)}
}

func (e *Evaluator) compile(resolved string) (*vm.Program, error) {
	e.mu.RLock()
	p, ok := e.cache[resolved]
	e.mu.RUnlock()
	if ok {
		return p, nil
	}

	p, err := exprlang.Compile(resolved, exprlang.AllowUndefinedVariables())
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.cache[resolved] = p
	e.mu.Unlock()
	return p, nil
}

// EvaluateCondition runs a `condition` expression against doc/ctx, coercing
// the result to bool. A nil result (including one produced by a
// short-circuited fn.* call, or an unresolved $ctx reference) is treated as
// false, never as an error.
func (e *Evaluator) EvaluateCondition(expression string, doc *tree.Map, ctx *mapping.Context) (bool, error) {
	v, err := e.evaluate(expression, doc, ctx, nil)
	if err != nil {
		return false, err
	}
	return truthy(v), nil
}

// EvaluateTransform runs a `transformExpression` against doc/ctx with value
// bound to the field's current value, and returns its replacement value.
func (e *Evaluator) EvaluateTransform(expression string, doc *tree.Map, ctx *mapping.Context, value tree.Value) (tree.Value, error) {
	return e.evaluate(expression, doc, ctx, value)
}

// CheckParsable compiles expression without running it, used by the
// validator pipeline to catch malformed expressions at load
// time instead of at transform time.
func (e *Evaluator) CheckParsable(expression string) error {
	resolved := normalize(expression)
	if _, err := e.compile(resolved); err != nil {
		return &Error{Expression: expression, Err: err}
	}
	return nil
}

func (e *Evaluator) evaluate(expression string, doc *tree.Map, ctx *mapping.Context, value tree.Value) (tree.Value, error) {
	resolved := normalize(expression)
	program, err := e.compile(resolved)
	if err != nil {
		return nil, &Error{Expression: expression, Err: err}
	}

	env := buildEnv(doc, ctx, value)
	out, err := exprlang.Run(program, env)
	if err != nil {
		return nil, &Error{Expression: expression, Err: err}
	}
	return out, nil
}

// buildEnv assembles the expr-lang environment map for one evaluation: the
// document's top-level fields (converted to native Go containers so nested
// dot/bracket navigation works), plus value/ctx/fn.
func buildEnv(doc *tree.Map, ctx *mapping.Context, value tree.Value) map[string]interface{} {
	env := make(map[string]interface{})
	if doc != nil {
		for _, k := range doc.Keys() {
			v, _ := doc.Get(k)
			env[k] = tree.ToNative(v)
		}
	}
	env["value"] = tree.ToNative(value)
	env["ctx"] = buildCtxMap(ctx)
	env["fn"] = fnNamespace
	return env
}

// normalize reconciles the two `fn` call notations that appear in the
// mapping sublanguage's own description: the dotted builtin-namespace
// contract and the "fn:name(...)" form used in its worked transform
// example. Both resolve to a lookup in the `fn` map binding. It also turns
// the "$ctx." sigil into a plain "ctx." identifier reference, so resolution
// happens through expr-lang's own variable lookup against the `ctx` map
// built by buildCtxMap rather than through textual value substitution.
func normalize(expression string) string {
	out := strings.ReplaceAll(expression, "fn:", "fn.")
	out = strings.ReplaceAll(out, "$ctx.", "ctx.")
	return out
}

func truthy(v interface{}) bool {
	if v == nil {
		return false
	}
	if b, ok := v.(bool); ok {
		return b
	}
	return true
}
