package calc

import (
	"context"
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/traefik/yaegi/interp"

	"github.com/dwizi/autobot/internal/boterr"
)

const DefaultTimeout = 2 * time.Second

// Expressions are restricted to float arithmetic. No identifiers can appear,
// so the interpreter never sees an import, a call or a loop.
var (
	allowedExpression = regexp.MustCompile(`^[0-9.+\-*/()\s]+$`)
	numberLiteral     = regexp.MustCompile(`[0-9]*\.?[0-9]+\.?`)

	// Interpreter errors carry source positions of the wrapped expression,
	// e.g. "_.go:1:36: ", which mean nothing to the user.
	sourcePosition = regexp.MustCompile(`[^ ]*\d+:\d+: `)
)

type Evaluator struct {
	timeout time.Duration
}

func New(timeout time.Duration) *Evaluator {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Evaluator{timeout: timeout}
}

// Eval evaluates an arithmetic expression and returns its value formatted for
// display. Integer literals are promoted so that 7/2 is 3.5.
func (e *Evaluator) Eval(ctx context.Context, expression string) (string, error) {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		return "", fmt.Errorf("%w: empty expression", boterr.ErrInvalidExpression)
	}
	if !allowedExpression.MatchString(expression) {
		return "", fmt.Errorf("%w: only numbers, + - * / and parentheses are allowed", boterr.ErrInvalidExpression)
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	interpreter := interp.New(interp.Options{})
	value, err := interpreter.EvalWithContext(ctx, "float64("+promoteLiterals(expression)+")")
	if err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("%w: evaluation timed out", boterr.ErrInvalidExpression)
		}
		return "", fmt.Errorf("%w: %s", boterr.ErrInvalidExpression, sourcePosition.ReplaceAllString(err.Error(), ""))
	}
	if !value.IsValid() || value.Kind() != reflect.Float64 {
		return "", fmt.Errorf("%w: expression is not a number", boterr.ErrInvalidExpression)
	}
	return strconv.FormatFloat(value.Float(), 'g', -1, 64), nil
}

func promoteLiterals(expression string) string {
	return numberLiteral.ReplaceAllStringFunc(expression, func(literal string) string {
		if strings.Contains(literal, ".") {
			return literal
		}
		return literal + ".0"
	})
}
