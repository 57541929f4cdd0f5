/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: eval.go
Description: Small arithmetic evaluator for numeric inputs such as bit offsets and
interleaver dimensions. Accepts non-negative integers joined by + - * / with the
usual precedence, evaluated left to right within each precedence level.
*/

package mathexpr

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	ErrEmpty            = errors.New("empty expression")
	ErrDivisionByZero   = errors.New("division by zero")
	ErrNegativeResult   = errors.New("negative result")
	ErrOperatorPosition = errors.New("invalid operator position")
	ErrOverflow         = errors.New("value out of range")
)

type token struct {
	op  byte // 0 for numbers
	num int
}

// Eval evaluates expr and returns a non-negative int. Whitespace is ignored.
// Intermediate values must stay non-negative, so "2-3+5" is rejected.
func Eval(expr string) (int, error) {
	tokens, err := tokenize(expr)
	if err != nil {
		return 0, err
	}

	// collapse * and / into terms
	terms := []int{tokens[0].num}
	var signs []byte
	for i := 1; i < len(tokens); i += 2 {
		op, rhs := tokens[i].op, tokens[i+1].num
		last := len(terms) - 1
		switch op {
		case '*':
			if rhs != 0 && terms[last] > math.MaxInt/rhs {
				return 0, ErrOverflow
			}
			terms[last] *= rhs
		case '/':
			if rhs == 0 {
				return 0, ErrDivisionByZero
			}
			terms[last] /= rhs
		default:
			signs = append(signs, op)
			terms = append(terms, rhs)
		}
	}

	result := terms[0]
	for i, sign := range signs {
		v := terms[i+1]
		if sign == '+' {
			if result > math.MaxInt-v {
				return 0, ErrOverflow
			}
			result += v
			continue
		}
		if v > result {
			return 0, ErrNegativeResult
		}
		result -= v
	}
	return result, nil
}

// MustEval is Eval for literals. It panics on bad input.
func MustEval(expr string) int {
	v, err := Eval(expr)
	if err != nil {
		panic(err)
	}
	return v
}

// tokenize returns alternating number/operator tokens starting and ending with a
// number.
func tokenize(expr string) ([]token, error) {
	var tokens []token
	var digits strings.Builder

	flush := func() error {
		if digits.Len() == 0 {
			return nil
		}
		n, err := strconv.Atoi(digits.String())
		if err != nil {
			return fmt.Errorf("%w: %s", ErrOverflow, digits.String())
		}
		tokens = append(tokens, token{num: n})
		digits.Reset()
		return nil
	}

	for _, c := range expr {
		switch {
		case c == ' ' || c == '\t':
		case c >= '0' && c <= '9':
			digits.WriteRune(c)
		case c == '+' || c == '-' || c == '*' || c == '/':
			if err := flush(); err != nil {
				return nil, err
			}
			if len(tokens) == 0 || tokens[len(tokens)-1].op != 0 {
				return nil, fmt.Errorf("%w: %c", ErrOperatorPosition, c)
			}
			tokens = append(tokens, token{op: byte(c)})
		default:
			return nil, fmt.Errorf("invalid character: %q", c)
		}
	}
	if err := flush(); err != nil {
		return nil, err
	}

	if len(tokens) == 0 {
		return nil, ErrEmpty
	}
	if tokens[len(tokens)-1].op != 0 {
		return nil, fmt.Errorf("%w: trailing %c", ErrOperatorPosition, tokens[len(tokens)-1].op)
	}
	return tokens, nil
}
