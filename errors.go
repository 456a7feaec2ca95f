package ilp

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrInfeasible is returned when no assignment satisfies all constraints,
	// branching constraints included.
	ErrInfeasible = errors.New("ilp: problem has no feasible solution")

	// ErrUnbounded is matched by every UnboundedError.
	ErrUnbounded = errors.New("ilp: objective is unbounded")

	// ErrDivisionByZero is returned when an expression is divided by zero.
	ErrDivisionByZero = errors.New("ilp: division by zero")

	// ErrNotInteger is returned when an integer value is requested for a fractional value.
	ErrNotInteger = errors.New("ilp: value is not an integer")

	// ErrNotBoolean is returned when a boolean value is requested for a value other than 0 or 1.
	ErrNotBoolean = errors.New("ilp: value is neither 0 nor 1")
)

// UnboundedError reports the variable along which the objective can grow without limit.
type UnboundedError struct {
	Variable string
}

func (e *UnboundedError) Error() string {
	return fmt.Sprintf("ilp: objective is unbounded in variable %q", e.Variable)
}

func (e *UnboundedError) Is(target error) bool {
	return target == ErrUnbounded
}

// translate the context error into the error returned to callers
func interrupted(err error) error {
	return errors.Wrap(err, "ilp: interrupted")
}
