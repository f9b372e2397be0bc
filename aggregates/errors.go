package aggregates

import (
	"fmt"

	"github.com/pkg/errors"
)

// InvariantError is the panic value raised when the calling sink breaks a
// precondition of the aggregate contract. It is never returned as an error:
// it means the caller is wrong, not the data.
type InvariantError struct {
	Op  string
	err error
}

func (e *InvariantError) Error() string {
	return e.Op + ": " + e.err.Error()
}

func (e *InvariantError) Unwrap() error {
	return e.err
}

// Format prints the stack captured at the point of misuse with %+v.
func (e *InvariantError) Format(s fmt.State, verb rune) {
	if verb == 'v' && s.Flag('+') {
		fmt.Fprintf(s, "%s: %+v", e.Op, e.err)
		return
	}
	fmt.Fprint(s, e.Error())
}

var (
	// ErrKindMismatch is wrapped when Combine receives an accumulator of another concrete kind.
	ErrKindMismatch = errors.New("accumulator kind mismatch")
	// ErrAliased is wrapped when an accumulator is combined with itself.
	ErrAliased = errors.New("accumulator combined with itself")
	// ErrExhausted is wrapped when a value iterator has no element left.
	ErrExhausted = errors.New("value iterator exhausted")
	// ErrUnsupportedFinalize is wrapped when finalize meets a kind without an output rule.
	ErrUnsupportedFinalize = errors.New("no finalize rule for kind")
)

func invariant(op string, cause error, format string, args ...interface{}) *InvariantError {
	return &InvariantError{Op: op, err: errors.Wrapf(cause, format, args...)}
}
