package nn

import "github.com/pkg/errors"

// Error kinds returned by this package. Every returned error wraps exactly one
// of them, so callers can match with errors.Is.
var (
	// ErrConfig reports a malformed layer definition sequence.
	ErrConfig = errors.New("invalid network definition")
	// ErrCapacity reports that forward wiring found more connections than a
	// node has room for.
	ErrCapacity = errors.New("connection capacity exceeded")
	// ErrShape reports an input vector or label that does not fit the network.
	ErrShape = errors.New("shape mismatch")
	// ErrLayout reports that a recomputed arena offset disagrees with the
	// layout that was built.
	ErrLayout = errors.New("inconsistent arena layout")
)

// kindError attaches a kind to a cause coming from another package while
// keeping the cause visible in the message.
type kindError struct {
	kind  error
	cause error
}

func (e *kindError) Error() string { return e.kind.Error() + ": " + e.cause.Error() }
func (e *kindError) Unwrap() []error {
	return []error{e.kind, e.cause}
}

func withKind(kind, cause error) error {
	return errors.WithStack(&kindError{kind: kind, cause: cause})
}
