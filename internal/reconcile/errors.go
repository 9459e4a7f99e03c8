package reconcile

import (
	"errors"
	"fmt"

	"github.com/solidsilver/cftun/internal/poll"
)

// PreconditionError reports a missing prerequisite (daemon absent, origin
// certificate absent, credential absent). Nothing has been created when one
// is returned, so no cleanup is owed.
type PreconditionError struct {
	Message string
	Err     error
}

func (e *PreconditionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("precondition failed: %s: %v", e.Message, e.Err)
	}
	return fmt.Sprintf("precondition failed: %s", e.Message)
}

func (e *PreconditionError) Unwrap() error {
	return e.Err
}

// ErrConvergenceTimeout reports that a post-delete existence wait exceeded
// its deadline.
var ErrConvergenceTimeout = errors.New("resource deletion did not converge in time")

func convergenceError(what string, err error) error {
	if errors.Is(err, poll.ErrTimeout) {
		return fmt.Errorf("%w: %s", ErrConvergenceTimeout, what)
	}
	return err
}
