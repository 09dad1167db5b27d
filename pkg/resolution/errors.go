package resolution

import (
	"errors"
	"fmt"
)

// ErrInvalidBatch is returned when a batch is rejected before any gateway call is made.
var ErrInvalidBatch = errors.New("invalid batch")

// DisambiguationError reports the mention whose gateway call failed the batch.
type DisambiguationError struct {
	TmpID int64
	Err   error
}

func (e *DisambiguationError) Error() string {
	return fmt.Sprintf("disambiguation failed for mention %d: %v", e.TmpID, e.Err)
}

func (e *DisambiguationError) Unwrap() error {
	return e.Err
}

// CommitError reports a failed graph write. Statements is the number of merges that were sent.
type CommitError struct {
	Statements int
	Err        error
}

func (e *CommitError) Error() string {
	return fmt.Sprintf("failed to commit %d relationship statements: %v", e.Statements, e.Err)
}

func (e *CommitError) Unwrap() error {
	return e.Err
}
