package voting

import "errors"

var (
	// ErrInvalidVote is returned for a vote type other than +1 or -1, or an unknown target kind.
	ErrInvalidVote = errors.New("vote type must be -1 or 1")
	// ErrNotFound is returned when the vote target does not exist.
	ErrNotFound = errors.New("vote target not found")
	// ErrStorage wraps any persistence failure. It is never retried here.
	ErrStorage = errors.New("vote storage failure")
)
