package voting

import (
	"context"

	"github.com/emilythestrangee/forum/backend/internal/models"
)

// Store is the persistence side of the ledger.
type Store interface {
	// Atomically runs fn inside one transaction. Any error from fn rolls it back.
	Atomically(ctx context.Context, fn func(tx Tx) error) error
	// FindVote returns the voter's current vote on a target, or nil when there is none.
	FindVote(ctx context.Context, kind models.TargetKind, targetID, voterID int) (*models.Vote, error)
}

// Tx is the set of operations the ledger performs within one unit of work.
type Tx interface {
	// LockTarget takes a row lock on the target. It returns ErrNotFound when absent.
	LockTarget(kind models.TargetKind, targetID int) error
	// UpsertVote inserts the vote or overwrites vote_type on the (voter, kind, target) key.
	UpsertVote(kind models.TargetKind, targetID, voterID int, voteType models.VoteType) (*models.Vote, error)
	CountVotes(kind models.TargetKind, targetID int, voteType models.VoteType) (int, error)
	UpdateAggregate(kind models.TargetKind, targetID, upvotes, downvotes int) (*models.Votable, error)
}
