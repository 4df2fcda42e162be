// Package voting keeps one vote per (voter, target) and the up/down
// aggregates stored on posts and comments.
package voting

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/emilythestrangee/forum/backend/internal/models"
)

// Observer is notified after a vote commits.
type Observer interface {
	VoteCast(kind models.TargetKind, voteType models.VoteType)
}

type Ledger struct {
	store    Store
	log      *zap.Logger
	observer Observer
}

type Option func(*Ledger)

func WithObserver(o Observer) Option {
	return func(l *Ledger) { l.observer = o }
}

func NewLedger(store Store, log *zap.Logger, opts ...Option) *Ledger {
	l := &Ledger{store: store, log: log}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// CastVote records voterID's vote on the target and returns the target with
// recomputed counts. The vote write and the recount share one transaction.
func (l *Ledger) CastVote(ctx context.Context, kind models.TargetKind, targetID, voterID int, voteType models.VoteType) (*models.Votable, error) {
	if !kind.Valid() || !voteType.Valid() {
		return nil, ErrInvalidVote
	}

	var result *models.Votable
	err := l.store.Atomically(ctx, func(tx Tx) error {
		if err := tx.LockTarget(kind, targetID); err != nil {
			return err
		}
		if _, err := tx.UpsertVote(kind, targetID, voterID, voteType); err != nil {
			return fmt.Errorf("upsert vote: %w", err)
		}

		up, err := tx.CountVotes(kind, targetID, models.Upvote)
		if err != nil {
			return fmt.Errorf("count upvotes: %w", err)
		}
		down, err := tx.CountVotes(kind, targetID, models.Downvote)
		if err != nil {
			return fmt.Errorf("count downvotes: %w", err)
		}

		result, err = tx.UpdateAggregate(kind, targetID, up, down)
		if err != nil {
			return fmt.Errorf("update aggregate: %w", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		l.log.Error("cast vote failed",
			zap.String("kind", string(kind)),
			zap.Int("target_id", targetID),
			zap.Int("voter_id", voterID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	l.log.Debug("vote cast",
		zap.String("kind", string(kind)),
		zap.Int("target_id", targetID),
		zap.Int("voter_id", voterID),
		zap.Int("vote_type", int(voteType)),
		zap.Stringer("target", result),
	)
	if l.observer != nil {
		l.observer.VoteCast(kind, voteType)
	}
	return result, nil
}

// CurrentVote returns the voter's vote on a target, or nil when they have not voted.
func (l *Ledger) CurrentVote(ctx context.Context, kind models.TargetKind, targetID, voterID int) (*models.Vote, error) {
	if !kind.Valid() {
		return nil, ErrInvalidVote
	}
	v, err := l.store.FindVote(ctx, kind, targetID, voterID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return v, nil
}
