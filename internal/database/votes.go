package database

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/emilythestrangee/forum/backend/internal/models"
	"github.com/emilythestrangee/forum/backend/internal/voting"
)

// VoteStore backs the vote ledger with GORM.
type VoteStore struct {
	db *gorm.DB
}

func NewVoteStore(db *gorm.DB) *VoteStore {
	return &VoteStore{db: db}
}

var _ voting.Store = (*VoteStore)(nil)

func (s *VoteStore) Atomically(ctx context.Context, fn func(tx voting.Tx) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&voteTx{db: tx})
	})
}

func (s *VoteStore) FindVote(ctx context.Context, kind models.TargetKind, targetID, voterID int) (*models.Vote, error) {
	var vote models.Vote
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND target_kind = ? AND target_id = ?", voterID, kind, targetID).
		First(&vote).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &vote, nil
}

type voteTx struct {
	db *gorm.DB
}

// target returns a fresh model pointer for the kind's table.
func target(kind models.TargetKind) (interface{}, error) {
	switch kind {
	case models.TargetPost:
		return &models.Post{}, nil
	case models.TargetComment:
		return &models.Comment{}, nil
	}
	return nil, fmt.Errorf("unknown target kind %q", kind)
}

func (t *voteTx) LockTarget(kind models.TargetKind, targetID int) error {
	row, err := target(kind)
	if err != nil {
		return err
	}
	q := t.db.Clauses(clause.Locking{Strength: "UPDATE"})
	if kind == models.TargetComment {
		q = q.Where("deleted = ?", false)
	}
	err = q.Select("id").First(row, targetID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return voting.ErrNotFound
	}
	return err
}

func (t *voteTx) UpsertVote(kind models.TargetKind, targetID, voterID int, voteType models.VoteType) (*models.Vote, error) {
	vote := models.Vote{
		UserID:     voterID,
		TargetKind: kind,
		TargetID:   targetID,
		VoteType:   voteType,
	}
	err := t.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "target_kind"}, {Name: "target_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"vote_type", "updated_at"}),
	}).Create(&vote).Error
	if err != nil {
		return nil, err
	}
	return &vote, nil
}

func (t *voteTx) CountVotes(kind models.TargetKind, targetID int, voteType models.VoteType) (int, error) {
	var n int64
	err := t.db.Model(&models.Vote{}).
		Where("target_kind = ? AND target_id = ? AND vote_type = ?", kind, targetID, voteType).
		Count(&n).Error
	return int(n), err
}

func (t *voteTx) UpdateAggregate(kind models.TargetKind, targetID, upvotes, downvotes int) (*models.Votable, error) {
	counts := map[string]interface{}{"upvotes": upvotes, "downvotes": downvotes}

	switch kind {
	case models.TargetPost:
		var post models.Post
		if err := t.db.Model(&models.Post{}).Where("id = ?", targetID).UpdateColumns(counts).Error; err != nil {
			return nil, err
		}
		if err := t.db.First(&post, targetID).Error; err != nil {
			return nil, err
		}
		return post.Votable(), nil
	case models.TargetComment:
		var comment models.Comment
		if err := t.db.Model(&models.Comment{}).Where("id = ?", targetID).UpdateColumns(counts).Error; err != nil {
			return nil, err
		}
		if err := t.db.First(&comment, targetID).Error; err != nil {
			return nil, err
		}
		return comment.Votable(), nil
	}
	return nil, fmt.Errorf("unknown target kind %q", kind)
}
