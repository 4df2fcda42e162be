package models

import (
	"fmt"
	"time"
)

// TargetKind says which table a vote points at.
type TargetKind string

const (
	TargetPost    TargetKind = "post"
	TargetComment TargetKind = "comment"
)

func (k TargetKind) Valid() bool {
	return k == TargetPost || k == TargetComment
}

// VoteType is the direction of a vote: +1 up, -1 down.
type VoteType int

const (
	Upvote   VoteType = 1
	Downvote VoteType = -1
)

func (v VoteType) Valid() bool {
	return v == Upvote || v == Downvote
}

// Vote model - one row per (user, target). Never deleted; re-voting flips VoteType.
type Vote struct {
	ID         int        `gorm:"primaryKey" json:"id"`
	UserID     int        `gorm:"not null;uniqueIndex:idx_votes_voter_target,priority:1" json:"user_id"`
	TargetKind TargetKind `gorm:"type:varchar(16);not null;uniqueIndex:idx_votes_voter_target,priority:2;index:idx_votes_target,priority:1" json:"target_kind"`
	TargetID   int        `gorm:"not null;uniqueIndex:idx_votes_voter_target,priority:3;index:idx_votes_target,priority:2" json:"target_id"`
	VoteType   VoteType   `gorm:"not null;check:vote_type IN (-1, 1)" json:"vote_type"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// Votable is the aggregate view of a post or comment after a vote.
type Votable struct {
	Kind      TargetKind `json:"kind"`
	ID        int        `json:"id"`
	Title     string     `json:"title,omitempty"`
	Body      string     `json:"body"`
	Upvotes   int        `json:"upvotes"`
	Downvotes int        `json:"downvotes"`
	Score     int        `json:"score"`
}

func (v Votable) String() string {
	return fmt.Sprintf("%s#%d (+%d/-%d)", v.Kind, v.ID, v.Upvotes, v.Downvotes)
}

// VoteRequest accepts both vote_type and the older voteType spelling.
type VoteRequest struct {
	VoteType  int `json:"vote_type"`
	LegacyVal int `json:"voteType"`
}

func (r VoteRequest) Value() VoteType {
	if r.VoteType != 0 {
		return VoteType(r.VoteType)
	}
	return VoteType(r.LegacyVal)
}
