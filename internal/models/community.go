package models

import "time"

type Community struct {
	ID          int       `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:50;uniqueIndex;not null" json:"name"`
	Description string    `json:"description"`
	CreatorID   int       `gorm:"not null" json:"creator_id"`
	MemberCount int       `gorm:"->;-:migration" json:"member_count"`
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
}

// Membership links a user to a community. The pair is unique.
type Membership struct {
	ID          int       `gorm:"primaryKey" json:"id"`
	CommunityID int       `gorm:"not null;uniqueIndex:idx_memberships_pair,priority:1" json:"community_id"`
	UserID      int       `gorm:"not null;uniqueIndex:idx_memberships_pair,priority:2" json:"user_id"`
	CreatedAt   time.Time `json:"created_at"`
}

type CreateCommunityRequest struct {
	Name        string `json:"name" binding:"required,min=3,max=50"`
	Description string `json:"description"`
}
