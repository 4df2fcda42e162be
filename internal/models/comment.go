package models

import "time"

// DeletedBody replaces the body of a tombstoned comment.
const DeletedBody = "[deleted]"

type Comment struct {
	ID              int       `gorm:"primaryKey" json:"id"`
	Body            string    `gorm:"not null" json:"body"`
	AuthorID        int       `gorm:"not null" json:"author_id"`
	Author          string    `gorm:"->;-:migration" json:"author"`
	PostID          int       `gorm:"not null;index" json:"post_id"`
	ParentCommentID *int      `gorm:"index" json:"parent_comment_id"`
	Upvotes         int       `gorm:"not null;default:0" json:"upvotes"`
	Downvotes       int       `gorm:"not null;default:0" json:"downvotes"`
	Deleted         bool      `gorm:"not null;default:false" json:"deleted"`
	CreatedAt       time.Time `gorm:"index" json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// IsRoot reports whether the comment sits directly under its post.
func (c *Comment) IsRoot() bool {
	return c.ParentCommentID == nil
}

func (c *Comment) Votable() *Votable {
	return &Votable{
		Kind:      TargetComment,
		ID:        c.ID,
		Body:      c.Body,
		Upvotes:   c.Upvotes,
		Downvotes: c.Downvotes,
		Score:     c.Upvotes - c.Downvotes,
	}
}

type CreateCommentRequest struct {
	Body            string `json:"body" binding:"required"`
	ParentCommentID *int   `json:"parent_comment_id,omitempty"`
}

type UpdateCommentRequest struct {
	Body string `json:"body" binding:"required"`
}
