package models

import (
	"time"

	"gorm.io/gorm"
)

type Post struct {
	ID           int            `gorm:"primaryKey" json:"id"`
	Title        string         `gorm:"size:300;not null" json:"title"`
	Body         string         `json:"body"`
	AuthorID     int            `gorm:"not null;index" json:"author_id"`
	Author       string         `gorm:"->;-:migration" json:"author"`
	CommunityID  *int           `gorm:"index" json:"community_id,omitempty"`
	Community    string         `gorm:"->;-:migration" json:"community,omitempty"`
	CommentCount int            `gorm:"->;-:migration" json:"comment_count"`
	Upvotes      int            `gorm:"not null;default:0" json:"upvotes"`
	Downvotes    int            `gorm:"not null;default:0" json:"downvotes"`
	CreatedAt    time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

func (p *Post) Votable() *Votable {
	return &Votable{
		Kind:      TargetPost,
		ID:        p.ID,
		Title:     p.Title,
		Body:      p.Body,
		Upvotes:   p.Upvotes,
		Downvotes: p.Downvotes,
		Score:     p.Upvotes - p.Downvotes,
	}
}

type CreatePostRequest struct {
	Title       string `json:"title" binding:"required,max=300"`
	Body        string `json:"body"`
	CommunityID *int   `json:"community_id"`
}

type UpdatePostRequest struct {
	Title string `json:"title" binding:"max=300"`
	Body  string `json:"body"`
}
