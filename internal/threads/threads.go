// Package threads lays out the comments of a post for the client.
package threads

import (
	"context"
	"fmt"
	"sort"

	"github.com/emilythestrangee/forum/backend/internal/models"
)

// Source loads every comment of a post joined with its author's username.
type Source interface {
	ListCommentsForPost(ctx context.Context, postID int) ([]models.Comment, error)
}

type Assembler struct {
	source Source
}

func NewAssembler(source Source) *Assembler {
	return &Assembler{source: source}
}

// ListComments returns the post's comments in thread order. An unknown post
// yields an empty, non-nil slice.
func (a *Assembler) ListComments(ctx context.Context, postID int) ([]models.Comment, error) {
	comments, err := a.source.ListCommentsForPost(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("list comments for post %d: %w", postID, err)
	}
	if comments == nil {
		return []models.Comment{}, nil
	}
	Order(comments)
	return comments, nil
}

// Order sorts comments in place by the two conditional keys
//
//	CASE WHEN parent IS NULL     THEN created_at END DESC NULLS FIRST,
//	CASE WHEN parent IS NOT NULL THEN created_at END ASC  NULLS LAST,
//	id ASC
//
// Replies therefore come first, oldest to newest, followed by roots from
// newest to oldest. Clients regroup by parent_comment_id.
func Order(comments []models.Comment) {
	sort.SliceStable(comments, func(i, j int) bool {
		return less(&comments[i], &comments[j])
	})
}

func less(a, b *models.Comment) bool {
	// First key: a NULL (reply) outranks any root timestamp in DESC order.
	switch {
	case !a.IsRoot() && b.IsRoot():
		return true
	case a.IsRoot() && !b.IsRoot():
		return false
	case a.IsRoot() && b.IsRoot():
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
	default:
		// Second key only differs between replies.
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
	}
	return a.ID < b.ID
}
