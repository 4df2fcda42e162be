package database

import (
	"context"

	"gorm.io/gorm"

	"github.com/emilythestrangee/forum/backend/internal/models"
	"github.com/emilythestrangee/forum/backend/internal/threads"
)

// CommentStore feeds the thread assembler.
type CommentStore struct {
	db *gorm.DB
}

func NewCommentStore(db *gorm.DB) *CommentStore {
	return &CommentStore{db: db}
}

var _ threads.Source = (*CommentStore)(nil)

func (s *CommentStore) ListCommentsForPost(ctx context.Context, postID int) ([]models.Comment, error) {
	var comments []models.Comment
	err := CommentsWithAuthor(s.db.WithContext(ctx)).
		Where("comments.post_id = ?", postID).
		Order("comments.created_at, comments.id").
		Find(&comments).Error
	return comments, err
}

// CommentsWithAuthor selects comments joined with the author's username.
func CommentsWithAuthor(db *gorm.DB) *gorm.DB {
	return db.Model(&models.Comment{}).
		Select("comments.*, users.username AS author").
		Joins("JOIN users ON users.id = comments.author_id")
}

// PostsWithDetails selects posts with author, community name and comment count.
func PostsWithDetails(db *gorm.DB) *gorm.DB {
	return db.Model(&models.Post{}).
		Select(`posts.*, users.username AS author, COALESCE(communities.name, '') AS community,
			(SELECT COUNT(*) FROM comments WHERE comments.post_id = posts.id) AS comment_count`).
		Joins("JOIN users ON users.id = posts.author_id").
		Joins("LEFT JOIN communities ON communities.id = posts.community_id")
}

// CommunitiesWithMembers selects communities with their member count.
func CommunitiesWithMembers(db *gorm.DB) *gorm.DB {
	return db.Model(&models.Community{}).
		Select("communities.*, (SELECT COUNT(*) FROM memberships WHERE memberships.community_id = communities.id) AS member_count")
}
