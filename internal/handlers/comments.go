package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/emilythestrangee/forum/backend/internal/database"
	"github.com/emilythestrangee/forum/backend/internal/models"
	"github.com/emilythestrangee/forum/backend/internal/threads"
)

type CommentHandler struct {
	db        *gorm.DB
	assembler *threads.Assembler
	observer  CommentObserver
	log       *zap.Logger
}

func NewCommentHandler(db *gorm.DB, assembler *threads.Assembler, observer CommentObserver, log *zap.Logger) *CommentHandler {
	return &CommentHandler{db: db, assembler: assembler, observer: observer, log: log}
}

func (h *CommentHandler) load(c *gin.Context, id int) (*models.Comment, error) {
	var comment models.Comment
	err := database.CommentsWithAuthor(h.db.WithContext(c.Request.Context())).
		Where("comments.id = ?", id).
		First(&comment).Error
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

// GetComments returns a post's comments in thread order, or nested with ?view=tree.
func (h *CommentHandler) GetComments(c *gin.Context) {
	postID, ok := paramID(c, "id")
	if !ok {
		return
	}

	comments, err := h.assembler.ListComments(c.Request.Context(), postID)
	if err != nil {
		serverError(c, h.log, "Failed to fetch comments", err)
		return
	}

	if c.Query("view") == "tree" {
		c.JSON(http.StatusOK, threads.Tree(comments))
		return
	}
	c.JSON(http.StatusOK, comments)
}

// CreateComment creates a new comment or reply on a post
func (h *CommentHandler) CreateComment(c *gin.Context) {
	postID, ok := paramID(c, "id")
	if !ok {
		return
	}
	authorID, ok := currentUser(c)
	if !ok {
		return
	}

	var input models.CreateCommentRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	db := h.db.WithContext(c.Request.Context())

	var post models.Post
	if err := db.Select("id").First(&post, postID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
			return
		}
		serverError(c, h.log, "Failed to fetch post", err)
		return
	}

	if input.ParentCommentID != nil {
		var parent models.Comment
		err := db.Select("id", "post_id").First(&parent, *input.ParentCommentID).Error
		if err != nil || parent.PostID != post.ID {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Parent comment must belong to the same post"})
			return
		}
	}

	comment := models.Comment{
		Body:            input.Body,
		PostID:          post.ID,
		AuthorID:        authorID,
		ParentCommentID: input.ParentCommentID,
	}
	if err := db.Create(&comment).Error; err != nil {
		serverError(c, h.log, "Failed to create comment", err)
		return
	}
	if h.observer != nil {
		h.observer.CommentCreated()
	}

	created, err := h.load(c, comment.ID)
	if err != nil {
		serverError(c, h.log, "Failed to fetch comment", err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *CommentHandler) ownedComment(c *gin.Context, action string) (*models.Comment, bool) {
	commentID, ok := paramID(c, "commentId")
	if !ok {
		return nil, false
	}
	userID, ok := currentUser(c)
	if !ok {
		return nil, false
	}

	var comment models.Comment
	err := h.db.WithContext(c.Request.Context()).First(&comment, commentID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && comment.Deleted) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Comment not found"})
		return nil, false
	}
	if err != nil {
		serverError(c, h.log, "Failed to fetch comment", err)
		return nil, false
	}

	if comment.AuthorID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "You can only " + action + " your own comments"})
		return nil, false
	}
	return &comment, true
}

// UpdateComment updates a comment (owner only)
func (h *CommentHandler) UpdateComment(c *gin.Context) {
	var input models.UpdateCommentRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	comment, ok := h.ownedComment(c, "edit")
	if !ok {
		return
	}

	if err := h.db.WithContext(c.Request.Context()).Model(comment).Update("body", input.Body).Error; err != nil {
		serverError(c, h.log, "Failed to update comment", err)
		return
	}

	updated, err := h.load(c, comment.ID)
	if err != nil {
		serverError(c, h.log, "Failed to fetch comment", err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// DeleteComment tombstones a comment. The row, its replies and its votes stay.
func (h *CommentHandler) DeleteComment(c *gin.Context) {
	comment, ok := h.ownedComment(c, "delete")
	if !ok {
		return
	}

	err := h.db.WithContext(c.Request.Context()).Model(comment).Updates(map[string]interface{}{
		"deleted": true,
		"body":    models.DeletedBody,
	}).Error
	if err != nil {
		serverError(c, h.log, "Failed to delete comment", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Comment deleted successfully"})
}
