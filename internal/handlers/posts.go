package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/emilythestrangee/forum/backend/internal/database"
	"github.com/emilythestrangee/forum/backend/internal/models"
)

type PostHandler struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewPostHandler(db *gorm.DB, log *zap.Logger) *PostHandler {
	return &PostHandler{db: db, log: log}
}

func (h *PostHandler) load(c *gin.Context, id int) (*models.Post, error) {
	var post models.Post
	err := database.PostsWithDetails(h.db.WithContext(c.Request.Context())).
		Where("posts.id = ?", id).
		First(&post).Error
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// GetPosts returns posts newest first, paged by limit/offset.
func (h *PostHandler) GetPosts(c *gin.Context) {
	limit, offset := paging(c)

	posts := []models.Post{}
	err := database.PostsWithDetails(h.db.WithContext(c.Request.Context())).
		Order("posts.created_at desc, posts.id desc").
		Limit(limit).Offset(offset).
		Find(&posts).Error
	if err != nil {
		serverError(c, h.log, "Failed to fetch posts", err)
		return
	}

	c.JSON(http.StatusOK, posts)
}

// GetPost returns a single post by ID
func (h *PostHandler) GetPost(c *gin.Context) {
	postID, ok := paramID(c, "id")
	if !ok {
		return
	}

	post, err := h.load(c, postID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		return
	}
	if err != nil {
		serverError(c, h.log, "Failed to fetch post", err)
		return
	}

	c.JSON(http.StatusOK, post)
}

// CreatePost creates a new post (PROTECTED - requires authentication)
func (h *PostHandler) CreatePost(c *gin.Context) {
	authorID, ok := currentUser(c)
	if !ok {
		return
	}

	var input models.CreatePostRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Title is required"})
		return
	}

	db := h.db.WithContext(c.Request.Context())
	if input.CommunityID != nil {
		var community models.Community
		if err := db.Select("id").First(&community, *input.CommunityID).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Community not found"})
			return
		}
	}

	post := models.Post{
		Title:       input.Title,
		Body:        input.Body,
		AuthorID:    authorID,
		CommunityID: input.CommunityID,
	}
	if err := db.Create(&post).Error; err != nil {
		serverError(c, h.log, "Failed to create post", err)
		return
	}

	created, err := h.load(c, post.ID)
	if err != nil {
		serverError(c, h.log, "Failed to fetch post", err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// ownedPost loads the post and checks the caller wrote it.
func (h *PostHandler) ownedPost(c *gin.Context, action string) (*models.Post, bool) {
	postID, ok := paramID(c, "id")
	if !ok {
		return nil, false
	}
	userID, ok := currentUser(c)
	if !ok {
		return nil, false
	}

	var post models.Post
	err := h.db.WithContext(c.Request.Context()).First(&post, postID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		return nil, false
	}
	if err != nil {
		serverError(c, h.log, "Failed to fetch post", err)
		return nil, false
	}

	if post.AuthorID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "You can only " + action + " your own posts"})
		return nil, false
	}
	return &post, true
}

// UpdatePost updates an existing post (PROTECTED - requires ownership)
func (h *PostHandler) UpdatePost(c *gin.Context) {
	var input models.UpdatePostRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	post, ok := h.ownedPost(c, "edit")
	if !ok {
		return
	}

	updates := map[string]interface{}{}
	if input.Title != "" {
		updates["title"] = input.Title
	}
	if input.Body != "" {
		updates["body"] = input.Body
	}
	if len(updates) > 0 {
		if err := h.db.WithContext(c.Request.Context()).Model(post).Updates(updates).Error; err != nil {
			serverError(c, h.log, "Failed to update post", err)
			return
		}
	}

	updated, err := h.load(c, post.ID)
	if err != nil {
		serverError(c, h.log, "Failed to fetch post", err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// DeletePost soft-deletes a post. Its votes and comments stay in place.
func (h *PostHandler) DeletePost(c *gin.Context) {
	post, ok := h.ownedPost(c, "delete")
	if !ok {
		return
	}

	if err := h.db.WithContext(c.Request.Context()).Delete(post).Error; err != nil {
		serverError(c, h.log, "Failed to delete post", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Post deleted successfully"})
}
