package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/emilythestrangee/forum/backend/internal/auth"
	"github.com/emilythestrangee/forum/backend/internal/middleware"
	"github.com/emilythestrangee/forum/backend/internal/threads"
	"github.com/emilythestrangee/forum/backend/internal/voting"
)

// Handler combines all handler types
type Handler struct {
	Auth      *AuthHandler
	Post      *PostHandler
	Comment   *CommentHandler
	Community *CommunityHandler
	User      *UserHandler
	Vote      *VoteHandler
}

// CommentObserver is told about every created comment.
type CommentObserver interface {
	CommentCreated()
}

type Deps struct {
	DB        *gorm.DB
	Tokens    *auth.Tokens
	Ledger    *voting.Ledger
	Assembler *threads.Assembler
	Comments  CommentObserver
	Log       *zap.Logger
}

// NewHandler creates a unified handler with all sub-handlers
func NewHandler(d Deps) *Handler {
	return &Handler{
		Auth:      NewAuthHandler(d.DB, d.Tokens, d.Log),
		Post:      NewPostHandler(d.DB, d.Log),
		Comment:   NewCommentHandler(d.DB, d.Assembler, d.Comments, d.Log),
		Community: NewCommunityHandler(d.DB, d.Log),
		User:      NewUserHandler(d.DB, d.Log),
		Vote:      NewVoteHandler(d.Ledger),
	}
}

func paramID(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return 0, false
	}
	return id, true
}

func currentUser(c *gin.Context) (int, bool) {
	id, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
	}
	return id, ok
}

// paging reads limit/offset with defaults 10/0 and caps limit at 100.
func paging(c *gin.Context) (limit, offset int) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if err != nil || limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	offset, err = strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}
	return limit, offset
}

func serverError(c *gin.Context, log *zap.Logger, msg string, err error) {
	log.Error(msg, zap.Error(err), zap.String("request_id", c.GetString("request_id")))
	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
}
