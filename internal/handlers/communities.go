package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/emilythestrangee/forum/backend/internal/database"
	"github.com/emilythestrangee/forum/backend/internal/models"
)

type CommunityHandler struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewCommunityHandler(db *gorm.DB, log *zap.Logger) *CommunityHandler {
	return &CommunityHandler{db: db, log: log}
}

func (h *CommunityHandler) respondOne(c *gin.Context, query *gorm.DB) {
	var community models.Community
	err := query.First(&community).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Community not found"})
		return
	}
	if err != nil {
		serverError(c, h.log, "Failed to fetch community", err)
		return
	}
	c.JSON(http.StatusOK, community)
}

func (h *CommunityHandler) GetCommunities(c *gin.Context) {
	limit, offset := paging(c)

	communities := []models.Community{}
	err := database.CommunitiesWithMembers(h.db.WithContext(c.Request.Context())).
		Order("communities.created_at desc, communities.id desc").
		Limit(limit).Offset(offset).
		Find(&communities).Error
	if err != nil {
		serverError(c, h.log, "Failed to fetch communities", err)
		return
	}
	c.JSON(http.StatusOK, communities)
}

func (h *CommunityHandler) GetCommunity(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	h.respondOne(c, database.CommunitiesWithMembers(h.db.WithContext(c.Request.Context())).Where("communities.id = ?", id))
}

func (h *CommunityHandler) GetCommunityByName(c *gin.Context) {
	h.respondOne(c, database.CommunitiesWithMembers(h.db.WithContext(c.Request.Context())).Where("communities.name = ?", c.Param("name")))
}

// CreateCommunity creates a community owned by the caller
func (h *CommunityHandler) CreateCommunity(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var input models.CreateCommunityRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	db := h.db.WithContext(c.Request.Context())

	var existing models.Community
	if err := db.Where("name = ?", input.Name).First(&existing).Error; err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Community name already taken"})
		return
	}

	community := models.Community{
		Name:        input.Name,
		Description: input.Description,
		CreatorID:   userID,
	}
	if err := db.Create(&community).Error; err != nil {
		if database.IsDuplicate(err) {
			c.JSON(http.StatusConflict, gin.H{"error": "Community name already taken"})
			return
		}
		serverError(c, h.log, "Failed to create community", err)
		return
	}
	c.JSON(http.StatusCreated, community)
}

func (h *CommunityHandler) exists(c *gin.Context) (int, bool) {
	id, ok := paramID(c, "id")
	if !ok {
		return 0, false
	}
	var community models.Community
	err := h.db.WithContext(c.Request.Context()).Select("id").First(&community, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Community not found"})
		return 0, false
	}
	if err != nil {
		serverError(c, h.log, "Failed to fetch community", err)
		return 0, false
	}
	return id, true
}

// JoinCommunity adds the caller as a member. Joining twice is a no-op.
func (h *CommunityHandler) JoinCommunity(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	communityID, ok := h.exists(c)
	if !ok {
		return
	}

	membership := models.Membership{CommunityID: communityID, UserID: userID}
	err := h.db.WithContext(c.Request.Context()).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&membership).Error
	if err != nil {
		serverError(c, h.log, "Failed to join community", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Joined community"})
}

func (h *CommunityHandler) LeaveCommunity(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	communityID, ok := h.exists(c)
	if !ok {
		return
	}

	err := h.db.WithContext(c.Request.Context()).
		Where("community_id = ? AND user_id = ?", communityID, userID).
		Delete(&models.Membership{}).Error
	if err != nil {
		serverError(c, h.log, "Failed to leave community", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Left community"})
}

// GetCommunityPosts lists a community's posts newest first
func (h *CommunityHandler) GetCommunityPosts(c *gin.Context) {
	communityID, ok := h.exists(c)
	if !ok {
		return
	}
	limit, offset := paging(c)

	posts := []models.Post{}
	err := database.PostsWithDetails(h.db.WithContext(c.Request.Context())).
		Where("posts.community_id = ?", communityID).
		Order("posts.created_at desc, posts.id desc").
		Limit(limit).Offset(offset).
		Find(&posts).Error
	if err != nil {
		serverError(c, h.log, "Failed to fetch posts", err)
		return
	}
	c.JSON(http.StatusOK, posts)
}
