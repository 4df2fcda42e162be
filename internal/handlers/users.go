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

type UserHandler struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewUserHandler(db *gorm.DB, log *zap.Logger) *UserHandler {
	return &UserHandler{db: db, log: log}
}

func (h *UserHandler) find(c *gin.Context) (*models.User, bool) {
	userID, ok := paramID(c, "id")
	if !ok {
		return nil, false
	}
	var user models.User
	err := h.db.WithContext(c.Request.Context()).First(&user, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return nil, false
	}
	if err != nil {
		serverError(c, h.log, "Failed to fetch user", err)
		return nil, false
	}
	return &user, true
}

// GetUserProfile returns a user's profile
func (h *UserHandler) GetUserProfile(c *gin.Context) {
	user, ok := h.find(c)
	if !ok {
		return
	}
	db := h.db.WithContext(c.Request.Context())

	posts := []models.Post{}
	if err := database.PostsWithDetails(db).Where("posts.author_id = ?", user.ID).Order("posts.created_at desc").Find(&posts).Error; err != nil {
		serverError(c, h.log, "Failed to fetch user posts", err)
		return
	}

	var followerCount, followingCount int64
	db.Model(&models.Follow{}).Where("following_id = ?", user.ID).Count(&followerCount)
	db.Model(&models.Follow{}).Where("follower_id = ?", user.ID).Count(&followingCount)

	c.JSON(http.StatusOK, gin.H{
		"user": gin.H{
			"id":       user.ID,
			"username": user.Username,
			"bio":      user.Bio,
			"avatar":   user.Avatar,
		},
		"posts":           posts,
		"follower_count":  followerCount,
		"following_count": followingCount,
	})
}

func (h *UserHandler) UpdateUserProfile(c *gin.Context) {
	authUserID, ok := currentUser(c)
	if !ok {
		return
	}
	user, ok := h.find(c)
	if !ok {
		return
	}
	if user.ID != authUserID {
		c.JSON(http.StatusForbidden, gin.H{"error": "You can only update your own profile"})
		return
	}

	var input models.UpdateProfileRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if input.Bio != "" {
		user.Bio = input.Bio
	}
	if input.Avatar != "" {
		user.Avatar = input.Avatar
	}

	if err := h.db.WithContext(c.Request.Context()).Save(user).Error; err != nil {
		serverError(c, h.log, "Failed to update profile", err)
		return
	}

	c.JSON(http.StatusOK, userJSON(user))
}

// FollowUser follows a user
func (h *UserHandler) FollowUser(c *gin.Context) {
	followerID, ok := currentUser(c)
	if !ok {
		return
	}
	target, ok := h.find(c)
	if !ok {
		return
	}
	if target.ID == followerID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "You cannot follow yourself"})
		return
	}

	follow := models.Follow{FollowerID: followerID, FollowingID: target.ID}
	res := h.db.WithContext(c.Request.Context()).Clauses(clause.OnConflict{DoNothing: true}).Create(&follow)
	if res.Error != nil {
		serverError(c, h.log, "Failed to follow user", res.Error)
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Already following this user"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Successfully followed user"})
}

// UnfollowUser unfollows a user
func (h *UserHandler) UnfollowUser(c *gin.Context) {
	followerID, ok := currentUser(c)
	if !ok {
		return
	}
	followingID, ok := paramID(c, "id")
	if !ok {
		return
	}

	err := h.db.WithContext(c.Request.Context()).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Delete(&models.Follow{}).Error
	if err != nil {
		serverError(c, h.log, "Failed to unfollow", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Successfully unfollowed user"})
}

func (h *UserHandler) listFollows(c *gin.Context, where, preload string, pick func(models.Follow) models.User) {
	userID, ok := paramID(c, "id")
	if !ok {
		return
	}

	var follows []models.Follow
	if err := h.db.WithContext(c.Request.Context()).Where(where, userID).Preload(preload).Find(&follows).Error; err != nil {
		serverError(c, h.log, "Failed to fetch follows", err)
		return
	}

	users := []gin.H{}
	for _, follow := range follows {
		u := pick(follow)
		users = append(users, gin.H{
			"id":       u.ID,
			"username": u.Username,
			"avatar":   u.Avatar,
		})
	}
	c.JSON(http.StatusOK, users)
}

// GetFollowers returns a user's followers
func (h *UserHandler) GetFollowers(c *gin.Context) {
	h.listFollows(c, "following_id = ?", "Follower", func(f models.Follow) models.User { return f.Follower })
}

// GetFollowing returns users that a user is following
func (h *UserHandler) GetFollowing(c *gin.Context) {
	h.listFollows(c, "follower_id = ?", "Following", func(f models.Follow) models.User { return f.Following })
}
