package handlers

import (
	"github.com/askhub-io/backend/internal/database"
	"github.com/askhub-io/backend/internal/models"
	"github.com/askhub-io/backend/internal/util"
	"github.com/gin-gonic/gin"
)

// GetUserProfile returns a user's public profile
// GET /api/users/:id
func (h *Handlers) GetUserProfile(c *gin.Context) {
	userID := c.Param("id")
	if !util.IsValidUUID(userID) {
		util.RespondValidationError(c, "id", "must be a valid UUID")
		return
	}

	var user models.User
	if err := database.DB.First(&user, "id = ?", userID).Error; err != nil {
		util.RespondNotFound(c, "user")
		return
	}

	util.RespondSuccess(c, user)
}

// UpdateProfile updates the authenticated user's profile fields
// PUT /api/users/me
func (h *Handlers) UpdateProfile(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	var req struct {
		DisplayName *string `json:"display_name,omitempty" binding:"omitempty,min=1,max=50"`
		Bio         *string `json:"bio,omitempty" binding:"omitempty,max=500"`
		AvatarURL   *string `json:"avatar_url,omitempty" binding:"omitempty,url"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	updates := map[string]interface{}{}
	if req.DisplayName != nil {
		updates["display_name"] = *req.DisplayName
	}
	if req.Bio != nil {
		updates["bio"] = *req.Bio
	}
	if req.AvatarURL != nil {
		updates["avatar_url"] = *req.AvatarURL
	}

	if len(updates) == 0 {
		util.RespondBadRequest(c, "no fields to update")
		return
	}

	if err := database.DB.Model(user).Updates(updates).Error; err != nil {
		util.RespondInternalError(c, "failed to update profile")
		return
	}

	util.RespondSuccess(c, user)
}

// GetUserQuestions returns a user's questions, newest first
// GET /api/users/:id/questions
func (h *Handlers) GetUserQuestions(c *gin.Context) {
	userID := c.Param("id")
	if !util.IsValidUUID(userID) {
		util.RespondValidationError(c, "id", "must be a valid UUID")
		return
	}

	_, limit, offset := util.ParsePagination(c.Query("page"), c.Query("limit"), 20, 100)

	var questions []models.Question
	err := database.DB.
		Where("author_id = ? AND is_deleted = false", userID).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&questions).Error
	if err != nil {
		util.RespondInternalError(c, "failed to list questions")
		return
	}

	util.RespondSuccess(c, gin.H{"questions": questions})
}

// GetUserAnswers returns a user's answers, newest first
// GET /api/users/:id/answers
func (h *Handlers) GetUserAnswers(c *gin.Context) {
	userID := c.Param("id")
	if !util.IsValidUUID(userID) {
		util.RespondValidationError(c, "id", "must be a valid UUID")
		return
	}

	_, limit, offset := util.ParsePagination(c.Query("page"), c.Query("limit"), 20, 100)

	var answers []models.Answer
	err := database.DB.
		Where("author_id = ? AND is_deleted = false", userID).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&answers).Error
	if err != nil {
		util.RespondInternalError(c, "failed to list answers")
		return
	}

	util.RespondSuccess(c, gin.H{"answers": answers})
}
