package handlers

import (
	"time"

	"github.com/askhub-io/backend/internal/database"
	"github.com/askhub-io/backend/internal/models"
	"github.com/askhub-io/backend/internal/util"
	"github.com/gin-gonic/gin"
)

// commentTarget resolves a comment's target and returns its author ID.
// Responds with an error and returns false when the target is invalid.
func commentTarget(c *gin.Context, targetType, targetID string) (string, bool) {
	switch models.CommentTargetType(targetType) {
	case models.CommentTargetQuestion:
		var question models.Question
		if err := database.DB.Where("id = ? AND is_deleted = false", targetID).First(&question).Error; err != nil {
			util.RespondNotFound(c, "question")
			return "", false
		}
		return question.AuthorID, true
	case models.CommentTargetAnswer:
		var answer models.Answer
		if err := database.DB.Where("id = ? AND is_deleted = false", targetID).First(&answer).Error; err != nil {
			util.RespondNotFound(c, "answer")
			return "", false
		}
		return answer.AuthorID, true
	default:
		util.RespondValidationError(c, "target_type", "must be question or answer")
		return "", false
	}
}

// CreateComment attaches a comment to a question or answer
// POST /api/comments
func (h *Handlers) CreateComment(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req struct {
		TargetType string `json:"target_type" binding:"required,oneof=question answer"`
		TargetID   string `json:"target_id" binding:"required"`
		Body       string `json:"body" binding:"required,min=1,max=2000"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	if !util.IsValidUUID(req.TargetID) {
		util.RespondValidationError(c, "target_id", "must be a valid UUID")
		return
	}

	targetAuthorID, ok := commentTarget(c, req.TargetType, req.TargetID)
	if !ok {
		return
	}

	comment := models.Comment{
		AuthorID:   userID,
		TargetType: models.CommentTargetType(req.TargetType),
		TargetID:   req.TargetID,
		Body:       req.Body,
	}

	if err := database.DB.Create(&comment).Error; err != nil {
		util.RespondInternalError(c, "failed to create comment")
		return
	}

	h.notifier.CommentPosted(targetAuthorID, userID, req.TargetType, req.TargetID)

	util.RespondCreated(c, comment)
}

// ListComments returns the comments on a question or answer, oldest first
// GET /api/comments?target_type=question&target_id=...
func (h *Handlers) ListComments(c *gin.Context) {
	targetType := c.Query("target_type")
	targetID := c.Query("target_id")

	if targetType != string(models.CommentTargetQuestion) && targetType != string(models.CommentTargetAnswer) {
		util.RespondValidationError(c, "target_type", "must be question or answer")
		return
	}
	if !util.IsValidUUID(targetID) {
		util.RespondValidationError(c, "target_id", "must be a valid UUID")
		return
	}

	var comments []models.Comment
	err := database.DB.
		Where("target_type = ? AND target_id = ? AND is_deleted = false", targetType, targetID).
		Preload("Author").
		Order("created_at ASC").
		Find(&comments).Error
	if err != nil {
		util.RespondInternalError(c, "failed to list comments")
		return
	}

	util.RespondSuccess(c, gin.H{"comments": comments})
}

// UpdateComment edits a comment's body. Author only.
// PUT /api/comments/:id
func (h *Handlers) UpdateComment(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	commentID := c.Param("id")
	if !util.IsValidUUID(commentID) {
		util.RespondValidationError(c, "id", "must be a valid UUID")
		return
	}

	var comment models.Comment
	if err := database.DB.Where("id = ? AND is_deleted = false", commentID).First(&comment).Error; err != nil {
		util.RespondNotFound(c, "comment")
		return
	}

	if comment.AuthorID != userID {
		util.RespondForbidden(c, "only the author can edit this comment")
		return
	}

	var req struct {
		Body string `json:"body" binding:"required,min=1,max=2000"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	now := time.Now()
	updates := map[string]interface{}{
		"body":      req.Body,
		"is_edited": true,
		"edited_at": now,
	}
	if err := database.DB.Model(&comment).Updates(updates).Error; err != nil {
		util.RespondInternalError(c, "failed to update comment")
		return
	}

	util.RespondSuccess(c, comment)
}

// DeleteComment soft-deletes a comment. Author only.
// DELETE /api/comments/:id
func (h *Handlers) DeleteComment(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	commentID := c.Param("id")
	if !util.IsValidUUID(commentID) {
		util.RespondValidationError(c, "id", "must be a valid UUID")
		return
	}

	var comment models.Comment
	if err := database.DB.Where("id = ? AND is_deleted = false", commentID).First(&comment).Error; err != nil {
		util.RespondNotFound(c, "comment")
		return
	}

	if comment.AuthorID != userID {
		util.RespondForbidden(c, "only the author can delete this comment")
		return
	}

	if err := database.DB.Model(&comment).Update("is_deleted", true).Error; err != nil {
		util.RespondInternalError(c, "failed to delete comment")
		return
	}

	util.RespondMessage(c, "comment deleted")
}
