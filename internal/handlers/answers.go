package handlers

import (
	"errors"
	"time"

	"github.com/askhub-io/backend/internal/database"
	"github.com/askhub-io/backend/internal/logger"
	"github.com/askhub-io/backend/internal/models"
	"github.com/askhub-io/backend/internal/util"
	"github.com/askhub-io/backend/internal/voting"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// CreateAnswer posts an answer to a question
// POST /api/questions/:id/answers
func (h *Handlers) CreateAnswer(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	questionID := c.Param("id")
	if !util.IsValidUUID(questionID) {
		util.RespondValidationError(c, "id", "must be a valid UUID")
		return
	}

	var req struct {
		Body string `json:"body" binding:"required,min=20,max=30000"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	var question models.Question
	if err := database.DB.Where("id = ? AND is_deleted = false", questionID).First(&question).Error; err != nil {
		util.RespondNotFound(c, "question")
		return
	}

	answer := models.Answer{
		QuestionID: questionID,
		AuthorID:   userID,
		Body:       req.Body,
	}

	if err := database.DB.Create(&answer).Error; err != nil {
		util.RespondInternalError(c, "failed to create answer")
		return
	}

	if err := database.DB.Model(&question).UpdateColumn("answer_count", gorm.Expr("answer_count + 1")).Error; err != nil {
		logger.WarnWithFields("Failed to increment answer count for question "+questionID, err)
	}
	if err := database.DB.Model(&models.User{}).Where("id = ?", userID).
		UpdateColumn("answer_count", gorm.Expr("answer_count + 1")).Error; err != nil {
		logger.WarnWithFields("Failed to increment answer count for user "+userID, err)
	}

	h.responseCache.InvalidatePrefix(cacheQuestions)
	h.notifier.AnswerPosted(question.AuthorID, userID, questionID)

	if err := database.DB.Preload("Author").First(&answer, "id = ?", answer.ID).Error; err != nil {
		logger.WarnWithFields("Failed to reload answer "+answer.ID, err)
	}

	util.RespondCreated(c, answer)
}

// UpdateAnswer edits an answer's body. Author only.
// PUT /api/answers/:id
func (h *Handlers) UpdateAnswer(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	answerID := c.Param("id")
	if !util.IsValidUUID(answerID) {
		util.RespondValidationError(c, "id", "must be a valid UUID")
		return
	}

	var answer models.Answer
	if err := database.DB.Where("id = ? AND is_deleted = false", answerID).First(&answer).Error; err != nil {
		util.RespondNotFound(c, "answer")
		return
	}

	if answer.AuthorID != userID {
		util.RespondForbidden(c, "only the author can edit this answer")
		return
	}

	var req struct {
		Body string `json:"body" binding:"required,min=20,max=30000"`
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
	if err := database.DB.Model(&answer).Updates(updates).Error; err != nil {
		util.RespondInternalError(c, "failed to update answer")
		return
	}

	util.RespondSuccess(c, answer)
}

// DeleteAnswer soft-deletes an answer. Author only.
// DELETE /api/answers/:id
func (h *Handlers) DeleteAnswer(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	answerID := c.Param("id")
	if !util.IsValidUUID(answerID) {
		util.RespondValidationError(c, "id", "must be a valid UUID")
		return
	}

	var answer models.Answer
	if err := database.DB.Where("id = ? AND is_deleted = false", answerID).First(&answer).Error; err != nil {
		util.RespondNotFound(c, "answer")
		return
	}

	if answer.AuthorID != userID {
		util.RespondForbidden(c, "only the author can delete this answer")
		return
	}

	// A deleted answer cannot stay accepted
	updates := map[string]interface{}{
		"is_deleted":  true,
		"is_accepted": false,
	}
	if err := database.DB.Model(&answer).Updates(updates).Error; err != nil {
		util.RespondInternalError(c, "failed to delete answer")
		return
	}

	if err := database.DB.Model(&models.Question{}).Where("id = ?", answer.QuestionID).
		UpdateColumn("answer_count", gorm.Expr("GREATEST(answer_count - 1, 0)")).Error; err != nil {
		logger.WarnWithFields("Failed to decrement answer count for question "+answer.QuestionID, err)
	}

	h.responseCache.InvalidatePrefix(cacheQuestions)

	util.RespondMessage(c, "answer deleted")
}

// AcceptAnswer toggles acceptance of an answer. Question author only.
// POST /api/answers/:id/accept
func (h *Handlers) AcceptAnswer(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	answerID := c.Param("id")
	if !util.IsValidUUID(answerID) {
		util.RespondValidationError(c, "id", "must be a valid UUID")
		return
	}

	result, err := h.votingService.AcceptAnswer(c.Request.Context(), userID, answerID)
	if err != nil {
		switch {
		case errors.Is(err, voting.ErrAnswerNotFound):
			util.RespondNotFound(c, "answer")
		case errors.Is(err, voting.ErrQuestionNotFound):
			util.RespondNotFound(c, "question")
		case errors.Is(err, voting.ErrNotQuestionAuthor):
			util.RespondForbidden(c, "only the question author can accept an answer")
		default:
			util.RespondInternalError(c, "failed to accept answer")
		}
		return
	}

	h.responseCache.InvalidatePrefix(cacheQuestions)

	if result.Action == voting.ActionAccepted {
		h.notifier.AnswerAccepted(result.AnswerAuthorID, userID, answerID)
	}

	util.RespondSuccess(c, result)
}
