package handlers

import (
	"time"

	"github.com/askhub-io/backend/internal/database"
	"github.com/askhub-io/backend/internal/logger"
	"github.com/askhub-io/backend/internal/models"
	"github.com/askhub-io/backend/internal/util"
	"github.com/gin-gonic/gin"
)

// AdminListReports returns moderation reports, pending first
// GET /api/admin/reports
func (h *Handlers) AdminListReports(c *gin.Context) {
	page, limit, offset := util.ParsePagination(c.Query("page"), c.Query("limit"), 20, 100)

	query := database.DB.Model(&models.Report{})
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		util.RespondInternalError(c, "failed to count reports")
		return
	}

	var reports []models.Report
	err := query.
		Preload("Reporter").
		Order("CASE WHEN status = 'pending' THEN 0 ELSE 1 END, created_at DESC").
		Limit(limit).Offset(offset).
		Find(&reports).Error
	if err != nil {
		util.RespondInternalError(c, "failed to list reports")
		return
	}

	util.RespondSuccess(c, gin.H{
		"reports": reports,
		"page":    page,
		"limit":   limit,
		"total":   total,
	})
}

// AdminResolveReport resolves or dismisses a report
// POST /api/admin/reports/:id/resolve
func (h *Handlers) AdminResolveReport(c *gin.Context) {
	adminID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	reportID := c.Param("id")
	if !util.IsValidUUID(reportID) {
		util.RespondValidationError(c, "id", "must be a valid UUID")
		return
	}

	var req struct {
		Status      string `json:"status" binding:"required,oneof=resolved dismissed"`
		ActionTaken string `json:"action_taken" binding:"max=2000"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	var report models.Report
	if err := database.DB.First(&report, "id = ?", reportID).Error; err != nil {
		util.RespondNotFound(c, "report")
		return
	}

	if report.Status != models.ReportStatusPending {
		util.RespondConflict(c, "report")
		return
	}

	updates := map[string]interface{}{
		"status":       req.Status,
		"moderator_id": adminID,
		"action_taken": req.ActionTaken,
	}
	if err := database.DB.Model(&report).Updates(updates).Error; err != nil {
		util.RespondInternalError(c, "failed to resolve report")
		return
	}

	util.RespondSuccess(c, report)
}

// AdminBanUser bans a user and records the reason
// POST /api/admin/users/:id/ban
func (h *Handlers) AdminBanUser(c *gin.Context) {
	adminID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	userID := c.Param("id")
	if !util.IsValidUUID(userID) {
		util.RespondValidationError(c, "id", "must be a valid UUID")
		return
	}

	var req struct {
		Reason string `json:"reason" binding:"required,min=3,max=500"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	var user models.User
	if err := database.DB.First(&user, "id = ?", userID).Error; err != nil {
		util.RespondNotFound(c, "user")
		return
	}

	if user.ID == adminID {
		util.RespondBadRequest(c, "cannot ban yourself")
		return
	}
	if user.IsAdmin {
		util.RespondForbidden(c, "cannot ban another admin")
		return
	}
	if user.IsBanned {
		util.RespondConflict(c, "ban")
		return
	}

	now := time.Now()
	updates := map[string]interface{}{
		"is_banned":  true,
		"ban_reason": req.Reason,
		"banned_at":  now,
	}
	if err := database.DB.Model(&user).Updates(updates).Error; err != nil {
		util.RespondInternalError(c, "failed to ban user")
		return
	}

	logger.InfoWithFields("User banned",
		logger.WithUserID(userID),
	)
	h.notifier.ModAction(userID, "Your account has been banned: "+req.Reason, "user", userID)

	util.RespondMessage(c, "user banned")
}

// AdminUnbanUser lifts a ban
// POST /api/admin/users/:id/unban
func (h *Handlers) AdminUnbanUser(c *gin.Context) {
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

	if !user.IsBanned {
		util.RespondConflict(c, "unban")
		return
	}

	updates := map[string]interface{}{
		"is_banned":  false,
		"ban_reason": "",
		"banned_at":  nil,
	}
	if err := database.DB.Model(&user).Updates(updates).Error; err != nil {
		util.RespondInternalError(c, "failed to unban user")
		return
	}

	util.RespondMessage(c, "user unbanned")
}

// AdminDeleteQuestion removes a question as a moderation action
// DELETE /api/admin/questions/:id
func (h *Handlers) AdminDeleteQuestion(c *gin.Context) {
	questionID := c.Param("id")
	if !util.IsValidUUID(questionID) {
		util.RespondValidationError(c, "id", "must be a valid UUID")
		return
	}

	var question models.Question
	if err := database.DB.Where("id = ? AND is_deleted = false", questionID).First(&question).Error; err != nil {
		util.RespondNotFound(c, "question")
		return
	}

	if err := database.DB.Model(&question).Update("is_deleted", true).Error; err != nil {
		util.RespondInternalError(c, "failed to delete question")
		return
	}

	h.responseCache.InvalidatePrefix(cacheQuestions)
	h.notifier.ModAction(question.AuthorID, "Your question was removed by a moderator", "question", questionID)

	util.RespondMessage(c, "question removed")
}

// AdminDeleteAnswer removes an answer as a moderation action
// DELETE /api/admin/answers/:id
func (h *Handlers) AdminDeleteAnswer(c *gin.Context) {
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

	updates := map[string]interface{}{
		"is_deleted":  true,
		"is_accepted": false,
	}
	if err := database.DB.Model(&answer).Updates(updates).Error; err != nil {
		util.RespondInternalError(c, "failed to delete answer")
		return
	}

	h.responseCache.InvalidatePrefix(cacheQuestions)
	h.notifier.ModAction(answer.AuthorID, "Your answer was removed by a moderator", "answer", answerID)

	util.RespondMessage(c, "answer removed")
}
