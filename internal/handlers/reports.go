package handlers

import (
	"github.com/askhub-io/backend/internal/database"
	"github.com/askhub-io/backend/internal/models"
	"github.com/askhub-io/backend/internal/util"
	"github.com/gin-gonic/gin"
)

// CreateReport files a moderation report against content or a user
// POST /api/reports
func (h *Handlers) CreateReport(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req struct {
		TargetType  string `json:"target_type" binding:"required,oneof=question answer comment user"`
		TargetID    string `json:"target_id" binding:"required"`
		Reason      string `json:"reason" binding:"required,oneof=spam harassment inappropriate misleading other"`
		Description string `json:"description" binding:"max=2000"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	if !util.IsValidUUID(req.TargetID) {
		util.RespondValidationError(c, "target_id", "must be a valid UUID")
		return
	}

	targetUserID, ok := resolveReportTarget(c, req.TargetType, req.TargetID)
	if !ok {
		return
	}

	// One open report per reporter and target
	var existing models.Report
	err := database.DB.
		Where("reporter_id = ? AND target_type = ? AND target_id = ? AND status = ?",
			userID, req.TargetType, req.TargetID, models.ReportStatusPending).
		First(&existing).Error
	if err == nil {
		util.RespondConflict(c, "report")
		return
	}

	report := models.Report{
		ReporterID:   userID,
		TargetType:   models.ReportTargetType(req.TargetType),
		TargetID:     req.TargetID,
		TargetUserID: targetUserID,
		Reason:       models.ReportReason(req.Reason),
		Description:  req.Description,
		Status:       models.ReportStatusPending,
	}

	if err := database.DB.Create(&report).Error; err != nil {
		util.RespondInternalError(c, "failed to create report")
		return
	}

	util.RespondCreated(c, report)
}

// resolveReportTarget verifies the reported target exists and returns
// the ID of the user who authored it
func resolveReportTarget(c *gin.Context, targetType, targetID string) (*string, bool) {
	switch models.ReportTargetType(targetType) {
	case models.ReportTargetQuestion:
		var question models.Question
		if err := database.DB.First(&question, "id = ?", targetID).Error; err != nil {
			util.RespondNotFound(c, "question")
			return nil, false
		}
		return &question.AuthorID, true
	case models.ReportTargetAnswer:
		var answer models.Answer
		if err := database.DB.First(&answer, "id = ?", targetID).Error; err != nil {
			util.RespondNotFound(c, "answer")
			return nil, false
		}
		return &answer.AuthorID, true
	case models.ReportTargetComment:
		var comment models.Comment
		if err := database.DB.First(&comment, "id = ?", targetID).Error; err != nil {
			util.RespondNotFound(c, "comment")
			return nil, false
		}
		return &comment.AuthorID, true
	case models.ReportTargetUser:
		var user models.User
		if err := database.DB.First(&user, "id = ?", targetID).Error; err != nil {
			util.RespondNotFound(c, "user")
			return nil, false
		}
		return &user.ID, true
	}
	util.RespondValidationError(c, "target_type", "invalid target type")
	return nil, false
}
