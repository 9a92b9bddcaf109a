package handlers

import (
	"time"

	"github.com/askhub-io/backend/internal/database"
	"github.com/askhub-io/backend/internal/models"
	"github.com/askhub-io/backend/internal/util"
	"github.com/gin-gonic/gin"
)

// GetNotifications returns the authenticated user's notifications, newest first
// GET /api/notifications
func (h *Handlers) GetNotifications(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	page, limit, offset := util.ParsePagination(c.Query("page"), c.Query("limit"), 20, 100)

	query := database.DB.Model(&models.Notification{}).Where("user_id = ?", userID)
	if c.Query("unread") == "true" {
		query = query.Where("is_read = false")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		util.RespondInternalError(c, "failed to count notifications")
		return
	}

	var notifications []models.Notification
	err := query.
		Preload("Actor").
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&notifications).Error
	if err != nil {
		util.RespondInternalError(c, "failed to list notifications")
		return
	}

	util.RespondSuccess(c, gin.H{
		"notifications": notifications,
		"page":          page,
		"limit":         limit,
		"total":         total,
	})
}

// GetNotificationCounts returns the unread notification count
// GET /api/notifications/counts
func (h *Handlers) GetNotificationCounts(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var unread int64
	err := database.DB.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = false", userID).
		Count(&unread).Error
	if err != nil {
		util.RespondInternalError(c, "failed to count notifications")
		return
	}

	util.RespondSuccess(c, gin.H{"unread": unread})
}

// MarkNotificationsRead marks the given notifications (or all) as read
// POST /api/notifications/read
func (h *Handlers) MarkNotificationsRead(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req struct {
		IDs []string `json:"ids"`
		All bool     `json:"all"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	if !req.All && len(req.IDs) == 0 {
		util.RespondBadRequest(c, "provide ids or all=true")
		return
	}

	now := time.Now()
	query := database.DB.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = false", userID)
	if !req.All {
		for _, id := range req.IDs {
			if !util.IsValidUUID(id) {
				util.RespondValidationError(c, "ids", "must be valid UUIDs")
				return
			}
		}
		query = query.Where("id IN ?", req.IDs)
	}

	result := query.Updates(map[string]interface{}{"is_read": true, "read_at": now})
	if result.Error != nil {
		util.RespondInternalError(c, "failed to mark notifications read")
		return
	}

	util.RespondSuccessWithMessage(c, "notifications marked read", gin.H{"updated": result.RowsAffected})
}
