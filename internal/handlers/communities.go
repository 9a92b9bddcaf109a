package handlers

import (
	"fmt"

	"github.com/askhub-io/backend/internal/database"
	"github.com/askhub-io/backend/internal/logger"
	"github.com/askhub-io/backend/internal/middleware"
	"github.com/askhub-io/backend/internal/models"
	"github.com/askhub-io/backend/internal/util"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// CreateCommunity creates a community; the creator becomes its first moderator
// POST /api/communities
func (h *Handlers) CreateCommunity(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req struct {
		Name        string `json:"name" binding:"required,min=3,max=50"`
		Description string `json:"description" binding:"max=500"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	var existing models.Community
	if err := database.DB.Where("LOWER(name) = LOWER(?)", req.Name).First(&existing).Error; err == nil {
		util.RespondConflict(c, "community")
		return
	}

	community := models.Community{
		Name:        req.Name,
		Description: req.Description,
		CreatedByID: userID,
		MemberCount: 1,
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&community).Error; err != nil {
			return err
		}
		member := models.CommunityMember{
			CommunityID: community.ID,
			UserID:      userID,
			Role:        models.CommunityRoleModerator,
		}
		return tx.Create(&member).Error
	})
	if err != nil {
		util.RespondInternalError(c, "failed to create community")
		return
	}

	h.responseCache.InvalidatePrefix(cacheCommunities)

	util.RespondCreated(c, community)
}

// ListCommunities returns communities ordered by member count
// GET /api/communities
func (h *Handlers) ListCommunities(c *gin.Context) {
	page, limit, offset := util.ParsePagination(c.Query("page"), c.Query("limit"), 20, 100)

	cacheKey := fmt.Sprintf("%slist:page=%d:limit=%d", cacheCommunities, page, limit)
	if cached, ok := h.responseCache.Get(cacheKey); ok {
		middleware.RecordCacheHit("communities")
		util.RespondSuccess(c, cached)
		return
	}
	middleware.RecordCacheMiss("communities")

	var total int64
	if err := database.DB.Model(&models.Community{}).Count(&total).Error; err != nil {
		util.RespondInternalError(c, "failed to count communities")
		return
	}

	var communities []models.Community
	err := database.DB.
		Order("member_count DESC, created_at ASC").
		Limit(limit).Offset(offset).
		Find(&communities).Error
	if err != nil {
		util.RespondInternalError(c, "failed to list communities")
		return
	}

	payload := gin.H{
		"communities": communities,
		"page":        page,
		"limit":       limit,
		"total":       total,
	}
	h.responseCache.Set(cacheKey, payload)

	util.RespondSuccess(c, payload)
}

// GetCommunity returns a single community
// GET /api/communities/:id
func (h *Handlers) GetCommunity(c *gin.Context) {
	communityID := c.Param("id")
	if !util.IsValidUUID(communityID) {
		util.RespondValidationError(c, "id", "must be a valid UUID")
		return
	}

	var community models.Community
	if err := database.DB.First(&community, "id = ?", communityID).Error; err != nil {
		util.RespondNotFound(c, "community")
		return
	}

	util.RespondSuccess(c, community)
}

// JoinCommunity adds the authenticated user as a member
// POST /api/communities/:id/join
func (h *Handlers) JoinCommunity(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	communityID := c.Param("id")
	if !util.IsValidUUID(communityID) {
		util.RespondValidationError(c, "id", "must be a valid UUID")
		return
	}

	var community models.Community
	if err := database.DB.First(&community, "id = ?", communityID).Error; err != nil {
		util.RespondNotFound(c, "community")
		return
	}

	var existing models.CommunityMember
	if err := database.DB.Where("community_id = ? AND user_id = ?", communityID, userID).First(&existing).Error; err == nil {
		util.RespondConflict(c, "membership")
		return
	}

	member := models.CommunityMember{
		CommunityID: communityID,
		UserID:      userID,
		Role:        models.CommunityRoleMember,
	}
	if err := database.DB.Create(&member).Error; err != nil {
		util.RespondInternalError(c, "failed to join community")
		return
	}

	if err := database.DB.Model(&community).UpdateColumn("member_count", gorm.Expr("member_count + 1")).Error; err != nil {
		logger.WarnWithFields("Failed to increment member count for community "+communityID, err)
	}

	h.responseCache.InvalidatePrefix(cacheCommunities)

	util.RespondMessage(c, "joined community")
}

// LeaveCommunity removes the authenticated user's membership
// POST /api/communities/:id/leave
func (h *Handlers) LeaveCommunity(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	communityID := c.Param("id")
	if !util.IsValidUUID(communityID) {
		util.RespondValidationError(c, "id", "must be a valid UUID")
		return
	}

	var member models.CommunityMember
	if err := database.DB.Where("community_id = ? AND user_id = ?", communityID, userID).First(&member).Error; err != nil {
		util.RespondNotFound(c, "membership")
		return
	}

	if err := database.DB.Delete(&member).Error; err != nil {
		util.RespondInternalError(c, "failed to leave community")
		return
	}

	if err := database.DB.Model(&models.Community{}).Where("id = ?", communityID).
		UpdateColumn("member_count", gorm.Expr("GREATEST(member_count - 1, 0)")).Error; err != nil {
		logger.WarnWithFields("Failed to decrement member count for community "+communityID, err)
	}

	h.responseCache.InvalidatePrefix(cacheCommunities)

	util.RespondMessage(c, "left community")
}

// ListCommunityMembers returns a community's members
// GET /api/communities/:id/members
func (h *Handlers) ListCommunityMembers(c *gin.Context) {
	communityID := c.Param("id")
	if !util.IsValidUUID(communityID) {
		util.RespondValidationError(c, "id", "must be a valid UUID")
		return
	}

	_, limit, offset := util.ParsePagination(c.Query("page"), c.Query("limit"), 50, 200)

	var members []models.CommunityMember
	err := database.DB.
		Where("community_id = ?", communityID).
		Preload("User").
		Order("created_at ASC").
		Limit(limit).Offset(offset).
		Find(&members).Error
	if err != nil {
		util.RespondInternalError(c, "failed to list members")
		return
	}

	util.RespondSuccess(c, gin.H{"members": members})
}
