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

// ListQuestions returns a paginated question listing, served from the
// response cache when possible
// GET /api/questions
func (h *Handlers) ListQuestions(c *gin.Context) {
	page, limit, offset := util.ParsePagination(c.Query("page"), c.Query("limit"), 20, 100)
	sort := c.DefaultQuery("sort", "newest")
	tag := c.Query("tag")
	communityID := c.Query("community_id")

	cacheKey := fmt.Sprintf("%slist:page=%d:limit=%d:sort=%s:tag=%s:community=%s",
		cacheQuestions, page, limit, sort, tag, communityID)

	if cached, ok := h.responseCache.Get(cacheKey); ok {
		middleware.RecordCacheHit("questions")
		util.RespondSuccess(c, cached)
		return
	}
	middleware.RecordCacheMiss("questions")

	query := database.DB.Model(&models.Question{}).
		Where("is_deleted = false").
		Preload("Author")

	if tag != "" {
		query = query.Where("? = ANY(tags)", tag)
	}
	if communityID != "" {
		if !util.IsValidUUID(communityID) {
			util.RespondValidationError(c, "community_id", "must be a valid UUID")
			return
		}
		query = query.Where("community_id = ?", communityID)
	}

	switch sort {
	case "votes":
		query = query.Order("upvotes_count - downvotes_count DESC, created_at DESC")
	case "active":
		query = query.Order("updated_at DESC")
	case "unanswered":
		query = query.Where("answer_count = 0").Order("created_at DESC")
	default:
		query = query.Order("created_at DESC")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		util.RespondInternalError(c, "failed to count questions")
		return
	}

	var questions []models.Question
	if err := query.Limit(limit).Offset(offset).Find(&questions).Error; err != nil {
		util.RespondInternalError(c, "failed to list questions")
		return
	}

	payload := gin.H{
		"questions": questions,
		"page":      page,
		"limit":     limit,
		"total":     total,
	}
	h.responseCache.Set(cacheKey, payload)

	util.RespondSuccess(c, payload)
}

// GetQuestion returns a question with its answers and bumps the view count
// GET /api/questions/:id
func (h *Handlers) GetQuestion(c *gin.Context) {
	questionID := c.Param("id")
	if !util.IsValidUUID(questionID) {
		util.RespondValidationError(c, "id", "must be a valid UUID")
		return
	}

	var question models.Question
	err := database.DB.
		Where("id = ? AND is_deleted = false", questionID).
		Preload("Author").
		Preload("Answers", func(db *gorm.DB) *gorm.DB {
			return db.Order("is_accepted DESC, upvotes_count - downvotes_count DESC, created_at ASC")
		}).
		Preload("Answers.Author").
		First(&question).Error
	if err != nil {
		util.RespondNotFound(c, "question")
		return
	}

	// View count is advisory; losing an increment under concurrency is fine
	if err := database.DB.Model(&question).UpdateColumn("view_count", gorm.Expr("view_count + 1")).Error; err != nil {
		logger.WarnWithFields("Failed to increment view count for question "+questionID, err)
	}

	util.RespondSuccess(c, question)
}

// CreateQuestion creates a new question
// POST /api/questions
func (h *Handlers) CreateQuestion(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req struct {
		Title       string   `json:"title" binding:"required,min=10,max=200"`
		Body        string   `json:"body" binding:"required,min=20,max=30000"`
		Tags        []string `json:"tags"`
		CommunityID *string  `json:"community_id,omitempty"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	if err := util.ValidateTags(req.Tags); err != nil {
		util.RespondValidationError(c, "tags", err.Error())
		return
	}

	if req.CommunityID != nil {
		if !util.IsValidUUID(*req.CommunityID) {
			util.RespondValidationError(c, "community_id", "must be a valid UUID")
			return
		}
		var community models.Community
		if err := database.DB.First(&community, "id = ?", *req.CommunityID).Error; err != nil {
			util.RespondNotFound(c, "community")
			return
		}
	}

	question := models.Question{
		AuthorID:    userID,
		CommunityID: req.CommunityID,
		Title:       req.Title,
		Body:        req.Body,
		Tags:        models.StringArray(req.Tags),
	}

	if err := database.DB.Create(&question).Error; err != nil {
		util.RespondInternalError(c, "failed to create question")
		return
	}

	if err := database.DB.Model(&models.User{}).Where("id = ?", userID).
		UpdateColumn("question_count", gorm.Expr("question_count + 1")).Error; err != nil {
		logger.WarnWithFields("Failed to increment question count for user "+userID, err)
	}
	if req.CommunityID != nil {
		if err := database.DB.Model(&models.Community{}).Where("id = ?", *req.CommunityID).
			UpdateColumn("question_count", gorm.Expr("question_count + 1")).Error; err != nil {
			logger.WarnWithFields("Failed to increment community question count", err)
		}
	}

	h.responseCache.InvalidatePrefix(cacheQuestions)

	if err := database.DB.Preload("Author").First(&question, "id = ?", question.ID).Error; err != nil {
		logger.WarnWithFields("Failed to reload question "+question.ID, err)
	}

	util.RespondCreated(c, question)
}

// UpdateQuestion edits a question's title, body, or tags. Author only.
// PUT /api/questions/:id
func (h *Handlers) UpdateQuestion(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

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

	if question.AuthorID != userID {
		util.RespondForbidden(c, "only the author can edit this question")
		return
	}

	var req struct {
		Title *string   `json:"title,omitempty" binding:"omitempty,min=10,max=200"`
		Body  *string   `json:"body,omitempty" binding:"omitempty,min=20,max=30000"`
		Tags  *[]string `json:"tags,omitempty"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	updates := map[string]interface{}{}
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.Body != nil {
		updates["body"] = *req.Body
	}
	if req.Tags != nil {
		if err := util.ValidateTags(*req.Tags); err != nil {
			util.RespondValidationError(c, "tags", err.Error())
			return
		}
		updates["tags"] = models.StringArray(*req.Tags)
	}

	if len(updates) == 0 {
		util.RespondBadRequest(c, "no fields to update")
		return
	}

	if err := database.DB.Model(&question).Updates(updates).Error; err != nil {
		util.RespondInternalError(c, "failed to update question")
		return
	}

	h.responseCache.InvalidatePrefix(cacheQuestions)

	util.RespondSuccess(c, question)
}

// DeleteQuestion soft-deletes a question. Author only; admins use the
// moderation endpoint instead.
// DELETE /api/questions/:id
func (h *Handlers) DeleteQuestion(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

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

	if question.AuthorID != userID {
		util.RespondForbidden(c, "only the author can delete this question")
		return
	}

	if err := database.DB.Model(&question).Update("is_deleted", true).Error; err != nil {
		util.RespondInternalError(c, "failed to delete question")
		return
	}

	h.responseCache.InvalidatePrefix(cacheQuestions)

	util.RespondMessage(c, "question deleted")
}

// SearchQuestions runs a full-text search over titles and bodies
// GET /api/questions/search
func (h *Handlers) SearchQuestions(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		util.RespondValidationError(c, "q", "search query is required")
		return
	}

	_, limit, offset := util.ParsePagination(c.Query("page"), c.Query("limit"), 20, 100)

	var questions []models.Question
	err := database.DB.
		Where("is_deleted = false").
		Where("to_tsvector('english', title || ' ' || body) @@ plainto_tsquery('english', ?)", q).
		Preload("Author").
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&questions).Error
	if err != nil {
		util.RespondInternalError(c, "search failed")
		return
	}

	util.RespondSuccess(c, gin.H{"questions": questions, "query": q})
}
