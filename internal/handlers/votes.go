package handlers

import (
	"errors"

	"github.com/askhub-io/backend/internal/models"
	"github.com/askhub-io/backend/internal/util"
	"github.com/askhub-io/backend/internal/voting"
	"github.com/gin-gonic/gin"
)

// ToggleVote applies one press of the vote button on a question or answer
// POST /api/votes
func (h *Handlers) ToggleVote(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req struct {
		TargetType string `json:"target_type" binding:"required,oneof=question answer"`
		TargetID   string `json:"target_id" binding:"required"`
		VoteType   string `json:"vote_type" binding:"required,oneof=upvote downvote"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	if !util.IsValidUUID(req.TargetID) {
		util.RespondValidationError(c, "target_id", "must be a valid UUID")
		return
	}

	result, err := h.votingService.Toggle(
		c.Request.Context(),
		userID,
		models.VoteTargetType(req.TargetType),
		req.TargetID,
		models.VoteType(req.VoteType),
	)
	if err != nil {
		switch {
		case errors.Is(err, voting.ErrTargetNotFound):
			util.RespondNotFound(c, req.TargetType)
		case errors.Is(err, voting.ErrInvalidTargetType), errors.Is(err, voting.ErrInvalidVoteType):
			util.RespondBadRequest(c, err.Error())
		default:
			util.RespondInternalError(c, "failed to apply vote")
		}
		return
	}

	// Vote counts changed, so cached question listings are stale
	h.responseCache.InvalidatePrefix(cacheQuestions)

	// Upvote notifications are best-effort and fire only on creation,
	// not on flips or removals
	if result.Action == voting.ActionCreated && req.VoteType == string(models.VoteTypeUpvote) {
		h.notifier.VoteReceived(result.TargetAuthorID, userID, req.TargetType, req.TargetID)
	}

	util.RespondSuccess(c, result)
}
