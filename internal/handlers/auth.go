package handlers

import (
	"errors"

	"github.com/askhub-io/backend/internal/auth"
	apierrors "github.com/askhub-io/backend/internal/errors"
	"github.com/askhub-io/backend/internal/util"
	"github.com/gin-gonic/gin"
)

// Register creates a new account
// POST /api/auth/register
func (h *Handlers) Register(c *gin.Context) {
	var req auth.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	if err := util.ValidateUsername(req.Username); err != nil {
		util.RespondValidationError(c, "username", err.Error())
		return
	}

	resp, err := h.authService.Register(req)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrUserExists):
			util.RespondConflict(c, "account")
		case errors.Is(err, auth.ErrUsernameExists):
			util.RespondConflict(c, "username")
		default:
			util.RespondInternalError(c, "failed to register")
		}
		return
	}

	util.RespondCreated(c, resp)
}

// Login authenticates with email and password
// POST /api/auth/login
func (h *Handlers) Login(c *gin.Context) {
	var req auth.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	resp, err := h.authService.Login(req)
	if err != nil {
		var lockedErr *auth.AccountLockedError
		switch {
		case errors.As(err, &lockedErr):
			util.RespondWithAPIError(c, apierrors.AccountLocked(lockedErr.Until))
		case errors.Is(err, auth.ErrUserBanned):
			util.RespondForbidden(c, "account is banned")
		case errors.Is(err, auth.ErrInvalidCredentials):
			util.RespondUnauthorized(c, "invalid email or password")
		default:
			util.RespondInternalError(c, "failed to log in")
		}
		return
	}

	util.RespondSuccess(c, resp)
}

// Me returns the authenticated user's profile
// GET /api/auth/me
func (h *Handlers) Me(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}
	util.RespondSuccess(c, user)
}
