package handlers

import (
	"github.com/askhub-io/backend/internal/auth"
	"github.com/askhub-io/backend/internal/cache"
	"github.com/askhub-io/backend/internal/notify"
	"github.com/askhub-io/backend/internal/voting"
)

// Cache key prefixes for listing endpoints. Writes to a resource
// invalidate its whole prefix.
const (
	cacheQuestions   = "questions:"
	cacheCommunities = "communities:"
)

// Handlers contains all HTTP handlers for the API
type Handlers struct {
	authService   *auth.Service
	votingService *voting.Service
	notifier      *notify.Notifier
	responseCache *cache.TTLCache
}

// NewHandlers creates a new handlers instance
func NewHandlers(authService *auth.Service, votingService *voting.Service, notifier *notify.Notifier, responseCache *cache.TTLCache) *Handlers {
	return &Handlers{
		authService:   authService,
		votingService: votingService,
		notifier:      notifier,
		responseCache: responseCache,
	}
}
