package notify

import (
	"fmt"

	"github.com/askhub-io/backend/internal/logger"
	"github.com/askhub-io/backend/internal/models"
	"gorm.io/gorm"
)

// Notifier writes in-app notifications. Every method is best-effort:
// failures are logged and never propagate to the caller, since the
// triggering action has already committed.
type Notifier struct {
	db *gorm.DB
}

// NewNotifier creates a notifier backed by db
func NewNotifier(db *gorm.DB) *Notifier {
	return &Notifier{db: db}
}

// create inserts a notification, skipping self-notifications
func (n *Notifier) create(userID string, actorID *string, notifType models.NotificationType, message string, targetType, targetID string) {
	if actorID != nil && *actorID == userID {
		return
	}

	notification := models.Notification{
		UserID:     userID,
		ActorID:    actorID,
		Type:       notifType,
		Message:    message,
		TargetType: targetType,
		TargetID:   targetID,
	}

	if err := n.db.Create(&notification).Error; err != nil {
		logger.WarnWithFields("Failed to create notification", err)
	}
}

// VoteReceived notifies a content author of an upvote on their post
func (n *Notifier) VoteReceived(authorID, voterID string, targetType, targetID string) {
	n.create(authorID, &voterID, models.NotificationTypeVote,
		fmt.Sprintf("Your %s received an upvote", targetType), targetType, targetID)
}

// AnswerPosted notifies a question author of a new answer
func (n *Notifier) AnswerPosted(questionAuthorID, answererID, questionID string) {
	n.create(questionAuthorID, &answererID, models.NotificationTypeAnswer,
		"Your question has a new answer", "question", questionID)
}

// AnswerAccepted notifies an answer author their answer was accepted
func (n *Notifier) AnswerAccepted(answerAuthorID, askerID, answerID string) {
	n.create(answerAuthorID, &askerID, models.NotificationTypeAccept,
		"Your answer was accepted", "answer", answerID)
}

// CommentPosted notifies a content author of a new comment
func (n *Notifier) CommentPosted(authorID, commenterID string, targetType, targetID string) {
	n.create(authorID, &commenterID, models.NotificationTypeComment,
		fmt.Sprintf("New comment on your %s", targetType), targetType, targetID)
}

// ModAction notifies a user of a moderation action against their content.
// Moderation notices carry no actor so the moderator stays anonymous.
func (n *Notifier) ModAction(userID, message string, targetType, targetID string) {
	n.create(userID, nil, models.NotificationTypeModAction, message, targetType, targetID)
}
