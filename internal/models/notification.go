package models

import (
	"time"

	"gorm.io/gorm"
)

// NotificationType classifies what happened
type NotificationType string

const (
	NotificationTypeVote     NotificationType = "vote"
	NotificationTypeAnswer   NotificationType = "answer"
	NotificationTypeAccept   NotificationType = "accept"
	NotificationTypeComment  NotificationType = "comment"
	NotificationTypeModAction NotificationType = "mod_action"
)

// Notification is a stored in-app notification for a user.
// Delivery is best effort: creation failures are logged and never fail
// the operation that triggered them.
type Notification struct {
	ID     string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	UserID string `gorm:"not null;index:idx_notifications_user" json:"user_id"`
	User   User   `gorm:"foreignKey:UserID" json:"-"`

	// Who triggered it (empty for system notifications)
	ActorID *string `gorm:"type:uuid" json:"actor_id,omitempty"`
	Actor   *User   `gorm:"foreignKey:ActorID" json:"actor,omitempty"`

	Type    NotificationType `gorm:"not null" json:"type"`
	Message string           `gorm:"type:text;not null" json:"message"`

	// What it refers to ("question", "answer", "comment")
	TargetType string `json:"target_type,omitempty"`
	TargetID   string `gorm:"type:uuid" json:"target_id,omitempty"`

	IsRead bool       `gorm:"default:false;index:idx_notifications_user" json:"is_read"`
	ReadAt *time.Time `json:"read_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// ReportReason represents the reason for a moderation report
type ReportReason string

const (
	ReportReasonSpam          ReportReason = "spam"
	ReportReasonHarassment    ReportReason = "harassment"
	ReportReasonInappropriate ReportReason = "inappropriate"
	ReportReasonMisleading    ReportReason = "misleading"
	ReportReasonOther         ReportReason = "other"
)

// ReportStatus represents the review status of a report
type ReportStatus string

const (
	ReportStatusPending   ReportStatus = "pending"
	ReportStatusResolved  ReportStatus = "resolved"
	ReportStatusDismissed ReportStatus = "dismissed"
)

// ReportTargetType represents what kind of content is being reported
type ReportTargetType string

const (
	ReportTargetQuestion ReportTargetType = "question"
	ReportTargetAnswer   ReportTargetType = "answer"
	ReportTargetComment  ReportTargetType = "comment"
	ReportTargetUser     ReportTargetType = "user"
)

// Report represents a user report for moderation
type Report struct {
	ID         string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	ReporterID string `gorm:"not null;index" json:"reporter_id"`
	Reporter   User   `gorm:"foreignKey:ReporterID" json:"reporter,omitempty"`

	TargetType   ReportTargetType `gorm:"not null" json:"target_type"`
	TargetID     string           `gorm:"not null;index" json:"target_id"`
	TargetUserID *string          `gorm:"index" json:"target_user_id"` // author of the reported content

	Reason      ReportReason `gorm:"not null" json:"reason"`
	Description string       `gorm:"type:text" json:"description"`
	Status      ReportStatus `gorm:"default:pending" json:"status"`

	// Moderation action
	ModeratorID *string `gorm:"index" json:"moderator_id"`
	Moderator   *User   `gorm:"foreignKey:ModeratorID" json:"moderator,omitempty"`
	ActionTaken string  `gorm:"type:text" json:"action_taken"`

	// GORM fields
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = generateUUID()
	}
	return nil
}

func (r *Report) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = generateUUID()
	}
	return nil
}
