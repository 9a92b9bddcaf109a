package models

import (
	"time"

	"gorm.io/gorm"
)

// VoteTargetType identifies what kind of row a vote points at
type VoteTargetType string

const (
	VoteTargetQuestion VoteTargetType = "question"
	VoteTargetAnswer   VoteTargetType = "answer"
)

// VoteType is the direction of a vote
type VoteType string

const (
	VoteTypeUpvote   VoteType = "upvote"
	VoteTypeDownvote VoteType = "downvote"
)

// Vote records a single user's vote on a question or answer.
// The composite unique index enforces at most one row per (voter, target)
// pair; a type flip updates the row in place and a toggle-off deletes it.
type Vote struct {
	ID     string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	UserID string `gorm:"not null;uniqueIndex:idx_votes_user_target" json:"user_id"`
	User   User   `gorm:"foreignKey:UserID" json:"-"`

	TargetType VoteTargetType `gorm:"not null;uniqueIndex:idx_votes_user_target" json:"target_type"`
	TargetID   string         `gorm:"type:uuid;not null;uniqueIndex:idx_votes_user_target;index:idx_votes_target" json:"target_id"`

	VoteType VoteType `gorm:"not null" json:"vote_type"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (v *Vote) BeforeCreate(tx *gorm.DB) error {
	if v.ID == "" {
		v.ID = generateUUID()
	}
	return nil
}
