package models

import (
	"time"

	"gorm.io/gorm"
)

// Question represents a question posted to the platform, optionally inside a community
type Question struct {
	ID       string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	AuthorID string `gorm:"not null;index" json:"author_id"`
	Author   User   `gorm:"foreignKey:AuthorID" json:"author,omitempty"`

	CommunityID *string    `gorm:"type:uuid;index" json:"community_id,omitempty"`
	Community   *Community `gorm:"foreignKey:CommunityID" json:"community,omitempty"`

	Title string      `gorm:"not null" json:"title"`
	Body  string      `gorm:"type:text;not null" json:"body"`
	Tags  StringArray `gorm:"type:text[]" json:"tags"`

	// Derived vote counters. Always recomputed from the votes table inside the
	// same locked transaction that mutates a vote, never incremented blindly.
	UpvotesCount   int `gorm:"default:0" json:"upvotes_count"`
	DownvotesCount int `gorm:"default:0" json:"downvotes_count"`

	AnswerCount int `gorm:"default:0" json:"answer_count"`
	ViewCount   int `gorm:"default:0" json:"view_count"`

	Answers []Answer `gorm:"foreignKey:QuestionID" json:"answers,omitempty"`

	// Moderation
	IsDeleted bool `gorm:"default:false" json:"is_deleted"`

	// GORM fields
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// Answer represents an answer to a question
type Answer struct {
	ID         string   `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	QuestionID string   `gorm:"not null;index" json:"question_id"`
	Question   Question `gorm:"foreignKey:QuestionID" json:"-"`
	AuthorID   string   `gorm:"not null;index" json:"author_id"`
	Author     User     `gorm:"foreignKey:AuthorID" json:"author,omitempty"`

	Body string `gorm:"type:text;not null" json:"body"`

	// At most one answer per question carries this flag. Exclusivity is
	// enforced transactionally by voting.Service.AcceptAnswer, not by a
	// database constraint.
	IsAccepted bool `gorm:"default:false;index" json:"is_accepted"`

	UpvotesCount   int `gorm:"default:0" json:"upvotes_count"`
	DownvotesCount int `gorm:"default:0" json:"downvotes_count"`

	IsDeleted bool `gorm:"default:false" json:"is_deleted"`

	// Edit tracking
	IsEdited bool       `gorm:"default:false" json:"is_edited"`
	EditedAt *time.Time `json:"edited_at,omitempty"`

	// GORM fields
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// CommentTargetType identifies what a comment is attached to
type CommentTargetType string

const (
	CommentTargetQuestion CommentTargetType = "question"
	CommentTargetAnswer   CommentTargetType = "answer"
)

// Comment represents a short remark on a question or an answer
type Comment struct {
	ID       string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	AuthorID string `gorm:"not null;index" json:"author_id"`
	Author   User   `gorm:"foreignKey:AuthorID" json:"author,omitempty"`

	TargetType CommentTargetType `gorm:"not null;index:idx_comments_target" json:"target_type"`
	TargetID   string            `gorm:"not null;index:idx_comments_target" json:"target_id"`

	Body string `gorm:"type:text;not null" json:"body"`

	// Edit tracking
	IsEdited bool       `gorm:"default:false" json:"is_edited"`
	EditedAt *time.Time `json:"edited_at,omitempty"`

	// Soft delete keeps thread ordering stable
	IsDeleted bool `gorm:"default:false" json:"is_deleted"`

	// GORM fields
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (q *Question) BeforeCreate(tx *gorm.DB) error {
	if q.ID == "" {
		q.ID = generateUUID()
	}
	return nil
}

func (a *Answer) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = generateUUID()
	}
	return nil
}

func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = generateUUID()
	}
	return nil
}
