package models

import (
	"time"

	"gorm.io/gorm"
)

// Community groups questions under a shared topic
type Community struct {
	ID          string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	Name        string `gorm:"uniqueIndex;not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`

	CreatedByID string `gorm:"not null;index" json:"created_by_id"`
	CreatedBy   User   `gorm:"foreignKey:CreatedByID" json:"created_by,omitempty"`

	// Cached counts
	MemberCount   int `gorm:"default:0" json:"member_count"`
	QuestionCount int `gorm:"default:0" json:"question_count"`

	// GORM fields
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// CommunityRole is a member's role within a community
type CommunityRole string

const (
	CommunityRoleMember    CommunityRole = "member"
	CommunityRoleModerator CommunityRole = "moderator"
)

// CommunityMember is the membership join table
type CommunityMember struct {
	ID          string    `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	CommunityID string    `gorm:"not null;uniqueIndex:idx_community_members_unique" json:"community_id"`
	Community   Community `gorm:"foreignKey:CommunityID" json:"-"`
	UserID      string    `gorm:"not null;uniqueIndex:idx_community_members_unique;index" json:"user_id"`
	User        User      `gorm:"foreignKey:UserID" json:"user,omitempty"`

	Role CommunityRole `gorm:"default:member" json:"role"`

	CreatedAt time.Time `json:"created_at"`
}

func (c *Community) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = generateUUID()
	}
	return nil
}

func (m *CommunityMember) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = generateUUID()
	}
	return nil
}
