package models

import (
	"time"

	"github.com/skandydoc/instagram-automation-tool/utils"
	"gorm.io/gorm"
)

// Hashtag is an entry in the shared hashtag repository
type Hashtag struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Hashtag    string    `gorm:"size:100;not null;uniqueIndex:uk_hashtags_hashtag" json:"hashtag"`
	Category   *string   `gorm:"size:100" json:"category,omitempty"`
	UsageCount int       `gorm:"not null;default:0" json:"usage_count"`
	IsActive   *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt  time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
}

// TableName returns the table name for the model
func (Hashtag) TableName() string {
	return "hashtag_repository"
}

// BeforeCreate is called before creating a new record
func (h *Hashtag) BeforeCreate(tx *gorm.DB) error {
	if h.IsActive == nil {
		h.IsActive = utils.ToPtr(true)
	}
	if h.CreatedAt.IsZero() {
		h.CreatedAt = utils.UTCNow()
	}
	return nil
}

// HashtagFilter represents filter criteria for hashtags
type HashtagFilter struct {
	ID       *uint   `json:"id,omitempty"`
	Category *string `json:"category,omitempty"`
	IsActive *bool   `json:"is_active,omitempty"`
}
