package models

import (
	"time"

	"github.com/skandydoc/instagram-automation-tool/utils"
	"gorm.io/gorm"
)

// CaptionTemplate is a reusable caption with {variable} placeholders
type CaptionTemplate struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Template  string    `gorm:"type:text;not null" json:"template"`
	Category  *string   `gorm:"size:100" json:"category,omitempty"`
	IsActive  *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
}

// TableName returns the table name for the model
func (CaptionTemplate) TableName() string {
	return "caption_templates"
}

// BeforeCreate is called before creating a new record
func (t *CaptionTemplate) BeforeCreate(tx *gorm.DB) error {
	if t.IsActive == nil {
		t.IsActive = utils.ToPtr(true)
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = utils.UTCNow()
	}
	return nil
}

// CaptionTemplateFilter represents filter criteria for caption templates
type CaptionTemplateFilter struct {
	ID       *uint   `json:"id,omitempty"`
	Name     *string `json:"name,omitempty"`
	Category *string `json:"category,omitempty"`
	IsActive *bool   `json:"is_active,omitempty"`
}
