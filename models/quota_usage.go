package models

import (
	"time"

	"github.com/skandydoc/instagram-automation-tool/utils"
	"gorm.io/gorm"
)

// QuotaUsage is the persisted counter for one (account, calendar day) pair.
// TotalUsed counts posts in scheduled or posted status for the day;
// StoryUsed tracks the independent auto-story cap.
type QuotaUsage struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	AccountID uint      `gorm:"not null;uniqueIndex:uk_quota_usage_account_day" json:"account_id"`
	Day       string    `gorm:"size:10;not null;uniqueIndex:uk_quota_usage_account_day" json:"day"`
	TotalUsed int       `gorm:"not null;default:0" json:"total_used"`
	StoryUsed int       `gorm:"not null;default:0" json:"story_used"`
	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// TableName returns the table name for the model
func (QuotaUsage) TableName() string {
	return "quota_usage"
}

// BeforeCreate is called before creating a new record
func (q *QuotaUsage) BeforeCreate(tx *gorm.DB) error {
	if q.CreatedAt.IsZero() {
		q.CreatedAt = utils.UTCNow()
	}
	return nil
}

// BeforeUpdate is called before updating a record
func (q *QuotaUsage) BeforeUpdate(tx *gorm.DB) error {
	now := utils.UTCNow()
	q.UpdatedAt = &now
	return nil
}

// QuotaUsageFilter represents filter criteria for quota usage rows
type QuotaUsageFilter struct {
	AccountID *uint   `json:"account_id,omitempty"`
	Day       *string `json:"day,omitempty"`
}
