// Package models contains the persisted entities of the scheduling engine
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/skandydoc/instagram-automation-tool/utils"
	"gorm.io/gorm"
)

// Account represents an Instagram Business account registered for scheduling
type Account struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UUID         uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uk_accounts_uuid" json:"uuid"`
	Username     string    `gorm:"size:255;not null;uniqueIndex:uk_accounts_username" json:"username"`
	InstagramID  string    `gorm:"size:255;not null;uniqueIndex:uk_accounts_instagram_id" json:"instagram_id"`
	AccessToken  string    `gorm:"type:text;not null" json:"-"`
	AccountType  string    `gorm:"size:50;not null;default:'business'" json:"account_type"`
	Niche        *string   `gorm:"size:100" json:"niche,omitempty"`
	DailyCeiling int       `gorm:"not null;default:25" json:"daily_ceiling"`
	IsActive     *bool     `gorm:"not null;default:true;index:idx_accounts_is_active" json:"is_active"`
	CreatedAt    time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt    *time.Time `json:"updated_at,omitempty"`

	// Relations
	Schedule *PostingSchedule `gorm:"foreignKey:AccountID" json:"schedule,omitempty"`
	Posts    []Post           `gorm:"foreignKey:AccountID" json:"posts,omitempty"`
}

// TableName returns the table name for the model
func (Account) TableName() string {
	return "accounts"
}

// BeforeCreate is called before creating a new record
func (a *Account) BeforeCreate(tx *gorm.DB) error {
	if a.UUID == uuid.Nil {
		a.UUID = uuid.New()
	}
	if a.AccountType == "" {
		a.AccountType = "business"
	}
	if a.DailyCeiling <= 0 {
		a.DailyCeiling = utils.DefaultDailyPostCeiling
	}
	if a.IsActive == nil {
		a.IsActive = utils.ToPtr(true)
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = utils.UTCNow()
	}
	return nil
}

// BeforeUpdate is called before updating a record
func (a *Account) BeforeUpdate(tx *gorm.DB) error {
	now := utils.UTCNow()
	a.UpdatedAt = &now
	return nil
}

// CanSchedule checks whether new posts may be allocated for the account.
// Deactivation stops new scheduling but keeps history intact.
func (a *Account) CanSchedule() bool {
	return utils.IsTrue(a.IsActive)
}

// AccountFilter represents filter criteria for accounts
type AccountFilter struct {
	ID          *uint      `json:"id,omitempty"`
	UUID        *uuid.UUID `json:"uuid,omitempty"`
	Username    *string    `json:"username,omitempty"`
	InstagramID *string    `json:"instagram_id,omitempty"`
	IsActive    *bool      `json:"is_active,omitempty"`
	Niche       *string    `json:"niche,omitempty"`
}
