package models

import (
	"fmt"
	"time"

	"github.com/skandydoc/instagram-automation-tool/utils"
	"gorm.io/gorm"
)

// PostingSchedule holds the per-account slot configuration: two base
// times-of-day, a jitter variance window, and the account timezone.
type PostingSchedule struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	AccountID       uint      `gorm:"not null;uniqueIndex:uk_posting_schedules_account_id" json:"account_id"`
	MorningSlot     string    `gorm:"size:5;not null" json:"morning_slot"` // "HH:MM"
	EveningSlot     string    `gorm:"size:5;not null" json:"evening_slot"` // "HH:MM"
	Timezone        string    `gorm:"size:50;not null;default:'Asia/Kolkata'" json:"timezone"`
	VarianceMinutes int       `gorm:"not null;default:15" json:"variance_minutes"`
	IsActive        *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt       time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt       *time.Time `json:"updated_at,omitempty"`
}

// TableName returns the table name for the model
func (PostingSchedule) TableName() string {
	return "posting_schedules"
}

// BeforeCreate is called before creating a new record
func (s *PostingSchedule) BeforeCreate(tx *gorm.DB) error {
	if s.Timezone == "" {
		s.Timezone = utils.DefaultTimezone
	}
	if s.IsActive == nil {
		s.IsActive = utils.ToPtr(true)
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = utils.UTCNow()
	}
	return s.Validate()
}

// BeforeUpdate is called before updating a record
func (s *PostingSchedule) BeforeUpdate(tx *gorm.DB) error {
	now := utils.UTCNow()
	s.UpdatedAt = &now
	return s.Validate()
}

// Validate enforces the schedule invariants: parseable slots, a known
// timezone, and a variance window smaller than half the slot spacing so
// jittered slots can never overlap.
func (s *PostingSchedule) Validate() error {
	morning, err := utils.ParseTimeOfDay(s.MorningSlot)
	if err != nil {
		return fmt.Errorf("invalid morning slot %q: %w", s.MorningSlot, err)
	}
	evening, err := utils.ParseTimeOfDay(s.EveningSlot)
	if err != nil {
		return fmt.Errorf("invalid evening slot %q: %w", s.EveningSlot, err)
	}
	if _, err := time.LoadLocation(s.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", s.Timezone, err)
	}
	if s.VarianceMinutes < 0 {
		return fmt.Errorf("variance minutes must be >= 0, got %d", s.VarianceMinutes)
	}
	spacing := evening.Minutes() - morning.Minutes()
	if spacing < 0 {
		spacing = -spacing
	}
	if spacing == 0 {
		return fmt.Errorf("morning and evening slots must differ")
	}
	if s.VarianceMinutes*2 >= spacing {
		return fmt.Errorf("variance %dm must be less than half the %dm slot spacing", s.VarianceMinutes, spacing)
	}
	return nil
}

// Location resolves the schedule timezone
func (s *PostingSchedule) Location() (*time.Location, error) {
	return time.LoadLocation(s.Timezone)
}

// Slots returns the parsed morning and evening times-of-day
func (s *PostingSchedule) Slots() (utils.TimeOfDay, utils.TimeOfDay, error) {
	morning, err := utils.ParseTimeOfDay(s.MorningSlot)
	if err != nil {
		return utils.TimeOfDay{}, utils.TimeOfDay{}, err
	}
	evening, err := utils.ParseTimeOfDay(s.EveningSlot)
	if err != nil {
		return utils.TimeOfDay{}, utils.TimeOfDay{}, err
	}
	return morning, evening, nil
}

// PostingScheduleFilter represents filter criteria for posting schedules
type PostingScheduleFilter struct {
	ID        *uint `json:"id,omitempty"`
	AccountID *uint `json:"account_id,omitempty"`
	IsActive  *bool `json:"is_active,omitempty"`
}
