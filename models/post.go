package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/skandydoc/instagram-automation-tool/utils"
	"gorm.io/gorm"
)

// PostStatus represents the lifecycle status of a post
type PostStatus string

const (
	PostStatusScheduled PostStatus = "scheduled"
	PostStatusPosted    PostStatus = "posted"
	PostStatusFailed    PostStatus = "failed"
	PostStatusCancelled PostStatus = "cancelled"
)

// String returns the string representation of the status
func (s PostStatus) String() string {
	return string(s)
}

// Valid checks if the status is valid
func (s PostStatus) Valid() bool {
	switch s {
	case PostStatusScheduled, PostStatusPosted, PostStatusFailed, PostStatusCancelled:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no further automatic transition may occur
func (s PostStatus) IsTerminal() bool {
	return s == PostStatusPosted || s == PostStatusFailed || s == PostStatusCancelled
}

// Scan implements the sql.Scanner interface for PostStatus
func (s *PostStatus) Scan(value any) error {
	if value == nil {
		*s = ""
		return nil
	}

	switch v := value.(type) {
	case string:
		*s = PostStatus(v)
	case []byte:
		*s = PostStatus(string(v))
	default:
		return fmt.Errorf("cannot scan %T into PostStatus", value)
	}

	return nil
}

// Value implements the driver.Valuer interface for PostStatus
func (s PostStatus) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid PostStatus: %s", s)
	}
	return string(s), nil
}

// ContentType represents the kind of media a post carries
type ContentType string

const (
	ContentTypeFeed     ContentType = "feed"
	ContentTypeCarousel ContentType = "carousel"
	ContentTypeStory    ContentType = "story"
)

// Valid checks if the content type is valid
func (c ContentType) Valid() bool {
	switch c {
	case ContentTypeFeed, ContentTypeCarousel, ContentTypeStory:
		return true
	default:
		return false
	}
}

// ScheduleType represents the requested scheduling strategy for a submission
type ScheduleType string

const (
	ScheduleTypeNow       ScheduleType = "now"
	ScheduleTypeNextSlot  ScheduleType = "next_slot"
	ScheduleTypeSpecific  ScheduleType = "specific"
	ScheduleTypeQueue     ScheduleType = "queue"
	ScheduleTypeAutoStory ScheduleType = "auto_story"
)

// Valid checks if the schedule type is valid
func (s ScheduleType) Valid() bool {
	switch s {
	case ScheduleTypeNow, ScheduleTypeNextSlot, ScheduleTypeSpecific,
		ScheduleTypeQueue, ScheduleTypeAutoStory:
		return true
	default:
		return false
	}
}

// MediaURLs is a JSON array of media references attached to a post
type MediaURLs []string

// Value implements the driver.Valuer interface for MediaURLs
func (m MediaURLs) Value() (driver.Value, error) {
	return json.Marshal(m)
}

// Scan implements the sql.Scanner interface for MediaURLs
func (m *MediaURLs) Scan(value any) error {
	if value == nil {
		*m = nil
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into MediaURLs", value)
	}

	return json.Unmarshal(bytes, m)
}

// Post represents the unit of schedulable work
type Post struct {
	ID              uint         `gorm:"primaryKey" json:"id"`
	UUID            uuid.UUID    `gorm:"type:uuid;not null;uniqueIndex:uk_posts_uuid" json:"uuid"`
	AccountID       uint         `gorm:"not null;index:idx_posts_account_id" json:"account_id"`
	ContentType     ContentType  `gorm:"size:50;not null" json:"content_type"`
	ScheduleType    ScheduleType `gorm:"size:50;not null" json:"schedule_type"`
	Caption         *string      `gorm:"type:text" json:"caption,omitempty"`
	MediaURLs       MediaURLs    `gorm:"type:jsonb" json:"media_urls,omitempty"`
	ScheduledTime   time.Time    `gorm:"not null;index:idx_posts_scheduled_time" json:"scheduled_time"`
	ActualPostTime  *time.Time   `json:"actual_post_time,omitempty"`
	Status          PostStatus   `gorm:"size:50;not null;default:'scheduled';index:idx_posts_status" json:"status"`
	InstagramPostID *string      `gorm:"size:255" json:"instagram_post_id,omitempty"`
	ErrorMessage    *string      `gorm:"type:text" json:"error_message,omitempty"`
	RetryCount      int          `gorm:"not null;default:0" json:"retry_count"`
	NextAttemptAt   *time.Time   `gorm:"index:idx_posts_next_attempt_at" json:"next_attempt_at,omitempty"`
	ClaimedAt       *time.Time   `json:"claimed_at,omitempty"`
	QuotaDay        string       `gorm:"size:10;not null;index:idx_posts_quota_day" json:"quota_day"`
	CreatedAt       time.Time    `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_posts_created_at" json:"created_at"`
	UpdatedAt       *time.Time   `json:"updated_at,omitempty"`

	// Relations
	Account *Account `gorm:"foreignKey:AccountID;references:ID" json:"account,omitempty"`
}

// TableName returns the table name for the model
func (Post) TableName() string {
	return "posts"
}

// BeforeCreate is called before creating a new record
func (p *Post) BeforeCreate(tx *gorm.DB) error {
	if p.UUID == uuid.Nil {
		p.UUID = uuid.New()
	}
	if p.Status == "" {
		p.Status = PostStatusScheduled
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = utils.UTCNow()
	}
	return nil
}

// BeforeUpdate is called before updating a record
func (p *Post) BeforeUpdate(tx *gorm.DB) error {
	now := utils.UTCNow()
	p.UpdatedAt = &now
	return nil
}

// CanTransitionTo checks if the post can transition to the given status.
// posted, failed and cancelled are terminal; a failed post is retried only
// by resubmitting it as a new post entity.
func (p *Post) CanTransitionTo(newStatus PostStatus) bool {
	switch p.Status {
	case PostStatusScheduled:
		return newStatus == PostStatusPosted ||
			newStatus == PostStatusFailed ||
			newStatus == PostStatusCancelled
	default:
		return false
	}
}

// IsRetrying reports whether the post is in the internal retrying phase:
// still scheduled, with at least one failed dispatch behind it.
func (p *Post) IsRetrying() bool {
	return p.Status == PostStatusScheduled && p.RetryCount > 0
}

// DueAt returns the instant the post becomes due for dispatch. Retry
// re-enqueues override the original scheduled time via NextAttemptAt.
func (p *Post) DueAt() time.Time {
	if p.NextAttemptAt != nil {
		return *p.NextAttemptAt
	}
	return p.ScheduledTime
}

// GetStatusDisplayName returns a human-readable status name
func (p *Post) GetStatusDisplayName() string {
	switch p.Status {
	case PostStatusScheduled:
		if p.IsRetrying() {
			return "Retrying"
		}
		return "Scheduled"
	case PostStatusPosted:
		return "Posted"
	case PostStatusFailed:
		return "Failed"
	case PostStatusCancelled:
		return "Cancelled"
	default:
		return "Unknown"
	}
}

// PostFilter represents filter criteria for posts
type PostFilter struct {
	ID              *uint         `json:"id,omitempty"`
	UUID            *uuid.UUID    `json:"uuid,omitempty"`
	AccountID       *uint         `json:"account_id,omitempty"`
	Status          *PostStatus   `json:"status,omitempty"`
	ContentType     *ContentType  `json:"content_type,omitempty"`
	ScheduleType    *ScheduleType `json:"schedule_type,omitempty"`
	QuotaDay        *string       `json:"quota_day,omitempty"`
	ScheduledAfter  *time.Time    `json:"scheduled_after,omitempty"`
	ScheduledBefore *time.Time    `json:"scheduled_before,omitempty"`
	CreatedAfter    *time.Time    `json:"created_after,omitempty"`
	CreatedBefore   *time.Time    `json:"created_before,omitempty"`
}
