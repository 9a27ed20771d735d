// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"time"

	"github.com/skandydoc/instagram-automation-tool/models"
)

// RepositoryContext key for transaction in context
type contextKey string

const TxContextKey contextKey = "tx"

type Repository[T any, F any] interface {
	ByID(ctx context.Context, id uint) (*T, error)
	ByFilter(ctx context.Context, filter F, orderBy string, limit, offset int) ([]*T, error)
	Save(ctx context.Context, entity *T) error
	SaveBatch(ctx context.Context, entities []*T) error
	Count(ctx context.Context, filter F) (int64, error)
	Exists(ctx context.Context, filter F) (bool, error)
}

// AccountRepository defines operations for Instagram accounts
type AccountRepository interface {
	Repository[models.Account, models.AccountFilter]
	ByUUID(ctx context.Context, uuid string) (*models.Account, error)
	ByUsername(ctx context.Context, username string) (*models.Account, error)
	ListActive(ctx context.Context) ([]*models.Account, error)
	Update(ctx context.Context, account *models.Account) error
	SetActive(ctx context.Context, id uint, active bool) error
}

// PostingScheduleRepository defines operations for per-account schedules
type PostingScheduleRepository interface {
	Repository[models.PostingSchedule, models.PostingScheduleFilter]
	ActiveByAccountID(ctx context.Context, accountID uint) (*models.PostingSchedule, error)
	Update(ctx context.Context, schedule *models.PostingSchedule) error
}

// PostRepository defines operations for scheduled posts
type PostRepository interface {
	Repository[models.Post, models.PostFilter]
	ByUUID(ctx context.Context, uuid string) (*models.Post, error)
	ByAccountID(ctx context.Context, accountID uint, limit, offset int) ([]*models.Post, error)
	Update(ctx context.Context, post *models.Post) error
	ListScheduledBetween(ctx context.Context, from, to time.Time) ([]*models.Post, error)
	ListDue(ctx context.Context, now time.Time, limit int) ([]*models.Post, error)
	Claim(ctx context.Context, postID uint, now time.Time, lease time.Duration) (bool, error)
	ClearClaim(ctx context.Context, postID uint) error
}

// QuotaUsageRepository defines atomic counter operations for per-day quotas
type QuotaUsageRepository interface {
	// TryReserve atomically increments the day's counters when both the
	// total ceiling and (for stories) the story ceiling still have room.
	// Returns false without error when the quota is exhausted.
	TryReserve(ctx context.Context, accountID uint, day string, story bool, totalCeiling, storyCeiling int) (bool, error)
	// ReleaseOne decrements the day's counters, never below zero.
	ReleaseOne(ctx context.Context, accountID uint, day string, story bool) error
	Usage(ctx context.Context, accountID uint, day string) (*models.QuotaUsage, error)
}

// HashtagRepository defines operations for the shared hashtag repository
type HashtagRepository interface {
	Repository[models.Hashtag, models.HashtagFilter]
	RandomActive(ctx context.Context, count int) ([]*models.Hashtag, error)
	IncrementUsage(ctx context.Context, ids []uint) error
}

// CaptionTemplateRepository defines operations for caption templates
type CaptionTemplateRepository interface {
	Repository[models.CaptionTemplate, models.CaptionTemplateFilter]
	ListActive(ctx context.Context) ([]*models.CaptionTemplate, error)
}
