package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/skandydoc/instagram-automation-tool/models"
	"github.com/skandydoc/instagram-automation-tool/utils"
	"gorm.io/gorm"
)

// PostRepositoryImpl implements the PostRepository interface
type PostRepositoryImpl struct {
	*BaseRepository[models.Post, models.PostFilter]
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &PostRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Post, models.PostFilter](db),
	}
}

// ByUUID retrieves a post by UUID
func (r *PostRepositoryImpl) ByUUID(ctx context.Context, uuidStr string) (*models.Post, error) {
	parsedUUID, err := uuid.Parse(uuidStr)
	if err != nil {
		return nil, fmt.Errorf("invalid post UUID %q: %w", uuidStr, err)
	}

	filter := models.PostFilter{UUID: &parsedUUID}
	posts, err := r.ByFilter(ctx, filter, "", 1, 0)
	if err != nil {
		return nil, err
	}

	if len(posts) == 0 {
		return nil, nil
	}

	return posts[0], nil
}

// ByAccountID retrieves posts for an account with pagination
func (r *PostRepositoryImpl) ByAccountID(ctx context.Context, accountID uint, limit, offset int) ([]*models.Post, error) {
	filter := models.PostFilter{AccountID: &accountID}
	return r.ByFilter(ctx, filter, "created_at DESC", limit, offset)
}

// Update updates a post
func (r *PostRepositoryImpl) Update(ctx context.Context, post *models.Post) error {
	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return err
	}

	if shouldCommit {
		defer func() {
			if err != nil {
				db.Rollback()
			} else {
				db.Commit()
			}
		}()
	}

	post.UpdatedAt = utils.UTCNowPtr()

	err = db.Save(post).Error
	if err != nil {
		return err
	}

	return nil
}

// ListScheduledBetween retrieves posts in scheduled status whose scheduled
// instant lies in [from, to). Used for spacing collision detection.
func (r *PostRepositoryImpl) ListScheduledBetween(ctx context.Context, from, to time.Time) ([]*models.Post, error) {
	db := r.getDB(ctx)

	var posts []*models.Post
	err := db.Where("status = ?", models.PostStatusScheduled).
		Where("scheduled_time >= ? AND scheduled_time < ?", from, to).
		Order("scheduled_time ASC").
		Find(&posts).Error
	if err != nil {
		return nil, err
	}

	return posts, nil
}

// ListDue retrieves scheduled posts whose due instant (next_attempt_at when
// retrying, scheduled_time otherwise) has arrived, oldest first. Ordering by
// account then scheduled instant preserves FIFO dispatch per account.
func (r *PostRepositoryImpl) ListDue(ctx context.Context, now time.Time, limit int) ([]*models.Post, error) {
	db := r.getDB(ctx)

	var posts []*models.Post
	query := db.Where("status = ?", models.PostStatusScheduled).
		Where("COALESCE(next_attempt_at, scheduled_time) <= ?", now).
		Order("account_id ASC, scheduled_time ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	err := query.Find(&posts).Error
	if err != nil {
		return nil, err
	}

	return posts, nil
}

// Claim takes the dispatch lease for a post. The conditional update is the
// atomic guard that keeps at most one dispatch attempt in flight per post;
// an expired lease (crashed worker) may be reclaimed.
func (r *PostRepositoryImpl) Claim(ctx context.Context, postID uint, now time.Time, lease time.Duration) (bool, error) {
	db := r.getDB(ctx)

	res := db.Model(&models.Post{}).
		Where("id = ? AND status = ?", postID, models.PostStatusScheduled).
		Where("claimed_at IS NULL OR claimed_at < ?", now.Add(-lease)).
		Updates(map[string]any{
			"claimed_at": now,
			"updated_at": utils.UTCNow(),
		})
	if res.Error != nil {
		return false, res.Error
	}

	return res.RowsAffected == 1, nil
}

// ClearClaim releases the dispatch lease
func (r *PostRepositoryImpl) ClearClaim(ctx context.Context, postID uint) error {
	db := r.getDB(ctx)
	return db.Model(&models.Post{}).
		Where("id = ?", postID).
		Updates(map[string]any{
			"claimed_at": nil,
			"updated_at": utils.UTCNow(),
		}).Error
}

// ByFilter retrieves posts based on filter criteria
func (r *PostRepositoryImpl) ByFilter(ctx context.Context, filter models.PostFilter, orderBy string, limit, offset int) ([]*models.Post, error) {
	db := r.getDB(ctx)

	var posts []*models.Post
	query := r.applyFilter(db, filter)

	if orderBy != "" {
		query = query.Order(orderBy)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	query = query.Preload("Account")

	err := query.Find(&posts).Error
	if err != nil {
		return nil, err
	}

	return posts, nil
}

// Count returns the number of posts matching the filter
func (r *PostRepositoryImpl) Count(ctx context.Context, filter models.PostFilter) (int64, error) {
	db := r.getDB(ctx)

	var count int64
	var post models.Post
	query := r.applyFilter(db.Model(&post), filter)

	err := query.Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

// Exists checks if any post matching the filter exists
func (r *PostRepositoryImpl) Exists(ctx context.Context, filter models.PostFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// applyFilter applies filter conditions to the GORM query
func (r *PostRepositoryImpl) applyFilter(db *gorm.DB, filter models.PostFilter) *gorm.DB {
	if filter.ID != nil {
		db = db.Where("id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		db = db.Where("uuid = ?", *filter.UUID)
	}
	if filter.AccountID != nil {
		db = db.Where("account_id = ?", *filter.AccountID)
	}
	if filter.Status != nil {
		db = db.Where("status = ?", *filter.Status)
	}
	if filter.ContentType != nil {
		db = db.Where("content_type = ?", *filter.ContentType)
	}
	if filter.ScheduleType != nil {
		db = db.Where("schedule_type = ?", *filter.ScheduleType)
	}
	if filter.QuotaDay != nil {
		db = db.Where("quota_day = ?", *filter.QuotaDay)
	}
	if filter.ScheduledAfter != nil {
		db = db.Where("scheduled_time >= ?", *filter.ScheduledAfter)
	}
	if filter.ScheduledBefore != nil {
		db = db.Where("scheduled_time < ?", *filter.ScheduledBefore)
	}
	if filter.CreatedAfter != nil {
		db = db.Where("created_at >= ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		db = db.Where("created_at < ?", *filter.CreatedBefore)
	}

	return db
}
