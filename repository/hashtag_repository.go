package repository

import (
	"context"

	"github.com/skandydoc/instagram-automation-tool/models"
	"gorm.io/gorm"
)

// HashtagRepositoryImpl implements the HashtagRepository interface
type HashtagRepositoryImpl struct {
	*BaseRepository[models.Hashtag, models.HashtagFilter]
}

// NewHashtagRepository creates a new hashtag repository
func NewHashtagRepository(db *gorm.DB) HashtagRepository {
	return &HashtagRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Hashtag, models.HashtagFilter](db),
	}
}

// RandomActive retrieves up to count active hashtags in random order
func (r *HashtagRepositoryImpl) RandomActive(ctx context.Context, count int) ([]*models.Hashtag, error) {
	db := r.getDB(ctx)

	var hashtags []*models.Hashtag
	err := db.Where("is_active = ?", true).
		Order("RANDOM()").
		Limit(count).
		Find(&hashtags).Error
	if err != nil {
		return nil, err
	}

	return hashtags, nil
}

// IncrementUsage bumps the usage counter for the given hashtags
func (r *HashtagRepositoryImpl) IncrementUsage(ctx context.Context, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}

	db := r.getDB(ctx)
	return db.Model(&models.Hashtag{}).
		Where("id IN ?", ids).
		Update("usage_count", gorm.Expr("usage_count + 1")).Error
}

// ByFilter retrieves hashtags based on filter criteria
func (r *HashtagRepositoryImpl) ByFilter(ctx context.Context, filter models.HashtagFilter, orderBy string, limit, offset int) ([]*models.Hashtag, error) {
	db := r.getDB(ctx)

	var hashtags []*models.Hashtag
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

	err := query.Find(&hashtags).Error
	if err != nil {
		return nil, err
	}

	return hashtags, nil
}

// Count returns the number of hashtags matching the filter
func (r *HashtagRepositoryImpl) Count(ctx context.Context, filter models.HashtagFilter) (int64, error) {
	db := r.getDB(ctx)

	var count int64
	query := r.applyFilter(db.Model(&models.Hashtag{}), filter)

	err := query.Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

// Exists checks if any hashtag matching the filter exists
func (r *HashtagRepositoryImpl) Exists(ctx context.Context, filter models.HashtagFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// applyFilter applies filter conditions to the GORM query
func (r *HashtagRepositoryImpl) applyFilter(db *gorm.DB, filter models.HashtagFilter) *gorm.DB {
	if filter.ID != nil {
		db = db.Where("id = ?", *filter.ID)
	}
	if filter.Category != nil {
		db = db.Where("category = ?", *filter.Category)
	}
	if filter.IsActive != nil {
		db = db.Where("is_active = ?", *filter.IsActive)
	}

	return db
}
