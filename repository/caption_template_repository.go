package repository

import (
	"context"

	"github.com/skandydoc/instagram-automation-tool/models"
	"gorm.io/gorm"
)

// CaptionTemplateRepositoryImpl implements the CaptionTemplateRepository interface
type CaptionTemplateRepositoryImpl struct {
	*BaseRepository[models.CaptionTemplate, models.CaptionTemplateFilter]
}

// NewCaptionTemplateRepository creates a new caption template repository
func NewCaptionTemplateRepository(db *gorm.DB) CaptionTemplateRepository {
	return &CaptionTemplateRepositoryImpl{
		BaseRepository: NewBaseRepository[models.CaptionTemplate, models.CaptionTemplateFilter](db),
	}
}

// ListActive retrieves all active caption templates
func (r *CaptionTemplateRepositoryImpl) ListActive(ctx context.Context) ([]*models.CaptionTemplate, error) {
	active := true
	filter := models.CaptionTemplateFilter{IsActive: &active}
	return r.ByFilter(ctx, filter, "name ASC", 0, 0)
}

// ByFilter retrieves caption templates based on filter criteria
func (r *CaptionTemplateRepositoryImpl) ByFilter(ctx context.Context, filter models.CaptionTemplateFilter, orderBy string, limit, offset int) ([]*models.CaptionTemplate, error) {
	db := r.getDB(ctx)

	var templates []*models.CaptionTemplate
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

	err := query.Find(&templates).Error
	if err != nil {
		return nil, err
	}

	return templates, nil
}

// Count returns the number of caption templates matching the filter
func (r *CaptionTemplateRepositoryImpl) Count(ctx context.Context, filter models.CaptionTemplateFilter) (int64, error) {
	db := r.getDB(ctx)

	var count int64
	query := r.applyFilter(db.Model(&models.CaptionTemplate{}), filter)

	err := query.Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

// Exists checks if any caption template matching the filter exists
func (r *CaptionTemplateRepositoryImpl) Exists(ctx context.Context, filter models.CaptionTemplateFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// applyFilter applies filter conditions to the GORM query
func (r *CaptionTemplateRepositoryImpl) applyFilter(db *gorm.DB, filter models.CaptionTemplateFilter) *gorm.DB {
	if filter.ID != nil {
		db = db.Where("id = ?", *filter.ID)
	}
	if filter.Name != nil {
		db = db.Where("name = ?", *filter.Name)
	}
	if filter.Category != nil {
		db = db.Where("category = ?", *filter.Category)
	}
	if filter.IsActive != nil {
		db = db.Where("is_active = ?", *filter.IsActive)
	}

	return db
}
