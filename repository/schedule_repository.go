package repository

import (
	"context"

	"github.com/skandydoc/instagram-automation-tool/models"
	"github.com/skandydoc/instagram-automation-tool/utils"
	"gorm.io/gorm"
)

// PostingScheduleRepositoryImpl implements the PostingScheduleRepository interface
type PostingScheduleRepositoryImpl struct {
	*BaseRepository[models.PostingSchedule, models.PostingScheduleFilter]
}

// NewPostingScheduleRepository creates a new posting schedule repository
func NewPostingScheduleRepository(db *gorm.DB) PostingScheduleRepository {
	return &PostingScheduleRepositoryImpl{
		BaseRepository: NewBaseRepository[models.PostingSchedule, models.PostingScheduleFilter](db),
	}
}

// ActiveByAccountID retrieves the active schedule config for an account
func (r *PostingScheduleRepositoryImpl) ActiveByAccountID(ctx context.Context, accountID uint) (*models.PostingSchedule, error) {
	active := true
	filter := models.PostingScheduleFilter{AccountID: &accountID, IsActive: &active}
	schedules, err := r.ByFilter(ctx, filter, "", 1, 0)
	if err != nil {
		return nil, err
	}

	if len(schedules) == 0 {
		return nil, nil
	}

	return schedules[0], nil
}

// Update updates a posting schedule
func (r *PostingScheduleRepositoryImpl) Update(ctx context.Context, schedule *models.PostingSchedule) error {
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

	schedule.UpdatedAt = utils.UTCNowPtr()

	err = db.Save(schedule).Error
	if err != nil {
		return err
	}

	return nil
}

// ByFilter retrieves posting schedules based on filter criteria
func (r *PostingScheduleRepositoryImpl) ByFilter(ctx context.Context, filter models.PostingScheduleFilter, orderBy string, limit, offset int) ([]*models.PostingSchedule, error) {
	db := r.getDB(ctx)

	var schedules []*models.PostingSchedule
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

	err := query.Find(&schedules).Error
	if err != nil {
		return nil, err
	}

	return schedules, nil
}

// Count returns the number of posting schedules matching the filter
func (r *PostingScheduleRepositoryImpl) Count(ctx context.Context, filter models.PostingScheduleFilter) (int64, error) {
	db := r.getDB(ctx)

	var count int64
	var schedule models.PostingSchedule
	query := r.applyFilter(db.Model(&schedule), filter)

	err := query.Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

// Exists checks if any posting schedule matching the filter exists
func (r *PostingScheduleRepositoryImpl) Exists(ctx context.Context, filter models.PostingScheduleFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// applyFilter applies filter conditions to the GORM query
func (r *PostingScheduleRepositoryImpl) applyFilter(db *gorm.DB, filter models.PostingScheduleFilter) *gorm.DB {
	if filter.ID != nil {
		db = db.Where("id = ?", *filter.ID)
	}
	if filter.AccountID != nil {
		db = db.Where("account_id = ?", *filter.AccountID)
	}
	if filter.IsActive != nil {
		db = db.Where("is_active = ?", *filter.IsActive)
	}

	return db
}
