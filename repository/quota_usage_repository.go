package repository

import (
	"context"
	"errors"

	"github.com/skandydoc/instagram-automation-tool/models"
	"github.com/skandydoc/instagram-automation-tool/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// QuotaUsageRepositoryImpl implements the QuotaUsageRepository interface.
// The check-and-increment is a single conditional UPDATE so concurrent
// reservations can never double-book the last slot of a day.
type QuotaUsageRepositoryImpl struct {
	*BaseRepository[models.QuotaUsage, models.QuotaUsageFilter]
}

// NewQuotaUsageRepository creates a new quota usage repository
func NewQuotaUsageRepository(db *gorm.DB) QuotaUsageRepository {
	return &QuotaUsageRepositoryImpl{
		BaseRepository: NewBaseRepository[models.QuotaUsage, models.QuotaUsageFilter](db),
	}
}

// TryReserve atomically increments the counters for (account, day) when
// capacity remains. Returns false when the ceiling is already reached.
func (r *QuotaUsageRepositoryImpl) TryReserve(ctx context.Context, accountID uint, day string, story bool, totalCeiling, storyCeiling int) (bool, error) {
	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return false, err
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

	// Ensure the counter row exists before the conditional increment.
	row := models.QuotaUsage{
		AccountID: accountID,
		Day:       day,
		CreatedAt: utils.UTCNow(),
	}
	err = db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "account_id"}, {Name: "day"}},
		DoNothing: true,
	}).Create(&row).Error
	if err != nil {
		return false, err
	}

	storyIncrement := 0
	if story {
		storyIncrement = 1
	}

	query := db.Model(&models.QuotaUsage{}).
		Where("account_id = ? AND day = ?", accountID, day).
		Where("total_used < ?", totalCeiling)
	if story {
		query = query.Where("story_used < ?", storyCeiling)
	}

	res := query.Updates(map[string]any{
		"total_used": gorm.Expr("total_used + 1"),
		"story_used": gorm.Expr("story_used + ?", storyIncrement),
		"updated_at": utils.UTCNow(),
	})
	if res.Error != nil {
		err = res.Error
		return false, err
	}

	return res.RowsAffected == 1, nil
}

// ReleaseOne decrements the counters for (account, day), never below zero
func (r *QuotaUsageRepositoryImpl) ReleaseOne(ctx context.Context, accountID uint, day string, story bool) error {
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

	storyDecrement := 0
	if story {
		storyDecrement = 1
	}

	res := db.Model(&models.QuotaUsage{}).
		Where("account_id = ? AND day = ?", accountID, day).
		Where("total_used > 0").
		Updates(map[string]any{
			"total_used": gorm.Expr("total_used - 1"),
			"story_used": gorm.Expr("GREATEST(story_used - ?, 0)", storyDecrement),
			"updated_at": utils.UTCNow(),
		})
	if res.Error != nil {
		err = res.Error
		return err
	}

	return nil
}

// Usage retrieves the counter row for (account, day); nil when absent
func (r *QuotaUsageRepositoryImpl) Usage(ctx context.Context, accountID uint, day string) (*models.QuotaUsage, error) {
	db := r.getDB(ctx)

	var usage models.QuotaUsage
	err := db.Where("account_id = ? AND day = ?", accountID, day).First(&usage).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &usage, nil
}
