package testing

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/skandydoc/instagram-automation-tool/models"
	"github.com/skandydoc/instagram-automation-tool/utils"
	"gorm.io/gorm"
)

// TestFixtures provides helper functions for creating test data
type TestFixtures struct {
	DB *gorm.DB
}

// NewTestFixtures creates a new test fixtures instance
func NewTestFixtures(db *gorm.DB) *TestFixtures {
	return &TestFixtures{DB: db}
}

// CreateTestAccount creates a test account with an attached posting schedule
func (f *TestFixtures) CreateTestAccount(overrides ...func(*models.Account)) (*models.Account, error) {
	suffix := rand.Intn(1000000)
	account := &models.Account{
		UUID:         uuid.New(),
		Username:     fmt.Sprintf("test_account_%d", suffix),
		InstagramID:  fmt.Sprintf("1784%010d", suffix),
		AccessToken:  fmt.Sprintf("EAATest%d", suffix),
		AccountType:  "business",
		Niche:        utils.ToPtr("fitness"),
		DailyCeiling: utils.DefaultDailyPostCeiling,
		IsActive:     utils.ToPtr(true),
		CreatedAt:    utils.UTCNow(),
	}

	for _, override := range overrides {
		override(account)
	}

	if err := f.DB.Create(account).Error; err != nil {
		return nil, fmt.Errorf("failed to create test account: %w", err)
	}

	schedule := &models.PostingSchedule{
		AccountID:       account.ID,
		MorningSlot:     "13:00",
		EveningSlot:     "22:00",
		Timezone:        utils.DefaultTimezone,
		VarianceMinutes: 15,
		IsActive:        utils.ToPtr(true),
	}
	if err := f.DB.Create(schedule).Error; err != nil {
		return nil, fmt.Errorf("failed to create test posting schedule: %w", err)
	}
	account.Schedule = schedule

	return account, nil
}

// CreateTestPost creates a test post for the given account
func (f *TestFixtures) CreateTestPost(account *models.Account, overrides ...func(*models.Post)) (*models.Post, error) {
	scheduledTime := utils.UTCNow().Add(2 * time.Hour)
	post := &models.Post{
		UUID:          uuid.New(),
		AccountID:     account.ID,
		ContentType:   models.ContentTypeFeed,
		ScheduleType:  models.ScheduleTypeQueue,
		Caption:       utils.ToPtr("Test caption"),
		MediaURLs:     models.MediaURLs{"https://cdn.example.com/test.jpg"},
		ScheduledTime: scheduledTime,
		Status:        models.PostStatusScheduled,
		QuotaDay:      utils.CalendarDay(scheduledTime, time.UTC),
		CreatedAt:     utils.UTCNow(),
	}

	for _, override := range overrides {
		override(post)
	}

	if err := f.DB.Create(post).Error; err != nil {
		return nil, fmt.Errorf("failed to create test post: %w", err)
	}

	return post, nil
}

// CreateTestQuotaUsage seeds a quota counter row for the given account and day
func (f *TestFixtures) CreateTestQuotaUsage(account *models.Account, day string, totalUsed, storyUsed int) (*models.QuotaUsage, error) {
	usage := &models.QuotaUsage{
		AccountID: account.ID,
		Day:       day,
		TotalUsed: totalUsed,
		StoryUsed: storyUsed,
		CreatedAt: utils.UTCNow(),
	}

	if err := f.DB.Create(usage).Error; err != nil {
		return nil, fmt.Errorf("failed to create test quota usage: %w", err)
	}

	return usage, nil
}

// CreateTestHashtags seeds the shared hashtag repository
func (f *TestFixtures) CreateTestHashtags(tags ...string) ([]*models.Hashtag, error) {
	if len(tags) == 0 {
		tags = []string{"fitness", "health", "motivation", "workout", "wellness"}
	}

	hashtags := make([]*models.Hashtag, 0, len(tags))
	for _, tag := range tags {
		hashtag := &models.Hashtag{
			Hashtag:  tag,
			Category: utils.ToPtr("general"),
			IsActive: utils.ToPtr(true),
		}
		if err := f.DB.Create(hashtag).Error; err != nil {
			return nil, fmt.Errorf("failed to create test hashtag %s: %w", tag, err)
		}
		hashtags = append(hashtags, hashtag)
	}

	return hashtags, nil
}

// CreateTestCaptionTemplate creates a reusable caption template
func (f *TestFixtures) CreateTestCaptionTemplate(name, template string) (*models.CaptionTemplate, error) {
	tmpl := &models.CaptionTemplate{
		Name:     name,
		Template: template,
		Category: utils.ToPtr("general"),
		IsActive: utils.ToPtr(true),
	}

	if err := f.DB.Create(tmpl).Error; err != nil {
		return nil, fmt.Errorf("failed to create test caption template: %w", err)
	}

	return tmpl, nil
}
