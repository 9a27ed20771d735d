package businessflow

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/skandydoc/instagram-automation-tool/app/dto"
	"github.com/skandydoc/instagram-automation-tool/models"
	"github.com/skandydoc/instagram-automation-tool/repository"
	"github.com/skandydoc/instagram-automation-tool/utils"
	"gorm.io/gorm"
)

// maxSpacingNudges bounds the one-minute nudge loop. 240 nudges is four
// hours of shifting, far beyond any realistic collision cluster.
const maxSpacingNudges = 240

// AllocationFlow turns a post submission into a persisted scheduled post:
// it resolves the schedule type to a concrete instant, reserves daily quota,
// resolves spacing collisions, and composes the caption.
type AllocationFlow interface {
	CreatePost(ctx context.Context, req *dto.CreatePostRequest, metadata *ClientMetadata) (*dto.CreatePostResponse, error)
}

type allocationFlow struct {
	accountRepo repository.AccountRepository
	postRepo    repository.PostRepository
	quotaFlow   QuotaFlow
	captionFlow CaptionFlow
	slots       *SlotCalculator
	clock       Clock
	db          *gorm.DB
}

// NewAllocationFlow creates the post allocation flow
func NewAllocationFlow(
	accountRepo repository.AccountRepository,
	postRepo repository.PostRepository,
	quotaFlow QuotaFlow,
	captionFlow CaptionFlow,
	slots *SlotCalculator,
	clock Clock,
	db *gorm.DB,
) AllocationFlow {
	return &allocationFlow{
		accountRepo: accountRepo,
		postRepo:    postRepo,
		quotaFlow:   quotaFlow,
		captionFlow: captionFlow,
		slots:       slots,
		clock:       clock,
		db:          db,
	}
}

// CreatePost implements AllocationFlow
func (f *allocationFlow) CreatePost(ctx context.Context, req *dto.CreatePostRequest, metadata *ClientMetadata) (*dto.CreatePostResponse, error) {
	contentType := models.ContentType(req.ContentType)
	scheduleType := models.ScheduleType(req.ScheduleType)

	if !contentType.Valid() {
		return nil, NewBusinessError("INVALID_CONTENT_TYPE", fmt.Sprintf("unknown content type %q", req.ContentType), ErrInvalidContentType)
	}
	if !scheduleType.Valid() {
		return nil, NewBusinessError("INVALID_SCHEDULE_TYPE", fmt.Sprintf("unknown schedule type %q", req.ScheduleType), ErrInvalidScheduleType)
	}
	if len(req.MediaURLs) == 0 {
		return nil, NewBusinessError("MEDIA_REQUIRED", "at least one media URL is required", ErrMediaRequired)
	}
	if scheduleType == models.ScheduleTypeAutoStory && contentType != models.ContentTypeStory {
		return nil, NewBusinessError("INVALID_CONTENT_TYPE", "auto_story scheduling requires story content", ErrInvalidContentType)
	}

	account, err := f.accountRepo.ByUUID(ctx, req.AccountUUID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up account: %w", err)
	}
	if account == nil {
		return nil, NewBusinessError("ACCOUNT_NOT_FOUND", "account not found", ErrAccountNotFound)
	}
	if !account.CanSchedule() {
		return nil, NewBusinessError("ACCOUNT_INACTIVE", "account is deactivated", ErrAccountInactive)
	}

	loc := f.accountLocation(account)
	now := f.clock.Now()
	// Stories scheduled through the cadence count against the story cap.
	story := scheduleType == models.ScheduleTypeAutoStory

	scheduledTime, reservation, err := f.allocate(ctx, account, scheduleType, req.ScheduledTime, now, loc, story)
	if err != nil {
		return nil, err
	}

	// A placement only becomes visible to other spacing checks once the post
	// row exists, so the allocation lock must span spacing and persist.
	lockAllocation()
	defer unlockAllocation()

	scheduledTime, reservation, err = f.resolveSpacing(ctx, account, scheduledTime, reservation, loc, story)
	if err != nil {
		return nil, err
	}

	caption, err := f.captionFlow.Compose(ctx, account, CaptionRequest{
		Caption:      req.Caption,
		TemplateName: req.TemplateName,
		CustomText:   req.CustomText,
		AddHashtags:  req.AddHashtags,
	}, scheduledTime)
	if err != nil {
		f.releaseQuietly(ctx, reservation)
		return nil, err
	}

	post := &models.Post{
		UUID:          uuid.New(),
		AccountID:     account.ID,
		ContentType:   contentType,
		ScheduleType:  scheduleType,
		Caption:       caption,
		MediaURLs:     models.MediaURLs(req.MediaURLs),
		ScheduledTime: scheduledTime,
		Status:        models.PostStatusScheduled,
		QuotaDay:      reservation.Day,
		CreatedAt:     now,
	}

	if err := f.persist(ctx, post); err != nil {
		f.releaseQuietly(ctx, reservation)
		return nil, fmt.Errorf("failed to persist post: %w", err)
	}

	return &dto.CreatePostResponse{
		UUID:          post.UUID.String(),
		Status:        post.Status.String(),
		ScheduleType:  string(post.ScheduleType),
		ScheduledTime: post.ScheduledTime.Format(time.RFC3339),
		QuotaDay:      post.QuotaDay,
	}, nil
}

func (f *allocationFlow) accountLocation(account *models.Account) *time.Location {
	if account.Schedule != nil {
		if loc, err := account.Schedule.Location(); err == nil {
			return loc
		}
	}
	loc, err := time.LoadLocation(utils.DefaultTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// allocate resolves the schedule type to a concrete instant and reserves
// quota for its calendar day.
func (f *allocationFlow) allocate(ctx context.Context, account *models.Account, scheduleType models.ScheduleType, requestedTime *string, now time.Time, loc *time.Location, story bool) (time.Time, *QuotaReservation, error) {
	switch scheduleType {
	case models.ScheduleTypeNow:
		t := now.Add(f.slots.JitterWithin(utils.NowScheduleMaxJitter))
		res, err := f.reserveFor(ctx, account, t, loc, story)
		return t, res, err

	case models.ScheduleTypeSpecific:
		if requestedTime == nil || *requestedTime == "" {
			return time.Time{}, nil, NewBusinessError("SCHEDULE_TIME_REQUIRED", "specific scheduling requires a scheduled_time", ErrScheduleTimeNotPresent)
		}
		t, err := time.Parse(time.RFC3339, *requestedTime)
		if err != nil {
			return time.Time{}, nil, NewBusinessError("SCHEDULE_TIME_INVALID", fmt.Sprintf("unparseable scheduled_time %q", *requestedTime), ErrScheduleTimeNotPresent)
		}
		t = t.UTC()
		if t.Before(now) {
			return time.Time{}, nil, NewBusinessError("SCHEDULE_TIME_IN_PAST", "scheduled_time is in the past", ErrScheduleTimeInPast)
		}
		if t.After(now.AddDate(0, 0, utils.SchedulingHorizonDays)) {
			return time.Time{}, nil, NewBusinessError("SCHEDULING_HORIZON_EXCEEDED", fmt.Sprintf("scheduled_time is beyond the %d-day horizon", utils.SchedulingHorizonDays), ErrSchedulingHorizonExceeded)
		}
		res, err := f.reserveFor(ctx, account, t, loc, story)
		return t, res, err

	case models.ScheduleTypeNextSlot:
		return f.allocateNextSlot(ctx, account, now, loc, story)

	case models.ScheduleTypeQueue:
		return f.allocateQueued(ctx, account, now, loc, story)

	case models.ScheduleTypeAutoStory:
		return f.allocateStorySlot(ctx, account, now, loc)

	default:
		return time.Time{}, nil, NewBusinessError("INVALID_SCHEDULE_TYPE", fmt.Sprintf("unknown schedule type %q", scheduleType), ErrInvalidScheduleType)
	}
}

func (f *allocationFlow) reserveFor(ctx context.Context, account *models.Account, t time.Time, loc *time.Location, story bool) (*QuotaReservation, error) {
	day := utils.CalendarDay(t, loc)
	return f.quotaFlow.Reserve(ctx, account, day, story)
}

// nextConfiguredSlot returns the earliest jittered schedule slot strictly
// after now. Jitter can pull today's upcoming slot into the past, so the
// computation retries against later base slots until one lands in the future.
func (f *allocationFlow) nextConfiguredSlot(account *models.Account, now time.Time, loc *time.Location) (time.Time, error) {
	schedule := account.Schedule
	if schedule == nil || !utils.IsTrue(schedule.IsActive) {
		return time.Time{}, NewBusinessError("SCHEDULE_NOT_CONFIGURED", "account has no active posting schedule", ErrConfigurationError)
	}

	morning, evening, err := schedule.Slots()
	if err != nil {
		return time.Time{}, NewBusinessError("SCHEDULE_INVALID", "posting schedule has invalid slots", ErrConfigurationError)
	}

	for dayOffset := 0; dayOffset <= utils.SchedulingHorizonDays; dayOffset++ {
		date := now.In(loc).AddDate(0, 0, dayOffset)
		for _, base := range orderedSlots(morning, evening) {
			t := f.slots.ComputeJitteredTime(base, schedule.VarianceMinutes, date, loc)
			if t.After(now) {
				return t, nil
			}
		}
	}

	return time.Time{}, ErrSchedulingHorizonExceeded
}

// allocateNextSlot books the earliest configured slot strictly after now.
// When that slot's day has no quota left, the search restarts from the
// following midnight so the post lands on the next day's first slot instead
// of failing.
func (f *allocationFlow) allocateNextSlot(ctx context.Context, account *models.Account, now time.Time, loc *time.Location, story bool) (time.Time, *QuotaReservation, error) {
	searchFrom := now
	for attempts := 0; attempts <= utils.SchedulingHorizonDays; attempts++ {
		t, err := f.nextConfiguredSlot(account, searchFrom, loc)
		if err != nil {
			return time.Time{}, nil, err
		}
		res, rerr := f.reserveFor(ctx, account, t, loc, story)
		if rerr == nil {
			return t, res, nil
		}
		if !IsQuotaExceeded(rerr) {
			return time.Time{}, nil, rerr
		}
		d := t.In(loc)
		searchFrom = time.Date(d.Year(), d.Month(), d.Day()+1, 0, 0, 0, 0, loc)
	}

	return time.Time{}, nil, NewBusinessError("SCHEDULING_HORIZON_EXCEEDED", fmt.Sprintf("no slot capacity within %d days", utils.SchedulingHorizonDays), ErrSchedulingHorizonExceeded)
}

func orderedSlots(a, b utils.TimeOfDay) []utils.TimeOfDay {
	if b.Minutes() < a.Minutes() {
		a, b = b, a
	}
	return []utils.TimeOfDay{a, b}
}

// allocateQueued walks forward day by day and books the first configured
// slot on the earliest day that still has quota capacity.
func (f *allocationFlow) allocateQueued(ctx context.Context, account *models.Account, now time.Time, loc *time.Location, story bool) (time.Time, *QuotaReservation, error) {
	schedule := account.Schedule
	if schedule == nil || !utils.IsTrue(schedule.IsActive) {
		return time.Time{}, nil, NewBusinessError("SCHEDULE_NOT_CONFIGURED", "account has no active posting schedule", ErrConfigurationError)
	}
	morning, evening, err := schedule.Slots()
	if err != nil {
		return time.Time{}, nil, NewBusinessError("SCHEDULE_INVALID", "posting schedule has invalid slots", ErrConfigurationError)
	}

	for dayOffset := 0; dayOffset <= utils.SchedulingHorizonDays; dayOffset++ {
		date := now.In(loc).AddDate(0, 0, dayOffset)
		for _, base := range orderedSlots(morning, evening) {
			t := f.slots.ComputeJitteredTime(base, schedule.VarianceMinutes, date, loc)
			if !t.After(now) {
				continue
			}
			res, rerr := f.reserveFor(ctx, account, t, loc, story)
			if rerr != nil {
				if IsQuotaExceeded(rerr) {
					// Day is full, move on to the next one.
					break
				}
				return time.Time{}, nil, rerr
			}
			return t, res, nil
		}
	}

	return time.Time{}, nil, NewBusinessError("SCHEDULING_HORIZON_EXCEEDED", fmt.Sprintf("no queue capacity within %d days", utils.SchedulingHorizonDays), ErrSchedulingHorizonExceeded)
}

// allocateStorySlot books the next story cadence slot whose day still has
// story capacity. The cadence is anchored at the window start each day, so
// slot times stay stable regardless of when submissions arrive.
func (f *allocationFlow) allocateStorySlot(ctx context.Context, account *models.Account, now time.Time, loc *time.Location) (time.Time, *QuotaReservation, error) {
	slotsPerDay := int(24*time.Hour/utils.StorySlotInterval) + 1
	candidates, err := f.slots.GenerateRecurringSlots(
		now, utils.StorySlotInterval,
		utils.StoryWindowStart, utils.StoryWindowEnd,
		slotsPerDay*utils.SchedulingHorizonDays, loc,
	)
	if err != nil {
		return time.Time{}, nil, err
	}

	exhaustedDays := make(map[string]bool)
	for _, t := range candidates {
		day := utils.CalendarDay(t, loc)
		if exhaustedDays[day] {
			continue
		}
		res, rerr := f.quotaFlow.Reserve(ctx, account, day, true)
		if rerr != nil {
			if IsQuotaExceeded(rerr) {
				exhaustedDays[day] = true
				continue
			}
			return time.Time{}, nil, rerr
		}
		return t, res, nil
	}

	return time.Time{}, nil, NewBusinessError("SCHEDULING_HORIZON_EXCEEDED", fmt.Sprintf("no story capacity within %d days", utils.SchedulingHorizonDays), ErrSchedulingHorizonExceeded)
}

// resolveSpacing nudges the scheduled instant forward in one-minute steps
// until it keeps the minimum distance to every other scheduled post: five
// minutes within the same account, thirty seconds across accounts. The
// caller holds the allocation lock, so concurrent submissions see each
// other's placements. A nudge that crosses into the next calendar day
// re-reserves quota on the new day before giving up the old reservation.
func (f *allocationFlow) resolveSpacing(ctx context.Context, account *models.Account, t time.Time, reservation *QuotaReservation, loc *time.Location, story bool) (time.Time, *QuotaReservation, error) {
	for nudges := 0; nudges <= maxSpacingNudges; nudges++ {
		nearby, err := f.postRepo.ListScheduledBetween(ctx, t.Add(-utils.SameAccountMinSpacing), t.Add(utils.SameAccountMinSpacing))
		if err != nil {
			f.releaseQuietly(ctx, reservation)
			return time.Time{}, nil, fmt.Errorf("failed to check spacing: %w", err)
		}

		if !hasSpacingConflict(nearby, account.ID, t) {
			return t, reservation, nil
		}

		next := t.Add(utils.SpacingNudgeIncrement)
		nextDay := utils.CalendarDay(next, loc)
		if nextDay != reservation.Day {
			newRes, rerr := f.quotaFlow.Reserve(ctx, account, nextDay, story)
			if rerr != nil {
				f.releaseQuietly(ctx, reservation)
				return time.Time{}, nil, rerr
			}
			f.releaseQuietly(ctx, reservation)
			reservation = newRes
		}
		t = next
	}

	f.releaseQuietly(ctx, reservation)
	return time.Time{}, nil, NewBusinessError("SPACING_UNRESOLVABLE", "could not find a conflict-free slot near the requested time", ErrSchedulingHorizonExceeded)
}

func hasSpacingConflict(nearby []*models.Post, accountID uint, t time.Time) bool {
	for _, p := range nearby {
		delta := p.ScheduledTime.Sub(t)
		if delta < 0 {
			delta = -delta
		}
		if p.AccountID == accountID {
			if delta < utils.SameAccountMinSpacing {
				return true
			}
			continue
		}
		if delta < utils.GlobalMinSpacing {
			return true
		}
	}
	return false
}

func (f *allocationFlow) releaseQuietly(ctx context.Context, reservation *QuotaReservation) {
	// The post was never persisted, so failing to release only wastes a
	// quota slot until the day rolls over.
	_ = f.quotaFlow.Release(ctx, reservation)
}

func (f *allocationFlow) persist(ctx context.Context, post *models.Post) error {
	if f.db == nil {
		return f.postRepo.Save(ctx, post)
	}
	return repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
		return f.postRepo.Save(txCtx, post)
	})
}
