package businessflow

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/skandydoc/instagram-automation-tool/models"
	"github.com/skandydoc/instagram-automation-tool/repository"
	"github.com/skandydoc/instagram-automation-tool/utils"
)

// QuotaReservation is the token handed out by a successful Reserve call.
// Releasing it twice is a no-op.
type QuotaReservation struct {
	AccountID uint
	Day       string
	Story     bool

	released bool
}

// QuotaFlow is the only component allowed to touch the per-day counters
type QuotaFlow interface {
	// Reserve atomically claims one slot of the account's daily quota.
	// On exhaustion it returns a QuotaExceededError carrying the next
	// calendar day with capacity.
	Reserve(ctx context.Context, account *models.Account, day string, story bool) (*QuotaReservation, error)
	// Release returns a reserved slot, e.g. when a scheduled post is
	// cancelled before posting. Releasing the same token twice is a no-op.
	Release(ctx context.Context, reservation *QuotaReservation) error
	// ReleaseDay frees one slot for (account, day) without a token; used
	// when cancelling an already-persisted post.
	ReleaseDay(ctx context.Context, account *models.Account, day string, story bool) error
	// RemainingQuota reports how many posts the account may still schedule
	// on the given calendar day.
	RemainingQuota(ctx context.Context, account *models.Account, day string) (int, error)
	// NextDayWithCapacity scans forward from the day after start for the
	// first calendar day that still has capacity.
	NextDayWithCapacity(ctx context.Context, account *models.Account, start string, story bool, loc *time.Location) (string, error)
}

type quotaFlow struct {
	quotaRepo repository.QuotaUsageRepository
	locks     *accountLocks
	rc        *redis.Client
	cacheTTL  time.Duration
}

// NewQuotaFlow creates the quota ledger. The redis client is optional and
// only accelerates RemainingQuota reads.
func NewQuotaFlow(quotaRepo repository.QuotaUsageRepository, rc *redis.Client) QuotaFlow {
	return &quotaFlow{
		quotaRepo: quotaRepo,
		locks:     newAccountLocks(),
		rc:        rc,
		cacheTTL:  30 * time.Second,
	}
}

func (f *quotaFlow) ceilings(account *models.Account) (int, int) {
	total := account.DailyCeiling
	if total <= 0 {
		total = utils.DefaultDailyPostCeiling
	}
	return total, utils.AutoStoryDailyCap
}

func (f *quotaFlow) cacheKey(accountID uint, day string) string {
	return fmt.Sprintf("quota:%d:%s", accountID, day)
}

func (f *quotaFlow) invalidateCache(ctx context.Context, accountID uint, day string) {
	if f.rc == nil {
		return
	}
	// Best effort; a stale cache entry only affects the read path.
	_ = f.rc.Del(ctx, f.cacheKey(accountID, day)).Err()
}

// Reserve implements QuotaFlow
func (f *quotaFlow) Reserve(ctx context.Context, account *models.Account, day string, story bool) (*QuotaReservation, error) {
	m := f.locks.lock(account.ID)
	defer m.Unlock()

	totalCeiling, storyCeiling := f.ceilings(account)

	ok, err := f.quotaRepo.TryReserve(ctx, account.ID, day, story, totalCeiling, storyCeiling)
	if err != nil {
		return nil, fmt.Errorf("quota reservation failed: %w", err)
	}
	if !ok {
		loc := time.UTC
		if account.Schedule != nil {
			if l, lerr := account.Schedule.Location(); lerr == nil {
				loc = l
			}
		}
		suggested, serr := f.nextDayWithCapacityLocked(ctx, account, day, story, loc)
		if serr != nil {
			suggested = ""
		}
		return nil, &QuotaExceededError{AccountID: account.ID, Day: day, SuggestedDay: suggested}
	}

	f.invalidateCache(ctx, account.ID, day)

	return &QuotaReservation{AccountID: account.ID, Day: day, Story: story}, nil
}

// Release implements QuotaFlow
func (f *quotaFlow) Release(ctx context.Context, reservation *QuotaReservation) error {
	if reservation == nil || reservation.released {
		return nil
	}

	m := f.locks.lock(reservation.AccountID)
	defer m.Unlock()

	if reservation.released {
		return nil
	}

	if err := f.quotaRepo.ReleaseOne(ctx, reservation.AccountID, reservation.Day, reservation.Story); err != nil {
		return fmt.Errorf("quota release failed: %w", err)
	}

	reservation.released = true
	f.invalidateCache(ctx, reservation.AccountID, reservation.Day)

	return nil
}

// ReleaseDay implements QuotaFlow
func (f *quotaFlow) ReleaseDay(ctx context.Context, account *models.Account, day string, story bool) error {
	m := f.locks.lock(account.ID)
	defer m.Unlock()

	if err := f.quotaRepo.ReleaseOne(ctx, account.ID, day, story); err != nil {
		return fmt.Errorf("quota release failed: %w", err)
	}

	f.invalidateCache(ctx, account.ID, day)

	return nil
}

// RemainingQuota implements QuotaFlow
func (f *quotaFlow) RemainingQuota(ctx context.Context, account *models.Account, day string) (int, error) {
	if f.rc != nil {
		if cached, err := f.rc.Get(ctx, f.cacheKey(account.ID, day)).Int(); err == nil {
			return cached, nil
		}
	}

	totalCeiling, _ := f.ceilings(account)

	usage, err := f.quotaRepo.Usage(ctx, account.ID, day)
	if err != nil {
		return 0, err
	}

	remaining := totalCeiling
	if usage != nil {
		remaining = totalCeiling - usage.TotalUsed
	}
	if remaining < 0 {
		remaining = 0
	}

	if f.rc != nil {
		_ = f.rc.Set(ctx, f.cacheKey(account.ID, day), remaining, f.cacheTTL).Err()
	}

	return remaining, nil
}

// NextDayWithCapacity implements QuotaFlow
func (f *quotaFlow) NextDayWithCapacity(ctx context.Context, account *models.Account, start string, story bool, loc *time.Location) (string, error) {
	m := f.locks.lock(account.ID)
	defer m.Unlock()
	return f.nextDayWithCapacityLocked(ctx, account, start, story, loc)
}

func (f *quotaFlow) nextDayWithCapacityLocked(ctx context.Context, account *models.Account, start string, story bool, loc *time.Location) (string, error) {
	totalCeiling, storyCeiling := f.ceilings(account)

	day := start
	for i := 0; i < utils.SchedulingHorizonDays; i++ {
		next, err := utils.NextCalendarDay(day, loc)
		if err != nil {
			return "", err
		}
		day = next

		usage, err := f.quotaRepo.Usage(ctx, account.ID, day)
		if err != nil {
			return "", err
		}
		if usage == nil {
			return day, nil
		}
		if usage.TotalUsed < totalCeiling && (!story || usage.StoryUsed < storyCeiling) {
			return day, nil
		}
	}

	return "", ErrSchedulingHorizonExceeded
}
