package businessflow

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/skandydoc/instagram-automation-tool/models"
	"github.com/skandydoc/instagram-automation-tool/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeQuotaRepo is an in-memory QuotaUsageRepository with the same
// check-and-increment semantics as the SQL implementation.
type fakeQuotaRepo struct {
	mu    sync.Mutex
	usage map[string]*models.QuotaUsage
}

func newFakeQuotaRepo() *fakeQuotaRepo {
	return &fakeQuotaRepo{usage: make(map[string]*models.QuotaUsage)}
}

func quotaKey(accountID uint, day string) string {
	return fmt.Sprintf("%d/%s", accountID, day)
}

func (r *fakeQuotaRepo) TryReserve(ctx context.Context, accountID uint, day string, story bool, totalCeiling, storyCeiling int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := quotaKey(accountID, day)
	u, ok := r.usage[key]
	if !ok {
		u = &models.QuotaUsage{AccountID: accountID, Day: day}
		r.usage[key] = u
	}

	if u.TotalUsed >= totalCeiling {
		return false, nil
	}
	if story && u.StoryUsed >= storyCeiling {
		return false, nil
	}

	u.TotalUsed++
	if story {
		u.StoryUsed++
	}
	return true, nil
}

func (r *fakeQuotaRepo) ReleaseOne(ctx context.Context, accountID uint, day string, story bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.usage[quotaKey(accountID, day)]
	if !ok {
		return nil
	}
	if u.TotalUsed > 0 {
		u.TotalUsed--
	}
	if story && u.StoryUsed > 0 {
		u.StoryUsed--
	}
	return nil
}

func (r *fakeQuotaRepo) Usage(ctx context.Context, accountID uint, day string) (*models.QuotaUsage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.usage[quotaKey(accountID, day)]
	if !ok {
		return nil, nil
	}
	copied := *u
	return &copied, nil
}

func testAccount(id uint, ceiling int) *models.Account {
	return &models.Account{
		ID:           id,
		Username:     "quota_test",
		DailyCeiling: ceiling,
		IsActive:     utils.ToPtr(true),
	}
}

func TestQuotaFlowReserve(t *testing.T) {
	ctx := context.Background()

	t.Run("ReserveUpToCeiling", func(t *testing.T) {
		repo := newFakeQuotaRepo()
		flow := NewQuotaFlow(repo, nil)
		account := testAccount(1, 3)

		for i := 0; i < 3; i++ {
			res, err := flow.Reserve(ctx, account, "2026-03-10", false)
			require.NoError(t, err)
			require.NotNil(t, res)
			assert.Equal(t, "2026-03-10", res.Day)
		}

		_, err := flow.Reserve(ctx, account, "2026-03-10", false)
		require.Error(t, err)
		assert.True(t, IsQuotaExceeded(err))
	})

	t.Run("ConcurrentReservesAdmitExactlyCeiling", func(t *testing.T) {
		repo := newFakeQuotaRepo()
		flow := NewQuotaFlow(repo, nil)
		account := testAccount(2, 25)

		var wg sync.WaitGroup
		var mu sync.Mutex
		admitted := 0
		rejected := 0

		for i := 0; i < 100; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := flow.Reserve(ctx, account, "2026-03-10", false)
				mu.Lock()
				defer mu.Unlock()
				if err == nil {
					admitted++
				} else if IsQuotaExceeded(err) {
					rejected++
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, 25, admitted)
		assert.Equal(t, 75, rejected)
	})

	t.Run("StoryCapIsIndependent", func(t *testing.T) {
		repo := newFakeQuotaRepo()
		flow := NewQuotaFlow(repo, nil)
		account := testAccount(3, 25)

		for i := 0; i < utils.AutoStoryDailyCap; i++ {
			_, err := flow.Reserve(ctx, account, "2026-03-10", true)
			require.NoError(t, err)
		}

		// Story cap hit, further stories rejected
		_, err := flow.Reserve(ctx, account, "2026-03-10", true)
		require.Error(t, err)
		assert.True(t, IsQuotaExceeded(err))

		// Regular posts still fit under the total ceiling
		_, err = flow.Reserve(ctx, account, "2026-03-10", false)
		assert.NoError(t, err)
	})

	t.Run("ExhaustionSuggestsNextDay", func(t *testing.T) {
		repo := newFakeQuotaRepo()
		flow := NewQuotaFlow(repo, nil)
		account := testAccount(4, 1)

		_, err := flow.Reserve(ctx, account, "2026-03-10", false)
		require.NoError(t, err)

		_, err = flow.Reserve(ctx, account, "2026-03-10", false)
		require.Error(t, err)
		assert.Equal(t, "2026-03-11", SuggestedNextDay(err))
	})

	t.Run("SuggestionSkipsFullDays", func(t *testing.T) {
		repo := newFakeQuotaRepo()
		flow := NewQuotaFlow(repo, nil)
		account := testAccount(5, 1)

		for _, day := range []string{"2026-03-10", "2026-03-11", "2026-03-12"} {
			_, err := flow.Reserve(ctx, account, day, false)
			require.NoError(t, err)
		}

		_, err := flow.Reserve(ctx, account, "2026-03-10", false)
		require.Error(t, err)
		assert.Equal(t, "2026-03-13", SuggestedNextDay(err))
	})
}

func TestQuotaFlowRelease(t *testing.T) {
	ctx := context.Background()

	t.Run("ReleaseReturnsCapacity", func(t *testing.T) {
		repo := newFakeQuotaRepo()
		flow := NewQuotaFlow(repo, nil)
		account := testAccount(1, 1)

		res, err := flow.Reserve(ctx, account, "2026-03-10", false)
		require.NoError(t, err)

		_, err = flow.Reserve(ctx, account, "2026-03-10", false)
		require.Error(t, err)

		require.NoError(t, flow.Release(ctx, res))

		_, err = flow.Reserve(ctx, account, "2026-03-10", false)
		assert.NoError(t, err)
	})

	t.Run("ReleaseTwiceIsNoOp", func(t *testing.T) {
		repo := newFakeQuotaRepo()
		flow := NewQuotaFlow(repo, nil)
		account := testAccount(1, 2)

		res, err := flow.Reserve(ctx, account, "2026-03-10", false)
		require.NoError(t, err)

		require.NoError(t, flow.Release(ctx, res))
		require.NoError(t, flow.Release(ctx, res))

		usage, err := repo.Usage(ctx, account.ID, "2026-03-10")
		require.NoError(t, err)
		require.NotNil(t, usage)
		assert.Equal(t, 0, usage.TotalUsed)
	})

	t.Run("ReleaseNilIsNoOp", func(t *testing.T) {
		flow := NewQuotaFlow(newFakeQuotaRepo(), nil)
		assert.NoError(t, flow.Release(ctx, nil))
	})

	t.Run("ReleaseDayDecrementsCounters", func(t *testing.T) {
		repo := newFakeQuotaRepo()
		flow := NewQuotaFlow(repo, nil)
		account := testAccount(1, 5)

		_, err := flow.Reserve(ctx, account, "2026-03-10", true)
		require.NoError(t, err)

		require.NoError(t, flow.ReleaseDay(ctx, account, "2026-03-10", true))

		usage, err := repo.Usage(ctx, account.ID, "2026-03-10")
		require.NoError(t, err)
		require.NotNil(t, usage)
		assert.Equal(t, 0, usage.TotalUsed)
		assert.Equal(t, 0, usage.StoryUsed)
	})
}

func TestQuotaFlowRemainingQuota(t *testing.T) {
	ctx := context.Background()

	t.Run("FullCeilingWhenUnused", func(t *testing.T) {
		flow := NewQuotaFlow(newFakeQuotaRepo(), nil)
		account := testAccount(1, 25)

		remaining, err := flow.RemainingQuota(ctx, account, "2026-03-10")
		require.NoError(t, err)
		assert.Equal(t, 25, remaining)
	})

	t.Run("DecreasesWithReservations", func(t *testing.T) {
		repo := newFakeQuotaRepo()
		flow := NewQuotaFlow(repo, nil)
		account := testAccount(1, 25)

		for i := 0; i < 4; i++ {
			_, err := flow.Reserve(ctx, account, "2026-03-10", false)
			require.NoError(t, err)
		}

		remaining, err := flow.RemainingQuota(ctx, account, "2026-03-10")
		require.NoError(t, err)
		assert.Equal(t, 21, remaining)
	})

	t.Run("DefaultCeilingApplied", func(t *testing.T) {
		flow := NewQuotaFlow(newFakeQuotaRepo(), nil)
		account := testAccount(1, 0)

		remaining, err := flow.RemainingQuota(ctx, account, "2026-03-10")
		require.NoError(t, err)
		assert.Equal(t, utils.DefaultDailyPostCeiling, remaining)
	})
}

func TestQuotaFlowNextDayWithCapacity(t *testing.T) {
	ctx := context.Background()

	t.Run("FindsFirstOpenDay", func(t *testing.T) {
		repo := newFakeQuotaRepo()
		flow := NewQuotaFlow(repo, nil)
		account := testAccount(1, 1)

		_, err := flow.Reserve(ctx, account, "2026-03-11", false)
		require.NoError(t, err)

		day, err := flow.NextDayWithCapacity(ctx, account, "2026-03-10", false, time.UTC)
		require.NoError(t, err)
		assert.Equal(t, "2026-03-12", day)
	})

	t.Run("HorizonExhausted", func(t *testing.T) {
		repo := newFakeQuotaRepo()
		flow := NewQuotaFlow(repo, nil)
		account := testAccount(1, 1)

		day := "2026-03-10"
		for i := 0; i < utils.SchedulingHorizonDays+1; i++ {
			next, err := utils.NextCalendarDay(day, time.UTC)
			require.NoError(t, err)
			day = next
			_, err = flow.Reserve(ctx, account, day, false)
			require.NoError(t, err)
		}

		_, err := flow.NextDayWithCapacity(ctx, account, "2026-03-10", false, time.UTC)
		require.Error(t, err)
		assert.True(t, IsSchedulingHorizonExceeded(err))
	})
}
