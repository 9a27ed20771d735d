package businessflow

import (
	"context"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/skandydoc/instagram-automation-tool/app/dto"
	"github.com/skandydoc/instagram-automation-tool/models"
	"github.com/skandydoc/instagram-automation-tool/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedClock struct {
	t time.Time
}

func (c fixedClock) Now() time.Time { return c.t }

// fakeAccountRepo is an in-memory AccountRepository
type fakeAccountRepo struct {
	mu       sync.Mutex
	accounts map[uint]*models.Account
	nextID   uint
}

func newFakeAccountRepo() *fakeAccountRepo {
	return &fakeAccountRepo{accounts: make(map[uint]*models.Account), nextID: 1}
}

func (r *fakeAccountRepo) add(account *models.Account) *models.Account {
	r.mu.Lock()
	defer r.mu.Unlock()
	if account.ID == 0 {
		account.ID = r.nextID
		r.nextID++
	}
	if account.UUID == uuid.Nil {
		account.UUID = uuid.New()
	}
	r.accounts[account.ID] = account
	return account
}

func (r *fakeAccountRepo) ByID(ctx context.Context, id uint) (*models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.accounts[id], nil
}

func (r *fakeAccountRepo) ByFilter(ctx context.Context, filter models.AccountFilter, orderBy string, limit, offset int) ([]*models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Account, 0)
	for _, a := range r.accounts {
		if filter.Username != nil && a.Username != *filter.Username {
			continue
		}
		if filter.IsActive != nil && utils.IsTrue(a.IsActive) != *filter.IsActive {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (r *fakeAccountRepo) Save(ctx context.Context, account *models.Account) error {
	r.add(account)
	return nil
}

func (r *fakeAccountRepo) SaveBatch(ctx context.Context, accounts []*models.Account) error {
	for _, a := range accounts {
		r.add(a)
	}
	return nil
}

func (r *fakeAccountRepo) Count(ctx context.Context, filter models.AccountFilter) (int64, error) {
	matched, _ := r.ByFilter(ctx, filter, "", 0, 0)
	return int64(len(matched)), nil
}

func (r *fakeAccountRepo) Exists(ctx context.Context, filter models.AccountFilter) (bool, error) {
	count, _ := r.Count(ctx, filter)
	return count > 0, nil
}

func (r *fakeAccountRepo) ByUUID(ctx context.Context, accountUUID string) (*models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.accounts {
		if a.UUID.String() == accountUUID {
			return a, nil
		}
	}
	return nil, nil
}

func (r *fakeAccountRepo) ByUsername(ctx context.Context, username string) (*models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.accounts {
		if a.Username == username {
			return a, nil
		}
	}
	return nil, nil
}

func (r *fakeAccountRepo) ListActive(ctx context.Context) ([]*models.Account, error) {
	active := true
	return r.ByFilter(ctx, models.AccountFilter{IsActive: &active}, "", 0, 0)
}

func (r *fakeAccountRepo) Update(ctx context.Context, account *models.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.accounts[account.ID] = account
	return nil
}

func (r *fakeAccountRepo) SetActive(ctx context.Context, id uint, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.accounts[id]; ok {
		a.IsActive = utils.ToPtr(active)
	}
	return nil
}

// fakePostRepo is an in-memory PostRepository
type fakePostRepo struct {
	mu     sync.Mutex
	posts  map[uint]*models.Post
	nextID uint
}

func newFakePostRepo() *fakePostRepo {
	return &fakePostRepo{posts: make(map[uint]*models.Post), nextID: 1}
}

func (r *fakePostRepo) ByID(ctx context.Context, id uint) (*models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.posts[id], nil
}

func matchesPostFilter(p *models.Post, filter models.PostFilter) bool {
	if filter.AccountID != nil && p.AccountID != *filter.AccountID {
		return false
	}
	if filter.Status != nil && p.Status != *filter.Status {
		return false
	}
	if filter.QuotaDay != nil && p.QuotaDay != *filter.QuotaDay {
		return false
	}
	return true
}

func (r *fakePostRepo) ByFilter(ctx context.Context, filter models.PostFilter, orderBy string, limit, offset int) ([]*models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Post, 0)
	for _, p := range r.posts {
		if matchesPostFilter(p, filter) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakePostRepo) Save(ctx context.Context, post *models.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if post.ID == 0 {
		post.ID = r.nextID
		r.nextID++
	}
	if post.UUID == uuid.Nil {
		post.UUID = uuid.New()
	}
	r.posts[post.ID] = post
	return nil
}

func (r *fakePostRepo) SaveBatch(ctx context.Context, posts []*models.Post) error {
	for _, p := range posts {
		if err := r.Save(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

func (r *fakePostRepo) Count(ctx context.Context, filter models.PostFilter) (int64, error) {
	matched, _ := r.ByFilter(ctx, filter, "", 0, 0)
	return int64(len(matched)), nil
}

func (r *fakePostRepo) Exists(ctx context.Context, filter models.PostFilter) (bool, error) {
	count, _ := r.Count(ctx, filter)
	return count > 0, nil
}

func (r *fakePostRepo) ByUUID(ctx context.Context, postUUID string) (*models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.posts {
		if p.UUID.String() == postUUID {
			return p, nil
		}
	}
	return nil, nil
}

func (r *fakePostRepo) ByAccountID(ctx context.Context, accountID uint, limit, offset int) ([]*models.Post, error) {
	return r.ByFilter(ctx, models.PostFilter{AccountID: &accountID}, "", limit, offset)
}

func (r *fakePostRepo) Update(ctx context.Context, post *models.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.posts[post.ID] = post
	return nil
}

func (r *fakePostRepo) ListScheduledBetween(ctx context.Context, from, to time.Time) ([]*models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Post, 0)
	for _, p := range r.posts {
		if p.Status != models.PostStatusScheduled {
			continue
		}
		if p.ScheduledTime.Before(from) || p.ScheduledTime.After(to) {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (r *fakePostRepo) ListDue(ctx context.Context, now time.Time, limit int) ([]*models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Post, 0)
	for _, p := range r.posts {
		if p.Status == models.PostStatusScheduled && !p.DueAt().After(now) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakePostRepo) Claim(ctx context.Context, postID uint, now time.Time, lease time.Duration) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[postID]
	if !ok || p.Status != models.PostStatusScheduled {
		return false, nil
	}
	if p.ClaimedAt != nil && now.Sub(*p.ClaimedAt) < lease {
		return false, nil
	}
	p.ClaimedAt = &now
	return true, nil
}

func (r *fakePostRepo) ClearClaim(ctx context.Context, postID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.posts[postID]; ok {
		p.ClaimedAt = nil
	}
	return nil
}

// passthroughCaptionFlow returns the raw caption without template or hashtag work
type passthroughCaptionFlow struct{}

func (passthroughCaptionFlow) Compose(ctx context.Context, account *models.Account, req CaptionRequest, scheduledTime time.Time) (*string, error) {
	return req.Caption, nil
}

// slowCaptionFlow simulates slow template rendering between placement and persist
type slowCaptionFlow struct {
	delay time.Duration
}

func (f slowCaptionFlow) Compose(ctx context.Context, account *models.Account, req CaptionRequest, scheduledTime time.Time) (*string, error) {
	time.Sleep(f.delay)
	return req.Caption, nil
}

type allocationHarness struct {
	accountRepo *fakeAccountRepo
	postRepo    *fakePostRepo
	quotaRepo   *fakeQuotaRepo
	quotaFlow   QuotaFlow
	flow        AllocationFlow
	now         time.Time
}

func newAllocationHarness(t *testing.T) *allocationHarness {
	t.Helper()

	accountRepo := newFakeAccountRepo()
	postRepo := newFakePostRepo()
	quotaRepo := newFakeQuotaRepo()
	quotaFlow := NewQuotaFlow(quotaRepo, nil)

	now := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	flow := NewAllocationFlow(
		accountRepo, postRepo, quotaFlow, passthroughCaptionFlow{},
		NewSlotCalculator(rand.New(rand.NewSource(1))),
		fixedClock{t: now}, nil,
	)

	return &allocationHarness{
		accountRepo: accountRepo,
		postRepo:    postRepo,
		quotaRepo:   quotaRepo,
		quotaFlow:   quotaFlow,
		flow:        flow,
		now:         now,
	}
}

func (h *allocationHarness) addAccount(ceiling int) *models.Account {
	account := &models.Account{
		Username:     "alloc_test",
		InstagramID:  "17841400000000001",
		AccessToken:  "token",
		DailyCeiling: ceiling,
		IsActive:     utils.ToPtr(true),
	}
	h.accountRepo.add(account)
	account.Schedule = &models.PostingSchedule{
		AccountID:       account.ID,
		MorningSlot:     "13:00",
		EveningSlot:     "22:00",
		Timezone:        "UTC",
		VarianceMinutes: 0,
		IsActive:        utils.ToPtr(true),
	}
	return account
}

func postRequest(account *models.Account, scheduleType string) *dto.CreatePostRequest {
	return &dto.CreatePostRequest{
		AccountUUID:  account.UUID.String(),
		ContentType:  "feed",
		ScheduleType: scheduleType,
		Caption:      utils.ToPtr("hello"),
		MediaURLs:    []string{"https://cdn.example.com/a.jpg"},
	}
}

func TestCreatePostValidation(t *testing.T) {
	ctx := context.Background()

	t.Run("UnknownAccount", func(t *testing.T) {
		h := newAllocationHarness(t)
		req := &dto.CreatePostRequest{
			AccountUUID:  uuid.New().String(),
			ContentType:  "feed",
			ScheduleType: "now",
			MediaURLs:    []string{"https://cdn.example.com/a.jpg"},
		}
		_, err := h.flow.CreatePost(ctx, req, nil)
		require.Error(t, err)
		assert.True(t, IsAccountNotFound(err))
	})

	t.Run("InactiveAccount", func(t *testing.T) {
		h := newAllocationHarness(t)
		account := h.addAccount(25)
		account.IsActive = utils.ToPtr(false)

		_, err := h.flow.CreatePost(ctx, postRequest(account, "now"), nil)
		require.Error(t, err)
		assert.True(t, IsAccountInactive(err))
	})

	t.Run("MissingMedia", func(t *testing.T) {
		h := newAllocationHarness(t)
		account := h.addAccount(25)
		req := postRequest(account, "now")
		req.MediaURLs = nil

		_, err := h.flow.CreatePost(ctx, req, nil)
		require.Error(t, err)
		assert.True(t, IsMediaRequired(err))
	})

	t.Run("AutoStoryRequiresStoryContent", func(t *testing.T) {
		h := newAllocationHarness(t)
		account := h.addAccount(25)
		req := postRequest(account, "auto_story")
		req.ContentType = "feed"

		_, err := h.flow.CreatePost(ctx, req, nil)
		require.Error(t, err)
		assert.True(t, IsInvalidContentType(err))
	})

	t.Run("UnknownScheduleType", func(t *testing.T) {
		h := newAllocationHarness(t)
		account := h.addAccount(25)
		req := postRequest(account, "whenever")

		_, err := h.flow.CreatePost(ctx, req, nil)
		require.Error(t, err)
		assert.True(t, IsInvalidScheduleType(err))
	})
}

func TestCreatePostNow(t *testing.T) {
	ctx := context.Background()
	h := newAllocationHarness(t)
	account := h.addAccount(25)

	resp, err := h.flow.CreatePost(ctx, postRequest(account, "now"), nil)
	require.NoError(t, err)

	scheduled, err := time.Parse(time.RFC3339, resp.ScheduledTime)
	require.NoError(t, err)

	assert.False(t, scheduled.Before(h.now))
	assert.False(t, scheduled.After(h.now.Add(utils.NowScheduleMaxJitter)))
	assert.Equal(t, "scheduled", resp.Status)
	assert.Equal(t, "2026-03-10", resp.QuotaDay)

	usage, err := h.quotaRepo.Usage(ctx, account.ID, "2026-03-10")
	require.NoError(t, err)
	require.NotNil(t, usage)
	assert.Equal(t, 1, usage.TotalUsed)
}

func TestCreatePostSpecific(t *testing.T) {
	ctx := context.Background()

	t.Run("FutureTimeAccepted", func(t *testing.T) {
		h := newAllocationHarness(t)
		account := h.addAccount(25)
		req := postRequest(account, "specific")
		req.ScheduledTime = utils.ToPtr("2026-03-12T15:30:00Z")

		resp, err := h.flow.CreatePost(ctx, req, nil)
		require.NoError(t, err)
		assert.Equal(t, "2026-03-12T15:30:00Z", resp.ScheduledTime)
		assert.Equal(t, "2026-03-12", resp.QuotaDay)
	})

	t.Run("PastTimeRejected", func(t *testing.T) {
		h := newAllocationHarness(t)
		account := h.addAccount(25)
		req := postRequest(account, "specific")
		req.ScheduledTime = utils.ToPtr("2026-03-09T15:30:00Z")

		_, err := h.flow.CreatePost(ctx, req, nil)
		require.Error(t, err)
		assert.True(t, IsScheduleTimeInPast(err))
	})

	t.Run("BeyondHorizonRejected", func(t *testing.T) {
		h := newAllocationHarness(t)
		account := h.addAccount(25)
		req := postRequest(account, "specific")
		req.ScheduledTime = utils.ToPtr("2026-06-01T15:30:00Z")

		_, err := h.flow.CreatePost(ctx, req, nil)
		require.Error(t, err)
		assert.True(t, IsSchedulingHorizonExceeded(err))
	})

	t.Run("MissingTimeRejected", func(t *testing.T) {
		h := newAllocationHarness(t)
		account := h.addAccount(25)

		_, err := h.flow.CreatePost(ctx, postRequest(account, "specific"), nil)
		require.Error(t, err)
		assert.True(t, IsScheduleTimeNotPresent(err))
	})

	t.Run("ExhaustedDayReportsSuggestion", func(t *testing.T) {
		h := newAllocationHarness(t)
		account := h.addAccount(1)

		_, err := h.quotaFlow.Reserve(ctx, account, "2026-03-12", false)
		require.NoError(t, err)

		req := postRequest(account, "specific")
		req.ScheduledTime = utils.ToPtr("2026-03-12T15:30:00Z")

		_, err = h.flow.CreatePost(ctx, req, nil)
		require.Error(t, err)
		assert.True(t, IsQuotaExceeded(err))
		assert.Equal(t, "2026-03-13", SuggestedNextDay(err))
	})
}

func TestCreatePostNextSlot(t *testing.T) {
	ctx := context.Background()

	t.Run("PicksUpcomingConfiguredSlot", func(t *testing.T) {
		h := newAllocationHarness(t)
		account := h.addAccount(25)

		// Clock is 10:00 UTC, so the next zero-variance slot is 13:00 today
		resp, err := h.flow.CreatePost(ctx, postRequest(account, "next_slot"), nil)
		require.NoError(t, err)
		assert.Equal(t, "2026-03-10T13:00:00Z", resp.ScheduledTime)
	})

	t.Run("RollsToNextDayAfterLastSlot", func(t *testing.T) {
		h := newAllocationHarness(t)
		account := h.addAccount(25)
		account.Schedule.MorningSlot = "06:00"
		account.Schedule.EveningSlot = "09:00"

		// Both slots already passed at 10:00, so tomorrow's morning wins
		resp, err := h.flow.CreatePost(ctx, postRequest(account, "next_slot"), nil)
		require.NoError(t, err)
		assert.Equal(t, "2026-03-11T06:00:00Z", resp.ScheduledTime)
	})

	t.Run("RollsToNextDayWhenTodayExhausted", func(t *testing.T) {
		h := newAllocationHarness(t)
		account := h.addAccount(1)

		_, err := h.quotaFlow.Reserve(ctx, account, "2026-03-10", false)
		require.NoError(t, err)

		// Today's 13:00 slot has no quota left, so tomorrow's morning wins
		resp, err := h.flow.CreatePost(ctx, postRequest(account, "next_slot"), nil)
		require.NoError(t, err)
		assert.Equal(t, "2026-03-11T13:00:00Z", resp.ScheduledTime)
		assert.Equal(t, "2026-03-11", resp.QuotaDay)
	})

	t.Run("NoScheduleConfigured", func(t *testing.T) {
		h := newAllocationHarness(t)
		account := h.addAccount(25)
		account.Schedule = nil

		_, err := h.flow.CreatePost(ctx, postRequest(account, "next_slot"), nil)
		require.Error(t, err)
		assert.True(t, IsConfigurationError(err))
	})
}

func TestCreatePostQueue(t *testing.T) {
	ctx := context.Background()

	t.Run("BooksFirstAvailableSlot", func(t *testing.T) {
		h := newAllocationHarness(t)
		account := h.addAccount(25)

		resp, err := h.flow.CreatePost(ctx, postRequest(account, "queue"), nil)
		require.NoError(t, err)
		assert.Equal(t, "2026-03-10T13:00:00Z", resp.ScheduledTime)
	})

	t.Run("SkipsFullDays", func(t *testing.T) {
		h := newAllocationHarness(t)
		account := h.addAccount(1)

		// Today's single slot is taken, the queue rolls to tomorrow
		_, err := h.quotaFlow.Reserve(ctx, account, "2026-03-10", false)
		require.NoError(t, err)

		resp, err := h.flow.CreatePost(ctx, postRequest(account, "queue"), nil)
		require.NoError(t, err)
		assert.Equal(t, "2026-03-11", resp.QuotaDay)
		assert.Equal(t, "2026-03-11T13:00:00Z", resp.ScheduledTime)
	})

	t.Run("ThreeFullDaysLandOnTheFourth", func(t *testing.T) {
		h := newAllocationHarness(t)
		account := h.addAccount(1)

		for _, day := range []string{"2026-03-10", "2026-03-11", "2026-03-12"} {
			_, err := h.quotaFlow.Reserve(ctx, account, day, false)
			require.NoError(t, err)
		}

		resp, err := h.flow.CreatePost(ctx, postRequest(account, "queue"), nil)
		require.NoError(t, err)
		assert.Equal(t, "2026-03-13", resp.QuotaDay)
		assert.Equal(t, "2026-03-13T13:00:00Z", resp.ScheduledTime)
	})
}

func TestCreatePostAutoStory(t *testing.T) {
	ctx := context.Background()

	storyRequest := func(account *models.Account) *dto.CreatePostRequest {
		req := postRequest(account, "auto_story")
		req.ContentType = "story"
		return req
	}

	t.Run("BooksNextCadenceSlot", func(t *testing.T) {
		h := newAllocationHarness(t)
		account := h.addAccount(25)

		// Clock is 10:00 UTC, so the next 2h cadence slot from the 06:00
		// anchor is 12:00
		resp, err := h.flow.CreatePost(ctx, storyRequest(account), nil)
		require.NoError(t, err)
		assert.Equal(t, "2026-03-10T12:00:00Z", resp.ScheduledTime)

		usage, err := h.quotaRepo.Usage(ctx, account.ID, "2026-03-10")
		require.NoError(t, err)
		require.NotNil(t, usage)
		assert.Equal(t, 1, usage.StoryUsed)
	})

	t.Run("StoryCapPushesToNextDay", func(t *testing.T) {
		h := newAllocationHarness(t)
		account := h.addAccount(25)

		for i := 0; i < utils.AutoStoryDailyCap; i++ {
			_, err := h.quotaFlow.Reserve(ctx, account, "2026-03-10", true)
			require.NoError(t, err)
		}

		resp, err := h.flow.CreatePost(ctx, storyRequest(account), nil)
		require.NoError(t, err)
		assert.Equal(t, "2026-03-11", resp.QuotaDay)
	})
}

func TestCreatePostSpacing(t *testing.T) {
	ctx := context.Background()

	t.Run("SameAccountConflictNudgesFiveMinutes", func(t *testing.T) {
		h := newAllocationHarness(t)
		account := h.addAccount(25)

		existing := &models.Post{
			AccountID:     account.ID,
			ContentType:   models.ContentTypeFeed,
			ScheduleType:  models.ScheduleTypeSpecific,
			MediaURLs:     models.MediaURLs{"https://cdn.example.com/b.jpg"},
			ScheduledTime: time.Date(2026, 3, 12, 15, 30, 0, 0, time.UTC),
			Status:        models.PostStatusScheduled,
			QuotaDay:      "2026-03-12",
		}
		require.NoError(t, h.postRepo.Save(ctx, existing))

		req := postRequest(account, "specific")
		req.ScheduledTime = utils.ToPtr("2026-03-12T15:30:00Z")

		resp, err := h.flow.CreatePost(ctx, req, nil)
		require.NoError(t, err)
		assert.Equal(t, "2026-03-12T15:35:00Z", resp.ScheduledTime)
	})

	t.Run("CrossAccountConflictNudgesOnce", func(t *testing.T) {
		h := newAllocationHarness(t)
		account := h.addAccount(25)
		other := &models.Account{
			Username:     "other_account",
			InstagramID:  "17841400000000002",
			AccessToken:  "token",
			DailyCeiling: 25,
			IsActive:     utils.ToPtr(true),
		}
		h.accountRepo.add(other)

		existing := &models.Post{
			AccountID:     other.ID,
			ContentType:   models.ContentTypeFeed,
			ScheduleType:  models.ScheduleTypeSpecific,
			MediaURLs:     models.MediaURLs{"https://cdn.example.com/b.jpg"},
			ScheduledTime: time.Date(2026, 3, 12, 15, 30, 0, 0, time.UTC),
			Status:        models.PostStatusScheduled,
			QuotaDay:      "2026-03-12",
		}
		require.NoError(t, h.postRepo.Save(ctx, existing))

		req := postRequest(account, "specific")
		req.ScheduledTime = utils.ToPtr("2026-03-12T15:30:00Z")

		// One minute clears the 30s cross-account minimum
		resp, err := h.flow.CreatePost(ctx, req, nil)
		require.NoError(t, err)
		assert.Equal(t, "2026-03-12T15:31:00Z", resp.ScheduledTime)
	})

	t.Run("ConcurrentSubmissionsKeepSameAccountSpacing", func(t *testing.T) {
		h := newAllocationHarness(t)
		account := h.addAccount(25)
		h.flow = NewAllocationFlow(
			h.accountRepo, h.postRepo, h.quotaFlow, slowCaptionFlow{delay: 50 * time.Millisecond},
			NewSlotCalculator(rand.New(rand.NewSource(1))),
			fixedClock{t: h.now}, nil,
		)

		var wg sync.WaitGroup
		results := make([]string, 2)
		errs := make([]error, 2)
		for i := 0; i < 2; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				req := postRequest(account, "specific")
				req.ScheduledTime = utils.ToPtr("2026-03-12T15:00:00Z")
				resp, err := h.flow.CreatePost(ctx, req, nil)
				errs[i] = err
				if resp != nil {
					results[i] = resp.ScheduledTime
				}
			}(i)
		}
		wg.Wait()

		require.NoError(t, errs[0])
		require.NoError(t, errs[1])

		first, err := time.Parse(time.RFC3339, results[0])
		require.NoError(t, err)
		second, err := time.Parse(time.RFC3339, results[1])
		require.NoError(t, err)

		gap := second.Sub(first)
		if gap < 0 {
			gap = -gap
		}
		assert.GreaterOrEqual(t, gap, utils.SameAccountMinSpacing)
	})

	t.Run("DistantPostsDoNotConflict", func(t *testing.T) {
		h := newAllocationHarness(t)
		account := h.addAccount(25)

		existing := &models.Post{
			AccountID:     account.ID,
			ContentType:   models.ContentTypeFeed,
			ScheduleType:  models.ScheduleTypeSpecific,
			MediaURLs:     models.MediaURLs{"https://cdn.example.com/b.jpg"},
			ScheduledTime: time.Date(2026, 3, 12, 15, 0, 0, 0, time.UTC),
			Status:        models.PostStatusScheduled,
			QuotaDay:      "2026-03-12",
		}
		require.NoError(t, h.postRepo.Save(ctx, existing))

		req := postRequest(account, "specific")
		req.ScheduledTime = utils.ToPtr("2026-03-12T15:30:00Z")

		resp, err := h.flow.CreatePost(ctx, req, nil)
		require.NoError(t, err)
		assert.Equal(t, "2026-03-12T15:30:00Z", resp.ScheduledTime)
	})
}

func TestCreatePostPersistsCaptionAndMedia(t *testing.T) {
	ctx := context.Background()
	h := newAllocationHarness(t)
	account := h.addAccount(25)

	req := postRequest(account, "now")
	req.Caption = utils.ToPtr("launch day")
	req.MediaURLs = []string{"https://cdn.example.com/a.jpg", "https://cdn.example.com/b.jpg"}
	req.ContentType = "carousel"

	resp, err := h.flow.CreatePost(ctx, req, nil)
	require.NoError(t, err)

	post, err := h.postRepo.ByUUID(ctx, resp.UUID)
	require.NoError(t, err)
	require.NotNil(t, post)
	require.NotNil(t, post.Caption)
	assert.Equal(t, "launch day", *post.Caption)
	assert.Equal(t, models.ContentTypeCarousel, post.ContentType)
	assert.Len(t, post.MediaURLs, 2)
}
