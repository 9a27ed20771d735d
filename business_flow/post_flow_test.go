package businessflow

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/skandydoc/instagram-automation-tool/app/dto"
	"github.com/skandydoc/instagram-automation-tool/models"
	"github.com/skandydoc/instagram-automation-tool/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type postFlowHarness struct {
	*allocationHarness
	flow PostFlow
}

func newPostFlowHarness(t *testing.T) *postFlowHarness {
	t.Helper()

	alloc := newAllocationHarness(t)
	flow := NewPostFlow(alloc.postRepo, alloc.accountRepo, alloc.quotaFlow, alloc.flow, fixedClock{t: alloc.now})

	return &postFlowHarness{allocationHarness: alloc, flow: flow}
}

func (h *postFlowHarness) addPost(t *testing.T, account *models.Account, status models.PostStatus) *models.Post {
	t.Helper()

	post := &models.Post{
		AccountID:     account.ID,
		ContentType:   models.ContentTypeFeed,
		ScheduleType:  models.ScheduleTypeSpecific,
		Caption:       utils.ToPtr("hello"),
		MediaURLs:     models.MediaURLs{"https://cdn.example.com/a.jpg"},
		ScheduledTime: h.now.Add(4 * time.Hour),
		Status:        status,
		QuotaDay:      "2026-03-10",
		CreatedAt:     h.now,
	}
	require.NoError(t, h.postRepo.Save(context.Background(), post))
	return post
}

func TestPostFlowGetStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("ReturnsStatusView", func(t *testing.T) {
		h := newPostFlowHarness(t)
		account := h.addAccount(25)
		post := h.addPost(t, account, models.PostStatusScheduled)

		got, err := h.flow.GetStatus(ctx, post.UUID.String(), nil)
		require.NoError(t, err)
		assert.Equal(t, post.UUID.String(), got.UUID)
		assert.Equal(t, "scheduled", got.Status)
		assert.Equal(t, "Scheduled", got.StatusDisplay)
	})

	t.Run("UnknownPost", func(t *testing.T) {
		h := newPostFlowHarness(t)
		_, err := h.flow.GetStatus(ctx, "00000000-0000-0000-0000-000000000000", nil)
		require.Error(t, err)
		assert.True(t, IsPostNotFound(err))
	})
}

func TestPostFlowListPosts(t *testing.T) {
	ctx := context.Background()

	t.Run("PaginationDefaults", func(t *testing.T) {
		h := newPostFlowHarness(t)
		account := h.addAccount(25)
		for i := 0; i < 3; i++ {
			h.addPost(t, account, models.PostStatusScheduled)
		}

		resp, err := h.flow.ListPosts(ctx, &dto.ListPostsRequest{}, nil)
		require.NoError(t, err)
		assert.Len(t, resp.Posts, 3)
		assert.Equal(t, 1, resp.Pagination.Page)
		assert.Equal(t, 20, resp.Pagination.PageSize)
		assert.Equal(t, int64(3), resp.Pagination.TotalItems)
		assert.Equal(t, 1, resp.Pagination.TotalPages)
	})

	t.Run("StatusFilter", func(t *testing.T) {
		h := newPostFlowHarness(t)
		account := h.addAccount(25)
		h.addPost(t, account, models.PostStatusScheduled)
		h.addPost(t, account, models.PostStatusFailed)

		status := "failed"
		resp, err := h.flow.ListPosts(ctx, &dto.ListPostsRequest{Status: &status}, nil)
		require.NoError(t, err)
		require.Len(t, resp.Posts, 1)
		assert.Equal(t, "failed", resp.Posts[0].Status)
	})

	t.Run("AccountFilterRejectsUnknownAccount", func(t *testing.T) {
		h := newPostFlowHarness(t)
		unknown := "2f0f0a43-98a4-4c8e-8f2e-b17f2fbb0001"
		_, err := h.flow.ListPosts(ctx, &dto.ListPostsRequest{AccountUUID: &unknown}, nil)
		require.Error(t, err)
		assert.True(t, IsAccountNotFound(err))
	})

	t.Run("InvalidPagination", func(t *testing.T) {
		h := newPostFlowHarness(t)

		_, err := h.flow.ListPosts(ctx, &dto.ListPostsRequest{Page: -1}, nil)
		require.Error(t, err)
		assert.True(t, IsInvalidPage(err))

		_, err = h.flow.ListPosts(ctx, &dto.ListPostsRequest{PageSize: 500}, nil)
		require.Error(t, err)
		assert.True(t, IsInvalidPageSize(err))
	})
}

func TestPostFlowCancel(t *testing.T) {
	ctx := context.Background()

	t.Run("ScheduledPostCancelled", func(t *testing.T) {
		h := newPostFlowHarness(t)
		account := h.addAccount(25)
		post := h.addPost(t, account, models.PostStatusScheduled)

		// Seed the quota slot the post holds
		_, err := h.quotaFlow.Reserve(ctx, account, post.QuotaDay, false)
		require.NoError(t, err)

		resp, err := h.flow.Cancel(ctx, post.UUID.String(), nil)
		require.NoError(t, err)
		assert.Equal(t, "cancelled", resp.Status)
		assert.True(t, resp.QuotaReleased)
		assert.Equal(t, "2026-03-10", resp.QuotaDay)

		stored, err := h.postRepo.ByUUID(ctx, post.UUID.String())
		require.NoError(t, err)
		assert.Equal(t, models.PostStatusCancelled, stored.Status)

		usage, err := h.quotaRepo.Usage(ctx, account.ID, post.QuotaDay)
		require.NoError(t, err)
		require.NotNil(t, usage)
		assert.Equal(t, 0, usage.TotalUsed)
	})

	t.Run("PostedPostNotCancellable", func(t *testing.T) {
		h := newPostFlowHarness(t)
		account := h.addAccount(25)
		post := h.addPost(t, account, models.PostStatusPosted)

		_, err := h.flow.Cancel(ctx, post.UUID.String(), nil)
		require.Error(t, err)
		assert.True(t, IsPostNotCancellable(err))
	})

	t.Run("FreshClaimBlocksCancel", func(t *testing.T) {
		h := newPostFlowHarness(t)
		account := h.addAccount(25)
		post := h.addPost(t, account, models.PostStatusScheduled)

		claimedAt := h.now.Add(-30 * time.Second)
		post.ClaimedAt = &claimedAt
		require.NoError(t, h.postRepo.Update(ctx, post))

		_, err := h.flow.Cancel(ctx, post.UUID.String(), nil)
		require.Error(t, err)
		assert.True(t, IsPostNotCancellable(err))
	})

	t.Run("ExpiredClaimAllowsCancel", func(t *testing.T) {
		h := newPostFlowHarness(t)
		account := h.addAccount(25)
		post := h.addPost(t, account, models.PostStatusScheduled)

		claimedAt := h.now.Add(-utils.DispatchClaimLease - time.Minute)
		post.ClaimedAt = &claimedAt
		require.NoError(t, h.postRepo.Update(ctx, post))

		resp, err := h.flow.Cancel(ctx, post.UUID.String(), nil)
		require.NoError(t, err)
		assert.Equal(t, "cancelled", resp.Status)
	})
}

func TestPostFlowResubmit(t *testing.T) {
	ctx := context.Background()

	t.Run("FailedFeedPostRequeues", func(t *testing.T) {
		h := newPostFlowHarness(t)
		account := h.addAccount(25)
		post := h.addPost(t, account, models.PostStatusFailed)

		resp, err := h.flow.Resubmit(ctx, post.UUID.String(), nil)
		require.NoError(t, err)
		assert.Equal(t, post.UUID.String(), resp.OriginalUUID)
		assert.NotEqual(t, post.UUID.String(), resp.UUID)
		assert.Equal(t, "scheduled", resp.Status)

		// The original stays failed
		original, err := h.postRepo.ByUUID(ctx, post.UUID.String())
		require.NoError(t, err)
		assert.Equal(t, models.PostStatusFailed, original.Status)

		// The replacement queues for the next configured slot
		replacement, err := h.postRepo.ByUUID(ctx, resp.UUID)
		require.NoError(t, err)
		require.NotNil(t, replacement)
		assert.Equal(t, models.ScheduleTypeQueue, replacement.ScheduleType)
		assert.Equal(t, post.Caption, replacement.Caption)
	})

	t.Run("FailedStoryReentersCadence", func(t *testing.T) {
		h := newPostFlowHarness(t)
		account := h.addAccount(25)
		post := h.addPost(t, account, models.PostStatusFailed)
		post.ContentType = models.ContentTypeStory
		require.NoError(t, h.postRepo.Update(ctx, post))

		resp, err := h.flow.Resubmit(ctx, post.UUID.String(), nil)
		require.NoError(t, err)

		replacement, err := h.postRepo.ByUUID(ctx, resp.UUID)
		require.NoError(t, err)
		require.NotNil(t, replacement)
		assert.Equal(t, models.ScheduleTypeAutoStory, replacement.ScheduleType)
		assert.Equal(t, models.ContentTypeStory, replacement.ContentType)
	})

	t.Run("ScheduledPostNotResubmittable", func(t *testing.T) {
		h := newPostFlowHarness(t)
		account := h.addAccount(25)
		post := h.addPost(t, account, models.PostStatusScheduled)

		_, err := h.flow.Resubmit(ctx, post.UUID.String(), nil)
		require.Error(t, err)
		assert.True(t, IsPostNotResubmittable(err))
	})
}

func TestPostFlowExportPosts(t *testing.T) {
	ctx := context.Background()
	h := newPostFlowHarness(t)
	account := h.addAccount(25)
	post := h.addPost(t, account, models.PostStatusScheduled)

	data, filename, err := h.flow.ExportPosts(ctx, &dto.ListPostsRequest{}, nil)
	require.NoError(t, err)
	assert.Equal(t, "posts_export_20260310_100000.xlsx", filename)
	require.NotEmpty(t, data)

	file, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer func() { _ = file.Close() }()

	rows, err := file.GetRows("Posts")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "UUID", rows[0][0])
	assert.Equal(t, post.UUID.String(), rows[1][0])
	assert.Equal(t, "scheduled", rows[1][5])
}
