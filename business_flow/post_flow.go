package businessflow

import (
	"context"
	"fmt"
	"time"

	"github.com/skandydoc/instagram-automation-tool/app/dto"
	"github.com/skandydoc/instagram-automation-tool/models"
	"github.com/skandydoc/instagram-automation-tool/repository"
	"github.com/skandydoc/instagram-automation-tool/utils"
	"github.com/xuri/excelize/v2"
)

// PostFlow covers the lifecycle operations on already-submitted posts
type PostFlow interface {
	// GetStatus returns the status view of a single post.
	GetStatus(ctx context.Context, postUUID string, metadata *ClientMetadata) (*dto.PostStatusDTO, error)
	// ListPosts returns a filtered, paginated post listing.
	ListPosts(ctx context.Context, req *dto.ListPostsRequest, metadata *ClientMetadata) (*dto.ListPostsResponse, error)
	// Cancel aborts a scheduled post and returns its quota slot. Only posts
	// that have not entered dispatch can be cancelled.
	Cancel(ctx context.Context, postUUID string, metadata *ClientMetadata) (*dto.CancelPostResponse, error)
	// Resubmit creates a fresh post from a failed one, re-entering the
	// allocation pipeline. The failed post itself stays failed.
	Resubmit(ctx context.Context, postUUID string, metadata *ClientMetadata) (*dto.ResubmitPostResponse, error)
	// ExportPosts renders the filtered post listing as an xlsx workbook.
	ExportPosts(ctx context.Context, req *dto.ListPostsRequest, metadata *ClientMetadata) ([]byte, string, error)
}

type postFlow struct {
	postRepo    repository.PostRepository
	accountRepo repository.AccountRepository
	quotaFlow   QuotaFlow
	allocation  AllocationFlow
	clock       Clock
}

// NewPostFlow creates the post lifecycle flow
func NewPostFlow(
	postRepo repository.PostRepository,
	accountRepo repository.AccountRepository,
	quotaFlow QuotaFlow,
	allocation AllocationFlow,
	clock Clock,
) PostFlow {
	return &postFlow{
		postRepo:    postRepo,
		accountRepo: accountRepo,
		quotaFlow:   quotaFlow,
		allocation:  allocation,
		clock:       clock,
	}
}

func (f *postFlow) byUUID(ctx context.Context, postUUID string) (*models.Post, error) {
	post, err := f.postRepo.ByUUID(ctx, postUUID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up post: %w", err)
	}
	if post == nil {
		return nil, NewBusinessError("POST_NOT_FOUND", "post not found", ErrPostNotFound)
	}
	return post, nil
}

// GetStatus implements PostFlow
func (f *postFlow) GetStatus(ctx context.Context, postUUID string, metadata *ClientMetadata) (*dto.PostStatusDTO, error) {
	post, err := f.byUUID(ctx, postUUID)
	if err != nil {
		return nil, err
	}
	d := ToPostStatusDTO(*post)
	return &d, nil
}

// ListPosts implements PostFlow
func (f *postFlow) ListPosts(ctx context.Context, req *dto.ListPostsRequest, metadata *ClientMetadata) (*dto.ListPostsResponse, error) {
	page := req.Page
	if page == 0 {
		page = 1
	}
	pageSize := req.PageSize
	if pageSize == 0 {
		pageSize = 20
	}
	if page < 1 {
		return nil, NewBusinessError("INVALID_PAGE", "page must be at least 1", ErrInvalidPage)
	}
	if pageSize < 1 || pageSize > 100 {
		return nil, NewBusinessError("INVALID_PAGE_SIZE", "page size must be between 1 and 100", ErrInvalidPageSize)
	}

	filter, err := f.buildFilter(ctx, req)
	if err != nil {
		return nil, err
	}

	total, err := f.postRepo.Count(ctx, *filter)
	if err != nil {
		return nil, fmt.Errorf("failed to count posts: %w", err)
	}

	posts, err := f.postRepo.ByFilter(ctx, *filter, "scheduled_time DESC", pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}

	items := make([]dto.PostStatusDTO, 0, len(posts))
	for _, p := range posts {
		items = append(items, ToPostStatusDTO(*p))
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))

	return &dto.ListPostsResponse{
		Posts: items,
		Pagination: dto.PaginationDTO{
			Page:       page,
			PageSize:   pageSize,
			TotalItems: total,
			TotalPages: totalPages,
		},
	}, nil
}

func (f *postFlow) buildFilter(ctx context.Context, req *dto.ListPostsRequest) (*models.PostFilter, error) {
	filter := &models.PostFilter{}

	if req.AccountUUID != nil && *req.AccountUUID != "" {
		account, err := f.accountRepo.ByUUID(ctx, *req.AccountUUID)
		if err != nil {
			return nil, fmt.Errorf("failed to look up account: %w", err)
		}
		if account == nil {
			return nil, NewBusinessError("ACCOUNT_NOT_FOUND", "account not found", ErrAccountNotFound)
		}
		filter.AccountID = &account.ID
	}
	if req.Status != nil && *req.Status != "" {
		status := models.PostStatus(*req.Status)
		filter.Status = &status
	}
	if req.Day != nil && *req.Day != "" {
		filter.QuotaDay = req.Day
	}

	return filter, nil
}

// Cancel implements PostFlow
func (f *postFlow) Cancel(ctx context.Context, postUUID string, metadata *ClientMetadata) (*dto.CancelPostResponse, error) {
	post, err := f.byUUID(ctx, postUUID)
	if err != nil {
		return nil, err
	}

	if !post.CanTransitionTo(models.PostStatusCancelled) {
		return nil, NewBusinessError("POST_NOT_CANCELLABLE", fmt.Sprintf("post is %s and can no longer be cancelled", post.Status), ErrPostNotCancellable)
	}

	// A fresh claim means a dispatch attempt is in flight right now. The
	// dispatch outcome wins; the caller can retry the cancel afterwards.
	now := f.clock.Now()
	if post.ClaimedAt != nil && now.Sub(*post.ClaimedAt) < utils.DispatchClaimLease {
		return nil, NewBusinessError("POST_NOT_CANCELLABLE", "post is being published right now", ErrPostNotCancellable)
	}

	post.Status = models.PostStatusCancelled
	if err := f.postRepo.Update(ctx, post); err != nil {
		return nil, fmt.Errorf("failed to cancel post: %w", err)
	}

	account, err := f.accountRepo.ByID(ctx, post.AccountID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up account: %w", err)
	}

	quotaReleased := false
	if account != nil {
		story := post.ScheduleType == models.ScheduleTypeAutoStory
		if err := f.quotaFlow.ReleaseDay(ctx, account, post.QuotaDay, story); err == nil {
			quotaReleased = true
		}
	}

	return &dto.CancelPostResponse{
		UUID:          post.UUID.String(),
		Status:        post.Status.String(),
		QuotaReleased: quotaReleased,
		QuotaDay:      post.QuotaDay,
	}, nil
}

// Resubmit implements PostFlow
func (f *postFlow) Resubmit(ctx context.Context, postUUID string, metadata *ClientMetadata) (*dto.ResubmitPostResponse, error) {
	post, err := f.byUUID(ctx, postUUID)
	if err != nil {
		return nil, err
	}

	if post.Status != models.PostStatusFailed {
		return nil, NewBusinessError("POST_NOT_RESUBMITTABLE", fmt.Sprintf("post is %s, only failed posts can be resubmitted", post.Status), ErrPostNotResubmittable)
	}

	account, err := f.accountRepo.ByID(ctx, post.AccountID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up account: %w", err)
	}
	if account == nil {
		return nil, NewBusinessError("ACCOUNT_NOT_FOUND", "account not found", ErrAccountNotFound)
	}

	// The new post re-enters allocation with the original content. Stories
	// go back through the cadence; everything else queues for the next
	// available slot.
	scheduleType := models.ScheduleTypeQueue
	if post.ContentType == models.ContentTypeStory {
		scheduleType = models.ScheduleTypeAutoStory
	}

	created, err := f.allocation.CreatePost(ctx, &dto.CreatePostRequest{
		AccountUUID:  account.UUID.String(),
		ContentType:  string(post.ContentType),
		ScheduleType: string(scheduleType),
		Caption:      post.Caption,
		MediaURLs:    post.MediaURLs,
	}, metadata)
	if err != nil {
		return nil, err
	}

	return &dto.ResubmitPostResponse{
		OriginalUUID:  post.UUID.String(),
		UUID:          created.UUID,
		Status:        created.Status,
		ScheduledTime: created.ScheduledTime,
		QuotaDay:      created.QuotaDay,
	}, nil
}

// ExportPosts implements PostFlow
func (f *postFlow) ExportPosts(ctx context.Context, req *dto.ListPostsRequest, metadata *ClientMetadata) ([]byte, string, error) {
	filter, err := f.buildFilter(ctx, req)
	if err != nil {
		return nil, "", err
	}

	posts, err := f.postRepo.ByFilter(ctx, *filter, "scheduled_time ASC", 0, 0)
	if err != nil {
		return nil, "", fmt.Errorf("failed to list posts for export: %w", err)
	}

	file := excelize.NewFile()
	defer func() { _ = file.Close() }()

	sheet := "Posts"
	if err := file.SetSheetName("Sheet1", sheet); err != nil {
		return nil, "", fmt.Errorf("failed to prepare export sheet: %w", err)
	}

	headers := []string{"UUID", "Account ID", "Content Type", "Schedule Type", "Scheduled Time", "Status", "Retry Count", "Instagram Post ID", "Error", "Quota Day", "Created At"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := file.SetCellValue(sheet, cell, h); err != nil {
			return nil, "", fmt.Errorf("failed to write export header: %w", err)
		}
	}

	for row, p := range posts {
		values := []any{
			p.UUID.String(),
			p.AccountID,
			string(p.ContentType),
			string(p.ScheduleType),
			p.ScheduledTime.Format(time.RFC3339),
			p.Status.String(),
			p.RetryCount,
			derefOr(p.InstagramPostID, ""),
			derefOr(p.ErrorMessage, ""),
			p.QuotaDay,
			p.CreatedAt.Format(time.RFC3339),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			if err := file.SetCellValue(sheet, cell, v); err != nil {
				return nil, "", fmt.Errorf("failed to write export row: %w", err)
			}
		}
	}

	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, "", fmt.Errorf("failed to render export: %w", err)
	}

	filename := fmt.Sprintf("posts_export_%s.xlsx", f.clock.Now().Format("20060102_150405"))
	return buf.Bytes(), filename, nil
}

func derefOr(s *string, fallback string) string {
	if s == nil {
		return fallback
	}
	return *s
}
