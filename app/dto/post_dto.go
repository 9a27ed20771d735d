package dto

// CreatePostRequest is the submission payload for a new post
type CreatePostRequest struct {
	AccountUUID   string   `json:"account_uuid" validate:"required,uuid4"`
	ContentType   string   `json:"content_type" validate:"required,oneof=feed carousel story"`
	ScheduleType  string   `json:"schedule_type" validate:"required,oneof=now next_slot specific queue auto_story"`
	ScheduledTime *string  `json:"scheduled_time,omitempty" validate:"omitempty"` // RFC3339, required for specific
	Caption       *string  `json:"caption,omitempty" validate:"omitempty,max=2200"`
	TemplateName  *string  `json:"template_name,omitempty" validate:"omitempty,max=255"`
	CustomText    *string  `json:"custom_text,omitempty" validate:"omitempty,max=500"`
	AddHashtags   bool     `json:"add_hashtags"`
	MediaURLs     []string `json:"media_urls" validate:"required,min=1,max=10,dive,url"`
}

// CreatePostResponse acknowledges a scheduled post
type CreatePostResponse struct {
	UUID          string `json:"uuid"`
	Status        string `json:"status"`
	ScheduleType  string `json:"schedule_type"`
	ScheduledTime string `json:"scheduled_time"`
	QuotaDay      string `json:"quota_day"`
}

// PostStatusDTO is the status-query representation of a post
type PostStatusDTO struct {
	UUID            string  `json:"uuid"`
	Status          string  `json:"status"`
	StatusDisplay   string  `json:"status_display"`
	ContentType     string  `json:"content_type"`
	ScheduleType    string  `json:"schedule_type"`
	ScheduledTime   string  `json:"scheduled_time"`
	ActualPostTime  *string `json:"actual_post_time,omitempty"`
	InstagramPostID *string `json:"instagram_post_id,omitempty"`
	Error           *string `json:"error,omitempty"`
	RetryCount      int     `json:"retry_count"`
	NextAttemptAt   *string `json:"next_attempt_at,omitempty"`
	CreatedAt       string  `json:"created_at"`
}

// ListPostsRequest carries the query parameters of the post listing endpoint
type ListPostsRequest struct {
	AccountUUID *string `query:"account_uuid" validate:"omitempty,uuid4"`
	Status      *string `query:"status" validate:"omitempty,oneof=scheduled posted failed cancelled"`
	Day         *string `query:"day" validate:"omitempty,datetime=2006-01-02"`
	Page        int     `query:"page" validate:"omitempty,min=1"`
	PageSize    int     `query:"page_size" validate:"omitempty,min=1,max=100"`
}

// ListPostsResponse is the paginated post listing
type ListPostsResponse struct {
	Posts      []PostStatusDTO `json:"posts"`
	Pagination PaginationDTO   `json:"pagination"`
}

// CancelPostResponse acknowledges a cancellation
type CancelPostResponse struct {
	UUID          string `json:"uuid"`
	Status        string `json:"status"`
	QuotaReleased bool   `json:"quota_released"`
	QuotaDay      string `json:"quota_day"`
}

// ResubmitPostResponse acknowledges a resubmission of a failed post
type ResubmitPostResponse struct {
	OriginalUUID  string `json:"original_uuid"`
	UUID          string `json:"uuid"`
	Status        string `json:"status"`
	ScheduledTime string `json:"scheduled_time"`
	QuotaDay      string `json:"quota_day"`
}

// QuotaDTO reports the remaining capacity for an account and day
type QuotaDTO struct {
	AccountUUID string `json:"account_uuid"`
	Day         string `json:"day"`
	Ceiling     int    `json:"ceiling"`
	Used        int    `json:"used"`
	Remaining   int    `json:"remaining"`
}
