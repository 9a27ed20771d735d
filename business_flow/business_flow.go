// Package businessflow contains the business logic for the application.
package businessflow

import (
	"time"

	"github.com/skandydoc/instagram-automation-tool/app/dto"
	"github.com/skandydoc/instagram-automation-tool/models"
	"github.com/skandydoc/instagram-automation-tool/utils"
)

const RequestIDKey = "X-Request-ID"

// Clock abstracts wall-clock access so scheduling logic stays deterministic in tests
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return utils.UTCNow() }

// SystemClock returns a Clock backed by the real wall clock (UTC)
func SystemClock() Clock { return systemClock{} }

// ClientMetadata holds client-related information for audit logging
type ClientMetadata struct {
	IPAddress  string            `json:"ip_address"`
	UserAgent  string            `json:"user_agent"`
	RequestID  string            `json:"request_id,omitempty"`
	Additional map[string]string `json:"additional,omitempty"`
}

// NewClientMetadata creates a new ClientMetadata instance with basic information
func NewClientMetadata(ipAddress, userAgent string) *ClientMetadata {
	return &ClientMetadata{
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
		Additional: make(map[string]string),
	}
}

// SetRequestID sets the request ID
func (cm *ClientMetadata) SetRequestID(requestID string) {
	cm.RequestID = requestID
}

// ToPostStatusDTO converts a post model to its status-query representation
func ToPostStatusDTO(post models.Post) dto.PostStatusDTO {
	d := dto.PostStatusDTO{
		UUID:          post.UUID.String(),
		Status:        post.Status.String(),
		StatusDisplay: post.GetStatusDisplayName(),
		ContentType:   string(post.ContentType),
		ScheduleType:  string(post.ScheduleType),
		ScheduledTime: post.ScheduledTime.Format(time.RFC3339),
		RetryCount:    post.RetryCount,
		CreatedAt:     post.CreatedAt.Format(time.RFC3339),
	}
	if post.ActualPostTime != nil {
		d.ActualPostTime = utils.ToPtr(post.ActualPostTime.Format(time.RFC3339))
	}
	if post.InstagramPostID != nil {
		d.InstagramPostID = post.InstagramPostID
	}
	if post.ErrorMessage != nil {
		d.Error = post.ErrorMessage
	}
	if post.NextAttemptAt != nil {
		d.NextAttemptAt = utils.ToPtr(post.NextAttemptAt.Format(time.RFC3339))
	}
	return d
}

// ToAccountDTO converts an account model to its API representation
func ToAccountDTO(account models.Account) dto.AccountDTO {
	d := dto.AccountDTO{
		UUID:         account.UUID.String(),
		Username:     account.Username,
		InstagramID:  account.InstagramID,
		AccountType:  account.AccountType,
		DailyCeiling: account.DailyCeiling,
		IsActive:     utils.IsTrue(account.IsActive),
		CreatedAt:    account.CreatedAt.Format(time.RFC3339),
	}
	if account.Niche != nil {
		d.Niche = account.Niche
	}
	if account.Schedule != nil {
		d.Schedule = &dto.ScheduleDTO{
			MorningSlot:     account.Schedule.MorningSlot,
			EveningSlot:     account.Schedule.EveningSlot,
			Timezone:        account.Schedule.Timezone,
			VarianceMinutes: account.Schedule.VarianceMinutes,
			IsActive:        utils.IsTrue(account.Schedule.IsActive),
		}
	}
	return d
}
