package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPostStatusTransitions(t *testing.T) {
	cases := []struct {
		from    PostStatus
		to      PostStatus
		allowed bool
	}{
		{PostStatusScheduled, PostStatusPosted, true},
		{PostStatusScheduled, PostStatusFailed, true},
		{PostStatusScheduled, PostStatusCancelled, true},
		{PostStatusPosted, PostStatusScheduled, false},
		{PostStatusPosted, PostStatusCancelled, false},
		{PostStatusFailed, PostStatusScheduled, false},
		{PostStatusFailed, PostStatusCancelled, false},
		{PostStatusCancelled, PostStatusScheduled, false},
		{PostStatusCancelled, PostStatusPosted, false},
	}

	for _, tc := range cases {
		post := &Post{Status: tc.from}
		assert.Equal(t, tc.allowed, post.CanTransitionTo(tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestPostStatusTerminal(t *testing.T) {
	assert.False(t, PostStatusScheduled.IsTerminal())
	assert.True(t, PostStatusPosted.IsTerminal())
	assert.True(t, PostStatusFailed.IsTerminal())
	assert.True(t, PostStatusCancelled.IsTerminal())
}

func TestPostIsRetrying(t *testing.T) {
	assert.False(t, (&Post{Status: PostStatusScheduled}).IsRetrying())
	assert.True(t, (&Post{Status: PostStatusScheduled, RetryCount: 1}).IsRetrying())
	assert.False(t, (&Post{Status: PostStatusFailed, RetryCount: 3}).IsRetrying())
}

func TestPostDueAt(t *testing.T) {
	scheduled := time.Date(2026, 3, 10, 13, 0, 0, 0, time.UTC)
	post := &Post{ScheduledTime: scheduled}
	assert.Equal(t, scheduled, post.DueAt())

	retry := scheduled.Add(5 * time.Minute)
	post.NextAttemptAt = &retry
	assert.Equal(t, retry, post.DueAt())
}

func TestPostStatusDisplayName(t *testing.T) {
	assert.Equal(t, "Scheduled", (&Post{Status: PostStatusScheduled}).GetStatusDisplayName())
	assert.Equal(t, "Retrying", (&Post{Status: PostStatusScheduled, RetryCount: 2}).GetStatusDisplayName())
	assert.Equal(t, "Posted", (&Post{Status: PostStatusPosted}).GetStatusDisplayName())
	assert.Equal(t, "Failed", (&Post{Status: PostStatusFailed}).GetStatusDisplayName())
	assert.Equal(t, "Cancelled", (&Post{Status: PostStatusCancelled}).GetStatusDisplayName())
	assert.Equal(t, "Unknown", (&Post{Status: "garbage"}).GetStatusDisplayName())
}

func TestEnumValidity(t *testing.T) {
	assert.True(t, PostStatusScheduled.Valid())
	assert.False(t, PostStatus("draft").Valid())

	assert.True(t, ContentTypeFeed.Valid())
	assert.True(t, ContentTypeCarousel.Valid())
	assert.True(t, ContentTypeStory.Valid())
	assert.False(t, ContentType("reel").Valid())

	assert.True(t, ScheduleTypeNow.Valid())
	assert.True(t, ScheduleTypeAutoStory.Valid())
	assert.False(t, ScheduleType("someday").Valid())
}

func TestPostStatusScan(t *testing.T) {
	var s PostStatus
	assert.NoError(t, s.Scan("posted"))
	assert.Equal(t, PostStatusPosted, s)

	assert.NoError(t, s.Scan([]byte("failed")))
	assert.Equal(t, PostStatusFailed, s)

	assert.Error(t, s.Scan(42))
}

func TestPostStatusValue(t *testing.T) {
	v, err := PostStatusScheduled.Value()
	assert.NoError(t, err)
	assert.Equal(t, "scheduled", v)

	_, err = PostStatus("draft").Value()
	assert.Error(t, err)
}
