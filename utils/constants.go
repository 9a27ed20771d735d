package utils

import (
	"time"
)

// Scheduling constants
const (
	// DefaultDailyPostCeiling is the maximum posts per account per calendar day
	DefaultDailyPostCeiling = 25

	// AutoStoryDailyCap is the independent daily cap for auto-scheduled stories
	AutoStoryDailyCap = 10

	// SameAccountMinSpacing is the minimum gap between two posts on the same account
	SameAccountMinSpacing = 5 * time.Minute

	// GlobalMinSpacing is the minimum gap between any two posts across all accounts
	GlobalMinSpacing = 30 * time.Second

	// SpacingNudgeIncrement is the fixed step used to resolve slot collisions
	SpacingNudgeIncrement = time.Minute

	// SchedulingHorizonDays is the sanity cap for queue-type forward search
	SchedulingHorizonDays = 60

	// NowScheduleMaxJitter is the jitter applied to schedule-type "now" posts
	NowScheduleMaxJitter = 30 * time.Second

	// MaxDispatchRetries is the number of retries after the initial dispatch failure
	MaxDispatchRetries = 3

	// DispatchTimeout bounds a single gateway publish call
	DispatchTimeout = 30 * time.Second

	// DispatchClaimLease is how long a claimed post is considered in flight
	// before a crashed worker's claim may be taken over
	DispatchClaimLease = 2 * time.Minute
)

// RetryBackoffs are the scheduling delays between dispatch retries
var RetryBackoffs = [MaxDispatchRetries]time.Duration{
	1 * time.Minute,
	5 * time.Minute,
	15 * time.Minute,
}

// Story auto-scheduling window and cadence
var (
	StoryWindowStart   = TimeOfDay{Hour: 6, Minute: 0}
	StoryWindowEnd     = TimeOfDay{Hour: 2, Minute: 0}
	StorySlotInterval  = 2 * time.Hour
	DefaultMorningSlot = TimeOfDay{Hour: 13, Minute: 0}
	DefaultEveningSlot = TimeOfDay{Hour: 22, Minute: 0}
)

// Account defaults
const (
	DefaultVarianceMinutes = 15
	DefaultTimezone        = "Asia/Kolkata"
	DefaultHashtagCount    = 20
)
