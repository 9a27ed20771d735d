package businessflow

import (
	"math/rand"
	"sync"
	"time"

	"github.com/skandydoc/instagram-automation-tool/utils"
)

// SlotCalculator turns configured times-of-day into concrete instants with
// human-like jitter. The randomness source is injected so a fixed seed makes
// every computation deterministic.
type SlotCalculator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSlotCalculator creates a calculator with the given randomness source
func NewSlotCalculator(rng *rand.Rand) *SlotCalculator {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &SlotCalculator{rng: rng}
}

// ComputeJitteredTime combines the base time-of-day with the reference date
// in the given timezone, then shifts it by a uniform random offset in
// [-varianceMinutes, +varianceMinutes] at seconds resolution. A variance of
// zero returns the exact base time.
func (c *SlotCalculator) ComputeJitteredTime(base utils.TimeOfDay, varianceMinutes int, referenceDate time.Time, loc *time.Location) time.Time {
	instant := utils.CombineDayAndClock(referenceDate, base, loc)
	if varianceMinutes <= 0 {
		return instant.UTC()
	}

	varianceSeconds := varianceMinutes * 60

	c.mu.Lock()
	offset := c.rng.Intn(2*varianceSeconds+1) - varianceSeconds
	c.mu.Unlock()

	return instant.Add(time.Duration(offset) * time.Second).UTC()
}

// JitterWithin returns a uniform random duration in [0, max]
func (c *SlotCalculator) JitterWithin(max time.Duration) time.Duration {
	if max <= 0 {
		return 0
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return time.Duration(c.rng.Int63n(int64(max) + 1))
}

// GenerateRecurringSlots produces the first count cadence instants strictly
// after start. The cadence is anchored at windowStart each day (fixed-anchor
// policy) and advances by interval; a slot that falls outside the daily
// window [windowStart, windowEnd) rolls over to the next day's window start.
// The window may wrap past midnight (e.g. 06:00-02:00). The sequence is
// finite; callers regenerate when they need more slots.
func (c *SlotCalculator) GenerateRecurringSlots(start time.Time, interval time.Duration, windowStart, windowEnd utils.TimeOfDay, count int, loc *time.Location) ([]time.Time, error) {
	if windowStart == windowEnd {
		return nil, NewBusinessError("INVALID_SLOT_WINDOW", "slot window start and end must differ", ErrConfigurationError)
	}
	if interval <= 0 {
		return nil, NewBusinessError("INVALID_SLOT_INTERVAL", "slot interval must be positive", ErrConfigurationError)
	}
	if count <= 0 {
		return nil, nil
	}

	wraps := windowEnd.Minutes() < windowStart.Minutes()

	inWindow := func(t time.Time) bool {
		minutes := t.In(loc).Hour()*60 + t.In(loc).Minute()
		if wraps {
			return minutes >= windowStart.Minutes() || minutes < windowEnd.Minutes()
		}
		return minutes >= windowStart.Minutes() && minutes < windowEnd.Minutes()
	}

	slots := make([]time.Time, 0, count)

	// Begin one day early so a wrapped window's past-midnight slots
	// (which belong to the previous day's cadence) are not skipped.
	day := start.In(loc).AddDate(0, 0, -1)
	for dayOffset := 0; len(slots) < count && dayOffset < utils.SchedulingHorizonDays+2; dayOffset++ {
		anchor := utils.CombineDayAndClock(day, windowStart, loc)
		for slot := anchor; inWindow(slot); slot = slot.Add(interval) {
			if !slot.After(start) {
				continue
			}
			slots = append(slots, slot.UTC())
			if len(slots) == count {
				break
			}
		}
		day = day.AddDate(0, 0, 1)
	}

	return slots, nil
}
