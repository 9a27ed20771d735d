// Package utils provides utility functions for the application.
package utils

import (
	"time"
)

// CalendarDayFormat is the layout used for quota calendar-day keys
const CalendarDayFormat = "2006-01-02"

// UTCNow returns the current time in UTC
func UTCNow() time.Time {
	return time.Now().UTC()
}

// UTCNowPtr returns a pointer to the current time in UTC
func UTCNowPtr() *time.Time {
	now := UTCNow()
	return &now
}

// CalendarDay returns the calendar-day key of the instant in the given location
func CalendarDay(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(CalendarDayFormat)
}

// ParseCalendarDay parses a calendar-day key into midnight of that day in the given location
func ParseCalendarDay(day string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(CalendarDayFormat, day, loc)
}

// NextCalendarDay returns the calendar-day key following the given one
func NextCalendarDay(day string, loc *time.Location) (string, error) {
	t, err := ParseCalendarDay(day, loc)
	if err != nil {
		return "", err
	}
	return t.AddDate(0, 0, 1).Format(CalendarDayFormat), nil
}

// CombineDayAndClock builds an instant from a calendar date and a wall-clock
// time-of-day, both interpreted in the given location
func CombineDayAndClock(date time.Time, clock TimeOfDay, loc *time.Location) time.Time {
	d := date.In(loc)
	return time.Date(d.Year(), d.Month(), d.Day(), clock.Hour, clock.Minute, 0, 0, loc)
}

// TimeOfDay is a wall-clock time without a date, as stored in schedule configs
type TimeOfDay struct {
	Hour   int
	Minute int
}

// ParseTimeOfDay parses "HH:MM" into a TimeOfDay
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return TimeOfDay{}, err
	}
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}, nil
}

// String formats the TimeOfDay as "HH:MM"
func (t TimeOfDay) String() string {
	return time.Date(0, 1, 1, t.Hour, t.Minute, 0, 0, time.UTC).Format("15:04")
}

// Minutes returns the time-of-day expressed as minutes after midnight
func (t TimeOfDay) Minutes() int {
	return t.Hour*60 + t.Minute
}
