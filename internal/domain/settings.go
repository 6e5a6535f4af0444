package domain

import (
	"slices"
	"time"
)

// Settings is the business calendar aggregate (singleton keyed by SettingsID).
// WorkStartHour >= WorkEndHour is tolerated and yields an empty working window.
type Settings struct {
	ID                 string
	WorkStartHour      int
	WorkEndHour        int
	BlackoutDates      []string // YYYY-MM-DD
	SMSReminderMinutes int
	UpdatedAt          time.Time
}

// DefaultSettings constructs the settings used when none are stored yet
func DefaultSettings() *Settings {
	return &Settings{
		ID:                 SettingsID,
		WorkStartHour:      DefaultWorkStartHour,
		WorkEndHour:        DefaultWorkEndHour,
		BlackoutDates:      []string{},
		SMSReminderMinutes: DefaultSMSReminderMinutes,
	}
}

// IsBlackout reports whether the calendar day (YYYY-MM-DD) is closed
func (s *Settings) IsBlackout(day string) bool {
	return slices.Contains(s.BlackoutDates, day)
}

// WorkingWindow returns [day@WorkStartHour, day@WorkEndHour) in loc.
// Only the calendar date of day (as seen in loc) is used.
func (s *Settings) WorkingWindow(day time.Time, loc *time.Location) Interval {
	local := day.In(loc)
	y, m, d := local.Date()
	return Interval{
		Start: time.Date(y, m, d, s.WorkStartHour, 0, 0, 0, loc),
		End:   time.Date(y, m, d, s.WorkEndHour, 0, 0, 0, loc),
	}
}

// ReminderLead returns SMSReminderMinutes as a duration
func (s *Settings) ReminderLead() time.Duration {
	return time.Duration(s.SMSReminderMinutes) * time.Minute
}

// WithBlackoutDate returns a copy of dates with day added once
func WithBlackoutDate(dates []string, day string) []string {
	if slices.Contains(dates, day) {
		return slices.Clone(dates)
	}
	result := append(slices.Clone(dates), day)
	slices.Sort(result)
	return result
}

// WithoutBlackoutDate returns a copy of dates with every occurrence of day removed
func WithoutBlackoutDate(dates []string, day string) []string {
	result := make([]string, 0, len(dates))
	for _, d := range dates {
		if d != day {
			result = append(result, d)
		}
	}
	return result
}

// CalendarDay returns the [00:00, next 00:00) range of t's date in loc
func CalendarDay(t time.Time, loc *time.Location) Interval {
	local := t.In(loc)
	y, m, d := local.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, loc)
	return Interval{Start: start, End: start.AddDate(0, 0, 1)}
}
