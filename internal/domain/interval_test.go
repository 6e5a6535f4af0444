package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func at(h, m int) time.Time {
	return time.Date(2024, 6, 10, h, m, 0, 0, time.UTC)
}

func TestInterval_Overlaps(t *testing.T) {
	slot := Interval{Start: at(11, 30), End: at(12, 0)}

	cases := []struct {
		name  string
		other Interval
		want  bool
	}{
		{"partial overlap at start", Interval{at(11, 20), at(11, 40)}, true},
		{"touching before", Interval{at(11, 0), at(11, 30)}, false},
		{"touching after", Interval{at(12, 0), at(12, 30)}, false},
		{"contains", Interval{at(11, 0), at(13, 0)}, true},
		{"inside", Interval{at(11, 40), at(11, 50)}, true},
		{"identical", slot, true},
		{"disjoint", Interval{at(9, 0), at(9, 30)}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, slot.Overlaps(tc.other))
			assert.Equal(t, tc.want, tc.other.Overlaps(slot))
		})
	}
}

func TestInterval_Within(t *testing.T) {
	window := Interval{at(9, 0), at(17, 0)}

	assert.True(t, Interval{at(16, 30), at(17, 0)}.Within(window))
	assert.False(t, Interval{at(16, 45), at(17, 15)}.Within(window))
	assert.False(t, Interval{at(8, 45), at(9, 15)}.Within(window))
}

func TestSettings_WorkingWindowUsesLocalDate(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	s := DefaultSettings()

	// 22:00 UTC on June 9th is already June 10th at UTC+3
	w := s.WorkingWindow(time.Date(2024, 6, 9, 22, 0, 0, 0, time.UTC), loc)

	assert.Equal(t, time.Date(2024, 6, 10, 9, 0, 0, 0, loc), w.Start)
	assert.Equal(t, time.Date(2024, 6, 10, 17, 0, 0, 0, loc), w.End)
	assert.Equal(t, time.Date(2024, 6, 10, 6, 0, 0, 0, time.UTC), w.Start.UTC())
}

func TestSettings_InvertedHoursGiveEmptyWindow(t *testing.T) {
	s := &Settings{WorkStartHour: 18, WorkEndHour: 9}
	assert.True(t, s.WorkingWindow(at(0, 0), time.UTC).IsEmpty())
}

func TestBlackoutDateHelpers(t *testing.T) {
	dates := []string{"2024-06-12"}

	added := WithBlackoutDate(dates, "2024-06-10")
	assert.Equal(t, []string{"2024-06-10", "2024-06-12"}, added)
	assert.Equal(t, added, WithBlackoutDate(added, "2024-06-10"))
	assert.Equal(t, []string{"2024-06-12"}, dates)

	assert.Equal(t, []string{"2024-06-12"}, WithoutBlackoutDate(added, "2024-06-10"))
	assert.Equal(t, []string{}, WithoutBlackoutDate([]string{}, "2024-06-10"))

	s := &Settings{BlackoutDates: added}
	assert.True(t, s.IsBlackout("2024-06-10"))
	assert.False(t, s.IsBlackout("2024-06-11"))
}

func TestAppointment_NeedsReminder(t *testing.T) {
	phone := "+15550001111"
	empty := ""

	cases := []struct {
		name string
		a    Appointment
		want bool
	}{
		{"eligible", Appointment{Status: StatusConfirmed, GuestPhone: &phone}, true},
		{"cancelled", Appointment{Status: StatusCancelled, GuestPhone: &phone}, false},
		{"blocked", Appointment{Status: StatusConfirmed, IsBlocked: true, GuestPhone: &phone}, false},
		{"already sent", Appointment{Status: StatusConfirmed, ReminderSent: true, GuestPhone: &phone}, false},
		{"no phone", Appointment{Status: StatusConfirmed}, false},
		{"empty phone", Appointment{Status: StatusConfirmed, GuestPhone: &empty}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.a.NeedsReminder())
		})
	}
}
