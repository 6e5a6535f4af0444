package domain

import "time"

// Interval is a half-open time range [Start, End)
type Interval struct {
	Start time.Time
	End   time.Time
}

// NewInterval builds [start, start+d)
func NewInterval(start time.Time, d time.Duration) Interval {
	return Interval{Start: start, End: start.Add(d)}
}

// Overlaps reports whether two half-open intervals share any instant.
// Touching intervals (a.End == b.Start) do not overlap.
func (i Interval) Overlaps(other Interval) bool {
	return i.Start.Before(other.End) && other.Start.Before(i.End)
}

// Within reports whether i lies entirely inside outer
func (i Interval) Within(outer Interval) bool {
	return !i.Start.Before(outer.Start) && !i.End.After(outer.End)
}

// IsEmpty reports whether the interval has no duration
func (i Interval) IsEmpty() bool {
	return !i.Start.Before(i.End)
}

// Duration returns End - Start
func (i Interval) Duration() time.Duration {
	return i.End.Sub(i.Start)
}
