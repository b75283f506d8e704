package scheduling

import "time"

// Interval is a half-open time range [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

// NewInterval builds the interval covering start plus durationMin minutes.
func NewInterval(start time.Time, durationMin int) Interval {
	return Interval{
		Start: start,
		End:   start.Add(time.Duration(durationMin) * time.Minute),
	}
}

// Overlaps reports whether two half-open intervals share any instant.
// Intervals that merely touch at an endpoint do not overlap, so a slot ending
// 10:00 and one starting 10:00 can coexist on the same resource.
func (a Interval) Overlaps(b Interval) bool {
	return a.Start.Before(b.End) && a.End.After(b.Start)
}
