package entities

import "time"

// TimeSlot is a reserved interval (Start, End] in the scheduler calendar
type TimeSlot struct {
	ID    int64
	Start time.Time
	End   time.Time
	Type  string
	Data  map[string]any
	Ran   bool
}

// Overlaps reports whether the half-open intervals (Start, End] intersect
func (s *TimeSlot) Overlaps(start, end time.Time) bool {
	return start.Before(s.End) && s.Start.Before(end)
}

// Duration returns the slot length
func (s *TimeSlot) Duration() time.Duration {
	return s.End.Sub(s.Start)
}

// Active reports whether now falls inside [Start, End)
func (s *TimeSlot) Active(now time.Time) bool {
	return !now.Before(s.Start) && now.Before(s.End)
}
