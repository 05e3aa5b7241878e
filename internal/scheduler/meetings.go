package scheduler

import "time"

// ScheduledMeeting is the slice of an existing meeting the overlap scan needs.
type ScheduledMeeting struct {
	RequestID       string
	Start           time.Time
	DurationMinutes int
}

// HasSchedulingConflict reports whether the proposed [start, start+duration)
// window overlaps any of the existing meetings using half-open semantics.
// excludeRequestID lets a reschedule-in-place ignore the meeting's own slot.
func HasSchedulingConflict(existing []ScheduledMeeting, proposed time.Time, durationMinutes int, excludeRequestID string) bool {
	if durationMinutes <= 0 {
		return false
	}
	proposedEnd := proposed.Add(time.Duration(durationMinutes) * time.Minute)

	for _, meeting := range existing {
		if excludeRequestID != "" && meeting.RequestID == excludeRequestID {
			continue
		}
		if meeting.DurationMinutes <= 0 {
			continue
		}
		meetingEnd := meeting.Start.Add(time.Duration(meeting.DurationMinutes) * time.Minute)
		if proposedEnd.After(meeting.Start) && meetingEnd.After(proposed) {
			return true
		}
	}
	return false
}
