// Package completion computes course progress from lesson counts.
package completion

// Statuses derived from progress. Dropped is set out of band and never derived.
const (
	StatusEnrolled   = "enrolled"
	StatusInProgress = "in-progress"
	StatusCompleted  = "completed"
	StatusDropped    = "dropped"
)

// Progress returns the completion percentage of completed lessons out of total, rounded half-up.
// A course without lessons is never complete: Progress(0, 0) == 0.
// 100 is only returned once every lesson is completed.
func Progress(completed, total int) int {
	if total <= 0 {
		return 0
	}
	if completed < 0 {
		completed = 0
	}
	if completed >= total {
		return 100
	}
	p := (200*completed + total) / (2 * total)
	if p > 99 { // eg: 199/200, 100 is reserved to a fully completed course
		p = 99
	}
	return p
}

func IsComplete(progress int) bool {
	return progress == 100
}

// StatusFor maps a progress percentage to the enrollment status it implies.
func StatusFor(progress int) string {
	switch {
	case progress >= 100:
		return StatusCompleted
	case progress > 0:
		return StatusInProgress
	default:
		return StatusEnrolled
	}
}
