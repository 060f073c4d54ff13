package domain

import "time"

// JobState is the lifecycle state of an analysis job.
//
// Valid transitions:
//
//	pending -> in_progress -> completed
//	pending -> in_progress -> abandoned (owning connection lost)
//
// There is no failed state: the detection provider never fails, so the
// only terminal states are completed and abandoned.
type JobState string

const (
	JobPending    JobState = "pending"
	JobInProgress JobState = "in_progress"
	JobCompleted  JobState = "completed"
	JobAbandoned  JobState = "abandoned"
)

// Terminal reports whether no further transitions are possible.
func (s JobState) Terminal() bool {
	return s == JobCompleted || s == JobAbandoned
}

// Job is one tracked analysis request, real-time or inline.
type Job struct {
	// ID is unique across the process lifetime and never reused.
	ID string

	// UserID is the identity that owns the job.
	UserID string

	// ImageID references the image under analysis.
	ImageID string

	// Progress is the last progress value pushed for this job,
	// monotonically non-decreasing in [0, 100].
	Progress int

	State     JobState
	CreatedAt time.Time
}
