package model

// TaskStatus represents the status of a download task
type TaskStatus string

const (
	// TaskStatusPending means the task is queued but not started
	TaskStatusPending TaskStatus = "Pending"

	// TaskStatusSucceeded means the payload was fetched and written
	TaskStatusSucceeded TaskStatus = "Succeeded"

	// TaskStatusFailed means the task failed and was recorded in the outcome log
	TaskStatusFailed TaskStatus = "Failed"

	// TaskStatusSkipped means the task was excluded by resume/selection or by
	// a fatal session abort
	TaskStatusSkipped TaskStatus = "Skipped"
)

// String returns the string representation of TaskStatus
func (ts TaskStatus) String() string {
	return string(ts)
}

// IsFinished returns true if the task is in a terminal state
func (ts TaskStatus) IsFinished() bool {
	return ts == TaskStatusSucceeded || ts == TaskStatusFailed || ts == TaskStatusSkipped
}
