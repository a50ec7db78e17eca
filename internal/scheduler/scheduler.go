// Package scheduler wraps the external compute cluster scheduler behind a
// narrow submit/poll interface. The orchestrator observes job states; it
// never sets them.
package scheduler

import (
	"context"
	"time"
)

// Queue identifies the scheduler queue a job is submitted to.
type Queue string

const (
	// QueueShort is for jobs with short wall-time limits.
	QueueShort Queue = "short"

	// QueueLong is for long-running jobs.
	QueueLong Queue = "long"
)

// String returns the string representation of the queue.
func (q Queue) String() string {
	return string(q)
}

// IsValid checks if the queue is one of the known queues.
func (q Queue) IsValid() bool {
	switch q {
	case QueueShort, QueueLong:
		return true
	default:
		return false
	}
}

// ResourceProfile describes the cluster resources requested for a job.
// A profile is chosen per stage, not per job: every fan-out job of a
// stage runs with the same profile.
type ResourceProfile struct {
	// Queue is the scheduler queue to submit to.
	Queue Queue `mapstructure:"queue" yaml:"queue"`

	// Cores is the number of cores requested per job.
	Cores int `mapstructure:"cores" yaml:"cores"`

	// WallTime is the hard wall-clock limit per job.
	WallTime time.Duration `mapstructure:"wall_time" yaml:"wall_time"`
}

// JobState represents the scheduler-owned state of a submitted job.
type JobState string

const (
	// JobStatePending indicates the job is queued but not yet running.
	JobStatePending JobState = "pending"

	// JobStateRunning indicates the job is executing on a node.
	JobStateRunning JobState = "running"

	// JobStateSucceeded indicates the job finished with a zero exit status.
	JobStateSucceeded JobState = "succeeded"

	// JobStateFailed indicates the job finished with a non-zero exit
	// status or was removed in an error state.
	JobStateFailed JobState = "failed"
)

// String returns the string representation of the job state.
func (s JobState) String() string {
	return string(s)
}

// IsTerminal returns true if the state is terminal (succeeded or failed).
func (s JobState) IsTerminal() bool {
	switch s {
	case JobStateSucceeded, JobStateFailed:
		return true
	default:
		return false
	}
}

// JobHandle is an opaque identifier returned by the scheduler at
// submission time and used for all subsequent polling.
type JobHandle string

// SubmitRequest carries everything the scheduler needs to enqueue a job.
type SubmitRequest struct {
	// Command is the fully resolved shell command to run.
	Command string

	// Name is the job name shown in the scheduler's queue listing.
	Name string

	// Resources is the resource profile of the submitting stage.
	Resources ResourceProfile

	// WorkDir is the working directory the job runs in.
	WorkDir string
}

// Client is the narrow interface to the external cluster scheduler.
// Submit is non-blocking: it enqueues the job and returns immediately.
// Poll reports the scheduler's view of the job's state.
type Client interface {
	Submit(ctx context.Context, req SubmitRequest) (JobHandle, error)
	Poll(ctx context.Context, handle JobHandle) (JobState, error)
}
