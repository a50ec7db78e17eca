package pipeline

import (
	"github.com/kiti15237/American-Gut/internal/artifact"
	"github.com/kiti15237/American-Gut/internal/scheduler"
)

// StageStatus represents the driver's view of a stage.
type StageStatus string

const (
	// StageNotStarted indicates the stage has not begun.
	StageNotStarted StageStatus = "not_started"

	// StageFanningOut indicates the stage is submitting its jobs.
	StageFanningOut StageStatus = "fanning_out"

	// StageWaiting indicates all jobs are submitted and the stage is
	// blocked on the barrier.
	StageWaiting StageStatus = "waiting"

	// StageComplete indicates every job succeeded.
	StageComplete StageStatus = "complete"

	// StageFailed indicates at least one job failed.
	StageFailed StageStatus = "failed"

	// StageSkipped indicates a resume run found every expected output
	// already on disk.
	StageSkipped StageStatus = "skipped"
)

// String returns the string representation of the stage status.
func (s StageStatus) String() string {
	return string(s)
}

// IsTerminal returns true if the status is terminal.
func (s StageStatus) IsTerminal() bool {
	switch s {
	case StageComplete, StageFailed, StageSkipped:
		return true
	default:
		return false
	}
}

// FanOutItem is one independent unit of work within a stage: an input
// artifact, the per-item template bindings, and the expected output
// artifact derived by the namer before submission.
type FanOutItem struct {
	// Input is the artifact the job consumes.
	Input *artifact.Artifact

	// Bindings are the per-item placeholder values for the stage template.
	Bindings map[string]string

	// Output is the artifact the job is expected to produce.
	Output *artifact.Artifact

	// JobName is the name the job carries in the scheduler queue.
	JobName string
}

// Stage is a scheduled pipeline stage: a command template fanned out
// over an explicit ordered item list, all jobs sharing one resource
// profile. A stage owns the jobs it spawns and the artifacts it yields;
// it does not own artifacts consumed from a prior stage.
type Stage struct {
	// Name identifies the stage, e.g. "fecal-filter".
	Name string

	// Template is the registry name of the stage's command template.
	Template string

	// Items is the ordered fan-out list. Submission order within a
	// stage is insignificant; the explicit ordering exists so the
	// barrier can be tested against a deterministic set.
	Items []FanOutItem

	// Resources is the cluster resource profile shared by every job.
	Resources scheduler.ResourceProfile
}

// Outputs returns the stage's expected output artifacts in item order.
func (s *Stage) Outputs() []*artifact.Artifact {
	outs := make([]*artifact.Artifact, 0, len(s.Items))
	for _, item := range s.Items {
		outs = append(outs, item.Output)
	}
	return outs
}

// LocalItem is one dataset processed by a local step.
type LocalItem struct {
	Input  *artifact.Artifact
	Output *artifact.Artifact
}

// LocalStep is a synchronous transformation run on the submit host
// between scheduled stages. It never goes through the scheduler and
// must not participate in the barrier.
type LocalStep struct {
	// Name identifies the step, e.g. "trim".
	Name string

	// Items are processed sequentially; a failure on one does not stop
	// the others, but any failure stops the pipeline before the next
	// scheduled stage.
	Items []LocalItem

	// Run transforms one input file into one output file.
	Run func(in, out string) error
}

// JobRecord ties a submitted job to its fan-out item and the terminal
// state the scheduler reported for it.
type JobRecord struct {
	Handle  scheduler.JobHandle
	Item    FanOutItem
	Command string
	State   scheduler.JobState
}

// StageState tracks a stage's execution within one run.
type StageState struct {
	Status StageStatus
	Jobs   []JobRecord
}

// FailedJobs returns the records of jobs that reached the failed state.
func (s *StageState) FailedJobs() []JobRecord {
	var failed []JobRecord
	for _, job := range s.Jobs {
		if job.State == scheduler.JobStateFailed {
			failed = append(failed, job)
		}
	}
	return failed
}
