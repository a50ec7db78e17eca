// Package pipeline sequences the staged bloom-filtering pipeline:
// fan-out submission of independent cluster jobs per stage, a hard
// barrier between stages, and deterministic artifact naming so each
// stage can locate its inputs without a central index.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/kiti15237/American-Gut/internal/scheduler"
	"github.com/kiti15237/American-Gut/internal/template"
	"github.com/kiti15237/American-Gut/internal/types"
)

// RunJournal is the subset of the run journal the driver writes to.
// Journal failures are logged, never fatal: the journal observes the
// pipeline, it does not steer it.
type RunJournal interface {
	BeginRun(ctx context.Context, runID types.ID) error
	EndRun(ctx context.Context, runID types.ID, status string) error
	RecordSubmission(ctx context.Context, runID types.ID, handle, stage, jobName, command, artifact string) error
	RecordJobState(ctx context.Context, runID types.ID, handle, state string) error
}

// RunResult summarizes one driver run.
type RunResult struct {
	// RunID identifies the run.
	RunID types.ID

	// Stages holds the final state of every step, keyed by step name.
	Stages map[string]*StageState

	// FailedJobs lists every job that reached the failed state, with
	// its originating artifact, across the whole run.
	FailedJobs []JobRecord

	// Duration is the total wall-clock time of the run.
	Duration time.Duration
}

// Driver executes a Plan stage by stage. The driver itself is
// single-threaded and synchronous; parallelism lives inside the
// external scheduler across the independently submitted jobs of a
// stage. No state survives between runs: each Run builds its result
// from scratch.
type Driver struct {
	registry *template.Registry
	client   scheduler.Client
	logger   *slog.Logger
	tracer   trace.Tracer
	journal  RunJournal

	pollInterval time.Duration
	workDir      string
	resume       bool
}

// DriverOption is a functional option for configuring a Driver.
type DriverOption func(*Driver)

// WithLogger configures the driver to use the specified structured logger.
func WithLogger(logger *slog.Logger) DriverOption {
	return func(d *Driver) {
		d.logger = logger
	}
}

// WithTracer configures the driver to emit a span per stage.
func WithTracer(tracer trace.Tracer) DriverOption {
	return func(d *Driver) {
		d.tracer = tracer
	}
}

// WithJournal configures the driver to record runs and jobs.
func WithJournal(j RunJournal) DriverOption {
	return func(d *Driver) {
		d.journal = j
	}
}

// WithDriverPollInterval sets the barrier polling cadence.
func WithDriverPollInterval(interval time.Duration) DriverOption {
	return func(d *Driver) {
		if interval > 0 {
			d.pollInterval = interval
		}
	}
}

// WithWorkDir sets the working directory submitted jobs run in.
func WithWorkDir(dir string) DriverOption {
	return func(d *Driver) {
		d.workDir = dir
	}
}

// WithResume makes the driver skip a stage when every one of its
// expected outputs already exists on disk. Artifact paths are
// deterministic, so a completed stage's outputs identify it reliably.
func WithResume(resume bool) DriverOption {
	return func(d *Driver) {
		d.resume = resume
	}
}

// NewDriver creates a Driver over the given template registry and
// scheduler client.
func NewDriver(registry *template.Registry, client scheduler.Client, opts ...DriverOption) *Driver {
	d := &Driver{
		registry:     registry,
		client:       client,
		logger:       slog.Default(),
		pollInterval: scheduler.DefaultPollInterval,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Run executes the plan. Every template of every scheduled stage is
// resolved up front, so a template error is fatal at construction time
// and never reaches the scheduler. Stages then run in strict order:
// submit every fan-out item, wait on the barrier, and advance only when
// every job succeeded. Any job failure halts the run before the next
// stage; already-submitted cluster jobs are not cancelled.
func (d *Driver) Run(ctx context.Context, plan *Plan) (*RunResult, error) {
	runID := types.NewID()
	startTime := time.Now()

	result := &RunResult{
		RunID:  runID,
		Stages: make(map[string]*StageState, len(plan.Steps)),
	}
	for _, step := range plan.Steps {
		result.Stages[step.Name()] = &StageState{Status: StageNotStarted}
	}

	commands, err := d.resolveAll(plan)
	if err != nil {
		return result, err
	}

	d.logger.InfoContext(ctx, "starting pipeline run",
		"run_id", runID,
		"steps", len(plan.Steps),
	)
	d.journalBegin(ctx, runID)

	for _, step := range plan.Steps {
		select {
		case <-ctx.Done():
			d.journalEnd(ctx, runID, "cancelled")
			result.Duration = time.Since(startTime)
			return result, ctx.Err()
		default:
		}

		var err error
		switch step.Kind {
		case StepLocal:
			err = d.runLocalStep(ctx, step.Local, result.Stages[step.Name()])
		default:
			err = d.runStage(ctx, runID, step.Stage, commands[step.Stage.Name], result.Stages[step.Name()])
		}

		if err != nil {
			result.FailedJobs = result.Stages[step.Name()].FailedJobs()
			result.Duration = time.Since(startTime)
			d.journalEnd(ctx, runID, "failed")
			return result, err
		}
	}

	result.Duration = time.Since(startTime)
	d.journalEnd(ctx, runID, "complete")
	d.logger.InfoContext(ctx, "pipeline run complete",
		"run_id", runID,
		"duration", result.Duration,
	)
	return result, nil
}

// resolveAll resolves every scheduled stage's template against every
// item's bindings. Fails before anything is submitted.
func (d *Driver) resolveAll(plan *Plan) (map[string][]string, error) {
	commands := make(map[string][]string)
	for _, step := range plan.Steps {
		if step.Kind != StepScheduled {
			continue
		}
		stage := step.Stage
		resolved := make([]string, 0, len(stage.Items))
		for _, item := range stage.Items {
			cmd, err := d.registry.Resolve(stage.Template, item.Bindings)
			if err != nil {
				return nil, err
			}
			resolved = append(resolved, cmd)
		}
		commands[stage.Name] = resolved
	}
	return commands, nil
}

// runStage fans out one job per item, waits on the barrier, and treats
// any job failure as pipeline-fatal.
func (d *Driver) runStage(ctx context.Context, runID types.ID, stage *Stage, commands []string, state *StageState) error {
	if d.tracer != nil {
		var span trace.Span
		ctx, span = d.tracer.Start(ctx, "pipeline.stage",
			trace.WithAttributes(
				attribute.String("stage.name", stage.Name),
				attribute.Int("stage.items", len(stage.Items)),
			),
		)
		defer span.End()
	}

	if d.resume && d.outputsExist(stage) {
		d.logger.InfoContext(ctx, "skipping stage, outputs already present",
			"stage", stage.Name,
			"items", len(stage.Items),
		)
		state.Status = StageSkipped
		return nil
	}

	d.logger.InfoContext(ctx, "fanning out stage",
		"stage", stage.Name,
		"items", len(stage.Items),
		"queue", stage.Resources.Queue,
	)
	state.Status = StageFanningOut

	handles := make([]scheduler.JobHandle, 0, len(stage.Items))
	for i, item := range stage.Items {
		handle, err := d.client.Submit(ctx, scheduler.SubmitRequest{
			Command:   commands[i],
			Name:      item.JobName,
			Resources: stage.Resources,
			WorkDir:   d.workDir,
		})
		if err != nil {
			state.Status = StageFailed
			return types.WrapError(types.SCHED_SUBMIT_FAILED,
				fmt.Sprintf("stage %q aborted during fan-out", stage.Name), err)
		}

		state.Jobs = append(state.Jobs, JobRecord{
			Handle:  handle,
			Item:    item,
			Command: commands[i],
			State:   scheduler.JobStatePending,
		})
		handles = append(handles, handle)
		d.journalSubmission(ctx, runID, handle, stage.Name, commands[i], item)
	}

	state.Status = StageWaiting
	barrier := scheduler.NewBarrier(d.client,
		scheduler.WithPollInterval(d.pollInterval),
		scheduler.WithBarrierLogger(d.logger),
	)
	terminal, err := barrier.WaitOn(ctx, handles)
	if err != nil {
		state.Status = StageFailed
		return err
	}

	for i := range state.Jobs {
		state.Jobs[i].State = terminal[state.Jobs[i].Handle]
		d.journalJobState(ctx, runID, state.Jobs[i].Handle, state.Jobs[i].State)
	}

	if failed := state.FailedJobs(); len(failed) > 0 {
		state.Status = StageFailed
		descs := make([]string, 0, len(failed))
		for _, job := range failed {
			descs = append(descs, fmt.Sprintf("job %s (%s <- %s)", job.Handle, job.Item.JobName, job.Item.Input.Path))
		}
		return types.NewErrorf(types.STAGE_FAILED,
			"stage %q: %d of %d jobs failed: %s",
			stage.Name, len(failed), len(stage.Items), strings.Join(descs, "; "))
	}

	state.Status = StageComplete
	d.logger.InfoContext(ctx, "stage complete", "stage", stage.Name, "jobs", len(stage.Items))
	return nil
}

// runLocalStep processes every item synchronously. A failure on one
// dataset does not stop the others, but any failure fails the step so
// no later scheduled stage runs.
func (d *Driver) runLocalStep(ctx context.Context, step *LocalStep, state *StageState) error {
	d.logger.InfoContext(ctx, "running local step", "step", step.Name, "items", len(step.Items))
	state.Status = StageFanningOut

	var errs []error
	for _, item := range step.Items {
		if err := step.Run(item.Input.Path, item.Output.Path); err != nil {
			d.logger.ErrorContext(ctx, "local step failed for dataset",
				"step", step.Name,
				"input", item.Input.Path,
				"error", err,
			)
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		state.Status = StageFailed
		return types.WrapError(types.LOCAL_IO_FAILED,
			fmt.Sprintf("local step %q failed for %d of %d datasets", step.Name, len(errs), len(step.Items)),
			errors.Join(errs...))
	}

	state.Status = StageComplete
	return nil
}

// outputsExist reports whether every expected output of the stage is
// already on disk.
func (d *Driver) outputsExist(stage *Stage) bool {
	for _, out := range stage.Outputs() {
		if _, err := os.Stat(out.Path); err != nil {
			return false
		}
	}
	return true
}

func (d *Driver) journalBegin(ctx context.Context, runID types.ID) {
	if d.journal == nil {
		return
	}
	if err := d.journal.BeginRun(ctx, runID); err != nil {
		d.logger.WarnContext(ctx, "journal write failed", "error", err)
	}
}

func (d *Driver) journalEnd(ctx context.Context, runID types.ID, status string) {
	if d.journal == nil {
		return
	}
	if err := d.journal.EndRun(ctx, runID, status); err != nil {
		d.logger.WarnContext(ctx, "journal write failed", "error", err)
	}
}

func (d *Driver) journalSubmission(ctx context.Context, runID types.ID, handle scheduler.JobHandle, stage, command string, item FanOutItem) {
	if d.journal == nil {
		return
	}
	if err := d.journal.RecordSubmission(ctx, runID, string(handle), stage, item.JobName, command, item.Output.Path); err != nil {
		d.logger.WarnContext(ctx, "journal write failed", "error", err)
	}
}

func (d *Driver) journalJobState(ctx context.Context, runID types.ID, handle scheduler.JobHandle, state scheduler.JobState) {
	if d.journal == nil {
		return
	}
	if err := d.journal.RecordJobState(ctx, runID, string(handle), string(state)); err != nil {
		d.logger.WarnContext(ctx, "journal write failed", "error", err)
	}
}
