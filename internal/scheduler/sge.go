package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/kiti15237/American-Gut/internal/types"
)

// commandRunner executes an external command and returns its combined
// output. Swapped out in tests.
type commandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// GridEngineClient submits and polls jobs on an SGE-style batch scheduler
// through its command-line tools (qsub, qstat, qacct).
type GridEngineClient struct {
	qsub   string
	qstat  string
	qacct  string
	logger *slog.Logger
	run    commandRunner
}

// GridEngineOption is a functional option for configuring GridEngineClient.
type GridEngineOption func(*GridEngineClient)

// WithGridEngineLogger configures the client to use the specified logger.
func WithGridEngineLogger(logger *slog.Logger) GridEngineOption {
	return func(c *GridEngineClient) {
		c.logger = logger
	}
}

// WithCommandPaths overrides the scheduler tool paths. Useful when the
// tools are not on PATH on the submit host.
func WithCommandPaths(qsub, qstat, qacct string) GridEngineOption {
	return func(c *GridEngineClient) {
		c.qsub = qsub
		c.qstat = qstat
		c.qacct = qacct
	}
}

// NewGridEngineClient creates a scheduler client driving qsub/qstat/qacct.
func NewGridEngineClient(opts ...GridEngineOption) *GridEngineClient {
	c := &GridEngineClient{
		qsub:   "qsub",
		qstat:  "qstat",
		qacct:  "qacct",
		logger: slog.Default(),
		run:    execRunner,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Submit enqueues the command as a binary job and returns the scheduler's
// job ID as an opaque handle. Non-blocking. A rejection by qsub surfaces
// as SCHED_SUBMIT_FAILED, which is fatal for the invoking stage.
func (c *GridEngineClient) Submit(ctx context.Context, req SubmitRequest) (JobHandle, error) {
	args := []string{
		"-terse",
		"-N", req.Name,
		"-q", string(req.Resources.Queue),
		"-l", fmt.Sprintf("h_rt=%s", formatWallTime(req.Resources.WallTime)),
	}
	if req.Resources.Cores > 1 {
		args = append(args, "-pe", "smp", strconv.Itoa(req.Resources.Cores))
	}
	if req.WorkDir != "" {
		args = append(args, "-wd", req.WorkDir)
	}
	args = append(args, "-b", "y", "sh", "-c", req.Command)

	out, err := c.run(ctx, c.qsub, args...)
	if err != nil {
		return "", types.WrapError(types.SCHED_SUBMIT_FAILED,
			fmt.Sprintf("qsub rejected job %q: %s", req.Name, strings.TrimSpace(string(out))), err)
	}

	handle, err := parseQsubOutput(string(out))
	if err != nil {
		return "", types.WrapError(types.SCHED_SUBMIT_FAILED,
			fmt.Sprintf("unparseable qsub output for job %q", req.Name), err)
	}

	c.logger.Debug("submitted cluster job",
		"job_name", req.Name,
		"handle", handle,
		"queue", req.Resources.Queue,
		"cores", req.Resources.Cores,
	)

	return handle, nil
}

// Poll reports the scheduler's current state for the job. A job still
// known to qstat is pending or running; a job that has left the queue is
// resolved through qacct's exit status. A finished job not yet visible
// in accounting reports as running until qacct catches up.
func (c *GridEngineClient) Poll(ctx context.Context, handle JobHandle) (JobState, error) {
	out, err := c.run(ctx, c.qstat)
	if err != nil {
		return "", types.WrapError(types.SCHED_POLL_FAILED,
			fmt.Sprintf("qstat failed for job %s", handle), err)
	}

	if state, found := parseQstatState(string(out), handle); found {
		return state, nil
	}

	out, err = c.run(ctx, c.qacct, "-j", string(handle))
	if err != nil {
		// Accounting lags the queue; the job finished but is not yet
		// visible, so report it as still running.
		return JobStateRunning, nil
	}

	return parseQacctState(string(out))
}

// parseQsubOutput extracts the job ID from qsub -terse output. Array
// jobs report "id.first-last:step"; only the numeric ID is kept.
func parseQsubOutput(out string) (JobHandle, error) {
	id := strings.TrimSpace(out)
	if i := strings.IndexByte(id, '.'); i >= 0 {
		id = id[:i]
	}
	if _, err := strconv.Atoi(id); err != nil {
		return "", fmt.Errorf("expected numeric job ID, got %q", strings.TrimSpace(out))
	}
	return JobHandle(id), nil
}

// parseQstatState scans qstat's tabular output for the job and maps its
// state letters. Returns found=false if the job is no longer listed.
func parseQstatState(out string, handle JobHandle) (JobState, bool) {
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 5 || fields[0] != string(handle) {
			continue
		}
		state := fields[4]
		switch {
		case strings.Contains(state, "E"):
			return JobStateFailed, true
		case strings.Contains(state, "r") || strings.Contains(state, "t"):
			return JobStateRunning, true
		default:
			// qw, hqw, and friends
			return JobStatePending, true
		}
	}
	return "", false
}

// parseQacctState resolves a finished job's terminal state from its
// accounting record.
func parseQacctState(out string) (JobState, error) {
	var exitStatus, failed string
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		switch fields[0] {
		case "exit_status":
			exitStatus = fields[1]
		case "failed":
			failed = fields[1]
		}
	}

	if exitStatus == "" {
		return "", types.NewError(types.SCHED_POLL_FAILED, "qacct record has no exit_status")
	}
	if exitStatus != "0" || (failed != "" && failed != "0") {
		return JobStateFailed, nil
	}
	return JobStateSucceeded, nil
}

// formatWallTime renders a duration in the HH:MM:SS form h_rt expects.
func formatWallTime(d time.Duration) string {
	total := int(d.Seconds())
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total%3600)/60, total%60)
}
