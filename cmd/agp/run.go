package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/kiti15237/American-Gut/internal/journal"
	"github.com/kiti15237/American-Gut/internal/pipeline"
	"github.com/kiti15237/American-Gut/internal/scheduler"
)

var resumeFlag bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute the full pipeline",
	Long: `Execute the staged pipeline for every configured dataset.

The run halts at the first stage with a failed job and reports every
failed job with its source artifact. Already-submitted cluster jobs are
not cancelled. With --resume, stages whose expected outputs already
exist on disk are skipped.`,
	RunE: runPipeline,
}

func init() {
	runCmd.Flags().BoolVar(&resumeFlag, "resume", false, "Skip stages whose outputs already exist")
}

func runPipeline(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg.Logging)

	client := scheduler.NewGridEngineClient(
		scheduler.WithGridEngineLogger(logger),
	)

	opts := []pipeline.DriverOption{
		pipeline.WithLogger(logger),
		pipeline.WithWorkDir(cfg.WorkingDir),
		pipeline.WithDriverPollInterval(cfg.Scheduler.PollInterval),
		pipeline.WithResume(resumeFlag || cfg.Resume),
	}

	if cfg.Journal.Path != "" {
		j, err := journal.Open(cfg.Journal.Path)
		if err != nil {
			return err
		}
		defer j.Close()
		opts = append(opts, pipeline.WithJournal(j))
	}

	driver := pipeline.NewDriver(pipeline.BuildRegistry(cfg), client, opts...)
	plan := pipeline.BuildPlan(cfg)

	result, runErr := driver.Run(cmd.Context(), plan)
	printRunSummary(cmd, plan, result)
	return runErr
}

// printRunSummary prints one status line per step, colorized when
// stdout is a terminal.
func printRunSummary(cmd *cobra.Command, plan *pipeline.Plan, result *pipeline.RunResult) {
	if result == nil {
		return
	}

	useColor := false
	if f, ok := cmd.OutOrStdout().(interface{ Fd() uintptr }); ok {
		useColor = term.IsTerminal(int(f.Fd()))
	}
	paint := func(c *color.Color, s string) string {
		if useColor {
			return c.Sprint(s)
		}
		return s
	}

	cmd.Printf("run %s\n", result.RunID.Short())
	for _, step := range plan.Steps {
		state := result.Stages[step.Name()]
		if state == nil {
			continue
		}

		status := string(state.Status)
		switch state.Status {
		case pipeline.StageComplete, pipeline.StageSkipped:
			status = paint(color.New(color.FgGreen), status)
		case pipeline.StageFailed:
			status = paint(color.New(color.FgRed), status)
		case pipeline.StageNotStarted:
			status = paint(color.New(color.FgYellow), status)
		}
		cmd.Printf("  %-14s %s\n", step.Name(), status)

		for _, job := range state.FailedJobs() {
			cmd.Printf("    %s\n", paint(color.New(color.FgRed),
				fmt.Sprintf("job %s (%s) <- %s", job.Handle, job.Item.JobName, job.Item.Input.Path)))
		}
	}
}
