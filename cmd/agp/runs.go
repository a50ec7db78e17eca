package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kiti15237/American-Gut/internal/journal"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recorded pipeline runs",
	Long:  `List the runs recorded in the run journal, newest first.`,
	RunE:  listRuns,
}

func listRuns(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Journal.Path == "" {
		return fmt.Errorf("no journal configured (set journal.path)")
	}

	j, err := journal.Open(cfg.Journal.Path)
	if err != nil {
		return err
	}
	defer j.Close()

	runs, err := j.ListRuns(cmd.Context())
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		cmd.Println("no runs recorded")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "RUN\tSTARTED\tENDED\tSTATUS\tJOBS")
	for _, r := range runs {
		ended := "-"
		if r.EndedAt != nil {
			ended = r.EndedAt.Format("2006-01-02 15:04:05")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\n",
			r.ID.Short(),
			r.StartedAt.Format("2006-01-02 15:04:05"),
			ended,
			r.Status,
			r.Jobs,
		)
	}
	return w.Flush()
}
