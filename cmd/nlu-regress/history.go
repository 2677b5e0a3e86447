package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"nlu-regress/internal/config"
	"nlu-regress/internal/matcher"
	"nlu-regress/internal/report"
	"nlu-regress/internal/store"
)

func newHistoryCmd(opts *options, stdout io.Writer) *cobra.Command {
	var runID string
	cmd := &cobra.Command{
		Use:   "history [project-dir]",
		Short: "List recorded runs, newest first, or the issues of one run",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := strings.TrimSpace(opts.historyPath)
			if path == "" {
				return errors.New("history database not set: use --history or NLU_REGRESS_HISTORY")
			}

			db, err := store.Open(path, true)
			if err != nil {
				return err
			}
			defer db.Close()

			if id := strings.TrimSpace(runID); id != "" {
				issues, err := db.RunIssues(id)
				if err != nil {
					return fmt.Errorf("run %s issues: %w", id, err)
				}
				return writeIssues(stdout, id, issues)
			}

			project := ""
			if len(args) == 1 {
				cfg, err := config.Load(args[0])
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
				project = cfg.Project
			}
			runs, err := db.RecentRuns(project, opts.limit)
			if err != nil {
				return fmt.Errorf("list runs: %w", err)
			}
			return writeRuns(stdout, runs)
		},
	}
	cmd.Flags().IntVar(&opts.limit, "limit", 20, "maximum number of runs to list")
	cmd.Flags().StringVar(&runID, "run", "", "show the stored issues of this run id")
	return cmd
}

func writeRuns(w io.Writer, runs []store.Run) error {
	if len(runs) == 0 {
		_, err := fmt.Fprintln(w, "No runs recorded.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "STARTED\tRUN\tPROJECT\tENDPOINT\tMODEL\tTESTS\tISSUES\tEXIT")
	for _, run := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\t%d\t%d\n",
			run.StartedAt.Local().Format(time.DateTime), run.ID, run.Project, run.Endpoint, run.Model, run.Total, run.Issues, run.ExitCode)
	}
	return tw.Flush()
}

func writeIssues(w io.Writer, runID string, issues []store.ExampleRecord) error {
	if len(issues) == 0 {
		_, err := fmt.Fprintf(w, "Run %s has no stored issues.\n", runID)
		return err
	}
	fmt.Fprintf(w, "%d issues in run %s\n", len(issues), runID)
	for _, issue := range issues {
		fmt.Fprintf(w, "\n%s\n", issue.Sentence)
		if issue.IntentCorrect {
			fmt.Fprintf(w, "  %s   %s\n", issue.Intent, report.FormatConfidence(issue.IntentConfidence))
		} else {
			fmt.Fprintf(w, "  %s   %s\n", issue.Intent, issue.Message)
		}
		entities, err := issue.Entities()
		if err != nil {
			return fmt.Errorf("decode entities of %q: %w", issue.Sentence, err)
		}
		for _, e := range entities {
			if e.Severity == matcher.SeverityNone {
				continue
			}
			fmt.Fprintf(w, "    %s   %s\n", e.Entity, e.Message)
		}
	}
	return nil
}
