package main

import (
	"context"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"nlu-regress/internal/runner"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "0.3.0"

type options struct {
	production  bool
	development bool
	historyPath string
	noColor     bool
	jsonOutput  bool
	verbose     bool
	concurrency int
	limit       int
}

func main() {
	os.Exit(execute(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

// execute runs the CLI and returns the process exit code.
func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	configureLogging(stderr, false)
	exitCode := runner.ExitClean
	root := newRootCmd(ctx, stdout, stderr, &exitCode)
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		logrus.WithError(err).Error("nlu-regress failed")
		return runner.ExitFatal
	}
	return exitCode
}

func newRootCmd(ctx context.Context, stdout, stderr io.Writer, exitCode *int) *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "nlu-regress [project-dir]",
		Short: "Replay a labelled suite against an NLU endpoint and report regressions",
		Long: `nlu-regress reads config.json and suite.json from a project directory, sends
every example sentence to the configured NLU endpoint and compares the predicted
intent and entities with the expected labels.

Exit status: 0 clean run, 1 fatal error, 2 regression issues, 3 suite labels
that the model does not know (usually a typo in the suite).

A project directory literally named "history" collides with the history
subcommand; pass it as ./history instead.`,
		Version:       version,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			configureLogging(stderr, opts.verbose)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			code, err := runSuite(ctx, opts, dir, stdout)
			if err != nil {
				return err
			}
			*exitCode = code
			return nil
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	root.Flags().BoolVarP(&opts.development, "development", "d", false, "test against development endpoint (default)")
	root.Flags().BoolVarP(&opts.production, "production", "p", false, "test against production endpoint")
	root.MarkFlagsMutuallyExclusive("development", "production")
	root.Flags().BoolVar(&opts.noColor, "no-color", false, "disable coloured output")
	root.Flags().BoolVar(&opts.jsonOutput, "json", false, "print the report as JSON instead of the console summary")
	root.Flags().IntVar(&opts.concurrency, "concurrency", -1, "maximum requests in flight (0 = unlimited, default from config)")
	root.PersistentFlags().StringVar(&opts.historyPath, "history", os.Getenv("NLU_REGRESS_HISTORY"), "SQLite file recording run history (env NLU_REGRESS_HISTORY)")
	root.PersistentFlags().BoolVar(&opts.verbose, "verbose", false, "enable debug logging")

	root.AddCommand(newHistoryCmd(opts, stdout))
	return root
}

func configureLogging(w io.Writer, verbose bool) {
	logrus.SetOutput(w)
	logrus.SetLevel(logrus.InfoLevel)
	if verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}
}
