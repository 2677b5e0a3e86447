package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"

	"nlu-regress/internal/config"
	"nlu-regress/internal/matcher"
	"nlu-regress/internal/nlu"
	"nlu-regress/internal/report"
	"nlu-regress/internal/runner"
	"nlu-regress/internal/store"
	"nlu-regress/internal/suite"
)

func (o *options) target() config.Target {
	if o.production {
		return config.Production
	}
	return config.Development
}

// runSuite executes one regression run. A returned error is fatal; otherwise
// the exit code reflects the run's outcome.
func runSuite(ctx context.Context, opts *options, dir string, stdout io.Writer) (int, error) {
	cfg, err := config.Load(dir)
	if err != nil {
		return runner.ExitFatal, fmt.Errorf("load config: %w", err)
	}
	s, err := suite.Load(dir)
	if err != nil {
		return runner.ExitFatal, fmt.Errorf("load suite: %w", err)
	}

	target := opts.target()
	clientCfg, endpoint, err := cfg.ClientConfig(target)
	if err != nil {
		return runner.ExitFatal, err
	}
	client, err := nlu.NewClient(clientCfg)
	if err != nil {
		return runner.ExitFatal, fmt.Errorf("nlu client: %w", err)
	}
	m, err := matcher.New(cfg.Thresholds())
	if err != nil {
		return runner.ExitFatal, err
	}

	concurrency := cfg.Concurrency
	if opts.concurrency >= 0 {
		concurrency = opts.concurrency
	}

	var renderer *report.Renderer
	var observer runner.Observer
	if !opts.jsonOutput {
		renderer = report.NewRenderer(stdout, !opts.noColor)
		observer = renderer
	}

	rn, err := runner.New(runner.Config{
		Parser:      client,
		Matcher:     m,
		Project:     cfg.Project,
		Endpoint:    endpoint.Name,
		Target:      string(target),
		Concurrency: concurrency,
		Observer:    observer,
	})
	if err != nil {
		return runner.ExitFatal, err
	}

	logrus.WithFields(logrus.Fields{
		"project":  cfg.Project,
		"endpoint": endpoint.Name,
		"url":      endpoint.URL,
		"examples": len(s.Examples),
	}).Debug("starting regression suite")

	if renderer != nil {
		renderer.Header()
	}
	rep, err := rn.Run(ctx, s.Examples)
	if err != nil {
		return runner.ExitFatal, err
	}

	if opts.jsonOutput {
		if err := report.WriteJSON(stdout, rep); err != nil {
			return runner.ExitFatal, fmt.Errorf("write report: %w", err)
		}
	}

	if path := strings.TrimSpace(opts.historyPath); path != "" {
		recordHistory(path, rep)
	}
	return rep.ExitCode(), nil
}

func recordHistory(path string, rep *runner.Report) {
	db, err := store.Open(path, true)
	if err != nil {
		logrus.WithError(err).WithField("path", path).Warn("open history database")
		return
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			logrus.WithError(cerr).Warn("close history database")
		}
	}()
	if err := db.SaveRun(rep); err != nil {
		logrus.WithError(err).WithField("run", rep.ID).Warn("record run history")
		return
	}
	logrus.WithFields(logrus.Fields{"run": rep.ID, "path": path}).Debug("run history recorded")
}
