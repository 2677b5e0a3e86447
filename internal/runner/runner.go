// Package runner replays a regression suite against an NLU endpoint and
// aggregates the per-example verdicts into a run report.
package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"nlu-regress/internal/matcher"
	"nlu-regress/internal/nlu"
	"nlu-regress/internal/suite"
	"nlu-regress/internal/util"
)

// Parser issues one NLU parse request.
type Parser interface {
	Parse(ctx context.Context, sentence string) (nlu.Response, error)
}

// Observer is notified from the collecting goroutine: OnResult for every
// recorded result in arrival order, OnComplete once when the report is final.
type Observer interface {
	OnResult(res Result)
	OnComplete(report *Report)
}

type nopObserver struct{}

func (nopObserver) OnResult(Result) {}

func (nopObserver) OnComplete(*Report) {}

// Config wires a Runner.
type Config struct {
	Parser   Parser
	Matcher  *matcher.Matcher
	Project  string
	Endpoint string
	Target   string
	// Concurrency caps in-flight requests; zero dispatches every example at once.
	Concurrency int
	Observer    Observer
}

// Runner executes suites against one endpoint.
type Runner struct {
	parser      Parser
	matcher     *matcher.Matcher
	project     string
	endpoint    string
	target      string
	concurrency int
	observer    Observer
}

// New validates the configuration and returns a Runner.
func New(cfg Config) (*Runner, error) {
	if cfg.Parser == nil {
		return nil, errors.New("runner requires a parser")
	}
	if cfg.Matcher == nil {
		return nil, errors.New("runner requires a matcher")
	}
	if cfg.Concurrency < 0 {
		return nil, fmt.Errorf("concurrency must not be negative, got %d", cfg.Concurrency)
	}
	observer := cfg.Observer
	if observer == nil {
		observer = nopObserver{}
	}
	return &Runner{
		parser:      cfg.Parser,
		matcher:     cfg.Matcher,
		project:     cfg.Project,
		endpoint:    cfg.Endpoint,
		target:      cfg.Target,
		concurrency: cfg.Concurrency,
		observer:    observer,
	}, nil
}

// Run submits every example and blocks until each has a recorded result.
// Transport failures and missing intent labels are recorded as failing
// results; a *matcher.SeverityError aborts the run and is returned.
func (r *Runner) Run(ctx context.Context, examples []suite.Example) (*Report, error) {
	report := NewReport(uuid.NewString(), len(examples))
	report.Project = r.project
	report.Endpoint = r.endpoint
	report.Target = r.target
	report.Thresholds = r.matcher.Thresholds()

	logrus.WithFields(logrus.Fields{
		"run":      report.ID,
		"examples": len(examples),
		"endpoint": r.endpoint,
		"limit":    r.concurrency,
	}).Debug("regression run started")

	if len(examples) == 0 {
		report.finalizeIfComplete()
		r.observer.OnComplete(report)
		return report, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	if r.concurrency > 0 {
		g.SetLimit(r.concurrency)
	}

	resultCh := make(chan Result, len(examples))
	errCh := make(chan error, 1)

	go func() {
		for i, ex := range examples {
			if gctx.Err() != nil {
				break
			}
			g.Go(func() error {
				res, err := r.evaluate(gctx, i, ex)
				if err != nil {
					return err
				}
				select {
				case resultCh <- res:
					return nil
				case <-gctx.Done():
					return gctx.Err()
				}
			})
		}
		errCh <- g.Wait()
		close(resultCh)
	}()

	for res := range resultCh {
		complete := report.Record(res)
		r.observer.OnResult(res)
		if complete {
			r.observer.OnComplete(report)
		}
	}

	if err := <-errCh; err != nil {
		return nil, fmt.Errorf("regression run %s: %w", report.ID, err)
	}
	if !report.Complete() {
		// Only reachable when the caller's context was cancelled before dispatch finished.
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("regression run %s: %w", report.ID, err)
		}
		return nil, fmt.Errorf("regression run %s: recorded %d of %d results", report.ID, len(report.Results), report.Expected)
	}

	logrus.WithFields(logrus.Fields{
		"run":      report.ID,
		"results":  len(report.Results),
		"issues":   len(report.Issues),
		"duration": report.Duration(),
	}).Debug("regression run finished")
	return report, nil
}

// evaluate requests and matches one example. The returned error is non-nil
// only for conditions that must abort the whole run.
func (r *Runner) evaluate(ctx context.Context, index int, ex suite.Example) (Result, error) {
	sw := util.StartStopwatch()
	resp, err := r.parser.Parse(ctx, ex.Sentence)
	latency := sw.Elapsed()
	if err != nil {
		return r.transportFailure(index, ex, latency, err), nil
	}

	matched, err := r.matcher.Match(ex, resp)
	if err != nil {
		var notFound *matcher.IntentNotFoundError
		if errors.As(err, &notFound) {
			logrus.WithFields(logrus.Fields{
				"sentence": ex.Sentence,
				"intent":   notFound.Intent,
			}).Error(notFound.Error())
			return Result{
				ExampleResult: failedExample(ex, err.Error()),
				Index:         index,
				Outcome:       OutcomeLabelMissing,
				Model:         resp.Model,
				Latency:       latency,
				Err:           err,
			}, nil
		}
		return Result{}, fmt.Errorf("example %d (%q): %w", index, ex.Sentence, err)
	}

	return Result{
		ExampleResult: matched,
		Index:         index,
		Outcome:       OutcomeMatched,
		Model:         resp.Model,
		Latency:       latency,
	}, nil
}

func (r *Runner) transportFailure(index int, ex suite.Example, latency time.Duration, err error) Result {
	var te *nlu.TransportError
	if !errors.As(err, &te) {
		te = &nlu.TransportError{Kind: nlu.Classify(err), Sentence: ex.Sentence, Err: err}
	}
	logrus.WithError(te.Err).WithFields(logrus.Fields{
		"sentence": ex.Sentence,
		"class":    te.Kind.String(),
		"status":   te.Status,
		"ms":       latency.Milliseconds(),
	}).Warn(te.Kind.Message())
	return Result{
		ExampleResult: failedExample(ex, te.Error()),
		Index:         index,
		Outcome:       OutcomeTransportFail,
		Latency:       latency,
		Err:           te,
	}
}

// failedExample is the degenerate verdict of an example that could not be
// matched: an incorrect, critical intent with no best-scoring alternative.
func failedExample(ex suite.Example, message string) matcher.ExampleResult {
	return matcher.ExampleResult{
		Sentence: ex.Sentence,
		Intent: matcher.IntentMatch{
			Name:     ex.Expected.Intent.Name,
			Correct:  false,
			Message:  message,
			Severity: matcher.SeverityCritical,
		},
	}
}
