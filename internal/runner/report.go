package runner

import (
	"errors"
	"time"

	"nlu-regress/internal/matcher"
	"nlu-regress/internal/nlu"
)

// Outcome is the terminal state of one example.
type Outcome string

const (
	OutcomeMatched       Outcome = "matched"
	OutcomeTransportFail Outcome = "transport_failed"
	OutcomeLabelMissing  Outcome = "label_missing"
)

// Result is the recorded verdict for one submitted example.
type Result struct {
	matcher.ExampleResult

	Index   int
	Outcome Outcome
	Model   string
	Latency time.Duration
	Err     error
}

// Severity is the example's worst severity. Examples that could not be
// matched are critical.
func (r Result) Severity() matcher.Severity {
	if r.Outcome != OutcomeMatched {
		return matcher.SeverityCritical
	}
	return r.ExampleResult.Severity()
}

// TransportError returns the transport failure of the example, if any.
func (r Result) TransportError() *nlu.TransportError {
	var te *nlu.TransportError
	if errors.As(r.Err, &te) {
		return te
	}
	return nil
}

// LabelError returns the missing-label failure of the example, if any.
func (r Result) LabelError() *matcher.IntentNotFoundError {
	var nf *matcher.IntentNotFoundError
	if errors.As(r.Err, &nf) {
		return nf
	}
	return nil
}

// Report accumulates results for a run. It is written by a single goroutine.
type Report struct {
	ID         string
	Project    string
	Endpoint   string
	Target     string
	Model      string
	Thresholds matcher.Thresholds
	Expected   int
	StartedAt  time.Time
	FinishedAt time.Time

	Results []Result
	Issues  []Result

	finalized bool
}

// NewReport returns an empty report expecting the given number of results.
func NewReport(id string, expected int) *Report {
	return &Report{ID: id, Expected: expected, StartedAt: time.Now().UTC()}
}

// Record appends a result in arrival order and returns true exactly once:
// on the call that brings the number of results to the expected count.
func (r *Report) Record(res Result) bool {
	r.Results = append(r.Results, res)
	if res.Severity() > matcher.SeverityNone {
		r.Issues = append(r.Issues, res)
	}
	if r.Model == "" && res.Model != "" {
		r.Model = res.Model
	}
	return r.finalizeIfComplete()
}

func (r *Report) finalizeIfComplete() bool {
	if r.finalized || len(r.Results) != r.Expected {
		return false
	}
	r.finalized = true
	r.FinishedAt = time.Now().UTC()
	return true
}

// Complete reports whether every expected result has been recorded.
func (r *Report) Complete() bool {
	return r.finalized
}

// Clean reports whether the run completed without issues.
func (r *Report) Clean() bool {
	return len(r.Issues) == 0
}

// MaxSeverity is the worst severity across all results.
func (r *Report) MaxSeverity() matcher.Severity {
	worst := matcher.SeverityNone
	for _, res := range r.Results {
		if s := res.Severity(); s > worst {
			worst = s
		}
	}
	return worst
}

// Count returns how many results ended in the given outcome.
func (r *Report) Count(outcome Outcome) int {
	n := 0
	for _, res := range r.Results {
		if res.Outcome == outcome {
			n++
		}
	}
	return n
}

// Duration is the wall time from start to finalization.
func (r *Report) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Process exit codes derived from a run.
const (
	ExitClean       = 0
	ExitFatal       = 1
	ExitIssues      = 2
	ExitSuiteDefect = 3
)

// ExitCode maps the report onto a process exit status. Missing intent labels
// are suite defects and take precedence over model regressions.
func (r *Report) ExitCode() int {
	if r == nil || !r.Complete() {
		return ExitFatal
	}
	if r.Count(OutcomeLabelMissing) > 0 {
		return ExitSuiteDefect
	}
	if len(r.Issues) > 0 {
		return ExitIssues
	}
	return ExitClean
}
