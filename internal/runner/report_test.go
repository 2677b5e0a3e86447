package runner

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"nlu-regress/internal/matcher"
)

func matched(sev matcher.Severity, model string) Result {
	return Result{
		ExampleResult: matcher.ExampleResult{Intent: matcher.IntentMatch{Correct: true, Severity: sev}},
		Outcome:       OutcomeMatched,
		Model:         model,
	}
}

func TestRecordSignalsCompletionExactlyOnce(t *testing.T) {
	report := NewReport("run", 3)

	assert.False(t, report.Record(matched(matcher.SeverityNone, "")))
	assert.False(t, report.Record(matched(matcher.SeverityMedium, "m2")))
	assert.True(t, report.Record(matched(matcher.SeverityNone, "m3")))
	assert.True(t, report.Complete())
	assert.False(t, report.FinishedAt.IsZero())

	// a stray extra result never re-triggers completion
	assert.False(t, report.Record(matched(matcher.SeverityNone, "")))

	assert.Equal(t, "m2", report.Model)
	assert.Len(t, report.Issues, 1)
	assert.Equal(t, matcher.SeverityMedium, report.MaxSeverity())
}

func TestResultSeverityForFailures(t *testing.T) {
	res := Result{Outcome: OutcomeTransportFail, Err: errors.New("x")}
	assert.Equal(t, matcher.SeverityCritical, res.Severity())
	assert.Nil(t, res.TransportError())
	assert.Nil(t, res.LabelError())
}

func TestExitCode(t *testing.T) {
	var nilReport *Report
	assert.Equal(t, ExitFatal, nilReport.ExitCode())

	incomplete := NewReport("run", 2)
	incomplete.Record(matched(matcher.SeverityNone, ""))
	assert.Equal(t, ExitFatal, incomplete.ExitCode())

	clean := NewReport("run", 1)
	clean.Record(matched(matcher.SeverityNone, ""))
	assert.Equal(t, ExitClean, clean.ExitCode())

	issues := NewReport("run", 1)
	issues.Record(matched(matcher.SeverityLow, ""))
	assert.Equal(t, ExitIssues, issues.ExitCode())

	defect := NewReport("run", 2)
	defect.Record(matched(matcher.SeverityLow, ""))
	defect.Record(Result{Outcome: OutcomeLabelMissing, Err: &matcher.IntentNotFoundError{Intent: "x"}})
	assert.Equal(t, ExitSuiteDefect, defect.ExitCode())
}
