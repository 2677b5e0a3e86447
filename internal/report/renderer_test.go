package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"nlu-regress/internal/matcher"
	"nlu-regress/internal/nlu"
	"nlu-regress/internal/runner"
	"nlu-regress/internal/suite"
)

func boolPtr(v bool) *bool { return &v }

func floatPtr(v float64) *float64 { return &v }

func sampleReport() *runner.Report {
	rep := runner.NewReport("run-1", 4)
	rep.Endpoint = "Development"

	rep.Record(runner.Result{
		Index:   0,
		Outcome: runner.OutcomeMatched,
		Model:   "model_x",
		ExampleResult: matcher.ExampleResult{
			Sentence: "Find a mexican restaurant downtown",
			Intent:   matcher.IntentMatch{Name: "restaurant_search", Correct: true, Confidence: 0.991, Message: "Ok", Severity: matcher.SeverityNone},
			Entities: []matcher.EntityMatch{
				{Entity: "cuisine", Found: true, Correct: boolPtr(true), Value: "mexican", Confidence: floatPtr(0.69), Message: "Ok", Severity: matcher.SeverityLow},
				{Entity: "location", Found: true, Correct: boolPtr(true), Value: "downtown", Confidence: floatPtr(0.98), Message: "Ok", Severity: matcher.SeverityNone},
			},
		},
	})
	rep.Record(runner.Result{
		Index:   1,
		Outcome: runner.OutcomeMatched,
		Model:   "model_x",
		ExampleResult: matcher.ExampleResult{
			Sentence: "bye",
			Intent: matcher.IntentMatch{
				Name: "goodbye", Correct: false, Confidence: 0.2, Severity: matcher.SeverityCritical,
				Message:     "'greet' found instead of 'goodbye'",
				BestScoring: &matcher.ScoredIntent{Name: "greet", Confidence: 0.75},
			},
			Entities: []matcher.EntityMatch{
				{Entity: "time", Found: false, Message: "Not found", Severity: matcher.SeverityCritical, Expected: &suite.ExpectedEntity{Entity: "time", Value: "now"}},
			},
		},
	})
	rep.Record(runner.Result{
		Index:   2,
		Outcome: runner.OutcomeMatched,
		ExampleResult: matcher.ExampleResult{
			Sentence: "hi",
			Intent:   matcher.IntentMatch{Name: "greet", Correct: true, Confidence: 1, Message: "Ok", Severity: matcher.SeverityNone},
		},
	})
	te := &nlu.TransportError{Kind: nlu.KindTimeout, Sentence: "slow", Err: errors.New("deadline")}
	rep.Record(runner.Result{
		Index:   3,
		Outcome: runner.OutcomeTransportFail,
		Err:     te,
		ExampleResult: matcher.ExampleResult{
			Sentence: "slow",
			Intent:   matcher.IntentMatch{Name: "greet", Correct: false, Message: te.Error(), Severity: matcher.SeverityCritical},
		},
	})
	return rep
}

func TestRendererPlainOutput(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf, false)
	rep := sampleReport()

	r.Header()
	for _, res := range rep.Results {
		r.OnResult(res)
	}
	r.OnComplete(rep)

	expected := "\n\nREGRESSION TESTS\n\n" +
		"#**#*##" +
		"\n\n4 tests run on model_x in Development\n" +
		"1 requests failed\n" +
		"3 have issues\n" +
		"\nFind a mexican restaurant downtown\n" +
		"  restaurant_search   0.99\n" +
		"    cuisine: mexican   0.69\n" +
		"\nbye\n" +
		"  goodbye   0.2  <  greet   0.75\n" +
		"    time: Not found (expected 'now')\n" +
		"\nslow\n" +
		"  greet   Connection timed out: deadline\n" +
		"\n"
	if buf.String() != expected {
		t.Fatalf("unexpected output:\n%q\nwant:\n%q", buf.String(), expected)
	}
}

func TestRendererCleanRun(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf, false)
	rep := runner.NewReport("run-2", 0)
	rep.Endpoint = "Production"
	rep.Model = "m"

	r.OnComplete(rep)
	expected := "\n\n0 tests run on m in Production\nClean run!\n"
	if buf.String() != expected {
		t.Fatalf("unexpected output %q", buf.String())
	}
}

func TestEntityLineWrongValue(t *testing.T) {
	line := entityLine(matcher.EntityMatch{
		Entity: "cuisine", Found: true, Correct: boolPtr(false), Value: "italian", Confidence: floatPtr(0.91),
		Expected: &suite.ExpectedEntity{Entity: "cuisine", Value: "mexican"},
	})
	if line != "    cuisine: italian   0.91 (expected 'mexican')" {
		t.Fatalf("unexpected line %q", line)
	}
}

func TestFormatConfidence(t *testing.T) {
	tests := []struct {
		in       float64
		expected string
	}{
		{0.991, "0.99"},
		{1, "1"},
		{0, "0"},
		{0.5, "0.5"},
		{0.123456, "0.12"},
	}
	for _, tc := range tests {
		if got := FormatConfidence(tc.in); got != tc.expected {
			t.Fatalf("FormatConfidence(%v): expected %s got %s", tc.in, tc.expected, got)
		}
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, sampleReport()); err != nil {
		t.Fatalf("write json: %v", err)
	}
	var decoded RunDTO
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.Total != 4 || decoded.IssueCount != 3 {
		t.Fatalf("unexpected totals %d/%d", decoded.Total, decoded.IssueCount)
	}
	if decoded.ExitCode != runner.ExitIssues {
		t.Fatalf("expected exit code %d got %d", runner.ExitIssues, decoded.ExitCode)
	}
	if decoded.Results[3].Error == "" || decoded.Results[3].Outcome != runner.OutcomeTransportFail {
		t.Fatalf("expected transport failure detail, got %+v", decoded.Results[3])
	}
	if decoded.Results[1].Intent.BestScoring == nil {
		t.Fatalf("expected best scoring intent in json")
	}
}
