package report

import (
	"encoding/json"
	"io"
	"time"

	"nlu-regress/internal/matcher"
	"nlu-regress/internal/runner"
)

// RunDTO is the machine-readable representation of a finished run.
type RunDTO struct {
	ID          string             `json:"id"`
	Project     string             `json:"project"`
	Endpoint    string             `json:"endpoint"`
	Target      string             `json:"target"`
	Model       string             `json:"model"`
	Thresholds  matcher.Thresholds `json:"thresholds"`
	Total       int                `json:"total"`
	IssueCount  int                `json:"issue_count"`
	MaxSeverity matcher.Severity   `json:"max_severity"`
	ExitCode    int                `json:"exit_code"`
	StartedAt   time.Time          `json:"started_at"`
	FinishedAt  time.Time          `json:"finished_at"`
	DurationMs  int64              `json:"duration_ms"`
	Results     []ResultDTO        `json:"results"`
}

// ResultDTO is one example's verdict.
type ResultDTO struct {
	Index     int                   `json:"index"`
	Sentence  string                `json:"sentence"`
	Outcome   runner.Outcome        `json:"outcome"`
	Severity  matcher.Severity      `json:"severity"`
	Intent    matcher.IntentMatch   `json:"intent"`
	Entities  []matcher.EntityMatch `json:"entities,omitempty"`
	Error     string                `json:"error,omitempty"`
	LatencyMs int64                 `json:"latency_ms"`
}

// FromResult converts a runner result.
func FromResult(res runner.Result) ResultDTO {
	dto := ResultDTO{
		Index:     res.Index,
		Sentence:  res.Sentence,
		Outcome:   res.Outcome,
		Severity:  res.Severity(),
		Intent:    res.Intent,
		Entities:  res.Entities,
		LatencyMs: res.Latency.Milliseconds(),
	}
	if res.Err != nil {
		dto.Error = res.Err.Error()
	}
	return dto
}

// FromReport converts a finished report, keeping results in arrival order.
func FromReport(rep *runner.Report) RunDTO {
	dto := RunDTO{
		ID:          rep.ID,
		Project:     rep.Project,
		Endpoint:    rep.Endpoint,
		Target:      rep.Target,
		Model:       rep.Model,
		Thresholds:  rep.Thresholds,
		Total:       len(rep.Results),
		IssueCount:  len(rep.Issues),
		MaxSeverity: rep.MaxSeverity(),
		ExitCode:    rep.ExitCode(),
		StartedAt:   rep.StartedAt,
		FinishedAt:  rep.FinishedAt,
		DurationMs:  rep.Duration().Milliseconds(),
		Results:     make([]ResultDTO, 0, len(rep.Results)),
	}
	for _, res := range rep.Results {
		dto.Results = append(dto.Results, FromResult(res))
	}
	return dto
}

// WriteJSON encodes the report as indented JSON.
func WriteJSON(w io.Writer, rep *runner.Report) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(FromReport(rep))
}
