package matcher

import (
	"errors"
	"fmt"
	"math"
)

// Severity grades a comparison from 0 (no issue) to 3 (critical).
type Severity int

const (
	SeverityNone     Severity = 0
	SeverityLow      Severity = 1
	SeverityMedium   Severity = 2
	SeverityCritical Severity = 3
)

func (s Severity) String() string {
	switch s {
	case SeverityNone:
		return "none"
	case SeverityLow:
		return "low"
	case SeverityMedium:
		return "medium"
	case SeverityCritical:
		return "critical"
	default:
		return fmt.Sprintf("severity(%d)", int(s))
	}
}

// Thresholds bucket the confidence of a correct prediction.
// Confidence below Medium is severity 2, below High severity 1.
type Thresholds struct {
	Medium float64 `json:"medium"`
	High   float64 `json:"high"`
}

// ErrInvalidThresholds is returned for thresholds outside [0,1] or with
// Medium above High.
var ErrInvalidThresholds = errors.New("invalid confidence thresholds")

// Validate checks the threshold invariants.
func (t Thresholds) Validate() error {
	if !inUnitInterval(t.Medium) || !inUnitInterval(t.High) {
		return fmt.Errorf("%w: medium=%v high=%v must lie in [0,1]", ErrInvalidThresholds, t.Medium, t.High)
	}
	if t.Medium > t.High {
		return fmt.Errorf("%w: medium=%v exceeds high=%v", ErrInvalidThresholds, t.Medium, t.High)
	}
	return nil
}

// SeverityError reports a confidence that cannot be graded. It means the
// service broke the [0,1] contract and is fatal for the run.
type SeverityError struct {
	Subject    string
	Confidence float64
}

func (e *SeverityError) Error() string {
	return fmt.Sprintf("cannot evaluate severity of %s: confidence %v outside [0,1]", e.Subject, e.Confidence)
}

// grade maps a prediction onto a severity. Incorrect predictions are
// critical whatever their confidence.
func (t Thresholds) grade(subject string, correct bool, confidence float64) (Severity, error) {
	if !correct {
		return SeverityCritical, nil
	}
	if !inUnitInterval(confidence) {
		return 0, &SeverityError{Subject: subject, Confidence: confidence}
	}
	switch {
	case confidence < t.Medium:
		return SeverityMedium, nil
	case confidence < t.High:
		return SeverityLow, nil
	default:
		return SeverityNone, nil
	}
}

func inUnitInterval(v float64) bool {
	return !math.IsNaN(v) && v >= 0 && v <= 1
}

// IntentSeverity grades an intent match.
func (m *Matcher) IntentSeverity(match IntentMatch) (Severity, error) {
	return m.thresholds.grade("intent '"+match.Name+"'", match.Correct, match.Confidence)
}

// EntitySeverity grades an entity match. A missing entity is critical.
func (m *Matcher) EntitySeverity(match EntityMatch) (Severity, error) {
	if !match.Found || match.Correct == nil || match.Confidence == nil {
		return SeverityCritical, nil
	}
	return m.thresholds.grade("entity '"+match.Entity+"'", *match.Correct, *match.Confidence)
}
