// Package matcher compares NLU predictions with labelled examples and grades
// each comparison by severity. It performs no I/O.
package matcher

import (
	"fmt"

	"nlu-regress/internal/nlu"
	"nlu-regress/internal/suite"
)

// MessageOK is the message of every correct match.
const MessageOK = "Ok"

// MessageNotFound is the message of an expected entity the service did not extract.
const MessageNotFound = "Not found"

// ScoredIntent is an intent name with its confidence.
type ScoredIntent struct {
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
}

// IntentMatch is the verdict on an example's intent. BestScoring is set only
// when the prediction is incorrect.
type IntentMatch struct {
	Name        string        `json:"name"`
	Correct     bool          `json:"correct"`
	Confidence  float64       `json:"confidence"`
	Message     string        `json:"message"`
	Severity    Severity      `json:"severity"`
	BestScoring *ScoredIntent `json:"best_scoring,omitempty"`
}

// EntityMatch is the verdict on one expected entity. Correct and Confidence
// are set only when the entity was found; Expected only when it was missing
// or wrong.
type EntityMatch struct {
	Entity     string                `json:"entity"`
	Found      bool                  `json:"found"`
	Correct    *bool                 `json:"correct,omitempty"`
	Value      string                `json:"value,omitempty"`
	Confidence *float64              `json:"confidence,omitempty"`
	Message    string                `json:"message"`
	Severity   Severity              `json:"severity"`
	Expected   *suite.ExpectedEntity `json:"expected,omitempty"`
}

// IsCorrect reports whether the entity was found with the expected value.
func (e EntityMatch) IsCorrect() bool {
	return e.Found && e.Correct != nil && *e.Correct
}

// ExampleResult is the full verdict on one example.
type ExampleResult struct {
	Sentence string        `json:"sentence"`
	Intent   IntentMatch   `json:"intent"`
	Entities []EntityMatch `json:"entities,omitempty"`
}

// Severity is the worst severity among the intent and entity matches.
func (r ExampleResult) Severity() Severity {
	worst := r.Intent.Severity
	for _, e := range r.Entities {
		if e.Severity > worst {
			worst = e.Severity
		}
	}
	return worst
}

// Matcher holds the thresholds used to grade matches.
type Matcher struct {
	thresholds Thresholds
}

// New returns a Matcher for validated thresholds.
func New(th Thresholds) (*Matcher, error) {
	if err := th.Validate(); err != nil {
		return nil, err
	}
	return &Matcher{thresholds: th}, nil
}

// Thresholds returns the configured thresholds.
func (m *Matcher) Thresholds() Thresholds {
	return m.thresholds
}

// Match evaluates the intent and the entities of an example.
func (m *Matcher) Match(example suite.Example, response nlu.Response) (ExampleResult, error) {
	intent, err := m.MatchIntent(example, response)
	if err != nil {
		return ExampleResult{}, err
	}
	entities, err := m.MatchEntities(example, response)
	if err != nil {
		return ExampleResult{}, err
	}
	return ExampleResult{
		Sentence: example.Sentence,
		Intent:   intent,
		Entities: entities,
	}, nil
}

// MatchIntent compares the top predicted intent with the expected one. When
// they differ, the expected intent's own ranked confidence is reported and
// the top intent becomes BestScoring. An expected intent absent from the
// ranking yields *IntentNotFoundError.
func (m *Matcher) MatchIntent(example suite.Example, response nlu.Response) (IntentMatch, error) {
	expected := example.Expected.Intent.Name

	var match IntentMatch
	if response.Intent.Name == expected {
		match = IntentMatch{
			Name:       expected,
			Correct:    true,
			Confidence: response.Intent.Confidence,
			Message:    MessageOK,
		}
	} else {
		overlooked, ok := response.FindRanked(expected)
		if !ok {
			return IntentMatch{}, &IntentNotFoundError{Sentence: example.Sentence, Intent: expected}
		}
		match = IntentMatch{
			Name:       overlooked.Name,
			Correct:    false,
			Confidence: overlooked.Confidence,
			Message:    fmt.Sprintf("'%s' found instead of '%s'", response.Intent.Name, overlooked.Name),
			BestScoring: &ScoredIntent{
				Name:       response.Intent.Name,
				Confidence: response.Intent.Confidence,
			},
		}
	}

	severity, err := m.IntentSeverity(match)
	if err != nil {
		return IntentMatch{}, err
	}
	match.Severity = severity
	return match, nil
}

// MatchEntities matches every expected entity, in order. It returns nil when
// the example expects no entities. Actual entities are not consumed: one
// extracted entity may satisfy several expected ones of the same type.
func (m *Matcher) MatchEntities(example suite.Example, response nlu.Response) ([]EntityMatch, error) {
	if len(example.Expected.Entities) == 0 {
		return nil, nil
	}
	matches := make([]EntityMatch, 0, len(example.Expected.Entities))
	for _, expected := range example.Expected.Entities {
		match, err := m.MatchEntity(expected, response.Entities)
		if err != nil {
			return nil, err
		}
		matches = append(matches, match)
	}
	return matches, nil
}

// MatchEntity looks for the first actual entity of the expected type and
// compares values with exact, case-sensitive equality.
func (m *Matcher) MatchEntity(expected suite.ExpectedEntity, actual []nlu.Entity) (EntityMatch, error) {
	var match EntityMatch
	found := -1
	for i := range actual {
		if actual[i].Entity == expected.Entity {
			found = i
			break
		}
	}

	if found < 0 {
		exp := expected
		match = EntityMatch{
			Entity:   expected.Entity,
			Found:    false,
			Message:  MessageNotFound,
			Expected: &exp,
		}
	} else {
		hit := actual[found]
		correct := hit.Value.String() == expected.Value
		confidence := hit.Confidence
		match = EntityMatch{
			Entity:     hit.Entity,
			Found:      true,
			Correct:    &correct,
			Value:      hit.Value.String(),
			Confidence: &confidence,
			Message:    MessageOK,
		}
		if !correct {
			exp := expected
			match.Expected = &exp
			match.Message = fmt.Sprintf("'%s' found instead of '%s'", hit.Value, expected.Value)
		}
	}

	severity, err := m.EntitySeverity(match)
	if err != nil {
		return EntityMatch{}, err
	}
	match.Severity = severity
	return match, nil
}
