package store

import (
	"encoding/json"
	"strings"
	"time"

	"nlu-regress/internal/matcher"
)

// Run is one recorded regression run.
type Run struct {
	ID          string `gorm:"primaryKey;size:36"`
	Project     string `gorm:"size:128;index"`
	Endpoint    string `gorm:"size:128"`
	Target      string `gorm:"size:16"`
	Model       string `gorm:"size:256"`
	Total       int
	Issues      int
	MaxSeverity int
	ExitCode    int
	Medium      float64
	High        float64
	StartedAt   time.Time `gorm:"index"`
	FinishedAt  time.Time
	CreatedAt   time.Time
}

// ExampleRecord is the stored verdict of one example of a run.
type ExampleRecord struct {
	ID               uint   `gorm:"primaryKey"`
	RunID            string `gorm:"size:36;index"`
	Position         int
	ExampleIndex     int
	Sentence         string `gorm:"type:text"`
	Outcome          string `gorm:"size:32;index"`
	Severity         int    `gorm:"index"`
	Intent           string `gorm:"size:128"`
	IntentCorrect    bool
	IntentConfidence float64
	Message          string `gorm:"type:text"`
	EntitiesJSON     string `gorm:"type:text"`
	LatencyMs        int64
	CreatedAt        time.Time
}

// SetEntities persists the entity verdicts as JSON. Examples without
// entity verdicts store an empty array.
func (e *ExampleRecord) SetEntities(entities []matcher.EntityMatch) {
	if len(entities) == 0 {
		e.EntitiesJSON = "[]"
		return
	}
	payload, _ := json.Marshal(entities)
	e.EntitiesJSON = string(payload)
}

// Entities decodes the stored entity verdicts.
func (e *ExampleRecord) Entities() ([]matcher.EntityMatch, error) {
	if strings.TrimSpace(e.EntitiesJSON) == "" {
		return nil, nil
	}
	var entities []matcher.EntityMatch
	if err := json.Unmarshal([]byte(e.EntitiesJSON), &entities); err != nil {
		return nil, err
	}
	return entities, nil
}
