package store

import (
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"nlu-regress/internal/report"
	"nlu-regress/internal/runner"
)

// Database wraps the GORM DB handle and exposes run history helpers.
type Database struct {
	gorm *gorm.DB
	mu   sync.Mutex
}

// Open initializes the SQLite-backed history database at the provided path.
func Open(path string, silent bool) (*Database, error) {
	cfg := &gorm.Config{}
	if silent {
		cfg.Logger = logger.Default.LogMode(logger.Silent)
	}
	db, err := gorm.Open(sqlite.Open(path), cfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.AutoMigrate(&Run{}, &ExampleRecord{}); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	if err := db.Exec("PRAGMA journal_mode=WAL").Error; err != nil {
		logrus.WithError(err).Warn("enable WAL mode")
	}
	return &Database{gorm: db}, nil
}

// Close closes the underlying database connection.
func (d *Database) Close() error {
	if d == nil {
		return nil
	}
	sqlDB, err := d.gorm.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// SaveRun stores a finished report and its examples in one transaction.
func (d *Database) SaveRun(rep *runner.Report) error {
	if d == nil {
		return errors.New("database is nil")
	}
	if rep == nil {
		return errors.New("report is nil")
	}
	if !rep.Complete() {
		return fmt.Errorf("run %s is not complete", rep.ID)
	}

	run := Run{
		ID:          rep.ID,
		Project:     rep.Project,
		Endpoint:    rep.Endpoint,
		Target:      rep.Target,
		Model:       rep.Model,
		Total:       len(rep.Results),
		Issues:      len(rep.Issues),
		MaxSeverity: int(rep.MaxSeverity()),
		ExitCode:    rep.ExitCode(),
		Medium:      rep.Thresholds.Medium,
		High:        rep.Thresholds.High,
		StartedAt:   rep.StartedAt,
		FinishedAt:  rep.FinishedAt,
	}

	records := make([]ExampleRecord, 0, len(rep.Results))
	for pos, res := range rep.Results {
		dto := report.FromResult(res)
		rec := ExampleRecord{
			RunID:            rep.ID,
			Position:         pos,
			ExampleIndex:     dto.Index,
			Sentence:         dto.Sentence,
			Outcome:          string(dto.Outcome),
			Severity:         int(dto.Severity),
			Intent:           dto.Intent.Name,
			IntentCorrect:    dto.Intent.Correct,
			IntentConfidence: dto.Intent.Confidence,
			Message:          dto.Intent.Message,
			LatencyMs:        dto.LatencyMs,
		}
		rec.SetEntities(dto.Entities)
		records = append(records, rec)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	return d.gorm.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&run).Error; err != nil {
			return fmt.Errorf("save run: %w", err)
		}
		if len(records) == 0 {
			return nil
		}
		// Batch insert to stay under SQLite's variable limit
		const batchSize = 250
		if err := tx.CreateInBatches(records, batchSize).Error; err != nil {
			return fmt.Errorf("save examples: %w", err)
		}
		return nil
	})
}

// RecentRuns returns the latest runs of a project, newest first. An empty
// project lists runs of every project.
func (d *Database) RecentRuns(project string, limit int) ([]Run, error) {
	if d == nil {
		return nil, errors.New("database is nil")
	}
	query := d.gorm.Model(&Run{}).Order("started_at DESC")
	if project != "" {
		query = query.Where("project = ?", project)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	var runs []Run
	if err := query.Find(&runs).Error; err != nil {
		return nil, err
	}
	return runs, nil
}

// RunIssues returns the stored examples of a run whose severity is above
// zero, in arrival order.
func (d *Database) RunIssues(runID string) ([]ExampleRecord, error) {
	if d == nil {
		return nil, errors.New("database is nil")
	}
	var rows []ExampleRecord
	if err := d.gorm.Where("run_id = ? AND severity > 0", runID).Order("position ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
