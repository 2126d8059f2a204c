package geomance

import (
	"context"
	"errors"
	"time"

	"geomancer/core/merge"
	"geomancer/feature/geomance/models"

	"gorm.io/gorm"
)

// ErrHistoryDisabled is returned by History reads without a database.
var ErrHistoryDisabled = errors.New("job history is disabled")

// History records jobs in the database. A nil db turns writes into no-ops.
type History struct {
	db  *gorm.DB
	now func() time.Time
}

// NewHistory creates a history on db.
func NewHistory(db *gorm.DB) *History {
	return &History{db: db, now: time.Now}
}

// Enabled reports whether a database is attached.
func (h *History) Enabled() bool {
	return h != nil && h.db != nil
}

// Migrate creates or updates the history table.
func (h *History) Migrate() error {
	if !h.Enabled() {
		return ErrHistoryDisabled
	}
	return h.db.AutoMigrate(&models.JobRecord{})
}

// Queued records a submitted job.
func (h *History) Queued(ctx context.Context, key, filename, geography string) error {
	if !h.Enabled() {
		return nil
	}
	return h.db.WithContext(ctx).Create(&models.JobRecord{
		Key:       key,
		Filename:  filename,
		Geography: geography,
		Status:    models.StatusQueued,
	}).Error
}

// Finished records the outcome of a job.
func (h *History) Finished(ctx context.Context, key string, summary *merge.Summary, jobErr error) error {
	if !h.Enabled() {
		return nil
	}
	updates := map[string]any{"finished_at": h.now().UTC()}
	if jobErr != nil {
		updates["status"] = models.StatusError
		updates["error"] = jobErr.Error()
	} else {
		updates["status"] = models.StatusOK
		if summary != nil {
			updates["num_rows"] = summary.NumRows
			updates["num_matches"] = summary.NumMatches
			updates["num_missing"] = summary.NumMissing
			updates["cols_added"] = len(summary.ColsAdded)
			updates["download_url"] = summary.DownloadURL
		}
	}
	return h.db.WithContext(ctx).Model(&models.JobRecord{}).Where("job_key = ?", key).Updates(updates).Error
}

// Recent returns the newest jobs first.
func (h *History) Recent(ctx context.Context, limit int) ([]models.JobRecord, error) {
	if !h.Enabled() {
		return nil, ErrHistoryDisabled
	}
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	var jobs []models.JobRecord
	err := h.db.WithContext(ctx).Order("created_at DESC").Limit(limit).Find(&jobs).Error
	return jobs, err
}
