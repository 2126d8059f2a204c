package models

import "time"

// Job statuses.
const (
	StatusQueued = "queued"
	StatusOK     = "ok"
	StatusError  = "error"
)

// JobRecord is one row of the job history table.
type JobRecord struct {
	ID          uint       `gorm:"primaryKey" json:"-"`
	Key         string     `gorm:"column:job_key;size:191;uniqueIndex" json:"key"`
	Filename    string     `gorm:"size:255" json:"filename"`
	Geography   string     `gorm:"size:64" json:"geography"`
	Status      string     `gorm:"size:16;index" json:"status"`
	NumRows     int        `json:"num_rows"`
	NumMatches  int        `json:"num_matches"`
	NumMissing  int        `json:"num_missing"`
	ColsAdded   int        `json:"cols_added"`
	DownloadURL string     `gorm:"size:512" json:"download_url,omitempty"`
	Error       string     `gorm:"type:text" json:"error,omitempty"`
	CreatedAt   time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	FinishedAt  *time.Time `json:"finished_at,omitempty"`
}

// TableName overrides the gorm table name.
func (JobRecord) TableName() string {
	return "geomancer_jobs"
}
