package geomance

import (
	"context"
	"errors"
	"testing"
	"time"

	"geomancer/core/merge"
	"geomancer/feature/geomance/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to open mock sql db: %v", err)
	}

	dialector := mysql.New(mysql.Config{
		Conn:                      db,
		SkipInitializeWithVersion: true,
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to open gorm db: %v", err)
	}

	return gormDB, mock
}

func TestHistory_Queued(t *testing.T) {
	db, mock := setupMockDB(t)
	h := NewHistory(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `geomancer_jobs`").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	require.NoError(t, h.Queued(context.Background(), "geomancer:result:abc", "people.csv", "city;state"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHistory_Finished(t *testing.T) {
	db, mock := setupMockDB(t)
	h := NewHistory(db)
	h.now = func() time.Time { return time.Date(2024, 3, 5, 20, 30, 0, 0, time.UTC) }

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `geomancer_jobs` SET .*`status`=.* WHERE job_key = ?").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `geomancer_jobs` SET .*`error`=.* WHERE job_key = ?").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	ctx := context.Background()
	summary := &merge.Summary{NumRows: 3, NumMatches: 2, NumMissing: 1, ColsAdded: []string{"Total Population (City)"}}
	require.NoError(t, h.Finished(ctx, "k1", summary, nil))
	require.NoError(t, h.Finished(ctx, "k2", nil, errors.New("boom")))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHistory_Recent(t *testing.T) {
	db, mock := setupMockDB(t)
	h := NewHistory(db)

	rows := sqlmock.NewRows([]string{"id", "job_key", "filename", "status", "num_rows"}).
		AddRow(2, "k2", "b.csv", models.StatusError, 0).
		AddRow(1, "k1", "a.csv", models.StatusOK, 3)
	mock.ExpectQuery("SELECT \\* FROM `geomancer_jobs` ORDER BY created_at DESC LIMIT").WillReturnRows(rows)

	jobs, err := h.Recent(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, "k2", jobs[0].Key)
	assert.Equal(t, 3, jobs[1].NumRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHistory_Disabled(t *testing.T) {
	h := NewHistory(nil)
	ctx := context.Background()

	assert.False(t, h.Enabled())
	assert.NoError(t, h.Queued(ctx, "k", "a.csv", "city"))
	assert.NoError(t, h.Finished(ctx, "k", nil, nil))
	_, err := h.Recent(ctx, 10)
	assert.ErrorIs(t, err, ErrHistoryDisabled)
	assert.ErrorIs(t, h.Migrate(), ErrHistoryDisabled)
}
