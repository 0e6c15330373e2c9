package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classtrack/classtrack-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestIncidentRepositoryListFiltersByStudentAndDateRange(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewIncidentRepository(db)

	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 3, 31, 23, 59, 59, 0, time.UTC)

	rows := sqlmock.NewRows([]string{"id", "student_id", "class_id", "teacher_id", "behavior_id", "timestamp", "notes"}).
		AddRow("i1", "s1", "c1", "t1", "b1", time.Now(), nil)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, student_id, class_id, teacher_id, behavior_id, timestamp, notes FROM incidents WHERE 1=1 AND student_id = $1 AND timestamp >= $2 AND timestamp <= $3 ORDER BY timestamp DESC")).
		WithArgs("s1", from, to).
		WillReturnRows(rows)

	incidents, err := repo.List(context.Background(), models.IncidentFilter{StudentID: "s1", From: &from, To: &to})
	require.NoError(t, err)
	assert.Len(t, incidents, 1)
	assert.Equal(t, "b1", incidents[0].BehaviorID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIncidentRepositoryCreateAssignsIDAndTimestamp(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewIncidentRepository(db)

	mock.ExpectExec("INSERT INTO incidents").
		WithArgs(sqlmock.AnyArg(), "s1", "c1", "t1", "b1", sqlmock.AnyArg(), nil).
		WillReturnResult(sqlmock.NewResult(1, 1))

	incident := &models.Incident{StudentID: "s1", ClassID: "c1", TeacherID: "t1", BehaviorID: "b1"}
	require.NoError(t, repo.Create(context.Background(), incident))
	assert.NotEmpty(t, incident.ID)
	assert.False(t, incident.Timestamp.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIncidentRepositoryDelete(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewIncidentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM incidents WHERE id = $1")).
		WithArgs("i1").
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repo.Delete(context.Background(), "i1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
