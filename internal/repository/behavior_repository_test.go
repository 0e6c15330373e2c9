package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classtrack/classtrack-api/internal/models"
)

func TestBehaviorRepositoryListOrdersByTypeThenAge(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewBehaviorRepository(db)

	rows := sqlmock.NewRows([]string{"id", "teacher_id", "name", "type", "description", "color", "created_at"}).
		AddRow("b1", "t1", "Calling Out", "negative", nil, nil, time.Now()).
		AddRow("b2", "t1", "Active Listening", "positive", nil, nil, time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, teacher_id, name, type, description, color, created_at FROM behaviors WHERE teacher_id = $1 ORDER BY type, created_at")).
		WithArgs("t1").
		WillReturnRows(rows)

	behaviors, err := repo.ListByTeacher(context.Background(), "t1")
	require.NoError(t, err)
	assert.Len(t, behaviors, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBehaviorRepositoryFindByNameAndTypeMissReturnsNil(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewBehaviorRepository(db)

	mock.ExpectQuery("SELECT .+ FROM behaviors").
		WithArgs("t1", "Helping Others", models.BehaviorPositive).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	found, err := repo.FindByNameAndType(context.Background(), "t1", "Helping Others", models.BehaviorPositive)
	require.NoError(t, err)
	assert.Nil(t, found)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBehaviorRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewBehaviorRepository(db)

	mock.ExpectExec("INSERT INTO behaviors").
		WithArgs(sqlmock.AnyArg(), "t1", "Helping Others", models.BehaviorPositive, nil, nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	behavior := &models.Behavior{TeacherID: "t1", Name: "Helping Others", Type: models.BehaviorPositive}
	require.NoError(t, repo.Create(context.Background(), behavior))
	assert.NotEmpty(t, behavior.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
