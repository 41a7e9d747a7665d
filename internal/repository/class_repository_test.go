package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/classroom-api/internal/models"
)

func TestClassFindByIDScansRoster(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewClassRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "name", "teacher_id", "students", "created_at", "updated_at"}).
		AddRow("c1", "Biology", "t1", "{s2,s1}", now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, teacher_id, students, created_at, updated_at FROM classes WHERE id = $1")).
		WithArgs("c1").
		WillReturnRows(rows)

	class, err := repo.FindByID(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, []string{"s2", "s1"}, []string(class.Students))
	assert.True(t, class.HasStudent("s1"))
	assert.True(t, class.CanAccess("t1"))
	assert.False(t, class.CanAccess("x"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassListByStudentUsesAny(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewClassRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "name", "teacher_id", "students", "created_at", "updated_at"}).
		AddRow("c1", "Biology", "t1", "{s1}", now, now)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE $1 = ANY(students)")).WithArgs("s1").WillReturnRows(rows)

	classes, err := repo.ListByStudent(context.Background(), "s1")
	require.NoError(t, err)
	assert.Len(t, classes, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassAddStudentIsIdempotent(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewClassRepository(db)

	now := time.Now()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE classes SET students = array_append(students, $2::text)")).
		WithArgs("c1", "s1", now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE classes SET students = array_append(students, $2::text)")).
		WithArgs("c1", "s1", now).
		WillReturnResult(sqlmock.NewResult(0, 0))

	changed, err := repo.AddStudent(context.Background(), "c1", "s1", now)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = repo.AddStudent(context.Background(), "c1", "s1", now)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassCreate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewClassRepository(db)

	mock.ExpectExec("INSERT INTO classes").WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.Create(context.Background(), &models.Class{ID: "c1", Name: "Biology", TeacherID: "t1", Students: []string{}})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
