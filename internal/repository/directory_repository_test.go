package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimeslotRepositoryListOrdersBySequence(t *testing.T) {
	db, mock, cleanup := newLessonRepoMock(t)
	defer cleanup()
	repo := NewTimeslotRepository(db)

	rows := sqlmock.NewRows([]string{"id", "sequence_number", "begin_time", "end_time"}).
		AddRow("ts1", 1, "08:45:00", "10:20:00").
		AddRow("ts2", 2, "10:35:00", "12:10:00")
	mock.ExpectQuery(regexp.QuoteMeta("FROM timeslots ORDER BY sequence_number ASC")).WillReturnRows(rows)

	timeslots, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, timeslots, 2)
	assert.Equal(t, 2, timeslots[1].SequenceNumber)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTeacherRepositoryFindByIDMissing(t *testing.T) {
	db, mock, cleanup := newLessonRepoMock(t)
	defer cleanup()
	repo := NewTeacherRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, full_name FROM teachers WHERE id = $1")).
		WithArgs("t-missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), "t-missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassroomRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newLessonRepoMock(t)
	defer cleanup()
	repo := NewClassroomRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, number FROM classrooms WHERE id = $1")).
		WithArgs("c1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "number"}).AddRow("c1", 215))

	classroom, err := repo.FindByID(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, 215, classroom.Number)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentGroupAndSubjectRepositoryList(t *testing.T) {
	db, mock, cleanup := newLessonRepoMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta("FROM student_groups ORDER BY number ASC")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "number"}).AddRow("g1", 972101).AddRow("g2", 972102))
	mock.ExpectQuery(regexp.QuoteMeta("FROM subjects ORDER BY name ASC")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow("s1", "Algebra"))

	groups, err := NewStudentGroupRepository(db).List(context.Background())
	require.NoError(t, err)
	assert.Len(t, groups, 2)

	subjects, err := NewSubjectRepository(db).List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Algebra", subjects[0].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}
