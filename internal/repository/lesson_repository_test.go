package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kosterror/time-flow-api/internal/models"
)

func newLessonRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

var lessonRowColumns = []string{"id", "student_group_id", "subject_id", "teacher_id", "classroom_id", "timeslot_id", "date", "lesson_type", "created_at", "updated_at"}

func sampleLesson() *models.Lesson {
	return &models.Lesson{
		StudentGroupID: "g1",
		SubjectID:      "s1",
		TeacherID:      "t1",
		ClassroomID:    "c1",
		TimeslotID:     "ts1",
		Date:           time.Date(2024, 9, 2, 0, 0, 0, 0, time.UTC),
		LessonType:     models.LessonTypeLecture,
	}
}

func TestLessonRepositoryFindBySlot(t *testing.T) {
	db, mock, cleanup := newLessonRepoMock(t)
	defer cleanup()
	repo := NewLessonRepository(db)

	day := time.Date(2024, 9, 2, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(lessonRowColumns).
		AddRow("l1", "g1", "s1", "t1", "c1", "ts1", day, "LECTURE", time.Now(), time.Now()).
		AddRow("l2", "g2", "s1", "t2", "c2", "ts1", day, "SEMINAR", time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM lessons WHERE date = $1 AND timeslot_id = $2")).
		WithArgs("2024-09-02", "ts1").
		WillReturnRows(rows)

	lessons, err := repo.FindBySlot(context.Background(), nil, day, "ts1")
	require.NoError(t, err)
	require.Len(t, lessons, 2)
	assert.Equal(t, "l1", lessons[0].ID)
	assert.Equal(t, models.LessonTypeSeminar, lessons[1].LessonType)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLessonRepositoryListDetailsByOwnerOrdersByDateAndSequence(t *testing.T) {
	db, mock, cleanup := newLessonRepoMock(t)
	defer cleanup()
	repo := NewLessonRepository(db)

	start := time.Date(2024, 9, 2, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 6)
	columns := append(append([]string{}, lessonRowColumns...),
		"student_group_number", "subject_name", "teacher_full_name", "classroom_number",
		"timeslot_sequence_number", "timeslot_begin_time", "timeslot_end_time")
	rows := sqlmock.NewRows(columns).
		AddRow("l1", "g1", "s1", "t1", "c1", "ts1", start, "LECTURE", time.Now(), time.Now(), 972101, "Algebra", "Ivanov", 215, 1, "08:45:00", "10:20:00")
	mock.ExpectQuery(regexp.QuoteMeta("WHERE l.teacher_id = $1 AND l.date BETWEEN $2 AND $3 ORDER BY l.date ASC, ts.sequence_number ASC")).
		WithArgs("t1", "2024-09-02", "2024-09-08").
		WillReturnRows(rows)

	details, err := repo.ListDetailsByOwner(context.Background(), models.LessonOwnerTeacher, "t1", start, end)
	require.NoError(t, err)
	require.Len(t, details, 1)
	assert.Equal(t, "Algebra", details[0].SubjectName)
	assert.Equal(t, 215, details[0].ClassroomNumber)
	assert.Equal(t, "08:45:00", details[0].TimeslotBeginTime)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLessonRepositoryListDetailsByOwnerRejectsUnknownOwner(t *testing.T) {
	db, _, cleanup := newLessonRepoMock(t)
	defer cleanup()
	repo := NewLessonRepository(db)

	_, err := repo.ListDetailsByOwner(context.Background(), models.LessonOwner("subject_id; DROP TABLE lessons"), "x", time.Now(), time.Now())
	require.Error(t, err)
}

func TestLessonRepositoryLockSlot(t *testing.T) {
	db, mock, cleanup := newLessonRepoMock(t)
	defer cleanup()
	repo := NewLessonRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("SELECT pg_advisory_xact_lock(hashtext($1))")).
		WithArgs("2024-09-02/ts1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.LockSlot(context.Background(), nil, time.Date(2024, 9, 2, 0, 0, 0, 0, time.UTC), "ts1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLessonRepositoryCreateAssignsIDAndTimestamps(t *testing.T) {
	db, mock, cleanup := newLessonRepoMock(t)
	defer cleanup()
	repo := NewLessonRepository(db)

	mock.ExpectExec("INSERT INTO lessons").
		WithArgs(sqlmock.AnyArg(), "g1", "s1", "t1", "c1", "ts1", sqlmock.AnyArg(), "LECTURE", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	lesson := sampleLesson()
	require.NoError(t, repo.Create(context.Background(), nil, lesson))
	assert.NotEmpty(t, lesson.ID)
	assert.False(t, lesson.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLessonRepositoryCreateMapsUniqueViolation(t *testing.T) {
	cases := map[string]models.LessonConflictKind{
		"lessons_teacher_slot_key":       models.ConflictTeacher,
		"lessons_classroom_slot_key":     models.ConflictClassroom,
		"lessons_student_group_slot_key": models.ConflictStudentGroup,
	}
	for constraint, kind := range cases {
		t.Run(constraint, func(t *testing.T) {
			db, mock, cleanup := newLessonRepoMock(t)
			defer cleanup()
			repo := NewLessonRepository(db)

			mock.ExpectExec("INSERT INTO lessons").
				WillReturnError(&pq.Error{Code: pqUniqueViolation, Constraint: constraint})

			err := repo.Create(context.Background(), nil, sampleLesson())
			require.Error(t, err)
			var conflictErr *models.LessonConflictError
			require.True(t, errors.As(err, &conflictErr))
			assert.Equal(t, kind, conflictErr.Kind)
			assert.Equal(t, "2024-09-02", conflictErr.Conflict.Date)
			assert.Equal(t, "ts1", conflictErr.Conflict.TimeslotID)
		})
	}
}

func TestLessonRepositoryUpdateMapsForeignKeyViolation(t *testing.T) {
	db, mock, cleanup := newLessonRepoMock(t)
	defer cleanup()
	repo := NewLessonRepository(db)

	mock.ExpectExec("UPDATE lessons SET").
		WillReturnError(&pq.Error{Code: pqForeignKeyViolation, Constraint: "lessons_teacher_id_fkey"})

	lesson := sampleLesson()
	lesson.ID = "l1"
	err := repo.Update(context.Background(), nil, lesson)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrReferenceViolation))
}

func TestLessonRepositoryDeleteByDateRangeInTransaction(t *testing.T) {
	db, mock, cleanup := newLessonRepoMock(t)
	defer cleanup()
	repo := NewLessonRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM lessons WHERE date BETWEEN $1 AND $2")).
		WithArgs("2024-09-02", "2024-09-08").
		WillReturnResult(sqlmock.NewResult(0, 7))
	mock.ExpectCommit()

	tx, err := db.BeginTxx(context.Background(), nil)
	require.NoError(t, err)
	deleted, err := repo.DeleteByDateRange(context.Background(), tx,
		time.Date(2024, 9, 2, 0, 0, 0, 0, time.UTC), time.Date(2024, 9, 8, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.NoError(t, tx.Commit())
	assert.Equal(t, int64(7), deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLessonRepositoryFindByIDMalformedIDIsMissingRow(t *testing.T) {
	db, mock, cleanup := newLessonRepoMock(t)
	defer cleanup()
	repo := NewLessonRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM lessons WHERE id = $1")).
		WithArgs("abc").
		WillReturnError(&pq.Error{Code: "22P02", Message: `invalid input syntax for type uuid: "abc"`})

	_, err := repo.FindByID(context.Background(), "abc")
	require.Error(t, err)
	assert.True(t, IsMissingRow(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIsMissingRow(t *testing.T) {
	assert.True(t, IsMissingRow(sql.ErrNoRows))
	assert.True(t, IsMissingRow(fmt.Errorf("load: %w", &pq.Error{Code: "22P02"})))
	assert.False(t, IsMissingRow(&pq.Error{Code: "23505"}))
	assert.False(t, IsMissingRow(errors.New("connection reset")))
	assert.False(t, IsMissingRow(nil))
}
