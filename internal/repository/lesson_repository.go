package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/kosterror/time-flow-api/internal/models"
	"github.com/kosterror/time-flow-api/pkg/config"
)

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
	pqInvalidTextRepr     = "22P02"
)

// IsMissingRow reports whether a lookup error means the row does not exist.
// Postgres rejects a malformed uuid key with invalid_text_representation,
// and no row can carry such a key.
func IsMissingRow(err error) bool {
	if errors.Is(err, sql.ErrNoRows) {
		return true
	}
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pqInvalidTextRepr
}

// ErrReferenceViolation is returned when a write points at a directory row
// that no longer exists.
var ErrReferenceViolation = errors.New("lesson references a missing directory row")

// Unique index names from the timetable migration mapped to the resource they guard.
var slotConstraints = map[string]models.LessonConflictKind{
	"lessons_teacher_slot_key":       models.ConflictTeacher,
	"lessons_classroom_slot_key":     models.ConflictClassroom,
	"lessons_student_group_slot_key": models.ConflictStudentGroup,
}

const lessonColumns = `id, student_group_id, subject_id, teacher_id, classroom_id, timeslot_id, date, lesson_type, created_at, updated_at`

const lessonDetailSelect = `
SELECT l.id, l.student_group_id, l.subject_id, l.teacher_id, l.classroom_id, l.timeslot_id, l.date, l.lesson_type, l.created_at, l.updated_at,
       sg.number AS student_group_number,
       s.name AS subject_name,
       t.full_name AS teacher_full_name,
       c.number AS classroom_number,
       ts.sequence_number AS timeslot_sequence_number,
       ts.begin_time::text AS timeslot_begin_time,
       ts.end_time::text AS timeslot_end_time
FROM lessons l
JOIN student_groups sg ON sg.id = l.student_group_id
JOIN subjects s ON s.id = l.subject_id
JOIN teachers t ON t.id = l.teacher_id
JOIN classrooms c ON c.id = l.classroom_id
JOIN timeslots ts ON ts.id = l.timeslot_id`

// LessonRepository provides persistence for scheduled lessons.
type LessonRepository struct {
	db *sqlx.DB
}

// NewLessonRepository creates a new lesson repository.
func NewLessonRepository(db *sqlx.DB) *LessonRepository {
	return &LessonRepository{db: db}
}

func (r *LessonRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// FindByID loads a lesson by id.
func (r *LessonRepository) FindByID(ctx context.Context, id string) (*models.Lesson, error) {
	query := `SELECT ` + lessonColumns + ` FROM lessons WHERE id = $1`
	var lesson models.Lesson
	if err := r.db.GetContext(ctx, &lesson, query, id); err != nil {
		return nil, err
	}
	return &lesson, nil
}

// FindDetailByID loads a lesson together with its directory rows.
func (r *LessonRepository) FindDetailByID(ctx context.Context, id string) (*models.LessonDetail, error) {
	query := lessonDetailSelect + ` WHERE l.id = $1`
	var detail models.LessonDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// FindBySlot returns every lesson occupying the timeslot on the given date.
func (r *LessonRepository) FindBySlot(ctx context.Context, exec sqlx.ExtContext, date time.Time, timeslotID string) ([]models.Lesson, error) {
	query := `SELECT ` + lessonColumns + ` FROM lessons WHERE date = $1 AND timeslot_id = $2`
	var lessons []models.Lesson
	if err := sqlx.SelectContext(ctx, r.exec(exec), &lessons, query, date.Format(config.DateLayout), timeslotID); err != nil {
		return nil, fmt.Errorf("find lessons by slot: %w", err)
	}
	return lessons, nil
}

// ListByDate returns every lesson held on a date.
func (r *LessonRepository) ListByDate(ctx context.Context, date time.Time) ([]models.Lesson, error) {
	query := `SELECT ` + lessonColumns + ` FROM lessons WHERE date = $1`
	var lessons []models.Lesson
	if err := r.db.SelectContext(ctx, &lessons, query, date.Format(config.DateLayout)); err != nil {
		return nil, fmt.Errorf("list lessons by date: %w", err)
	}
	return lessons, nil
}

// ListDetailsByOwner returns lessons of a group, teacher or classroom within
// [start, end] ordered by date and timeslot sequence.
func (r *LessonRepository) ListDetailsByOwner(ctx context.Context, owner models.LessonOwner, ownerID string, start, end time.Time) ([]models.LessonDetail, error) {
	switch owner {
	case models.LessonOwnerStudentGroup, models.LessonOwnerTeacher, models.LessonOwnerClassroom:
	default:
		return nil, fmt.Errorf("unsupported lesson owner %q", owner)
	}

	query := fmt.Sprintf("%s WHERE l.%s = $1 AND l.date BETWEEN $2 AND $3 ORDER BY l.date ASC, ts.sequence_number ASC", lessonDetailSelect, owner)
	var details []models.LessonDetail
	if err := r.db.SelectContext(ctx, &details, query, ownerID, start.Format(config.DateLayout), end.Format(config.DateLayout)); err != nil {
		return nil, fmt.Errorf("list lessons by %s: %w", owner, err)
	}
	return details, nil
}

// LockSlot serialises writers of one (date, timeslot) pair until the
// surrounding transaction ends. It must run inside a transaction.
func (r *LessonRepository) LockSlot(ctx context.Context, exec sqlx.ExtContext, date time.Time, timeslotID string) error {
	key := date.Format(config.DateLayout) + "/" + timeslotID
	if _, err := r.exec(exec).ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, key); err != nil {
		return fmt.Errorf("lock lesson slot: %w", err)
	}
	return nil
}

// Create stores a new lesson record.
func (r *LessonRepository) Create(ctx context.Context, exec sqlx.ExtContext, lesson *models.Lesson) error {
	if lesson.ID == "" {
		lesson.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if lesson.CreatedAt.IsZero() {
		lesson.CreatedAt = now
	}
	lesson.UpdatedAt = now

	const query = `INSERT INTO lessons (id, student_group_id, subject_id, teacher_id, classroom_id, timeslot_id, date, lesson_type, created_at, updated_at) VALUES (:id, :student_group_id, :subject_id, :teacher_id, :classroom_id, :timeslot_id, :date, :lesson_type, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, lesson); err != nil {
		return fmt.Errorf("create lesson: %w", translateWriteError(err, lesson))
	}
	return nil
}

// Update overwrites every assignable field of a lesson.
func (r *LessonRepository) Update(ctx context.Context, exec sqlx.ExtContext, lesson *models.Lesson) error {
	lesson.UpdatedAt = time.Now().UTC()
	const query = `UPDATE lessons SET student_group_id = :student_group_id, subject_id = :subject_id, teacher_id = :teacher_id, classroom_id = :classroom_id, timeslot_id = :timeslot_id, date = :date, lesson_type = :lesson_type, updated_at = :updated_at WHERE id = :id`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, lesson); err != nil {
		return fmt.Errorf("update lesson: %w", translateWriteError(err, lesson))
	}
	return nil
}

// Delete removes a lesson by id.
func (r *LessonRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM lessons WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete lesson: %w", err)
	}
	return nil
}

// DeleteByDateRange removes every lesson dated within [start, end] in one statement.
func (r *LessonRepository) DeleteByDateRange(ctx context.Context, exec sqlx.ExtContext, start, end time.Time) (int64, error) {
	res, err := r.exec(exec).ExecContext(ctx, `DELETE FROM lessons WHERE date BETWEEN $1 AND $2`, start.Format(config.DateLayout), end.Format(config.DateLayout))
	if err != nil {
		return 0, fmt.Errorf("delete lessons by date range: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("count deleted lessons: %w", err)
	}
	return affected, nil
}

// translateWriteError maps constraint violations raised at commit time onto
// domain errors. Anything else is returned untouched.
func translateWriteError(err error, lesson *models.Lesson) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	switch pqErr.Code {
	case pqUniqueViolation:
		kind, ok := slotConstraints[pqErr.Constraint]
		if !ok {
			return err
		}
		conflict := models.LessonConflict{
			Kind:       kind,
			Date:       lesson.Date.Format(config.DateLayout),
			TimeslotID: lesson.TimeslotID,
		}
		var subject, resourceID string
		switch kind {
		case models.ConflictTeacher:
			conflict.TeacherID = lesson.TeacherID
			subject, resourceID = "teacher", lesson.TeacherID
		case models.ConflictClassroom:
			conflict.ClassroomID = lesson.ClassroomID
			subject, resourceID = "classroom", lesson.ClassroomID
		case models.ConflictStudentGroup:
			conflict.StudentGroupID = lesson.StudentGroupID
			subject, resourceID = "student group", lesson.StudentGroupID
		}
		return &models.LessonConflictError{
			Kind:     kind,
			Message:  fmt.Sprintf("%s %s already booked on %s in timeslot %s", subject, resourceID, conflict.Date, lesson.TimeslotID),
			Conflict: conflict,
		}
	case pqForeignKeyViolation:
		return fmt.Errorf("%w: %s", ErrReferenceViolation, pqErr.Constraint)
	}
	return err
}
