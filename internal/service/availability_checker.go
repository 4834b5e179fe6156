package service

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/kosterror/time-flow-api/internal/models"
	"github.com/kosterror/time-flow-api/pkg/config"
	appErrors "github.com/kosterror/time-flow-api/pkg/errors"
)

type lessonSlotReader interface {
	FindBySlot(ctx context.Context, exec sqlx.ExtContext, date time.Time, timeslotID string) ([]models.Lesson, error)
}

// AvailabilityChecker rejects candidates that double-book a teacher,
// classroom or student group in one (date, timeslot).
type AvailabilityChecker struct {
	lessons lessonSlotReader
	metrics *MetricsService
	logger  *zap.Logger
}

// NewAvailabilityChecker constructs the checker.
func NewAvailabilityChecker(lessons lessonSlotReader, metrics *MetricsService, logger *zap.Logger) *AvailabilityChecker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AvailabilityChecker{lessons: lessons, metrics: metrics, logger: logger}
}

// Check loads the lessons sharing the candidate's date and timeslot through
// exec and fails on the first teacher, classroom or student group clash.
// The lesson with id excludeID is ignored so an update never collides with itself.
func (c *AvailabilityChecker) Check(ctx context.Context, exec sqlx.ExtContext, candidate models.Lesson, excludeID string) error {
	start := time.Now()
	existing, err := c.lessons.FindBySlot(ctx, exec, candidate.Date, candidate.TimeslotID)
	c.metrics.ObserveDBQuery("lessons.find_by_slot", time.Since(start))
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check lesson conflicts")
	}

	if conflict := firstConflict(existing, candidate, excludeID); conflict != nil {
		return c.ConflictError(conflict)
	}
	return nil
}

// ConflictError turns a domain conflict into the API error of its kind.
func (c *AvailabilityChecker) ConflictError(domainErr *models.LessonConflictError) error {
	c.metrics.RecordLessonConflict(domainErr.Kind)
	c.logger.Info("lesson conflict",
		zap.String("kind", string(domainErr.Kind)),
		zap.String("date", domainErr.Conflict.Date),
		zap.String("timeslot_id", domainErr.Conflict.TimeslotID),
		zap.String("existing_lesson_id", domainErr.Conflict.LessonID),
	)

	base := appErrors.ErrConflict
	switch domainErr.Kind {
	case models.ConflictTeacher:
		base = appErrors.ErrTeacherConflict
	case models.ConflictClassroom:
		base = appErrors.ErrClassroomConflict
	case models.ConflictStudentGroup:
		base = appErrors.ErrGroupConflict
	}
	return appErrors.WithDetails(appErrors.Wrap(domainErr, base.Code, base.Status, domainErr.Message), domainErr.Conflict)
}

func firstConflict(existing []models.Lesson, candidate models.Lesson, excludeID string) *models.LessonConflictError {
	date := candidate.Date.Format(config.DateLayout)
	others := make([]models.Lesson, 0, len(existing))
	for _, lesson := range existing {
		if excludeID != "" && lesson.ID == excludeID {
			continue
		}
		others = append(others, lesson)
	}

	for _, lesson := range others {
		if lesson.TeacherID == candidate.TeacherID {
			return newConflict(models.ConflictTeacher, lesson, date,
				fmt.Sprintf("teacher %s already booked on %s in timeslot %s", candidate.TeacherID, date, candidate.TimeslotID))
		}
	}
	for _, lesson := range others {
		if lesson.ClassroomID == candidate.ClassroomID {
			return newConflict(models.ConflictClassroom, lesson, date,
				fmt.Sprintf("classroom %s already booked on %s in timeslot %s", candidate.ClassroomID, date, candidate.TimeslotID))
		}
	}
	for _, lesson := range others {
		if lesson.StudentGroupID == candidate.StudentGroupID {
			return newConflict(models.ConflictStudentGroup, lesson, date,
				fmt.Sprintf("student group %s already booked on %s in timeslot %s", candidate.StudentGroupID, date, candidate.TimeslotID))
		}
	}
	return nil
}

func newConflict(kind models.LessonConflictKind, existing models.Lesson, date, message string) *models.LessonConflictError {
	conflict := models.LessonConflict{
		Kind:       kind,
		LessonID:   existing.ID,
		Date:       date,
		TimeslotID: existing.TimeslotID,
	}
	switch kind {
	case models.ConflictTeacher:
		conflict.TeacherID = existing.TeacherID
	case models.ConflictClassroom:
		conflict.ClassroomID = existing.ClassroomID
	case models.ConflictStudentGroup:
		conflict.StudentGroupID = existing.StudentGroupID
	}
	return &models.LessonConflictError{Kind: kind, Message: message, Conflict: conflict}
}
