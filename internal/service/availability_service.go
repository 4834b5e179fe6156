package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/kosterror/time-flow-api/internal/dto"
	"github.com/kosterror/time-flow-api/internal/models"
	appErrors "github.com/kosterror/time-flow-api/pkg/errors"
)

type lessonDayReader interface {
	ListByDate(ctx context.Context, date time.Time) ([]models.Lesson, error)
}

// AvailabilityService lists directory entries that are free on a date.
type AvailabilityService struct {
	lessons   lessonDayReader
	directory *DirectoryService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAvailabilityService constructs an AvailabilityService.
func NewAvailabilityService(lessons lessonDayReader, directory *DirectoryService, validate *validator.Validate, logger *zap.Logger) *AvailabilityService {
	if validate == nil {
		validate = dto.NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AvailabilityService{lessons: lessons, directory: directory, validator: validate, logger: logger}
}

// Timeslots returns the timeslots on the date in which none of the given
// teacher, classroom and student group is booked. Empty filters are ignored.
func (s *AvailabilityService) Timeslots(ctx context.Context, query dto.AvailabilityQuery) ([]models.Timeslot, error) {
	date, err := s.parse(query)
	if err != nil {
		return nil, err
	}
	lessons, err := s.dayLessons(ctx, date)
	if err != nil {
		return nil, err
	}

	busy := make(map[string]struct{})
	for _, lesson := range lessons {
		if (query.TeacherID != "" && lesson.TeacherID == query.TeacherID) ||
			(query.ClassroomID != "" && lesson.ClassroomID == query.ClassroomID) ||
			(query.StudentGroupID != "" && lesson.StudentGroupID == query.StudentGroupID) {
			busy[lesson.TimeslotID] = struct{}{}
		}
	}

	timeslots, err := s.directory.Timeslots(ctx)
	if err != nil {
		return nil, err
	}
	free := make([]models.Timeslot, 0, len(timeslots))
	for _, timeslot := range timeslots {
		if _, taken := busy[timeslot.ID]; !taken {
			free = append(free, timeslot)
		}
	}
	return free, nil
}

// Teachers returns the teachers without a lesson in the timeslot on the date.
func (s *AvailabilityService) Teachers(ctx context.Context, query dto.AvailabilityQuery) ([]models.Teacher, error) {
	busy, err := s.busyInSlot(ctx, query, func(l models.Lesson) string { return l.TeacherID })
	if err != nil {
		return nil, err
	}
	teachers, err := s.directory.Teachers(ctx)
	if err != nil {
		return nil, err
	}
	free := make([]models.Teacher, 0, len(teachers))
	for _, teacher := range teachers {
		if _, taken := busy[teacher.ID]; !taken {
			free = append(free, teacher)
		}
	}
	return free, nil
}

// Classrooms returns the classrooms without a lesson in the timeslot on the date.
func (s *AvailabilityService) Classrooms(ctx context.Context, query dto.AvailabilityQuery) ([]models.Classroom, error) {
	busy, err := s.busyInSlot(ctx, query, func(l models.Lesson) string { return l.ClassroomID })
	if err != nil {
		return nil, err
	}
	classrooms, err := s.directory.Classrooms(ctx)
	if err != nil {
		return nil, err
	}
	free := make([]models.Classroom, 0, len(classrooms))
	for _, classroom := range classrooms {
		if _, taken := busy[classroom.ID]; !taken {
			free = append(free, classroom)
		}
	}
	return free, nil
}

func (s *AvailabilityService) busyInSlot(ctx context.Context, query dto.AvailabilityQuery, resource func(models.Lesson) string) (map[string]struct{}, error) {
	date, err := s.parse(query)
	if err != nil {
		return nil, err
	}
	if query.TimeslotID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "timeslotId is required")
	}
	if _, err := s.directory.Timeslot(ctx, query.TimeslotID); err != nil {
		return nil, err
	}
	lessons, err := s.dayLessons(ctx, date)
	if err != nil {
		return nil, err
	}
	busy := make(map[string]struct{})
	for _, lesson := range lessons {
		if lesson.TimeslotID == query.TimeslotID {
			busy[resource(lesson)] = struct{}{}
		}
	}
	return busy, nil
}

func (s *AvailabilityService) parse(query dto.AvailabilityQuery) (time.Time, error) {
	if err := s.validator.Struct(query); err != nil {
		return time.Time{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid availability query")
	}
	return parseDate(query.Date, "date")
}

func (s *AvailabilityService) dayLessons(ctx context.Context, date time.Time) ([]models.Lesson, error) {
	lessons, err := s.lessons.ListByDate(ctx, date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lessons for date")
	}
	return lessons, nil
}
