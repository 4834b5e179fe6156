package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kosterror/time-flow-api/internal/models"
	"github.com/kosterror/time-flow-api/internal/repository"
	appErrors "github.com/kosterror/time-flow-api/pkg/errors"
)

type studentGroupReader interface {
	FindByID(ctx context.Context, id string) (*models.StudentGroup, error)
	List(ctx context.Context) ([]models.StudentGroup, error)
}

type subjectReader interface {
	FindByID(ctx context.Context, id string) (*models.Subject, error)
	List(ctx context.Context) ([]models.Subject, error)
}

type teacherReader interface {
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
	List(ctx context.Context) ([]models.Teacher, error)
}

type classroomReader interface {
	FindByID(ctx context.Context, id string) (*models.Classroom, error)
	List(ctx context.Context) ([]models.Classroom, error)
}

type timeslotReader interface {
	FindByID(ctx context.Context, id string) (*models.Timeslot, error)
	List(ctx context.Context) ([]models.Timeslot, error)
}

// DirectoryService exposes the read-only directories lessons point at.
type DirectoryService struct {
	groups     studentGroupReader
	subjects   subjectReader
	teachers   teacherReader
	classrooms classroomReader
	timeslots  timeslotReader
	logger     *zap.Logger
}

// NewDirectoryService wires the directory readers.
func NewDirectoryService(groups studentGroupReader, subjects subjectReader, teachers teacherReader, classrooms classroomReader, timeslots timeslotReader, logger *zap.Logger) *DirectoryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DirectoryService{
		groups:     groups,
		subjects:   subjects,
		teachers:   teachers,
		classrooms: classrooms,
		timeslots:  timeslots,
		logger:     logger,
	}
}

// StudentGroup resolves a student group by id.
func (s *DirectoryService) StudentGroup(ctx context.Context, id string) (*models.StudentGroup, error) {
	group, err := s.groups.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "student group", id)
	}
	return group, nil
}

// Subject resolves a subject by id.
func (s *DirectoryService) Subject(ctx context.Context, id string) (*models.Subject, error) {
	subject, err := s.subjects.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "subject", id)
	}
	return subject, nil
}

// Teacher resolves a teacher by id.
func (s *DirectoryService) Teacher(ctx context.Context, id string) (*models.Teacher, error) {
	teacher, err := s.teachers.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "teacher", id)
	}
	return teacher, nil
}

// Classroom resolves a classroom by id.
func (s *DirectoryService) Classroom(ctx context.Context, id string) (*models.Classroom, error) {
	classroom, err := s.classrooms.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "classroom", id)
	}
	return classroom, nil
}

// Timeslot resolves a timeslot by id.
func (s *DirectoryService) Timeslot(ctx context.Context, id string) (*models.Timeslot, error) {
	timeslot, err := s.timeslots.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "timeslot", id)
	}
	return timeslot, nil
}

// StudentGroups lists every student group.
func (s *DirectoryService) StudentGroups(ctx context.Context) ([]models.StudentGroup, error) {
	groups, err := s.groups.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list student groups")
	}
	return groups, nil
}

// Subjects lists every subject.
func (s *DirectoryService) Subjects(ctx context.Context) ([]models.Subject, error) {
	subjects, err := s.subjects.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list subjects")
	}
	return subjects, nil
}

// Teachers lists every teacher.
func (s *DirectoryService) Teachers(ctx context.Context) ([]models.Teacher, error) {
	teachers, err := s.teachers.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list teachers")
	}
	return teachers, nil
}

// Classrooms lists every classroom.
func (s *DirectoryService) Classrooms(ctx context.Context) ([]models.Classroom, error) {
	classrooms, err := s.classrooms.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list classrooms")
	}
	return classrooms, nil
}

// Timeslots lists every timeslot in sequence order.
func (s *DirectoryService) Timeslots(ctx context.Context) ([]models.Timeslot, error) {
	timeslots, err := s.timeslots.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list timeslots")
	}
	return timeslots, nil
}

func lookupError(err error, entity, id string) error {
	if repository.IsMissingRow(err) {
		return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("%s with id %s not found", entity, id))
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, fmt.Sprintf("failed to load %s %s", entity, id))
}
