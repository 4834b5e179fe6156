package service

import (
	"context"

	"github.com/kosterror/time-flow-api/internal/models"
)

// LessonReferences holds the directory rows a lesson candidate points at.
type LessonReferences struct {
	StudentGroup models.StudentGroup
	Subject      models.Subject
	Teacher      models.Teacher
	Classroom    models.Classroom
	Timeslot     models.Timeslot
}

// ReferenceValidator confirms every foreign id of a candidate resolves.
type ReferenceValidator struct {
	directory *DirectoryService
}

// NewReferenceValidator builds a validator over the directory service.
func NewReferenceValidator(directory *DirectoryService) *ReferenceValidator {
	return &ReferenceValidator{directory: directory}
}

// Resolve looks up group, subject, teacher, classroom and timeslot in that
// order and stops at the first missing one with a NotFound error naming it.
func (v *ReferenceValidator) Resolve(ctx context.Context, candidate models.Lesson) (*LessonReferences, error) {
	group, err := v.directory.StudentGroup(ctx, candidate.StudentGroupID)
	if err != nil {
		return nil, err
	}
	subject, err := v.directory.Subject(ctx, candidate.SubjectID)
	if err != nil {
		return nil, err
	}
	teacher, err := v.directory.Teacher(ctx, candidate.TeacherID)
	if err != nil {
		return nil, err
	}
	classroom, err := v.directory.Classroom(ctx, candidate.ClassroomID)
	if err != nil {
		return nil, err
	}
	timeslot, err := v.directory.Timeslot(ctx, candidate.TimeslotID)
	if err != nil {
		return nil, err
	}
	return &LessonReferences{
		StudentGroup: *group,
		Subject:      *subject,
		Teacher:      *teacher,
		Classroom:    *classroom,
		Timeslot:     *timeslot,
	}, nil
}
