package dto

import "github.com/kosterror/time-flow-api/internal/models"

// CreateLessonRequest is the candidate assignment for one lesson.
type CreateLessonRequest struct {
	StudentGroupID string `json:"studentGroupId" validate:"required,uuid"`
	SubjectID      string `json:"subjectId" validate:"required,uuid"`
	TeacherID      string `json:"teacherId" validate:"required,uuid"`
	ClassroomID    string `json:"classroomId" validate:"required,uuid"`
	TimeslotID     string `json:"timeslotId" validate:"required,uuid"`
	Date           string `json:"date" validate:"required,iso_date"`
	LessonType     string `json:"lessonType" validate:"required,lesson_type"`
}

// UpdateLessonRequest carries the full replacement for an existing lesson.
type UpdateLessonRequest = CreateLessonRequest

// CreateRecurringLessonRequest repeats a lesson weekly starting at Date.
type CreateRecurringLessonRequest struct {
	CreateLessonRequest
	NumberOfWeeks int `json:"numberOfWeeks" validate:"required,min=1"`
}

// LessonResponse is the denormalised read-model of a lesson.
type LessonResponse struct {
	ID           string              `json:"id"`
	StudentGroup models.StudentGroup `json:"studentGroup"`
	Subject      models.Subject      `json:"subject"`
	Teacher      models.Teacher      `json:"teacher"`
	Classroom    models.Classroom    `json:"classroom"`
	Timeslot     models.Timeslot     `json:"timeslot"`
	Date         string              `json:"date"`
	LessonType   models.LessonType   `json:"lessonType"`
}

// DeleteLessonsResponse reports how many lessons a range delete removed.
type DeleteLessonsResponse struct {
	Deleted   int64  `json:"deleted"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}
