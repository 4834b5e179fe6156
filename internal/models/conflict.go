package models

// LessonConflictKind names the resource that is already booked.
type LessonConflictKind string

const (
	ConflictTeacher      LessonConflictKind = "TEACHER"
	ConflictClassroom    LessonConflictKind = "CLASSROOM"
	ConflictStudentGroup LessonConflictKind = "STUDENT_GROUP"
)

// LessonConflict describes the existing lesson that blocks a candidate.
type LessonConflict struct {
	Kind           LessonConflictKind `json:"kind"`
	LessonID       string             `json:"lessonId,omitempty"`
	Date           string             `json:"date"`
	TimeslotID     string             `json:"timeslotId"`
	TeacherID      string             `json:"teacherId,omitempty"`
	ClassroomID    string             `json:"classroomId,omitempty"`
	StudentGroupID string             `json:"studentGroupId,omitempty"`
}

// LessonConflictError is returned when a candidate double-books a resource.
type LessonConflictError struct {
	Kind     LessonConflictKind `json:"kind"`
	Message  string             `json:"message"`
	Conflict LessonConflict     `json:"conflict"`
}

// Error implements the error interface for conflict errors.
func (e *LessonConflictError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.Message
}
