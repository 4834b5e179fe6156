package models

// Audit actions recorded for lesson mutations.
const (
	AuditActionLessonCreate      = "LESSON_CREATE"
	AuditActionLessonRecurring   = "LESSON_CREATE_RECURRING"
	AuditActionLessonUpdate      = "LESSON_UPDATE"
	AuditActionLessonDelete      = "LESSON_DELETE"
	AuditActionLessonDeleteRange = "LESSON_DELETE_RANGE"
)

// AuditResourceLesson names the resource lesson audit entries refer to.
const AuditResourceLesson = "lesson"
