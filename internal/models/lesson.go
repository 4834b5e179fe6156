package models

import "time"

// LessonType is the closed set of lesson kinds.
type LessonType string

const (
	LessonTypeLecture    LessonType = "LECTURE"
	LessonTypeSeminar    LessonType = "SEMINAR"
	LessonTypePractical  LessonType = "PRACTICAL_LESSON"
	LessonTypeLaboratory LessonType = "LABORATORY_LESSON"
	LessonTypeExam       LessonType = "EXAM"
)

// LessonTypes lists every accepted lesson type.
var LessonTypes = []LessonType{
	LessonTypeLecture,
	LessonTypeSeminar,
	LessonTypePractical,
	LessonTypeLaboratory,
	LessonTypeExam,
}

// Valid reports whether t belongs to the closed set.
func (t LessonType) Valid() bool {
	for _, known := range LessonTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Lesson is one scheduled occurrence. Directory links are stored as ids only.
type Lesson struct {
	ID             string     `db:"id" json:"id"`
	StudentGroupID string     `db:"student_group_id" json:"studentGroupId"`
	SubjectID      string     `db:"subject_id" json:"subjectId"`
	TeacherID      string     `db:"teacher_id" json:"teacherId"`
	ClassroomID    string     `db:"classroom_id" json:"classroomId"`
	TimeslotID     string     `db:"timeslot_id" json:"timeslotId"`
	Date           time.Time  `db:"date" json:"date"`
	LessonType     LessonType `db:"lesson_type" json:"lessonType"`
	CreatedAt      time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updatedAt"`
}

// LessonOwner selects which directory column a timetable query filters on.
type LessonOwner string

const (
	LessonOwnerStudentGroup LessonOwner = "student_group_id"
	LessonOwnerTeacher      LessonOwner = "teacher_id"
	LessonOwnerClassroom    LessonOwner = "classroom_id"
)

// LessonDetail is a lesson joined with every directory row it references.
type LessonDetail struct {
	Lesson
	StudentGroupNumber     int    `db:"student_group_number"`
	SubjectName            string `db:"subject_name"`
	TeacherFullName        string `db:"teacher_full_name"`
	ClassroomNumber        int    `db:"classroom_number"`
	TimeslotSequenceNumber int    `db:"timeslot_sequence_number"`
	TimeslotBeginTime      string `db:"timeslot_begin_time"`
	TimeslotEndTime        string `db:"timeslot_end_time"`
}
