package dto

// AvailabilityQuery looks up free resources for a date and, where relevant, a timeslot.
type AvailabilityQuery struct {
	Date           string `form:"date" validate:"required,iso_date"`
	TimeslotID     string `form:"timeslotId" validate:"omitempty,uuid"`
	TeacherID      string `form:"teacherId" validate:"omitempty,uuid"`
	ClassroomID    string `form:"classroomId" validate:"omitempty,uuid"`
	StudentGroupID string `form:"studentGroupId" validate:"omitempty,uuid"`
}
