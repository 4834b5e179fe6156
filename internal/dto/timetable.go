package dto

import "github.com/kosterror/time-flow-api/internal/models"

// TimetableQuery selects a window either by explicit dates or by week page.
type TimetableQuery struct {
	StartDate string `form:"startDate" validate:"omitempty,iso_date"`
	EndDate   string `form:"endDate" validate:"omitempty,iso_date"`
	Page      int    `form:"page" validate:"omitempty,min=1"`
}

// DateRangeQuery is an explicit inclusive window.
type DateRangeQuery struct {
	StartDate string `form:"startDate" validate:"required,iso_date"`
	EndDate   string `form:"endDate" validate:"required,iso_date"`
}

// WeekWindow echoes the resolved window back to the caller.
type WeekWindow struct {
	Number    int    `json:"number,omitempty"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

// TimetableResponse pairs the owning directory entity with its lessons.
// Exactly one of StudentGroup, Teacher and Classroom is set.
type TimetableResponse struct {
	StudentGroup *models.StudentGroup `json:"studentGroup,omitempty"`
	Teacher      *models.Teacher      `json:"teacher,omitempty"`
	Classroom    *models.Classroom    `json:"classroom,omitempty"`
	Week         WeekWindow           `json:"week"`
	Lessons      []LessonResponse     `json:"lessons"`
}
