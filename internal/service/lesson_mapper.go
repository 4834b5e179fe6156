package service

import (
	"time"

	"github.com/kosterror/time-flow-api/internal/dto"
	"github.com/kosterror/time-flow-api/internal/models"
	"github.com/kosterror/time-flow-api/pkg/config"
	appErrors "github.com/kosterror/time-flow-api/pkg/errors"
)

func lessonResponse(lesson models.Lesson, refs *LessonReferences) dto.LessonResponse {
	return dto.LessonResponse{
		ID:           lesson.ID,
		StudentGroup: refs.StudentGroup,
		Subject:      refs.Subject,
		Teacher:      refs.Teacher,
		Classroom:    refs.Classroom,
		Timeslot:     refs.Timeslot,
		Date:         lesson.Date.Format(config.DateLayout),
		LessonType:   lesson.LessonType,
	}
}

func lessonResponseFromDetail(detail models.LessonDetail) dto.LessonResponse {
	return dto.LessonResponse{
		ID:           detail.ID,
		StudentGroup: models.StudentGroup{ID: detail.StudentGroupID, Number: detail.StudentGroupNumber},
		Subject:      models.Subject{ID: detail.SubjectID, Name: detail.SubjectName},
		Teacher:      models.Teacher{ID: detail.TeacherID, FullName: detail.TeacherFullName},
		Classroom:    models.Classroom{ID: detail.ClassroomID, Number: detail.ClassroomNumber},
		Timeslot: models.Timeslot{
			ID:             detail.TimeslotID,
			SequenceNumber: detail.TimeslotSequenceNumber,
			BeginTime:      detail.TimeslotBeginTime,
			EndTime:        detail.TimeslotEndTime,
		},
		Date:       detail.Date.Format(config.DateLayout),
		LessonType: detail.LessonType,
	}
}

func candidateFromRequest(req dto.CreateLessonRequest) (models.Lesson, error) {
	date, err := parseDate(req.Date, "date")
	if err != nil {
		return models.Lesson{}, err
	}
	return models.Lesson{
		StudentGroupID: req.StudentGroupID,
		SubjectID:      req.SubjectID,
		TeacherID:      req.TeacherID,
		ClassroomID:    req.ClassroomID,
		TimeslotID:     req.TimeslotID,
		Date:           date,
		LessonType:     models.LessonType(req.LessonType),
	}, nil
}

func parseDate(raw, field string) (time.Time, error) {
	day, err := time.ParseInLocation(config.DateLayout, raw, time.UTC)
	if err != nil {
		return time.Time{}, appErrors.Clone(appErrors.ErrValidation, field+" must be a date in YYYY-MM-DD format, got "+raw)
	}
	return day, nil
}

func parseDateRange(startRaw, endRaw string) (time.Time, time.Time, error) {
	start, err := parseDate(startRaw, "startDate")
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := parseDate(endRaw, "endDate")
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if start.After(end) {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, "startDate "+startRaw+" is after endDate "+endRaw)
	}
	return start, end, nil
}
