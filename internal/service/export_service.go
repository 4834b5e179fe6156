package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kosterror/time-flow-api/internal/dto"
	"github.com/kosterror/time-flow-api/internal/models"
	"github.com/kosterror/time-flow-api/pkg/config"
	appErrors "github.com/kosterror/time-flow-api/pkg/errors"
	"github.com/kosterror/time-flow-api/pkg/export"
)

type timetableSource interface {
	ByStudentGroup(ctx context.Context, groupID string, query dto.TimetableQuery) (*dto.TimetableResponse, bool, error)
	ByTeacher(ctx context.Context, teacherID string, query dto.TimetableQuery) (*dto.TimetableResponse, bool, error)
	ByClassroom(ctx context.Context, classroomID string, query dto.TimetableQuery) (*dto.TimetableResponse, bool, error)
}

type tableRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type calendarRenderer interface {
	Render(name string, events []export.Event) ([]byte, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	// Location interprets timeslot wall-clock times for calendar exports.
	Location *time.Location
}

// ExportResult is a rendered timetable file.
type ExportResult struct {
	Filename    string
	ContentType string
	Body        []byte
}

// ExportService renders timetable windows into downloadable files.
type ExportService struct {
	timetables timetableSource
	csv        tableRenderer
	pdf        tableRenderer
	xlsx       tableRenderer
	ics        calendarRenderer
	logger     *zap.Logger
	cfg        ExportConfig
}

// NewExportService constructs an ExportService. Nil renderers fall back to
// the pkg/export implementations.
func NewExportService(timetables timetableSource, csv, pdf, xlsx tableRenderer, ics calendarRenderer, logger *zap.Logger, cfg ExportConfig) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	if xlsx == nil {
		xlsx = export.NewXLSXExporter()
	}
	if ics == nil {
		ics = export.NewICSExporter()
	}
	return &ExportService{timetables: timetables, csv: csv, pdf: pdf, xlsx: xlsx, ics: ics, logger: logger, cfg: cfg}
}

var exportHeaders = []string{"Date", "Slot", "Time", "Subject", "Type", "Teacher", "Classroom", "Group"}

// Export renders the timetable of one owner in the requested format.
func (s *ExportService) Export(ctx context.Context, owner models.LessonOwner, ownerID string, query dto.TimetableQuery, format models.ExportFormat) (*ExportResult, error) {
	var (
		timetable *dto.TimetableResponse
		err       error
	)
	switch owner {
	case models.LessonOwnerStudentGroup:
		timetable, _, err = s.timetables.ByStudentGroup(ctx, ownerID, query)
	case models.LessonOwnerTeacher:
		timetable, _, err = s.timetables.ByTeacher(ctx, ownerID, query)
	case models.LessonOwnerClassroom:
		timetable, _, err = s.timetables.ByClassroom(ctx, ownerID, query)
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported timetable owner %q", owner))
	}
	if err != nil {
		return nil, err
	}

	title := timetableTitle(timetable)
	var body []byte
	switch format {
	case models.ExportFormatCSV:
		body, err = s.csv.Render(s.dataset(title, timetable))
	case models.ExportFormatPDF:
		body, err = s.pdf.Render(s.dataset(title, timetable))
	case models.ExportFormatXLSX:
		body, err = s.xlsx.Render(s.dataset(title, timetable))
	case models.ExportFormatICS:
		var events []export.Event
		events, err = s.events(timetable)
		if err == nil {
			body, err = s.ics.Render(title, events)
		}
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
	if err != nil {
		s.logger.Error("timetable export failed", zap.String("format", string(format)), zap.String("owner_id", ownerID), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render timetable export")
	}

	return &ExportResult{
		Filename:    exportFilename(title, timetable.Week, format),
		ContentType: format.ContentType(),
		Body:        body,
	}, nil
}

func (s *ExportService) dataset(title string, timetable *dto.TimetableResponse) export.Dataset {
	rows := make([]map[string]string, 0, len(timetable.Lessons))
	for _, lesson := range timetable.Lessons {
		rows = append(rows, map[string]string{
			"Date":      lesson.Date,
			"Slot":      strconv.Itoa(lesson.Timeslot.SequenceNumber),
			"Time":      shortTime(lesson.Timeslot.BeginTime) + "-" + shortTime(lesson.Timeslot.EndTime),
			"Subject":   lesson.Subject.Name,
			"Type":      string(lesson.LessonType),
			"Teacher":   lesson.Teacher.FullName,
			"Classroom": strconv.Itoa(lesson.Classroom.Number),
			"Group":     strconv.Itoa(lesson.StudentGroup.Number),
		})
	}
	return export.Dataset{Title: title, Headers: exportHeaders, Rows: rows}
}

func (s *ExportService) events(timetable *dto.TimetableResponse) ([]export.Event, error) {
	events := make([]export.Event, 0, len(timetable.Lessons))
	for _, lesson := range timetable.Lessons {
		start, err := s.wallClock(lesson.Date, lesson.Timeslot.BeginTime)
		if err != nil {
			return nil, err
		}
		end, err := s.wallClock(lesson.Date, lesson.Timeslot.EndTime)
		if err != nil {
			return nil, err
		}
		events = append(events, export.Event{
			UID:         lesson.ID + "@time-flow-api",
			Summary:     fmt.Sprintf("%s (%s)", lesson.Subject.Name, lesson.LessonType),
			Location:    fmt.Sprintf("Classroom %d", lesson.Classroom.Number),
			Description: fmt.Sprintf("Teacher: %s; group: %d", lesson.Teacher.FullName, lesson.StudentGroup.Number),
			Start:       start,
			End:         end,
		})
	}
	return events, nil
}

func (s *ExportService) wallClock(date, clock string) (time.Time, error) {
	layout := config.DateLayout + " 15:04:05"
	if len(clock) == len("15:04") {
		layout = config.DateLayout + " 15:04"
	}
	t, err := time.ParseInLocation(layout, date+" "+clock, s.cfg.Location)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse lesson time %s %s: %w", date, clock, err)
	}
	return t, nil
}

func timetableTitle(timetable *dto.TimetableResponse) string {
	var owner string
	switch {
	case timetable.StudentGroup != nil:
		owner = fmt.Sprintf("Group %d", timetable.StudentGroup.Number)
	case timetable.Teacher != nil:
		owner = timetable.Teacher.FullName
	case timetable.Classroom != nil:
		owner = fmt.Sprintf("Classroom %d", timetable.Classroom.Number)
	}
	return fmt.Sprintf("%s: %s to %s", owner, timetable.Week.StartDate, timetable.Week.EndDate)
}

func exportFilename(title string, week dto.WeekWindow, format models.ExportFormat) string {
	owner, _, _ := strings.Cut(title, ":")
	return fmt.Sprintf("timetable_%s_%s_%s.%s", sanitizeFilename(owner), week.StartDate, week.EndDate, format)
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "\"", "")
	result := strings.ToLower(replacer.Replace(raw))
	if len(result) > 100 {
		return result[:100]
	}
	return result
}

func shortTime(clock string) string {
	if len(clock) >= len("15:04") {
		return clock[:5]
	}
	return clock
}
