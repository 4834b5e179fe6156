package service

import (
	"context"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/kosterror/time-flow-api/internal/dto"
	"github.com/kosterror/time-flow-api/internal/models"
	"github.com/kosterror/time-flow-api/pkg/config"
	appErrors "github.com/kosterror/time-flow-api/pkg/errors"
)

type lessonDetailReader interface {
	FindDetailByID(ctx context.Context, id string) (*models.LessonDetail, error)
	ListDetailsByOwner(ctx context.Context, owner models.LessonOwner, ownerID string, start, end time.Time) ([]models.LessonDetail, error)
}

// TimetableConfig anchors week paging and cache lifetime.
type TimetableConfig struct {
	SemesterStart time.Time
	CacheTTL      time.Duration
}

// TimetableService answers read queries over scheduled lessons.
type TimetableService struct {
	lessons   lessonDetailReader
	directory *DirectoryService
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       TimetableConfig
}

// NewTimetableService constructs a TimetableService.
func NewTimetableService(lessons lessonDetailReader, directory *DirectoryService, cache *CacheService, validate *validator.Validate, logger *zap.Logger, cfg TimetableConfig) *TimetableService {
	if validate == nil {
		validate = dto.NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TimetableService{lessons: lessons, directory: directory, cache: cache, validator: validate, logger: logger, cfg: cfg}
}

// Lesson returns the read-model of one lesson.
func (s *TimetableService) Lesson(ctx context.Context, id string) (*dto.LessonResponse, error) {
	detail, err := s.lessons.FindDetailByID(ctx, id)
	if err != nil {
		return nil, lessonLookupError(err, id)
	}
	resp := lessonResponseFromDetail(*detail)
	return &resp, nil
}

// ResolveWeek turns a query into an inclusive window. Page p covers the
// seven days starting semesterStart + 7*(p-1).
func (s *TimetableService) ResolveWeek(query dto.TimetableQuery) (models.Week, error) {
	if err := s.validator.Struct(query); err != nil {
		return models.Week{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid timetable query")
	}

	hasDates := query.StartDate != "" || query.EndDate != ""
	switch {
	case query.Page > 0 && hasDates:
		return models.Week{}, appErrors.Clone(appErrors.ErrValidation, "use either page or startDate and endDate, not both")
	case query.Page > 0:
		if s.cfg.SemesterStart.IsZero() {
			return models.Week{}, appErrors.Clone(appErrors.ErrInternal, "semester start is not configured")
		}
		begin := s.cfg.SemesterStart.AddDate(0, 0, 7*(query.Page-1))
		return models.Week{Number: query.Page, BeginDate: begin, EndDate: begin.AddDate(0, 0, 6)}, nil
	case query.StartDate != "" && query.EndDate != "":
		start, end, err := parseDateRange(query.StartDate, query.EndDate)
		if err != nil {
			return models.Week{}, err
		}
		return models.Week{BeginDate: start, EndDate: end}, nil
	default:
		return models.Week{}, appErrors.Clone(appErrors.ErrValidation, "page or both startDate and endDate are required")
	}
}

// ByStudentGroup returns a student group's lessons within the query window.
func (s *TimetableService) ByStudentGroup(ctx context.Context, groupID string, query dto.TimetableQuery) (*dto.TimetableResponse, bool, error) {
	week, err := s.ResolveWeek(query)
	if err != nil {
		return nil, false, err
	}
	return s.timetable(ctx, models.LessonOwnerStudentGroup, groupID, week, func(resp *dto.TimetableResponse) error {
		group, err := s.directory.StudentGroup(ctx, groupID)
		if err != nil {
			return err
		}
		resp.StudentGroup = group
		return nil
	})
}

// ByTeacher returns a teacher's lessons within the query window.
func (s *TimetableService) ByTeacher(ctx context.Context, teacherID string, query dto.TimetableQuery) (*dto.TimetableResponse, bool, error) {
	week, err := s.ResolveWeek(query)
	if err != nil {
		return nil, false, err
	}
	return s.timetable(ctx, models.LessonOwnerTeacher, teacherID, week, func(resp *dto.TimetableResponse) error {
		teacher, err := s.directory.Teacher(ctx, teacherID)
		if err != nil {
			return err
		}
		resp.Teacher = teacher
		return nil
	})
}

// ByClassroom returns a classroom's lessons within the query window.
func (s *TimetableService) ByClassroom(ctx context.Context, classroomID string, query dto.TimetableQuery) (*dto.TimetableResponse, bool, error) {
	week, err := s.ResolveWeek(query)
	if err != nil {
		return nil, false, err
	}
	return s.timetable(ctx, models.LessonOwnerClassroom, classroomID, week, func(resp *dto.TimetableResponse) error {
		classroom, err := s.directory.Classroom(ctx, classroomID)
		if err != nil {
			return err
		}
		resp.Classroom = classroom
		return nil
	})
}

func (s *TimetableService) timetable(ctx context.Context, owner models.LessonOwner, ownerID string, week models.Week, resolveOwner func(*dto.TimetableResponse) error) (*dto.TimetableResponse, bool, error) {
	generation, cacheable := s.cache.Generation(ctx)
	key := TimetableKey(generation, owner, ownerID, week.BeginDate, week.EndDate)
	var cached dto.TimetableResponse
	if cacheable && s.cache.Get(ctx, key, &cached) {
		return &cached, true, nil
	}

	resp := &dto.TimetableResponse{
		Week: dto.WeekWindow{
			Number:    week.Number,
			StartDate: week.BeginDate.Format(config.DateLayout),
			EndDate:   week.EndDate.Format(config.DateLayout),
		},
	}
	if err := resolveOwner(resp); err != nil {
		return nil, false, err
	}

	details, err := s.lessons.ListDetailsByOwner(ctx, owner, ownerID, week.BeginDate, week.EndDate)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable")
	}
	sort.SliceStable(details, func(i, j int) bool {
		if !details[i].Date.Equal(details[j].Date) {
			return details[i].Date.Before(details[j].Date)
		}
		return details[i].TimeslotSequenceNumber < details[j].TimeslotSequenceNumber
	})
	resp.Lessons = make([]dto.LessonResponse, 0, len(details))
	for _, detail := range details {
		if !week.Contains(detail.Date) {
			continue
		}
		resp.Lessons = append(resp.Lessons, lessonResponseFromDetail(detail))
	}

	if cacheable {
		s.cache.Set(ctx, key, resp, s.cfg.CacheTTL)
	}
	return resp, false, nil
}
