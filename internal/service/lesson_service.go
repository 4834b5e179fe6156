package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/kosterror/time-flow-api/internal/dto"
	"github.com/kosterror/time-flow-api/internal/models"
	"github.com/kosterror/time-flow-api/internal/repository"
	"github.com/kosterror/time-flow-api/pkg/config"
	appErrors "github.com/kosterror/time-flow-api/pkg/errors"
)

type lessonStore interface {
	lessonSlotReader
	FindByID(ctx context.Context, id string) (*models.Lesson, error)
	LockSlot(ctx context.Context, exec sqlx.ExtContext, date time.Time, timeslotID string) error
	Create(ctx context.Context, exec sqlx.ExtContext, lesson *models.Lesson) error
	Update(ctx context.Context, exec sqlx.ExtContext, lesson *models.Lesson) error
	Delete(ctx context.Context, id string) error
	DeleteByDateRange(ctx context.Context, exec sqlx.ExtContext, start, end time.Time) (int64, error)
}

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

// LessonServiceConfig bounds scheduler behaviour.
type LessonServiceConfig struct {
	MaxWeeks int
}

// LessonService creates, moves and removes lessons. Every write runs the
// reference validator and the availability checker first.
type LessonService struct {
	lessons   lessonStore
	refs      *ReferenceValidator
	checker   *AvailabilityChecker
	tx        txProvider
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       LessonServiceConfig
}

// NewLessonService wires scheduler dependencies.
func NewLessonService(
	lessons lessonStore,
	refs *ReferenceValidator,
	checker *AvailabilityChecker,
	tx txProvider,
	cache *CacheService,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg LessonServiceConfig,
) *LessonService {
	if validate == nil {
		validate = dto.NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxWeeks <= 0 {
		cfg.MaxWeeks = 52
	}
	return &LessonService{
		lessons:   lessons,
		refs:      refs,
		checker:   checker,
		tx:        tx,
		cache:     cache,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
	}
}

// Create schedules a single lesson.
func (s *LessonService) Create(ctx context.Context, req dto.CreateLessonRequest) (*dto.LessonResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid lesson payload")
	}
	candidate, err := candidateFromRequest(req)
	if err != nil {
		return nil, err
	}
	refs, err := s.refs.Resolve(ctx, candidate)
	if err != nil {
		return nil, err
	}

	created, err := s.scheduleBatch(ctx, []models.Lesson{candidate})
	if err != nil {
		return nil, err
	}
	resp := lessonResponse(created[0], refs)
	return &resp, nil
}

// CreateRecurring schedules the same lesson on numberOfWeeks consecutive
// weeks starting at the requested date. Either every occurrence is stored or none.
func (s *LessonService) CreateRecurring(ctx context.Context, req dto.CreateRecurringLessonRequest) ([]dto.LessonResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid recurring lesson payload")
	}
	if req.NumberOfWeeks > s.cfg.MaxWeeks {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("numberOfWeeks %d exceeds the limit of %d", req.NumberOfWeeks, s.cfg.MaxWeeks))
	}
	base, err := candidateFromRequest(req.CreateLessonRequest)
	if err != nil {
		return nil, err
	}
	refs, err := s.refs.Resolve(ctx, base)
	if err != nil {
		return nil, err
	}

	occurrences := make([]models.Lesson, req.NumberOfWeeks)
	for i := range occurrences {
		occurrence := base
		occurrence.Date = base.Date.AddDate(0, 0, 7*i)
		occurrences[i] = occurrence
	}

	created, err := s.scheduleBatch(ctx, occurrences)
	if err != nil {
		return nil, err
	}
	responses := make([]dto.LessonResponse, len(created))
	for i, lesson := range created {
		responses[i] = lessonResponse(lesson, refs)
	}
	return responses, nil
}

// Update replaces every field of an existing lesson.
func (s *LessonService) Update(ctx context.Context, id string, req dto.UpdateLessonRequest) (*dto.LessonResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid lesson payload")
	}
	existing, err := s.lessons.FindByID(ctx, id)
	if err != nil {
		return nil, lessonLookupError(err, id)
	}
	candidate, err := candidateFromRequest(req)
	if err != nil {
		return nil, err
	}
	refs, err := s.refs.Resolve(ctx, candidate)
	if err != nil {
		return nil, err
	}
	candidate.ID = existing.ID
	candidate.CreatedAt = existing.CreatedAt

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin lesson transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = s.lockAndCheck(ctx, tx, candidate, existing.ID); err != nil {
		return nil, err
	}
	if err = s.lessons.Update(ctx, tx, &candidate); err != nil {
		err = s.persistError(err, "failed to update lesson")
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		err = s.persistError(err, "failed to commit lesson update")
		return nil, err
	}

	s.cache.InvalidateTimetables(ctx)
	s.logger.Info("lesson updated", zap.String("lesson_id", candidate.ID))
	resp := lessonResponse(candidate, refs)
	return &resp, nil
}

// Delete removes a lesson by id.
func (s *LessonService) Delete(ctx context.Context, id string) error {
	if _, err := s.lessons.FindByID(ctx, id); err != nil {
		return lessonLookupError(err, id)
	}
	if err := s.lessons.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete lesson")
	}
	s.cache.InvalidateTimetables(ctx)
	s.logger.Info("lesson deleted", zap.String("lesson_id", id))
	return nil
}

// DeleteByDateRange removes every lesson dated within the inclusive range.
func (s *LessonService) DeleteByDateRange(ctx context.Context, query dto.DateRangeQuery) (result *dto.DeleteLessonsResponse, err error) {
	if err = s.validator.Struct(query); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid date range")
	}
	start, end, err := parseDateRange(query.StartDate, query.EndDate)
	if err != nil {
		return nil, err
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin lesson transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	deleted, err := s.lessons.DeleteByDateRange(ctx, tx, start, end)
	if err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete lessons")
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit lesson deletion")
		return nil, err
	}

	s.cache.InvalidateTimetables(ctx)
	s.logger.Info("lessons deleted by range",
		zap.String("start_date", query.StartDate),
		zap.String("end_date", query.EndDate),
		zap.Int64("deleted", deleted),
	)
	return &dto.DeleteLessonsResponse{
		Deleted:   deleted,
		StartDate: start.Format(config.DateLayout),
		EndDate:   end.Format(config.DateLayout),
	}, nil
}

// scheduleBatch locks, checks and inserts every candidate inside one
// transaction. The first failure rolls the whole batch back.
func (s *LessonService) scheduleBatch(ctx context.Context, candidates []models.Lesson) (created []models.Lesson, err error) {
	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin lesson transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	created = make([]models.Lesson, 0, len(candidates))
	for _, candidate := range candidates {
		lesson := candidate
		if err = s.lockAndCheck(ctx, tx, lesson, ""); err != nil {
			return nil, err
		}
		if err = s.lessons.Create(ctx, tx, &lesson); err != nil {
			err = s.persistError(err, "failed to create lesson")
			return nil, err
		}
		created = append(created, lesson)
	}

	if err = tx.Commit(); err != nil {
		err = s.persistError(err, "failed to commit lessons")
		return nil, err
	}

	s.metrics.RecordLessonsScheduled(len(created))
	s.cache.InvalidateTimetables(ctx)
	s.logger.Info("lessons scheduled",
		zap.Int("count", len(created)),
		zap.String("first_date", created[0].Date.Format(config.DateLayout)),
		zap.String("timeslot_id", created[0].TimeslotID),
	)
	return created, nil
}

func (s *LessonService) lockAndCheck(ctx context.Context, tx *sqlx.Tx, candidate models.Lesson, excludeID string) error {
	if err := s.lessons.LockSlot(ctx, tx, candidate.Date, candidate.TimeslotID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to lock lesson slot")
	}
	return s.checker.Check(ctx, tx, candidate, excludeID)
}

// persistError maps store-level violations that slipped past the checker.
func (s *LessonService) persistError(err error, message string) error {
	var conflictErr *models.LessonConflictError
	if errors.As(err, &conflictErr) {
		return s.checker.ConflictError(conflictErr)
	}
	if errors.Is(err, repository.ErrReferenceViolation) {
		return appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "a referenced directory entry no longer exists")
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}

func lessonLookupError(err error, id string) error {
	if repository.IsMissingRow(err) {
		return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("lesson with id %s not found", id))
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lesson")
}
