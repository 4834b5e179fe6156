package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kosterror/time-flow-api/internal/dto"
	appErrors "github.com/kosterror/time-flow-api/pkg/errors"
	"github.com/kosterror/time-flow-api/pkg/response"
)

type lessonScheduler interface {
	Create(ctx context.Context, req dto.CreateLessonRequest) (*dto.LessonResponse, error)
	CreateRecurring(ctx context.Context, req dto.CreateRecurringLessonRequest) ([]dto.LessonResponse, error)
	Update(ctx context.Context, id string, req dto.UpdateLessonRequest) (*dto.LessonResponse, error)
	Delete(ctx context.Context, id string) error
	DeleteByDateRange(ctx context.Context, query dto.DateRangeQuery) (*dto.DeleteLessonsResponse, error)
}

type lessonReader interface {
	Lesson(ctx context.Context, id string) (*dto.LessonResponse, error)
}

// LessonHandler exposes lesson scheduling endpoints.
type LessonHandler struct {
	scheduler lessonScheduler
	reader    lessonReader
}

// NewLessonHandler constructs a LessonHandler.
func NewLessonHandler(scheduler lessonScheduler, reader lessonReader) *LessonHandler {
	return &LessonHandler{scheduler: scheduler, reader: reader}
}

// Get godoc
// @Summary Get lesson
// @Tags Lessons
// @Produce json
// @Param id path string true "Lesson ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /lessons/{id} [get]
func (h *LessonHandler) Get(c *gin.Context) {
	lesson, err := h.reader.Lesson(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, lesson)
}

// Create godoc
// @Summary Schedule a lesson
// @Tags Lessons
// @Accept json
// @Produce json
// @Param payload body dto.CreateLessonRequest true "Lesson payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope "TEACHER_CONFLICT, CLASSROOM_CONFLICT or STUDENT_GROUP_CONFLICT"
// @Security BearerAuth
// @Router /lessons [post]
func (h *LessonHandler) Create(c *gin.Context) {
	var req dto.CreateLessonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid lesson payload"))
		return
	}
	lesson, err := h.scheduler.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, lesson)
}

// CreateRecurring godoc
// @Summary Schedule a lesson on consecutive weeks
// @Tags Lessons
// @Accept json
// @Produce json
// @Param payload body dto.CreateRecurringLessonRequest true "Recurring lesson payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /lessons/for-a-few-weeks [post]
func (h *LessonHandler) CreateRecurring(c *gin.Context) {
	var req dto.CreateRecurringLessonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid recurring lesson payload"))
		return
	}
	lessons, err := h.scheduler.CreateRecurring(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, lessons)
}

// Update godoc
// @Summary Replace a lesson
// @Tags Lessons
// @Accept json
// @Produce json
// @Param id path string true "Lesson ID"
// @Param payload body dto.UpdateLessonRequest true "Lesson payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /lessons/{id} [put]
func (h *LessonHandler) Update(c *gin.Context) {
	var req dto.UpdateLessonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid lesson payload"))
		return
	}
	lesson, err := h.scheduler.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, lesson)
}

// Delete godoc
// @Summary Delete a lesson
// @Tags Lessons
// @Param id path string true "Lesson ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /lessons/{id} [delete]
func (h *LessonHandler) Delete(c *gin.Context) {
	if err := h.scheduler.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// DeleteRange godoc
// @Summary Delete every lesson in a date range
// @Tags Lessons
// @Produce json
// @Param startDate query string true "Inclusive start date (YYYY-MM-DD)"
// @Param endDate query string true "Inclusive end date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /lessons [delete]
func (h *LessonHandler) DeleteRange(c *gin.Context) {
	var query dto.DateRangeQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid date range"))
		return
	}
	result, err := h.scheduler.DeleteByDateRange(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}
