package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kosterror/time-flow-api/internal/dto"
	"github.com/kosterror/time-flow-api/internal/models"
	appErrors "github.com/kosterror/time-flow-api/pkg/errors"
	"github.com/kosterror/time-flow-api/pkg/response"
)

type availabilityFinder interface {
	Timeslots(ctx context.Context, query dto.AvailabilityQuery) ([]models.Timeslot, error)
	Teachers(ctx context.Context, query dto.AvailabilityQuery) ([]models.Teacher, error)
	Classrooms(ctx context.Context, query dto.AvailabilityQuery) ([]models.Classroom, error)
}

// AvailabilityHandler answers "what is free" lookups for planners.
type AvailabilityHandler struct {
	availability availabilityFinder
}

// NewAvailabilityHandler constructs an AvailabilityHandler.
func NewAvailabilityHandler(availability availabilityFinder) *AvailabilityHandler {
	return &AvailabilityHandler{availability: availability}
}

// Timeslots godoc
// @Summary Free timeslots on a date
// @Tags Availability
// @Produce json
// @Param date query string true "Date (YYYY-MM-DD)"
// @Param teacherId query string false "Teacher that must be free"
// @Param classroomId query string false "Classroom that must be free"
// @Param studentGroupId query string false "Student group that must be free"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /available-timeslots [get]
func (h *AvailabilityHandler) Timeslots(c *gin.Context) {
	query, ok := bindAvailabilityQuery(c)
	if !ok {
		return
	}
	timeslots, err := h.availability.Timeslots(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, timeslots)
}

// Teachers godoc
// @Summary Teachers free in a timeslot
// @Tags Availability
// @Produce json
// @Param date query string true "Date (YYYY-MM-DD)"
// @Param timeslotId query string true "Timeslot ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /available-teachers [get]
func (h *AvailabilityHandler) Teachers(c *gin.Context) {
	query, ok := bindAvailabilityQuery(c)
	if !ok {
		return
	}
	teachers, err := h.availability.Teachers(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, teachers)
}

// Classrooms godoc
// @Summary Classrooms free in a timeslot
// @Tags Availability
// @Produce json
// @Param date query string true "Date (YYYY-MM-DD)"
// @Param timeslotId query string true "Timeslot ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /available-classrooms [get]
func (h *AvailabilityHandler) Classrooms(c *gin.Context) {
	query, ok := bindAvailabilityQuery(c)
	if !ok {
		return
	}
	classrooms, err := h.availability.Classrooms(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, classrooms)
}

func bindAvailabilityQuery(c *gin.Context) (dto.AvailabilityQuery, bool) {
	var query dto.AvailabilityQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid availability query"))
		return query, false
	}
	return query, true
}
