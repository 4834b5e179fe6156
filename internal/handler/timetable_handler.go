package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kosterror/time-flow-api/internal/dto"
	"github.com/kosterror/time-flow-api/internal/middleware"
	"github.com/kosterror/time-flow-api/internal/models"
	"github.com/kosterror/time-flow-api/internal/service"
	appErrors "github.com/kosterror/time-flow-api/pkg/errors"
	"github.com/kosterror/time-flow-api/pkg/response"
)

type timetableReader interface {
	ByStudentGroup(ctx context.Context, groupID string, query dto.TimetableQuery) (*dto.TimetableResponse, bool, error)
	ByTeacher(ctx context.Context, teacherID string, query dto.TimetableQuery) (*dto.TimetableResponse, bool, error)
	ByClassroom(ctx context.Context, classroomID string, query dto.TimetableQuery) (*dto.TimetableResponse, bool, error)
}

type timetableExporter interface {
	Export(ctx context.Context, owner models.LessonOwner, ownerID string, query dto.TimetableQuery, format models.ExportFormat) (*service.ExportResult, error)
}

// TimetableHandler serves timetable windows and their file exports.
type TimetableHandler struct {
	timetables timetableReader
	exporter   timetableExporter
}

// NewTimetableHandler constructs a TimetableHandler.
func NewTimetableHandler(timetables timetableReader, exporter timetableExporter) *TimetableHandler {
	return &TimetableHandler{timetables: timetables, exporter: exporter}
}

// ByStudentGroup godoc
// @Summary Timetable of a student group
// @Tags Timetable
// @Produce json
// @Param id path string true "Student group ID"
// @Param page query int false "Week number counted from the semester start"
// @Param startDate query string false "Inclusive start date (YYYY-MM-DD)"
// @Param endDate query string false "Inclusive end date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /lessons/group/{id} [get]
func (h *TimetableHandler) ByStudentGroup(c *gin.Context) {
	h.serve(c, h.timetables.ByStudentGroup)
}

// ByTeacher godoc
// @Summary Timetable of a teacher
// @Tags Timetable
// @Produce json
// @Param id path string true "Teacher ID"
// @Param page query int false "Week number counted from the semester start"
// @Param startDate query string false "Inclusive start date (YYYY-MM-DD)"
// @Param endDate query string false "Inclusive end date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /lessons/teacher/{id} [get]
func (h *TimetableHandler) ByTeacher(c *gin.Context) {
	h.serve(c, h.timetables.ByTeacher)
}

// ByClassroom godoc
// @Summary Timetable of a classroom
// @Tags Timetable
// @Produce json
// @Param id path string true "Classroom ID"
// @Param page query int false "Week number counted from the semester start"
// @Param startDate query string false "Inclusive start date (YYYY-MM-DD)"
// @Param endDate query string false "Inclusive end date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /lessons/classroom/{id} [get]
func (h *TimetableHandler) ByClassroom(c *gin.Context) {
	h.serve(c, h.timetables.ByClassroom)
}

// Export godoc
// @Summary Download a timetable window
// @Tags Timetable
// @Produce octet-stream
// @Param owner path string true "group, teacher or classroom"
// @Param id path string true "Owner ID"
// @Param format query string false "csv, pdf, xlsx or ics" default(csv)
// @Param page query int false "Week number counted from the semester start"
// @Param startDate query string false "Inclusive start date (YYYY-MM-DD)"
// @Param endDate query string false "Inclusive end date (YYYY-MM-DD)"
// @Success 200 {file} file
// @Router /lessons/{owner}/{id}/export [get]
func (h *TimetableHandler) Export(owner models.LessonOwner) gin.HandlerFunc {
	return func(c *gin.Context) {
		query, ok := bindTimetableQuery(c)
		if !ok {
			return
		}
		format := models.ExportFormat(strings.ToLower(c.DefaultQuery("format", string(models.ExportFormatCSV))))
		result, err := h.exporter.Export(c.Request.Context(), owner, c.Param("id"), query, format)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Attachment(c, result.Filename, result.ContentType, result.Body)
	}
}

func (h *TimetableHandler) serve(c *gin.Context, load func(context.Context, string, dto.TimetableQuery) (*dto.TimetableResponse, bool, error)) {
	query, ok := bindTimetableQuery(c)
	if !ok {
		return
	}
	timetable, cacheHit, err := load(c.Request.Context(), c.Param("id"), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	response.JSON(c, http.StatusOK, timetable, middleware.ExtractMeta(c))
}

func bindTimetableQuery(c *gin.Context) (dto.TimetableQuery, bool) {
	var query dto.TimetableQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid timetable query"))
		return query, false
	}
	return query, true
}
