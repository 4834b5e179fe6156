package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kosterror/time-flow-api/internal/dto"
	"github.com/kosterror/time-flow-api/internal/middleware"
	"github.com/kosterror/time-flow-api/internal/models"
	"github.com/kosterror/time-flow-api/internal/service"
	appErrors "github.com/kosterror/time-flow-api/pkg/errors"
)

type timetableReaderMock struct {
	query dto.TimetableQuery
	hit   bool
}

func (m *timetableReaderMock) ByStudentGroup(ctx context.Context, groupID string, query dto.TimetableQuery) (*dto.TimetableResponse, bool, error) {
	m.query = query
	return &dto.TimetableResponse{StudentGroup: &models.StudentGroup{ID: groupID, Number: 972101}, Lessons: []dto.LessonResponse{}}, m.hit, nil
}

func (m *timetableReaderMock) ByTeacher(ctx context.Context, teacherID string, query dto.TimetableQuery) (*dto.TimetableResponse, bool, error) {
	return nil, false, appErrors.Clone(appErrors.ErrNotFound, "teacher with id "+teacherID+" not found")
}

func (m *timetableReaderMock) ByClassroom(ctx context.Context, classroomID string, query dto.TimetableQuery) (*dto.TimetableResponse, bool, error) {
	m.query = query
	return &dto.TimetableResponse{Classroom: &models.Classroom{ID: classroomID}}, m.hit, nil
}

type exporterMock struct {
	owner  models.LessonOwner
	format models.ExportFormat
}

func (m *exporterMock) Export(ctx context.Context, owner models.LessonOwner, ownerID string, query dto.TimetableQuery, format models.ExportFormat) (*service.ExportResult, error) {
	m.owner, m.format = owner, format
	if format == "docx" {
		return nil, appErrors.Clone(appErrors.ErrValidation, `unsupported export format "docx"`)
	}
	return &service.ExportResult{Filename: "timetable_group_972101_2024-09-02_2024-09-08." + string(format), ContentType: format.ContentType(), Body: []byte("payload")}, nil
}

func newTimetableRouter(reader *timetableReaderMock, exporter *exporterMock) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewTimetableHandler(reader, exporter)
	r := gin.New()
	r.Use(middleware.WithResponseMeta())
	r.GET("/lessons/group/:id", h.ByStudentGroup)
	r.GET("/lessons/teacher/:id", h.ByTeacher)
	r.GET("/lessons/classroom/:id", h.ByClassroom)
	r.GET("/lessons/group/:id/export", h.Export(models.LessonOwnerStudentGroup))
	return r
}

func TestTimetableHandlerBindsWindowAndReportsCacheHit(t *testing.T) {
	reader := &timetableReaderMock{hit: true}
	r := newTimetableRouter(reader, &exporterMock{})

	w := doJSON(r, http.MethodGet, "/lessons/group/g1?startDate=2024-09-02&endDate=2024-09-08", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, dto.TimetableQuery{StartDate: "2024-09-02", EndDate: "2024-09-08"}, reader.query)
	assert.JSONEq(t, `true`, mustField(t, w, "meta", "cache_hit"))
	assert.JSONEq(t, `{"id":"g1","number":972101}`, mustField(t, w, "data", "studentGroup"))

	reader.hit = false
	w = doJSON(r, http.MethodGet, "/lessons/classroom/c1?page=2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, reader.query.Page)
	assert.JSONEq(t, `false`, mustField(t, w, "meta", "cache_hit"))
}

func TestTimetableHandlerErrors(t *testing.T) {
	r := newTimetableRouter(&timetableReaderMock{}, &exporterMock{})

	w := doJSON(r, http.MethodGet, "/lessons/group/g1?page=first", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(r, http.MethodGet, "/lessons/teacher/t9?page=1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTimetableHandlerExport(t *testing.T) {
	exporter := &exporterMock{}
	r := newTimetableRouter(&timetableReaderMock{}, exporter)

	w := doJSON(r, http.MethodGet, "/lessons/group/g1/export?page=1&format=XLSX", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.LessonOwnerStudentGroup, exporter.owner)
	assert.Equal(t, models.ExportFormatXLSX, exporter.format)
	assert.Equal(t, models.ExportFormatXLSX.ContentType(), w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "timetable_group_972101_2024-09-02_2024-09-08.xlsx")
	assert.Equal(t, "payload", w.Body.String())

	w = doJSON(r, http.MethodGet, "/lessons/group/g1/export?page=1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.ExportFormatCSV, exporter.format)

	w = doJSON(r, http.MethodGet, "/lessons/group/g1/export?page=1&format=docx", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
