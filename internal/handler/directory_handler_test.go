package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kosterror/time-flow-api/internal/dto"
	"github.com/kosterror/time-flow-api/internal/models"
	"github.com/kosterror/time-flow-api/internal/service"
	appErrors "github.com/kosterror/time-flow-api/pkg/errors"
)

type directoryMock struct {
	listErr error
}

func (m *directoryMock) StudentGroup(ctx context.Context, id string) (*models.StudentGroup, error) {
	return &models.StudentGroup{ID: id, Number: 972101}, nil
}

func (m *directoryMock) Subject(ctx context.Context, id string) (*models.Subject, error) {
	return nil, appErrors.Clone(appErrors.ErrNotFound, "subject with id "+id+" not found")
}

func (m *directoryMock) Teacher(ctx context.Context, id string) (*models.Teacher, error) {
	return &models.Teacher{ID: id, FullName: "Anna Ivanova"}, nil
}

func (m *directoryMock) Classroom(ctx context.Context, id string) (*models.Classroom, error) {
	return &models.Classroom{ID: id, Number: 215}, nil
}

func (m *directoryMock) Timeslot(ctx context.Context, id string) (*models.Timeslot, error) {
	return &models.Timeslot{ID: id, SequenceNumber: 1}, nil
}

func (m *directoryMock) StudentGroups(ctx context.Context) ([]models.StudentGroup, error) {
	return nil, nil
}

func (m *directoryMock) Subjects(ctx context.Context) ([]models.Subject, error) {
	return []models.Subject{{ID: "s1", Name: "Algebra"}}, nil
}

func (m *directoryMock) Teachers(ctx context.Context) ([]models.Teacher, error) {
	return nil, m.listErr
}

func (m *directoryMock) Classrooms(ctx context.Context) ([]models.Classroom, error) {
	return []models.Classroom{{ID: "r1", Number: 215}}, nil
}

func (m *directoryMock) Timeslots(ctx context.Context) ([]models.Timeslot, error) {
	return []models.Timeslot{{ID: "ts1", SequenceNumber: 1}, {ID: "ts2", SequenceNumber: 2}}, nil
}

func TestDirectoryHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	dir := &directoryMock{listErr: errors.New("db down")}
	h := NewDirectoryHandler(dir)
	r := gin.New()
	r.GET("/timeslots", h.ListTimeslots)
	r.GET("/student-groups", h.ListStudentGroups)
	r.GET("/student-groups/:id", h.GetStudentGroup)
	r.GET("/subjects/:id", h.GetSubject)
	r.GET("/teachers", h.ListTeachers)

	w := doJSON(r, http.MethodGet, "/timeslots", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"sequenceNumber":2`)

	w = doJSON(r, http.MethodGet, "/student-groups", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"data":[]}`, w.Body.String())

	w = doJSON(r, http.MethodGet, "/student-groups/g1", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(r, http.MethodGet, "/subjects/s404", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(r, http.MethodGet, "/teachers", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

type availabilityMock struct {
	query dto.AvailabilityQuery
}

func (m *availabilityMock) Timeslots(ctx context.Context, query dto.AvailabilityQuery) ([]models.Timeslot, error) {
	m.query = query
	return []models.Timeslot{{ID: "ts2"}}, nil
}

func (m *availabilityMock) Teachers(ctx context.Context, query dto.AvailabilityQuery) ([]models.Teacher, error) {
	m.query = query
	if query.TimeslotID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "timeslotId is required")
	}
	return []models.Teacher{{ID: "t2"}}, nil
}

func (m *availabilityMock) Classrooms(ctx context.Context, query dto.AvailabilityQuery) ([]models.Classroom, error) {
	m.query = query
	return []models.Classroom{}, nil
}

func TestAvailabilityHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := &availabilityMock{}
	h := NewAvailabilityHandler(m)
	r := gin.New()
	r.GET("/available-timeslots", h.Timeslots)
	r.GET("/available-teachers", h.Teachers)
	r.GET("/available-classrooms", h.Classrooms)

	w := doJSON(r, http.MethodGet, "/available-timeslots?date=2024-03-04&teacherId=t1&studentGroupId=g1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, dto.AvailabilityQuery{Date: "2024-03-04", TeacherID: "t1", StudentGroupID: "g1"}, m.query)

	w = doJSON(r, http.MethodGet, "/available-teachers?date=2024-03-04", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(r, http.MethodGet, "/available-classrooms?date=2024-03-04&timeslotId=ts1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"data":[]}`, w.Body.String())
}

type pingMock struct{ err error }

func (p pingMock) Ping(ctx context.Context) error { return p.err }

func TestMetricsHandlerReadyAndSummary(t *testing.T) {
	gin.SetMode(gin.TestMode)
	metrics := service.NewMetricsService()
	metrics.RecordLessonsScheduled(2)

	healthy := NewMetricsHandler(metrics, map[string]Pinger{"postgres": pingMock{}, "redis": PingFunc(func(ctx context.Context) error { return nil })})
	r := gin.New()
	r.GET("/ready", healthy.Ready)
	r.GET("/summary", healthy.Summary)
	w := doJSON(r, http.MethodGet, "/ready", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ready","checks":{"postgres":"ok","redis":"ok"}}`, w.Body.String())

	w = doJSON(r, http.MethodGet, "/summary", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `2`, mustField(t, w, "data", "lessonsScheduled"))

	degraded := NewMetricsHandler(metrics, map[string]Pinger{"postgres": pingMock{err: errors.New("connection refused")}})
	r = gin.New()
	r.GET("/ready", degraded.Ready)
	w = doJSON(r, http.MethodGet, "/ready", nil)
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.JSONEq(t, `{"status":"unavailable","checks":{"postgres":"connection refused"}}`, w.Body.String())
}
