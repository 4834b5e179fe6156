package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kosterror/time-flow-api/internal/models"
	"github.com/kosterror/time-flow-api/pkg/response"
)

type directoryReader interface {
	StudentGroup(ctx context.Context, id string) (*models.StudentGroup, error)
	Subject(ctx context.Context, id string) (*models.Subject, error)
	Teacher(ctx context.Context, id string) (*models.Teacher, error)
	Classroom(ctx context.Context, id string) (*models.Classroom, error)
	Timeslot(ctx context.Context, id string) (*models.Timeslot, error)
	StudentGroups(ctx context.Context) ([]models.StudentGroup, error)
	Subjects(ctx context.Context) ([]models.Subject, error)
	Teachers(ctx context.Context) ([]models.Teacher, error)
	Classrooms(ctx context.Context) ([]models.Classroom, error)
	Timeslots(ctx context.Context) ([]models.Timeslot, error)
}

// DirectoryHandler serves the read-only reference data lessons point at.
type DirectoryHandler struct {
	directory directoryReader
}

// NewDirectoryHandler constructs a DirectoryHandler.
func NewDirectoryHandler(directory directoryReader) *DirectoryHandler {
	return &DirectoryHandler{directory: directory}
}

// ListTimeslots godoc
// @Summary List timeslots in sequence order
// @Tags Directory
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /timeslots [get]
func (h *DirectoryHandler) ListTimeslots(c *gin.Context) {
	list(c, h.directory.Timeslots)
}

// GetTimeslot godoc
// @Summary Get timeslot
// @Tags Directory
// @Produce json
// @Param id path string true "Timeslot ID"
// @Success 200 {object} response.Envelope
// @Router /timeslots/{id} [get]
func (h *DirectoryHandler) GetTimeslot(c *gin.Context) {
	get(c, h.directory.Timeslot)
}

// ListClassrooms godoc
// @Summary List classrooms
// @Tags Directory
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /classrooms [get]
func (h *DirectoryHandler) ListClassrooms(c *gin.Context) {
	list(c, h.directory.Classrooms)
}

// GetClassroom godoc
// @Summary Get classroom
// @Tags Directory
// @Produce json
// @Param id path string true "Classroom ID"
// @Success 200 {object} response.Envelope
// @Router /classrooms/{id} [get]
func (h *DirectoryHandler) GetClassroom(c *gin.Context) {
	get(c, h.directory.Classroom)
}

// ListTeachers godoc
// @Summary List teachers
// @Tags Directory
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /teachers [get]
func (h *DirectoryHandler) ListTeachers(c *gin.Context) {
	list(c, h.directory.Teachers)
}

// GetTeacher godoc
// @Summary Get teacher
// @Tags Directory
// @Produce json
// @Param id path string true "Teacher ID"
// @Success 200 {object} response.Envelope
// @Router /teachers/{id} [get]
func (h *DirectoryHandler) GetTeacher(c *gin.Context) {
	get(c, h.directory.Teacher)
}

// ListStudentGroups godoc
// @Summary List student groups
// @Tags Directory
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /student-groups [get]
func (h *DirectoryHandler) ListStudentGroups(c *gin.Context) {
	list(c, h.directory.StudentGroups)
}

// GetStudentGroup godoc
// @Summary Get student group
// @Tags Directory
// @Produce json
// @Param id path string true "Student group ID"
// @Success 200 {object} response.Envelope
// @Router /student-groups/{id} [get]
func (h *DirectoryHandler) GetStudentGroup(c *gin.Context) {
	get(c, h.directory.StudentGroup)
}

// ListSubjects godoc
// @Summary List subjects
// @Tags Directory
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /subjects [get]
func (h *DirectoryHandler) ListSubjects(c *gin.Context) {
	list(c, h.directory.Subjects)
}

// GetSubject godoc
// @Summary Get subject
// @Tags Directory
// @Produce json
// @Param id path string true "Subject ID"
// @Success 200 {object} response.Envelope
// @Router /subjects/{id} [get]
func (h *DirectoryHandler) GetSubject(c *gin.Context) {
	get(c, h.directory.Subject)
}

func list[T any](c *gin.Context, load func(context.Context) ([]T, error)) {
	items, err := load(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	if items == nil {
		items = []T{}
	}
	response.JSON(c, http.StatusOK, items)
}

func get[T any](c *gin.Context, load func(context.Context, string) (*T, error)) {
	item, err := load(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item)
}
