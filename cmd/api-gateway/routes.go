package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/kosterror/time-flow-api/api/swagger"
	"github.com/kosterror/time-flow-api/internal/handler"
	"github.com/kosterror/time-flow-api/internal/middleware"
	"github.com/kosterror/time-flow-api/internal/models"
	"github.com/kosterror/time-flow-api/internal/service"
	"github.com/kosterror/time-flow-api/pkg/config"
	"github.com/kosterror/time-flow-api/pkg/logger"
	corsmiddleware "github.com/kosterror/time-flow-api/pkg/middleware/cors"
	reqidmiddleware "github.com/kosterror/time-flow-api/pkg/middleware/requestid"
)

type routerDeps struct {
	tokens       middleware.TokenValidator
	metrics      *service.MetricsService
	lessons      *handler.LessonHandler
	timetables   *handler.TimetableHandler
	availability *handler.AvailabilityHandler
	directory    *handler.DirectoryHandler
	system       *handler.MetricsHandler
}

func newRouter(cfg *config.Config, logr *zap.Logger, deps routerDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(deps.metrics, "/metrics"))

	r.GET("/health", deps.system.Health)
	r.GET("/ready", deps.system.Ready)
	r.GET("/metrics", deps.system.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	auth := middleware.JWT(deps.tokens)
	planners := middleware.RequireRoles(models.RoleAdmin, models.RoleScheduleMaker)

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.WithResponseMeta())

	lessons := api.Group("/lessons")
	lessons.GET("/:id", deps.lessons.Get)
	lessons.GET("/group/:id", deps.timetables.ByStudentGroup)
	lessons.GET("/teacher/:id", deps.timetables.ByTeacher)
	lessons.GET("/classroom/:id", deps.timetables.ByClassroom)
	lessons.GET("/group/:id/export", deps.timetables.Export(models.LessonOwnerStudentGroup))
	lessons.GET("/teacher/:id/export", deps.timetables.Export(models.LessonOwnerTeacher))
	lessons.GET("/classroom/:id/export", deps.timetables.Export(models.LessonOwnerClassroom))

	writes := lessons.Group("", auth, planners)
	writes.POST("", middleware.Audit(logr, models.AuditActionLessonCreate, models.AuditResourceLesson), deps.lessons.Create)
	writes.POST("/for-a-few-weeks", middleware.Audit(logr, models.AuditActionLessonRecurring, models.AuditResourceLesson), deps.lessons.CreateRecurring)
	writes.PUT("/:id", middleware.Audit(logr, models.AuditActionLessonUpdate, models.AuditResourceLesson), deps.lessons.Update)
	writes.DELETE("/:id", middleware.Audit(logr, models.AuditActionLessonDelete, models.AuditResourceLesson), deps.lessons.Delete)
	writes.DELETE("", middleware.Audit(logr, models.AuditActionLessonDeleteRange, models.AuditResourceLesson), deps.lessons.DeleteRange)

	available := api.Group("", auth, planners)
	available.GET("/available-timeslots", deps.availability.Timeslots)
	available.GET("/available-teachers", deps.availability.Teachers)
	available.GET("/available-classrooms", deps.availability.Classrooms)

	api.GET("/timeslots", deps.directory.ListTimeslots)
	api.GET("/timeslots/:id", deps.directory.GetTimeslot)
	api.GET("/classrooms", deps.directory.ListClassrooms)
	api.GET("/classrooms/:id", deps.directory.GetClassroom)
	api.GET("/teachers", deps.directory.ListTeachers)
	api.GET("/teachers/:id", deps.directory.GetTeacher)
	api.GET("/student-groups", deps.directory.ListStudentGroups)
	api.GET("/student-groups/:id", deps.directory.GetStudentGroup)
	api.GET("/subjects", deps.directory.ListSubjects)
	api.GET("/subjects/:id", deps.directory.GetSubject)

	api.GET("/metrics/summary", auth, middleware.RequireRoles(models.RoleAdmin), deps.system.Summary)

	return r
}
