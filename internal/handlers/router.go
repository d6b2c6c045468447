package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mohammedtarek206/elamid/internal/services"
	"github.com/mohammedtarek206/elamid/internal/utils"
)

type HandlerManager struct {
	serviceManager   services.ServiceManager
	authHandler      *AuthHandler
	studentHandler   *StudentHandler
	adminHandler     *AdminHandler
	examHandler      *ExamHandler
	dashboardHandler *DashboardHandler
	authMiddleware   *AuthMiddleware
}

func NewHandlerManager(serviceManager services.ServiceManager, cookieSecure bool, logger utils.Logger) *HandlerManager {
	return &HandlerManager{
		serviceManager:   serviceManager,
		authHandler:      NewAuthHandler(serviceManager.Auth(), cookieSecure, logger),
		studentHandler:   NewStudentHandler(serviceManager.Portal(), serviceManager.Grading(), logger),
		adminHandler:     NewAdminHandler(serviceManager.Student(), serviceManager.Content(), logger),
		examHandler:      NewExamHandler(serviceManager.Exam(), logger),
		dashboardHandler: NewDashboardHandler(serviceManager.Result(), serviceManager.Dashboard(), logger),
		authMiddleware:   NewAuthMiddleware(serviceManager.Auth(), logger),
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	api := router.Group("/api")

	authRoutes := api.Group("/auth")
	{
		authRoutes.POST("/login/student", hm.authHandler.LoginStudent)
		authRoutes.POST("/login/admin", hm.authHandler.LoginAdmin)
		authRoutes.POST("/logout", hm.authMiddleware.Authenticate(), hm.authHandler.Logout)
		authRoutes.GET("/me", hm.authMiddleware.Authenticate(), hm.authHandler.Me)
	}

	// Student routes - students only, scoped to their grade
	student := api.Group("/student")
	student.Use(hm.authMiddleware.Authenticate(), hm.authMiddleware.RequireStudent())
	{
		student.GET("/videos", hm.studentHandler.ListVideos)
		student.GET("/exams", hm.studentHandler.ListExams)
		student.GET("/exams/:id", hm.studentHandler.GetExam)
		student.POST("/exams/:id/submit", hm.studentHandler.SubmitExam)
		student.GET("/results", hm.studentHandler.ListResults)
	}

	// Admin routes - admins only
	admin := api.Group("/admin")
	admin.Use(hm.authMiddleware.Authenticate(), hm.authMiddleware.RequireAdmin())
	{
		students := admin.Group("/students")
		{
			students.POST("", hm.adminHandler.CreateStudent)
			students.GET("", hm.adminHandler.ListStudents)
			students.GET("/:id", hm.adminHandler.GetStudent)
			students.PUT("/:id", hm.adminHandler.UpdateStudent)
			students.DELETE("/:id", hm.adminHandler.DeleteStudent)
			students.PATCH("/:id/toggle-status", hm.adminHandler.ToggleStudentStatus)
		}

		videos := admin.Group("/videos")
		{
			videos.POST("", hm.adminHandler.CreateVideo)
			videos.GET("", hm.adminHandler.ListVideos)
			videos.GET("/:id", hm.adminHandler.GetVideo)
			videos.PUT("/:id", hm.adminHandler.UpdateVideo)
			videos.DELETE("/:id", hm.adminHandler.DeleteVideo)
		}

		freeVideos := admin.Group("/free-videos")
		{
			freeVideos.POST("", hm.adminHandler.CreateFreeVideo)
			freeVideos.GET("", hm.adminHandler.ListFreeVideos)
			freeVideos.GET("/:id", hm.adminHandler.GetFreeVideo)
			freeVideos.PUT("/:id", hm.adminHandler.UpdateFreeVideo)
			freeVideos.DELETE("/:id", hm.adminHandler.DeleteFreeVideo)
		}

		exams := admin.Group("/exams")
		{
			exams.POST("", hm.examHandler.CreateExam)
			exams.GET("", hm.examHandler.ListExams)
			exams.GET("/:id", hm.examHandler.GetExam)
			exams.PUT("/:id", hm.examHandler.UpdateExam)
			exams.DELETE("/:id", hm.examHandler.DeleteExam)
			exams.POST("/:id/questions", hm.examHandler.AddQuestion)
			exams.GET("/:id/questions", hm.examHandler.ListQuestions)
		}

		questions := admin.Group("/questions")
		{
			questions.GET("/:id", hm.examHandler.GetQuestion)
			questions.PUT("/:id", hm.examHandler.UpdateQuestion)
			questions.DELETE("/:id", hm.examHandler.DeleteQuestion)
		}

		results := admin.Group("/results")
		{
			results.GET("", hm.dashboardHandler.ListResults)
			results.GET("/export", hm.dashboardHandler.ExportResults)
			results.GET("/:id", hm.dashboardHandler.GetResult)
			results.DELETE("/:id", hm.dashboardHandler.DeleteResult)
		}

		admin.GET("/stats", hm.dashboardHandler.GetStats)
	}

	public := api.Group("/public")
	{
		public.GET("/free-videos", hm.studentHandler.ListFreeVideos)
	}

	router.GET("/health", hm.health)
}

func (hm *HandlerManager) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := hm.serviceManager.HealthCheck(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "unhealthy",
			"service": "elamid",
			"error":   err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "elamid",
	})
}
