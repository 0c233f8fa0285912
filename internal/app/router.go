package app

import (
	"mentorhub_backend/internal/config"
	"mentorhub_backend/internal/middleware"
	"mentorhub_backend/internal/model"
	"mentorhub_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, repos *repositories, cfg *config.Config) {
	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. 公共路由(无需登录)
	router.GET("/api/health", c.health.HealthCheck)

	// 2. 需要授权的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg))
	if cfg.Activity.Enabled {
		authGroup.Use(middleware.ActivityMiddleware(repos.user, cfg.Activity.MinInterval))
	}
	{
		// 学员提交
		a.registerLearnerRoutes(authGroup, c)

		// 导师审核
		a.registerMentorRoutes(authGroup, c)

		// 管理员
		a.registerAdminRoutes(authGroup, c)
	}
}

func (a *App) registerLearnerRoutes(rg *gin.RouterGroup, c *controllers) {
	submissions := rg.Group("/submissions")
	{
		submissions.POST("", middleware.RoleMiddleware(model.Learner), c.submission.CreateSubmission)
		submissions.GET("/:id", c.submission.GetSubmission)
	}
}

func (a *App) registerMentorRoutes(rg *gin.RouterGroup, c *controllers) {
	mentor := rg.Group("/mentor")
	mentor.Use(middleware.RoleMiddleware(model.Mentor))
	{
		mentor.GET("/submissions", c.submission.ListSubmissions)
		mentor.PUT("/submissions/:id/review", c.submission.ReviewSubmission)
	}
}

func (a *App) registerAdminRoutes(rg *gin.RouterGroup, c *controllers) {
	admin := rg.Group("/admin")
	admin.Use(middleware.RoleMiddleware(model.Admin))
	{
		admin.GET("/submissions", c.submission.ListSubmissions)
		admin.GET("/submissions/analytics", c.analytics.GetSubmissionAnalytics)
		admin.PUT("/submissions/bulk-review", c.submission.BulkReviewSubmissions)
		admin.PUT("/submissions/:id/assign-mentor", c.submission.AssignMentor)
		admin.DELETE("/submissions/:id", c.submission.DeleteSubmission)
		admin.GET("/submissions/:id/reviews", c.submission.ReviewHistory)

		admin.GET("/mentors/workload", c.analytics.GetMentorWorkloads)
	}
}
