package app

import (
	"interview_prep_backend/docs"
	"interview_prep_backend/internal/config"
	"interview_prep_backend/internal/middleware"
	"interview_prep_backend/internal/util"
	"interview_prep_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. 公共路由(无需登录)
	router.GET("/api/health", c.health.HealthCheck)

	// 2. 需要授权的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(&cfg.JWT))
	{
		a.registerUsageRoutes(authGroup, c)
		a.registerPracticeRoutes(authGroup, c)
		a.registerPromptRoutes(authGroup, c)
	}

	// 3. 管理员相关接口
	admin := router.Group("/api/admin")
	admin.Use(middleware.AuthMiddleware(&cfg.JWT), middleware.RoleMiddleware(util.RoleAdmin))
	{
		admin.PUT("/subscriptions/:userId", c.subscription.GrantSubscription)
	}
}

func (a *App) registerUsageRoutes(group *gin.RouterGroup, c *controllers) {
	usage := group.Group("/usage")
	{
		usage.GET("", c.usage.GetUsage)
		usage.GET("/history", c.usage.GetHistory)
		usage.POST("/track", c.usage.TrackUsage)
	}

	subscription := group.Group("/subscription")
	{
		subscription.GET("", c.subscription.GetSubscription)
		subscription.POST("/trial", c.subscription.StartTrial)
	}
}

func (a *App) registerPracticeRoutes(group *gin.RouterGroup, c *controllers) {
	group.GET("/difficulty", c.difficulty.GetDifficulty)
	group.POST("/difficulty/calculate", c.difficulty.Calculate)
	group.POST("/confidence/score", c.difficulty.ScoreConfidence)

	sessions := group.Group("/sessions")
	{
		sessions.POST("", c.session.CreateSession)
		sessions.GET("", c.session.ListSessions)
		sessions.GET("/:id", c.session.GetSession)
		sessions.POST("/:id/results", c.session.RecordResult)
		sessions.POST("/:id/complete", c.session.CompleteSession)
		sessions.POST("/:id/export", c.session.ExportSession)
	}
}

func (a *App) registerPromptRoutes(group *gin.RouterGroup, c *controllers) {
	prompts := group.Group("/prompts")
	{
		prompts.POST("/question", c.prompt.GenerateQuestion)
		prompts.POST("/feedback", c.prompt.GenerateFeedback)
	}
}
