package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"link-tracker/internal/middleware"
	"link-tracker/internal/service"
)

func NewRouter(
	projectService service.ProjectService,
	linkService service.LinkService,
	analyticsService service.AnalyticsService,
	resolver service.LinkResolver,
	clickProcessor service.ClickProcessor,
	rateLimiter *middleware.RateLimiter,
	apiKeyMiddleware gin.HandlerFunc,
	logger *zap.Logger,
) *gin.Engine {
	router := gin.Default()

	// Middleware для логгирования
	router.Use(func(c *gin.Context) {
		logger.Info("Request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("ip", c.ClientIP()),
		)
		c.Next()
	})

	// Rate limiting для всех запросов
	router.Use(rateLimiter.Middleware())

	// Инициализация обработчиков
	projectHandler := NewProjectHandler(projectService, logger)
	linkHandler := NewLinkHandler(linkService, analyticsService, logger)
	trackHandler := NewTrackHandler(resolver, clickProcessor, logger)

	// API v.1
	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", HealthCheck)

		// Применяем API Key middleware только к защищённым эндпоинтам
		if apiKeyMiddleware != nil {
			v1.Use(apiKeyMiddleware)
		}

		v1.POST("/projects", projectHandler.CreateProject)
		v1.GET("/projects", projectHandler.ListProjects)
		v1.GET("/projects/:id", projectHandler.GetProject)
		v1.DELETE("/projects/:id", projectHandler.DeleteProject)
		v1.POST("/projects/:id/links", linkHandler.CreateLink)
		v1.GET("/projects/:id/links", linkHandler.ListLinks)

		v1.GET("/links/:id", linkHandler.GetLink)
		v1.PATCH("/links/:id/active", linkHandler.SetLinkActive)
		v1.DELETE("/links/:id", linkHandler.DeleteLink)
		v1.GET("/links/:id/analytics", linkHandler.GetAnalytics)
		v1.GET("/links/:id/analytics/creators/:creator", linkHandler.GetCreatorAnalytics)
	}

	// Трекинговые редиректы (корневые пути) - без API key проверки.
	// Глобальный режим /l/{shortCode}/... проходит этими же роутами:
	// сегмент "l" занимает слот projectSlug
	router.GET("/:projectSlug/:shortCode", trackHandler.Track)
	router.GET("/:projectSlug/:shortCode/:creator", trackHandler.Track)
	router.GET("/:projectSlug/:shortCode/:creator/:submission", trackHandler.Track)

	return router
}

// HealthCheck godoc
// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /api/v1/health [get]
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
