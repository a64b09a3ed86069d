package handler

import (
	"net/http"

	"safepath-server/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler wires the HTTP surface to the service layer.
type Handler struct {
	authService    service.AuthService
	storyService   service.StoryService
	studentService service.StudentService
	logger         *zap.Logger
}

func NewHandler(
	authService service.AuthService,
	storyService service.StoryService,
	studentService service.StudentService,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		authService:    authService,
		storyService:   storyService,
		studentService: studentService,
		logger:         logger.Named("Handler"),
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.GET("/health", h.health)

	api := router.Group("/api")
	{
		authGroup := api.Group("/auth/ngo")
		{
			authGroup.POST("/signup", h.signup)
			authGroup.POST("/login", h.login)
		}

		api.POST("/students", h.createStudentProfile)

		stories := api.Group("/stories")
		{
			stories.GET("", h.OptionalAuthMiddleware(), h.listStories)
			stories.GET("/search", h.AuthMiddleware(), h.searchStories)
			stories.GET("/:story_id", h.getStory)
			stories.GET("/:story_id/slides", h.getStorySlides)
			stories.POST("", h.AuthMiddleware(), h.createStory)
			stories.PATCH("/:story_id/publish", h.AuthMiddleware(), h.publishStory)
		}

		api.GET("/dashboard/stats", h.AuthMiddleware(), h.dashboardStats)
	}
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
