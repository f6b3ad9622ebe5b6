package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/dimerbwimba/independent-journalism-platform-sub000/config"
	"github.com/dimerbwimba/independent-journalism-platform-sub000/controllers"
	"github.com/dimerbwimba/independent-journalism-platform-sub000/engagement"
	"github.com/dimerbwimba/independent-journalism-platform-sub000/middleware"
	"github.com/dimerbwimba/independent-journalism-platform-sub000/utils"
)

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(engine *engagement.Engine) *gin.Engine {
	cfg := config.Get()
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(utils.AccessLog())
	r.Use(utils.Recovery())

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})

	commentController := controllers.NewCommentController(engine)

	api := r.Group("/api/v1")

	// Reads are public; the optional identity only adds the viewer's own
	// vote to the aggregates.
	api.GET("/posts/:id/comments", middleware.OptionalAuth(), commentController.ListComments)

	protected := api.Group("")
	protected.Use(middleware.AuthRequired(), middleware.RateLimitMiddleware())
	protected.POST("/posts/:id/comments", commentController.CreateComment)
	protected.DELETE("/comments/:commentId", commentController.DeleteComment)
	protected.POST("/comments/:commentId/vote", commentController.ToggleVote)

	r.NoRoute(func(ctx *gin.Context) {
		utils.Error(ctx, http.StatusNotFound, 40400, "api route not found")
	})

	return r
}
