package app

import (
	"net/http"

	"mpi-linkage/internal/app/config"
	loggingmw "mpi-linkage/internal/infrastructure/logger"
	httpapi "mpi-linkage/internal/linkage/http"
	"mpi-linkage/internal/shared/middleware/security"

	"github.com/gin-gonic/gin"
)

// NewRouter builds the Gin engine serving the linkage core's HTTP surface:
// health checks plus POST /link and the /algorithms endpoints (§6, §4.8).
func NewRouter(cfg *config.Config, mw *loggingmw.LoggerMiddleware, cors security.CORSHandler, handler *httpapi.Handler) *gin.Engine {
	configureGinMode(cfg.Environment)

	r := gin.New()
	r.Use(mw.GinLogger())
	r.Use(mw.GinRecovery())
	r.Use(gin.HandlerFunc(cors))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})
	r.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	apiV1 := r.Group("/api/v1")
	{
		apiV1.POST("/link", handler.Link)
		apiV1.GET("/algorithms/:label", handler.GetAlgorithm)
		apiV1.POST("/algorithms", handler.CreateAlgorithm)
	}

	return r
}

// configureGinMode configure le mode Gin selon l'environnement
func configureGinMode(environment string) {
	switch environment {
	case "production", "staging":
		gin.SetMode(gin.ReleaseMode)
	default:
		gin.SetMode(gin.DebugMode)
	}
}
