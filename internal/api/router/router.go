package router

import (
	"net/http"

	"github.com/cuongbtq/printq/internal/api/handler"
	"github.com/gin-gonic/gin"
)

// SetupRouter configures and returns the Gin router with all routes
func SetupRouter(deps *handler.Dependencies) *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(deps.Logger))
	r.Use(CORSMiddleware())

	r.GET("/health", func(c *gin.Context) {
		if deps.Health != nil {
			if err := deps.Health(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"status":  "unhealthy",
					"service": deps.Service,
					"error":   err.Error(),
				})
				return
			}
		}

		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": deps.Service,
		})
	})

	jobHandler := handler.NewJobHandler(deps)

	v1 := r.Group("/api/v1")
	{
		v1.GET("/printers", jobHandler.ListPrinters)

		q := v1.Group("/queue")
		{
			q.GET("", jobHandler.ListQueue)
			q.POST("", jobHandler.AddJob)
			q.GET("/:id", jobHandler.GetJob)
			q.POST("/:id/start", jobHandler.StartJob)
		}

		lib := v1.Group("/library")
		{
			lib.GET("", jobHandler.ListLibrary)
			lib.POST("/:id/clone", jobHandler.CloneLibraryJob)
		}
	}

	return r
}
