package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/scalpelprep/scalpelprep-backend/internal/handlers"
	"github.com/scalpelprep/scalpelprep-backend/internal/middleware"
)

type RouterConfig struct {
	ServiceName     string
	AuthMiddleware  *middleware.AuthMiddleware
	ReviewHandler   *handlers.ReviewHandler
	ResponseHandler *handlers.ResponseHandler
	QuestionHandler *handlers.QuestionHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "scalpelprep-backend"
	}
	router.Use(otelgin.Middleware(serviceName))

	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{
			"http://localhost:80",
			"http://localhost:3000",
			"http://localhost:5173",
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	// Public
	router.GET("/healthcheck", handlers.HealthCheck)

	// Protected
	api := router.Group("/api")
	api.Use(cfg.AuthMiddleware.RequireAuth())
	// Reviews
	api.GET("/reviews/due", cfg.ReviewHandler.GetDuePool)
	api.POST("/reviews/:questionID/grade", cfg.ReviewHandler.GradeReview)
	// Responses
	api.POST("/responses", cfg.ResponseHandler.RecordResponse)
	// Question bank
	api.GET("/questions/:id", cfg.QuestionHandler.GetQuestion)
	api.GET("/sections/:id/questions", cfg.QuestionHandler.ListSectionQuestions)

	return router
}
