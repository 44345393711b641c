package main

import (
	"context"
	"fmt"
	"os"

	"github.com/scalpelprep/scalpelprep-backend/internal/db"
	"github.com/scalpelprep/scalpelprep-backend/internal/handlers"
	"github.com/scalpelprep/scalpelprep-backend/internal/logger"
	"github.com/scalpelprep/scalpelprep-backend/internal/middleware"
	"github.com/scalpelprep/scalpelprep-backend/internal/notify"
	"github.com/scalpelprep/scalpelprep-backend/internal/observability"
	"github.com/scalpelprep/scalpelprep-backend/internal/repos"
	"github.com/scalpelprep/scalpelprep-backend/internal/server"
	"github.com/scalpelprep/scalpelprep-backend/internal/services"
	"github.com/scalpelprep/scalpelprep-backend/internal/utils"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Env
	log.Info("Loading environment variables from main...")
	jwtSecretKey := utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log)
	serviceEnv := utils.GetEnv("SERVICE_ENV", "development", log)
	serviceVersion := utils.GetEnv("SERVICE_VERSION", "dev", log)

	// Tracing
	otelShutdown := observability.InitOTel(context.Background(), log, observability.OtelConfig{
		ServiceName: "scalpelprep-backend",
		Environment: serviceEnv,
		Version:     serviceVersion,
	})
	if otelShutdown != nil {
		defer func() { _ = otelShutdown(context.Background()) }()
	}

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	if err := postgresService.AutoMigrateAll(); err != nil {
		log.Error("Postgres auto migration failed", "error", err)
		os.Exit(1)
	}
	thePG := postgresService.DB()

	// Repos
	log.Info("Setting up Repos from main...")
	userRepo := repos.NewUserRepo(thePG, log)
	questionRepo := repos.NewQuestionRepo(thePG, log)
	responseRepo := repos.NewResponseRepo(thePG, log)
	reviewStateRepo := repos.NewReviewStateRepo(thePG, log)

	// Review event bus (optional)
	var reviewBus notify.ReviewBus
	if bus, err := notify.NewRedisReviewBus(log); err != nil {
		log.Warn("Review event bus disabled", "error", err)
	} else {
		reviewBus = bus
		defer func() { _ = bus.Close() }()
	}

	// Services
	log.Info("Setting up Services from main...")
	authService := services.NewAuthService(log, jwtSecretKey)
	reviewService := services.NewReviewService(thePG, log, userRepo, questionRepo, responseRepo, reviewStateRepo, reviewBus)
	responseService := services.NewResponseService(thePG, log, userRepo, questionRepo, responseRepo)
	questionService := services.NewQuestionService(thePG, log, questionRepo)

	// Handlers
	log.Info("Setting up handlers from main...")
	reviewHandler := handlers.NewReviewHandler(log, reviewService)
	responseHandler := handlers.NewResponseHandler(log, responseService)
	questionHandler := handlers.NewQuestionHandler(log, questionService)

	// Middleware
	log.Info("Setting up middleware from main...")
	authMiddleware := middleware.NewAuthMiddleware(log, authService)

	// Router
	log.Info("Setting up router from main...")
	router := server.NewRouter(server.RouterConfig{
		ServiceName:     "scalpelprep-backend",
		AuthMiddleware:  authMiddleware,
		ReviewHandler:   reviewHandler,
		ResponseHandler: responseHandler,
		QuestionHandler: questionHandler,
	})

	port := utils.GetEnv("PORT", "8080", log)
	log.Info("Server listening", "port", port)
	if err := router.Run(":" + port); err != nil {
		log.Error("Server failed", "error", err)
	}
}
