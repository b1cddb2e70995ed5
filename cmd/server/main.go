package main

import (
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/taskboard-dev/taskboard/internal/auth"
	"github.com/taskboard-dev/taskboard/internal/config"
	"github.com/taskboard-dev/taskboard/internal/database"
	"github.com/taskboard-dev/taskboard/internal/handlers"
	"github.com/taskboard-dev/taskboard/internal/middleware"
	"github.com/taskboard-dev/taskboard/internal/repository"
	"github.com/taskboard-dev/taskboard/internal/services"
)

func main() {
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("no .env file found, using environment")
	}

	cfg := config.Load()

	gin.SetMode(cfg.GinMode)

	if err := auth.Init(cfg.JWTSecret, time.Duration(cfg.TokenTTL)*time.Hour); err != nil {
		log.Fatal().Err(err).Msg("failed to initialize token signing")
	}

	if err := database.Connect(cfg); err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}

	if err := database.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	db := database.GetDB()
	userRepo := repository.NewUserRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	taskRepo := repository.NewTaskRepository(db)

	authService := services.NewAuthService(userRepo)
	projectService := services.NewProjectService(projectRepo, userRepo)
	taskService := services.NewTaskService(taskRepo, projectRepo)
	userService := services.NewUserService(userRepo, projectRepo, taskRepo)

	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(userService)
	projectHandler := handlers.NewProjectHandler(projectService, taskService)
	taskHandler := handlers.NewTaskHandler(taskService)

	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", handlers.HealthCheck)

	// Public routes
	r.POST("/signup", authHandler.Signup)
	r.POST("/login", authHandler.Login)

	// User routes (protected)
	users := r.Group("/users", middleware.RequireAuth())
	{
		users.GET("/me", authHandler.GetCurrentUser)
		users.GET("/search", userHandler.SearchByEmail)
		users.GET("/:userId", userHandler.GetUser)
		users.GET("/:userId/projects", userHandler.GetUserProjects)
		users.GET("/:userId/tasks", userHandler.GetUserTasks)
	}

	// Project routes (protected)
	projects := r.Group("/projects", middleware.RequireAuth())
	{
		projects.POST("", projectHandler.CreateProject)
		projects.GET("/:id", middleware.RequireProjectAccess(), projectHandler.GetProject)
		projects.PUT("/:id/update", middleware.RequireProjectAccess(), middleware.RequireProjectManager(), projectHandler.UpdateProject)
		projects.GET("/:id/members", middleware.RequireProjectAccess(), projectHandler.ListMembers)
		projects.POST("/:id/members", middleware.RequireProjectAccess(), middleware.RequireProjectManager(), projectHandler.AddMember)
		projects.DELETE("/:id/members/:userId", middleware.RequireProjectAccess(), middleware.RequireProjectManager(), projectHandler.RemoveMember)
		projects.GET("/:id/tasks", middleware.RequireProjectAccess(), projectHandler.ListTasks)
	}

	// Task routes (protected)
	tasks := r.Group("/tasks", middleware.RequireAuth())
	{
		tasks.POST("", taskHandler.CreateTask)
		tasks.PUT("/:id/update", taskHandler.UpdateTask)
		tasks.DELETE("/:id/delete", taskHandler.DeleteTask)
	}

	log.Info().Str("port", cfg.Port).Msg("server starting")
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("failed to start server")
	}
}
