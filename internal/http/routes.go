package http

import (
	"taskboard/internal/config"
	"taskboard/internal/events"
	"taskboard/internal/http/handlers"
	"taskboard/internal/http/middleware"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

func RegisterRoutes(r *gin.Engine, db *pgxpool.Pool, cfg *config.Config) {
	hub := events.NewHub()
	h := handlers.NewHandler(db, hub, cfg.UploadDir)
	healthHandler := handlers.NewHealthHandler(db)

	r.Use(middleware.Requests())

	// Health checks (no rate limiting)
	r.GET("/health", healthHandler.Health)
	r.GET("/healthz", healthHandler.Liveness)
	r.GET("/readyz", healthHandler.Readiness)

	// Uploaded profile images
	r.Static("/uploads", cfg.UploadDir)

	// Task event feed
	r.GET("/ws", middleware.JWT(), h.WS)

	api := r.Group("/api")
	api.Use(middleware.RedisRateLimit(cfg.APIRateLimit, cfg.APIRateWindow))

	authRL := middleware.RedisRateLimit(cfg.AuthRateLimit, cfg.AuthRateWindow)
	// per-principal cap on task mutations
	taskRL := middleware.PrincipalRateLimit(cfg.TaskRateLimit, cfg.TaskRateWindow)

	users := api.Group("/users")
	{
		users.GET("", middleware.JWT(), middleware.AdminOnly(), h.ListUsers)
		users.GET("/me", middleware.JWT(), h.Me)
		users.POST("/create-user", authRL, h.Register)
		users.POST("/login", authRL, h.Login)
		users.POST("/logout", h.Logout)
		users.POST("/upload", middleware.JWT(), h.UploadImage)
		users.POST("/reset-password", authRL, h.SendOTP)
		users.POST("/reset-password/confirm", authRL, h.ResetPassword)
		users.PUT("/updatePassword", middleware.JWT(), h.UpdatePassword)
		users.PUT("/:id", middleware.JWT(), h.UpdateUser)
		users.DELETE("/:id", middleware.JWT(), middleware.AdminOnly(), h.DeleteUser)
	}

	tasks := api.Group("/tasks")
	{
		tasks.GET("", middleware.JWT(), middleware.AdminOnly(), h.ListTasks)
		tasks.GET("/me", middleware.JWT(), h.MyTasks)
		tasks.GET("/me/completed-tasks", middleware.JWT(), h.CompletedTasks)
		tasks.GET("/:id", middleware.JWT(), h.GetTask)
		tasks.POST("/create-task", middleware.JWT(), taskRL, h.CreateTask)
		tasks.PUT("/isCompleted/:id", middleware.JWT(), taskRL, h.ToggleCompleted)
		tasks.PUT("/:id", middleware.JWT(), taskRL, h.UpdateTask)
		tasks.DELETE("/:id", middleware.JWT(), taskRL, h.DeleteTask)
	}
}
