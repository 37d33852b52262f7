package handlers

import (
	"errors"
	"net/http"

	"taskboard/internal/domain"
	"taskboard/internal/events"
	"taskboard/internal/logger"
	"taskboard/internal/repository"
	"taskboard/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Handler struct {
	Tasks     *service.TaskService
	Users     *service.UserService
	Events    *events.Hub
	UploadDir string
}

func NewHandler(db *pgxpool.Pool, hub *events.Hub, uploadDir string) *Handler {
	taskRepo := repository.NewTaskRepository(db)
	userRepo := repository.NewUserRepository(db)
	return &Handler{
		Tasks:     service.NewTaskService(taskRepo, userRepo),
		Users:     service.NewUserService(userRepo),
		Events:    hub,
		UploadDir: uploadDir,
	}
}

// getPrincipal reads the authenticated caller set by the JWT middleware.
func getPrincipal(c *gin.Context) (domain.Principal, bool) {
	uidVal, ok := c.Get("user_id")
	if !ok {
		return domain.Principal{}, false
	}
	id, ok := uidVal.(int64)
	if !ok {
		return domain.Principal{}, false
	}
	roleVal, _ := c.Get("role")
	role, _ := roleVal.(string)
	return domain.Principal{ID: id, Role: role}, true
}

// fail maps core errors to transport status. The core never downgrades a
// Forbidden to a NotFound or vice versa, so the mapping is direct.
func fail(c *gin.Context, err error) {
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": ve.Error()})
	case errors.Is(err, domain.ErrDuplicateTitle):
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "Task already exists. Please create a new task with a different title.",
		})
	case errors.Is(err, domain.ErrEmailTaken), errors.Is(err, domain.ErrInvalidOTP):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
	case errors.Is(err, domain.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Invalid email or password"})
	case errors.Is(err, domain.ErrNoCompletedTasks):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "No completed tasks found"})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Not found"})
	case errors.Is(err, domain.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"success": false, "message": "You are not authorized"})
	default:
		logger.Error("request failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Internal server error"})
	}
}
