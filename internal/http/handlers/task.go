package handlers

import (
	"net/http"

	"taskboard/internal/events"
	"taskboard/internal/service"

	"github.com/gin-gonic/gin"
)

// ListTasks returns every task regardless of owner. Admin only.
func (h *Handler) ListTasks(c *gin.Context) {
	p, ok := getPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "User not authenticated"})
		return
	}

	tasks, err := h.Tasks.ListAll(c.Request.Context(), p)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Tasks retrieved successfully",
		"tasks":   tasks,
	})
}

// MyTasks returns the tasks registered on the caller's own record.
func (h *Handler) MyTasks(c *gin.Context) {
	p, ok := getPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "User not authenticated"})
		return
	}

	tasks, err := h.Tasks.ListMine(c.Request.Context(), p)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "tasks": tasks})
}

// CompletedTasks returns the caller's completed tasks; an empty result is a
// 404, not an empty list.
func (h *Handler) CompletedTasks(c *gin.Context) {
	p, ok := getPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "User not authenticated"})
		return
	}

	tasks, err := h.Tasks.ListCompleted(c.Request.Context(), p)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Completed tasks retrieved successfully",
		"tasks":   tasks,
	})
}

func (h *Handler) GetTask(c *gin.Context) {
	p, ok := getPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "User not authenticated"})
		return
	}

	task, err := h.Tasks.GetOne(c.Request.Context(), p, c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Task retrieved successfully",
		"task":    task,
	})
}

func (h *Handler) CreateTask(c *gin.Context) {
	p, ok := getPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "User not authenticated"})
		return
	}

	var draft service.TaskDraft
	if err := c.ShouldBindJSON(&draft); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "bad request"})
		return
	}

	task, err := h.Tasks.Create(c.Request.Context(), p, draft)
	if err != nil {
		fail(c, err)
		return
	}

	h.Events.Publish(p.ID, events.Event{Type: events.TaskCreated, Task: task})

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Task added successfully",
		"task":    task,
	})
}

func (h *Handler) UpdateTask(c *gin.Context) {
	p, ok := getPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "User not authenticated"})
		return
	}

	var patch service.TaskPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "bad request"})
		return
	}

	task, err := h.Tasks.Update(c.Request.Context(), p, c.Param("id"), patch)
	if err != nil {
		fail(c, err)
		return
	}

	h.Events.Publish(p.ID, events.Event{Type: events.TaskUpdated, Task: task})

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Task updated successfully",
		"task":    task,
	})
}

func (h *Handler) DeleteTask(c *gin.Context) {
	p, ok := getPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "User not authenticated"})
		return
	}

	taskID := c.Param("id")
	if err := h.Tasks.Delete(c.Request.Context(), p, taskID); err != nil {
		fail(c, err)
		return
	}

	h.Events.Publish(p.ID, events.Event{Type: events.TaskDeleted, TaskID: taskID})

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Task deleted successfully",
	})
}

// ToggleCompleted flips the completion flag. Status always lands on
// completed afterwards, whichever way the flag flipped.
func (h *Handler) ToggleCompleted(c *gin.Context) {
	p, ok := getPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "User not authenticated"})
		return
	}

	task, err := h.Tasks.ToggleCompleted(c.Request.Context(), p, c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}

	h.Events.Publish(p.ID, events.Event{Type: events.TaskCompleted, Task: task})

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Task marked as completed",
		"task":    task,
	})
}
