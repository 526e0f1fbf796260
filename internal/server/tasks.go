package server

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"taskdo/internal/ai"
	"taskdo/internal/models"
)

type createTaskRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	DueAt       *time.Time `json:"due_at"`
}

type updateTaskRequest struct {
	Title       models.Field[string]    `json:"title"`
	Description models.Field[string]    `json:"description"`
	Completed   models.Field[bool]      `json:"completed"`
	DueAt       models.Field[time.Time] `json:"due_at"`
}

// handleListTasks fetches every task owned by the caller.
func (s *Server) handleListTasks(c *gin.Context) {
	user := s.currentUser(c)

	tasks, err := s.store.ListTasks(c.Request.Context(), user.ID)
	if err != nil {
		s.respondError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, tasks)
}

// handleCreateTask inserts a new task for the caller.
func (s *Server) handleCreateTask(c *gin.Context) {
	user := s.currentUser(c)

	var req createTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		s.respondError(c, http.StatusBadRequest, fmt.Errorf("Title is required"))
		return
	}

	task, err := s.store.CreateTask(c.Request.Context(), user.ID, req.Title, req.Description, req.DueAt)
	if err != nil {
		s.respondError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// handleCreateTaskAI runs the free text through the extraction service and
// creates the task from the resolved fields. The task is only inserted after
// extraction succeeds, so a persistence failure leaves nothing behind.
func (s *Server) handleCreateTaskAI(c *gin.Context) {
	user := s.currentUser(c)

	var req createTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		s.respondError(c, http.StatusBadRequest, fmt.Errorf("Title is required"))
		return
	}

	extraction, err := s.extractor.Extract(c.Request.Context(), req.Title)
	if err != nil {
		s.respondError(c, http.StatusInternalServerError, err)
		return
	}

	title, description, dueAt := ai.Resolve(req.Title, extraction)
	task, err := s.store.CreateTask(c.Request.Context(), user.ID, title, description, dueAt)
	if err != nil {
		s.respondError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// handleUpdateTask applies a partial update to one of the caller's tasks.
func (s *Server) handleUpdateTask(c *gin.Context) {
	user := s.currentUser(c)

	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req updateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}

	patch := models.TaskPatch{
		Title:       req.Title,
		Description: req.Description,
		Completed:   req.Completed,
		DueAt:       req.DueAt,
	}

	task, err := s.store.UpdateTask(c.Request.Context(), user.ID, id, patch)
	if err != nil {
		s.respondError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// handleDeleteTask removes one of the caller's tasks and echoes the deleted
// record.
func (s *Server) handleDeleteTask(c *gin.Context) {
	user := s.currentUser(c)

	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	task, err := s.store.DeleteTask(c.Request.Context(), user.ID, id)
	if err != nil {
		s.respondError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, task)
}
