package server

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"taskdo/internal/auth"
	"taskdo/internal/models"
)

// TaskStore is the persistence surface the handlers need. Every call is
// scoped by the owner id derived from the session.
type TaskStore interface {
	ListTasks(ctx context.Context, owner uuid.UUID) ([]models.Task, error)
	CreateTask(ctx context.Context, owner uuid.UUID, title, description string, dueAt *time.Time) (models.Task, error)
	UpdateTask(ctx context.Context, owner uuid.UUID, id int64, patch models.TaskPatch) (models.Task, error)
	DeleteTask(ctx context.Context, owner uuid.UUID, id int64) (models.Task, error)
}

// AuthService is the external magic-link auth backend.
type AuthService interface {
	SignInWithOTP(ctx context.Context, email string) error
	VerifyOTP(ctx context.Context, tokenHash, otpType string) (auth.Session, error)
	GetUser(ctx context.Context, accessToken string) (models.User, error)
	SignOut(ctx context.Context, accessToken string) error
}

// Extractor is the external AI task extraction backend.
type Extractor interface {
	Extract(ctx context.Context, text string) (models.Extraction, error)
}

const (
	sessionCookie = "taskdo_session"
	ctxUserKey    = "taskdo.user"
)

// Server provides the HTTP handlers for the task backend.
type Server struct {
	engine    *gin.Engine
	store     TaskStore
	auth      AuthService
	extractor Extractor
	logger    *slog.Logger
	staticDir string
	baseURL   string
}

// Options carries the server collaborators and settings.
type Options struct {
	Store     TaskStore
	Auth      AuthService
	Extractor Extractor
	Logger    *slog.Logger
	StaticDir string
	BaseURL   string
}

// New constructs the HTTP server with routes and middleware configured.
func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(gin.LoggerWithWriter(gin.DefaultWriter, "/api"))
	router.HandleMethodNotAllowed = true
	router.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "Method not allowed"})
	})

	srv := &Server{
		engine:    router,
		store:     opts.Store,
		auth:      opts.Auth,
		extractor: opts.Extractor,
		logger:    logger,
		staticDir: opts.StaticDir,
		baseURL:   opts.BaseURL,
	}

	srv.registerRoutes()
	return srv
}

// Engine exposes the underlying Gin engine.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// registerRoutes wires all API and static handlers together.
func (s *Server) registerRoutes() {
	api := s.engine.Group("/api")
	{
		api.GET("/healthz", s.handleHealth)

		authGroup := api.Group("/auth")
		{
			authGroup.POST("/login", s.handleLogin)
			authGroup.GET("/confirm", s.handleConfirm)
		}

		tasks := api.Group("/task", s.requireUser)
		{
			tasks.GET("", s.handleListTasks)
			tasks.POST("", s.handleCreateTask)
			tasks.POST("/ai", s.handleCreateTaskAI)
			tasks.PUT("/:id", s.handleUpdateTask)
			tasks.DELETE("/:id", s.handleDeleteTask)
		}
	}

	s.engine.GET("/logout", s.handleLogout)

	s.mountStatic()
}

// handleHealth provides a basic readiness endpoint.
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// requireUser resolves the session cookie to a user identity. The owner of
// every task operation comes from here, never from client input.
func (s *Server) requireUser(c *gin.Context) {
	token, err := c.Cookie(sessionCookie)
	if err != nil || token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	user, err := s.auth.GetUser(c.Request.Context(), token)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	c.Set(ctxUserKey, user)
}

func (s *Server) currentUser(c *gin.Context) models.User {
	user, _ := c.MustGet(ctxUserKey).(models.User)
	return user
}

// parseID converts a path parameter to int64 with error handling.
func parseID(c *gin.Context, name string) (int64, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid identifier"})
		return 0, false
	}
	return id, true
}

// respondError logs the error and returns a JSON payload.
func (s *Server) respondError(c *gin.Context, status int, err error) {
	if err != nil {
		s.logger.Error("request failed", slog.String("path", c.FullPath()), slog.String("error", err.Error()))
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
