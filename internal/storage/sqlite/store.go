package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"taskdo/internal/models"
)

// ErrNotFound is returned when a task does not exist or belongs to a
// different owner. Callers are not told which.
var ErrNotFound = errors.New("task not found")

const taskColumns = "id, user_id, title, description, completed, due_at, created_at, updated_at"

// Store wraps access to the SQLite database and exposes owner-scoped task
// helpers. Every query carries the owner id; a task is never reachable
// through another user's session.
type Store struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// Open initializes a new SQLite store and runs the required migrations.
func Open(dbPath string, logger *slog.Logger) (*Store, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("empty database path")
	}

	if logger == nil {
		logger = slog.Default()
	}

	if err := ensureDir(dbPath); err != nil {
		return nil, err
	}

	conn, err := sqlx.Open("sqlite3", fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=ON&_loc=UTC", dbPath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	conn.SetMaxOpenConns(1)
	conn.SetConnMaxLifetime(0)

	s := &Store{db: conn, logger: logger}
	if err := s.migrate(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return s, nil
}

// Close releases the database resources.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func ensureDir(dbPath string) error {
	dir := filepath.Dir(dbPath)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS tasks (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            user_id TEXT NOT NULL,
            title TEXT NOT NULL,
            description TEXT NOT NULL DEFAULT '',
            completed BOOLEAN,
            due_at DATETIME,
            created_at DATETIME NOT NULL,
            updated_at DATETIME NOT NULL
        );`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_user ON tasks(user_id);`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

// ListTasks returns every task owned by the given user in store order.
func (s *Store) ListTasks(ctx context.Context, owner uuid.UUID) ([]models.Task, error) {
	query, args, err := squirrel.Select(taskColumns).
		From("tasks").
		Where(squirrel.Eq{"user_id": owner}).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list query: %w", err)
	}

	tasks := []models.Task{}
	if err := s.db.SelectContext(ctx, &tasks, query, args...); err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

// CreateTask inserts a new task for the owner. Timestamps are set here, not
// by the caller.
func (s *Store) CreateTask(ctx context.Context, owner uuid.UUID, title, description string, dueAt *time.Time) (models.Task, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return models.Task{}, fmt.Errorf("task title must not be empty")
	}

	now := time.Now().UTC()
	completed := false

	query, args, err := squirrel.Insert("tasks").
		Columns("user_id", "title", "description", "completed", "due_at", "created_at", "updated_at").
		Values(owner, title, description, completed, normalizeTime(dueAt), now, now).
		ToSql()
	if err != nil {
		return models.Task{}, fmt.Errorf("build insert query: %w", err)
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return models.Task{}, fmt.Errorf("insert task: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.Task{}, fmt.Errorf("task id: %w", err)
	}
	return s.GetTask(ctx, owner, id)
}

// GetTask retrieves a task by id, scoped to the owner.
func (s *Store) GetTask(ctx context.Context, owner uuid.UUID, id int64) (models.Task, error) {
	query, args, err := squirrel.Select(taskColumns).
		From("tasks").
		Where(squirrel.Eq{"id": id, "user_id": owner}).
		ToSql()
	if err != nil {
		return models.Task{}, fmt.Errorf("build get query: %w", err)
	}

	var t models.Task
	err = s.db.GetContext(ctx, &t, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Task{}, ErrNotFound
	}
	if err != nil {
		return models.Task{}, fmt.Errorf("get task: %w", err)
	}
	return t, nil
}

// UpdateTask applies a partial update. Fields equal to the stored value are
// dropped; when nothing remains the row is returned untouched, so a no-op
// update never refreshes updated_at.
func (s *Store) UpdateTask(ctx context.Context, owner uuid.UUID, id int64, patch models.TaskPatch) (models.Task, error) {
	current, err := s.GetTask(ctx, owner, id)
	if err != nil {
		return models.Task{}, err
	}

	changes := map[string]any{}

	if patch.Title.Set && !patch.Title.Null {
		if title := strings.TrimSpace(patch.Title.Value); title != "" && title != current.Title {
			changes["title"] = title
		}
	}
	if patch.Description.Set {
		desc := ""
		if !patch.Description.Null {
			desc = patch.Description.Value
		}
		if desc != current.Description {
			changes["description"] = desc
		}
	}
	if patch.Completed.Set {
		switch {
		case patch.Completed.Null:
			if current.Completed != nil {
				changes["completed"] = nil
			}
		case current.Completed == nil || *current.Completed != patch.Completed.Value:
			changes["completed"] = patch.Completed.Value
		}
	}
	if patch.DueAt.Set {
		switch {
		case patch.DueAt.Null:
			if current.DueAt != nil {
				changes["due_at"] = nil
			}
		default:
			due := patch.DueAt.Value.UTC()
			if current.DueAt == nil || !current.DueAt.Equal(due) {
				changes["due_at"] = due
			}
		}
	}

	if len(changes) == 0 {
		return current, nil
	}
	changes["updated_at"] = time.Now().UTC()

	query, args, err := squirrel.Update("tasks").
		SetMap(changes).
		Where(squirrel.Eq{"id": id, "user_id": owner}).
		ToSql()
	if err != nil {
		return models.Task{}, fmt.Errorf("build update query: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return models.Task{}, fmt.Errorf("update task: %w", err)
	}
	return s.GetTask(ctx, owner, id)
}

// DeleteTask removes a task scoped to the owner and returns the deleted
// record. A nonexistent or foreign id deletes nothing.
func (s *Store) DeleteTask(ctx context.Context, owner uuid.UUID, id int64) (models.Task, error) {
	t, err := s.GetTask(ctx, owner, id)
	if err != nil {
		return models.Task{}, err
	}

	query, args, err := squirrel.Delete("tasks").
		Where(squirrel.Eq{"id": id, "user_id": owner}).
		ToSql()
	if err != nil {
		return models.Task{}, fmt.Errorf("build delete query: %w", err)
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return models.Task{}, fmt.Errorf("delete task: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return models.Task{}, err
	}
	if affected == 0 {
		return models.Task{}, ErrNotFound
	}
	return t, nil
}

func normalizeTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}
