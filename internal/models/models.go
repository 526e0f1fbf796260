package models

import (
	"time"

	"github.com/google/uuid"
)

// Task represents a single todo item owned by one user.
// The owner is never serialized; it is injected server-side from the session.
type Task struct {
	ID          int64      `db:"id" json:"id"`
	UserID      uuid.UUID  `db:"user_id" json:"-"`
	Title       string     `db:"title" json:"title"`
	Description string     `db:"description" json:"description"`
	Completed   *bool      `db:"completed" json:"completed"`
	DueAt       *time.Time `db:"due_at" json:"due_at"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

// Done reports whether the task is marked completed, treating the unset
// tri-state as not completed.
func (t Task) Done() bool {
	return t.Completed != nil && *t.Completed
}

// User is the identity handle returned by the auth backend.
type User struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
}

// Extraction is the AI service's best-effort guess for a task. Any field may
// be empty and DueDate is not guaranteed to be parseable.
type Extraction struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	DueDate     string `json:"due_date"`
}

// TaskPatch carries a partial update. Each field distinguishes absent,
// explicit null, and a concrete value.
type TaskPatch struct {
	Title       Field[string]
	Description Field[string]
	Completed   Field[bool]
	DueAt       Field[time.Time]
}

// Empty reports whether the patch would change nothing.
func (p TaskPatch) Empty() bool {
	return !p.Title.Set && !p.Description.Set && !p.Completed.Set && !p.DueAt.Set
}
