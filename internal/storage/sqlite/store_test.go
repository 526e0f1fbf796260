package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskdo/internal/models"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "test.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestCreateTaskDefaults(t *testing.T) {
	store := openTestStore(t)
	owner := uuid.New()
	ctx := context.Background()

	task, err := store.CreateTask(ctx, owner, "Buy milk", "", nil)
	require.NoError(t, err)

	assert.Equal(t, "Buy milk", task.Title)
	assert.Equal(t, "", task.Description)
	require.NotNil(t, task.Completed)
	assert.False(t, *task.Completed)
	assert.Nil(t, task.DueAt)
	assert.False(t, task.CreatedAt.IsZero())
	assert.False(t, task.UpdatedAt.IsZero())
	assert.Equal(t, owner, task.UserID)
}

func TestCreateTaskRejectsEmptyTitle(t *testing.T) {
	store := openTestStore(t)

	_, err := store.CreateTask(context.Background(), uuid.New(), "   ", "", nil)
	require.Error(t, err)
}

func TestListTasksScopedToOwner(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	alice := uuid.New()
	bob := uuid.New()

	_, err := store.CreateTask(ctx, alice, "alice 1", "", nil)
	require.NoError(t, err)
	_, err = store.CreateTask(ctx, alice, "alice 2", "", nil)
	require.NoError(t, err)
	_, err = store.CreateTask(ctx, bob, "bob 1", "", nil)
	require.NoError(t, err)

	tasks, err := store.ListTasks(ctx, alice)
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, "alice 1", tasks[0].Title)
	assert.Equal(t, "alice 2", tasks[1].Title)
}

func TestListTasksEmptyIsNotNil(t *testing.T) {
	store := openTestStore(t)

	tasks, err := store.ListTasks(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.NotNil(t, tasks)
	assert.Empty(t, tasks)
}

func TestUpdateTaskNoOpKeepsUpdatedAt(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	owner := uuid.New()

	created, err := store.CreateTask(ctx, owner, "Buy milk", "whole", nil)
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond)

	updated, err := store.UpdateTask(ctx, owner, created.ID, models.TaskPatch{
		Title:       models.FieldOf("Buy milk"),
		Description: models.FieldOf("whole"),
	})
	require.NoError(t, err)
	assert.True(t, updated.UpdatedAt.Equal(created.UpdatedAt), "no-op update must not refresh updated_at")
}

func TestUpdateTaskChangesRefreshUpdatedAt(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	owner := uuid.New()

	created, err := store.CreateTask(ctx, owner, "Buy milk", "", nil)
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond)

	updated, err := store.UpdateTask(ctx, owner, created.ID, models.TaskPatch{
		Completed: models.FieldOf(true),
	})
	require.NoError(t, err)
	require.NotNil(t, updated.Completed)
	assert.True(t, *updated.Completed)
	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt))
	assert.Equal(t, "Buy milk", updated.Title, "untouched fields survive a partial update")
}

func TestUpdateTaskDueDateTriState(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	owner := uuid.New()
	due := time.Date(2026, 9, 15, 12, 0, 0, 0, time.UTC)

	created, err := store.CreateTask(ctx, owner, "Pay rent", "", &due)
	require.NoError(t, err)
	require.NotNil(t, created.DueAt)

	// Omitting due_at leaves it unchanged.
	updated, err := store.UpdateTask(ctx, owner, created.ID, models.TaskPatch{
		Title: models.FieldOf("Pay the rent"),
	})
	require.NoError(t, err)
	require.NotNil(t, updated.DueAt)
	assert.True(t, updated.DueAt.Equal(due))

	// An explicit null clears it.
	cleared, err := store.UpdateTask(ctx, owner, created.ID, models.TaskPatch{
		DueAt: models.NullField[time.Time](),
	})
	require.NoError(t, err)
	assert.Nil(t, cleared.DueAt)
}

func TestUpdateTaskForeignOwner(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	alice := uuid.New()

	created, err := store.CreateTask(ctx, alice, "secret", "", nil)
	require.NoError(t, err)

	_, err = store.UpdateTask(ctx, uuid.New(), created.ID, models.TaskPatch{
		Title: models.FieldOf("stolen"),
	})
	assert.ErrorIs(t, err, ErrNotFound)

	got, err := store.GetTask(ctx, alice, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "secret", got.Title)
}

func TestDeleteTaskReturnsRecordAndScopes(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	alice := uuid.New()
	bob := uuid.New()

	kept, err := store.CreateTask(ctx, alice, "keep me", "", nil)
	require.NoError(t, err)
	target, err := store.CreateTask(ctx, alice, "delete me", "", nil)
	require.NoError(t, err)

	// Bob cannot delete Alice's task, and nothing else is touched.
	_, err = store.DeleteTask(ctx, bob, target.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	deleted, err := store.DeleteTask(ctx, alice, target.ID)
	require.NoError(t, err)
	assert.Equal(t, target.ID, deleted.ID)
	assert.Equal(t, "delete me", deleted.Title)

	tasks, err := store.ListTasks(ctx, alice)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, kept.ID, tasks[0].ID)

	_, err = store.DeleteTask(ctx, alice, target.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetTaskNotFound(t *testing.T) {
	store := openTestStore(t)

	_, err := store.GetTask(context.Background(), uuid.New(), 9999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListTasksQueryFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT .+ FROM tasks").WillReturnError(assert.AnError)

	store := &Store{db: sqlx.NewDb(db, "sqlite3")}
	_, err = store.ListTasks(context.Background(), uuid.New())
	require.Error(t, err)
	assert.ErrorContains(t, err, "list tasks")
}
