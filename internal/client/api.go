package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"

	"taskdo/internal/models"
)

// Client dispatches actions against the HTTP API and reduces every result
// into the injected Store. Each dispatch marks the matching family pending
// before the request goes out. Nothing is cancelled or debounced once
// dispatched; when two edits overlap, the last response to land wins.
type Client struct {
	baseURL    string
	httpClient *http.Client
	store      *Store
}

// New builds a client for the given server. The cookie jar carries the
// session cookie across requests.
func New(baseURL string, store *Store) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("cookie jar: %w", err)
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Jar: jar},
		store:      store,
	}, nil
}

// SignIn requests a magic link for the address.
func (c *Client) SignIn(ctx context.Context, email string) error {
	c.store.beginSignIn()
	err := c.doJSON(ctx, http.MethodPost, "/api/auth/login", map[string]string{"email": email}, nil)
	c.store.resolveSignIn(err)
	return err
}

// FetchTasks replaces the mirrored collection with the server's.
func (c *Client) FetchTasks(ctx context.Context) ([]models.Task, error) {
	c.store.beginFetch()
	var tasks []models.Task
	err := c.doJSON(ctx, http.MethodGet, "/api/task", nil, &tasks)
	c.store.resolveFetch(tasks, err)
	return tasks, err
}

// EnsureTasks fetches only when the collection is still empty, so mounting a
// view repeatedly does not refetch.
func (c *Client) EnsureTasks(ctx context.Context) error {
	if !c.store.Empty() {
		return nil
	}
	_, err := c.FetchTasks(ctx)
	return err
}

// AddTask creates a task with the given title and appends the result.
func (c *Client) AddTask(ctx context.Context, title string) (models.Task, error) {
	c.store.beginAdd()
	var task models.Task
	err := c.doJSON(ctx, http.MethodPost, "/api/task", map[string]string{"title": title}, &task)
	c.store.resolveAdd(task, err)
	return task, err
}

// AddTaskAI creates a task from free text via the extraction endpoint.
func (c *Client) AddTaskAI(ctx context.Context, title string) (models.Task, error) {
	c.store.beginAdd()
	var task models.Task
	err := c.doJSON(ctx, http.MethodPost, "/api/task/ai", map[string]string{"title": title}, &task)
	c.store.resolveAdd(task, err)
	return task, err
}

// SaveTask diffs the edit form against the current record and sends only the
// changed fields. When every field resolves to no change, no request is sent
// and the second return is false.
func (c *Client) SaveTask(ctx context.Context, current models.Task, form TaskForm) (models.Task, bool, error) {
	patch, changed := BuildPatch(current, form, nowFunc())
	if !changed {
		return current, false, nil
	}

	c.store.beginUpdate()
	var task models.Task
	err := c.doJSON(ctx, http.MethodPut, fmt.Sprintf("/api/task/%d", current.ID), patchBody(patch), &task)
	c.store.resolveUpdate(task, err)
	return task, true, err
}

// DeleteTask removes the task and drops it from the collection.
func (c *Client) DeleteTask(ctx context.Context, id int64) (models.Task, error) {
	c.store.beginDelete()
	var task models.Task
	err := c.doJSON(ctx, http.MethodDelete, fmt.Sprintf("/api/task/%d", id), nil, &task)
	c.store.resolveDelete(task, err)
	return task, err
}

// patchBody keeps unset fields out of the request entirely; Field's
// marshaller cannot distinguish unset from null on its own.
func patchBody(patch models.TaskPatch) map[string]any {
	body := map[string]any{}
	if patch.Title.Set {
		body["title"] = patch.Title
	}
	if patch.Description.Set {
		body["description"] = patch.Description
	}
	if patch.Completed.Set {
		body["completed"] = patch.Completed
	}
	if patch.DueAt.Set {
		body["due_at"] = patch.DueAt
	}
	return body
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var envelope struct {
			Error string `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&envelope); err == nil && envelope.Error != "" {
			return errors.New(envelope.Error)
		}
		return fmt.Errorf("request failed with status %d", resp.StatusCode)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
