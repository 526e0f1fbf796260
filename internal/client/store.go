package client

import (
	"sync"

	"taskdo/internal/models"
)

// RequestState tracks one in-flight action family.
type RequestState struct {
	Loading bool
	Err     string
}

// AuthState tracks the magic-link sign-in flow.
type AuthState struct {
	Loading       bool
	Err           string
	SentMagicLink bool
}

// Store is the in-memory mirror of the signed-in user's task list. It is not
// authoritative; the server is. State changes only through the reducers
// below, one per action family, and a failed action never touches the
// previously known collection.
type Store struct {
	mu     sync.Mutex
	items  []models.Task
	fetch  RequestState
	add    RequestState
	update RequestState
	remove RequestState
	signIn AuthState
}

// NewStore returns an empty store. Callers inject it where needed; there is
// no package-level instance.
func NewStore() *Store {
	return &Store{}
}

// Tasks returns a copy of the mirrored collection in server order.
func (s *Store) Tasks() []models.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Task, len(s.items))
	copy(out, s.items)
	return out
}

// Empty reports whether the collection has ever been populated.
func (s *Store) Empty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items) == 0
}

// Fetch returns the fetch action state.
func (s *Store) Fetch() RequestState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetch
}

// Add returns the add action state, shared by plain and AI creation.
func (s *Store) Add() RequestState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.add
}

// Update returns the update action state.
func (s *Store) Update() RequestState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.update
}

// Delete returns the delete action state.
func (s *Store) Delete() RequestState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remove
}

// SignIn returns the auth action state.
func (s *Store) SignIn() AuthState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.signIn
}

func (s *Store) beginFetch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetch.Loading = true
}

func (s *Store) resolveFetch(tasks []models.Task, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetch.Loading = false
	if err != nil {
		s.fetch.Err = err.Error()
		return
	}
	s.fetch.Err = ""
	s.items = tasks
}

func (s *Store) beginAdd() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.add.Loading = true
}

func (s *Store) resolveAdd(task models.Task, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.add.Loading = false
	if err != nil {
		s.add.Err = err.Error()
		return
	}
	s.add.Err = ""
	s.items = append(s.items, task)
}

func (s *Store) beginUpdate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.update.Loading = true
}

func (s *Store) resolveUpdate(task models.Task, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.update.Loading = false
	if err != nil {
		s.update.Err = err.Error()
		return
	}
	s.update.Err = ""
	for i := range s.items {
		if s.items[i].ID == task.ID {
			s.items[i] = task
			return
		}
	}
}

func (s *Store) beginDelete() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.remove.Loading = true
}

func (s *Store) resolveDelete(task models.Task, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.remove.Loading = false
	if err != nil {
		s.remove.Err = err.Error()
		return
	}
	s.remove.Err = ""
	kept := s.items[:0]
	for _, item := range s.items {
		if item.ID != task.ID {
			kept = append(kept, item)
		}
	}
	s.items = kept
}

func (s *Store) beginSignIn() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.signIn.Loading = true
	s.signIn.SentMagicLink = false
	s.signIn.Err = ""
}

func (s *Store) resolveSignIn(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.signIn.Loading = false
	if err != nil {
		s.signIn.Err = err.Error()
		return
	}
	s.signIn.SentMagicLink = true
}
