package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"
)

// Status is the completion state of a todo.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
)

// Todo is one item in the list.
type Todo struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Status    Status    `json:"status"`
	Done      bool      `json:"done"`
	CreatedAt time.Time `json:"created_at"`
}

// Store is an in-memory todo store served over HTTP.
type Store struct {
	mu     sync.RWMutex
	todos  map[string]*Todo
	nextID int
}

// NewStore creates a store with sample data.
func NewStore() *Store {
	s := &Store{todos: make(map[string]*Todo), nextID: 1}
	s.Add("Buy groceries")
	s.Add("Review PR #123")
	return s
}

// Add creates a todo and returns it.
func (s *Store) Add(title string) *Todo {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := &Todo{
		ID:        fmt.Sprintf("todo-%d", s.nextID),
		Title:     title,
		Status:    StatusPending,
		CreatedAt: time.Now(),
	}
	s.nextID++
	s.todos[t.ID] = t
	return t
}

// Toggle flips a todo between pending and completed.
func (s *Store) Toggle(id string) (*Todo, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.todos[id]
	if !ok {
		return nil, false
	}
	if t.Status == StatusCompleted {
		t.Status = StatusPending
	} else {
		t.Status = StatusCompleted
	}
	t.Done = t.Status == StatusCompleted
	return t, true
}

// List returns every todo, oldest first.
func (s *Store) List() []*Todo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Todo, 0, len(s.todos))
	for _, t := range s.todos {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Handler serves the JSON API the page's routes call.
func (s *Store) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /todos", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"todos": s.List()})
	})
	mux.HandleFunc("POST /todos", func(w http.ResponseWriter, r *http.Request) {
		var in struct {
			Title string `json:"title"`
		}
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil || strings.TrimSpace(in.Title) == "" {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"message": "Title is required"})
			return
		}
		s.Add(strings.TrimSpace(in.Title))
		writeJSON(w, http.StatusCreated, map[string]any{"todos": s.List()})
	})
	mux.HandleFunc("POST /todos/toggle", func(w http.ResponseWriter, r *http.Request) {
		var in struct {
			ID string `json:"id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"message": err.Error()})
			return
		}
		if _, ok := s.Toggle(in.ID); !ok {
			writeJSON(w, http.StatusNotFound, map[string]any{"message": "Todo not found"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"todos": s.List()})
	})
	return mux
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
