package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/oakline/taskherald/internal/alert"
	"github.com/oakline/taskherald/internal/model"
	"github.com/oakline/taskherald/internal/notify"
	"github.com/oakline/taskherald/internal/store"
)

// formDueLayout matches the value of an HTML datetime-local input.
const formDueLayout = "2006-01-02T15:04"

// Server exposes the task list, the add-task form endpoint, a status
// toggle, and the live-alert websocket.
type Server struct {
	addr     string
	store    store.TaskStore
	notifier notify.Notifier
	hub      *alert.Hub
	srv      *http.Server
}

// New creates a Server. hub may be nil to disable the websocket route.
func New(addr string, st store.TaskStore, notifier notify.Notifier, hub *alert.Hub) *Server {
	return &Server{addr: addr, store: st, notifier: notifier, hub: hub}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /", s.handleList)
	mux.HandleFunc("POST /add", s.handleAdd)
	mux.HandleFunc("POST /tasks/{id}/done", s.handleDone)
	if s.hub != nil {
		mux.HandleFunc("GET /ws", s.hub.HandleWS)
	}
	return mux
}

// Start begins serving in the background.
func (s *Server) Start(ctx context.Context) error {
	s.srv = &http.Server{
		Addr:    s.addr,
		Handler: s.Handler(),
	}

	go func() {
		log.Printf("[server] listening on %s", s.addr)
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("[server] error: %v", err)
		}
	}()

	return nil
}

// Stop shuts the listener down gracefully.
func (s *Server) Stop() error {
	if s.srv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	log.Printf("[server] stopped")
	return nil
}

// handleList returns all tasks ordered by due date.
func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	tasks, err := s.store.ListTasks(r.Context())
	if err != nil {
		log.Printf("[server] list tasks failed: %v", err)
		http.Error(w, "failed to list tasks", http.StatusInternalServerError)
		return
	}
	if tasks == nil {
		tasks = []model.Task{}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(tasks); err != nil {
		log.Printf("[server] encode tasks failed: %v", err)
	}
}

// handleAdd creates a task from form fields and sends the optional
// creation confirmation to the task's notify address.
func (s *Server) handleAdd(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	title := strings.TrimSpace(r.FormValue("title"))
	dueRaw := strings.TrimSpace(r.FormValue("due_date"))
	if title == "" || dueRaw == "" {
		http.Error(w, "Missing fields", http.StatusBadRequest)
		return
	}

	due, err := parseDueDate(dueRaw)
	if err != nil {
		http.Error(w, "Invalid date format. Use YYYY-MM-DDTHH:MM", http.StatusBadRequest)
		return
	}

	task := model.Task{
		Title:       title,
		Description: r.FormValue("description"),
		DueDate:     due,
		NotifyEmail: strings.TrimSpace(r.FormValue("notify_email")),
	}

	if err := s.store.CreateTask(r.Context(), &task); err != nil {
		log.Printf("[server] create task failed: %v", err)
		http.Error(w, "failed to create task", http.StatusInternalServerError)
		return
	}

	if task.NotifyEmail != "" {
		s.sendConfirmation(r.Context(), task)
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// handleDone marks a task Done, removing it from reminder eligibility.
func (s *Server) handleDone(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	err := s.store.UpdateStatus(r.Context(), id, model.StatusDone)
	if errors.Is(err, store.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		log.Printf("[server] update status failed: %v", err)
		http.Error(w, "failed to update task", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// sendConfirmation emails the task creator that the task was recorded.
// Best-effort: a failure is logged and the creation still succeeds.
func (s *Server) sendConfirmation(ctx context.Context, task model.Task) {
	subject := fmt.Sprintf("Task received: %s", task.Title)
	body := fmt.Sprintf(
		"Your task '%s' has been created and is due on %s.\nYou will receive reminders 1 day and 1 hour before the deadline.",
		task.Title, task.DueDate.Format(model.DueDateLayout),
	)

	if err := s.notifier.Send(ctx, task.NotifyEmail, subject, body); err != nil {
		log.Printf("[server] confirmation email for task %s failed: %v", task.ID, err)
		return
	}
	log.Printf("[server] confirmation email sent for task %s", task.ID)
}

// parseDueDate accepts the datetime-local form layout with the stored
// layout as fallback.
func parseDueDate(raw string) (time.Time, error) {
	if t, err := time.ParseInLocation(formDueLayout, raw, time.Local); err == nil {
		return t, nil
	}
	return time.ParseInLocation(model.DueDateLayout, raw, time.Local)
}
