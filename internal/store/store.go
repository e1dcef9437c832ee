package store

import (
	"context"
	"errors"
	"time"

	"github.com/oakline/taskherald/internal/model"
)

// ErrNotFound is returned when a task lookup or update matches no row.
var ErrNotFound = errors.New("task not found")

// TaskStore is the persistence interface consumed by the deadline
// scanner and the outer HTTP/CLI surfaces.
type TaskStore interface {
	// CreateTask inserts a new task. A missing ID is generated.
	CreateTask(ctx context.Context, task *model.Task) error

	// GetTask retrieves a single task by ID, or ErrNotFound.
	GetTask(ctx context.Context, id string) (*model.Task, error)

	// ListTasks returns all tasks ordered by due date ascending.
	ListTasks(ctx context.Context) ([]model.Task, error)

	// UpdateStatus sets a task's status, or ErrNotFound.
	UpdateStatus(ctx context.Context, id, status string) error

	// ListDueUnnotified returns tasks with the given status whose due
	// date lies in (after, notAfter] and whose flag for kind is still
	// unset, ordered by due date ascending so the most urgent tasks
	// come first. An empty window is an empty slice, not an error.
	ListDueUnnotified(ctx context.Context, status string, after, notAfter time.Time, kind model.ReminderKind) ([]model.Task, error)

	// MarkNotified durably sets the flag for kind on the given task.
	// The update is a single-row write: either the flag is persisted
	// or an error is returned and the flag is unchanged.
	MarkNotified(ctx context.Context, id string, kind model.ReminderKind) error
}
