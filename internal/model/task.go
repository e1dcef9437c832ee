package model

import "time"

// Task status constants.
const (
	StatusPending = "Pending"
	StatusDone    = "Done"
)

// DueDateLayout is the wall-clock format used everywhere a due date is
// stored or rendered. Due dates are naive local time: no zone is attached
// and none is ever converted.
const DueDateLayout = "2006-01-02 15:04:05"

// Task is a tracked unit of work with a deadline.
type Task struct {
	ID          string    `json:"id" db:"id"`
	Title       string    `json:"title" db:"title"`
	Description string    `json:"description" db:"description"`
	DueDate     time.Time `json:"due_date" db:"due_date"`
	Status      string    `json:"status" db:"status"`

	// NotifyEmail is the per-task override recipient. When empty the
	// configured default recipient is used instead.
	NotifyEmail string `json:"notify_email,omitempty" db:"notify_email"`

	// Notified1Day and Notified1Hour record that the corresponding
	// reminder was successfully sent. Each transitions false to true at
	// most once and is never cleared.
	Notified1Day  bool `json:"notified_1day" db:"notified_1day"`
	Notified1Hour bool `json:"notified_1hour" db:"notified_1hour"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// NotifyRecipient returns the address reminders for this task should go
// to: the task's own override, or fallback when no override is set. An
// empty result means the task cannot be emailed.
func (t *Task) NotifyRecipient(fallback string) string {
	if t.NotifyEmail != "" {
		return t.NotifyEmail
	}
	return fallback
}
