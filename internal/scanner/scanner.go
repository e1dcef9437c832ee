package scanner

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/oakline/taskherald/internal/model"
)

// TaskSource is the slice of the task store the scanner consumes.
type TaskSource interface {
	ListDueUnnotified(ctx context.Context, status string, after, notAfter time.Time, kind model.ReminderKind) ([]model.Task, error)
	MarkNotified(ctx context.Context, id string, kind model.ReminderKind) error
}

// Notifier delivers one reminder. Any error means the reminder did not
// go out and the task stays eligible for the next scan.
type Notifier interface {
	Send(ctx context.Context, recipient, subject, body string) error
}

// AlertPublisher receives a best-effort event after each successful
// send. It must not be relied on for delivery.
type AlertPublisher interface {
	Publish(a model.Alert)
}

// Result summarizes one scan. A scan always completes; partial
// failures surface here as error counts, never as a returned error.
type Result struct {
	DaySent  int
	HourSent int
	Errors   int
}

// Scanner finds pending tasks that crossed a reminder threshold, sends
// each reminder exactly once, and durably flags the task so the
// reminder is never repeated.
//
// RunScan is not safe for concurrent invocation: the driver must
// guarantee at most one scan in flight at a time (the scheduler's
// skip-if-still-running chain does exactly that).
type Scanner struct {
	store     TaskSource
	notifier  Notifier
	alerts    AlertPublisher
	defaultTo string
	dayLead   time.Duration
	hourLead  time.Duration
}

// New creates a Scanner. alerts may be nil when no live broadcast is
// wired. Non-positive leads fall back to one day and one hour.
func New(store TaskSource, notifier Notifier, alerts AlertPublisher, defaultTo string, dayLead, hourLead time.Duration) *Scanner {
	if dayLead <= 0 {
		dayLead = 24 * time.Hour
	}
	if hourLead <= 0 {
		hourLead = time.Hour
	}
	return &Scanner{
		store:     store,
		notifier:  notifier,
		alerts:    alerts,
		defaultTo: defaultTo,
		dayLead:   dayLead,
		hourLead:  hourLead,
	}
}

// RunScan executes one pass over both reminder windows, day first so a
// task inside both windows gets its day reminder before the urgent one.
// now is injected rather than read from the system clock to keep scans
// deterministic under test.
func (s *Scanner) RunScan(ctx context.Context, now time.Time) Result {
	var res Result

	res.DaySent = s.scanWindow(ctx, now, model.ReminderDay, s.dayLead, &res.Errors)
	res.HourSent = s.scanWindow(ctx, now, model.ReminderHour, s.hourLead, &res.Errors)

	return res
}

// scanWindow processes every eligible task for one reminder kind and
// returns how many reminders went out. A store query failure degrades
// this window to empty; a single task's failure never stops the rest.
func (s *Scanner) scanWindow(ctx context.Context, now time.Time, kind model.ReminderKind, lead time.Duration, errs *int) int {
	tasks, err := s.store.ListDueUnnotified(ctx, model.StatusPending, now, now.Add(lead), kind)
	if err != nil {
		log.Printf("[scanner] query (%s) failed: %v", kind, err)
		*errs++
		return 0
	}

	sent := 0
	for _, task := range tasks {
		recipient := task.NotifyRecipient(s.defaultTo)
		if recipient == "" {
			// Expected condition, not an error: the task simply has
			// nowhere to be delivered and stays unflagged.
			log.Printf("[scanner] no recipient for task %s, skipping", task.ID)
			continue
		}

		subject, body := composeReminder(task, kind)
		if err := s.notifier.Send(ctx, recipient, subject, body); err != nil {
			log.Printf("[scanner] send (%s) for task %s failed: %v", kind, task.ID, err)
			*errs++
			continue
		}
		sent++

		if err := s.store.MarkNotified(ctx, task.ID, kind); err != nil {
			// The reminder is already out; the flag stays unset and
			// the next scan may send again (accepted at-least-once).
			log.Printf("[scanner] flag update (%s) for task %s failed: %v", kind, task.ID, err)
			*errs++
		}

		s.publishAlert(task, kind)
	}

	return sent
}

// composeReminder renders the subject and body for one reminder.
func composeReminder(task model.Task, kind model.ReminderKind) (subject, body string) {
	switch kind {
	case model.ReminderHour:
		subject = fmt.Sprintf("Urgent: '%s' is due in ~1 hour", task.Title)
	default:
		subject = fmt.Sprintf("Reminder: '%s' is due in ~1 day", task.Title)
	}

	body = fmt.Sprintf("Task: %s\nDue: %s\n\n%s",
		task.Title, task.DueDate.Format(model.DueDateLayout), task.Description)

	return subject, body
}

// publishAlert emits the live event for a sent reminder. Broadcast
// failure is swallowed: it must never affect flag persistence or the
// rest of the scan.
func (s *Scanner) publishAlert(task model.Task, kind model.ReminderKind) {
	if s.alerts == nil {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			log.Printf("[scanner] alert publish panicked: %v", r)
		}
	}()

	s.alerts.Publish(model.Alert{
		Title: task.Title,
		Due:   task.DueDate.Format(model.DueDateLayout),
		When:  string(kind),
	})
}
