package model

// ReminderKind identifies one of the two fixed lead times before a
// task's due date at which a reminder goes out.
type ReminderKind string

const (
	ReminderDay  ReminderKind = "1 day"
	ReminderHour ReminderKind = "1 hour"
)

// Alert is the live broadcast event emitted after a reminder was
// successfully sent. Due is the rendered due date in DueDateLayout.
type Alert struct {
	Title string `json:"title"`
	Due   string `json:"due"`
	When  string `json:"when"`
}
