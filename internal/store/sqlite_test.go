package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakline/taskherald/internal/model"
)

// newTestStore creates an in-memory store with all migrations applied.
func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	s, err := NewSQLiteStore(":memory:")
	require.NoError(t, err, "creating test store")

	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("closing test store: %v", err)
		}
	})

	return s
}

func mustCreate(t *testing.T, s *SQLiteStore, task model.Task) model.Task {
	t.Helper()
	require.NoError(t, s.CreateTask(context.Background(), &task))
	return task
}

func TestCreateAndGetTask(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	due := time.Date(2025, 6, 1, 14, 30, 0, 0, time.Local)
	task := mustCreate(t, s, model.Task{
		Title:       "write report",
		Description: "quarterly numbers",
		DueDate:     due,
		NotifyEmail: "me@example.com",
	})

	assert.NotEmpty(t, task.ID, "ID is generated on create")
	assert.Equal(t, model.StatusPending, task.Status, "status defaults to Pending")

	got, err := s.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "write report", got.Title)
	assert.Equal(t, "quarterly numbers", got.Description)
	assert.True(t, got.DueDate.Equal(due), "due date round-trips: got %v want %v", got.DueDate, due)
	assert.Equal(t, "me@example.com", got.NotifyEmail)
	assert.False(t, got.Notified1Day)
	assert.False(t, got.Notified1Hour)
}

func TestGetTask_NotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetTask(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListTasks_OrderedByDueDate(t *testing.T) {
	s := newTestStore(t)
	base := time.Date(2025, 6, 1, 8, 0, 0, 0, time.Local)

	mustCreate(t, s, model.Task{Title: "third", DueDate: base.Add(48 * time.Hour)})
	mustCreate(t, s, model.Task{Title: "first", DueDate: base})
	mustCreate(t, s, model.Task{Title: "second", DueDate: base.Add(2 * time.Hour)})

	tasks, err := s.ListTasks(context.Background())
	require.NoError(t, err)
	require.Len(t, tasks, 3)
	assert.Equal(t, "first", tasks[0].Title)
	assert.Equal(t, "second", tasks[1].Title)
	assert.Equal(t, "third", tasks[2].Title)
}

func TestUpdateStatus(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	task := mustCreate(t, s, model.Task{Title: "t", DueDate: time.Now().Add(time.Hour)})

	require.NoError(t, s.UpdateStatus(ctx, task.ID, model.StatusDone))

	got, err := s.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusDone, got.Status)

	assert.ErrorIs(t, s.UpdateStatus(ctx, "missing", model.StatusDone), ErrNotFound)
}

func TestListDueUnnotified_WindowSemantics(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.Local)

	in23h := mustCreate(t, s, model.Task{Title: "in23h", DueDate: now.Add(23 * time.Hour)})
	in30m := mustCreate(t, s, model.Task{Title: "in30m", DueDate: now.Add(30 * time.Minute)})
	mustCreate(t, s, model.Task{Title: "past", DueDate: now.Add(-time.Hour)})
	mustCreate(t, s, model.Task{Title: "dueNow", DueDate: now})
	mustCreate(t, s, model.Task{Title: "far", DueDate: now.Add(48 * time.Hour)})
	mustCreate(t, s, model.Task{Title: "done", DueDate: now.Add(time.Hour), Status: model.StatusDone})

	day, err := s.ListDueUnnotified(ctx, model.StatusPending, now, now.Add(24*time.Hour), model.ReminderDay)
	require.NoError(t, err)
	require.Len(t, day, 2)
	assert.Equal(t, in30m.ID, day[0].ID, "ordered by due date ascending")
	assert.Equal(t, in23h.ID, day[1].ID)

	hour, err := s.ListDueUnnotified(ctx, model.StatusPending, now, now.Add(time.Hour), model.ReminderHour)
	require.NoError(t, err)
	require.Len(t, hour, 1)
	assert.Equal(t, in30m.ID, hour[0].ID)
}

func TestListDueUnnotified_InclusiveUpperBound(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.Local)

	edge := mustCreate(t, s, model.Task{Title: "edge", DueDate: now.Add(time.Hour)})

	hour, err := s.ListDueUnnotified(ctx, model.StatusPending, now, now.Add(time.Hour), model.ReminderHour)
	require.NoError(t, err)
	require.Len(t, hour, 1, "due exactly at the threshold is included")
	assert.Equal(t, edge.ID, hour[0].ID)
}

func TestListDueUnnotified_FlagGating(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.Local)

	task := mustCreate(t, s, model.Task{Title: "t", DueDate: now.Add(30 * time.Minute)})

	require.NoError(t, s.MarkNotified(ctx, task.ID, model.ReminderDay))

	day, err := s.ListDueUnnotified(ctx, model.StatusPending, now, now.Add(24*time.Hour), model.ReminderDay)
	require.NoError(t, err)
	assert.Empty(t, day, "flagged tasks leave the day window regardless of due date")

	hour, err := s.ListDueUnnotified(ctx, model.StatusPending, now, now.Add(time.Hour), model.ReminderHour)
	require.NoError(t, err)
	require.Len(t, hour, 1, "the hour flag is independent of the day flag")

	got, err := s.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.True(t, got.Notified1Day)
	assert.False(t, got.Notified1Hour)
}

func TestMarkNotified(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	task := mustCreate(t, s, model.Task{Title: "t", DueDate: time.Now().Add(time.Hour)})

	require.NoError(t, s.MarkNotified(ctx, task.ID, model.ReminderHour))

	got, err := s.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.False(t, got.Notified1Day)
	assert.True(t, got.Notified1Hour)

	// Marking again is harmless: the flag only ever moves to true.
	require.NoError(t, s.MarkNotified(ctx, task.ID, model.ReminderHour))
	got, err = s.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.True(t, got.Notified1Hour)
}

func TestMarkNotified_Errors(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	assert.ErrorIs(t, s.MarkNotified(ctx, "missing", model.ReminderDay), ErrNotFound)

	task := mustCreate(t, s, model.Task{Title: "t", DueDate: time.Now().Add(time.Hour)})
	assert.Error(t, s.MarkNotified(ctx, task.ID, model.ReminderKind("2 weeks")), "unknown kinds are rejected")
}

func TestMigrationsAreIdempotent(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.runMigrations(), "re-running migrations is a no-op")

	var version int
	require.NoError(t, s.db.Get(&version, "SELECT MAX(version) FROM schema_version"))
	assert.Equal(t, migrations[len(migrations)-1].version, version)
}
