package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/oakline/taskherald/internal/model"
)

// SQLiteStore implements TaskStore using a local SQLite database.
//
// Due dates are stored as naive local wall-clock text in
// model.DueDateLayout. That layout sorts lexicographically in
// chronological order, so window queries compare strings directly.
type SQLiteStore struct {
	db *sqlx.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath,
// enables WAL mode, and runs any pending schema migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (s *SQLiteStore) runMigrations() error {
	currentVersion := 0

	var tableCount int
	err := s.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// CreateTask inserts a new task, generating an ID and creation time
// when absent. Status defaults to Pending.
func (s *SQLiteStore) CreateTask(ctx context.Context, task *model.Task) error {
	if task.ID == "" {
		task.ID = uuid.New().String()
	}
	if task.Status == "" {
		task.Status = model.StatusPending
	}
	if task.CreatedAt.IsZero() {
		task.CreatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tasks (
			id, title, description, due_date, status,
			notify_email, notified_1day, notified_1hour, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		task.ID, task.Title, task.Description,
		task.DueDate.Format(model.DueDateLayout), task.Status,
		task.NotifyEmail,
		boolToInt(task.Notified1Day), boolToInt(task.Notified1Hour),
		task.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("creating task %s: %w", task.ID, err)
	}

	return nil
}

// GetTask retrieves a single task by its ID.
func (s *SQLiteStore) GetTask(ctx context.Context, id string) (*model.Task, error) {
	row := s.db.QueryRowxContext(ctx, "SELECT * FROM tasks WHERE id = ?", id)

	task, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting task %s: %w", id, err)
	}

	return &task, nil
}

// ListTasks returns all tasks ordered by due date ascending.
func (s *SQLiteStore) ListTasks(ctx context.Context) ([]model.Task, error) {
	rows, err := s.db.QueryxContext(ctx, "SELECT * FROM tasks ORDER BY due_date ASC")
	if err != nil {
		return nil, fmt.Errorf("querying tasks: %w", err)
	}
	defer rows.Close()

	var tasks []model.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}

	return tasks, rows.Err()
}

// UpdateStatus sets a task's status.
func (s *SQLiteStore) UpdateStatus(ctx context.Context, id, status string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE tasks SET status = ? WHERE id = ?", status, id,
	)
	if err != nil {
		return fmt.Errorf("updating status of task %s: %w", id, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating status of task %s: %w", id, err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	return nil
}

// ListDueUnnotified returns tasks with the given status, a due date in
// (after, notAfter], and the reminder flag for kind still unset,
// ordered by due date ascending.
func (s *SQLiteStore) ListDueUnnotified(
	ctx context.Context,
	status string,
	after, notAfter time.Time,
	kind model.ReminderKind,
) ([]model.Task, error) {
	column, err := flagColumn(kind)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT * FROM tasks
		WHERE status = ? AND due_date > ? AND due_date <= ? AND %s = 0
		ORDER BY due_date ASC`, column)

	rows, err := s.db.QueryxContext(ctx, query,
		status,
		after.Format(model.DueDateLayout),
		notAfter.Format(model.DueDateLayout),
	)
	if err != nil {
		return nil, fmt.Errorf("querying due tasks (%s): %w", kind, err)
	}
	defer rows.Close()

	var tasks []model.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}

	return tasks, rows.Err()
}

// MarkNotified sets the reminder flag for kind on the given task.
// The flag only ever moves from 0 to 1.
func (s *SQLiteStore) MarkNotified(ctx context.Context, id string, kind model.ReminderKind) error {
	column, err := flagColumn(kind)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx,
		fmt.Sprintf("UPDATE tasks SET %s = 1 WHERE id = ?", column), id,
	)
	if err != nil {
		return fmt.Errorf("marking task %s notified (%s): %w", id, kind, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("marking task %s notified (%s): %w", id, kind, err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	return nil
}

// flagColumn maps a reminder kind to its flag column. The column name
// is interpolated into SQL, so only known kinds pass through.
func flagColumn(kind model.ReminderKind) (string, error) {
	switch kind {
	case model.ReminderDay:
		return "notified_1day", nil
	case model.ReminderHour:
		return "notified_1hour", nil
	default:
		return "", fmt.Errorf("unknown reminder kind %q", kind)
	}
}

// rowScanner is satisfied by both *sqlx.Row and *sqlx.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanTask scans a task row, converting the stored due date text and
// flag integers back to their model types.
func scanTask(row rowScanner) (model.Task, error) {
	var (
		task      model.Task
		dueDate   string
		day       int
		hour      int
		createdAt time.Time
	)

	err := row.Scan(
		&task.ID, &task.Title, &task.Description,
		&dueDate, &task.Status, &task.NotifyEmail,
		&day, &hour, &createdAt,
	)
	if err != nil {
		return model.Task{}, err
	}

	due, err := time.ParseInLocation(model.DueDateLayout, dueDate, time.Local)
	if err != nil {
		return model.Task{}, fmt.Errorf("parsing due date %q: %w", dueDate, err)
	}

	task.DueDate = due
	task.Notified1Day = day != 0
	task.Notified1Hour = hour != 0
	task.CreatedAt = createdAt

	return task, nil
}

// boolToInt converts a boolean to 0 or 1 for SQLite storage.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
