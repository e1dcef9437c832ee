package store

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations.
// Each migration's version must be sequential starting from 1.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS tasks (
	id             TEXT PRIMARY KEY,
	title          TEXT NOT NULL,
	description    TEXT NOT NULL DEFAULT '',
	due_date       TEXT NOT NULL,
	status         TEXT NOT NULL DEFAULT 'Pending',
	notify_email   TEXT NOT NULL DEFAULT '',
	notified_1day  INTEGER NOT NULL DEFAULT 0 CHECK(notified_1day IN (0, 1)),
	notified_1hour INTEGER NOT NULL DEFAULT 0 CHECK(notified_1hour IN (0, 1)),
	created_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status);
CREATE INDEX IF NOT EXISTS idx_tasks_due_date ON tasks(due_date);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
	{
		version: 2,
		sql: `
CREATE INDEX IF NOT EXISTS idx_tasks_status_due_day
	ON tasks(status, due_date, notified_1day);

CREATE INDEX IF NOT EXISTS idx_tasks_status_due_hour
	ON tasks(status, due_date, notified_1hour);

INSERT INTO schema_version (version) VALUES (2);
`,
	},
}
