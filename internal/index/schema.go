// Package index keeps a SQLite catalogue of the vault's boards and tasks,
// with optional FTS5 search over task titles and tags.
package index

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const coreSchemaSQL = `
CREATE TABLE IF NOT EXISTS documents (
	path       TEXT PRIMARY KEY,
	title      TEXT NOT NULL DEFAULT '',
	checksum   TEXT NOT NULL DEFAULT '',
	tags       TEXT NOT NULL DEFAULT '[]',
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS boards (
	path       TEXT NOT NULL REFERENCES documents(path) ON DELETE CASCADE,
	block      INTEGER NOT NULL,
	shape      TEXT NOT NULL DEFAULT '',
	columns    TEXT NOT NULL DEFAULT '[]',
	counts     TEXT NOT NULL DEFAULT '{}',
	task_count INTEGER NOT NULL DEFAULT 0,
	running    TEXT NOT NULL DEFAULT '',
	error      TEXT NOT NULL DEFAULT '',
	nested     INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (path, block)
);

CREATE TABLE IF NOT EXISTS tasks (
	path              TEXT NOT NULL,
	block             INTEGER NOT NULL,
	position          INTEGER NOT NULL,
	title             TEXT NOT NULL,
	column_name       TEXT NOT NULL DEFAULT '',
	tags              TEXT NOT NULL DEFAULT '[]',
	target_time       TEXT NOT NULL DEFAULT '',
	due_date          TEXT NOT NULL DEFAULT '',
	running_since     DATETIME,
	elapsed_closed_ms INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (path, block, position),
	FOREIGN KEY (path, block) REFERENCES boards(path, block) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_tasks_running ON tasks(running_since) WHERE running_since IS NOT NULL;
CREATE INDEX IF NOT EXISTS idx_tasks_title ON tasks(title);
`

// DB wraps a sql.DB with index-specific operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("index: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: ping: %w", err)
	}
	if _, err := conn.Exec(coreSchemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: apply core schema: %w", err)
	}
	if err := initFTS(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: apply fts schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping reports whether the database is reachable.
func (db *DB) Ping() error {
	return db.conn.Ping()
}
