package index

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/starford/kanbo/internal/apperr"
	"github.com/starford/kanbo/internal/models"
)

// BoardRow is one kanban block of a document with its tasks.
type BoardRow struct {
	Summary models.BoardSummary
	Tasks   []models.TaskRecord
}

// SearchResult represents one task hit.
type SearchResult struct {
	Path    string `json:"path"`
	Block   int    `json:"block"`
	Title   string `json:"title"`
	Column  string `json:"column"`
	Snippet string `json:"snippet"`
}

// UpsertDocument replaces a document and every board and task indexed for it
// within one transaction.
func (db *DB) UpsertDocument(doc models.Document, boards []BoardRow) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	tagsJSON, _ := json.Marshal(nonNil(doc.Tags))
	_, err = tx.Exec(`
		INSERT INTO documents (path, title, checksum, tags, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			title      = excluded.title,
			checksum   = excluded.checksum,
			tags       = excluded.tags,
			updated_at = excluded.updated_at
	`, doc.Path, doc.Title, doc.Checksum, string(tagsJSON), doc.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("index: upsert document: %w", err)
	}

	if err := deleteBoards(tx, doc.Path); err != nil {
		return err
	}

	boardStmt, err := tx.Prepare(`
		INSERT INTO boards (path, block, shape, columns, counts, task_count, running, error, nested)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("index: prepare board insert: %w", err)
	}
	defer boardStmt.Close()

	taskStmt, err := tx.Prepare(`
		INSERT INTO tasks (path, block, position, title, column_name, tags, target_time, due_date, running_since, elapsed_closed_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("index: prepare task insert: %w", err)
	}
	defer taskStmt.Close()

	for _, b := range boards {
		s := b.Summary
		colsJSON, _ := json.Marshal(nonNil(s.Columns))
		countsJSON, _ := json.Marshal(s.Counts)
		if _, err := boardStmt.Exec(doc.Path, s.Block, s.Shape, string(colsJSON), string(countsJSON),
			len(b.Tasks), s.Running, s.Error, s.Nested); err != nil {
			return fmt.Errorf("index: insert board %d: %w", s.Block, err)
		}
		for pos, t := range b.Tasks {
			taskTags, _ := json.Marshal(nonNil(t.Tags))
			var since any
			if t.RunningSince != nil {
				since = t.RunningSince.UTC()
			}
			if _, err := taskStmt.Exec(doc.Path, s.Block, pos, t.Title, t.Column, string(taskTags),
				t.TargetTime, t.DueDate, since, t.ElapsedClosed.Milliseconds()); err != nil {
				return fmt.Errorf("index: insert task %q: %w", t.Title, err)
			}
			if err := ftsUpsert(tx, doc.Path, s.Block, t.Title, t.Column, t.Tags); err != nil {
				return err
			}
		}
	}

	return tx.Commit()
}

func deleteBoards(tx *sql.Tx, path string) error {
	ftsDelete(tx, path)
	if _, err := tx.Exec(`DELETE FROM tasks WHERE path = ?`, path); err != nil {
		return fmt.Errorf("index: delete tasks: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM boards WHERE path = ?`, path); err != nil {
		return fmt.Errorf("index: delete boards: %w", err)
	}
	return nil
}

// DeleteDocument removes a document with its boards and tasks.
func (db *DB) DeleteDocument(path string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := deleteBoards(tx, path); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM documents WHERE path = ?`, path); err != nil {
		return fmt.Errorf("index: delete document: %w", err)
	}
	return tx.Commit()
}

// GetChecksum returns the stored checksum for a document, or empty string if
// not indexed.
func (db *DB) GetChecksum(path string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM documents WHERE path = ?`, path).Scan(&cs)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("index: checksum: %w", err)
	}
	return cs, nil
}

// AllChecksums maps every indexed path to its checksum.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT path, checksum FROM documents`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}

// GetDocument returns one indexed document.
func (db *DB) GetDocument(path string) (*models.Document, error) {
	var (
		d    models.Document
		tags string
	)
	err := db.conn.QueryRow(`
		SELECT d.path, d.title, d.checksum, d.tags, d.updated_at,
		       (SELECT count(*) FROM boards b WHERE b.path = d.path)
		FROM documents d WHERE d.path = ?`, path).
		Scan(&d.Path, &d.Title, &d.Checksum, &tags, &d.UpdatedAt, &d.Boards)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("index: document %s: %w", path, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("index: get document: %w", err)
	}
	_ = json.Unmarshal([]byte(tags), &d.Tags)
	return &d, nil
}

// ListBoards returns every indexed board whose document path starts with
// prefix, ordered by path and block.
func (db *DB) ListBoards(prefix string) ([]models.BoardSummary, error) {
	rows, err := db.conn.Query(`
		SELECT b.path, b.block, d.title, b.shape, b.columns, b.counts, b.task_count, b.running, b.error, b.nested
		FROM boards b JOIN documents d ON d.path = b.path
		WHERE b.path LIKE ? ESCAPE '\'
		ORDER BY b.path, b.block`, likePrefix(prefix))
	if err != nil {
		return nil, fmt.Errorf("index: list boards: %w", err)
	}
	defer rows.Close()

	var out []models.BoardSummary
	for rows.Next() {
		var (
			s            models.BoardSummary
			cols, counts string
			title        string
		)
		if err := rows.Scan(&s.Path, &s.Block, &title, &s.Shape, &cols, &counts, &s.Tasks, &s.Running, &s.Error, &s.Nested); err != nil {
			return nil, err
		}
		s.Title = boardTitle(title, s.Path, s.Block)
		s.Document = title
		_ = json.Unmarshal([]byte(cols), &s.Columns)
		_ = json.Unmarshal([]byte(counts), &s.Counts)
		out = append(out, s)
	}
	return out, rows.Err()
}

// BoardTasks returns the tasks of one board in stored order.
func (db *DB) BoardTasks(path string, block int) ([]models.TaskRecord, error) {
	return db.queryTasks(`WHERE path = ? AND block = ? ORDER BY position`, path, block)
}

// RunningTimers returns every task whose timer was open at its last index.
func (db *DB) RunningTimers() ([]models.TaskRecord, error) {
	return db.queryTasks(`WHERE running_since IS NOT NULL ORDER BY path, block, position`)
}

func (db *DB) queryTasks(where string, args ...any) ([]models.TaskRecord, error) {
	rows, err := db.conn.Query(`
		SELECT path, block, title, column_name, tags, target_time, due_date, running_since, elapsed_closed_ms
		FROM tasks `+where, args...)
	if err != nil {
		return nil, fmt.Errorf("index: query tasks: %w", err)
	}
	defer rows.Close()

	var out []models.TaskRecord
	for rows.Next() {
		var (
			t       models.TaskRecord
			tags    string
			since   sql.NullTime
			elapsed int64
		)
		if err := rows.Scan(&t.Path, &t.Block, &t.Title, &t.Column, &tags, &t.TargetTime, &t.DueDate, &since, &elapsed); err != nil {
			return nil, err
		}
		_ = json.Unmarshal([]byte(tags), &t.Tags)
		if len(t.Tags) == 0 {
			t.Tags = nil
		}
		if since.Valid {
			ts := since.Time.UTC()
			t.RunningSince = &ts
		}
		t.ElapsedClosed = time.Duration(elapsed) * time.Millisecond
		out = append(out, t)
	}
	return out, rows.Err()
}

// boardTitle names a board after its document; later blocks get a suffix.
func boardTitle(docTitle, path string, block int) string {
	if docTitle == "" {
		docTitle = strings.TrimSuffix(path, ".md")
	}
	if block == 0 {
		return docTitle
	}
	return fmt.Sprintf("%s #%d", docTitle, block+1)
}

func likePrefix(prefix string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(prefix) + "%"
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
