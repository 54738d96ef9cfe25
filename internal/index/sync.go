package index

import (
	"log/slog"
	"time"

	"github.com/starford/kanbo/internal/board"
	"github.com/starford/kanbo/internal/checksum"
	"github.com/starford/kanbo/internal/models"
	"github.com/starford/kanbo/internal/parser"
	"github.com/starford/kanbo/internal/reconcile"
	"github.com/starford/kanbo/internal/storage"
)

// Sync walks the vault and brings the index up to date:
//   - new/changed documents are parsed and their boards upserted
//   - documents removed from disk are deleted from the index
func Sync(db *DB, store storage.Provider, logger *slog.Logger) error {
	metas, err := store.List("")
	if err != nil {
		return err
	}

	checksums, err := db.AllChecksums()
	if err != nil {
		return err
	}

	disk := make(map[string]struct{}, len(metas))
	for _, m := range metas {
		disk[m.Path] = struct{}{}

		if checksums[m.Path] == m.Checksum {
			continue
		}

		data, err := store.Read(m.Path)
		if err != nil {
			logger.Warn("sync: read failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		if err := IndexFile(db, m.Path, data, m.UpdatedAt); err != nil {
			logger.Warn("sync: index failed", slog.String("path", m.Path), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: indexed", slog.String("path", m.Path))
		}
	}

	for p := range checksums {
		if _, ok := disk[p]; !ok {
			if err := db.DeleteDocument(p); err != nil {
				logger.Warn("sync: delete failed", slog.String("path", p), slog.String("error", err.Error()))
			} else {
				logger.Debug("sync: removed stale", slog.String("path", p))
			}
		}
	}

	return nil
}

// IndexFile parses data and upserts the document and its boards.
func IndexFile(db BoardIndex, path string, data []byte, modTime time.Time) error {
	doc, boards, err := Record(path, data, modTime)
	if err != nil {
		return err
	}
	return db.UpsertDocument(doc, boards)
}

// Record builds the index rows for one document. Malformed blocks are kept
// as boards carrying their error so listings can show them.
func Record(path string, data []byte, modTime time.Time) (models.Document, []BoardRow, error) {
	res, err := parser.Parse(data)
	if err != nil {
		return models.Document{}, nil, err
	}

	blocks := reconcile.Extract(data)
	doc := models.Document{
		Path:      path,
		Title:     res.Title,
		Tags:      res.Tags,
		Checksum:  checksum.Sum(data),
		UpdatedAt: modTime,
		Boards:    len(blocks),
	}

	rows := make([]BoardRow, 0, len(blocks))
	for _, blk := range blocks {
		row := BoardRow{Summary: models.BoardSummary{Path: path, Block: blk.Index, Nested: blk.Nested}}
		if !blk.Valid() {
			row.Summary.Error = blk.Err.Error()
			rows = append(rows, row)
			continue
		}
		summarize(&row, blk.Board)
		rows = append(rows, row)
	}
	return doc, rows, nil
}

func summarize(row *BoardRow, b *board.Board) {
	s := &row.Summary
	s.Shape = b.Shape.String()
	s.Columns = append([]string(nil), b.ColumnNames()...)
	s.Counts = make(map[string]int, len(s.Columns))
	s.Tasks = len(b.Tasks)

	for _, t := range b.Tasks {
		col := b.ColumnOf(t)
		s.Counts[col]++

		rec := models.TaskRecord{
			Path:       s.Path,
			Block:      s.Block,
			Title:      t.Title,
			Column:     col,
			Tags:       t.Tags,
			TargetTime: t.TargetTime,
		}
		if t.DueDate != nil {
			rec.DueDate = t.DueDate.String()
		}
		for _, e := range t.TimerEntries {
			if e.End == nil {
				since := e.Start.Time
				rec.RunningSince = &since
				continue
			}
			if d := e.End.Sub(e.Start.Time); d > 0 {
				rec.ElapsedClosed += d
			}
		}
		if rec.RunningSince != nil && s.Running == "" {
			s.Running = t.Title
		}
		row.Tasks = append(row.Tasks, rec)
	}
}
