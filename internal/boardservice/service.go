// Package boardservice is the host around the board engine: it reads and
// writes vault documents, keeps the index in step with board edits, and
// serializes edits per document.
package boardservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/starford/kanbo/internal/apperr"
	"github.com/starford/kanbo/internal/checksum"
	"github.com/starford/kanbo/internal/clock"
	"github.com/starford/kanbo/internal/index"
	"github.com/starford/kanbo/internal/models"
	"github.com/starford/kanbo/internal/reconcile"
	"github.com/starford/kanbo/internal/session"
	"github.com/starford/kanbo/internal/sse"
	"github.com/starford/kanbo/internal/storage"
	"github.com/starford/kanbo/internal/timer"
)

// Notifier receives board edits. *sse.Broker implements it.
type Notifier interface {
	PublishBoardChange(sse.BoardChange)
}

// Service coordinates storage, index and board sessions.
type Service struct {
	store    storage.Provider
	db       index.BoardIndex
	clock    clock.Clock
	locator  reconcile.Locator
	bands    timer.Thresholds
	logger   *slog.Logger
	notifier Notifier

	mu    sync.Mutex
	locks map[string]*docLock
}

// Option configures a Service.
type Option func(*Service)

// WithClock sets the clock used for timers and timestamps.
func WithClock(c clock.Clock) Option { return func(s *Service) { s.clock = c } }

// WithLocator sets the block locator.
func WithLocator(l reconcile.Locator) Option { return func(s *Service) { s.locator = l } }

// WithThresholds sets the progress band thresholds.
func WithThresholds(th timer.Thresholds) Option { return func(s *Service) { s.bands = th } }

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option { return func(s *Service) { s.logger = l } }

// WithNotifier sets the receiver of board edits.
func WithNotifier(n Notifier) Option { return func(s *Service) { s.notifier = n } }

// NewService creates a board service over store and db.
func NewService(store storage.Provider, db index.BoardIndex, opts ...Option) *Service {
	s := &Service{
		store:  store,
		db:     db,
		clock:  clock.Real(),
		bands:  timer.DefaultThresholds,
		logger: slog.Default(),
		locks:  make(map[string]*docLock),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// BoardView is a rendered board.
type BoardView struct {
	Path     string           `json:"path"`
	Title    string           `json:"title"`
	Snapshot session.Snapshot `json:"board"`
}

// Result is the outcome of an edit. Persisted is false when the edit was
// applied to the board but could not be written back to the document.
type Result struct {
	BoardView
	Persisted bool   `json:"persisted"`
	Reason    string `json:"reason,omitempty"`
}

// ListBoards returns the indexed boards under prefix.
func (s *Service) ListBoards(_ context.Context, prefix string) ([]models.BoardSummary, error) {
	boards, err := s.db.ListBoards(prefix)
	if err != nil {
		return nil, err
	}
	return nonNilSlice(boards), nil
}

// SearchTasks delegates task search to the index.
func (s *Service) SearchTasks(_ context.Context, query string, limit int) ([]index.SearchResult, error) {
	res, err := s.db.Search(query, limit)
	if err != nil {
		return nil, err
	}
	return nonNilSlice(res), nil
}

// ViewBoard renders block of the document at path, narrowed by filter.
func (s *Service) ViewBoard(ctx context.Context, path string, block int, filter string) (*BoardView, error) {
	v, err := s.open(ctx, &vaultDoc{store: s.store, path: path}, block)
	if err != nil {
		return nil, err
	}
	v.SetFilter(filter)
	return s.boardView(path, v), nil
}

// Apply opens block of the document at path, runs edit against it and
// reindexes the document if it was written. Edits of one document run one
// at a time. A failure to locate or write the block is reported through
// Result.Persisted, not as an error.
func (s *Service) Apply(ctx context.Context, path string, block int, edit func(context.Context, *session.View) error) (*Result, error) {
	l := s.lock(path)
	if err := l.sem.Acquire(ctx, 1); err != nil {
		s.unlock(path, l, false)
		return nil, err
	}
	defer s.unlock(path, l, true)

	doc := &vaultDoc{store: s.store, path: path}
	v, err := s.open(ctx, doc, block)
	if err != nil {
		return nil, err
	}

	res := &Result{Persisted: true}
	if err := edit(ctx, v); err != nil {
		if !notPersisted(err) {
			return nil, err
		}
		res.Persisted = false
		res.Reason = err.Error()
	}

	if doc.written != nil {
		if err := index.IndexFile(s.db, path, doc.written, s.clock.Now()); err != nil {
			s.logger.Warn("reindex after edit failed", slog.String("path", path), slog.String("error", err.Error()))
		}
	}
	if s.notifier != nil && (doc.written != nil || !res.Persisted) {
		change := sse.BoardChange{Path: path, Block: v.Block(), Persisted: res.Persisted}
		if doc.written != nil {
			change.Revision = checksum.Revision(doc.written)
		}
		s.notifier.PublishBoardChange(change)
	}

	res.BoardView = *s.boardView(path, v)
	return res, nil
}

// notPersisted reports whether err leaves the edit applied to the board but
// not written to the document.
func notPersisted(err error) bool {
	return errors.Is(err, apperr.ErrLocate) || errors.Is(err, apperr.ErrWrite) || errors.Is(err, apperr.ErrNotStored)
}

func (s *Service) open(ctx context.Context, doc session.Document, block int) (*session.View, error) {
	return session.Open(ctx, doc, block, session.Deps{
		Clock:      s.clock,
		Locator:    s.locator,
		Thresholds: s.bands,
		Logger:     s.logger,
	})
}

func (s *Service) boardView(path string, v *session.View) *BoardView {
	bv := &BoardView{Path: path, Title: path, Snapshot: v.Snapshot()}
	if doc, err := s.db.GetDocument(path); err == nil && doc.Title != "" {
		bv.Title = doc.Title
	}
	return bv
}

// docLock serializes edits of one document. refs counts the callers holding
// or waiting on it; the entry is dropped when it reaches zero.
type docLock struct {
	sem  *semaphore.Weighted
	refs int
}

func (s *Service) lock(path string) *docLock {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[path]
	if !ok {
		l = &docLock{sem: semaphore.NewWeighted(1)}
		s.locks[path] = l
	}
	l.refs++
	return l
}

func (s *Service) unlock(path string, l *docLock, held bool) {
	if held {
		l.sem.Release(1)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	l.refs--
	if l.refs == 0 {
		delete(s.locks, path)
	}
}

// vaultDoc is a vault document seen through session.Document.
type vaultDoc struct {
	store   storage.Provider
	path    string
	written []byte
}

func (d *vaultDoc) Read(context.Context) ([]byte, error) {
	data, err := d.store.Read(d.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("document %s: %w", d.path, apperr.ErrNotFound)
		}
		return nil, err
	}
	return data, nil
}

func (d *vaultDoc) Write(_ context.Context, data []byte) error {
	if err := d.store.Write(d.path, data); err != nil {
		return err
	}
	d.written = data
	return nil
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
