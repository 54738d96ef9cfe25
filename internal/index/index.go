package index

import "github.com/starford/kanbo/internal/models"

// BoardIndex is what the service and API layers need from the index.
// Consumers depend on it rather than on *DB so tests can substitute it.
type BoardIndex interface {
	UpsertDocument(doc models.Document, boards []BoardRow) error
	DeleteDocument(path string) error
	GetChecksum(path string) (string, error)
	AllChecksums() (map[string]string, error)
	GetDocument(path string) (*models.Document, error)
	ListBoards(prefix string) ([]models.BoardSummary, error)
	BoardTasks(path string, block int) ([]models.TaskRecord, error)
	RunningTimers() ([]models.TaskRecord, error)
	Search(query string, limit int) ([]SearchResult, error)
	Close() error
}

// Verify *DB satisfies BoardIndex at compile time.
var _ BoardIndex = (*DB)(nil)
