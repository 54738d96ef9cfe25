// Package storage defines the vault file-system abstraction.
package storage

import "github.com/starford/kanbo/internal/models"

// Provider is the vault as the board service sees it: Markdown documents
// addressed by slash-separated paths relative to the vault root.
type Provider interface {
	// List returns metadata for every Markdown file under dir (relative to
	// vault root).
	List(dir string) ([]models.DocumentMeta, error)
	// Read returns the raw bytes of the file at path (relative to vault root).
	Read(path string) ([]byte, error)
	// Write atomically writes content to path (relative to vault root),
	// creating parent directories.
	Write(path string, content []byte) error
}
