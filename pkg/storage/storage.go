// Package storage archives the statement files of committed imports.
package storage

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
)

// FileInfo describes an archived statement
type FileInfo struct {
	ID        uuid.UUID `json:"id"`
	Scope     string    `json:"scope"` // account id, or "all"
	Name      string    `json:"name"`
	FileType  string    `json:"file_type"`
	Size      int64     `json:"size"`
	Path      string    `json:"path"` // relative to the scope directory
	Added     int       `json:"added"`
	Updated   int       `json:"updated"`
	CreatedAt time.Time `json:"created_at"`
}

// Storage defines the statement archive operations
type Storage interface {
	// Put stores a statement and returns its metadata
	Put(ctx context.Context, info FileInfo, r io.Reader) (*FileInfo, error)

	// Open returns a reader for an archived statement
	Open(ctx context.Context, scope string, fileID uuid.UUID) (io.ReadCloser, *FileInfo, error)

	// List returns the statements of a scope, oldest first
	List(ctx context.Context, scope string) ([]*FileInfo, error)

	Delete(ctx context.Context, scope string, fileID uuid.UUID) error
}
