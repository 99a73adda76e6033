package storage

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned for statements missing from the archive.
var ErrNotFound = errors.New("statement not found")

// LocalStorage implements Storage using the local filesystem
type LocalStorage struct {
	basePath string
	now      func() time.Time
}

// NewLocalStorage creates the archive directory when needed
func NewLocalStorage(basePath string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create archive directory: %w", err)
	}
	return &LocalStorage{basePath: basePath, now: time.Now}, nil
}

// Put copies r into the scope directory next to a JSON metadata file
func (s *LocalStorage) Put(ctx context.Context, info FileInfo, r io.Reader) (*FileInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if info.Scope == "" {
		return nil, errors.New("archive scope is required")
	}

	info.ID = uuid.New()
	info.CreatedAt = s.now().UTC()
	info.Path = fmt.Sprintf("%s_%s", info.ID.String()[:8], sanitizeFilename(info.Name))

	dir := s.scopeDir(info.Scope)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create scope directory: %w", err)
	}

	filePath := filepath.Join(dir, info.Path)
	f, err := os.Create(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	size, err := io.Copy(f, r)
	if err != nil {
		os.Remove(filePath)
		return nil, fmt.Errorf("failed to write file: %w", err)
	}
	info.Size = size

	if err := s.saveMetadata(&info); err != nil {
		os.Remove(filePath)
		return nil, err
	}
	return &info, nil
}

// Open returns the archived statement and its metadata
func (s *LocalStorage) Open(ctx context.Context, scope string, fileID uuid.UUID) (io.ReadCloser, *FileInfo, error) {
	info, err := s.getInfo(scope, fileID)
	if err != nil {
		return nil, nil, err
	}

	f, err := os.Open(filepath.Join(s.scopeDir(scope), info.Path))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open file: %w", err)
	}
	return f, info, nil
}

// List returns the statements archived for scope
func (s *LocalStorage) List(ctx context.Context, scope string) ([]*FileInfo, error) {
	metaDir := filepath.Join(s.scopeDir(scope), ".meta")
	entries, err := os.ReadDir(metaDir)
	if errors.Is(err, os.ErrNotExist) {
		return []*FileInfo{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list metadata: %w", err)
	}

	files := make([]*FileInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		id, err := uuid.Parse(strings.TrimSuffix(entry.Name(), ".json"))
		if err != nil {
			continue
		}
		info, err := s.getInfo(scope, id)
		if err != nil {
			continue
		}
		files = append(files, info)
	}

	slices.SortFunc(files, func(a, b *FileInfo) int {
		return cmp.Or(a.CreatedAt.Compare(b.CreatedAt), strings.Compare(a.Path, b.Path))
	})
	return files, nil
}

// Delete removes a statement and its metadata
func (s *LocalStorage) Delete(ctx context.Context, scope string, fileID uuid.UUID) error {
	info, err := s.getInfo(scope, fileID)
	if err != nil {
		return err
	}

	if err := os.Remove(filepath.Join(s.scopeDir(scope), info.Path)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	if err := os.Remove(s.metaPath(scope, fileID)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete metadata: %w", err)
	}
	return nil
}

func (s *LocalStorage) getInfo(scope string, fileID uuid.UUID) (*FileInfo, error) {
	data, err := os.ReadFile(s.metaPath(scope, fileID))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, fileID)
		}
		return nil, fmt.Errorf("failed to read metadata: %w", err)
	}

	var info FileInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("failed to parse metadata: %w", err)
	}
	return &info, nil
}

func (s *LocalStorage) saveMetadata(info *FileInfo) error {
	metaDir := filepath.Join(s.scopeDir(info.Scope), ".meta")
	if err := os.MkdirAll(metaDir, 0o755); err != nil {
		return fmt.Errorf("failed to create metadata directory: %w", err)
	}

	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}
	if err := os.WriteFile(s.metaPath(info.Scope, info.ID), data, 0o644); err != nil {
		return fmt.Errorf("failed to write metadata: %w", err)
	}
	return nil
}

func (s *LocalStorage) scopeDir(scope string) string {
	return filepath.Join(s.basePath, sanitizeFilename(scope))
}

func (s *LocalStorage) metaPath(scope string, fileID uuid.UUID) string {
	return filepath.Join(s.scopeDir(scope), ".meta", fileID.String()+".json")
}

// sanitizeFilename removes unsafe characters from filenames
func sanitizeFilename(name string) string {
	replacer := strings.NewReplacer(
		"/", "_",
		"\\", "_",
		"..", "_",
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
	)
	return replacer.Replace(name)
}
