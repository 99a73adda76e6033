package storage

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newArchive(t *testing.T) *LocalStorage {
	t.Helper()
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	clock := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	return s
}

func TestLocalStorage_PutOpen(t *testing.T) {
	s := newArchive(t)
	ctx := context.Background()

	info, err := s.Put(ctx, FileInfo{Scope: "all", Name: "../bank.ofx", FileType: "ofx", Added: 2}, strings.NewReader("<OFX>"))
	require.NoError(t, err)
	assert.Equal(t, int64(5), info.Size)
	assert.NotContains(t, info.Path, "/")
	assert.Equal(t, 2, info.Added)

	rc, got, err := s.Open(ctx, "all", info.ID)
	require.NoError(t, err)
	defer rc.Close()

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "<OFX>", string(data))
	assert.Equal(t, *info, *got)
}

func TestLocalStorage_ListAndDelete(t *testing.T) {
	s := newArchive(t)
	ctx := context.Background()

	empty, err := s.List(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, empty)

	first, err := s.Put(ctx, FileInfo{Scope: "acct", Name: "jan.csv"}, strings.NewReader("a"))
	require.NoError(t, err)
	second, err := s.Put(ctx, FileInfo{Scope: "acct", Name: "feb.csv"}, strings.NewReader("b"))
	require.NoError(t, err)
	_, err = s.Put(ctx, FileInfo{Scope: "other", Name: "mar.csv"}, strings.NewReader("c"))
	require.NoError(t, err)

	files, err := s.List(ctx, "acct")
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, first.ID, files[0].ID)
	assert.Equal(t, second.ID, files[1].ID)

	require.NoError(t, s.Delete(ctx, "acct", first.ID))
	files, err = s.List(ctx, "acct")
	require.NoError(t, err)
	require.Len(t, files, 1)

	_, _, err = s.Open(ctx, "acct", first.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.Delete(ctx, "acct", uuid.New()), ErrNotFound)
}

func TestLocalStorage_PutRequiresScope(t *testing.T) {
	s := newArchive(t)
	_, err := s.Put(context.Background(), FileInfo{Name: "x.csv"}, strings.NewReader(""))
	assert.Error(t, err)
}
