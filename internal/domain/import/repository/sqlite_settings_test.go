package repository

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteSettings(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "prefs.db")

	store, err := NewSQLiteSettings(ctx, path)
	require.NoError(t, err)

	prefs, err := store.Load(ctx, []string{"csv-delimiter-all"})
	require.NoError(t, err)
	assert.Empty(t, prefs)

	require.NoError(t, store.Save(ctx, map[string]string{
		"csv-delimiter-all":  ";",
		"csv-has-header-all": "true",
	}))
	require.NoError(t, store.Save(ctx, map[string]string{"csv-delimiter-all": "\t"}))

	prefs, err = store.Load(ctx, []string{"csv-delimiter-all", "csv-has-header-all", "missing"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"csv-delimiter-all": "\t", "csv-has-header-all": "true"}, prefs)
	require.NoError(t, store.Close())

	reopened, err := NewSQLiteSettings(ctx, path)
	require.NoError(t, err)
	defer reopened.Close()

	prefs, err = reopened.Load(ctx, []string{"csv-has-header-all"})
	require.NoError(t, err)
	assert.Equal(t, "true", prefs["csv-has-header-all"])

	prefs, err = reopened.Load(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, prefs)
}
