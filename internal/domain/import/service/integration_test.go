package service

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/ledger-import/internal/domain/import/parser"
	"github.com/FACorreiaa/ledger-import/internal/domain/import/repository"
	"github.com/FACorreiaa/ledger-import/internal/domain/import/settings"
	"github.com/FACorreiaa/ledger-import/pkg/db"
	"github.com/FACorreiaa/ledger-import/pkg/metrics"
	"github.com/FACorreiaa/ledger-import/pkg/money"
)

// TestImport_Postgres runs a full import twice against a real ledger. Set
// LEDGER_TEST_DSN to a disposable database to run it.
func TestImport_Postgres(t *testing.T) {
	dsn := os.Getenv("LEDGER_TEST_DSN")
	if dsn == "" {
		t.Skip("LEDGER_TEST_DSN not set")
	}

	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	database, err := db.New(db.Config{DSN: dsn, MaxConns: 4}, logger)
	require.NoError(t, err)
	t.Cleanup(database.Close)
	require.NoError(t, database.RunMigrations())

	ledger := repository.NewPostgresLedger(database.Pool, logger, 0)
	prefs, err := repository.NewSQLiteSettings(ctx, filepath.Join(t.TempDir(), "prefs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { prefs.Close() })

	accountID, err := ledger.CreateAccount(ctx, repository.NewAccount{Name: "Integration Checking"})
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = database.Pool.Exec(context.Background(), `DELETE FROM transactions WHERE account_id = $1`, accountID)
		_, _ = database.Pool.Exec(context.Background(), `DELETE FROM accounts WHERE id = $1`, accountID)
	})

	gen := money.NewTestDataGeneratorWithSeed(2024)
	lines := gen.Lines(25)
	data := []byte(money.DelimitedStatement(lines, money.USD))

	svc := NewImportService(ledger, prefs, Config{Currency: money.USD, LookupWorkers: 4}, metrics.New(), logger)

	t.Run("first import adds every line", func(t *testing.T) {
		sess := NewSession()
		defer sess.Close()

		require.NoError(t, svc.Open(ctx, sess, "statement.csv", data, &accountID))
		result, err := svc.CommitSession(ctx, sess)
		require.NoError(t, err)
		assert.Len(t, result.Added, len(lines))
		assert.True(t, result.Changed)
	})

	t.Run("stored settings carry the inferred mapping", func(t *testing.T) {
		stored, err := settings.Load(ctx, prefs, &accountID, parser.FileCSV)
		require.NoError(t, err)
		require.NotNil(t, stored.Mapping)
		assert.Equal(t, "amount", stored.Mapping.Amount)
	})

	t.Run("second import reconciles against the first", func(t *testing.T) {
		sess := NewSession()
		defer sess.Close()

		require.NoError(t, svc.Open(ctx, sess, "statement.csv", data, &accountID))
		for _, r := range sess.Snapshot().Rows {
			if !r.MatchedExisting {
				assert.True(t, r.Existing, "transaction %d should match", r.TransientID)
			}
		}

		result, err := svc.CommitSession(ctx, sess)
		require.NoError(t, err)
		assert.Empty(t, result.Added)
	})
}
