package metrics

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImport_Counters(t *testing.T) {
	m := New()

	m.FilesParsed.WithLabelValues("csv").Inc()
	m.FilesParsed.WithLabelValues("csv").Inc()
	m.Commits.WithLabelValues("succeeded").Inc()
	m.Conflicts.Add(3)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.FilesParsed.WithLabelValues("csv")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Commits.WithLabelValues("succeeded")))
	assert.Equal(t, float64(3), testutil.ToFloat64(m.Conflicts))
}

func TestImport_RegistriesAreIndependent(t *testing.T) {
	a, b := New(), New()
	a.Conflicts.Inc()
	assert.Equal(t, float64(0), testutil.ToFloat64(b.Conflicts))
}

func TestImport_WriteTextfile(t *testing.T) {
	m := New()
	m.TransactionsSent.WithLabelValues("added").Add(4)

	path := filepath.Join(t.TempDir(), "import.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `ledger_import_transactions_total{op="added"} 4`)
}
