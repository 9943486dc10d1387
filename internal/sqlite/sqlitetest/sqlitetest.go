// Package sqlitetest opens migrated SQLite backends for tests.
package sqlitetest

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/mesh-intelligence/strata/internal/sqlite"
	"github.com/mesh-intelligence/strata/pkg/types"
)

// New opens a SQLite backend in a temporary directory with every migration
// applied. The backend is closed when the test ends.
func New(t testing.TB) *sqlite.Backend {
	t.Helper()
	b, err := sqlite.Open(types.Config{
		Backend: types.BackendSQLite,
		DataDir: t.TempDir(),
	}, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { b.Close() })
	require.NoError(t, b.MigrateUp())
	return b
}
