package badger

import (
	"testing"

	"github.com/dgraph-io/badger/v2"
	"github.com/stretchr/testify/require"
)

// runWithBadgerDB runs the test function against a throwaway badger database.
func runWithBadgerDB(t *testing.T, f func(db *badger.DB)) {
	t.Helper()
	opts := badger.DefaultOptions(t.TempDir()).WithLogger(nil)
	db, err := badger.Open(opts)
	require.NoError(t, err)
	defer func() {
		require.NoError(t, db.Close())
	}()
	f(db)
}
