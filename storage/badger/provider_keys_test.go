package badger

import (
	"testing"

	"github.com/dgraph-io/badger/v2"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theref/dkg-coordinator/model/ritual"
	"github.com/theref/dkg-coordinator/storage"
)

func TestProviderKeys(t *testing.T) {
	runWithBadgerDB(t, func(db *badger.DB) {
		store := NewProviderKeys(db)
		provider := common.BytesToAddress([]byte{7})

		exists, err := store.Exists(provider)
		require.NoError(t, err)
		assert.False(t, exists)

		_, err = store.Get(provider, 0)
		require.ErrorIs(t, err, storage.ErrNotFound)

		var key ritual.G2Point
		key[0] = 0xb0
		require.NoError(t, store.Set(provider, key, 2))

		exists, err = store.Exists(provider)
		require.NoError(t, err)
		assert.True(t, exists)

		// the key applies from ritual 2 onwards
		_, err = store.Get(provider, 1)
		require.ErrorIs(t, err, storage.ErrNotFound)

		actual, err := store.Get(provider, 2)
		require.NoError(t, err)
		assert.Equal(t, key, actual)

		actual, err = store.Get(provider, 9)
		require.NoError(t, err)
		assert.Equal(t, key, actual)

		// setting again overwrites the previous binding
		var rotated ritual.G2Point
		rotated[0] = 0xb1
		require.NoError(t, store.Set(provider, rotated, 5))

		actual, err = store.Get(provider, 5)
		require.NoError(t, err)
		assert.Equal(t, rotated, actual)
	})
}
