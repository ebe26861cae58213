package badger

import (
	"testing"
	"time"

	"github.com/dgraph-io/badger/v2"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theref/dkg-coordinator/model/ritual"
	"github.com/theref/dkg-coordinator/storage"
)

func testProviders() []common.Address {
	return []common.Address{
		common.BytesToAddress([]byte{1}),
		common.BytesToAddress([]byte{2}),
		common.BytesToAddress([]byte{3}),
	}
}

func TestRitualsAppendAndRetrieve(t *testing.T) {
	runWithBadgerDB(t, func(db *badger.DB) {
		store := NewRituals(db)

		count, err := store.Count()
		require.NoError(t, err)
		assert.Zero(t, count)

		_, err = store.ByID(0)
		require.ErrorIs(t, err, storage.ErrNotFound)

		initiator := common.BytesToAddress([]byte{0xaa})
		createdAt := time.Now().UTC()

		// registry positions are assigned sequentially
		for i := 0; i < 3; i++ {
			r := ritual.NewRitual(0, initiator, initiator, testProviders(), createdAt)
			id, err := store.Append(r)
			require.NoError(t, err)
			assert.Equal(t, ritual.ID(i), id)
		}

		count, err = store.Count()
		require.NoError(t, err)
		assert.Equal(t, uint32(3), count)

		actual, err := store.ByID(1)
		require.NoError(t, err)
		assert.Equal(t, ritual.ID(1), actual.ID)
		assert.Equal(t, initiator, actual.Initiator)
		assert.Equal(t, uint32(3), actual.DKGSize)
		assert.Equal(t, uint32(2), actual.Threshold)
		assert.True(t, createdAt.Equal(actual.InitTimestamp))
		require.Len(t, actual.Participants, 3)
		assert.Equal(t, testProviders(), actual.Providers())
	})
}

func TestRitualsSave(t *testing.T) {
	runWithBadgerDB(t, func(db *badger.DB) {
		store := NewRituals(db)

		initiator := common.BytesToAddress([]byte{0xaa})
		r := ritual.NewRitual(0, initiator, initiator, testProviders(), time.Now().UTC())

		// updating a record that was never appended fails
		err := store.Save(r)
		require.ErrorIs(t, err, storage.ErrNotFound)

		_, err = store.Append(r)
		require.NoError(t, err)

		transcript := []byte("transcript bytes")
		r.TotalTranscripts = 1
		r.Participants[0].Transcript = transcript
		r.Participants[0].TranscriptDigest = ritual.TranscriptDigest(transcript)
		require.NoError(t, store.Save(r))

		actual, err := store.ByID(r.ID)
		require.NoError(t, err)
		assert.Equal(t, uint32(1), actual.TotalTranscripts)
		assert.Equal(t, transcript, actual.Participants[0].Transcript)
		assert.True(t, actual.Participants[0].PostedTranscript())
		assert.False(t, actual.Participants[1].PostedTranscript())
	})
}

func TestRitualsPublicKeyIndex(t *testing.T) {
	runWithBadgerDB(t, func(db *badger.DB) {
		store := NewRituals(db)

		var pk ritual.G1Point
		pk[0] = 0xc0

		_, err := store.ByPublicKey(pk)
		require.ErrorIs(t, err, storage.ErrNotFound)

		require.NoError(t, store.IndexByPublicKey(pk, 4))

		id, err := store.ByPublicKey(pk)
		require.NoError(t, err)
		assert.Equal(t, ritual.ID(4), id)

		// a key is published exactly once
		err = store.IndexByPublicKey(pk, 5)
		require.ErrorIs(t, err, storage.ErrAlreadyExists)
	})
}
