package ritual

import (
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func addr(b byte) common.Address {
	return common.BytesToAddress([]byte{b})
}

func TestValidateProviders(t *testing.T) {
	sorted := []common.Address{addr(1), addr(2), addr(3)}

	t.Run("valid list", func(t *testing.T) {
		require.NoError(t, ValidateProviders(sorted, 8))
	})

	t.Run("empty list", func(t *testing.T) {
		err := ValidateProviders(nil, 8)
		require.True(t, IsInvalidProvidersError(err))
		assert.EqualError(t, err, "invalid number of nodes")
	})

	t.Run("oversized list", func(t *testing.T) {
		err := ValidateProviders(sorted, 2)
		require.True(t, IsInvalidProvidersError(err))
		assert.EqualError(t, err, "invalid number of nodes")
	})

	t.Run("out of order", func(t *testing.T) {
		err := ValidateProviders([]common.Address{addr(2), addr(1), addr(3)}, 8)
		require.True(t, IsInvalidProvidersError(err))
		assert.EqualError(t, err, "providers must be sorted")
	})

	t.Run("duplicate", func(t *testing.T) {
		err := ValidateProviders([]common.Address{addr(1), addr(1), addr(2)}, 8)
		require.True(t, IsInvalidProvidersError(err))
		assert.EqualError(t, err, "providers must be sorted")
	})
}

func TestNewRitual(t *testing.T) {
	providers := []common.Address{addr(1), addr(2), addr(3), addr(4), addr(5)}
	initiator := addr(0xaa)
	authority := addr(0xbb)
	now := time.Now()

	r := NewRitual(7, initiator, authority, providers, now)
	assert.Equal(t, ID(7), r.ID)
	assert.Equal(t, initiator, r.Initiator)
	assert.Equal(t, authority, r.Authority)
	assert.Equal(t, now, r.InitTimestamp)
	assert.Equal(t, uint32(5), r.DKGSize)
	assert.Equal(t, uint32(3), r.Threshold)
	assert.Zero(t, r.TotalTranscripts)
	assert.Zero(t, r.TotalAggregations)
	assert.False(t, r.AggregationMismatch)
	assert.Equal(t, providers, r.Providers())

	for _, p := range r.Participants {
		assert.False(t, p.Aggregated)
		assert.False(t, p.PostedTranscript())
		assert.Empty(t, p.Transcript)
	}
}

func TestRitualParticipantLookup(t *testing.T) {
	providers := []common.Address{addr(1), addr(2), addr(3)}
	r := NewRitual(0, addr(0xaa), addr(0xaa), providers, time.Now())

	for _, provider := range providers {
		p, err := r.Participant(provider)
		require.NoError(t, err)
		require.Equal(t, provider, p.Provider)
	}

	_, err := r.Participant(addr(9))
	require.Error(t, err)
	require.True(t, IsParticipantNotFoundError(err))
}
