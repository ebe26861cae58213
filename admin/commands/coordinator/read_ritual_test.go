package coordinator_test

import (
	"context"
	"math/big"
	"testing"
	"time"

	badgerdb "github.com/dgraph-io/badger/v2"
	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theref/dkg-coordinator/admin"
	admincoordinator "github.com/theref/dkg-coordinator/admin/commands/coordinator"
	"github.com/theref/dkg-coordinator/model/ritual"
	"github.com/theref/dkg-coordinator/module/coordinator"
	"github.com/theref/dkg-coordinator/module/eligibility"
	"github.com/theref/dkg-coordinator/module/metrics"
	"github.com/theref/dkg-coordinator/module/updatable_configs"
	"github.com/theref/dkg-coordinator/state/rituals/events"
	"github.com/theref/dkg-coordinator/storage/badger"
)

func newCommand(t *testing.T) *admincoordinator.ReadRitualCommand {
	t.Helper()

	opts := badgerdb.DefaultOptions(t.TempDir()).WithLogger(nil)
	db, err := badgerdb.Open(opts)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, db.Close())
	})

	params, err := updatable_configs.NewRitualParams(time.Hour, 8, zerolog.Nop(), events.NewNoop())
	require.NoError(t, err)

	providers := []common.Address{
		common.BytesToAddress([]byte{1}),
		common.BytesToAddress([]byte{2}),
	}
	entries := make([]eligibility.Entry, 0, len(providers))
	for _, p := range providers {
		entries = append(entries, eligibility.Entry{Provider: p, Weight: big.NewInt(1)})
	}

	c := coordinator.New(
		zerolog.Nop(),
		badger.NewRituals(db),
		badger.NewProviderKeys(db),
		eligibility.NewStatic(entries),
		params,
		events.NewNoop(),
		metrics.NewNoopCollector(),
	)

	for i, p := range providers {
		var key ritual.G2Point
		key[0] = byte(i + 1)
		require.NoError(t, c.SetProviderPublicKey(p, key))
	}
	_, err = c.InitiateRitual(common.BytesToAddress([]byte{0xaa}), providers, common.Address{})
	require.NoError(t, err)

	return admincoordinator.NewReadRitualCommand(c)
}

func TestReadRitual(t *testing.T) {
	cmd := newCommand(t)

	req := &admin.CommandRequest{Data: map[string]any{"ritual": float64(0)}}
	require.NoError(t, cmd.Validator(req))

	result, err := cmd.Handler(context.Background(), req)
	require.NoError(t, err)

	res, ok := result.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, uint32(0), res["id"])
	assert.Equal(t, "AWAITING_TRANSCRIPTS", res["state"])
	assert.Equal(t, uint32(2), res["dkgSize"])
}

func TestReadRitual_Validator(t *testing.T) {
	cmd := newCommand(t)

	for name, data := range map[string]any{
		"not a map":      42,
		"missing field":  map[string]any{},
		"negative id":    map[string]any{"ritual": float64(-1)},
		"fractional id":  map[string]any{"ritual": 1.5},
		"non-numeric id": map[string]any{"ritual": "zero"},
	} {
		t.Run(name, func(t *testing.T) {
			err := cmd.Validator(&admin.CommandRequest{Data: data})
			require.Error(t, err)
			assert.True(t, admin.IsInvalidAdminReqError(err))
		})
	}
}

func TestReadRitual_UnknownRitual(t *testing.T) {
	cmd := newCommand(t)

	req := &admin.CommandRequest{Data: map[string]any{"ritual": float64(42)}}
	require.NoError(t, cmd.Validator(req))

	_, err := cmd.Handler(context.Background(), req)
	require.Error(t, err)
	assert.True(t, admin.IsInvalidAdminReqError(err))
}
