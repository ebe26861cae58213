package coordinator_test

import (
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/theref/dkg-coordinator/model/ritual"
	"github.com/theref/dkg-coordinator/module/coordinator"
	"github.com/theref/dkg-coordinator/module/metrics"
	"github.com/theref/dkg-coordinator/module/updatable_configs"
	"github.com/theref/dkg-coordinator/storage"
)

/*~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~
In-memory registry
~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~*/

// memRituals is an in-memory storage.Rituals used in place of the badger
// registry. Reads return deep copies, so unsaved mutations are not persisted,
// matching the database-backed semantics.
type memRituals struct {
	mu      sync.Mutex
	rituals []*ritual.Ritual
	pkIndex map[ritual.G1Point]ritual.ID
}

var _ storage.Rituals = (*memRituals)(nil)

func newMemRituals() *memRituals {
	return &memRituals{pkIndex: make(map[ritual.G1Point]ritual.ID)}
}

func (m *memRituals) Count() (uint32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return uint32(len(m.rituals)), nil
}

func (m *memRituals) Append(r *ritual.Ritual) (ritual.ID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := ritual.ID(len(m.rituals))
	r.ID = id
	m.rituals = append(m.rituals, copyRitual(r))
	return id, nil
}

func (m *memRituals) ByID(id ritual.ID) (*ritual.Ritual, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if int(id) >= len(m.rituals) {
		return nil, storage.ErrNotFound
	}
	return copyRitual(m.rituals[id]), nil
}

func (m *memRituals) Save(r *ritual.Ritual) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if int(r.ID) >= len(m.rituals) {
		return storage.ErrNotFound
	}
	m.rituals[r.ID] = copyRitual(r)
	return nil
}

func (m *memRituals) IndexByPublicKey(pk ritual.G1Point, id ritual.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.pkIndex[pk]; exists {
		return storage.ErrAlreadyExists
	}
	m.pkIndex[pk] = id
	return nil
}

func (m *memRituals) ByPublicKey(pk ritual.G1Point) (ritual.ID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.pkIndex[pk]
	if !ok {
		return 0, storage.ErrNotFound
	}
	return id, nil
}

func copyRitual(r *ritual.Ritual) *ritual.Ritual {
	out := *r
	if r.CandidatePublicKey != nil {
		pk := *r.CandidatePublicKey
		out.CandidatePublicKey = &pk
	}
	if r.PublicKey != nil {
		pk := *r.PublicKey
		out.PublicKey = &pk
	}
	out.AggregatedTranscript = append([]byte(nil), r.AggregatedTranscript...)
	out.Participants = make([]*ritual.Participant, 0, len(r.Participants))
	for _, p := range r.Participants {
		cp := *p
		cp.Transcript = append([]byte(nil), p.Transcript...)
		cp.DecryptionRequestStaticKey = append([]byte(nil), p.DecryptionRequestStaticKey...)
		out.Participants = append(out.Participants, &cp)
	}
	return &out
}

// memProviderKeys is an in-memory storage.ProviderKeys.
type memProviderKeys struct {
	mu   sync.Mutex
	keys map[common.Address]struct {
		key        ritual.G2Point
		fromRitual ritual.ID
	}
}

var _ storage.ProviderKeys = (*memProviderKeys)(nil)

func newMemProviderKeys() *memProviderKeys {
	return &memProviderKeys{keys: make(map[common.Address]struct {
		key        ritual.G2Point
		fromRitual ritual.ID
	})}
}

func (m *memProviderKeys) Set(provider common.Address, key ritual.G2Point, fromRitual ritual.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keys[provider] = struct {
		key        ritual.G2Point
		fromRitual ritual.ID
	}{key, fromRitual}
	return nil
}

func (m *memProviderKeys) Get(provider common.Address, id ritual.ID) (ritual.G2Point, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.keys[provider]
	if !ok || id < entry.fromRitual {
		return ritual.G2Point{}, storage.ErrNotFound
	}
	return entry.key, nil
}

func (m *memProviderKeys) Exists(provider common.Address) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.keys[provider]
	return ok, nil
}

/*~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~
Eligibility oracle stub
~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~*/

// stubOracle resolves operators to providers and serves authorization
// weights from fixed maps. Operators without an explicit mapping resolve to
// themselves when they carry weight, mirroring self-operated providers.
type stubOracle struct {
	mu        sync.Mutex
	weights   map[common.Address]*big.Int
	operators map[common.Address]common.Address
}

func newStubOracle() *stubOracle {
	return &stubOracle{
		weights:   make(map[common.Address]*big.Int),
		operators: make(map[common.Address]common.Address),
	}
}

func (o *stubOracle) authorize(provider common.Address, weight int64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.weights[provider] = big.NewInt(weight)
}

func (o *stubOracle) bond(operator, provider common.Address) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.operators[operator] = provider
}

func (o *stubOracle) AuthorizedWeight(provider common.Address) (*big.Int, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	weight, ok := o.weights[provider]
	if !ok {
		return big.NewInt(0), nil
	}
	return weight, nil
}

func (o *stubOracle) ResolveProvider(operator common.Address) (common.Address, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if provider, ok := o.operators[operator]; ok {
		return provider, nil
	}
	if _, ok := o.weights[operator]; ok {
		return operator, nil
	}
	return common.Address{}, nil
}

/*~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~
Recording consumer
~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~*/

type event struct {
	name   string
	id     ritual.ID
	node   common.Address
	digest common.Hash
	state  ritual.State
}

// recordingConsumer records every notification for assertions.
type recordingConsumer struct {
	mu     sync.Mutex
	events []event
}

func (r *recordingConsumer) record(ev event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recordingConsumer) byName(name string) []event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []event
	for _, ev := range r.events {
		if ev.name == name {
			out = append(out, ev)
		}
	}
	return out
}

func (r *recordingConsumer) RitualStarted(id ritual.ID, initiator, authority common.Address, participants []common.Address) {
	r.record(event{name: "RitualStarted", id: id, node: authority})
}

func (r *recordingConsumer) TranscriptRoundStarted(id ritual.ID) {
	r.record(event{name: "TranscriptRoundStarted", id: id})
}

func (r *recordingConsumer) TranscriptPosted(id ritual.ID, node common.Address, digest common.Hash) {
	r.record(event{name: "TranscriptPosted", id: id, node: node, digest: digest})
}

func (r *recordingConsumer) AggregationRoundStarted(id ritual.ID) {
	r.record(event{name: "AggregationRoundStarted", id: id})
}

func (r *recordingConsumer) AggregationPosted(id ritual.ID, node common.Address, digest common.Hash) {
	r.record(event{name: "AggregationPosted", id: id, node: node, digest: digest})
}

func (r *recordingConsumer) RitualEnded(id ritual.ID, finalState ritual.State) {
	r.record(event{name: "RitualEnded", id: id, state: finalState})
}

func (r *recordingConsumer) ParticipantPublicKeySet(fromRitual ritual.ID, participant common.Address, key ritual.G2Point) {
	r.record(event{name: "ParticipantPublicKeySet", id: fromRitual, node: participant})
}

func (r *recordingConsumer) ParameterChanged(name string, oldValue, newValue any) {
	r.record(event{name: "ParameterChanged"})
}

/*~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~
Fixture
~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~*/

const testRitualTimeout = 100 * time.Second

type fixture struct {
	coordinator *coordinator.Coordinator
	rituals     *memRituals
	keys        *memProviderKeys
	oracle      *stubOracle
	consumer    *recordingConsumer
	params      *updatable_configs.RitualParams

	mu  sync.Mutex
	now time.Time

	initiator common.Address
	providers []common.Address
}

// advance moves the fixture clock forward.
func (f *fixture) advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

func (f *fixture) clock() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// newFixture builds a coordinator over in-memory storage with three
// authorized providers, each with a public key on record.
func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		rituals:   newMemRituals(),
		keys:      newMemProviderKeys(),
		oracle:    newStubOracle(),
		consumer:  &recordingConsumer{},
		now:       time.Now(),
		initiator: common.BytesToAddress([]byte{0xaa}),
		providers: []common.Address{
			common.BytesToAddress([]byte{1}),
			common.BytesToAddress([]byte{2}),
			common.BytesToAddress([]byte{3}),
		},
	}

	params, err := updatable_configs.NewRitualParams(testRitualTimeout, 8, zerolog.Nop(), f.consumer)
	require.NoError(t, err)
	f.params = params

	f.coordinator = coordinator.New(
		zerolog.Nop(),
		f.rituals,
		f.keys,
		f.oracle,
		params,
		f.consumer,
		metrics.NewNoopCollector(),
		coordinator.WithClock(f.clock),
	)

	for i, provider := range f.providers {
		f.oracle.authorize(provider, 42)
		var key ritual.G2Point
		key[0] = byte(i + 1)
		require.NoError(t, f.coordinator.SetProviderPublicKey(provider, key))
	}

	return f
}

// initiate creates a ritual with the fixture's default providers.
func (f *fixture) initiate(t *testing.T) ritual.ID {
	t.Helper()
	id, err := f.coordinator.InitiateRitual(f.initiator, f.providers, f.initiator)
	require.NoError(t, err)
	return id
}

// postAllTranscripts moves the ritual into the aggregation round.
func (f *fixture) postAllTranscripts(t *testing.T, id ritual.ID, transcript []byte) {
	t.Helper()
	for _, provider := range f.providers {
		require.NoError(t, f.coordinator.PostTranscript(provider, id, transcript))
	}
}

func staticKey(b byte) []byte {
	key := make([]byte, coordinator.DecryptionRequestStaticKeyLength)
	key[0] = b
	return key
}
