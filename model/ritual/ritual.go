// Package ritual contains the data model of the DKG ritual coordinator: the
// Ritual record with its fixed participant set, and the pure function deriving
// a ritual's lifecycle state from its stored fields.
package ritual

import (
	"bytes"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// ID identifies a ritual. It is the ritual's ordinal position in the registry.
type ID uint32

// Ritual is the record of one DKG run among a fixed participant set. The
// identity fields (ID, Initiator, Authority, DKGSize, InitTimestamp,
// Participants membership) are immutable after creation; the progress fields
// are mutated only by the coordinator's two admission entry points.
type Ritual struct {
	ID        ID
	Initiator common.Address

	// Authority is the identity permitted to manage access-control settings
	// for this ritual. It defaults to the initiator.
	Authority common.Address

	// InitTimestamp is the creation time. The zero value is reserved to mean
	// the ritual does not exist.
	InitTimestamp time.Time

	// DKGSize is the fixed cardinality of the participant set.
	DKGSize uint32

	// Threshold is the number of shares required to decrypt under the ritual
	// key (1 + DKGSize/2).
	Threshold uint32

	// TotalTranscripts and TotalAggregations are monotonically increasing
	// counters, each bounded above by DKGSize.
	TotalTranscripts  uint32
	TotalAggregations uint32

	// AggregatedTranscriptDigest is the commitment established by the first
	// aggregation submission. All subsequent submissions must match it
	// exactly. Zero until the first submission.
	AggregatedTranscriptDigest common.Hash

	// CandidatePublicKey is the ritual public key proposed by the first
	// aggregation submission. It is promoted to PublicKey at finalization.
	CandidatePublicKey *G1Point

	// AggregationMismatch is a one-way flag recording disagreement between
	// aggregation submissions. Once set it is never cleared.
	AggregationMismatch bool

	// PublicKey and AggregatedTranscript are the ritual's permanent result,
	// populated exactly once, when the last aggregation completes.
	PublicKey            *G1Point
	AggregatedTranscript []byte

	// Participants is sorted by provider address ascending, with no
	// duplicates. The ordering is enforced at creation and never changes.
	Participants []*Participant
}

// Participant is one member of a ritual's participant set.
type Participant struct {
	Provider common.Address

	// TranscriptDigest and Transcript record the provider's first-round
	// contribution. Both are empty until the first submission and are
	// write-once: resubmission is rejected, not overwritten.
	TranscriptDigest common.Hash
	Transcript       []byte

	// Aggregated records the provider's attestation to the combined result.
	// False until the provider's aggregation submission, then true forever.
	Aggregated bool

	// DecryptionRequestStaticKey is the static key under which the provider
	// accepts decryption requests, carried with the aggregation submission.
	DecryptionRequestStaticKey []byte
}

// PostedTranscript returns true if the participant has submitted its
// transcript.
func (p *Participant) PostedTranscript() bool {
	return p.TranscriptDigest != (common.Hash{})
}

// NewRitual allocates a new ritual record for the given providers. The caller
// is responsible for validating the provider list (see ValidateProviders) and
// for assigning the registry position.
func NewRitual(id ID, initiator, authority common.Address, providers []common.Address, now time.Time) *Ritual {
	participants := make([]*Participant, 0, len(providers))
	for _, provider := range providers {
		participants = append(participants, &Participant{Provider: provider})
	}
	return &Ritual{
		ID:            id,
		Initiator:     initiator,
		Authority:     authority,
		InitTimestamp: now,
		DKGSize:       uint32(len(providers)),
		Threshold:     1 + uint32(len(providers))/2,
		Participants:  participants,
	}
}

// Participant maps a provider address to its participant record within the
// ritual, by linear scan over the fixed-size list. Absence is a hard error:
// it indicates either a misrouted call or an ineligible caller impersonating
// a round participant.
func (r *Ritual) Participant(provider common.Address) (*Participant, error) {
	for _, p := range r.Participants {
		if p.Provider == provider {
			return p, nil
		}
	}
	return nil, ParticipantNotFoundError{RitualID: r.ID, Provider: provider}
}

// Providers returns the ordered provider addresses of the participant set.
func (r *Ritual) Providers() []common.Address {
	providers := make([]common.Address, 0, len(r.Participants))
	for _, p := range r.Participants {
		providers = append(providers, p.Provider)
	}
	return providers
}

// Deadline returns the time after which the ritual times out, for the given
// global timeout value. The timeout is evaluated against its current value on
// every read, never against the value at ritual creation.
func (r *Ritual) Deadline(timeout time.Duration) time.Time {
	return r.InitTimestamp.Add(timeout)
}

// ValidateProviders checks a candidate provider list for ritual creation:
// the list must be non-empty, must not exceed maxSize, and must be strictly
// ascending by address. Out-of-order or duplicate input is rejected, not
// sorted.
func ValidateProviders(providers []common.Address, maxSize uint32) error {
	if len(providers) == 0 || uint32(len(providers)) > maxSize {
		return InvalidProvidersError{Msg: "invalid number of nodes"}
	}
	var previous common.Address
	for i, provider := range providers {
		if i > 0 && bytes.Compare(previous.Bytes(), provider.Bytes()) >= 0 {
			return InvalidProvidersError{Msg: "providers must be sorted"}
		}
		previous = provider
	}
	return nil
}

// TranscriptDigest returns the keccak-256 commitment digest of a transcript.
func TranscriptDigest(transcript []byte) common.Hash {
	return crypto.Keccak256Hash(transcript)
}
