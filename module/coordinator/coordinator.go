// Package coordinator implements the ritual coordination state machine: it
// admits participant commitments into the ritual registry, derives ritual
// lifecycle states from the recorded facts, detects disagreement between
// participants, and finalizes the shared key material.
//
// Every state transition is computable identically by any observer given the
// same recorded facts: the registry is the only ground truth, and lifecycle
// states are derived on demand, never stored.
package coordinator

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"

	"github.com/theref/dkg-coordinator/model/ritual"
	"github.com/theref/dkg-coordinator/module"
	"github.com/theref/dkg-coordinator/module/updatable_configs"
	"github.com/theref/dkg-coordinator/state/rituals"
	"github.com/theref/dkg-coordinator/storage"
)

// DecryptionRequestStaticKeyLength is the expected byte length of a
// participant's decryption request static key.
const DecryptionRequestStaticKeyLength = 42

// Coordinator tracks ritual lifecycles. State-mutating operations (creation,
// transcript admission, aggregation admission) are serialized per ritual;
// derived-state reads are pure and may run concurrently without limit.
//
// No operation blocks waiting for other participants: each admission either
// succeeds immediately, is rejected immediately, or invalidates the ritual
// immediately. Timeout is a lazily evaluated predicate recomputed on every
// state read; no timer or background sweep exists.
type Coordinator struct {
	log          zerolog.Logger
	rituals      storage.Rituals
	providerKeys storage.ProviderKeys
	oracle       module.EligibilityOracle
	params       *updatable_configs.RitualParams
	consumer     rituals.Consumer
	metrics      module.CoordinatorMetrics
	now          func() time.Time

	// mu serializes registry-length-sensitive writes (ritual creation,
	// key registration). locks is a fixed stripe of writer locks keyed by
	// id%lockStripes, so it cannot grow with the number of ritual IDs
	// ever submitted to; each ritual has one exclusive writer at a time,
	// and unrelated rituals may share a stripe.
	mu    sync.Mutex
	locks [lockStripes]sync.Mutex
}

const lockStripes = 64

// Option applies an optional configuration to the Coordinator.
type Option func(*Coordinator)

// WithClock overrides the time source, used by tests to control deadlines.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) {
		c.now = now
	}
}

// New instantiates a ritual coordinator on top of the given registry.
func New(
	log zerolog.Logger,
	ritualStore storage.Rituals,
	providerKeys storage.ProviderKeys,
	oracle module.EligibilityOracle,
	params *updatable_configs.RitualParams,
	consumer rituals.Consumer,
	metrics module.CoordinatorMetrics,
	opts ...Option,
) *Coordinator {
	c := &Coordinator{
		log:          log.With().Str("component", "coordinator").Logger(),
		rituals:      ritualStore,
		providerKeys: providerKeys,
		oracle:       oracle,
		params:       params,
		consumer:     consumer,
		metrics:      metrics,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

/*~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~
Ritual creation
~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~*/

// InitiateRitual allocates a new ritual for the given provider list and
// returns its registry position. The provider list must be strictly ascending
// by address with no duplicates; every provider must have set its public key
// and must be backed by positive authorization weight. A failed precondition
// aborts the whole creation: no partial participant list is ever persisted.
//
// The authority defaults to the initiator when the zero address is given.
func (c *Coordinator) InitiateRitual(initiator common.Address, providers []common.Address, authority common.Address) (ritual.ID, error) {
	if authority == (common.Address{}) {
		authority = initiator
	}

	err := ritual.ValidateProviders(providers, c.params.MaxDkgSize())
	if err != nil {
		c.metrics.AdmissionRejected()
		return 0, err
	}

	// every candidate is checked independently; all failures are reported
	var merr *multierror.Error
	for _, provider := range providers {
		err := c.checkEligible(provider)
		if err != nil {
			merr = multierror.Append(merr, err)
		}
	}
	if err := merr.ErrorOrNil(); err != nil {
		c.metrics.AdmissionRejected()
		return 0, err
	}

	// creations are serialized so that the registry position assigned by the
	// storage layer matches the registry length observed by concurrent reads
	c.mu.Lock()
	r := ritual.NewRitual(0, initiator, authority, providers, c.now())
	id, err := c.rituals.Append(r)
	c.mu.Unlock()
	if err != nil {
		return 0, fmt.Errorf("could not append ritual to registry: %w", err)
	}

	c.log.Info().
		Uint32("ritual_id", uint32(id)).
		Str("initiator", initiator.Hex()).
		Str("authority", authority.Hex()).
		Int("dkg_size", len(providers)).
		Msg("ritual initiated")

	c.metrics.RitualInitiated(r.DKGSize)
	c.consumer.RitualStarted(id, initiator, authority, providers)
	c.consumer.TranscriptRoundStarted(id)

	return id, nil
}

// checkEligible verifies a single creation candidate: its public key must be
// on record and its current authorization weight must be positive.
func (c *Coordinator) checkEligible(provider common.Address) error {
	set, err := c.providerKeys.Exists(provider)
	if err != nil {
		return fmt.Errorf("could not check provider public key: %w", err)
	}
	if !set {
		return InvalidSubmissionError{Msg: fmt.Sprintf("provider has not set their public key (provider=%s)", provider)}
	}
	return c.checkAuthorized(provider)
}

func (c *Coordinator) checkAuthorized(provider common.Address) error {
	weight, err := c.oracle.AuthorizedWeight(provider)
	if err != nil {
		return fmt.Errorf("could not query authorized weight: %w", err)
	}
	if weight == nil || weight.Sign() <= 0 {
		return UnauthorizedProviderError{Provider: provider}
	}
	return nil
}

/*~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~
Commitment admission
~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~*/

// PostTranscript admits a participant's first-round transcript. The operator
// must resolve to a participant of the ritual, the ritual must be awaiting
// transcripts, and the participant must not have submitted before. When the
// submission completes the transcript round, an AggregationRoundStarted
// notification fires; the round boundary itself is derived from the counter
// on every read, so no stored state changes beyond the counter.
func (c *Coordinator) PostTranscript(operator common.Address, id ritual.ID, transcript []byte) error {
	if len(transcript) == 0 {
		c.metrics.AdmissionRejected()
		return InvalidSubmissionError{Msg: "invalid transcript"}
	}

	lock := c.ritualLock(id)
	lock.Lock()
	defer lock.Unlock()

	r, provider, err := c.admit(operator, id, ritual.StateAwaitingTranscripts)
	if err != nil {
		if IsPreconditionError(err) {
			c.metrics.AdmissionRejected()
		}
		return err
	}

	participant, err := r.Participant(provider)
	if err != nil {
		c.metrics.AdmissionRejected()
		return err
	}
	if participant.PostedTranscript() {
		c.metrics.AdmissionRejected()
		return AlreadySubmittedError{RitualID: id, Provider: provider, Round: ritual.StateAwaitingTranscripts}
	}

	digest := ritual.TranscriptDigest(transcript)
	participant.TranscriptDigest = digest
	participant.Transcript = transcript
	r.TotalTranscripts++

	err = c.rituals.Save(r)
	if err != nil {
		return fmt.Errorf("could not save ritual %d: %w", id, err)
	}

	c.log.Debug().
		Uint32("ritual_id", uint32(id)).
		Str("provider", provider.Hex()).
		Str("digest", digest.Hex()).
		Msg("transcript posted")

	c.metrics.TranscriptPosted()
	c.consumer.TranscriptPosted(id, provider, digest)
	if r.TotalTranscripts == r.DKGSize {
		c.consumer.AggregationRoundStarted(id)
	}

	return nil
}

// PostAggregation admits a participant's attestation to the combined result.
// The first submission establishes the canonical aggregated transcript digest
// and the candidate public key; every subsequent submission must match both
// exactly. A mismatch permanently invalidates the ritual: the submission is
// not counted, an end-of-ritual notification carrying INVALID fires, and all
// future admission is blocked. When the last matching submission arrives the
// ritual finalizes, publishing the agreed key material.
func (c *Coordinator) PostAggregation(operator common.Address, id ritual.ID, aggregated []byte, publicKey ritual.G1Point, decryptionRequestStaticKey []byte) error {
	if len(aggregated) == 0 {
		c.metrics.AdmissionRejected()
		return InvalidSubmissionError{Msg: "invalid aggregated transcript"}
	}
	if len(decryptionRequestStaticKey) != DecryptionRequestStaticKeyLength {
		c.metrics.AdmissionRejected()
		return InvalidSubmissionError{Msg: "invalid decryption request static key"}
	}

	lock := c.ritualLock(id)
	lock.Lock()
	defer lock.Unlock()

	r, provider, err := c.admit(operator, id, ritual.StateAwaitingAggregations)
	if err != nil {
		if IsPreconditionError(err) {
			c.metrics.AdmissionRejected()
		}
		return err
	}

	participant, err := r.Participant(provider)
	if err != nil {
		c.metrics.AdmissionRejected()
		return err
	}
	if participant.Aggregated {
		c.metrics.AdmissionRejected()
		return AlreadySubmittedError{RitualID: id, Provider: provider, Round: ritual.StateAwaitingAggregations}
	}

	digest := ritual.TranscriptDigest(aggregated)

	if r.TotalAggregations == 0 {
		// the first aggregator establishes the ground truth
		r.AggregatedTranscriptDigest = digest
		candidate := publicKey
		r.CandidatePublicKey = &candidate
	} else if digest != r.AggregatedTranscriptDigest || publicKey != *r.CandidatePublicKey {
		return c.invalidate(r, provider)
	}

	participant.Aggregated = true
	participant.DecryptionRequestStaticKey = decryptionRequestStaticKey
	r.TotalAggregations++

	finalized := r.TotalAggregations == r.DKGSize
	if finalized {
		// publish the agreed result as the ritual's permanent record
		published := *r.CandidatePublicKey
		r.PublicKey = &published
		r.AggregatedTranscript = aggregated
	}

	err = c.rituals.Save(r)
	if err != nil {
		return fmt.Errorf("could not save ritual %d: %w", id, err)
	}

	c.log.Debug().
		Uint32("ritual_id", uint32(id)).
		Str("provider", provider.Hex()).
		Str("digest", digest.Hex()).
		Msg("aggregation posted")

	c.metrics.AggregationPosted()
	c.consumer.AggregationPosted(id, provider, digest)

	if finalized {
		err = c.rituals.IndexByPublicKey(*r.PublicKey, id)
		if err != nil {
			return fmt.Errorf("could not index ritual %d by public key: %w", id, err)
		}
		c.log.Info().
			Uint32("ritual_id", uint32(id)).
			Str("public_key", r.PublicKey.String()).
			Msg("ritual finalized")
		c.metrics.RitualEnded(ritual.StateFinalized)
		c.consumer.RitualEnded(id, ritual.StateFinalized)
	}

	return nil
}

// invalidate records permanent disagreement for the ritual. The mismatched
// submission itself is not counted toward the aggregation total.
func (c *Coordinator) invalidate(r *ritual.Ritual, provider common.Address) error {
	r.AggregationMismatch = true
	err := c.rituals.Save(r)
	if err != nil {
		return fmt.Errorf("could not save ritual %d: %w", r.ID, err)
	}

	c.log.Warn().
		Uint32("ritual_id", uint32(r.ID)).
		Str("provider", provider.Hex()).
		Msg("aggregation mismatch, ritual invalidated")

	c.metrics.RitualEnded(ritual.StateInvalid)
	c.consumer.RitualEnded(r.ID, ritual.StateInvalid)

	return AggregationMismatchError{RitualID: r.ID, Provider: provider}
}

// admit performs the checks shared by both admission paths: the ritual's
// derived state must match the expected round, and the submitting operator
// must resolve to a positively authorized provider. It returns the ritual
// record and the resolved provider address.
func (c *Coordinator) admit(operator common.Address, id ritual.ID, expected ritual.State) (*ritual.Ritual, common.Address, error) {
	r, err := c.rituals.ByID(id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, common.Address{}, WrongRoundError{RitualID: id, Current: ritual.StateNonInitiated, Expected: expected}
	}
	if err != nil {
		return nil, common.Address{}, fmt.Errorf("could not retrieve ritual %d: %w", id, err)
	}

	state, err := ritual.DeriveState(r, c.now(), c.params.Timeout())
	if err != nil {
		// registry invariants are broken; surface as fatal, never default
		return nil, common.Address{}, err
	}
	if state != expected {
		return nil, common.Address{}, WrongRoundError{RitualID: id, Current: state, Expected: expected}
	}

	provider, err := c.oracle.ResolveProvider(operator)
	if err != nil {
		return nil, common.Address{}, fmt.Errorf("could not resolve operator %s: %w", operator, err)
	}
	if provider == (common.Address{}) {
		return nil, common.Address{}, ritual.ParticipantNotFoundError{RitualID: id, Provider: operator}
	}

	err = c.checkAuthorized(provider)
	if err != nil {
		return nil, common.Address{}, err
	}

	return r, provider, nil
}

// ritualLock returns the exclusive writer lock for the given ritual.
func (c *Coordinator) ritualLock(id ritual.ID) *sync.Mutex {
	return &c.locks[uint32(id)%lockStripes]
}
