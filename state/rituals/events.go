// Package rituals defines the observable surface of the ritual coordination
// state: the notification events emitted as rituals progress through their
// lifecycle.
package rituals

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/theref/dkg-coordinator/model/ritual"
)

// Consumer defines the set of events that occur within the ritual coordination
// state, to be propagated to other components via an implementation of this
// interface. Together with direct state reads, these notifications are the
// only externally observable trace of ritual progress.
//
// Consumer implementations must be non-blocking: no admission call waits for a
// consumer to finish.
type Consumer interface {

	// RitualStarted is called when a new ritual is allocated in the registry.
	RitualStarted(id ritual.ID, initiator, authority common.Address, participants []common.Address)

	// TranscriptRoundStarted is called when a ritual starts collecting
	// transcript submissions, immediately after creation.
	TranscriptRoundStarted(id ritual.ID)

	// TranscriptPosted is called when a participant's transcript submission
	// is admitted.
	TranscriptPosted(id ritual.ID, node common.Address, digest common.Hash)

	// AggregationRoundStarted is called when the last transcript submission
	// moves the ritual into the aggregation round. This is a notification
	// only: the round boundary itself is recomputed from the stored counters
	// on every read.
	AggregationRoundStarted(id ritual.ID)

	// AggregationPosted is called when a participant's aggregation submission
	// is admitted.
	AggregationPosted(id ritual.ID, node common.Address, digest common.Hash)

	// RitualEnded is called exactly once per ritual that reaches a terminal
	// state, carrying StateFinalized or StateInvalid.
	RitualEnded(id ritual.ID, finalState ritual.State)

	// ParticipantPublicKeySet is called when a provider records its public
	// key. The ritual ID is the registry length at the time of the call, i.e.
	// the first ritual the key applies to.
	ParticipantPublicKeySet(fromRitual ritual.ID, participant common.Address, key ritual.G2Point)

	// ParameterChanged is called when an administrative parameter changes.
	ParameterChanged(name string, oldValue, newValue any)
}
