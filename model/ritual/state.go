package ritual

import (
	"time"
)

// State is a ritual's lifecycle stage. It is strictly derived: computed on
// demand from the ritual's stored fields and the current time, never itself
// persisted, so that stored counters and an observer's view cannot diverge.
type State uint8

const (
	// StateNonInitiated is the state of a ritual that does not exist.
	StateNonInitiated State = iota
	// StateAwaitingTranscripts is the first commit round: the ritual is
	// collecting transcript submissions.
	StateAwaitingTranscripts
	// StateAwaitingAggregations is the second commit round: the ritual is
	// collecting aggregation submissions.
	StateAwaitingAggregations
	// StateTimeout means the deadline elapsed before the ritual completed.
	// It is never persisted; the stored fields are untouched by timeout.
	StateTimeout
	// StateInvalid means participants disagreed on the aggregated result.
	// Invalidity is permanent and is reported even past the deadline.
	StateInvalid
	// StateFinalized means all aggregations completed and the shared key
	// material is published.
	StateFinalized
)

func (s State) String() string {
	switch s {
	case StateNonInitiated:
		return "NON_INITIATED"
	case StateAwaitingTranscripts:
		return "AWAITING_TRANSCRIPTS"
	case StateAwaitingAggregations:
		return "AWAITING_AGGREGATIONS"
	case StateTimeout:
		return "TIMEOUT"
	case StateInvalid:
		return "INVALID"
	case StateFinalized:
		return "FINALIZED"
	default:
		return "UNKNOWN"
	}
}

// Terminal returns true for states that permanently block further admission.
func (s State) Terminal() bool {
	return s == StateInvalid || s == StateFinalized
}

// DeriveState computes a ritual's lifecycle state from its stored fields, the
// current time, and the global timeout. It has no side effects and is safe
// for arbitrary concurrent reads; it is the only legitimate admission gate.
//
// The evaluation order is part of the contract, since several conditions can
// hold simultaneously:
//  1. zero init timestamp               -> NON_INITIATED
//  2. all aggregations in / key set     -> FINALIZED (dominates timeout: a
//     ritual completing exactly at or after its deadline is still FINALIZED)
//  3. mismatch flag set                 -> INVALID
//  4. past deadline                     -> TIMEOUT
//  5. missing transcripts               -> AWAITING_TRANSCRIPTS
//  6. missing aggregations              -> AWAITING_AGGREGATIONS
//
// Any ritual matching none of the above violates the registry's invariants.
// DeriveState returns an InconsistentStateError in that case; callers must
// surface it as a fatal defect, never default it away.
func DeriveState(r *Ritual, now time.Time, timeout time.Duration) (State, error) {
	if r == nil || r.InitTimestamp.IsZero() {
		return StateNonInitiated, nil
	}
	if r.TotalAggregations == r.DKGSize || r.PublicKey != nil {
		return StateFinalized, nil
	}
	if r.AggregationMismatch {
		return StateInvalid, nil
	}
	if now.After(r.Deadline(timeout)) {
		return StateTimeout, nil
	}
	if r.TotalTranscripts < r.DKGSize {
		return StateAwaitingTranscripts, nil
	}
	if r.TotalAggregations < r.DKGSize {
		return StateAwaitingAggregations, nil
	}
	return StateNonInitiated, InconsistentStateError{RitualID: r.ID}
}
