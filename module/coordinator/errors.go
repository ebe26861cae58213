package coordinator

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/theref/dkg-coordinator/model/ritual"
)

// WrongRoundError indicates that an admission call arrived while the ritual's
// derived state was not the round the call belongs to. Temporal expiry
// manifests as this same rejection: once the deadline passes, the derived
// state is no longer AWAITING_* and every admission is rejected.
type WrongRoundError struct {
	RitualID ritual.ID
	Current  ritual.State
	Expected ritual.State
}

func (e WrongRoundError) Error() string {
	switch e.Expected {
	case ritual.StateAwaitingTranscripts:
		return fmt.Sprintf("not waiting for transcripts (ritual=%d, state=%s)", e.RitualID, e.Current)
	case ritual.StateAwaitingAggregations:
		return fmt.Sprintf("not waiting for aggregations (ritual=%d, state=%s)", e.RitualID, e.Current)
	default:
		return fmt.Sprintf("ritual %d is in state %s, expected %s", e.RitualID, e.Current, e.Expected)
	}
}

func IsWrongRoundError(err error) bool {
	var target WrongRoundError
	return errors.As(err, &target)
}

// AlreadySubmittedError indicates a duplicate commitment: the participant's
// transcript or aggregation was already recorded. Commitment fields are
// write-once; resubmission is rejected, not overwritten.
type AlreadySubmittedError struct {
	RitualID ritual.ID
	Provider common.Address
	Round    ritual.State
}

func (e AlreadySubmittedError) Error() string {
	if e.Round == ritual.StateAwaitingTranscripts {
		return fmt.Sprintf("node already posted transcript (ritual=%d, provider=%s)", e.RitualID, e.Provider)
	}
	return fmt.Sprintf("node already posted aggregation (ritual=%d, provider=%s)", e.RitualID, e.Provider)
}

func IsAlreadySubmittedError(err error) bool {
	var target AlreadySubmittedError
	return errors.As(err, &target)
}

// UnauthorizedProviderError indicates that a provider has no positive
// authorization weight backing it.
type UnauthorizedProviderError struct {
	Provider common.Address
}

func (e UnauthorizedProviderError) Error() string {
	return fmt.Sprintf("not enough authorization (provider=%s)", e.Provider)
}

func IsUnauthorizedProviderError(err error) bool {
	var target UnauthorizedProviderError
	return errors.As(err, &target)
}

// InvalidSubmissionError indicates a malformed submission payload.
type InvalidSubmissionError struct {
	Msg string
}

func (e InvalidSubmissionError) Error() string {
	return e.Msg
}

func IsInvalidSubmissionError(err error) bool {
	var target InvalidSubmissionError
	return errors.As(err, &target)
}

// AggregationMismatchError indicates that an aggregation submission
// disagreed with the previously established commitment. Unlike precondition
// violations this is not retryable: the ritual is permanently invalidated.
type AggregationMismatchError struct {
	RitualID ritual.ID
	Provider common.Address
}

func (e AggregationMismatchError) Error() string {
	return fmt.Sprintf("aggregated transcripts do not match (ritual=%d, provider=%s)", e.RitualID, e.Provider)
}

func IsAggregationMismatchError(err error) bool {
	var target AggregationMismatchError
	return errors.As(err, &target)
}

// IsPreconditionError returns true for rejections that are caller errors:
// the call had no effect and may be retried with corrected input. Agreement
// violations and internal failures are not precondition errors.
func IsPreconditionError(err error) bool {
	return IsWrongRoundError(err) ||
		IsAlreadySubmittedError(err) ||
		IsUnauthorizedProviderError(err) ||
		IsInvalidSubmissionError(err) ||
		ritual.IsParticipantNotFoundError(err) ||
		ritual.IsInvalidProvidersError(err)
}
