package ritual

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// ParticipantNotFoundError indicates that an address does not resolve to a
// participant of the ritual.
type ParticipantNotFoundError struct {
	RitualID ID
	Provider common.Address
}

func (e ParticipantNotFoundError) Error() string {
	return fmt.Sprintf("participant not part of ritual (ritual=%d, provider=%s)", e.RitualID, e.Provider)
}

func IsParticipantNotFoundError(err error) bool {
	var target ParticipantNotFoundError
	return errors.As(err, &target)
}

// InvalidProvidersError indicates that a candidate provider list failed
// validation at ritual creation.
type InvalidProvidersError struct {
	Msg string
}

func (e InvalidProvidersError) Error() string {
	return e.Msg
}

func IsInvalidProvidersError(err error) bool {
	var target InvalidProvidersError
	return errors.As(err, &target)
}

// InconsistentStateError indicates that a ritual's stored fields violate the
// registry's invariants: all commitments are accounted for, yet neither the
// finalization nor the deadline condition matched. This is an internal
// consistency failure and must be treated as fatal by callers.
type InconsistentStateError struct {
	RitualID ID
}

func (e InconsistentStateError) Error() string {
	return fmt.Sprintf("ritual %d reached an inconsistent state: counters are saturated but no terminal condition matched", e.RitualID)
}

func IsInconsistentStateError(err error) bool {
	var target InconsistentStateError
	return errors.As(err, &target)
}
