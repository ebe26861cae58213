package coordinator

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/theref/dkg-coordinator/model/ritual"
	"github.com/theref/dkg-coordinator/storage"
)

// NumberOfRituals returns the registry length.
func (c *Coordinator) NumberOfRituals() (uint32, error) {
	return c.rituals.Count()
}

// GetRitual retrieves the stored record of a ritual.
// Error returns: storage.ErrNotFound
func (c *Coordinator) GetRitual(id ritual.ID) (*ritual.Ritual, error) {
	return c.rituals.ByID(id)
}

// RitualStatus derives the current lifecycle state of a ritual. An unknown ID
// yields NON_INITIATED; an InconsistentStateError indicates broken registry
// invariants and must be treated as fatal.
func (c *Coordinator) RitualStatus(id ritual.ID) (ritual.State, error) {
	r, err := c.rituals.ByID(id)
	if errors.Is(err, storage.ErrNotFound) {
		return ritual.StateNonInitiated, nil
	}
	if err != nil {
		return ritual.StateNonInitiated, fmt.Errorf("could not retrieve ritual %d: %w", id, err)
	}
	return ritual.DeriveState(r, c.now(), c.params.Timeout())
}

// IsRitualActive reports whether decryption may be served under the ritual's
// key: true exactly when the ritual is finalized. Queried by downstream
// access-control layers; the coordinator never calls into those layers.
func (c *Coordinator) IsRitualActive(id ritual.ID) (bool, error) {
	state, err := c.RitualStatus(id)
	if err != nil {
		return false, err
	}
	return state == ritual.StateFinalized, nil
}

// Authority returns the identity permitted to manage access-control settings
// for the ritual.
// Error returns: storage.ErrNotFound
func (c *Coordinator) Authority(id ritual.ID) (common.Address, error) {
	r, err := c.rituals.ByID(id)
	if err != nil {
		return common.Address{}, err
	}
	return r.Authority, nil
}

// GetParticipants returns up to max participant records starting at offset,
// in the ritual's fixed order. A max of zero returns all remaining records.
// Transcript bytes are omitted unless includeTranscript is set.
// Error returns: storage.ErrNotFound
func (c *Coordinator) GetParticipants(id ritual.ID, offset, max uint32, includeTranscript bool) ([]*ritual.Participant, error) {
	r, err := c.rituals.ByID(id)
	if err != nil {
		return nil, err
	}

	if uint64(offset) >= uint64(len(r.Participants)) {
		return nil, nil
	}
	// the window is computed in uint64 so that offset+max cannot wrap
	end := uint64(len(r.Participants))
	if max > 0 && uint64(offset)+uint64(max) < end {
		end = uint64(offset) + uint64(max)
	}

	participants := make([]*ritual.Participant, 0, end-uint64(offset))
	for _, p := range r.Participants[offset:end] {
		participants = append(participants, exportParticipant(p, includeTranscript))
	}
	return participants, nil
}

// GetParticipant returns the participant record of the given provider within
// the ritual.
// Error returns: storage.ErrNotFound, ritual.ParticipantNotFoundError
func (c *Coordinator) GetParticipant(id ritual.ID, provider common.Address, includeTranscript bool) (*ritual.Participant, error) {
	r, err := c.rituals.ByID(id)
	if err != nil {
		return nil, err
	}
	p, err := r.Participant(provider)
	if err != nil {
		return nil, err
	}
	return exportParticipant(p, includeTranscript), nil
}

// exportParticipant copies a participant record so that callers cannot alias
// the registry's stored state.
func exportParticipant(p *ritual.Participant, includeTranscript bool) *ritual.Participant {
	out := *p
	if !includeTranscript {
		out.Transcript = nil
	}
	return &out
}
