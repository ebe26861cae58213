package coordinator

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/theref/dkg-coordinator/model/ritual"
)

// SetProviderPublicKey records the public key under which the provider takes
// part in rituals. The key applies from the next allocated ritual onwards;
// earlier rituals keep resolving the previously recorded key.
func (c *Coordinator) SetProviderPublicKey(provider common.Address, key ritual.G2Point) error {
	// bind the key to the registry length at the time of the call
	c.mu.Lock()
	defer c.mu.Unlock()

	count, err := c.rituals.Count()
	if err != nil {
		return fmt.Errorf("could not read registry length: %w", err)
	}
	fromRitual := ritual.ID(count)

	err = c.providerKeys.Set(provider, key, fromRitual)
	if err != nil {
		return fmt.Errorf("could not store provider public key: %w", err)
	}

	c.log.Info().
		Str("provider", provider.Hex()).
		Uint32("from_ritual", uint32(fromRitual)).
		Msg("provider public key set")

	c.consumer.ParticipantPublicKeySet(fromRitual, provider, key)
	return nil
}

// GetProviderPublicKey returns the provider's public key applicable to the
// given ritual.
// Error returns: storage.ErrNotFound
func (c *Coordinator) GetProviderPublicKey(provider common.Address, id ritual.ID) (ritual.G2Point, error) {
	return c.providerKeys.Get(provider, id)
}

// IsProviderPublicKeySet reports whether the provider has a public key on
// record.
func (c *Coordinator) IsProviderPublicKeySet(provider common.Address) (bool, error) {
	return c.providerKeys.Exists(provider)
}

// GetRitualIDFromPublicKey looks up the finalized ritual that published the
// given public key.
// Error returns: storage.ErrNotFound
func (c *Coordinator) GetRitualIDFromPublicKey(key ritual.G1Point) (ritual.ID, error) {
	return c.rituals.ByPublicKey(key)
}

// GetPublicKeyFromRitualID returns the public key published by a finalized
// ritual.
// Error returns: storage.ErrNotFound; WrongRoundError if the ritual has not
// finalized.
func (c *Coordinator) GetPublicKeyFromRitualID(id ritual.ID) (ritual.G1Point, error) {
	r, err := c.rituals.ByID(id)
	if err != nil {
		return ritual.G1Point{}, err
	}
	if r.PublicKey == nil {
		state, err := ritual.DeriveState(r, c.now(), c.params.Timeout())
		if err != nil {
			return ritual.G1Point{}, err
		}
		return ritual.G1Point{}, WrongRoundError{RitualID: id, Current: state, Expected: ritual.StateFinalized}
	}
	return *r.PublicKey, nil
}
