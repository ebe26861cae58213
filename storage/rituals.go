package storage

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/theref/dkg-coordinator/model/ritual"
)

// Rituals is the storage interface for the ritual registry: an append-only,
// indexed collection of ritual records. The registry is the durable ground
// truth for all ritual data; records are never deleted.
type Rituals interface {

	// Count returns the number of rituals in the registry. A new ritual's ID
	// is the registry count at the moment of its creation.
	// No errors expected during normal operation.
	Count() (uint32, error)

	// Append atomically allocates the next ritual ID, assigns it to the given
	// record, and persists the record together with the advanced count.
	// No errors expected during normal operation.
	Append(r *ritual.Ritual) (ritual.ID, error)

	// ByID retrieves the ritual with the given ID.
	// Error returns: storage.ErrNotFound
	ByID(id ritual.ID) (*ritual.Ritual, error)

	// Save persists the updated progress fields of an existing ritual record.
	// Error returns: storage.ErrNotFound
	Save(r *ritual.Ritual) error

	// IndexByPublicKey indexes a finalized ritual by its published public key.
	// Error returns: storage.ErrAlreadyExists
	IndexByPublicKey(pk ritual.G1Point, id ritual.ID) error

	// ByPublicKey looks up the ritual that published the given public key.
	// Error returns: storage.ErrNotFound
	ByPublicKey(pk ritual.G1Point) (ritual.ID, error)
}

// ProviderKeys is the storage interface for provider public keys. A provider
// sets its key before taking part in rituals; the key recorded at set time is
// bound to the registry length, so reads for earlier rituals fail.
type ProviderKeys interface {

	// Set records the provider's public key together with the ritual ID from
	// which it applies. Setting again overwrites the previous binding.
	// No errors expected during normal operation.
	Set(provider common.Address, key ritual.G2Point, fromRitual ritual.ID) error

	// Get retrieves the provider's public key applicable to the given ritual.
	// Error returns: storage.ErrNotFound if no key is set, or if the key was
	// set after the given ritual was created.
	Get(provider common.Address, id ritual.ID) (ritual.G2Point, error)

	// Exists checks whether the provider has set a public key.
	// No errors expected during normal operation.
	Exists(provider common.Address) (bool, error)
}
