package badger

import (
	"github.com/dgraph-io/badger/v2"
	"github.com/ethereum/go-ethereum/common"

	"github.com/theref/dkg-coordinator/model/ritual"
	"github.com/theref/dkg-coordinator/storage"
	"github.com/theref/dkg-coordinator/storage/badger/operation"
)

// ProviderKeys implements the storage.ProviderKeys registry backed by badger.
type ProviderKeys struct {
	db *badger.DB
}

var _ storage.ProviderKeys = (*ProviderKeys)(nil)

func NewProviderKeys(db *badger.DB) *ProviderKeys {
	return &ProviderKeys{db: db}
}

// Set records the provider's public key together with the ritual ID from
// which it applies.
func (p *ProviderKeys) Set(provider common.Address, key ritual.G2Point, fromRitual ritual.ID) error {
	return p.db.Update(operation.UpsertProviderKey(provider, key, fromRitual))
}

// Get retrieves the provider's public key applicable to the given ritual. A
// key set after the given ritual was created is not applicable to it.
func (p *ProviderKeys) Get(provider common.Address, id ritual.ID) (ritual.G2Point, error) {
	var key ritual.G2Point
	var fromRitual ritual.ID
	err := p.db.View(operation.RetrieveProviderKey(provider, &key, &fromRitual))
	if err != nil {
		return ritual.G2Point{}, err
	}
	if id < fromRitual {
		return ritual.G2Point{}, storage.ErrNotFound
	}
	return key, nil
}

// Exists checks whether the provider has set a public key.
func (p *ProviderKeys) Exists(provider common.Address) (bool, error) {
	var found bool
	err := p.db.View(operation.ExistsProviderKey(provider, &found))
	if err != nil {
		return false, err
	}
	return found, nil
}
