package operation

import (
	"github.com/dgraph-io/badger/v2"
	"github.com/ethereum/go-ethereum/common"

	"github.com/theref/dkg-coordinator/model/ritual"
)

// providerKey binds a provider public key to the ritual ID from which it
// applies.
type providerKey struct {
	Key        ritual.G2Point
	FromRitual ritual.ID
}

// UpsertProviderKey stores the provider's public key binding, overwriting any
// previous one.
func UpsertProviderKey(provider common.Address, key ritual.G2Point, fromRitual ritual.ID) func(*badger.Txn) error {
	return upsert(makePrefix(codeProviderKey, provider), providerKey{Key: key, FromRitual: fromRitual})
}

// RetrieveProviderKey retrieves the provider's public key binding.
func RetrieveProviderKey(provider common.Address, key *ritual.G2Point, fromRitual *ritual.ID) func(*badger.Txn) error {
	return func(tx *badger.Txn) error {
		var entry providerKey
		err := retrieve(makePrefix(codeProviderKey, provider), &entry)(tx)
		if err != nil {
			return err
		}
		*key = entry.Key
		*fromRitual = entry.FromRitual
		return nil
	}
}

// ExistsProviderKey checks whether the provider has a public key binding.
func ExistsProviderKey(provider common.Address, variable *bool) func(*badger.Txn) error {
	return exists(makePrefix(codeProviderKey, provider), variable)
}
