package operation

import (
	"github.com/dgraph-io/badger/v2"

	"github.com/theref/dkg-coordinator/model/ritual"
)

// InsertRitualCount initializes the registry length counter.
func InsertRitualCount(count uint32) func(*badger.Txn) error {
	return insert(makePrefix(codeRitualCount), count)
}

// UpdateRitualCount advances the registry length counter.
func UpdateRitualCount(count uint32) func(*badger.Txn) error {
	return update(makePrefix(codeRitualCount), count)
}

// RetrieveRitualCount retrieves the registry length counter.
func RetrieveRitualCount(count *uint32) func(*badger.Txn) error {
	return retrieve(makePrefix(codeRitualCount), count)
}

// InsertRitual stores a new ritual record under its registry position.
func InsertRitual(r *ritual.Ritual) func(*badger.Txn) error {
	return insert(makePrefix(codeRitual, r.ID), r)
}

// UpdateRitual replaces the stored record of an existing ritual.
func UpdateRitual(r *ritual.Ritual) func(*badger.Txn) error {
	return update(makePrefix(codeRitual, r.ID), r)
}

// RetrieveRitual retrieves the ritual record with the given ID.
func RetrieveRitual(id ritual.ID, r *ritual.Ritual) func(*badger.Txn) error {
	return retrieve(makePrefix(codeRitual, id), r)
}

// IndexRitualByPublicKey indexes a finalized ritual by its published public
// key. The key is recorded exactly once per ritual, so a duplicate index
// write indicates a conflicting finalization and errors.
func IndexRitualByPublicKey(pk ritual.G1Point, id ritual.ID) func(*badger.Txn) error {
	return insert(makePrefix(codePublicKeyIndex, pk), id)
}

// LookupRitualByPublicKey retrieves the ID of the ritual that published the
// given public key.
func LookupRitualByPublicKey(pk ritual.G1Point, id *ritual.ID) func(*badger.Txn) error {
	return retrieve(makePrefix(codePublicKeyIndex, pk), id)
}
