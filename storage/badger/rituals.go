// Package badger implements the ritual registry on top of a badger key-value
// database. The registry is append-only: records are inserted once and
// subsequently updated in place through their progress fields, never removed.
package badger

import (
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v2"

	"github.com/theref/dkg-coordinator/model/ritual"
	"github.com/theref/dkg-coordinator/storage"
	"github.com/theref/dkg-coordinator/storage/badger/operation"
)

// Rituals implements the storage.Rituals registry backed by badger.
type Rituals struct {
	db *badger.DB
}

var _ storage.Rituals = (*Rituals)(nil)

func NewRituals(db *badger.DB) *Rituals {
	return &Rituals{db: db}
}

// Count returns the number of rituals in the registry.
func (r *Rituals) Count() (uint32, error) {
	var count uint32
	err := r.db.View(operation.RetrieveRitualCount(&count))
	if errors.Is(err, storage.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("could not retrieve ritual count: %w", err)
	}
	return count, nil
}

// Append allocates the next registry position, assigns it to the record, and
// persists the record together with the advanced count in one transaction. A
// failed append leaves the registry untouched.
func (r *Rituals) Append(rit *ritual.Ritual) (ritual.ID, error) {
	var id ritual.ID
	err := r.db.Update(func(tx *badger.Txn) error {

		var count uint32
		err := operation.RetrieveRitualCount(&count)(tx)
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("could not retrieve ritual count: %w", err)
		}
		initialized := err == nil

		id = ritual.ID(count)
		rit.ID = id
		err = operation.InsertRitual(rit)(tx)
		if err != nil {
			return fmt.Errorf("could not insert ritual: %w", err)
		}

		if initialized {
			err = operation.UpdateRitualCount(count + 1)(tx)
		} else {
			err = operation.InsertRitualCount(count + 1)(tx)
		}
		if err != nil {
			return fmt.Errorf("could not advance ritual count: %w", err)
		}

		return nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// ByID retrieves the ritual with the given ID.
func (r *Rituals) ByID(id ritual.ID) (*ritual.Ritual, error) {
	var rit ritual.Ritual
	err := r.db.View(operation.RetrieveRitual(id, &rit))
	if err != nil {
		return nil, err
	}
	return &rit, nil
}

// Save persists the updated progress fields of an existing ritual record.
func (r *Rituals) Save(rit *ritual.Ritual) error {
	return r.db.Update(operation.UpdateRitual(rit))
}

// IndexByPublicKey indexes a finalized ritual by its published public key.
func (r *Rituals) IndexByPublicKey(pk ritual.G1Point, id ritual.ID) error {
	return r.db.Update(operation.IndexRitualByPublicKey(pk, id))
}

// ByPublicKey looks up the ritual that published the given public key.
func (r *Rituals) ByPublicKey(pk ritual.G1Point) (ritual.ID, error) {
	var id ritual.ID
	err := r.db.View(operation.LookupRitualByPublicKey(pk, &id))
	if err != nil {
		return 0, err
	}
	return id, nil
}
