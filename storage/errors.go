package storage

import (
	"errors"
)

var (
	// Note: there is another not found error: badger.ErrKeyNotFound. The
	// difference is that badger.ErrKeyNotFound is the error returned by the
	// badger API, while modules in storage/badger and storage/badger/operation
	// both return storage.ErrNotFound for not found errors.
	ErrNotFound = errors.New("key not found")

	ErrAlreadyExists = errors.New("key already exists")
)
