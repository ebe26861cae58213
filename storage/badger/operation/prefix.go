package operation

import (
	"encoding/binary"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/theref/dkg-coordinator/model/ritual"
)

const (
	// codes for ritual registry entries
	codeRitualCount = 1
	codeRitual      = 2

	// codes for lookup indices
	codePublicKeyIndex = 10
	codeProviderKey    = 11
)

// makePrefix builds a badger key from a one-byte code and a sequence of typed
// key parts.
func makePrefix(code byte, keys ...interface{}) []byte {
	prefix := make([]byte, 1)
	prefix[0] = code
	for _, key := range keys {
		prefix = append(prefix, b(key)...)
	}
	return prefix
}

func b(v interface{}) []byte {
	switch i := v.(type) {
	case uint32:
		b := make([]byte, 4)
		binary.BigEndian.PutUint32(b, i)
		return b
	case ritual.ID:
		b := make([]byte, 4)
		binary.BigEndian.PutUint32(b, uint32(i))
		return b
	case common.Address:
		return i.Bytes()
	case ritual.G1Point:
		return i.Bytes()
	default:
		panic(fmt.Sprintf("unsupported type to convert (%T)", v))
	}
}
