package operation

import (
	"fmt"

	"github.com/golang/snappy"
	"github.com/vmihailenco/msgpack/v4"
)

// encodeEntity encodes the given entity using msgpack and compresses the
// result with snappy.
func encodeEntity(entity interface{}) ([]byte, error) {
	raw, err := msgpack.Marshal(entity)
	if err != nil {
		return nil, fmt.Errorf("could not encode entity: %w", err)
	}
	return snappy.Encode(nil, raw), nil
}

// decodeValue decompresses the given value and decodes it into the given
// entity using msgpack.
func decodeValue(val []byte, entity interface{}) error {
	raw, err := snappy.Decode(nil, val)
	if err != nil {
		return fmt.Errorf("could not uncompress data: %w", err)
	}
	err = msgpack.Unmarshal(raw, entity)
	if err != nil {
		return fmt.Errorf("could not decode entity: %w", err)
	}
	return nil
}
