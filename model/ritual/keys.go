package ritual

import (
	"encoding/hex"
	"fmt"
)

const (
	// G1PointLength is the byte length of a compressed BLS12-381 G1 point,
	// used for ritual public keys.
	G1PointLength = 48

	// G2PointLength is the byte length of a compressed BLS12-381 G2 point,
	// used for provider public keys.
	G2PointLength = 96
)

// G1Point is a compressed BLS12-381 G1 point. Equality of ritual public keys
// is bitwise equality of the compressed encoding.
type G1Point [G1PointLength]byte

// G2Point is a compressed BLS12-381 G2 point.
type G2Point [G2PointLength]byte

// G1PointFromBytes converts a byte slice to a G1Point. It errors if the input
// does not have the expected length.
func G1PointFromBytes(b []byte) (G1Point, error) {
	var p G1Point
	if len(b) != G1PointLength {
		return p, fmt.Errorf("invalid G1 point length (%d != %d)", len(b), G1PointLength)
	}
	copy(p[:], b)
	return p, nil
}

// G2PointFromBytes converts a byte slice to a G2Point. It errors if the input
// does not have the expected length.
func G2PointFromBytes(b []byte) (G2Point, error) {
	var p G2Point
	if len(b) != G2PointLength {
		return p, fmt.Errorf("invalid G2 point length (%d != %d)", len(b), G2PointLength)
	}
	copy(p[:], b)
	return p, nil
}

func (p G1Point) Bytes() []byte { return p[:] }

func (p G2Point) Bytes() []byte { return p[:] }

func (p G1Point) String() string { return hex.EncodeToString(p[:]) }

func (p G2Point) String() string { return hex.EncodeToString(p[:]) }
