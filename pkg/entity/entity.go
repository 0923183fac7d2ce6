// Package entity defines E, the 256-bit fixed-width identifier used for every
// subject, predicate, object, and derived index key in Muninn.
//
// An E is addressed as four 64-bit lanes in big-endian significance order:
// High, HighMid, LowMid, Low. The lane decomposition is lossless and the
// value is immutable - E is a comparable value type and can be used directly
// as a map key.
//
// Construction:
//   - FromInt: exact conversion from a big.Int in [0, 2^256)
//   - FromLanes: exact packing of four uint64 lanes
//   - FromString: deterministic hash of a string (same string, same E)
//   - FromBytes: canonical 32-byte big-endian form
//   - New: fresh random identifier
//
// Example:
//
//	alice := entity.FromString("alice")
//	hasAge := entity.FromString("hasAge")
//	key := alice.XOR(hasAge) // derived index key
package entity

import (
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/google/uuid"
	"golang.org/x/crypto/sha3"
)

// Size is the canonical encoded width of an E in bytes.
const Size = 32

// E is a 256-bit entity identifier stored as four 64-bit lanes.
//
// Lane order is most-significant first: [High, HighMid, LowMid, Low].
// The zero value is the zero identifier.
type E [4]uint64

// High returns the most significant 64-bit lane.
func (e E) High() uint64 { return e[0] }

// HighMid returns the second most significant 64-bit lane.
func (e E) HighMid() uint64 { return e[1] }

// LowMid returns the third most significant 64-bit lane.
func (e E) LowMid() uint64 { return e[2] }

// Low returns the least significant 64-bit lane.
func (e E) Low() uint64 { return e[3] }

// FromLanes packs four 64-bit lanes into an E. It always succeeds; any
// combination of uint64 lanes is a valid identifier.
func FromLanes(high, highMid, lowMid, low uint64) E {
	return E{high, highMid, lowMid, low}
}

// FromInt converts a non-negative big integer into an E.
//
// Returns a RangeError if v is negative or does not fit in 256 bits.
func FromInt(v *big.Int) (E, error) {
	if v == nil || v.Sign() < 0 || v.BitLen() > 256 {
		return E{}, &RangeError{Value: v}
	}
	var buf [Size]byte
	v.FillBytes(buf[:])
	e, _ := FromBytes(buf[:])
	return e, nil
}

// Int returns the identifier as a big integer.
func (e E) Int() *big.Int {
	b := e.Bytes()
	return new(big.Int).SetBytes(b[:])
}

// FromString derives a deterministic E from an arbitrary string.
//
// The same input always yields the same identifier; distinct inputs yield
// distinct identifiers with overwhelming probability. The mapping is not
// reversible - use DebugNames if a development-time reverse lookup is needed.
//
// SHA3-256 keeps string-derived identifiers domain-separated from triple
// content hashes, which use SHA-256 over lane packings.
func FromString(s string) E {
	sum := sha3.Sum256([]byte(s))
	e, _ := FromBytes(sum[:])
	return e
}

// New returns a fresh random identifier.
//
// The randomness occupies the low 128 bits (UUID-derived); the high lanes
// are zero. Collisions between generated identifiers are as unlikely as
// UUID collisions.
func New() E {
	u := uuid.New()
	return E{
		0,
		0,
		binary.BigEndian.Uint64(u[0:8]),
		binary.BigEndian.Uint64(u[8:16]),
	}
}

// Bytes returns the canonical 32-byte big-endian encoding, suitable for
// storage keys and wire use.
func (e E) Bytes() [Size]byte {
	var buf [Size]byte
	binary.BigEndian.PutUint64(buf[0:8], e[0])
	binary.BigEndian.PutUint64(buf[8:16], e[1])
	binary.BigEndian.PutUint64(buf[16:24], e[2])
	binary.BigEndian.PutUint64(buf[24:32], e[3])
	return buf
}

// FromBytes decodes the canonical 32-byte big-endian form produced by Bytes.
func FromBytes(b []byte) (E, error) {
	if len(b) != Size {
		return E{}, fmt.Errorf("entity: need %d bytes, got %d: %w", Size, len(b), ErrInvalidEncoding)
	}
	return E{
		binary.BigEndian.Uint64(b[0:8]),
		binary.BigEndian.Uint64(b[8:16]),
		binary.BigEndian.Uint64(b[16:24]),
		binary.BigEndian.Uint64(b[24:32]),
	}, nil
}

// XOR folds two identifiers lanewise. Used by the key composer to derive
// compound and reverse index keys.
func (e E) XOR(other E) E {
	return E{e[0] ^ other[0], e[1] ^ other[1], e[2] ^ other[2], e[3] ^ other[3]}
}

// Cmp compares two identifiers by integer value:
// -1 if e < other, 0 if equal, +1 if e > other.
func (e E) Cmp(other E) int {
	for i := 0; i < 4; i++ {
		switch {
		case e[i] < other[i]:
			return -1
		case e[i] > other[i]:
			return 1
		}
	}
	return 0
}

// IsZero reports whether the identifier is the zero value.
func (e E) IsZero() bool {
	return e == E{}
}

// Hex returns the identifier as a 64-character lowercase hex string.
func (e E) Hex() string {
	b := e.Bytes()
	return fmt.Sprintf("%x", b[:])
}

// String renders the lane representation, e.g. E(1,0,0,42).
func (e E) String() string {
	return fmt.Sprintf("E(%d,%d,%d,%d)", e[0], e[1], e[2], e[3])
}
