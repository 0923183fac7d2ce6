package entity

import (
	"errors"
	"fmt"
	"math/big"
)

// ErrInvalidEncoding indicates a byte slice that is not a canonical 32-byte
// identifier encoding.
var ErrInvalidEncoding = errors.New("invalid entity encoding")

// RangeError indicates an integer outside [0, 2^256).
type RangeError struct {
	Value *big.Int
}

func (e *RangeError) Error() string {
	if e.Value == nil {
		return "entity: value must be a 256-bit unsigned integer, got nil"
	}
	return fmt.Sprintf("entity: value must be a 256-bit unsigned integer, got %d bits (sign %d)",
		e.Value.BitLen(), e.Value.Sign())
}
