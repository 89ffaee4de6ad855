// Package types defines the essential scalar types used across the ejector,
// mirroring the consensus spec aliases for slots, epochs and validator
// registry indices.
package types

import "math"

// Epoch represents a single epoch.
type Epoch uint64

// MaxEpoch compares two epochs and returns the greater one.
func MaxEpoch(a, b Epoch) Epoch {
	if a > b {
		return a
	}
	return b
}

// Add increases epoch by x.
func (e Epoch) Add(x uint64) Epoch {
	return e + Epoch(x)
}

// Sub subtracts x from the epoch, flooring at zero.
func (e Epoch) Sub(x uint64) Epoch {
	if uint64(e) < x {
		return 0
	}
	return e - Epoch(x)
}

// MaxSafeEpoch gives the largest epoch value that serializes losslessly.
func MaxSafeEpoch() Epoch {
	return Epoch(math.MaxUint64)
}
