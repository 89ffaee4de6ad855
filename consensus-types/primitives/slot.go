package types

// Slot represents a single slot.
type Slot uint64

// Add increases slot by x.
func (s Slot) Add(x uint64) Slot {
	return s + Slot(x)
}

// Sub subtracts x from the slot, flooring at zero.
func (s Slot) Sub(x uint64) Slot {
	if uint64(s) < x {
		return 0
	}
	return s - Slot(x)
}

// DivSlot divides the slot by x. Division by zero panics, as for raw integers.
func (s Slot) DivSlot(x uint64) Slot {
	return s / Slot(x)
}
