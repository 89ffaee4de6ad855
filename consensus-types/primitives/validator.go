package types

// ValidatorIndex in the validator registry.
type ValidatorIndex uint64
