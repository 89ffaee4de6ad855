// Package eth defines the consensus layer containers the ejector hashes and
// submits: voluntary exits and the auxiliary signing containers.
package eth

import (
	types "github.com/lidofinance/validator-ejector/consensus-types/primitives"
)

// VoluntaryExit is the consensus container a validator signs to exit the
// active set.
type VoluntaryExit struct {
	Epoch          types.Epoch          `json:"epoch"`
	ValidatorIndex types.ValidatorIndex `json:"validator_index"`
}

// SignedVoluntaryExit is a voluntary exit with the BLS signature over its
// signing root.
type SignedVoluntaryExit struct {
	Exit      *VoluntaryExit `json:"message"`
	Signature []byte         `json:"signature" ssz-size:"96"`
}

// ForkData is hashed into the signature domain to separate forks and chains.
type ForkData struct {
	CurrentVersion        []byte `json:"current_version" ssz-size:"4"`
	GenesisValidatorsRoot []byte `json:"genesis_validators_root" ssz-size:"32"`
}

// SigningData binds an object root to a signature domain.
type SigningData struct {
	ObjectRoot []byte `json:"object_root" ssz-size:"32"`
	Domain     []byte `json:"domain" ssz-size:"32"`
}
