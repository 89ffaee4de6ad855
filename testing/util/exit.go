package util

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/lidofinance/validator-ejector/config/params"
	"github.com/lidofinance/validator-ejector/consensus-types/eth"
	types "github.com/lidofinance/validator-ejector/consensus-types/primitives"
	"github.com/lidofinance/validator-ejector/core/signing"
	"github.com/lidofinance/validator-ejector/crypto/bls"
)

// GenerateSignedExit creates a fresh BLS key and a voluntary exit for the
// given validator, signed under the exit domain derived from forkVersion and
// genesisValidatorsRoot. Returns the signed exit and the signer's public key.
func GenerateSignedExit(epoch, validatorIndex uint64, forkVersion, genesisValidatorsRoot []byte) (*eth.SignedVoluntaryExit, []byte, error) {
	key, err := bls.RandKey()
	if err != nil {
		return nil, nil, err
	}
	exit := &eth.VoluntaryExit{
		Epoch:          types.Epoch(epoch),
		ValidatorIndex: types.ValidatorIndex(validatorIndex),
	}
	domain, err := signing.ComputeDomain(params.BeaconConfig().DomainVoluntaryExit, forkVersion, genesisValidatorsRoot)
	if err != nil {
		return nil, nil, err
	}
	root, err := signing.ComputeSigningRoot(exit, domain)
	if err != nil {
		return nil, nil, err
	}
	signed := &eth.SignedVoluntaryExit{
		Exit:      exit,
		Signature: key.Sign(root[:]).Marshal(),
	}
	return signed, key.PublicKey().Marshal(), nil
}

// ExitMessageJSON renders a signed exit in the beacon API file format
// operators keep in their message folders.
func ExitMessageJSON(signed *eth.SignedVoluntaryExit) []byte {
	return []byte(fmt.Sprintf(
		`{"message":{"epoch":"%d","validator_index":"%d"},"signature":"%s"}`,
		signed.Exit.Epoch, signed.Exit.ValidatorIndex, hexutil.Encode(signed.Signature),
	))
}
