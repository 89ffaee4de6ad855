package signing

import (
	"github.com/lidofinance/validator-ejector/config/params"
	"github.com/lidofinance/validator-ejector/consensus-types/eth"
	"github.com/pkg/errors"
)

// VerifyVoluntaryExitSignature verifies a pre-signed voluntary exit against
// the voluntary exit domain derived from the given fork version and genesis
// validators root.
func VerifyVoluntaryExitSignature(signed *eth.SignedVoluntaryExit, forkVersion, genesisValidatorsRoot, pub []byte) error {
	if signed == nil || signed.Exit == nil {
		return errors.New("nil signed voluntary exit")
	}
	domain, err := ComputeDomain(params.BeaconConfig().DomainVoluntaryExit, forkVersion, genesisValidatorsRoot)
	if err != nil {
		return errors.Wrap(err, "could not compute voluntary exit domain")
	}
	return VerifySigningRoot(signed.Exit, pub, signed.Signature, domain)
}
