package messages

import (
	"github.com/lidofinance/validator-ejector/config/params"
	"github.com/lidofinance/validator-ejector/consensus-types/eth"
	types "github.com/lidofinance/validator-ejector/consensus-types/primitives"
	"github.com/lidofinance/validator-ejector/core/signing"
)

// ChainContext is the chain state snapshot one reconciliation cycle
// validates against, fetched once per cycle.
type ChainContext struct {
	GenesisValidatorsRoot []byte
	CurrentVersion        []byte
	PreviousVersion       []byte
	Epoch                 types.Epoch
}

// Validator proves pre-signed exit messages valid for their validator under
// the correct signing domain.
type Validator struct {
	verifyFn func(signed *eth.SignedVoluntaryExit, forkVersion, genesisValidatorsRoot, pub []byte) error
}

// NewValidator returns a validator backed by real BLS verification.
func NewValidator() *Validator {
	return &Validator{verifyFn: signing.VerifyVoluntaryExitSignature}
}

// Verify checks the message signature under the fork domain policy. Past the
// fork that froze the exit domain only the capella domain counts. Before it,
// the chain's current fork version is tried first and the previous one
// second, covering messages signed just before a fork boundary. Exactly two
// versions are ever tried.
func (v *Validator) Verify(chain *ChainContext, pubkey []byte, m *ExitMessage) error {
	signed := m.Signed()
	cfg := params.BeaconConfig()
	if cfg.ExitDomainFrozen(chain.Epoch) {
		return v.verifyFn(signed, cfg.CapellaForkVersion, chain.GenesisValidatorsRoot, pubkey)
	}
	if err := v.verifyFn(signed, chain.CurrentVersion, chain.GenesisValidatorsRoot, pubkey); err == nil {
		return nil
	}
	return v.verifyFn(signed, chain.PreviousVersion, chain.GenesisValidatorsRoot, pubkey)
}
