package oracle

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
)

// Option for the verifier.
type Option func(v *Verifier) error

// WithExecutionClient sets the execution layer client used for every chain
// read the verification chain performs.
func WithExecutionClient(ec ExecutionClient) Option {
	return func(v *Verifier) error {
		v.cfg.executionClient = ec
		return nil
	}
}

// WithLocatorAddress sets the protocol service locator contract address.
func WithLocatorAddress(addr string) Option {
	return func(v *Verifier) error {
		if !common.IsHexAddress(addr) {
			return errors.Errorf("invalid locator address %q", addr)
		}
		v.cfg.locatorAddress = common.HexToAddress(addr)
		return nil
	}
}

// WithOperator scopes the verifier to a staking module and node operator
// pair. Event fetches filter on these via indexed topics.
func WithOperator(stakingModuleID, nodeOperatorID uint64) Option {
	return func(v *Verifier) error {
		v.cfg.stakingModuleID = stakingModuleID
		v.cfg.nodeOperatorID = nodeOperatorID
		return nil
	}
}

// WithAllowlist sets the trusted oracle signer addresses.
func WithAllowlist(addresses []string) Option {
	return func(v *Verifier) error {
		v.cfg.allowlist = NewAllowlist(addresses)
		return nil
	}
}

// WithFrameBlocks sets the length of the ConsensusReached search window in
// execution blocks, normally one oracle report frame.
func WithFrameBlocks(n uint64) Option {
	return func(v *Verifier) error {
		v.cfg.frameBlocks = n
		return nil
	}
}

// WithSecurityChecks selects between full verification and the test only
// accept everything mode.
func WithSecurityChecks(mode SecurityChecks) Option {
	return func(v *Verifier) error {
		v.cfg.securityChecks = mode
		return nil
	}
}
