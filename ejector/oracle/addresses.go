package oracle

import (
	"context"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
)

// ResolveExitBusAddress reads the exit bus oracle address from the locator
// contract. Re-resolved every cycle so a protocol address migration needs no
// restart.
func (v *Verifier) ResolveExitBusAddress(ctx context.Context) (common.Address, error) {
	addr, err := v.callForAddress(ctx, v.cfg.locatorAddress, lidoLocatorABI, "validatorsExitBusOracle")
	if err != nil {
		return common.Address{}, errors.Wrapf(ErrAddressResolution, "validatorsExitBusOracle: %v", err)
	}
	if addr != v.exitBus {
		log.WithField("address", addr.Hex()).Info("Resolved exit bus oracle contract")
	}
	v.exitBus = addr
	return addr, nil
}

// ResolveConsensusAddress reads the hash consensus contract address from the
// exit bus oracle. Requires a resolved exit bus address.
func (v *Verifier) ResolveConsensusAddress(ctx context.Context) (common.Address, error) {
	if (v.exitBus == common.Address{}) {
		return common.Address{}, errors.Wrap(ErrAddressResolution, "exit bus address not resolved")
	}
	addr, err := v.callForAddress(ctx, v.exitBus, exitBusOracleABI, "getConsensusContract")
	if err != nil {
		return common.Address{}, errors.Wrapf(ErrAddressResolution, "getConsensusContract: %v", err)
	}
	if addr != v.consensus {
		log.WithField("address", addr.Hex()).Info("Resolved hash consensus contract")
	}
	v.consensus = addr
	return addr, nil
}

func (v *Verifier) callForAddress(ctx context.Context, contract common.Address, contractABI abi.ABI, method string) (common.Address, error) {
	data, err := contractABI.Pack(method)
	if err != nil {
		return common.Address{}, errors.Wrapf(err, "could not pack %s call", method)
	}
	res, err := v.cfg.executionClient.CallContract(ctx, ethereum.CallMsg{To: &contract, Data: data})
	if err != nil {
		return common.Address{}, errors.Wrapf(err, "%s call failed", method)
	}
	out, err := contractABI.Unpack(method, res)
	if err != nil {
		return common.Address{}, errors.Wrapf(err, "could not decode %s result", method)
	}
	addr := *abi.ConvertType(out[0], new(common.Address)).(*common.Address)
	if (addr == common.Address{}) {
		return common.Address{}, errors.Errorf("%s returned the zero address", method)
	}
	return addr, nil
}
