package oracle

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// FetchExitRequestEvents returns the decoded exit requests for the configured
// staking module and node operator between fromBlock and toBlock inclusive.
// On chain emission order is preserved end to end because the resume cursor
// is positional.
func (v *Verifier) FetchExitRequestEvents(ctx context.Context, fromBlock, toBlock uint64) ([]*ExitRequestEvent, error) {
	if (v.exitBus == common.Address{}) {
		return nil, errors.New("exit bus address not resolved")
	}
	q := ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(fromBlock),
		ToBlock:   new(big.Int).SetUint64(toBlock),
		Addresses: []common.Address{v.exitBus},
		Topics: [][]common.Hash{
			{exitBusOracleABI.Events["ValidatorExitRequest"].ID},
			{common.BigToHash(new(big.Int).SetUint64(v.cfg.stakingModuleID))},
			{common.BigToHash(new(big.Int).SetUint64(v.cfg.nodeOperatorID))},
		},
	}
	logs, err := v.cfg.executionClient.FilterLogs(ctx, q)
	if err != nil {
		return nil, errors.Wrap(err, "could not fetch exit request logs")
	}
	events := make([]*ExitRequestEvent, 0, len(logs))
	for i := range logs {
		ev, err := decodeExitRequestLog(&logs[i])
		if err != nil {
			return nil, errors.Wrapf(err, "could not decode exit request log in tx %#x", logs[i].TxHash)
		}
		events = append(events, ev)
	}
	log.WithFields(logrus.Fields{
		"fromBlock": fromBlock,
		"toBlock":   toBlock,
		"events":    len(events),
	}).Debug("Fetched exit request events")
	return events, nil
}
