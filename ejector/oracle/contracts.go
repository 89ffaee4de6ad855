package oracle

import (
	"bytes"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/lidofinance/validator-ejector/encoding/bytesutil"
	"github.com/pkg/errors"
)

// The ejector only consumes a handful of methods and events from the protocol
// contracts, so the ABIs below are trimmed to exactly that surface.
const (
	lidoLocatorABIJSON = `[
		{"inputs":[],"name":"validatorsExitBusOracle","outputs":[{"internalType":"address","name":"","type":"address"}],"stateMutability":"view","type":"function"}
	]`

	exitBusOracleABIJSON = `[
		{"inputs":[],"name":"getConsensusContract","outputs":[{"internalType":"address","name":"","type":"address"}],"stateMutability":"view","type":"function"},
		{"inputs":[{"internalType":"uint256","name":"moduleId","type":"uint256"},{"internalType":"uint256[]","name":"nodeOpIds","type":"uint256[]"}],"name":"getLastRequestedValidatorIndices","outputs":[{"internalType":"int256[]","name":"","type":"int256[]"}],"stateMutability":"view","type":"function"},
		{"inputs":[{"components":[{"internalType":"uint256","name":"consensusVersion","type":"uint256"},{"internalType":"uint256","name":"refSlot","type":"uint256"},{"internalType":"uint256","name":"requestsCount","type":"uint256"},{"internalType":"uint256","name":"dataFormat","type":"uint256"},{"internalType":"bytes","name":"data","type":"bytes"}],"internalType":"struct ReportData","name":"data","type":"tuple"},{"internalType":"uint256","name":"contractVersion","type":"uint256"}],"name":"submitReportData","outputs":[],"stateMutability":"nonpayable","type":"function"},
		{"anonymous":false,"inputs":[{"indexed":true,"internalType":"uint256","name":"stakingModuleId","type":"uint256"},{"indexed":true,"internalType":"uint256","name":"nodeOperatorId","type":"uint256"},{"indexed":true,"internalType":"uint256","name":"validatorIndex","type":"uint256"},{"indexed":false,"internalType":"bytes","name":"validatorPubkey","type":"bytes"},{"indexed":false,"internalType":"uint256","name":"timestamp","type":"uint256"}],"name":"ValidatorExitRequest","type":"event"}
	]`

	hashConsensusABIJSON = `[
		{"inputs":[{"internalType":"uint256","name":"slot","type":"uint256"},{"internalType":"bytes32","name":"report","type":"bytes32"},{"internalType":"uint256","name":"consensusVersion","type":"uint256"}],"name":"submitReport","outputs":[],"stateMutability":"nonpayable","type":"function"},
		{"anonymous":false,"inputs":[{"indexed":true,"internalType":"uint256","name":"refSlot","type":"uint256"},{"indexed":false,"internalType":"bytes32","name":"report","type":"bytes32"},{"indexed":false,"internalType":"uint256","name":"support","type":"uint256"}],"name":"ConsensusReached","type":"event"}
	]`
)

var (
	lidoLocatorABI   = mustParseABI(lidoLocatorABIJSON)
	exitBusOracleABI = mustParseABI(exitBusOracleABIJSON)
	hashConsensusABI = mustParseABI(hashConsensusABIJSON)
)

func mustParseABI(def string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(def))
	if err != nil {
		panic(err)
	}
	return parsed
}

// ExitRequestEvent is a decoded ValidatorExitRequest log. Immutable once
// decoded.
type ExitRequestEvent struct {
	ValidatorIndex  uint64
	ValidatorPubkey [48]byte
	StakingModuleID uint64
	NodeOperatorID  uint64
	TxHash          common.Hash
	BlockNumber     uint64
}

// ReportData is the oracle report payload carried by a submitReportData call.
// Field order mirrors the on chain tuple so the ABI decoder can map into it.
type ReportData struct {
	ConsensusVersion *big.Int
	RefSlot          *big.Int
	RequestsCount    *big.Int
	DataFormat       *big.Int
	Data             []byte
}

// ReportSubmission is the decoded finalization transaction payload together
// with the recomputed report hash.
type ReportSubmission struct {
	Report ReportData
	Hash   common.Hash
}

// ConsensusSubmission is the decoded origin transaction: the report hash it
// carried and the address recovered from its signature.
type ConsensusSubmission struct {
	ReportHash common.Hash
	Signer     common.Address
}

// decodeReportSubmission decodes submitReportData calldata and recomputes the
// report hash the consensus contract would have agreed on.
func decodeReportSubmission(calldata []byte) (*ReportSubmission, error) {
	method := exitBusOracleABI.Methods["submitReportData"]
	if len(calldata) < 4 || !bytes.Equal(calldata[:4], method.ID) {
		return nil, errors.New("transaction calldata is not a submitReportData call")
	}
	args, err := method.Inputs.Unpack(calldata[4:])
	if err != nil {
		return nil, errors.Wrap(err, "could not unpack submitReportData calldata")
	}
	report := *abi.ConvertType(args[0], new(ReportData)).(*ReportData)
	hash, err := reportHash(&report)
	if err != nil {
		return nil, err
	}
	return &ReportSubmission{Report: report, Hash: hash}, nil
}

// reportHash recomputes keccak256 of the ABI encoded report tuple, the value
// oracle members vote on in the consensus contract.
func reportHash(report *ReportData) (common.Hash, error) {
	packed, err := abi.Arguments{exitBusOracleABI.Methods["submitReportData"].Inputs[0]}.Pack(*report)
	if err != nil {
		return common.Hash{}, errors.Wrap(err, "could not encode report data")
	}
	return crypto.Keccak256Hash(packed), nil
}

// decodeSubmitReport decodes submitReport calldata from an origin transaction.
func decodeSubmitReport(calldata []byte) (common.Hash, error) {
	method := hashConsensusABI.Methods["submitReport"]
	if len(calldata) < 4 || !bytes.Equal(calldata[:4], method.ID) {
		return common.Hash{}, errors.New("transaction calldata is not a submitReport call")
	}
	args, err := method.Inputs.Unpack(calldata[4:])
	if err != nil {
		return common.Hash{}, errors.Wrap(err, "could not unpack submitReport calldata")
	}
	report := *abi.ConvertType(args[1], new([32]byte)).(*[32]byte)
	return report, nil
}

// decodeConsensusReachedLog extracts the report hash from a ConsensusReached
// log's data section.
func decodeConsensusReachedLog(lg *types.Log) (common.Hash, error) {
	out, err := hashConsensusABI.Unpack("ConsensusReached", lg.Data)
	if err != nil {
		return common.Hash{}, errors.Wrap(err, "could not unpack ConsensusReached log")
	}
	report := *abi.ConvertType(out[0], new([32]byte)).(*[32]byte)
	return report, nil
}

// decodeExitRequestLog decodes a ValidatorExitRequest log into an event. The
// staking module id, node operator id and validator index arrive as indexed
// topics; the pubkey rides in the data section.
func decodeExitRequestLog(lg *types.Log) (*ExitRequestEvent, error) {
	if len(lg.Topics) != 4 {
		return nil, errors.Errorf("exit request log has %d topics, want 4", len(lg.Topics))
	}
	out, err := exitBusOracleABI.Unpack("ValidatorExitRequest", lg.Data)
	if err != nil {
		return nil, errors.Wrap(err, "could not unpack ValidatorExitRequest log")
	}
	pubkey, ok := out[0].([]byte)
	if !ok || len(pubkey) != 48 {
		return nil, errors.Errorf("exit request carries malformed pubkey of %d bytes", len(pubkey))
	}
	return &ExitRequestEvent{
		StakingModuleID: lg.Topics[1].Big().Uint64(),
		NodeOperatorID:  lg.Topics[2].Big().Uint64(),
		ValidatorIndex:  lg.Topics[3].Big().Uint64(),
		ValidatorPubkey: bytesutil.ToBytes48(pubkey),
		TxHash:          lg.TxHash,
		BlockNumber:     lg.BlockNumber,
	}, nil
}
