package oracle

import (
	"context"
	"encoding/hex"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// VerifyEvent proves an exit request authentic by walking its chain of
// custody: finalization tx -> report hash -> ConsensusReached event -> origin
// tx -> signer allowlist. toBlock anchors the ConsensusReached search window.
// Failures carry one of the deterministic sentinel errors and must not be
// retried.
func (v *Verifier) VerifyEvent(ctx context.Context, pubkey [48]byte, txHash common.Hash, toBlock uint64) error {
	if v.cfg.securityChecks == SecurityChecksDisabledForTesting {
		log.WithFields(logrus.Fields{
			"pubkey":         fmt.Sprintf("%#x", pubkey),
			"finalizationTx": txHash.Hex(),
		}).Warn("SECURITY CHECKS DISABLED, accepting exit request without verification")
		exitRequestsVerifiedTotal.WithLabelValues("skipped").Inc()
		return nil
	}
	err := v.verifyEvent(ctx, pubkey, txHash, toBlock)
	exitRequestsVerifiedTotal.WithLabelValues(verificationOutcome(err)).Inc()
	return err
}

func (v *Verifier) verifyEvent(ctx context.Context, pubkey [48]byte, txHash common.Hash, toBlock uint64) error {
	submission, err := v.reportSubmission(ctx, txHash)
	if err != nil {
		return err
	}
	if !reportContainsPubkey(submission.Report.Data, pubkey) {
		return errors.Wrapf(ErrPubkeyNotInReport, "pubkey %#x, finalization tx %#x", pubkey, txHash)
	}
	originTx, err := v.findConsensusReached(ctx, submission.Hash, toBlock)
	if err != nil {
		return err
	}
	origin, err := v.consensusSubmission(ctx, originTx, submission.Hash)
	if err != nil {
		return err
	}
	if !v.cfg.allowlist.Contains(origin.Signer) {
		return errors.Wrapf(ErrUntrustedSigner, "signer %s", origin.Signer.Hex())
	}
	log.WithFields(logrus.Fields{
		"pubkey": fmt.Sprintf("%#x", pubkey),
		"signer": origin.Signer.Hex(),
	}).Debug("Exit request verified")
	return nil
}

// reportSubmission fetches and decodes the finalization transaction, serving
// repeats from cache so a report covering many validators is decoded once.
func (v *Verifier) reportSubmission(ctx context.Context, txHash common.Hash) (*ReportSubmission, error) {
	if cached, ok := v.reportCache.Get(txHash.Hex()); ok {
		reportCacheHitsTotal.Inc()
		return cached.(*ReportSubmission), nil
	}
	tx, err := v.cfg.executionClient.TransactionByHash(ctx, txHash)
	if err != nil {
		return nil, errors.Wrapf(err, "could not fetch finalization tx %#x", txHash)
	}
	submission, err := decodeReportSubmission(tx.Data())
	if err != nil {
		return nil, errors.Wrapf(err, "finalization tx %#x", txHash)
	}
	v.reportCache.Set(txHash.Hex(), submission, int64(len(submission.Report.Data)))
	v.reportCache.Wait()
	return submission, nil
}

// findConsensusReached scans one frame of ConsensusReached events backwards
// from toBlock for the one that approved the given report hash, and returns
// the hash of the transaction that emitted it.
func (v *Verifier) findConsensusReached(ctx context.Context, report common.Hash, toBlock uint64) (common.Hash, error) {
	var fromBlock uint64
	if toBlock > v.cfg.frameBlocks {
		fromBlock = toBlock - v.cfg.frameBlocks
	}
	q := ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(fromBlock),
		ToBlock:   new(big.Int).SetUint64(toBlock),
		Addresses: []common.Address{v.consensus},
		Topics: [][]common.Hash{
			{hashConsensusABI.Events["ConsensusReached"].ID},
		},
	}
	logs, err := v.cfg.executionClient.FilterLogs(ctx, q)
	if err != nil {
		return common.Hash{}, errors.Wrap(err, "could not fetch consensus reached events")
	}
	for i := range logs {
		got, err := decodeConsensusReachedLog(&logs[i])
		if err != nil {
			log.WithError(err).WithField("tx", logs[i].TxHash.Hex()).Debug("Skipping undecodable consensus reached log")
			continue
		}
		if got == report {
			return logs[i].TxHash, nil
		}
	}
	return common.Hash{}, errors.Wrapf(ErrConsensusReachedNotFound, "report %#x, blocks %d-%d", report, fromBlock, toBlock)
}

// consensusSubmission fetches the origin transaction, asserts it carried the
// expected report hash and recovers its signer from the signature over the
// canonical transaction payload. The decode and recovery are cached per
// origin tx; the hash equality check runs on every call.
func (v *Verifier) consensusSubmission(ctx context.Context, originTxHash, report common.Hash) (*ConsensusSubmission, error) {
	if cached, ok := v.signerCache.Get(originTxHash.Hex()); ok {
		signerCacheHitsTotal.Inc()
		origin := cached.(*ConsensusSubmission)
		if origin.ReportHash != report {
			return nil, errors.Wrapf(ErrReportHashMismatch, "origin tx %#x submitted %#x, want %#x", originTxHash, origin.ReportHash, report)
		}
		return origin, nil
	}
	tx, err := v.cfg.executionClient.TransactionByHash(ctx, originTxHash)
	if err != nil {
		return nil, errors.Wrapf(err, "could not fetch origin tx %#x", originTxHash)
	}
	submitted, err := decodeSubmitReport(tx.Data())
	if err != nil {
		return nil, errors.Wrapf(err, "origin tx %#x", originTxHash)
	}
	chainID, err := v.signerChainID(ctx)
	if err != nil {
		return nil, err
	}
	signer, err := gethtypes.Sender(gethtypes.LatestSignerForChainID(chainID), tx)
	if err != nil {
		return nil, errors.Wrapf(err, "could not recover signer of origin tx %#x", originTxHash)
	}
	origin := &ConsensusSubmission{ReportHash: submitted, Signer: signer}
	v.signerCache.SetDefault(originTxHash.Hex(), origin)
	if origin.ReportHash != report {
		return nil, errors.Wrapf(ErrReportHashMismatch, "origin tx %#x submitted %#x, want %#x", originTxHash, submitted, report)
	}
	return origin, nil
}

// LastRequestedValidatorIndex reads how far the staking module has already
// acknowledged exit requests for the configured operator. Feeds a metrics
// gauge only, never verification. Returns -1 when no exit was ever requested.
func (v *Verifier) LastRequestedValidatorIndex(ctx context.Context) (int64, error) {
	if (v.exitBus == common.Address{}) {
		return 0, errors.New("exit bus address not resolved")
	}
	data, err := exitBusOracleABI.Pack(
		"getLastRequestedValidatorIndices",
		new(big.Int).SetUint64(v.cfg.stakingModuleID),
		[]*big.Int{new(big.Int).SetUint64(v.cfg.nodeOperatorID)},
	)
	if err != nil {
		return 0, errors.Wrap(err, "could not pack getLastRequestedValidatorIndices call")
	}
	res, err := v.cfg.executionClient.CallContract(ctx, ethereum.CallMsg{To: &v.exitBus, Data: data})
	if err != nil {
		return 0, errors.Wrap(err, "getLastRequestedValidatorIndices call failed")
	}
	out, err := exitBusOracleABI.Unpack("getLastRequestedValidatorIndices", res)
	if err != nil {
		return 0, errors.Wrap(err, "could not decode getLastRequestedValidatorIndices result")
	}
	indices := *abi.ConvertType(out[0], new([]*big.Int)).(*[]*big.Int)
	if len(indices) == 0 {
		return 0, errors.New("empty last requested validator index result")
	}
	idx := indices[0].Int64()
	if idx < -1 {
		idx = -1
	}
	lastRequestedValidatorIndexGauge.WithLabelValues(
		strconv.FormatUint(v.cfg.stakingModuleID, 10),
		strconv.FormatUint(v.cfg.nodeOperatorID, 10),
	).Set(float64(idx))
	return idx, nil
}

// reportContainsPubkey checks the pubkey's hex form appears in the report
// payload, binding the specific validator to the specific finalized report.
func reportContainsPubkey(reportData []byte, pubkey [48]byte) bool {
	return strings.Contains(hex.EncodeToString(reportData), hex.EncodeToString(pubkey[:]))
}

func verificationOutcome(err error) string {
	switch {
	case err == nil:
		return "accepted"
	case errors.Is(err, ErrPubkeyNotInReport):
		return "pubkey_not_in_report"
	case errors.Is(err, ErrConsensusReachedNotFound):
		return "consensus_not_found"
	case errors.Is(err, ErrReportHashMismatch):
		return "report_hash_mismatch"
	case errors.Is(err, ErrUntrustedSigner):
		return "untrusted_signer"
	default:
		return "error"
	}
}
