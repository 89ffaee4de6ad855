package client

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/lidofinance/validator-ejector/ejector/db/kv"
	"github.com/lidofinance/validator-ejector/ejector/oracle"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// CycleReport aggregates what one job cycle did. Counters accumulate inside
// the pipeline and are handed to the metrics sink once at the end.
type CycleReport struct {
	Events          int
	AlreadyExiting  int
	Submitted       int
	Forwarded       int
	DryRun          int
	MissingMessages int
	Rejected        int
	Failures        int
	Cursor          int64
	FromBlock       uint64
	ToBlock         uint64
}

// ErrNodeSyncing marks a cycle skipped because a node is still catching up.
// Acting on a syncing node's finalized view would scan a stale block range.
var ErrNodeSyncing = errors.New("node is still syncing")

// RunJobCycle executes one pass of the orchestration pipeline:
// reload messages, resolve addresses, fetch the finalized block range, fetch
// events, then verify and dispatch each event in on-chain order starting
// after the resume cursor. Transport and address resolution failures abort
// the cycle; everything per event is isolated.
func (s *Service) RunJobCycle(ctx context.Context) (*CycleReport, error) {
	clog := log.WithField("run", uuid.New().String()[:8])

	if err := s.checkNodesSynced(ctx); err != nil {
		return nil, err
	}

	reconciled, err := s.cfg.Reloader.Reconcile(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "could not reload exit messages")
	}
	clog.WithFields(logrus.Fields{
		"added":   reconciled.Added,
		"updated": reconciled.Updated,
		"removed": reconciled.Removed,
		"invalid": reconciled.Invalid,
	}).Debug("Reloaded exit messages")

	if _, err := s.cfg.Verifier.ResolveExitBusAddress(ctx); err != nil {
		return nil, err
	}
	if _, err := s.cfg.Verifier.ResolveConsensusAddress(ctx); err != nil {
		return nil, err
	}

	header, err := s.cfg.Execution.FinalizedHeader(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "could not fetch finalized header")
	}
	toBlock := header.Number.Uint64()
	var fromBlock uint64
	if toBlock > s.cfg.BlockLookback {
		fromBlock = toBlock - s.cfg.BlockLookback
	}

	events, err := s.cfg.Verifier.FetchExitRequestEvents(ctx, fromBlock, toBlock)
	if err != nil {
		return nil, err
	}

	report := &CycleReport{Events: len(events), FromBlock: fromBlock, ToBlock: toBlock}
	s.alignCursor(fromBlock, toBlock, len(events), clog)

	for i := int(s.cursor.Position) + 1; i < len(events); i++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		advance := s.processEvent(ctx, events[i], toBlock, report, clog)
		if advance {
			s.advanceCursor(int64(i), fromBlock, toBlock, clog)
		}
	}
	report.Cursor = s.cursor.Position

	s.updateMetrics(ctx, report, clog)
	return report, nil
}

// checkNodesSynced refuses to run a cycle while either node is syncing. Both
// the finalized header and the beacon validator statuses are meaningless
// until the nodes have caught up.
func (s *Service) checkNodesSynced(ctx context.Context) error {
	progress, err := s.cfg.Execution.SyncProgress(ctx)
	if err != nil {
		return errors.Wrap(err, "could not read execution node sync progress")
	}
	if progress != nil {
		return errors.Wrapf(ErrNodeSyncing, "execution node at block %d of %d", progress.CurrentBlock, progress.HighestBlock)
	}
	status, err := s.cfg.Consensus.NodeSyncing(ctx)
	if err != nil {
		return errors.Wrap(err, "could not read consensus node sync status")
	}
	if status.IsSyncing {
		return errors.Wrapf(ErrNodeSyncing, "consensus node %d slots behind", status.SyncDistance)
	}
	return nil
}

// alignCursor validates the restored cursor against the block range the
// events were fetched from. The cursor is positional, so it is only
// meaningful for the exact range it was recorded in; any other range starts
// from scratch. Replays are harmless because already exiting validators are
// skipped.
func (s *Service) alignCursor(fromBlock, toBlock uint64, count int, clog *logrus.Entry) {
	if s.cursor.Position < 0 {
		s.cursor = kvCursor(-1, fromBlock, toBlock)
		return
	}
	if s.cursor.FromBlock != fromBlock || s.cursor.ToBlock != toBlock {
		clog.WithFields(logrus.Fields{
			"cursor":    s.cursor.Position,
			"fromBlock": fromBlock,
			"toBlock":   toBlock,
		}).Debug("Block range moved, restarting event scan")
		s.cursor = kvCursor(-1, fromBlock, toBlock)
		return
	}
	if s.cursor.Position >= int64(count) {
		clog.WithFields(logrus.Fields{
			"cursor": s.cursor.Position,
			"events": count,
		}).Warn("Resume cursor is beyond the fetched event list, resetting")
		s.cursor = kvCursor(-1, fromBlock, toBlock)
	}
}

// processEvent verifies one exit request and dispatches it. Returns whether
// the cursor may advance past this event. Any panic or error is contained to
// this event so the rest of the batch still runs.
func (s *Service) processEvent(ctx context.Context, ev *oracle.ExitRequestEvent, toBlock uint64, report *CycleReport, clog *logrus.Entry) (advance bool) {
	elog := clog.WithFields(logrus.Fields{
		"validatorIndex": ev.ValidatorIndex,
		"pubkey":         fmt.Sprintf("%#x", ev.ValidatorPubkey[:8]),
	})
	defer func() {
		if r := recover(); r != nil {
			report.Failures++
			dispatchFailuresTotal.Inc()
			elog.Errorf("Recovered from panic while processing exit request: %v", r)
			advance = false
		}
	}()

	if err := s.cfg.Verifier.VerifyEvent(ctx, ev.ValidatorPubkey, ev.TxHash, toBlock); err != nil {
		if oracle.IsVerificationRejection(err) {
			// Deterministic rejection. Retrying cannot change the outcome, so
			// the event is recorded and left behind.
			report.Rejected++
			elog.WithError(err).Error("Exit request failed verification, ignoring it")
			return true
		}
		report.Failures++
		dispatchFailuresTotal.Inc()
		elog.WithError(err).Error("Could not verify exit request")
		return false
	}

	outcome, err := s.cfg.Dispatcher.Dispatch(ctx, ev)
	switch outcome {
	case OutcomeAlreadyExiting:
		report.AlreadyExiting++
		elog.Debug("Validator is already exiting, nothing to do")
		return true
	case OutcomeDryRun:
		report.DryRun++
		elog.Info("Dry run, exit request acknowledged without side effects")
		return true
	case OutcomeForwarded:
		report.Forwarded++
		eventsForwardedTotal.Inc()
		elog.Info("Exit request forwarded to webhook")
		return true
	case OutcomeSubmitted:
		report.Submitted++
		exitsSubmittedTotal.Inc()
		elog.Info("Voluntary exit submitted")
		return true
	case OutcomeMissingMessage:
		// A hard operational gap. The cursor stays put so this validator is
		// retried next cycle, after the operator (or the external tool) has a
		// chance to provision the message. If a later event in the same batch
		// advances the cursor past this position, the retry waits until the
		// finalized range moves and the scan restarts from the top.
		report.MissingMessages++
		missingMessagesTotal.Inc()
		elog.Error("No pre-signed exit message for requested validator, requesting out-of-band creation")
		return false
	default:
		report.Failures++
		dispatchFailuresTotal.Inc()
		elog.WithError(err).Error("Could not dispatch exit request")
		return false
	}
}

// advanceCursor moves the resume cursor and persists it when a database is
// configured. Persistence is best effort; an unsaved cursor only costs a
// harmless replay after restart.
func (s *Service) advanceCursor(position int64, fromBlock, toBlock uint64, clog *logrus.Entry) {
	s.cursor = kvCursor(position, fromBlock, toBlock)
	resumeCursorGauge.Set(float64(position))
	if s.cfg.DB == nil {
		return
	}
	if err := s.cfg.DB.SaveResumeCursor(s.cfg.StakingModuleID, s.cfg.NodeOperatorID, &s.cursor); err != nil {
		clog.WithError(err).Warn("Could not persist resume cursor")
	}
}

// updateMetrics hands the cycle's accumulators to the metrics sink and
// refreshes the last requested validator index gauge. Best effort: a failure
// here is logged and the cycle still counts as successful.
func (s *Service) updateMetrics(ctx context.Context, report *CycleReport, clog *logrus.Entry) {
	if _, err := s.cfg.Verifier.LastRequestedValidatorIndex(ctx); err != nil {
		clog.WithError(err).Warn("Could not read last requested validator index")
	}
	s.cfg.Metrics.ObserveCycle(report)
}

func kvCursor(position int64, fromBlock, toBlock uint64) kv.CursorRecord {
	return kv.CursorRecord{Position: position, FromBlock: fromBlock, ToBlock: toBlock}
}
