// Package client implements the ejector's job orchestrator: a single linear
// pipeline that reloads the exit message store, resolves the protocol
// contract addresses, fetches exit request events from the finalized block
// range and dispatches a pre-signed voluntary exit (or a webhook call) for
// every verified request. One cycle runs to completion before the next
// begins and the resume cursor only moves forward.
package client

import (
	"context"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/lidofinance/validator-ejector/async"
	"github.com/lidofinance/validator-ejector/beacon"
	"github.com/lidofinance/validator-ejector/consensus-types/eth"
	"github.com/lidofinance/validator-ejector/ejector/db/kv"
	"github.com/lidofinance/validator-ejector/ejector/messages"
	"github.com/lidofinance/validator-ejector/ejector/oracle"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// VerificationChain is the oracle package surface the orchestrator drives.
type VerificationChain interface {
	ResolveExitBusAddress(ctx context.Context) (common.Address, error)
	ResolveConsensusAddress(ctx context.Context) (common.Address, error)
	FetchExitRequestEvents(ctx context.Context, fromBlock, toBlock uint64) ([]*oracle.ExitRequestEvent, error)
	VerifyEvent(ctx context.Context, pubkey [48]byte, txHash common.Hash, toBlock uint64) error
	LastRequestedValidatorIndex(ctx context.Context) (int64, error)
}

// ExecutionClient is the execution layer surface the orchestrator needs
// beyond what the verification chain consumes itself.
type ExecutionClient interface {
	SyncProgress(ctx context.Context) (*ethereum.SyncProgress, error)
	FinalizedHeader(ctx context.Context) (*gethtypes.Header, error)
}

// ConsensusClient is the beacon node surface used for sync checks, validator
// lookups and direct exit submission.
type ConsensusClient interface {
	NodeSyncing(ctx context.Context) (*beacon.SyncStatus, error)
	Validator(ctx context.Context, id string) (*beacon.Validator, error)
	SubmitVoluntaryExit(ctx context.Context, exit *eth.SignedVoluntaryExit) error
}

// MessageReloader refreshes the exit message store from its source folder.
type MessageReloader interface {
	Reconcile(ctx context.Context) (*messages.ReconcileReport, error)
}

// MessageLookup is the read side of the exit message store.
type MessageLookup interface {
	Get(validatorIndex uint64) (*messages.StoredMessage, bool)
	Count() int
}

// CursorStore persists the resume cursor across restarts.
type CursorStore interface {
	ResumeCursor(moduleID, operatorID uint64) (*kv.CursorRecord, error)
	SaveResumeCursor(moduleID, operatorID uint64, rec *kv.CursorRecord) error
}

// Config wires the orchestrator's collaborators.
type Config struct {
	Verifier        VerificationChain
	Execution       ExecutionClient
	Consensus       ConsensusClient
	Reloader        MessageReloader
	Dispatcher      *Dispatcher
	DB              CursorStore
	Metrics         MetricsSink
	StakingModuleID uint64
	NodeOperatorID  uint64
	BlockLookback   uint64
	CycleInterval   time.Duration
}

// Service runs job cycles on a fixed period. It satisfies runtime.Service so
// the node registry can manage its lifecycle and surface its health.
type Service struct {
	cfg    *Config
	ctx    context.Context
	cancel context.CancelFunc

	cycleLock sync.Mutex // one cycle at a time, a slow cycle skips the next tick.

	statusLock sync.RWMutex
	lastErr    error

	cursor kv.CursorRecord
}

// NewService constructs the orchestrator service.
func NewService(ctx context.Context, cfg *Config) (*Service, error) {
	if cfg.Verifier == nil {
		return nil, errors.New("verification chain is required")
	}
	if cfg.Execution == nil {
		return nil, errors.New("execution client is required")
	}
	if cfg.Consensus == nil {
		return nil, errors.New("consensus client is required")
	}
	if cfg.Reloader == nil {
		return nil, errors.New("message reloader is required")
	}
	if cfg.Dispatcher == nil {
		return nil, errors.New("dispatcher is required")
	}
	if cfg.Metrics == nil {
		cfg.Metrics = &PrometheusSink{}
	}
	if cfg.BlockLookback == 0 {
		return nil, errors.New("block lookback is required")
	}
	if cfg.CycleInterval == 0 {
		return nil, errors.New("cycle interval is required")
	}
	ctx, cancel := context.WithCancel(ctx)
	s := &Service{
		cfg:    cfg,
		ctx:    ctx,
		cancel: cancel,
		cursor: kv.CursorRecord{Position: -1},
	}
	if cfg.DB != nil {
		rec, err := cfg.DB.ResumeCursor(cfg.StakingModuleID, cfg.NodeOperatorID)
		if err != nil {
			cancel()
			return nil, errors.Wrap(err, "could not load resume cursor")
		}
		if rec != nil {
			s.cursor = *rec
			log.WithFields(logrus.Fields{
				"position":  rec.Position,
				"fromBlock": rec.FromBlock,
				"toBlock":   rec.ToBlock,
			}).Info("Restored resume cursor")
		}
	}
	return s, nil
}

// Start launches the cycle ticker. The first cycle runs immediately.
func (s *Service) Start() {
	log.WithFields(logrus.Fields{
		"module":   s.cfg.StakingModuleID,
		"operator": s.cfg.NodeOperatorID,
		"mode":     s.cfg.Dispatcher.Mode(),
		"interval": s.cfg.CycleInterval,
	}).Info("Starting exit request watcher")
	s.runOnce()
	async.RunEvery(s.ctx, s.cfg.CycleInterval, s.runOnce)
}

// Stop halts the cycle ticker. An in-flight cycle is cancelled through the
// service context.
func (s *Service) Stop() error {
	s.cancel()
	return nil
}

// Status returns the error of the last completed cycle, nil when it
// succeeded. Surfaced through the monitoring service's healthz endpoint.
func (s *Service) Status() error {
	s.statusLock.RLock()
	defer s.statusLock.RUnlock()
	return s.lastErr
}

// runOnce executes a single job cycle, skipping the tick when the previous
// cycle is still running. Cycles never overlap.
func (s *Service) runOnce() {
	if !s.cycleLock.TryLock() {
		log.Warn("Previous job cycle still running, skipping this tick")
		return
	}
	defer s.cycleLock.Unlock()

	report, err := s.RunJobCycle(s.ctx)
	s.statusLock.Lock()
	s.lastErr = err
	s.statusLock.Unlock()
	if err != nil {
		if s.ctx.Err() != nil {
			return
		}
		if errors.Is(err, ErrNodeSyncing) {
			log.WithError(err).Warn("Nodes are still syncing, skipping this job cycle")
			return
		}
		log.WithError(err).Error("Job cycle failed, will retry on the next tick")
		return
	}
	log.WithFields(logrus.Fields{
		"events":    report.Events,
		"skipped":   report.AlreadyExiting,
		"submitted": report.Submitted,
		"forwarded": report.Forwarded,
		"missing":   report.MissingMessages,
		"failures":  report.Failures,
		"rejected":  report.Rejected,
		"cursor":    report.Cursor,
	}).Info("Job cycle complete")
}

// ReloadAndVerifyMessages refreshes the message store outside the regular
// cycle cadence.
func (s *Service) ReloadAndVerifyMessages(ctx context.Context) (*messages.ReconcileReport, error) {
	return s.cfg.Reloader.Reconcile(ctx)
}
