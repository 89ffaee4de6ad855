package messages

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"runtime"
	"strconv"

	"github.com/lidofinance/validator-ejector/beacon"
	"github.com/lidofinance/validator-ejector/ejector/messages/source"
	"github.com/lidofinance/validator-ejector/encoding/bytesutil"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// yieldEvery is how many files the reconciler processes between cooperative
// yields, keeping the monitoring endpoints responsive during large loads.
const yieldEvery = 100

// ConsensusClient is the beacon node surface the reconciler needs.
type ConsensusClient interface {
	Genesis(ctx context.Context) (*beacon.Genesis, error)
	StateFork(ctx context.Context) (*beacon.Fork, error)
	Validator(ctx context.Context, id string) (*beacon.Validator, error)
}

// ReconcileReport summarizes one reconciliation pass over the message folder.
type ReconcileReport struct {
	Added   int
	Updated int
	Removed int
	Invalid int
}

// ReconcilerConfig wires a Reconciler's collaborators.
type ReconcilerConfig struct {
	Store     *Store
	Reader    source.Reader
	Consensus ConsensusClient
	Location  string
	Password  string
}

// Reconciler loads exit message files from a folder, validates them against
// the chain, and brings the store in line with what the folder holds.
type Reconciler struct {
	store     *Store
	reader    source.Reader
	consensus ConsensusClient
	validator *Validator
	location  string
	password  string

	genesisRoot []byte
}

// NewReconciler builds a reconciler from its collaborators.
func NewReconciler(cfg *ReconcilerConfig) (*Reconciler, error) {
	if cfg.Store == nil {
		return nil, errors.New("message store is required")
	}
	if cfg.Reader == nil {
		return nil, errors.New("message reader is required")
	}
	if cfg.Consensus == nil {
		return nil, errors.New("consensus client is required")
	}
	if cfg.Location == "" {
		return nil, errors.New("message location is required")
	}
	return &Reconciler{
		store:     cfg.Store,
		reader:    cfg.Reader,
		consensus: cfg.Consensus,
		validator: NewValidator(),
		location:  cfg.Location,
		password:  cfg.Password,
	}, nil
}

// Reconcile runs one full pass: prune fork-stale entries, read the folder,
// parse and verify anything new, and drop entries whose files disappeared.
// A transport failure aborts the pass and leaves the store as it was, to be
// retried on the next cycle.
func (r *Reconciler) Reconcile(ctx context.Context) (*ReconcileReport, error) {
	report, err := r.reconcile(ctx)
	if err != nil {
		reconcileRunsTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	reconcileRunsTotal.WithLabelValues("ok").Inc()
	return report, nil
}

func (r *Reconciler) reconcile(ctx context.Context) (*ReconcileReport, error) {
	if r.genesisRoot == nil {
		g, err := r.consensus.Genesis(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "could not fetch genesis")
		}
		r.genesisRoot = g.GenesisValidatorsRoot
	}
	fork, err := r.consensus.StateFork(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "could not fetch head state fork")
	}
	current := bytesutil.ToBytes4(fork.CurrentVersion)
	chain := &ChainContext{
		GenesisValidatorsRoot: r.genesisRoot,
		CurrentVersion:        fork.CurrentVersion,
		PreviousVersion:       fork.PreviousVersion,
		Epoch:                 fork.Epoch,
	}

	report := &ReconcileReport{}
	r.store.BeginCycle()
	report.Removed += r.store.PruneForkMismatch(current)

	files, err := r.reader.ReadFolder(ctx, r.location)
	if err != nil {
		return nil, errors.Wrapf(err, "could not read messages from %s", r.location)
	}

	for i, f := range files {
		if i > 0 && i%yieldEvery == 0 {
			runtime.Gosched()
		}
		sum := sha256.Sum256(f.Content)
		checksum := hex.EncodeToString(sum[:])
		if r.store.TouchChecksum(checksum) {
			continue
		}

		msg, _, err := Parse(f.Content, r.password)
		if err != nil {
			r.store.RecordInvalid(f.Name, err.Error())
			report.Invalid++
			log.WithError(err).WithField("file", f.Name).Warn("Skipping unparseable exit message file")
			continue
		}

		v, err := r.consensus.Validator(ctx, strconv.FormatUint(msg.ValidatorIndex, 10))
		if err != nil {
			if errors.Is(err, beacon.ErrNotFound) {
				reason := fmt.Sprintf("validator %d not found on chain", msg.ValidatorIndex)
				r.store.RecordInvalid(f.Name, reason)
				report.Invalid++
				log.WithField("file", f.Name).Warn("Skipping exit message for unknown validator")
				continue
			}
			return nil, errors.Wrapf(err, "could not look up validator %d", msg.ValidatorIndex)
		}

		// An exit signed for a validator that is already exiting will never
		// be broadcast, so a bad signature on it costs nothing.
		if !v.Status.IsExiting() {
			if err := r.validator.Verify(chain, v.Pubkey, msg); err != nil {
				r.store.RecordInvalid(f.Name, fmt.Sprintf("invalid signature: %v", err))
				report.Invalid++
				log.WithError(err).WithFields(logrus.Fields{
					"file":           f.Name,
					"validatorIndex": msg.ValidatorIndex,
				}).Warn("Skipping exit message with invalid signature")
				continue
			}
		}

		if r.store.Put(&StoredMessage{
			Message:     *msg,
			Checksum:    checksum,
			SourceID:    f.Name,
			ForkVersion: current,
		}) {
			report.Added++
		} else {
			report.Updated++
		}
	}

	report.Removed += r.store.RemoveUntouched()

	messagesLoadedGauge.Set(float64(r.store.Count()))
	messagesInvalidGauge.Set(float64(report.Invalid))
	log.WithFields(logrus.Fields{
		"added":   report.Added,
		"updated": report.Updated,
		"removed": report.Removed,
		"invalid": report.Invalid,
		"loaded":  r.store.Count(),
	}).Info("Exit message reconciliation complete")
	return report, nil
}
