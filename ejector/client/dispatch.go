package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/lidofinance/validator-ejector/beacon"
	"github.com/lidofinance/validator-ejector/consensus-types/eth"
	"github.com/lidofinance/validator-ejector/ejector/oracle"
	"github.com/pkg/errors"
)

// DispatchMode selects what happens with a verified exit request. Constructed
// once at startup, so each path is a distinct, auditable branch.
type DispatchMode int

const (
	// DirectSubmit submits the stored pre-signed exit to the consensus layer.
	DirectSubmit DispatchMode = iota
	// Webhook forwards the raw event to a configured URL and delegates the
	// exit to whatever is listening there.
	Webhook
	// DryRun acknowledges events without any side effect.
	DryRun
)

// String renders the mode for startup logs.
func (m DispatchMode) String() string {
	switch m {
	case DirectSubmit:
		return "direct"
	case Webhook:
		return "webhook"
	case DryRun:
		return "dry-run"
	default:
		return "unknown"
	}
}

// Outcome classifies what Dispatch did with an event.
type Outcome int

const (
	// OutcomeFailed means dispatch errored and must be retried.
	OutcomeFailed Outcome = iota
	// OutcomeAlreadyExiting means the validator needs no action.
	OutcomeAlreadyExiting
	// OutcomeDryRun means the event was acknowledged without side effects.
	OutcomeDryRun
	// OutcomeForwarded means the event was delivered to the webhook.
	OutcomeForwarded
	// OutcomeSubmitted means the pre-signed exit was accepted for broadcast.
	OutcomeSubmitted
	// OutcomeMissingMessage means no pre-signed message exists for the
	// validator. The cursor must not advance past it.
	OutcomeMissingMessage
)

const (
	webhookAttempts      = 3
	webhookRetryBackoff  = time.Second
	webhookTimeout       = 10 * time.Second
	validatorExitAPIPath = "/validator/exit-message/%s"
)

// DispatcherConfig wires a Dispatcher.
type DispatcherConfig struct {
	Mode             DispatchMode
	WebhookURL       string
	ValidatorAPIBase string
	Consensus        ConsensusClient
	Store            MessageLookup
	Creator          MessageCreator
	HTTPClient       *http.Client
}

// Dispatcher executes the per-validator action for a verified exit request.
type Dispatcher struct {
	cfg *DispatcherConfig
}

// NewDispatcher validates the mode's collaborators and returns a dispatcher.
func NewDispatcher(cfg *DispatcherConfig) (*Dispatcher, error) {
	if cfg.Consensus == nil {
		return nil, errors.New("consensus client is required")
	}
	switch cfg.Mode {
	case Webhook:
		if cfg.WebhookURL == "" {
			return nil, errors.New("webhook mode requires a webhook URL")
		}
	case DirectSubmit:
		if cfg.Store == nil {
			return nil, errors.New("direct mode requires a message store")
		}
	case DryRun:
	default:
		return nil, errors.Errorf("unknown dispatch mode %d", cfg.Mode)
	}
	if cfg.Creator == nil {
		cfg.Creator = &NoopCreator{}
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: webhookTimeout}
	}
	return &Dispatcher{cfg: cfg}, nil
}

// Mode returns the configured dispatch mode.
func (d *Dispatcher) Mode() DispatchMode {
	return d.cfg.Mode
}

// Dispatch performs the configured action for one verified exit request. A
// validator that is already exiting needs nothing regardless of mode.
func (d *Dispatcher) Dispatch(ctx context.Context, ev *oracle.ExitRequestEvent) (Outcome, error) {
	pubkey := hexutil.Encode(ev.ValidatorPubkey[:])
	v, err := d.cfg.Consensus.Validator(ctx, pubkey)
	if err != nil {
		return OutcomeFailed, errors.Wrapf(err, "could not look up validator %d", ev.ValidatorIndex)
	}
	if v.Status.IsExiting() {
		return OutcomeAlreadyExiting, nil
	}

	switch d.cfg.Mode {
	case DryRun:
		return OutcomeDryRun, nil
	case Webhook:
		if err := d.forwardEvent(ctx, ev); err != nil {
			return OutcomeFailed, err
		}
		return OutcomeForwarded, nil
	default:
		return d.submitExit(ctx, ev, pubkey)
	}
}

// submitExit looks up the validator's pre-signed message and submits it to
// the consensus layer, or to the validator API when one is configured. When
// no message exists, out-of-band creation is requested and the event stays
// pending.
func (d *Dispatcher) submitExit(ctx context.Context, ev *oracle.ExitRequestEvent, pubkey string) (Outcome, error) {
	stored, ok := d.cfg.Store.Get(ev.ValidatorIndex)
	if !ok {
		if err := d.cfg.Creator.RequestMessageCreation(ctx, pubkey); err != nil {
			log.WithError(err).WithField("pubkey", pubkey).Warn("Could not request exit message creation")
		}
		return OutcomeMissingMessage, nil
	}
	if d.cfg.ValidatorAPIBase != "" {
		if err := d.submitViaValidatorAPI(ctx, stored.Message.Signed(), pubkey); err != nil {
			return OutcomeFailed, err
		}
		return OutcomeSubmitted, nil
	}
	if err := d.cfg.Consensus.SubmitVoluntaryExit(ctx, stored.Message.Signed()); err != nil {
		return OutcomeFailed, errors.Wrapf(err, "could not submit exit for validator %d", ev.ValidatorIndex)
	}
	return OutcomeSubmitted, nil
}

type exitRequestEventJSON struct {
	ValidatorIndex  string `json:"validatorIndex"`
	ValidatorPubkey string `json:"validatorPubkey"`
	StakingModuleID string `json:"stakingModuleId"`
	NodeOperatorID  string `json:"nodeOperatorId"`
	TransactionHash string `json:"transactionHash"`
	BlockNumber     string `json:"blockNumber"`
}

// forwardEvent POSTs the raw event to the webhook, retrying transient
// failures within the standard budget. Only a 2xx response counts as
// delivered.
func (d *Dispatcher) forwardEvent(ctx context.Context, ev *oracle.ExitRequestEvent) error {
	body, err := json.Marshal(&exitRequestEventJSON{
		ValidatorIndex:  strconv.FormatUint(ev.ValidatorIndex, 10),
		ValidatorPubkey: hexutil.Encode(ev.ValidatorPubkey[:]),
		StakingModuleID: strconv.FormatUint(ev.StakingModuleID, 10),
		NodeOperatorID:  strconv.FormatUint(ev.NodeOperatorID, 10),
		TransactionHash: ev.TxHash.Hex(),
		BlockNumber:     strconv.FormatUint(ev.BlockNumber, 10),
	})
	if err != nil {
		return errors.Wrap(err, "could not encode exit request event")
	}
	var lastErr error
	for i := 0; i < webhookAttempts; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(webhookRetryBackoff * time.Duration(i)):
			}
		}
		lastErr = d.postWebhook(ctx, body)
		if lastErr == nil {
			return nil
		}
		log.WithError(lastErr).Debug("Webhook delivery failed, retrying")
	}
	return errors.Wrapf(lastErr, "webhook delivery failed after %d attempts", webhookAttempts)
}

func (d *Dispatcher) postWebhook(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.cfg.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := d.cfg.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			log.WithError(err).Debug("Could not close webhook response body")
		}
	}()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errors.Errorf("webhook responded with status %d", resp.StatusCode)
	}
	return nil
}

// submitViaValidatorAPI posts the signed exit to an operator-run validator
// API instead of straight to the beacon node pool.
func (d *Dispatcher) submitViaValidatorAPI(ctx context.Context, exit *eth.SignedVoluntaryExit, pubkey string) error {
	body, err := json.Marshal(&beacon.SignedVoluntaryExitJSON{
		Message: beacon.VoluntaryExitJSON{
			Epoch:          strconv.FormatUint(uint64(exit.Exit.Epoch), 10),
			ValidatorIndex: strconv.FormatUint(uint64(exit.Exit.ValidatorIndex), 10),
		},
		Signature: hexutil.Encode(exit.Signature),
	})
	if err != nil {
		return errors.Wrap(err, "could not encode signed exit")
	}
	url := d.cfg.ValidatorAPIBase + fmt.Sprintf(validatorExitAPIPath, pubkey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := d.cfg.HTTPClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "validator API request failed")
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			log.WithError(err).Debug("Could not close validator API response body")
		}
	}()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errors.Errorf("validator API responded with status %d", resp.StatusCode)
	}
	return nil
}
