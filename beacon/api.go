package beacon

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/lidofinance/validator-ejector/consensus-types/eth"
	types "github.com/lidofinance/validator-ejector/consensus-types/primitives"
	"github.com/pkg/errors"
)

const (
	getNodeSyncingPath      = "/eth/v1/node/syncing"
	getGenesisPath          = "/eth/v1/beacon/genesis"
	getStateForkPath        = "/eth/v1/beacon/states/head/fork"
	getValidatorPath        = "/eth/v1/beacon/states/head/validators/%s"
	submitVoluntaryExitPath = "/eth/v1/beacon/pool/voluntary_exits"
)

// SyncStatus describes the sync state of the consensus node.
type SyncStatus struct {
	HeadSlot     types.Slot
	SyncDistance uint64
	IsSyncing    bool
	IsOptimistic bool
}

// Genesis holds the chain genesis information needed for domain computation.
type Genesis struct {
	GenesisTime           uint64
	GenesisValidatorsRoot []byte
	GenesisForkVersion    []byte
}

// Fork is the fork currently active on the node's head state.
type Fork struct {
	PreviousVersion []byte
	CurrentVersion  []byte
	Epoch           types.Epoch
}

// ValidatorStatus is a beacon API validator status string.
type ValidatorStatus string

// Validator statuses the ejector distinguishes. Anything else is treated as
// still active for dispatch purposes.
const (
	StatusActiveExiting      ValidatorStatus = "active_exiting"
	StatusExitedUnslashed    ValidatorStatus = "exited_unslashed"
	StatusExitedSlashed      ValidatorStatus = "exited_slashed"
	StatusWithdrawalPossible ValidatorStatus = "withdrawal_possible"
	StatusWithdrawalDone     ValidatorStatus = "withdrawal_done"
)

// IsExiting reports whether the validator has already initiated or completed
// an exit, meaning no further exit message is required.
func (s ValidatorStatus) IsExiting() bool {
	switch s {
	case StatusActiveExiting, StatusExitedUnslashed, StatusExitedSlashed,
		StatusWithdrawalPossible, StatusWithdrawalDone:
		return true
	default:
		return false
	}
}

// Validator is the subset of the beacon API validator response the ejector
// acts on.
type Validator struct {
	Index  types.ValidatorIndex
	Pubkey []byte
	Status ValidatorStatus
}

type syncingResponseJSON struct {
	Data struct {
		HeadSlot     string `json:"head_slot"`
		SyncDistance string `json:"sync_distance"`
		IsSyncing    bool   `json:"is_syncing"`
		IsOptimistic bool   `json:"is_optimistic"`
	} `json:"data"`
}

type genesisResponseJSON struct {
	Data struct {
		GenesisTime           string `json:"genesis_time"`
		GenesisValidatorsRoot string `json:"genesis_validators_root"`
		GenesisForkVersion    string `json:"genesis_fork_version"`
	} `json:"data"`
}

type forkResponseJSON struct {
	Data struct {
		PreviousVersion string `json:"previous_version"`
		CurrentVersion  string `json:"current_version"`
		Epoch           string `json:"epoch"`
	} `json:"data"`
}

type validatorResponseJSON struct {
	Data struct {
		Index     string `json:"index"`
		Status    string `json:"status"`
		Validator struct {
			Pubkey string `json:"pubkey"`
		} `json:"validator"`
	} `json:"data"`
}

// SignedVoluntaryExitJSON is the beacon API wire representation of a signed
// voluntary exit.
type SignedVoluntaryExitJSON struct {
	Message   VoluntaryExitJSON `json:"message"`
	Signature string            `json:"signature"`
}

// VoluntaryExitJSON is the beacon API wire representation of an exit message.
type VoluntaryExitJSON struct {
	Epoch          string `json:"epoch"`
	ValidatorIndex string `json:"validator_index"`
}

// NodeSyncing returns the sync status of the consensus node.
func (c *Client) NodeSyncing(ctx context.Context) (*SyncStatus, error) {
	body, err := c.Get(ctx, getNodeSyncingPath)
	if err != nil {
		return nil, errors.Wrap(err, "error requesting node syncing status")
	}
	v := &syncingResponseJSON{}
	if err := json.Unmarshal(body, v); err != nil {
		return nil, errors.Wrap(err, "error decoding node syncing response")
	}
	headSlot, err := strconv.ParseUint(v.Data.HeadSlot, 10, 64)
	if err != nil {
		return nil, errors.Wrap(err, "error parsing head slot")
	}
	distance, err := strconv.ParseUint(v.Data.SyncDistance, 10, 64)
	if err != nil {
		return nil, errors.Wrap(err, "error parsing sync distance")
	}
	return &SyncStatus{
		HeadSlot:     types.Slot(headSlot),
		SyncDistance: distance,
		IsSyncing:    v.Data.IsSyncing,
		IsOptimistic: v.Data.IsOptimistic,
	}, nil
}

// Genesis returns the chain genesis details, including the genesis validators
// root mixed into every signature domain.
func (c *Client) Genesis(ctx context.Context) (*Genesis, error) {
	body, err := c.Get(ctx, getGenesisPath)
	if err != nil {
		return nil, errors.Wrap(err, "error requesting genesis")
	}
	v := &genesisResponseJSON{}
	if err := json.Unmarshal(body, v); err != nil {
		return nil, errors.Wrap(err, "error decoding genesis response")
	}
	genesisTime, err := strconv.ParseUint(v.Data.GenesisTime, 10, 64)
	if err != nil {
		return nil, errors.Wrap(err, "error parsing genesis time")
	}
	root, err := hexutil.Decode(v.Data.GenesisValidatorsRoot)
	if err != nil {
		return nil, errors.Wrap(err, "error parsing genesis validators root")
	}
	forkVersion, err := hexutil.Decode(v.Data.GenesisForkVersion)
	if err != nil {
		return nil, errors.Wrap(err, "error parsing genesis fork version")
	}
	return &Genesis{
		GenesisTime:           genesisTime,
		GenesisValidatorsRoot: root,
		GenesisForkVersion:    forkVersion,
	}, nil
}

// StateFork returns the fork of the node's head state.
func (c *Client) StateFork(ctx context.Context) (*Fork, error) {
	body, err := c.Get(ctx, getStateForkPath)
	if err != nil {
		return nil, errors.Wrap(err, "error requesting head state fork")
	}
	v := &forkResponseJSON{}
	if err := json.Unmarshal(body, v); err != nil {
		return nil, errors.Wrap(err, "error decoding state fork response")
	}
	previous, err := hexutil.Decode(v.Data.PreviousVersion)
	if err != nil {
		return nil, errors.Wrap(err, "error parsing previous fork version")
	}
	current, err := hexutil.Decode(v.Data.CurrentVersion)
	if err != nil {
		return nil, errors.Wrap(err, "error parsing current fork version")
	}
	epoch, err := strconv.ParseUint(v.Data.Epoch, 10, 64)
	if err != nil {
		return nil, errors.Wrap(err, "error parsing fork epoch")
	}
	return &Fork{
		PreviousVersion: previous,
		CurrentVersion:  current,
		Epoch:           types.Epoch(epoch),
	}, nil
}

// Validator looks up a validator on the head state by 0x-prefixed public key
// or decimal index.
func (c *Client) Validator(ctx context.Context, id string) (*Validator, error) {
	body, err := c.Get(ctx, fmt.Sprintf(getValidatorPath, id))
	if err != nil {
		return nil, errors.Wrapf(err, "error requesting validator %s", id)
	}
	v := &validatorResponseJSON{}
	if err := json.Unmarshal(body, v); err != nil {
		return nil, errors.Wrap(err, "error decoding validator response")
	}
	index, err := strconv.ParseUint(v.Data.Index, 10, 64)
	if err != nil {
		return nil, errors.Wrap(err, "error parsing validator index")
	}
	pubkey, err := hexutil.Decode(v.Data.Validator.Pubkey)
	if err != nil {
		return nil, errors.Wrap(err, "error parsing validator pubkey")
	}
	return &Validator{
		Index:  types.ValidatorIndex(index),
		Pubkey: pubkey,
		Status: ValidatorStatus(v.Data.Status),
	}, nil
}

// SubmitVoluntaryExit posts a signed voluntary exit to the node's operation
// pool. A 200 response means the exit was accepted for broadcast.
func (c *Client) SubmitVoluntaryExit(ctx context.Context, exit *eth.SignedVoluntaryExit) error {
	if exit == nil || exit.Exit == nil {
		return errors.New("nil signed voluntary exit")
	}
	body, err := json.Marshal(&SignedVoluntaryExitJSON{
		Message: VoluntaryExitJSON{
			Epoch:          strconv.FormatUint(uint64(exit.Exit.Epoch), 10),
			ValidatorIndex: strconv.FormatUint(uint64(exit.Exit.ValidatorIndex), 10),
		},
		Signature: hexutil.Encode(exit.Signature),
	})
	if err != nil {
		return errors.Wrap(err, "error encoding voluntary exit")
	}
	if _, err := c.Post(ctx, submitVoluntaryExitPath, body); err != nil {
		return errors.Wrap(err, "error submitting voluntary exit")
	}
	return nil
}
