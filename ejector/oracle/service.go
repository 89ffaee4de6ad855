// Package oracle proves validator exit request events authentic. Each event
// is walked back through the full chain of custody: the finalization
// transaction that embedded the validator's pubkey in an oracle report, the
// recomputed report hash, the ConsensusReached event that approved that hash,
// the origin transaction that submitted it, and finally the recovered signer
// checked against a trusted allowlist. Every hop is re-derived, never trusted
// from a prior hop's unchecked claim.
package oracle

import (
	"context"
	"math/big"
	"strings"
	"time"

	"github.com/dgraph-io/ristretto"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/patrickmn/go-cache"
	"github.com/pkg/errors"
)

const (
	// Reports are decoded once per frame and shared across all validators the
	// frame exits, so the cache only ever holds a handful of entries.
	reportCacheCounters = 1e4
	reportCacheMaxCost  = 16 << 20 // maximum total bytes of cached report data.

	signerCacheTTL   = 12 * time.Hour
	signerCachePurge = time.Hour
)

// SecurityChecks states whether the verification chain runs at all.
type SecurityChecks int

const (
	// SecurityChecksEnabled runs the full chain of custody for every event.
	SecurityChecksEnabled SecurityChecks = iota
	// SecurityChecksDisabledForTesting accepts every event without proof.
	// Exists for non production test setups only and is never silent.
	SecurityChecksDisabledForTesting
)

// ExecutionClient is the narrow execution layer surface the verification
// chain consumes.
type ExecutionClient interface {
	ChainID(ctx context.Context) (*big.Int, error)
	TransactionByHash(ctx context.Context, hash common.Hash) (*gethtypes.Transaction, error)
	FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]gethtypes.Log, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg) ([]byte, error)
}

// Allowlist is the set of addresses trusted to have signed oracle report
// submissions. Lookup is case insensitive.
type Allowlist map[string]bool

// NewAllowlist normalizes the given addresses to lowercase hex.
func NewAllowlist(addresses []string) Allowlist {
	a := make(Allowlist, len(addresses))
	for _, addr := range addresses {
		a[strings.ToLower(strings.TrimSpace(addr))] = true
	}
	return a
}

// Contains reports whether the address is trusted.
func (a Allowlist) Contains(addr common.Address) bool {
	return a[strings.ToLower(addr.Hex())]
}

// config holds the collaborators and scope for the verification chain.
type config struct {
	executionClient ExecutionClient
	allowlist       Allowlist
	locatorAddress  common.Address
	stakingModuleID uint64
	nodeOperatorID  uint64
	securityChecks  SecurityChecks
	frameBlocks     uint64
}

// Verifier resolves the protocol contract addresses, fetches exit request
// events and verifies each one against a consensus approved oracle report.
// It is driven by the single orchestrator goroutine and holds no locks.
type Verifier struct {
	cfg         *config
	exitBus     common.Address
	consensus   common.Address
	chainID     *big.Int
	reportCache *ristretto.Cache
	signerCache *cache.Cache
}

// NewVerifier instantiates a verifier from its functional options.
func NewVerifier(opts ...Option) (*Verifier, error) {
	v := &Verifier{
		cfg: &config{
			securityChecks: SecurityChecksEnabled,
		},
	}
	for _, opt := range opts {
		if err := opt(v); err != nil {
			return nil, err
		}
	}
	if v.cfg.executionClient == nil {
		return nil, errors.New("no execution client configured")
	}
	if v.cfg.frameBlocks == 0 {
		return nil, errors.New("oracle frame length not configured")
	}
	if (v.cfg.locatorAddress == common.Address{}) {
		return nil, errors.New("locator address not configured")
	}
	if v.cfg.securityChecks == SecurityChecksDisabledForTesting {
		log.Warn("Exit request security checks are DISABLED. Forged exit requests will be accepted. Never run this mode against real validators")
	} else if len(v.cfg.allowlist) == 0 {
		return nil, errors.New("oracle allowlist is empty")
	}
	reportCache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: reportCacheCounters, // number of keys to track frequency of.
		MaxCost:     reportCacheMaxCost,  // maximum cost of cache.
		BufferItems: 64,                  // number of keys per Get buffer.
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to start report cache")
	}
	v.reportCache = reportCache
	v.signerCache = cache.New(signerCacheTTL, signerCachePurge)
	return v, nil
}

// StakingModuleID this verifier is scoped to.
func (v *Verifier) StakingModuleID() uint64 {
	return v.cfg.stakingModuleID
}

// NodeOperatorID this verifier is scoped to.
func (v *Verifier) NodeOperatorID() uint64 {
	return v.cfg.nodeOperatorID
}

// signerChainID returns the attached chain's id, fetched once and reused for
// every signature recovery.
func (v *Verifier) signerChainID(ctx context.Context) (*big.Int, error) {
	if v.chainID != nil {
		return v.chainID, nil
	}
	id, err := v.cfg.executionClient.ChainID(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "could not fetch chain id")
	}
	v.chainID = id
	return id, nil
}
