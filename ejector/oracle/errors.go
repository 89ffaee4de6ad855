package oracle

import "github.com/pkg/errors"

// Verification rejections are deterministic. They mark a single event as
// untrustworthy and are never retried.
var (
	// ErrPubkeyNotInReport means the finalization transaction's report data
	// does not contain the requested validator public key.
	ErrPubkeyNotInReport = errors.New("validator pubkey not found in report data")

	// ErrConsensusReachedNotFound means no ConsensusReached event inside the
	// search window carries the recomputed report hash.
	ErrConsensusReachedNotFound = errors.New("no consensus reached event matches report hash")

	// ErrReportHashMismatch means the origin transaction submitted a report
	// hash different from the one recomputed from the finalization
	// transaction.
	ErrReportHashMismatch = errors.New("origin transaction report hash mismatch")

	// ErrUntrustedSigner means the recovered origin transaction signer is not
	// in the oracle allowlist.
	ErrUntrustedSigner = errors.New("origin transaction signed by untrusted address")
)

// IsVerificationRejection reports whether the error is one of the
// deterministic chain of custody rejections, as opposed to a transport fault
// worth retrying.
func IsVerificationRejection(err error) bool {
	return errors.Is(err, ErrPubkeyNotInReport) ||
		errors.Is(err, ErrConsensusReachedNotFound) ||
		errors.Is(err, ErrReportHashMismatch) ||
		errors.Is(err, ErrUntrustedSigner)
}

// ErrAddressResolution marks a failure to obtain a protocol contract address
// from the locator. Address resolution is load bearing for everything
// downstream, so the orchestrator aborts the cycle on it.
var ErrAddressResolution = errors.New("could not resolve contract address")
