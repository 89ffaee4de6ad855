package messages

import (
	"testing"

	"github.com/lidofinance/validator-ejector/config/params"
	"github.com/lidofinance/validator-ejector/consensus-types/eth"
	"github.com/lidofinance/validator-ejector/core/signing"
	"github.com/lidofinance/validator-ejector/encoding/bytesutil"
	"github.com/lidofinance/validator-ejector/testing/assert"
	"github.com/lidofinance/validator-ejector/testing/require"
	"github.com/lidofinance/validator-ejector/testing/util"
	"github.com/pkg/errors"
)

var testGenesisRoot = bytesutil.PadTo([]byte{0x42}, 32)

func exitMessageFromSigned(signed *eth.SignedVoluntaryExit) *ExitMessage {
	m := &ExitMessage{
		Epoch:          uint64(signed.Exit.Epoch),
		ValidatorIndex: uint64(signed.Exit.ValidatorIndex),
	}
	copy(m.Signature[:], signed.Signature)
	return m
}

// recordingValidator returns a Validator whose verification function records
// the fork versions attempted and fails for every version in rejected.
func recordingValidator(rejected ...string) (*Validator, *[]string) {
	attempts := &[]string{}
	reject := make(map[string]bool, len(rejected))
	for _, v := range rejected {
		reject[v] = true
	}
	v := &Validator{verifyFn: func(_ *eth.SignedVoluntaryExit, forkVersion, _, _ []byte) error {
		*attempts = append(*attempts, string(forkVersion))
		if reject[string(forkVersion)] {
			return signing.ErrSigFailedToVerify
		}
		return nil
	}}
	return v, attempts
}

func TestVerify_CurrentForkFirst(t *testing.T) {
	params.SetupTestConfigCleanup(t)
	params.UseMainnetConfig()
	chain := &ChainContext{
		GenesisValidatorsRoot: testGenesisRoot,
		CurrentVersion:        []byte{3, 0, 0, 0},
		PreviousVersion:       []byte{2, 0, 0, 0},
		Epoch:                 200000,
	}
	m := &ExitMessage{Epoch: 194048, ValidatorIndex: 11}

	v, attempts := recordingValidator()
	require.NoError(t, v.Verify(chain, make([]byte, 48), m))
	require.Equal(t, 1, len(*attempts))
	assert.Equal(t, string([]byte{3, 0, 0, 0}), (*attempts)[0])
}

func TestVerify_FallsBackToPreviousFork(t *testing.T) {
	params.SetupTestConfigCleanup(t)
	params.UseMainnetConfig()
	chain := &ChainContext{
		GenesisValidatorsRoot: testGenesisRoot,
		CurrentVersion:        []byte{3, 0, 0, 0},
		PreviousVersion:       []byte{2, 0, 0, 0},
		Epoch:                 200000,
	}
	m := &ExitMessage{Epoch: 194048, ValidatorIndex: 11}

	v, attempts := recordingValidator(string([]byte{3, 0, 0, 0}))
	require.NoError(t, v.Verify(chain, make([]byte, 48), m))
	require.Equal(t, 2, len(*attempts))
	assert.Equal(t, string([]byte{3, 0, 0, 0}), (*attempts)[0])
	assert.Equal(t, string([]byte{2, 0, 0, 0}), (*attempts)[1])

	// Both versions failing surfaces the error; never a third attempt.
	v, attempts = recordingValidator(string([]byte{3, 0, 0, 0}), string([]byte{2, 0, 0, 0}))
	err := v.Verify(chain, make([]byte, 48), m)
	require.ErrorIs(t, err, signing.ErrSigFailedToVerify)
	assert.Equal(t, 2, len(*attempts))
}

func TestVerify_FrozenDomainUsesCapellaOnly(t *testing.T) {
	params.SetupTestConfigCleanup(t)
	params.UseMainnetConfig()
	chain := &ChainContext{
		GenesisValidatorsRoot: testGenesisRoot,
		CurrentVersion:        []byte{4, 0, 0, 0},
		PreviousVersion:       []byte{3, 0, 0, 0},
		Epoch:                 params.BeaconConfig().DenebForkEpoch,
	}
	m := &ExitMessage{Epoch: 194048, ValidatorIndex: 11}

	v, attempts := recordingValidator()
	require.NoError(t, v.Verify(chain, make([]byte, 48), m))
	require.Equal(t, 1, len(*attempts))
	assert.Equal(t, string(params.BeaconConfig().CapellaForkVersion), (*attempts)[0])
}

func TestVerify_RealSignature(t *testing.T) {
	params.SetupTestConfigCleanup(t)
	params.UseMainnetConfig()
	capella := params.BeaconConfig().CapellaForkVersion

	signed, pub, err := util.GenerateSignedExit(194048, 55555, capella, testGenesisRoot)
	require.NoError(t, err)
	m := exitMessageFromSigned(signed)

	chain := &ChainContext{
		GenesisValidatorsRoot: testGenesisRoot,
		CurrentVersion:        capella,
		PreviousVersion:       []byte{2, 0, 0, 0},
		Epoch:                 200000,
	}
	require.NoError(t, NewValidator().Verify(chain, pub, m))

	// A capella-signed message stays valid after the chain moves past the
	// freeze fork.
	frozen := &ChainContext{
		GenesisValidatorsRoot: testGenesisRoot,
		CurrentVersion:        params.BeaconConfig().DenebForkVersion,
		PreviousVersion:       capella,
		Epoch:                 params.BeaconConfig().DenebForkEpoch + 1,
	}
	require.NoError(t, NewValidator().Verify(frozen, pub, m))

	m.Signature[5] ^= 0x01
	err = NewValidator().Verify(chain, pub, m)
	require.NotNil(t, err)
	if !errors.Is(err, signing.ErrSigFailedToVerify) {
		// blst rejects some flipped bytes as malformed points before the
		// pairing check runs.
		require.ErrorContains(t, "signature", err)
	}
}
