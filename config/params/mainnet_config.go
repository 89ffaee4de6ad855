package params

import (
	"math"

	types "github.com/lidofinance/validator-ejector/consensus-types/primitives"
)

// MainnetConfig returns the configuration to be used in the main network.
func MainnetConfig() *BeaconChainConfig {
	if mainnetBeaconConfig.ForkVersionSchedule == nil {
		mainnetBeaconConfig.InitializeForkSchedule()
	}
	return mainnetBeaconConfig
}

var mainnetBeaconConfig = &BeaconChainConfig{
	ConfigName: MainnetName,
	PresetBase: "mainnet",

	// Forks.
	GenesisForkVersion:   []byte{0, 0, 0, 0},
	AltairForkVersion:    []byte{1, 0, 0, 0},
	BellatrixForkVersion: []byte{2, 0, 0, 0},
	CapellaForkVersion:   []byte{3, 0, 0, 0},
	DenebForkVersion:     []byte{4, 0, 0, 0},
	AltairForkEpoch:      74240,
	BellatrixForkEpoch:   144896,
	CapellaForkEpoch:     194048,
	DenebForkEpoch:       269568,

	// Initial values.
	GenesisEpoch:   0,
	GenesisSlot:    0,
	FarFutureEpoch: types.Epoch(math.MaxUint64),

	// Time parameters.
	SecondsPerSlot: 12,
	SlotsPerEpoch:  32,

	// Max operations per block.
	MaxVoluntaryExits: 16,

	// Deposit contract.
	DepositChainID:   1,
	DepositNetworkID: 1,

	// Signature domains.
	DomainVoluntaryExit: [4]byte{4, 0, 0, 0},

	EmptySignature: [96]byte{},
	ZeroHash:       [32]byte{},
}
