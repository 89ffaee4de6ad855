// Package params defines the chain parameters the ejector needs to verify
// exit requests and validate pre-signed exit messages: fork versions and
// their activation epochs, the voluntary exit domain, and the Lido protocol
// constants for the oracle report frame.
package params

import (
	types "github.com/lidofinance/validator-ejector/consensus-types/primitives"
	"github.com/lidofinance/validator-ejector/encoding/bytesutil"
)

// BeaconChainConfig contains constant configs for the beacon chain the
// ejector is attached to.
type BeaconChainConfig struct {
	ForkVersionNames     map[[4]byte]string
	ForkVersionSchedule  map[[4]byte]types.Epoch
	ConfigName           string      `yaml:"CONFIG_NAME" spec:"true"`
	PresetBase           string      `yaml:"PRESET_BASE" spec:"true"`
	GenesisForkVersion   []byte      `yaml:"GENESIS_FORK_VERSION" spec:"true"`
	AltairForkVersion    []byte      `yaml:"ALTAIR_FORK_VERSION" spec:"true"`
	BellatrixForkVersion []byte      `yaml:"BELLATRIX_FORK_VERSION" spec:"true"`
	CapellaForkVersion   []byte      `yaml:"CAPELLA_FORK_VERSION" spec:"true"`
	DenebForkVersion     []byte      `yaml:"DENEB_FORK_VERSION" spec:"true"`
	AltairForkEpoch      types.Epoch `yaml:"ALTAIR_FORK_EPOCH" spec:"true"`
	BellatrixForkEpoch   types.Epoch `yaml:"BELLATRIX_FORK_EPOCH" spec:"true"`
	CapellaForkEpoch     types.Epoch `yaml:"CAPELLA_FORK_EPOCH" spec:"true"`
	DenebForkEpoch       types.Epoch `yaml:"DENEB_FORK_EPOCH" spec:"true"`
	GenesisEpoch         types.Epoch `yaml:"GENESIS_EPOCH"`
	GenesisSlot          types.Slot  `yaml:"GENESIS_SLOT"`
	FarFutureEpoch       types.Epoch `yaml:"FAR_FUTURE_EPOCH"`
	SecondsPerSlot       uint64      `yaml:"SECONDS_PER_SLOT" spec:"true"`
	SlotsPerEpoch        types.Slot  `yaml:"SLOTS_PER_EPOCH" spec:"true"`
	MaxVoluntaryExits    uint64      `yaml:"MAX_VOLUNTARY_EXITS" spec:"true"`
	DepositChainID       uint64      `yaml:"DEPOSIT_CHAIN_ID" spec:"true"`
	DepositNetworkID     uint64      `yaml:"DEPOSIT_NETWORK_ID" spec:"true"`
	DomainVoluntaryExit  [4]byte     `yaml:"DOMAIN_VOLUNTARY_EXIT" spec:"true"`
	EmptySignature       [96]byte
	ZeroHash             [32]byte
}

// InitializeForkSchedule initializes the schedules forks baked into the config.
func (b *BeaconChainConfig) InitializeForkSchedule() {
	b.ForkVersionSchedule = configForkSchedule(b)
	b.ForkVersionNames = configForkNames(b)
}

func configForkSchedule(b *BeaconChainConfig) map[[4]byte]types.Epoch {
	fvs := map[[4]byte]types.Epoch{}
	fvs[bytesutil.ToBytes4(b.GenesisForkVersion)] = b.GenesisEpoch
	fvs[bytesutil.ToBytes4(b.AltairForkVersion)] = b.AltairForkEpoch
	fvs[bytesutil.ToBytes4(b.BellatrixForkVersion)] = b.BellatrixForkEpoch
	fvs[bytesutil.ToBytes4(b.CapellaForkVersion)] = b.CapellaForkEpoch
	fvs[bytesutil.ToBytes4(b.DenebForkVersion)] = b.DenebForkEpoch
	return fvs
}

func configForkNames(b *BeaconChainConfig) map[[4]byte]string {
	fvn := map[[4]byte]string{}
	fvn[bytesutil.ToBytes4(b.GenesisForkVersion)] = "phase0"
	fvn[bytesutil.ToBytes4(b.AltairForkVersion)] = "altair"
	fvn[bytesutil.ToBytes4(b.BellatrixForkVersion)] = "bellatrix"
	fvn[bytesutil.ToBytes4(b.CapellaForkVersion)] = "capella"
	fvn[bytesutil.ToBytes4(b.DenebForkVersion)] = "deneb"
	return fvn
}

// ExitDomainFrozen reports whether the given epoch is at or past the fork
// that pinned voluntary exit signatures to the capella fork domain.
func (b *BeaconChainConfig) ExitDomainFrozen(epoch types.Epoch) bool {
	return epoch >= b.DenebForkEpoch
}
