package params

import (
	"github.com/mohae/deepcopy"
)

// NetworkConfig defines the Lido protocol deployment parameters for the
// attached network.
type NetworkConfig struct {
	LidoLocatorAddress string // LidoLocatorAddress is the address of the protocol service locator contract.
	OracleFrameBlocks  uint64 // OracleFrameBlocks is the length of one oracle report frame in execution blocks.
}

var defaultNetworkConfig = &NetworkConfig{
	LidoLocatorAddress: "0xC1d0b3DE6792Bf6b4b37EccdcC24e45978Cfd2Eb",
	OracleFrameBlocks:  7200,
}

// BeaconNetworkConfig returns the current network config for the protocol
// deployment.
func BeaconNetworkConfig() *NetworkConfig {
	return defaultNetworkConfig
}

// OverrideBeaconNetworkConfig will override the network config with the added
// argument.
func OverrideBeaconNetworkConfig(cfg *NetworkConfig) {
	defaultNetworkConfig = cfg
}

// Copy returns a copy of the config object.
func (c *NetworkConfig) Copy() *NetworkConfig {
	config, ok := deepcopy.Copy(*c).(NetworkConfig)
	if !ok {
		config = *defaultNetworkConfig
	}
	return &config
}
