package params

import "github.com/pkg/errors"

const (
	// MainnetName is the name of the mainnet network.
	MainnetName = "mainnet"
	// HoleskyName is the name of the holesky testnet.
	HoleskyName = "holesky"
	// HoodiName is the name of the hoodi testnet.
	HoodiName = "hoodi"
)

// KnownConfigs provides the chain configs for all supported networks.
var KnownConfigs = map[string]func() *BeaconChainConfig{
	MainnetName: MainnetConfig,
	HoleskyName: HoleskyConfig,
	HoodiName:   HoodiConfig,
}

// ConfigByNetwork looks up the chain config for a named network.
func ConfigByNetwork(name string) (*BeaconChainConfig, error) {
	cfgFn, ok := KnownConfigs[name]
	if !ok {
		return nil, errors.Errorf("unknown network %q", name)
	}
	return cfgFn(), nil
}
