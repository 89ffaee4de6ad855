package params

import "testing"

// SetupTestConfigCleanup preserves the global config values so that tests may
// modify them freely and have the previous values restored on cleanup.
func SetupTestConfigCleanup(t testing.TB) {
	prevConfig := BeaconConfig().Copy()
	prevNetworkCfg := BeaconNetworkConfig().Copy()
	t.Cleanup(func() {
		OverrideBeaconConfig(prevConfig)
		OverrideBeaconNetworkConfig(prevNetworkCfg)
	})
}
