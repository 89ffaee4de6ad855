package params

// UseHoodiNetworkConfig uses the hoodi beacon chain specific network config.
func UseHoodiNetworkConfig() {
	cfg := BeaconNetworkConfig().Copy()
	cfg.LidoLocatorAddress = "0xe2EF9536DAAAEBFf5b1c130957AB3E80056b06D8"
	OverrideBeaconNetworkConfig(cfg)
}

// HoodiConfig defines the config for the hoodi beacon chain testnet.
func HoodiConfig() *BeaconChainConfig {
	cfg := MainnetConfig().Copy()
	cfg.ConfigName = HoodiName
	cfg.GenesisForkVersion = []byte{0x10, 0x00, 0x09, 0x10}
	cfg.AltairForkVersion = []byte{0x20, 0x00, 0x09, 0x10}
	cfg.AltairForkEpoch = 0
	cfg.BellatrixForkVersion = []byte{0x30, 0x00, 0x09, 0x10}
	cfg.BellatrixForkEpoch = 0
	cfg.CapellaForkVersion = []byte{0x40, 0x00, 0x09, 0x10}
	cfg.CapellaForkEpoch = 0
	cfg.DenebForkVersion = []byte{0x50, 0x00, 0x09, 0x10}
	cfg.DenebForkEpoch = 0
	cfg.DepositChainID = 560048
	cfg.DepositNetworkID = 560048
	cfg.InitializeForkSchedule()
	return cfg
}
