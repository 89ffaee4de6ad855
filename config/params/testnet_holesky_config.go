package params

// UseHoleskyNetworkConfig uses the holesky beacon chain specific network config.
func UseHoleskyNetworkConfig() {
	cfg := BeaconNetworkConfig().Copy()
	cfg.LidoLocatorAddress = "0x28FAB2059C713A7F9D8c86Db49f9bb0e96Af1ef8"
	OverrideBeaconNetworkConfig(cfg)
}

// HoleskyConfig defines the config for the holesky beacon chain testnet.
func HoleskyConfig() *BeaconChainConfig {
	cfg := MainnetConfig().Copy()
	cfg.ConfigName = HoleskyName
	cfg.GenesisForkVersion = []byte{1, 1, 112, 0}
	cfg.AltairForkVersion = []byte{2, 1, 112, 0}
	cfg.AltairForkEpoch = 0
	cfg.BellatrixForkVersion = []byte{3, 1, 112, 0}
	cfg.BellatrixForkEpoch = 0
	cfg.CapellaForkVersion = []byte{4, 1, 112, 0}
	cfg.CapellaForkEpoch = 256
	cfg.DenebForkVersion = []byte{5, 1, 112, 0}
	cfg.DenebForkEpoch = 29696
	cfg.DepositChainID = 17000
	cfg.DepositNetworkID = 17000
	cfg.InitializeForkSchedule()
	return cfg
}
