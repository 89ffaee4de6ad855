// Package node is the main process which handles the lifecycle of the
// runtime services in an ejector process, gracefully shutting everything
// down upon close.
package node

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/lidofinance/validator-ejector/beacon"
	"github.com/lidofinance/validator-ejector/cmd"
	"github.com/lidofinance/validator-ejector/config/params"
	"github.com/lidofinance/validator-ejector/ejector/client"
	"github.com/lidofinance/validator-ejector/ejector/db/kv"
	"github.com/lidofinance/validator-ejector/ejector/flags"
	"github.com/lidofinance/validator-ejector/ejector/messages"
	"github.com/lidofinance/validator-ejector/ejector/messages/source"
	"github.com/lidofinance/validator-ejector/ejector/oracle"
	"github.com/lidofinance/validator-ejector/execution"
	"github.com/lidofinance/validator-ejector/io/logs"
	"github.com/lidofinance/validator-ejector/monitoring/prometheus"
	"github.com/lidofinance/validator-ejector/runtime"
	"github.com/lidofinance/validator-ejector/runtime/version"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var log = logrus.WithField("prefix", "node")

// EjectorNode defines an instance of the ejector that manages the lifecycle
// of its attached services.
type EjectorNode struct {
	cliCtx   *cli.Context
	ctx      context.Context
	cancel   context.CancelFunc
	services *runtime.ServiceRegistry
	lock     sync.RWMutex
	stop     chan struct{} // Channel to wait for termination notifications.
	db       *kv.Store
}

// New creates a new ejector node, configures the chain parameters and
// registers every service the process needs.
func New(cliCtx *cli.Context) (*EjectorNode, error) {
	if err := configureChain(cliCtx); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(cliCtx.Context)
	node := &EjectorNode{
		cliCtx:   cliCtx,
		ctx:      ctx,
		cancel:   cancel,
		services: runtime.NewServiceRegistry(),
		stop:     make(chan struct{}),
	}

	if err := node.startDB(); err != nil {
		cancel()
		return nil, err
	}
	if !cliCtx.Bool(cmd.DisableMonitoringFlag.Name) {
		if err := node.registerPrometheusService(); err != nil {
			cancel()
			return nil, err
		}
	}
	if err := node.registerClientService(); err != nil {
		cancel()
		return nil, err
	}
	return node, nil
}

// configureChain applies the selected network's chain and protocol
// parameters, optionally overridden by a consensus spec style YAML file.
func configureChain(cliCtx *cli.Context) error {
	network := cliCtx.String(flags.NetworkFlag.Name)
	cfg, err := params.ConfigByNetwork(network)
	if err != nil {
		return err
	}
	params.OverrideBeaconConfig(cfg)
	switch network {
	case params.HoleskyName:
		params.UseHoleskyNetworkConfig()
	case params.HoodiName:
		params.UseHoodiNetworkConfig()
	}
	if cliCtx.IsSet(cmd.ChainConfigFileFlag.Name) {
		params.LoadChainConfigFile(cliCtx.String(cmd.ChainConfigFileFlag.Name))
	}
	netCfg := params.BeaconNetworkConfig().Copy()
	if cliCtx.IsSet(flags.LocatorAddressFlag.Name) {
		netCfg.LidoLocatorAddress = cliCtx.String(flags.LocatorAddressFlag.Name)
	}
	if cliCtx.IsSet(flags.OracleFrameBlocksFlag.Name) {
		netCfg.OracleFrameBlocks = cliCtx.Uint64(flags.OracleFrameBlocksFlag.Name)
	}
	params.OverrideBeaconNetworkConfig(netCfg)
	return nil
}

// startDB opens the resume cursor database, clearing it first when
// requested.
func (n *EjectorNode) startDB() error {
	dataDir := n.cliCtx.String(cmd.DataDirFlag.Name)
	if dataDir == "" {
		log.Warn("No data directory available, the resume cursor will not survive restarts")
		return nil
	}
	clearFlag := n.cliCtx.Bool(cmd.ClearDB.Name)
	forceClearFlag := n.cliCtx.Bool(cmd.ForceClearDB.Name)

	db, err := kv.NewKVStore(dataDir)
	if err != nil {
		return errors.Wrapf(err, "could not open database at %s", dataDir)
	}
	if clearFlag || forceClearFlag {
		clear := forceClearFlag
		if !clear {
			approved, err := cmd.ConfirmAction(
				"This will delete your ejector database stored in your data directory. "+
					"Already dispatched exit requests may be replayed. Do you want to proceed? (Y/N)",
				"Database will not be deleted.",
			)
			if err != nil {
				return err
			}
			clear = approved
		}
		if clear {
			if err := db.ClearDB(); err != nil {
				return errors.Wrap(err, "could not clear database")
			}
			db, err = kv.NewKVStore(dataDir)
			if err != nil {
				return errors.Wrap(err, "could not re-create database")
			}
		}
	}
	log.WithField("databasePath", db.DatabasePath()).Info("Checking DB")
	n.db = db
	return nil
}

// Start every service attached to the node and block until an interrupt.
func (n *EjectorNode) Start() {
	n.lock.Lock()
	log.WithFields(logrus.Fields{
		"version": version.GetVersion(),
	}).Info("Starting validator ejector")

	n.services.StartAll()
	stop := n.stop
	n.lock.Unlock()

	go func() {
		sigc := make(chan os.Signal, 1)
		signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigc)
		<-sigc
		log.Info("Got interrupt, shutting down...")
		go n.Close()
		for i := 10; i > 0; i-- {
			<-sigc
			if i > 1 {
				log.WithField("times", i-1).Info("Already shutting down, interrupt more to panic.")
			}
		}
		panic("Panic closing the ejector node")
	}()

	// Wait for stop channel to be closed.
	<-stop
}

// Close handles graceful shutdown of the system.
func (n *EjectorNode) Close() {
	n.lock.Lock()
	defer n.lock.Unlock()

	n.services.StopAll()
	if n.db != nil {
		if err := n.db.Close(); err != nil {
			log.WithError(err).Error("Could not close database")
		}
	}
	n.cancel()
	log.Info("Stopping ejector")
	close(n.stop)
}

func (n *EjectorNode) registerPrometheusService() error {
	service := prometheus.NewService(
		fmt.Sprintf("%s:%d", n.cliCtx.String(cmd.MonitoringHostFlag.Name), n.cliCtx.Int(cmd.MonitoringPortFlag.Name)),
		n.services,
	)
	logrus.AddHook(prometheus.NewLogrusCollector())
	return n.services.RegisterService(service)
}

func (n *EjectorNode) registerClientService() error {
	cliCtx := n.cliCtx

	executionEndpoint := cliCtx.String(flags.ExecutionEndpointFlag.Name)
	log.WithField("endpoint", logs.MaskCredentialsLogging(executionEndpoint)).Info("Connecting to execution node")
	executionClient, err := execution.NewClient(n.ctx, executionEndpoint)
	if err != nil {
		return errors.Wrap(err, "could not connect to execution node")
	}

	beaconEndpoint := cliCtx.String(flags.BeaconEndpointFlag.Name)
	log.WithField("endpoint", logs.MaskCredentialsLogging(beaconEndpoint)).Info("Connecting to beacon node")
	beaconClient, err := beacon.NewClient(beaconEndpoint, beacon.WithTimeout(30*time.Second))
	if err != nil {
		return errors.Wrap(err, "could not create beacon client")
	}

	securityChecks := oracle.SecurityChecksEnabled
	if cliCtx.Bool(flags.DisableSecurityChecksFlag.Name) {
		securityChecks = oracle.SecurityChecksDisabledForTesting
	}
	verifier, err := oracle.NewVerifier(
		oracle.WithExecutionClient(executionClient),
		oracle.WithLocatorAddress(params.BeaconNetworkConfig().LidoLocatorAddress),
		oracle.WithOperator(cliCtx.Uint64(flags.StakingModuleIDFlag.Name), cliCtx.Uint64(flags.NodeOperatorIDFlag.Name)),
		oracle.WithAllowlist(cliCtx.StringSlice(flags.OracleAllowlistFlag.Name)),
		oracle.WithFrameBlocks(params.BeaconNetworkConfig().OracleFrameBlocks),
		oracle.WithSecurityChecks(securityChecks),
	)
	if err != nil {
		return errors.Wrap(err, "could not create event verifier")
	}

	mode := client.DirectSubmit
	webhookURL := cliCtx.String(flags.DispatchWebhookFlag.Name)
	switch {
	case cliCtx.Bool(flags.DryRunFlag.Name):
		mode = client.DryRun
	case webhookURL != "":
		mode = client.Webhook
	}

	store := messages.NewStore()
	reloader, err := n.buildReloader(store, beaconClient, mode)
	if err != nil {
		return err
	}

	var creator client.MessageCreator
	if command := cliCtx.String(flags.MessageCreateCommandFlag.Name); command != "" {
		creator = &client.ExecCreator{Command: command}
	}

	dispatcher, err := client.NewDispatcher(&client.DispatcherConfig{
		Mode:             mode,
		WebhookURL:       webhookURL,
		ValidatorAPIBase: strings.TrimRight(cliCtx.String(flags.ValidatorAPIEndpointFlag.Name), "/"),
		Consensus:        beaconClient,
		Store:            store,
		Creator:          creator,
	})
	if err != nil {
		return errors.Wrap(err, "could not create dispatcher")
	}

	clientCfg := &client.Config{
		Verifier:        verifier,
		Execution:       executionClient,
		Consensus:       beaconClient,
		Reloader:        reloader,
		Dispatcher:      dispatcher,
		StakingModuleID: cliCtx.Uint64(flags.StakingModuleIDFlag.Name),
		NodeOperatorID:  cliCtx.Uint64(flags.NodeOperatorIDFlag.Name),
		BlockLookback:   cliCtx.Uint64(flags.BlockLookbackFlag.Name),
		CycleInterval:   cliCtx.Duration(flags.CycleIntervalFlag.Name),
	}
	if n.db != nil {
		clientCfg.DB = n.db
	}
	svc, err := client.NewService(n.ctx, clientCfg)
	if err != nil {
		return errors.Wrap(err, "could not initialize client service")
	}
	return n.services.RegisterService(svc)
}

// buildReloader wires the message store reconciler. Webhook and dry run
// deployments may run without a message folder; reloading is then a no-op.
func (n *EjectorNode) buildReloader(store *messages.Store, beaconClient *beacon.Client, mode client.DispatchMode) (client.MessageReloader, error) {
	location := n.cliCtx.String(flags.MessagesLocationFlag.Name)
	if location == "" {
		if mode == client.DirectSubmit {
			return nil, errors.New("direct dispatch requires --messages-location")
		}
		return &noopReloader{}, nil
	}
	password := n.cliCtx.String(flags.MessagesPasswordFlag.Name)
	if passwordFile := n.cliCtx.String(flags.MessagesPasswordFileFlag.Name); passwordFile != "" {
		content, err := os.ReadFile(passwordFile) // #nosec G304 -- operator supplied path.
		if err != nil {
			return nil, errors.Wrap(err, "could not read messages password file")
		}
		password = strings.TrimSpace(string(content))
	}
	reader, err := source.ForLocation(n.ctx, location)
	if err != nil {
		return nil, errors.Wrap(err, "could not create message reader")
	}
	reconciler, err := messages.NewReconciler(&messages.ReconcilerConfig{
		Store:     store,
		Reader:    reader,
		Consensus: beaconClient,
		Location:  location,
		Password:  password,
	})
	if err != nil {
		return nil, errors.Wrap(err, "could not create message reconciler")
	}
	return reconciler, nil
}

// noopReloader satisfies the orchestrator's unconditional reload step for
// deployments without a message folder.
type noopReloader struct{}

func (*noopReloader) Reconcile(_ context.Context) (*messages.ReconcileReport, error) {
	return &messages.ReconcileReport{}, nil
}
