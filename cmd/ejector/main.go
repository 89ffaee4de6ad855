// Package main defines the validator ejector entry point: a daemon that
// watches the exit bus oracle for validator exit requests, verifies each
// request's chain of custody and dispatches pre-signed voluntary exits.
package main

import (
	"fmt"
	"os"
	"runtime/debug"

	joonix "github.com/joonix/log"
	"github.com/lidofinance/validator-ejector/cmd"
	"github.com/lidofinance/validator-ejector/ejector/flags"
	"github.com/lidofinance/validator-ejector/ejector/node"
	"github.com/lidofinance/validator-ejector/io/logs"
	"github.com/lidofinance/validator-ejector/runtime/version"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"github.com/urfave/cli/v2/altsrc"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"
)

var log = logrus.WithField("prefix", "main")

var appFlags = []cli.Flag{
	flags.ExecutionEndpointFlag,
	flags.BeaconEndpointFlag,
	flags.NetworkFlag,
	flags.LocatorAddressFlag,
	flags.StakingModuleIDFlag,
	flags.NodeOperatorIDFlag,
	flags.OracleAllowlistFlag,
	flags.MessagesLocationFlag,
	flags.MessagesPasswordFlag,
	flags.MessagesPasswordFileFlag,
	flags.OracleFrameBlocksFlag,
	flags.BlockLookbackFlag,
	flags.CycleIntervalFlag,
	flags.DispatchWebhookFlag,
	flags.ValidatorAPIEndpointFlag,
	flags.DryRunFlag,
	flags.DisableSecurityChecksFlag,
	flags.MessageCreateCommandFlag,
	cmd.VerbosityFlag,
	cmd.DataDirFlag,
	cmd.ClearDB,
	cmd.ForceClearDB,
	cmd.LogFormat,
	cmd.LogFileName,
	cmd.ConfigFileFlag,
	cmd.ChainConfigFileFlag,
	cmd.MonitoringHostFlag,
	cmd.MonitoringPortFlag,
	cmd.DisableMonitoringFlag,
}

func main() {
	app := cli.App{
		Name:    "ejector",
		Usage:   "watches the Lido exit bus oracle and dispatches pre-signed voluntary exits for requested validators",
		Action:  run,
		Version: version.GetVersion(),
		Flags:   cmd.WrapFlags(appFlags),
		Before: func(ctx *cli.Context) error {
			if ctx.IsSet(cmd.ConfigFileFlag.Name) {
				if err := altsrc.InitInputSourceWithContext(
					cmd.WrapFlags(appFlags),
					altsrc.NewYamlSourceFromFlagFunc(cmd.ConfigFileFlag.Name),
				)(ctx); err != nil {
					return err
				}
			}
			return configureLogging(ctx)
		},
	}

	defer func() {
		if x := recover(); x != nil {
			log.Errorf("Runtime panic: %v\n%v", x, string(debug.Stack()))
			panic(x)
		}
	}()

	if err := app.Run(os.Args); err != nil {
		log.Error(err.Error())
		os.Exit(1)
	}
}

func run(cliCtx *cli.Context) error {
	ejector, err := node.New(cliCtx)
	if err != nil {
		return err
	}
	ejector.Start()
	return nil
}

func configureLogging(ctx *cli.Context) error {
	verbosity := ctx.String(cmd.VerbosityFlag.Name)
	level, err := logrus.ParseLevel(verbosity)
	if err != nil {
		return err
	}
	logrus.SetLevel(level)

	format := ctx.String(cmd.LogFormat.Name)
	switch format {
	case "text":
		formatter := new(prefixed.TextFormatter)
		formatter.TimestampFormat = "2006-01-02 15:04:05"
		formatter.FullTimestamp = true
		// If persistent log files are written - we disable the log messages coloring because
		// the colors are ANSI codes and seen as gibberish in the log files.
		formatter.DisableColors = ctx.String(cmd.LogFileName.Name) != ""
		logrus.SetFormatter(formatter)
	case "fluentd":
		f := joonix.NewFormatter()
		logrus.SetFormatter(f)
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{})
	default:
		return fmt.Errorf("unknown log format %s", format)
	}

	if logFileName := ctx.String(cmd.LogFileName.Name); logFileName != "" {
		if err := logs.ConfigurePersistentLogging(logFileName); err != nil {
			log.WithError(err).Error("Failed to configuring logging to disk.")
		}
	}
	return nil
}
