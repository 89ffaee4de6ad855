// Package flags contains all configuration runtime flags for the ejector
// binary.
package flags

import (
	"time"

	"github.com/urfave/cli/v2"
)

var (
	// ExecutionEndpointFlag defines the execution layer JSON-RPC endpoint.
	ExecutionEndpointFlag = &cli.StringFlag{
		Name:  "execution-endpoint",
		Usage: "Execution layer node JSON-RPC endpoint",
		Value: "http://localhost:8545",
	}
	// BeaconEndpointFlag defines the consensus layer REST API endpoint.
	BeaconEndpointFlag = &cli.StringFlag{
		Name:  "beacon-endpoint",
		Usage: "Consensus layer node REST API endpoint",
		Value: "http://localhost:3500",
	}
	// NetworkFlag selects a packaged chain and protocol configuration.
	NetworkFlag = &cli.StringFlag{
		Name:  "network",
		Usage: "Name of the network to watch (mainnet, holesky, hoodi)",
		Value: "mainnet",
	}
	// LocatorAddressFlag overrides the protocol service locator contract address.
	LocatorAddressFlag = &cli.StringFlag{
		Name:  "locator-address",
		Usage: "Address of the Lido locator contract. Defaults to the selected network's deployment",
	}
	// StakingModuleIDFlag scopes the ejector to one staking module.
	StakingModuleIDFlag = &cli.Uint64Flag{
		Name:     "staking-module-id",
		Usage:    "Staking module id to watch exit requests for",
		Required: true,
	}
	// NodeOperatorIDFlag scopes the ejector to one node operator.
	NodeOperatorIDFlag = &cli.Uint64Flag{
		Name:     "operator-id",
		Usage:    "Node operator id to watch exit requests for",
		Required: true,
	}
	// OracleAllowlistFlag lists the addresses trusted to sign oracle reports.
	OracleAllowlistFlag = &cli.StringSliceFlag{
		Name:  "oracle-allowlist",
		Usage: "Addresses of oracle members trusted to have signed report submissions. May be used multiple times",
	}
	// MessagesLocationFlag points at the folder of pre-signed exit messages.
	MessagesLocationFlag = &cli.StringFlag{
		Name:  "messages-location",
		Usage: "Folder with pre-signed exit message files: a local path, s3://bucket/prefix or gs://bucket/prefix. Not needed in webhook mode",
	}
	// MessagesPasswordFlag decrypts encrypted exit message files.
	MessagesPasswordFlag = &cli.StringFlag{
		Name:  "messages-password",
		Usage: "Password for encrypted exit message files",
	}
	// MessagesPasswordFileFlag reads the messages password from a file.
	MessagesPasswordFileFlag = &cli.StringFlag{
		Name:  "messages-password-file",
		Usage: "Path to a file with the password for encrypted exit message files",
	}
	// OracleFrameBlocksFlag overrides the ConsensusReached search window.
	OracleFrameBlocksFlag = &cli.Uint64Flag{
		Name:  "oracle-frame-blocks",
		Usage: "Length of one oracle report frame in execution blocks, the window searched for ConsensusReached events",
	}
	// BlockLookbackFlag sets how far behind the finalized head events are fetched.
	BlockLookbackFlag = &cli.Uint64Flag{
		Name:  "block-lookback",
		Usage: "Number of blocks behind the finalized head to fetch exit request events from",
		Value: 7200,
	}
	// CycleIntervalFlag sets the pause between job cycles.
	CycleIntervalFlag = &cli.DurationFlag{
		Name:  "job-interval",
		Usage: "Interval between job cycles",
		Value: 384 * time.Second,
	}
	// DispatchWebhookFlag switches dispatch to webhook mode.
	DispatchWebhookFlag = &cli.StringFlag{
		Name:  "dispatch-webhook",
		Usage: "Forward verified exit request events to this URL instead of submitting exits directly",
	}
	// ValidatorAPIEndpointFlag submits exits through an operator-run validator API.
	ValidatorAPIEndpointFlag = &cli.StringFlag{
		Name:  "validator-api-endpoint",
		Usage: "Base URL of a validator API to submit exit messages through instead of the beacon node pool",
	}
	// DryRunFlag acknowledges exit requests without side effects.
	DryRunFlag = &cli.BoolFlag{
		Name:  "dry-run",
		Usage: "Process exit requests without submitting exits or calling webhooks",
	}
	// DisableSecurityChecksFlag turns off the event verification chain.
	DisableSecurityChecksFlag = &cli.BoolFlag{
		Name:  "disable-security-checks",
		Usage: "DANGEROUS: accept exit request events without verifying their oracle report chain of custody. Never use against real validators",
	}
	// MessageCreateCommandFlag names a command run when a message is missing.
	MessageCreateCommandFlag = &cli.StringFlag{
		Name:  "message-create-command",
		Usage: "Command executed with a validator pubkey argument when an exit is requested for a validator with no stored message",
	}
)
