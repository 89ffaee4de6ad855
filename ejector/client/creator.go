package client

import (
	"context"
	"os/exec"
	"time"

	"github.com/pkg/errors"
)

const creatorTimeout = 30 * time.Second

// MessageCreator asks an out-of-process collaborator to provision a
// pre-signed exit message for a validator the store has no entry for. The
// signing tool itself lives outside this process and outside this codebase.
type MessageCreator interface {
	RequestMessageCreation(ctx context.Context, pubkey string) error
}

// NoopCreator is the default when no creation command is configured.
type NoopCreator struct{}

// RequestMessageCreation does nothing.
func (*NoopCreator) RequestMessageCreation(_ context.Context, _ string) error {
	return nil
}

// ExecCreator triggers message creation by running a configured command with
// the validator's public key as its single argument. The command's exit code
// is the only contract; the new message is picked up by a later
// reconciliation from the message folder.
type ExecCreator struct {
	Command string
}

// RequestMessageCreation runs the configured command for the given pubkey.
func (c *ExecCreator) RequestMessageCreation(ctx context.Context, pubkey string) error {
	if c.Command == "" {
		return errors.New("no message creation command configured")
	}
	runCtx, cancel := context.WithTimeout(ctx, creatorTimeout)
	defer cancel()
	cmd := exec.CommandContext(runCtx, c.Command, pubkey) // #nosec G204 -- operator supplied command.
	out, err := cmd.CombinedOutput()
	if err != nil {
		return errors.Wrapf(err, "message creation command failed: %s", out)
	}
	log.WithField("pubkey", pubkey).Info("Requested out-of-band exit message creation")
	return nil
}
