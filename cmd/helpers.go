package cmd

import (
	"bufio"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("prefix", "cmd")

// ConfirmAction uses the passed in actionText as the confirmation text displayed in the terminal.
// The user must enter Y or N to indicate whether they approve the action. A nil error means the
// action was approved.
func ConfirmAction(actionText, deniedText string) (bool, error) {
	reader := bufio.NewReader(os.Stdin)
	log.Warn(actionText)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false, errors.Wrap(err, "could not read user input")
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		log.Info(deniedText)
		return false, nil
	}
}
