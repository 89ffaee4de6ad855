// Package logs handles log file mirroring and scrubbing of credentials from
// endpoint URLs before they are logged.
package logs

import (
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// ConfigurePersistentLogging mirrors everything written to the logrus output
// into the given file, appending across restarts.
func ConfigurePersistentLogging(logFileName string) error {
	logrus.WithField("logFileName", logFileName).Info("Logs will be made persistent")
	f, err := os.OpenFile(logFileName, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600) // #nosec G304
	if err != nil {
		return err
	}
	logrus.SetOutput(io.MultiWriter(logrus.StandardLogger().Out, f))
	logrus.Info("File logging initialized")
	return nil
}

// MaskCredentialsLogging strips userinfo, path, query and fragment from a URL
// so an RPC endpoint can be logged without leaking embedded credentials.
// Scheme, host and port stay visible. Non-URL input is returned unchanged.
func MaskCredentialsLogging(endpoint string) string {
	masked := endpoint
	u, err := url.Parse(endpoint)
	if err != nil {
		return endpoint
	}
	if u.User != nil {
		masked = strings.Replace(masked, u.User.String(), "***", 1)
	}
	if len(u.RequestURI()) > 1 { // ignore a bare '/'
		masked = strings.Replace(masked, u.RequestURI(), "/***", 1)
	}
	if len(u.Fragment) > 0 {
		masked = strings.Replace(masked, u.RawFragment, "***", 1)
	}
	return masked
}
