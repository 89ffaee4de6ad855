package oracle

import "github.com/sirupsen/logrus"

var log = logrus.WithField("prefix", "oracle")
