package main

import (
	"io"

	"github.com/sirupsen/logrus"
)

// setupLogging sends every log line to w, which is never stdout: stdout
// carries the directive only.
func setupLogging(w io.Writer, verbosity int) {
	logrus.SetOutput(w)
	logrus.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp:       true,
		DisableLevelTruncation: true,
	})
	switch {
	case verbosity >= 2:
		logrus.SetLevel(logrus.DebugLevel)
	case verbosity == 1:
		logrus.SetLevel(logrus.InfoLevel)
	default:
		logrus.SetLevel(logrus.WarnLevel)
	}
}
