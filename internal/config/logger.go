package config

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Logger builds the process logger from LOG_LEVEL. Logs go to stderr so
// command output on stdout stays clean.
func (c Config) Logger(app string) *logrus.Entry {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	return logger.WithField("app", app)
}
