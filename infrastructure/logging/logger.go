// Package logging builds the process logger
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// New creates a logger writing to out at the given level.
// format is "json" or "text"; out defaults to stdout.
func New(level, format string, out io.Writer) (*logrus.Logger, error) {
	log := logrus.New()

	if out == nil {
		out = os.Stdout
	}
	log.SetOutput(out)

	switch strings.ToLower(format) {
	case "json":
		log.SetFormatter(&logrus.JSONFormatter{})
	case "", "text":
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}

	if level == "" {
		level = "info"
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}
	log.SetLevel(lvl)

	return log, nil
}
