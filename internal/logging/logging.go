// Package logging builds the structured logger shared by roiscope commands.
package logging

import (
	"fmt"
	"io"

	"code.cloudfoundry.org/lager/v3"
)

// New returns a lager logger for component that writes JSON lines at or
// above level to w.
func New(component, level string, w io.Writer) (lager.Logger, error) {
	if level == "" {
		level = "info"
	}
	minLevel, err := lager.LogLevelFromString(level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}

	logger := lager.NewLogger(component)
	logger.RegisterSink(lager.NewWriterSink(w, minLevel))
	return logger, nil
}
