// Package logging builds the logr.Logger shared by every component.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/go-logr/logr"
	"github.com/go-logr/stdr"
)

// New returns a logger writing to w. Messages above verbosity are dropped.
func New(w io.Writer, verbosity int) logr.Logger {
	stdr.SetVerbosity(verbosity)
	return stdr.NewWithOptions(log.New(w, "", log.LstdFlags|log.Lmicroseconds), stdr.Options{
		LogCaller: stdr.Error,
	}).WithName("battleclock")
}

// OpenFile opens (or creates) path for appending and returns a logger over
// it along with a function that closes the file.
func OpenFile(path string, verbosity int) (logr.Logger, func() error, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return logr.Discard(), nil, fmt.Errorf("opening log file %s: %w", path, err)
	}
	return New(f, verbosity), f.Close, nil
}
