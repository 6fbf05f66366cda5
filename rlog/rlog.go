// Package rlog provides the structured logger used by the control-thread
// side of the engine. The audio thread never touches this package: logging
// is a control-context concern (see engine suspension-point rules).
package rlog

import (
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"
)

var (
	mu  sync.RWMutex
	log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
)

// SetOutput redirects subsequent log output. Safe to call once at startup;
// not intended for per-block use.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	log = zerolog.New(w).With().Timestamp().Logger()
}

// SetLevel adjusts the global minimum level.
func SetLevel(level zerolog.Level) {
	mu.Lock()
	defer mu.Unlock()
	log = log.Level(level)
}

// For returns a child logger tagged with a component name, the way the
// teacher's session package scopes distinct subsystems.
func For(component string) zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return log.With().Str("component", component).Logger()
}
