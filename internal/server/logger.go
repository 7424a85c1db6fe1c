package server

import (
	"sync"

	"go.uber.org/zap"
)

// Version is reported in the initialize handshake. The binary overrides
// it from its build information.
var Version = "0.1.0"

var (
	logger     *zap.Logger
	loggerOnce sync.Once
)

// Logger returns the server package's logger instance.
// It uses a no-op logger by default.
func Logger() *zap.Logger {
	loggerOnce.Do(func() {
		if logger == nil {
			logger = zap.NewNop()
		}
	})
	return logger
}

// SetLogger configures the server package's logger.
// This must be called before New.
func SetLogger(l *zap.Logger) {
	logger = l
}
