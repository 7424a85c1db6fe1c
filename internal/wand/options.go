package wand

import (
	"go.uber.org/zap"

	"github.com/ironsheep/image-wand/internal/magick"
)

// Option configures an Image, Color or Drawing.
type Option func(*config)

type config struct {
	lib  magick.Library
	sink DiagnosticSink
	log  *zap.Logger
}

func newConfig(opts []Option) *config {
	c := &config{}
	for _, opt := range opts {
		opt(c)
	}
	if c.lib == nil {
		c.lib = magick.Default()
	}
	if c.log == nil {
		c.log = Logger()
	}
	return c
}

func (c *config) translator() *StatusTranslator {
	return NewStatusTranslator(c.lib, c.sink, c.log)
}

// WithLibrary selects the native library. The shared magick engine is
// used by default.
func WithLibrary(lib magick.Library) Option {
	return func(c *config) {
		c.lib = lib
	}
}

// WithDiagnostics delivers native warnings to sink in addition to the log.
func WithDiagnostics(sink DiagnosticSink) Option {
	return func(c *config) {
		c.sink = sink
	}
}

// WithLogger overrides the package logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *config) {
		c.log = l
	}
}

func (c *config) acquire(kind magick.Kind, factory func() magick.Handle) (*Resource, error) {
	return acquire(c.lib, kind, factory, c.log)
}
