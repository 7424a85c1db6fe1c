package main

import (
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ironsheep/image-wand/internal/magick"
)

// config holds the settings read from the environment.
type config struct {
	LogLevel    string // debug, info, warn or error; empty disables logging
	MaxHandles  int    // 0 means no cap
	JPEGQuality int
}

func loadConfig(getenv func(string) string) (*config, error) {
	cfg := &config{
		LogLevel:    strings.ToLower(strings.TrimSpace(getenv("IMAGE_WAND_LOG"))),
		JPEGQuality: magick.DefaultJPEGQuality,
	}

	switch cfg.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		return nil, fmt.Errorf("IMAGE_WAND_LOG: unknown level %q", cfg.LogLevel)
	}

	if v := getenv("IMAGE_WAND_MAX_HANDLES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("IMAGE_WAND_MAX_HANDLES: %q is not a non-negative integer", v)
		}
		cfg.MaxHandles = n
	}

	if v := getenv("IMAGE_WAND_JPEG_QUALITY"); v != "" {
		q, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("IMAGE_WAND_JPEG_QUALITY: %q is not an integer", v)
		}
		cfg.JPEGQuality = q
	}

	return cfg, nil
}

// newLogger builds a JSON logger on stderr; stdout carries the protocol.
func (c *config) newLogger() (*zap.Logger, error) {
	if c.LogLevel == "" {
		return zap.NewNop(), nil
	}
	level, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, err
	}

	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.OutputPaths = []string{"stderr"}
	zc.ErrorOutputPaths = []string{"stderr"}
	return zc.Build()
}

// newEngine creates the native engine shared by every image the process
// opens.
func (c *config) newEngine(log *zap.Logger) *magick.Engine {
	return magick.NewEngine(
		magick.WithHandleLimit(c.MaxHandles),
		magick.WithJPEGQuality(c.JPEGQuality),
		magick.WithLogger(log.Named("magick")),
	)
}
