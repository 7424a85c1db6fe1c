package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/ironsheep/image-wand/internal/magick"
	"github.com/ironsheep/image-wand/internal/ocr"
	"github.com/ironsheep/image-wand/internal/server"
	"github.com/ironsheep/image-wand/internal/wand"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			printVersion(os.Stdout, ocr.Info())
			return
		case "--help", "-h", "help":
			printHelp(os.Stdout)
			return
		}
	}

	cfg, err := loadConfig(os.Getenv)
	if err != nil {
		fmt.Fprintf(os.Stderr, "image-wand: %v\n", err)
		os.Exit(2)
	}
	log, err := cfg.newLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "image-wand: failed to build logger: %v\n", err)
		os.Exit(2)
	}
	defer log.Sync()

	magick.SetLogger(log.Named("magick"))
	wand.SetLogger(log.Named("wand"))
	server.SetLogger(log.Named("server"))

	engine := cfg.newEngine(log)
	opts := []wand.Option{wand.WithLibrary(engine)}

	if len(os.Args) > 1 && os.Args[1] == "info" {
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "Usage: image-wand info <file>...")
			os.Exit(2)
		}
		styled := term.IsTerminal(int(os.Stdout.Fd()))
		if failed := runInfo(os.Stdout, os.Args[2:], styled, opts); failed > 0 {
			os.Exit(1)
		}
		return
	}

	log.Info("starting server",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("commit", GitCommit),
		zap.Int("max_handles", cfg.MaxHandles),
	)

	server.Version = Version
	srv := server.New(opts...)
	if err := srv.Run(); err != nil {
		log.Fatal("server error", zap.Error(err))
	}
}

func printVersion(w io.Writer, tess ocr.EngineInfo) {
	fmt.Fprintf(w, "image-wand %s\n", Version)
	fmt.Fprintf(w, "  Build time: %s\n", BuildTime)
	fmt.Fprintf(w, "  Git commit: %s\n", GitCommit)

	switch {
	case tess.Available:
		fmt.Fprintf(w, "  Tesseract:  %s (%s)\n", tess.Version, strings.Join(tess.Languages, ", "))
	case tess.Error != "":
		fmt.Fprintf(w, "  Tesseract:  unavailable: %s\n", tess.Error)
	default:
		fmt.Fprintln(w, "  Tesseract:  unavailable: no language data")
	}
}

func printHelp(w io.Writer) {
	fmt.Fprintln(w, "image-wand - MCP server for guarded image processing")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  image-wand                 Serve MCP over stdin/stdout")
	fmt.Fprintln(w, "  image-wand info <file>...  Print size and format of image files")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Options:")
	fmt.Fprintln(w, "  --version, -v    Print version information")
	fmt.Fprintln(w, "  --help, -h       Print this help message")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Environment variables:")
	fmt.Fprintln(w, "  IMAGE_WAND_LOG=debug|info|warn|error   Log to stderr (default off)")
	fmt.Fprintln(w, "  IMAGE_WAND_MAX_HANDLES=N               Cap live native handles (default no cap)")
	fmt.Fprintln(w, "  IMAGE_WAND_JPEG_QUALITY=N              JPEG quality 1-100 (default 92)")
}
