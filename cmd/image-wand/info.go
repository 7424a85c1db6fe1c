package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/ironsheep/image-wand/internal/wand"
)

var (
	pathStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7D56F4"))

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))
)

// fileInfo is the information printed for one file.
type fileInfo struct {
	Width    int
	Height   int
	Format   string
	MimeType string
}

func inspect(path string, opts []wand.Option) (*fileInfo, error) {
	img, err := wand.Open(path, opts...)
	if err != nil {
		return nil, err
	}
	defer img.Close()

	info := &fileInfo{}
	if info.Width, info.Height, err = img.Size(); err != nil {
		return nil, err
	}
	if info.Format, err = img.Format(); err != nil {
		return nil, err
	}
	if info.MimeType, err = img.MimeType(); err != nil {
		return nil, err
	}
	return info, nil
}

// runInfo prints one line per path and returns the number of files that
// could not be read. Lines are coloured when styled is set.
func runInfo(w io.Writer, paths []string, styled bool, opts []wand.Option) int {
	render := func(s lipgloss.Style, text string) string {
		if !styled {
			return text
		}
		return s.Render(text)
	}

	failed := 0
	for _, path := range paths {
		info, err := inspect(path, opts)
		if err != nil {
			failed++
			fmt.Fprintf(w, "%s: %s\n", render(pathStyle, path), render(errorStyle, err.Error()))
			continue
		}
		fmt.Fprintf(w, "%s: %s\n", render(pathStyle, path),
			render(valueStyle, fmt.Sprintf("%dx%d %s (%s)", info.Width, info.Height, info.Format, info.MimeType)))
	}
	return failed
}
