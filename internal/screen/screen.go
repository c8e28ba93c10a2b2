// Package screen captures the desktop and locates text on it, shelling
// out to grim for the screenshot and tesseract for recognition.
package screen

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// Box is a bounding box in screen pixels.
type Box struct {
	X, Y, W, H int
}

// Center returns the midpoint of the box.
func (b Box) Center() (int, int) {
	return b.X + b.W/2, b.Y + b.H/2
}

type Reader struct{}

func NewReader() *Reader { return &Reader{} }

// Capture grabs one screenshot as PNG bytes.
func (r *Reader) Capture(ctx context.Context) ([]byte, error) {
	out, err := exec.CommandContext(ctx, "grim", "-").Output()
	if err != nil {
		return nil, fmt.Errorf("grim: %w", err)
	}
	return out, nil
}

// FindText runs OCR over the image and returns the bounding box of the
// first word containing target (case-insensitive). ok is false when the
// text is not on screen.
func (r *Reader) FindText(ctx context.Context, image []byte, target string) (Box, bool, error) {
	cmd := exec.CommandContext(ctx, "tesseract", "stdin", "stdout", "tsv")
	cmd.Stdin = bytes.NewReader(image)

	out, err := cmd.Output()
	if err != nil {
		return Box{}, false, fmt.Errorf("tesseract: %w", err)
	}

	box, ok := findWord(string(out), target)
	return box, ok, nil
}

// findWord scans tesseract TSV output. Word rows are level 5 with
// columns: level page block par line word left top width height conf text.
func findWord(tsv, target string) (Box, bool) {
	target = strings.ToLower(target)

	for _, line := range strings.Split(tsv, "\n") {
		cols := strings.Split(line, "\t")
		if len(cols) < 12 || cols[0] != "5" {
			continue
		}
		if !strings.Contains(strings.ToLower(cols[11]), target) {
			continue
		}

		left, err1 := strconv.Atoi(cols[6])
		top, err2 := strconv.Atoi(cols[7])
		width, err3 := strconv.Atoi(cols[8])
		height, err4 := strconv.Atoi(cols[9])
		if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
			continue
		}

		return Box{X: left, Y: top, W: width, H: height}, true
	}

	return Box{}, false
}
