/*
Package ocr recognizes text in page images through an ordered chain of
engines: a local tesseract binary, a remote multimodal model and a local
OpenAI-compatible vision model.
*/
package ocr

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
)

const DefaultMinChars = 10

// ErrUnavailable marks an engine that could not be initialized. The failure
// is cached, so the engine stays unavailable for the life of the process.
var ErrUnavailable = errors.New("ocr engine unavailable")

// Image is an encoded raster image.
type Image struct {
	Data []byte
	MIME string
}

// NewImage sniffs the MIME type of data.
func NewImage(data []byte) Image {
	return Image{Data: data, MIME: http.DetectContentType(data)}
}

type Engine interface {
	Name() string
	Recognize(ctx context.Context, img Image) (string, error)
}

// Chain runs engines in order until one returns at least MinChars characters.
type Chain struct {
	Engines  []Engine
	MinChars int
}

func NewChain(engines ...Engine) *Chain {
	return &Chain{Engines: engines, MinChars: DefaultMinChars}
}

// Recognize returns the first adequate text, or the longest text any engine
// produced, or "" when every engine failed. It never returns an error.
func (c *Chain) Recognize(ctx context.Context, img Image) string {
	normalized, err := Normalize(img)
	if err != nil {
		slog.Warn("Failed to normalize image, passing it through", "mime", img.MIME, "err", err)
		normalized = img
	}

	minChars := c.MinChars
	if minChars <= 0 {
		minChars = DefaultMinChars
	}

	var best string
	for _, e := range c.Engines {
		if ctx.Err() != nil {
			break
		}

		text, err := e.Recognize(ctx, normalized)
		switch {
		case errors.Is(err, ErrUnavailable):
			slog.Debug("OCR engine unavailable", "engine", e.Name(), "err", err)
			continue
		case err != nil:
			slog.Warn("OCR engine failed", "engine", e.Name(), "err", err)
			continue
		}

		text = strings.TrimSpace(text)
		if len(text) >= minChars {
			slog.Debug("OCR engine succeeded", "engine", e.Name(), "chars", len(text))
			return text
		}
		if len(text) > len(best) {
			best = text
		}
		slog.Debug("OCR engine returned too little text", "engine", e.Name(), "chars", len(text))
	}
	return best
}
