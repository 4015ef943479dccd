// Package cascade runs an ordered ladder of barcode decode engines over a
// still frame or a frame stream, stopping at the first payload the
// classifier judges useful.
package cascade

import (
	"context"
	"image"
	"time"

	"idscan/internal/classify"
)

// Symbol is one decode result. Produced by an engine, consumed once by the
// classifier within the same tick.
type Symbol struct {
	RawText    string
	Symbology  classify.Symbology
	CapturedAt time.Time
}

// Frame is the input to one detection tick. SourceURL, when known, points
// at the original full-resolution image (a Telegram file, a remote capture
// upload) and lets the url-image engine retry on better pixels.
type Frame struct {
	Image     image.Image
	SourceURL string
}

// Engine is one decode capability in the ladder. Returning no symbols and
// returning an error are equally non-fatal; the cascade advances either way.
type Engine interface {
	Name() string
	Decode(ctx context.Context, f Frame) ([]Symbol, error)
}

// symbologyRank orders formats by data richness for the same-frame
// tie-break; the stacked format carries the full field set.
func symbologyRank(s classify.Symbology) int {
	switch s {
	case classify.SymbologyPDFStacked:
		return 0
	case classify.SymbologyDataMatrix:
		return 1
	case classify.SymbologyAztec:
		return 2
	case classify.SymbologyQR:
		return 3
	}
	return 4
}
