package cascade

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"time"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/aztec"
	"github.com/makiuchi-d/gozxing/datamatrix"
	"github.com/makiuchi-d/gozxing/qrcode"

	"idscan/internal/classify"
)

// DefaultEngines returns the decode ladder in priority order: the cheap QR
// reader first, the dense stacked formats next, then progressively more
// expensive retries.
func DefaultEngines() []Engine {
	return []Engine{
		&qrEngine{},
		&stackedEngine{},
		&multiFormatEngine{},
		&contrastEngine{},
		&urlImageEngine{httpc: &http.Client{Timeout: 20 * time.Second}},
	}
}

func toSymbology(f gozxing.BarcodeFormat) classify.Symbology {
	switch f {
	case gozxing.BarcodeFormat_QR_CODE:
		return classify.SymbologyQR
	case gozxing.BarcodeFormat_PDF_417:
		return classify.SymbologyPDFStacked
	case gozxing.BarcodeFormat_DATA_MATRIX:
		return classify.SymbologyDataMatrix
	case gozxing.BarcodeFormat_AZTEC:
		return classify.SymbologyAztec
	}
	return classify.SymbologyUnknown
}

func toSymbols(results ...*gozxing.Result) []Symbol {
	var out []Symbol
	for _, r := range results {
		if r == nil || r.GetText() == "" {
			continue
		}
		out = append(out, Symbol{
			RawText:    r.GetText(),
			Symbology:  toSymbology(r.GetBarcodeFormat()),
			CapturedAt: time.Now().UTC(),
		})
	}
	return out
}

func bitmapOf(img image.Image) (*gozxing.BinaryBitmap, error) {
	return gozxing.NewBinaryBitmapFromImage(img)
}

// qrEngine mirrors the platform-native detector of the original capture
// surface: fast, QR only.
type qrEngine struct{}

func (e *qrEngine) Name() string { return "qr" }

func (e *qrEngine) Decode(_ context.Context, f Frame) ([]Symbol, error) {
	bmp, err := bitmapOf(f.Image)
	if err != nil {
		return nil, err
	}
	r, err := qrcode.NewQRCodeReader().Decode(bmp, nil)
	if err != nil {
		return nil, err
	}
	return toSymbols(r), nil
}

// stackedEngine is the dedicated reader for the dense back-side formats.
type stackedEngine struct{}

func (e *stackedEngine) Name() string { return "stacked-reader" }

func (e *stackedEngine) Decode(_ context.Context, f Frame) ([]Symbol, error) {
	bmp, err := bitmapOf(f.Image)
	if err != nil {
		return nil, err
	}
	hints := map[gozxing.DecodeHintType]interface{}{
		gozxing.DecodeHintType_TRY_HARDER: true,
		gozxing.DecodeHintType_POSSIBLE_FORMATS: []gozxing.BarcodeFormat{
			gozxing.BarcodeFormat_PDF_417,
			gozxing.BarcodeFormat_DATA_MATRIX,
			gozxing.BarcodeFormat_AZTEC,
		},
	}
	if r, err := gozxing.NewMultiFormatReader().Decode(bmp, hints); err == nil {
		return toSymbols(r), nil
	}
	// Format-restricted pass missed; try the dedicated readers one by one.
	var syms []Symbol
	for _, reader := range []gozxing.Reader{
		datamatrix.NewDataMatrixReader(),
		aztec.NewAztecReader(),
	} {
		fresh, err := bitmapOf(f.Image)
		if err != nil {
			continue
		}
		if r, err := reader.Decode(fresh, nil); err == nil {
			syms = append(syms, toSymbols(r)...)
		}
	}
	if len(syms) == 0 {
		return nil, fmt.Errorf("stacked-reader: no symbol")
	}
	return syms, nil
}

// multiFormatEngine tries every format gozxing knows, with the slow path on.
type multiFormatEngine struct{}

func (e *multiFormatEngine) Name() string { return "multi-format" }

func (e *multiFormatEngine) Decode(_ context.Context, f Frame) ([]Symbol, error) {
	bmp, err := bitmapOf(f.Image)
	if err != nil {
		return nil, err
	}
	hints := map[gozxing.DecodeHintType]interface{}{
		gozxing.DecodeHintType_TRY_HARDER: true,
	}
	r, err := gozxing.NewMultiFormatReader().Decode(bmp, hints)
	if err != nil {
		return nil, err
	}
	return toSymbols(r), nil
}

// contrastEngine re-decodes after a linear luminance stretch; glossy card
// laminate often flattens contrast below what the binarizer copes with.
type contrastEngine struct{}

func (e *contrastEngine) Name() string { return "contrast-enhanced" }

func (e *contrastEngine) Decode(_ context.Context, f Frame) ([]Symbol, error) {
	stretched := stretchContrast(f.Image)
	bmp, err := bitmapOf(stretched)
	if err != nil {
		return nil, err
	}
	hints := map[gozxing.DecodeHintType]interface{}{
		gozxing.DecodeHintType_TRY_HARDER: true,
	}
	r, err := gozxing.NewMultiFormatReader().Decode(bmp, hints)
	if err != nil {
		return nil, err
	}
	return toSymbols(r), nil
}

// urlImageEngine re-downloads the original image when the frame carries a
// source URL; preview frames are often downscaled past decodability.
type urlImageEngine struct {
	httpc *http.Client
}

func (e *urlImageEngine) Name() string { return "url-image" }

func (e *urlImageEngine) Decode(ctx context.Context, f Frame) ([]Symbol, error) {
	if f.SourceURL == "" {
		return nil, nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.SourceURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := e.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("url-image: status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 20<<20))
	if err != nil {
		return nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	bmp, err := bitmapOf(img)
	if err != nil {
		return nil, err
	}
	hints := map[gozxing.DecodeHintType]interface{}{
		gozxing.DecodeHintType_TRY_HARDER: true,
	}
	r, err := gozxing.NewMultiFormatReader().Decode(bmp, hints)
	if err != nil {
		return nil, err
	}
	return toSymbols(r), nil
}

// stretchContrast maps the observed luma range onto the full 0..255 span.
func stretchContrast(src image.Image) *image.Gray {
	b := src.Bounds()
	gray := image.NewGray(b)
	minY, maxY := uint8(255), uint8(0)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := src.At(x, y).RGBA()
			// ITU-R BT.601 luma, 16-bit channels down to 8.
			l := uint8((299*r + 587*g + 114*bl) / 1000 >> 8)
			gray.SetGray(x, y, color.Gray{Y: l})
			if l < minY {
				minY = l
			}
			if l > maxY {
				maxY = l
			}
		}
	}
	if maxY <= minY {
		return gray
	}
	span := int(maxY) - int(minY)
	for i, p := range gray.Pix {
		gray.Pix[i] = uint8((int(p) - int(minY)) * 255 / span)
	}
	return gray
}
