// Package pipeline glues the recognition stages together: decoded-code
// cascade first, payload parsing on a useful symbol, vision failover when
// no code is decodable, result cache around the whole thing.
package pipeline

import (
	"bytes"
	"context"
	"errors"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log"
	"time"

	"idscan/internal/cascade"
	"idscan/internal/fields"
	"idscan/internal/metrics"
	"idscan/internal/payload"
	"idscan/internal/store"
	"idscan/internal/util"
	"idscan/internal/vision"
)

// ErrNotFound is the typed no-data outcome of a full pipeline run.
var ErrNotFound = errors.New("pipeline: no identity data recovered")

// Result wraps the fields with run diagnostics.
type Result struct {
	Fields   fields.IdentityFields
	Method   string // engine or provider that produced the result
	Cached   bool
	Attempts []vision.Attempt // provider attempt log, empty for cascade hits
}

type Pipeline struct {
	Cascade  *cascade.Cascade
	Chain    *vision.Chain
	Cache    *store.ScanRepo // nil disables caching
	CacheTTL time.Duration
}

func New(c *cascade.Cascade, ch *vision.Chain, cache *store.ScanRepo) *Pipeline {
	return &Pipeline{Cascade: c, Chain: ch, Cache: cache, CacheTTL: 30 * 24 * time.Hour}
}

// Scan runs the full pipeline over a still image. sourceURL, when known,
// lets the url-image engine re-fetch the original bytes.
func (p *Pipeline) Scan(ctx context.Context, img []byte, sourceURL string) (Result, error) {
	hash := util.SHA256Hex(img)
	if row := p.cacheGet(ctx, hash); row != nil {
		return Result{Fields: row.Fields, Method: row.Source, Cached: true}, nil
	}

	degradedURL := ""
	if decoded, _, err := image.Decode(bytes.NewReader(img)); err == nil {
		sess := p.Cascade.NewSession()
		out, err := sess.Still(ctx, cascade.Frame{Image: decoded, SourceURL: sourceURL})
		switch {
		case err == nil && out.Symbol != nil:
			f := payload.Parse(out.Symbol.RawText, out.Symbol.Symbology)
			if f.HasSignal() {
				metrics.Recognitions.WithLabelValues("decoded").Inc()
				p.cachePut(ctx, hash, "", f)
				return Result{Fields: f, Method: out.Engine}, nil
			}
			// Useful payload with nothing extractable: remember any
			// fallback URL and move on to vision.
			degradedURL = sess.FallbackURL
		case err == nil && out.Degraded():
			degradedURL = out.FallbackURL
		case errors.Is(err, cascade.ErrNoCode):
			// expected, continue to vision
		case err != nil:
			log.Printf("pipeline: cascade: %v", err)
		}
	} else {
		log.Printf("pipeline: image decode failed, skipping cascade: %v", err)
	}

	return p.recognize(ctx, img, hash, degradedURL)
}

// Recognize is the server-side entry point that skips the cascade: the
// caller already knows no code was decodable.
func (p *Pipeline) Recognize(ctx context.Context, img []byte, documentHint string) (Result, error) {
	hash := util.SHA256Hex(img)
	if row := p.cacheGet(ctx, hash); row != nil {
		return Result{Fields: row.Fields, Method: row.Source, Cached: true}, nil
	}
	return p.recognizeHint(ctx, img, hash, "", documentHint)
}

func (p *Pipeline) recognize(ctx context.Context, img []byte, hash, degradedURL string) (Result, error) {
	return p.recognizeHint(ctx, img, hash, degradedURL, "")
}

func (p *Pipeline) recognizeHint(ctx context.Context, img []byte, hash, degradedURL, documentHint string) (Result, error) {
	f, attempts, err := p.Chain.Recognize(ctx, img, documentHint)
	if err == nil {
		metrics.Recognitions.WithLabelValues("vision").Inc()
		model := ""
		if n := len(attempts); n > 0 {
			model = attempts[n-1].Model
		}
		p.cachePut(ctx, hash, model, f)
		return Result{Fields: f, Method: string(f.Source), Attempts: attempts}, nil
	}

	var exhausted *vision.ExhaustedError
	if !errors.As(err, &exhausted) {
		return Result{Attempts: attempts}, err
	}

	if degradedURL != "" {
		// Everything failed but the cascade saw a verification QR: ship
		// that as a degraded, verification-only result.
		metrics.Recognitions.WithLabelValues("degraded_qr").Inc()
		f := fields.IdentityFields{
			Source:      fields.SourceQR,
			RawEvidence: degradedURL,
			Warnings:    []string{"verification_url_only"},
			ExtractedAt: time.Now().UTC(),
		}
		return Result{Fields: f, Method: "qr-fallback", Attempts: attempts}, nil
	}

	metrics.Recognitions.WithLabelValues("not_found").Inc()
	return Result{Attempts: attempts}, ErrNotFound
}

func (p *Pipeline) cacheGet(ctx context.Context, hash string) *store.Row {
	if p.Cache == nil {
		return nil
	}
	row, err := p.Cache.FindByHash(ctx, hash, p.CacheTTL)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.Printf("pipeline: cache lookup: %v", err)
		}
		metrics.CacheLookups.WithLabelValues("miss").Inc()
		return nil
	}
	metrics.CacheLookups.WithLabelValues("hit").Inc()
	return row
}

func (p *Pipeline) cachePut(ctx context.Context, hash, model string, f fields.IdentityFields) {
	if p.Cache == nil {
		return
	}
	if err := p.Cache.Upsert(ctx, hash, model, f); err != nil {
		log.Printf("pipeline: cache upsert: %v", err)
	}
}
