package vision

import (
	"context"
	"fmt"
	"log"
	"time"

	"idscan/internal/classify"
	"idscan/internal/fields"
	"idscan/internal/metrics"
	"idscan/internal/payload"
)

// ExhaustedError is the typed terminal failure: every provider and the OCR
// fallback failed or came back empty. The caller degrades to manual entry;
// fields are never fabricated.
type ExhaustedError struct {
	Attempts []Attempt
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("vision: recognition failed after %d attempts", len(e.Attempts))
}

// Step is one provider in the chain with an optional timeout override.
type Step struct {
	Provider Provider
	Timeout  time.Duration // zero means the chain default
}

// Chain folds an image over the ordered provider list. Providers run
// strictly one after another; a request pays for provider N+1 only once
// provider N has failed.
type Chain struct {
	Steps              []Step
	OCR                TextRecognizer // optional, always last
	PerProviderTimeout time.Duration
}

func NewChain(providers ...Provider) *Chain {
	steps := make([]Step, 0, len(providers))
	for _, p := range providers {
		steps = append(steps, Step{Provider: p})
	}
	return &Chain{Steps: steps, PerProviderTimeout: 60 * time.Second}
}

// Recognize returns the first accepted result along with the attempt log.
// A provider result is accepted when it carries at least a CURP or a name;
// an empty answer is a soft failure and the chain advances.
func (c *Chain) Recognize(ctx context.Context, image []byte, documentHint string) (fields.IdentityFields, []Attempt, error) {
	attempts := make([]Attempt, 0, len(c.Steps)+1)

	for i, step := range c.Steps {
		f, att := c.attempt(ctx, step, image, documentHint, i+1)
		attempts = append(attempts, att)
		if !att.OK {
			log.Printf("vision: provider %s failed (%s), advancing", att.Provider, att.ErrClass)
			continue
		}
		f.ExtractedAt = time.Now().UTC()
		f.FillFromCURP()
		return f, attempts, nil
	}

	if c.OCR != nil {
		f, att := c.ocrAttempt(ctx, image, len(attempts)+1)
		attempts = append(attempts, att)
		if att.OK {
			return f, attempts, nil
		}
		log.Printf("vision: ocr fallback %s failed (%s)", att.Provider, att.ErrClass)
	}

	return fields.IdentityFields{}, attempts, &ExhaustedError{Attempts: attempts}
}

func (c *Chain) attempt(ctx context.Context, step Step, image []byte, hint string, ordinal int) (fields.IdentityFields, Attempt) {
	p := step.Provider
	att := Attempt{Provider: p.Name(), Model: p.Model(), Ordinal: ordinal}
	start := time.Now()

	d := step.Timeout
	if d <= 0 {
		d = c.timeout()
	}
	pctx, cancel := context.WithTimeout(ctx, d)
	f, err := p.Extract(pctx, image, hint)
	cancel()

	att.Latency = time.Since(start)
	if err == nil && !f.HasSignal() {
		err = ErrEmptyResult
	}
	if err != nil {
		att.ErrClass = classifyErr(err)
		metrics.ProviderAttempts.WithLabelValues(att.Provider, string(att.ErrClass)).Inc()
		return fields.IdentityFields{}, att
	}
	att.OK = true
	metrics.ProviderAttempts.WithLabelValues(att.Provider, "accepted").Inc()
	return f, att
}

// ocrAttempt feeds raw OCR text through the stacked-text strategy; OCR
// output resembles unlabeled document text more than anything else.
func (c *Chain) ocrAttempt(ctx context.Context, image []byte, ordinal int) (fields.IdentityFields, Attempt) {
	att := Attempt{Provider: c.OCR.Name(), Ordinal: ordinal}
	start := time.Now()

	octx, cancel := context.WithTimeout(ctx, c.timeout())
	text, err := c.OCR.Recognize(octx, image)
	cancel()

	att.Latency = time.Since(start)
	if err != nil {
		att.ErrClass = classifyErr(err)
		metrics.ProviderAttempts.WithLabelValues(att.Provider, string(att.ErrClass)).Inc()
		return fields.IdentityFields{}, att
	}

	f := payload.Parse(text, classify.SymbologyUnknown)
	f.Source = fields.SourceOCR
	if !f.HasSignal() {
		att.ErrClass = ErrClassEmpty
		metrics.ProviderAttempts.WithLabelValues(att.Provider, string(ErrClassEmpty)).Inc()
		return fields.IdentityFields{}, att
	}
	att.OK = true
	metrics.ProviderAttempts.WithLabelValues(att.Provider, "accepted").Inc()
	return f, att
}

func (c *Chain) timeout() time.Duration {
	if c.PerProviderTimeout > 0 {
		return c.PerProviderTimeout
	}
	return 60 * time.Second
}
