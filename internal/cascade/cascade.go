package cascade

import (
	"context"
	"errors"
	"io"
	"log"
	"sync/atomic"
	"time"

	"idscan/internal/classify"
	"idscan/internal/metrics"
)

// ErrNoCode is the typed "nothing found" outcome. It is a normal terminal
// state of a scan, not a bug.
var ErrNoCode = errors.New("cascade: no useful code found")

// Outcome is the terminal result of one scan session. Either Symbol is set
// (a useful payload, with its verdict and the engine that produced it), or
// FallbackURL carries a cached verification link as a degraded result.
type Outcome struct {
	Symbol      *Symbol
	Verdict     classify.Verdict
	Engine      string
	FallbackURL string
}

// Degraded reports whether the outcome is only a verification URL.
func (o Outcome) Degraded() bool { return o.Symbol == nil && o.FallbackURL != "" }

// Cascade is the ordered decode ladder. Engines run strictly one at a time;
// several readers reuse per-decode scratch state and are not safe to
// interleave on the same frame.
type Cascade struct {
	Engines          []Engine
	PerEngineTimeout time.Duration
}

func New(engines ...Engine) *Cascade {
	if len(engines) == 0 {
		engines = DefaultEngines()
	}
	return &Cascade{Engines: engines, PerEngineTimeout: 5 * time.Second}
}

// Session is the per-scan-attempt state. One session per capture surface;
// starting a new scan must Stop the previous session first.
type Session struct {
	c *Cascade

	Attempted   []string
	StoppedAt   string
	FallbackURL string

	stopped atomic.Bool
}

func (c *Cascade) NewSession() *Session { return &Session{c: c} }

// Stop requests cooperative cancellation. The flag is checked at the top of
// each tick; teardown completes within one tick boundary.
func (s *Session) Stop() { s.stopped.Store(true) }

// Still runs the full ladder against one frame.
func (s *Session) Still(ctx context.Context, f Frame) (Outcome, error) {
	if out, ok := s.tick(ctx, f); ok {
		return out, nil
	}
	return s.exhausted()
}

// FrameSource feeds the streaming variant. Next blocks for the following
// frame and returns io.EOF when the stream ends; Close releases the
// underlying capture device.
type FrameSource interface {
	Next(ctx context.Context) (Frame, error)
	Close() error
}

// Stream scans a live source, decoding every nth frame to bound CPU cost.
// The source is closed on every exit path.
func (s *Session) Stream(ctx context.Context, src FrameSource, everyNth int) (Outcome, error) {
	defer func() {
		if err := src.Close(); err != nil {
			log.Printf("cascade: close frame source: %v", err)
		}
	}()
	if everyNth < 1 {
		everyNth = 1
	}
	n := 0
	for {
		if s.stopped.Load() || ctx.Err() != nil {
			return s.exhausted()
		}
		f, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			return s.exhausted()
		}
		if err != nil {
			// A broken source ends the session; any cached fallback
			// still counts.
			if out, err2 := s.exhausted(); err2 == nil {
				return out, nil
			}
			return Outcome{}, err
		}
		n++
		if n%everyNth != 0 {
			continue
		}
		if out, ok := s.tick(ctx, f); ok {
			return out, nil
		}
	}
}

// tick runs the ladder once over a frame. It returns ok=false when no
// engine produced a useful symbol; verification URLs seen along the way are
// cached on the session.
func (s *Session) tick(ctx context.Context, f Frame) (Outcome, bool) {
	for _, eng := range s.c.Engines {
		if s.stopped.Load() || ctx.Err() != nil {
			return Outcome{}, false
		}
		s.Attempted = append(s.Attempted, eng.Name())

		ectx, cancel := context.WithTimeout(ctx, s.c.perEngineTimeout())
		syms, err := eng.Decode(ectx, f)
		cancel()
		if err != nil {
			// Engine failure is non-fatal; the ladder advances.
			metrics.CascadeEngineRuns.WithLabelValues(eng.Name(), "error").Inc()
			continue
		}

		var best *Symbol
		var bestVerdict classify.Verdict
		for i := range syms {
			sym := &syms[i]
			v := classify.Classify(sym.RawText, sym.Symbology)
			if !v.Useful {
				if classify.IsVerificationURL(sym.RawText) && s.FallbackURL == "" {
					s.FallbackURL = sym.RawText
				}
				continue
			}
			if best == nil || symbologyRank(sym.Symbology) < symbologyRank(best.Symbology) {
				best, bestVerdict = sym, v
			}
		}
		if best != nil {
			metrics.CascadeEngineRuns.WithLabelValues(eng.Name(), "hit").Inc()
			s.StoppedAt = eng.Name()
			return Outcome{Symbol: best, Verdict: bestVerdict, Engine: eng.Name()}, true
		}
		metrics.CascadeEngineRuns.WithLabelValues(eng.Name(), "miss").Inc()
	}
	return Outcome{}, false
}

func (s *Session) exhausted() (Outcome, error) {
	if s.FallbackURL != "" {
		return Outcome{FallbackURL: s.FallbackURL}, nil
	}
	return Outcome{}, ErrNoCode
}

func (c *Cascade) perEngineTimeout() time.Duration {
	if c.PerEngineTimeout > 0 {
		return c.PerEngineTimeout
	}
	return 5 * time.Second
}
