package cascade

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"idscan/internal/classify"
)

type fakeEngine struct {
	name  string
	syms  []Symbol
	err   error
	calls int
}

func (e *fakeEngine) Name() string { return e.name }

func (e *fakeEngine) Decode(ctx context.Context, f Frame) ([]Symbol, error) {
	e.calls++
	return e.syms, e.err
}

func stackedSymbol(text string) Symbol {
	return Symbol{RawText: text, Symbology: classify.SymbologyPDFStacked}
}

func TestStillStopsAtFirstUsefulSymbol(t *testing.T) {
	miss := &fakeEngine{name: "e1"}
	broken := &fakeEngine{name: "e2", err: errors.New("decoder blew up")}
	hit := &fakeEngine{name: "e3", syms: []Symbol{stackedSymbol("CURP GOMC990101HDFRRL09")}}
	never := &fakeEngine{name: "e4", syms: []Symbol{stackedSymbol("should not be reached")}}

	c := New(miss, broken, hit, never)
	sess := c.NewSession()

	out, err := sess.Still(context.Background(), Frame{})
	require.NoError(t, err)
	require.NotNil(t, out.Symbol)
	assert.Equal(t, "e3", out.Engine)
	assert.Equal(t, "CURP GOMC990101HDFRRL09", out.Symbol.RawText)
	assert.Equal(t, classify.ReasonStructuredID, out.Verdict.Reason)

	assert.Equal(t, []string{"e1", "e2", "e3"}, sess.Attempted)
	assert.Equal(t, "e3", sess.StoppedAt)
	assert.Zero(t, never.calls, "the ladder must stop at the first hit")
}

func TestStillNoCode(t *testing.T) {
	c := New(&fakeEngine{name: "e1"}, &fakeEngine{name: "e2"})
	out, err := c.NewSession().Still(context.Background(), Frame{})
	assert.ErrorIs(t, err, ErrNoCode)
	assert.Nil(t, out.Symbol)
}

func TestStillDegradesToVerificationURL(t *testing.T) {
	link := "https://listanominal.ine.mx/scpln/r?cic=123456"
	qrOnly := &fakeEngine{name: "qr", syms: []Symbol{{RawText: link, Symbology: classify.SymbologyQR}}}
	empty := &fakeEngine{name: "rest"}

	sess := New(qrOnly, empty).NewSession()
	out, err := sess.Still(context.Background(), Frame{})
	require.NoError(t, err)
	assert.True(t, out.Degraded())
	assert.Nil(t, out.Symbol)
	assert.Equal(t, link, out.FallbackURL)
}

func TestStillPrefersRicherSymbology(t *testing.T) {
	both := &fakeEngine{name: "multi", syms: []Symbol{
		{RawText: strings.Repeat("DATA|", 12), Symbology: classify.SymbologyQR},
		stackedSymbol("CURP GOMC990101HDFRRL09"),
	}}
	out, err := New(both).NewSession().Still(context.Background(), Frame{})
	require.NoError(t, err)
	require.NotNil(t, out.Symbol)
	assert.Equal(t, classify.SymbologyPDFStacked, out.Symbol.Symbology)
}

func TestStoppedSessionDecodesNothing(t *testing.T) {
	eng := &fakeEngine{name: "e1", syms: []Symbol{stackedSymbol("CURP GOMC990101HDFRRL09")}}
	sess := New(eng).NewSession()
	sess.Stop()

	_, err := sess.Still(context.Background(), Frame{})
	assert.ErrorIs(t, err, ErrNoCode)
	assert.Zero(t, eng.calls)
	assert.Empty(t, sess.Attempted)
}

type fakeSource struct {
	frames int
	served int
	closed bool
}

func (s *fakeSource) Next(ctx context.Context) (Frame, error) {
	if s.served >= s.frames {
		return Frame{}, io.EOF
	}
	s.served++
	return Frame{}, nil
}

func (s *fakeSource) Close() error {
	s.closed = true
	return nil
}

func TestStreamDecodesEveryNthFrame(t *testing.T) {
	eng := &fakeEngine{name: "e1"}
	src := &fakeSource{frames: 5}

	_, err := New(eng).NewSession().Stream(context.Background(), src, 2)
	assert.ErrorIs(t, err, ErrNoCode)
	assert.Equal(t, 5, src.served, "every frame is pulled")
	assert.Equal(t, 2, eng.calls, "only frames 2 and 4 are decoded")
	assert.True(t, src.closed, "the source is closed on exit")
}

func TestStreamStopsOnHit(t *testing.T) {
	eng := &fakeEngine{name: "e1", syms: []Symbol{stackedSymbol("CURP GOMC990101HDFRRL09")}}
	src := &fakeSource{frames: 100}

	out, err := New(eng).NewSession().Stream(context.Background(), src, 1)
	require.NoError(t, err)
	require.NotNil(t, out.Symbol)
	assert.Equal(t, 1, src.served)
	assert.True(t, src.closed)
}

func TestStreamHonorsCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := &fakeSource{frames: 100}
	_, err := New(&fakeEngine{name: "e1"}).NewSession().Stream(ctx, src, 1)
	assert.ErrorIs(t, err, ErrNoCode)
	assert.Zero(t, src.served)
	assert.True(t, src.closed)
}
