package registry

import (
	"context"
	"image"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flavioheleno/dcore/device"
	"github.com/flavioheleno/dcore/internal/logx"
	"github.com/flavioheleno/dcore/profile"
)

// panel is a pixel-addressable fake that tracks overlapping calls.
type panel struct {
	bounds  image.Rectangle
	active  *atomic.Int32
	overlap *atomic.Bool

	mu     sync.Mutex
	frames []image.Image
	clears int
	halted int
}

func newPanel(w, h int, active *atomic.Int32, overlap *atomic.Bool) *panel {
	return &panel{bounds: image.Rect(0, 0, w, h), active: active, overlap: overlap}
}

func (p *panel) enter() func() {
	if p.active != nil {
		if p.active.Add(1) > 1 {
			p.overlap.Store(true)
		}
		time.Sleep(time.Millisecond)
		return func() { p.active.Add(-1) }
	}
	return func() {}
}

func (p *panel) Bounds() image.Rectangle { return p.bounds }

func (p *panel) Halt() error {
	p.halted++
	return nil
}

func (p *panel) Clear() error {
	defer p.enter()()
	p.mu.Lock()
	p.clears++
	p.mu.Unlock()
	return nil
}

func (p *panel) Display(img image.Image) error {
	defer p.enter()()
	p.mu.Lock()
	p.frames = append(p.frames, img)
	p.mu.Unlock()
	return nil
}

// bare has no clear or present capability.
type bare struct{}

func (bare) Bounds() image.Rectangle { return image.Rect(0, 0, 1, 1) }
func (bare) Halt() error             { return nil }

func handle(dev device.Device, bus string) *device.Handle {
	return device.NewHandle(profile.Spec{Key: "test"}, device.PixelAddressable, dev, bus, nil)
}

func TestClear(t *testing.T) {
	a, b := newPanel(4, 2, nil, nil), newPanel(4, 2, nil, nil)
	r, err := New(map[string]*device.Handle{
		"a":    handle(a, "spi0"),
		"b":    handle(b, "i2c"),
		"none": handle(bare{}, "spi1"),
	}, logx.Discard())
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "none"}, r.Screens())

	ctx := context.Background()
	require.NoError(t, r.Clear(ctx, ""))
	require.NoError(t, r.Clear(ctx, ""))
	assert.Equal(t, 2, a.clears)
	assert.Equal(t, 2, b.clears)

	require.NoError(t, r.Clear(ctx, "a"))
	assert.Equal(t, 3, a.clears)
	assert.Equal(t, 2, b.clears)

	// no clear capability: warning only
	assert.NoError(t, r.Clear(ctx, "none"))

	assert.ErrorIs(t, r.Clear(ctx, "nope"), ErrUnknownScreen)
}

func TestPresentAdapts(t *testing.T) {
	p := newPanel(4, 2, nil, nil)
	r, err := New(map[string]*device.Handle{"s": handle(p, "spi0")}, logx.Discard())
	require.NoError(t, err)

	src := image.NewRGBA(image.Rect(0, 0, 40, 20))
	require.NoError(t, r.Present(context.Background(), "s", src))
	require.Len(t, p.frames, 1)
	assert.Equal(t, image.Rect(0, 0, 4, 2), p.frames[0].Bounds())

	assert.ErrorIs(t, r.Present(context.Background(), "x", src), ErrUnknownScreen)

	tg, ok := r.Target("s")
	require.True(t, ok)
	assert.Equal(t, image.Pt(4, 2), tg.Size)
	h, ok := r.Handle("s")
	require.True(t, ok)
	assert.Equal(t, "spi0", h.Bus())
}

func TestPresentWithoutCapability(t *testing.T) {
	r, err := New(map[string]*device.Handle{"s": handle(bare{}, "spi0")}, nil)
	require.NoError(t, err)
	err = r.Present(context.Background(), "s", image.NewRGBA(image.Rect(0, 0, 1, 1)))
	assert.ErrorIs(t, err, device.ErrPresentationCapabilityMissing)
	// clearing stays a warning
	assert.NoError(t, r.Clear(context.Background(), "s"))
}

func TestPresentCanceled(t *testing.T) {
	p := newPanel(1, 1, nil, nil)
	r, err := New(map[string]*device.Handle{"s": handle(p, "spi0")}, nil)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, r.Present(ctx, "s", image.NewRGBA(image.Rect(0, 0, 1, 1))), context.Canceled)
	assert.Empty(t, p.frames)
}

func TestSharedBusIsSerialized(t *testing.T) {
	var active atomic.Int32
	var overlap atomic.Bool
	r, err := New(map[string]*device.Handle{
		"a": handle(newPanel(2, 2, &active, &overlap), "spi0"),
		"b": handle(newPanel(2, 2, &active, &overlap), "spi0"),
	}, nil)
	require.NoError(t, err)
	assert.Same(t, r.entries["a"].bus, r.entries["b"].bus)

	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		for _, n := range []string{"a", "b"} {
			wg.Add(1)
			go func(n string) {
				defer wg.Done()
				_ = r.Present(context.Background(), n, img)
			}(n)
		}
	}
	wg.Wait()
	assert.False(t, overlap.Load(), "panels on one bus were driven concurrently")
}

func TestSeparateBusesHaveSeparateLocks(t *testing.T) {
	r, err := New(map[string]*device.Handle{
		"a": handle(newPanel(2, 2, nil, nil), "spi0"),
		"b": handle(newPanel(2, 2, nil, nil), "i2c"),
	}, nil)
	require.NoError(t, err)
	assert.NotSame(t, r.entries["a"].bus, r.entries["b"].bus)
}

func TestClose(t *testing.T) {
	a := newPanel(1, 1, nil, nil)
	r, err := New(map[string]*device.Handle{"a": handle(a, "spi0")}, nil)
	require.NoError(t, err)
	require.NoError(t, r.Close())
	require.NoError(t, r.Close())
	assert.Equal(t, 1, a.halted)
}

func TestNewBadResampler(t *testing.T) {
	h := device.NewHandle(profile.Spec{Resample: "sinc"}, device.PixelAddressable, bare{}, "spi0", nil)
	_, err := New(map[string]*device.Handle{"s": h}, nil)
	assert.Error(t, err)
}
