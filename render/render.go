// Package render runs the per-screen frame loop: read the screen's input,
// hand it to the presenter, and keep showing the last good frame when the
// input goes missing or is corrupt.
package render

import (
	"context"
	"fmt"
	"image"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/flavioheleno/dcore/config"
	"github.com/flavioheleno/dcore/device"
	"github.com/flavioheleno/dcore/internal/errors"
	"github.com/flavioheleno/dcore/internal/logx"
	"github.com/flavioheleno/dcore/profile"
)

// State is the render state of a screen.
//
//	AwaitingFrame --decode ok--> Presenting --decode fails--> Degraded
//	      ^                          ^                           |
//	      +-- no frame yet           +-------decode ok-----------+
type State int32

const (
	AwaitingFrame State = iota
	Presenting
	Degraded
)

func (s State) String() string {
	switch s {
	case AwaitingFrame:
		return "awaiting_frame"
	case Presenting:
		return "presenting"
	case Degraded:
		return "degraded"
	default:
		return fmt.Sprintf("render.State(%d)", int32(s))
	}
}

// Presenter shows a frame on a named screen.
type Presenter interface {
	Present(ctx context.Context, screen string, img image.Image) error
}

// Observer is notified of what the loop does. metrics.Collector implements
// it.
type Observer interface {
	Presented(screen string, took time.Duration)
	Reused(screen string)
	Skipped(screen, reason string)
	StateChanged(screen string, s State)
}

// Skip reasons passed to Observer.Skipped.
const (
	SkipNoInput      = "no_input"
	SkipNoFrame      = "no_frame"
	SkipPresentError = "present_error"
	SkipNoCapability = "no_capability"
)

type nopObserver struct{}

func (nopObserver) Presented(string, time.Duration) {}
func (nopObserver) Reused(string)                   {}
func (nopObserver) Skipped(string, string)          {}
func (nopObserver) StateChanged(string, State)      {}

type screen struct {
	name     string
	interval time.Duration
	state    atomic.Int32

	// owned by the goroutine driving the screen
	last      image.Image
	warnedCap bool
}

// Loop renders every configured screen.
type Loop struct {
	cfg        *config.Config
	presenter  Presenter
	screens    []*screen
	byName     map[string]*screen
	source     func(config.FrameInput) Source
	logger     logx.LoggerProvider
	obs        Observer
	roundRobin bool
}

// Option configures a Loop.
type Option func(*Loop)

// WithRoundRobin visits the screens one after the other in a single
// goroutine, waiting each screen's interval in turn, instead of giving every
// screen its own cadence.
func WithRoundRobin() Option { return func(l *Loop) { l.roundRobin = true } }

// WithLogger sets the logger of the loop.
func WithLogger(p logx.LoggerProvider) Option { return func(l *Loop) { l.logger = p } }

// WithObserver reports every tick outcome to o.
func WithObserver(o Observer) Option { return func(l *Loop) { l.obs = o } }

// WithSource replaces the file reader used for frame inputs.
func WithSource(fn func(config.FrameInput) Source) Option {
	return func(l *Loop) { l.source = fn }
}

// New prepares a loop over cfg's screens. Each screen ticks at the frame
// rate of its profile.
func New(cfg *config.Config, catalog *profile.Catalog, p Presenter, opts ...Option) (*Loop, error) {
	if cfg == nil || p == nil {
		return nil, errors.New("render: config and presenter are required")
	}
	if err := cfg.Validate(catalog); err != nil {
		return nil, err
	}
	l := &Loop{
		cfg:       cfg,
		presenter: p,
		byName:    map[string]*screen{},
		source:    func(in config.FrameInput) Source { return FileSource{Path: in.Path} },
		obs:       nopObserver{},
	}
	for _, opt := range opts {
		opt(l)
	}
	for _, name := range cfg.ScreenNames() {
		spec, _ := catalog.Lookup(cfg.Screens[name].Profile)
		s := &screen{name: name, interval: spec.Interval()}
		l.screens = append(l.screens, s)
		l.byName[name] = s
	}
	return l, nil
}

// State returns the current state of a screen.
func (l *Loop) State(name string) (State, bool) {
	s, ok := l.byName[name]
	if !ok {
		return AwaitingFrame, false
	}
	return State(s.state.Load()), true
}

// Run renders until ctx is done. Nothing inside the loop is fatal: frame and
// presentation errors are logged and the tick skipped.
func (l *Loop) Run(ctx context.Context) error {
	logx.Info("render loop started", l.logger, "screens", len(l.screens), "round_robin", l.roundRobin)
	defer logx.Info("render loop stopped", l.logger)

	if l.roundRobin {
		for {
			for _, s := range l.screens {
				if ctx.Err() != nil {
					return nil
				}
				l.tick(ctx, s)
				if !wait(ctx, s.interval) {
					return nil
				}
			}
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, s := range l.screens {
		s := s
		g.Go(func() error {
			for ctx.Err() == nil {
				l.tick(ctx, s)
				if !wait(ctx, s.interval) {
					break
				}
			}
			return nil
		})
	}
	return g.Wait()
}

// tick runs one iteration for s.
func (l *Loop) tick(ctx context.Context, s *screen) {
	in, ok := l.cfg.Input(s.name)
	if !ok {
		logx.Warn("no frame input for screen", l.logger,
			"screen", s.name, "input", l.cfg.Screens[s.name].DefaultInput)
		l.obs.Skipped(s.name, SkipNoInput)
		return
	}

	img, err := l.source(in).Frame()
	if err != nil {
		ferr := &FrameSourceError{Screen: s.name, Input: in.Name, Path: in.Path, Err: err}
		if s.last == nil {
			logx.Warn("no frame to show", l.logger, "screen", s.name, "err", ferr)
			l.obs.Skipped(s.name, SkipNoFrame)
			return
		}
		logx.Warn("frame input failed, reusing last frame", l.logger, "screen", s.name, "err", ferr)
		l.setState(s, Degraded)
		l.obs.Reused(s.name)
		l.present(ctx, s, s.last)
		return
	}

	l.setState(s, Presenting)
	l.present(ctx, s, img)
	// kept even when presenting failed
	s.last = img
}

func (l *Loop) present(ctx context.Context, s *screen, img image.Image) {
	start := time.Now()
	if err := l.presenter.Present(ctx, s.name, img); err != nil {
		if ctx.Err() != nil {
			return
		}
		if errors.Is(err, device.ErrPresentationCapabilityMissing) {
			if !s.warnedCap {
				logx.Warn("display not supported", l.logger, "screen", s.name)
				s.warnedCap = true
			}
			l.obs.Skipped(s.name, SkipNoCapability)
			return
		}
		logx.Error("present failed", l.logger, "screen", s.name, "err", err)
		l.obs.Skipped(s.name, SkipPresentError)
		return
	}
	l.obs.Presented(s.name, time.Since(start))
}

func (l *Loop) setState(s *screen, st State) {
	if State(s.state.Swap(int32(st))) == st {
		return
	}
	logx.Info("screen state changed", l.logger, "screen", s.name, "state", st)
	l.obs.StateChanged(s.name, st)
}

// wait sleeps d and reports false when ctx ended first.
func wait(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
