// Package registry owns the opened panels, one Handle per screen name, and
// serializes access to shared buses.
package registry

import (
	"context"
	"image"
	"sort"
	"sync"

	"github.com/flavioheleno/dcore/adapt"
	"github.com/flavioheleno/dcore/device"
	"github.com/flavioheleno/dcore/internal/errors"
	"github.com/flavioheleno/dcore/internal/logx"
)

// ErrUnknownScreen is returned for names the registry does not hold.
var ErrUnknownScreen = errors.New("registry: unknown screen")

type entry struct {
	h      *device.Handle
	target adapt.Target
	bus    *sync.Mutex
}

// Registry maps screen names to panels.
type Registry struct {
	entries map[string]*entry
	names   []string
	logger  logx.LoggerProvider

	mu     sync.Mutex
	closed bool
}

// New takes ownership of handles. Handles with the same bus key share a
// lock.
func New(handles map[string]*device.Handle, logger logx.LoggerProvider) (*Registry, error) {
	r := &Registry{entries: make(map[string]*entry, len(handles)), logger: logger}
	buses := map[string]*sync.Mutex{}
	for name, h := range handles {
		t, err := adapt.TargetFor(h)
		if err != nil {
			return nil, errors.WrapPrefix(err, "registry: screen "+name, 0)
		}
		mu, ok := buses[h.Bus()]
		if !ok {
			mu = &sync.Mutex{}
			buses[h.Bus()] = mu
		}
		r.entries[name] = &entry{h: h, target: t, bus: mu}
		r.names = append(r.names, name)
	}
	sort.Strings(r.names)
	return r, nil
}

// Screens returns the screen names in sorted order.
func (r *Registry) Screens() []string {
	return append([]string(nil), r.names...)
}

// Handle returns the panel of a screen.
func (r *Registry) Handle(name string) (*device.Handle, bool) {
	e, ok := r.entries[name]
	if !ok {
		return nil, false
	}
	return e.h, true
}

// Target returns the adaptation target of a screen.
func (r *Registry) Target(name string) (adapt.Target, bool) {
	e, ok := r.entries[name]
	if !ok {
		return adapt.Target{}, false
	}
	return e.target, true
}

// Clear blanks one screen, or all of them when name is empty. Panels that
// cannot clear are skipped with a warning.
func (r *Registry) Clear(ctx context.Context, name string) error {
	names := []string{name}
	if name == "" {
		names = r.names
	}
	var errs []error
	for _, n := range names {
		if err := ctx.Err(); err != nil {
			return err
		}
		e, ok := r.entries[n]
		if !ok {
			return errors.Errorf("%w: %q", ErrUnknownScreen, n)
		}
		if !e.h.CanClear() {
			logx.Warn("clear not supported", r.logger, "screen", n)
			continue
		}
		e.bus.Lock()
		err := e.h.Clear()
		e.bus.Unlock()
		if err != nil {
			errs = append(errs, errors.WrapPrefix(err, "registry: clear "+n, 0))
			continue
		}
		logx.Debug("screen cleared", r.logger, "screen", n)
	}
	return errors.Join(errs...)
}

// Present adapts img for the screen's panel and shows it. For panels that
// cannot present nothing is sent and the error wraps
// device.ErrPresentationCapabilityMissing.
func (r *Registry) Present(ctx context.Context, name string, img image.Image) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e, ok := r.entries[name]
	if !ok {
		return errors.Errorf("%w: %q", ErrUnknownScreen, name)
	}
	if !e.h.CanPresent() {
		return errors.Errorf("%w: %q", device.ErrPresentationCapabilityMissing, name)
	}
	frame, err := adapt.Adapt(img, e.target)
	if err != nil {
		return err
	}
	e.bus.Lock()
	defer e.bus.Unlock()
	return e.h.Present(frame)
}

// Close halts every panel and releases the buses. Errors are joined.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	var errs []error
	for _, n := range r.names {
		e := r.entries[n]
		e.bus.Lock()
		err := e.h.Close()
		e.bus.Unlock()
		if err != nil {
			errs = append(errs, errors.WrapPrefix(err, "registry: close "+n, 0))
		}
	}
	logx.Info("displays released", r.logger, "count", len(r.names))
	return errors.Join(errs...)
}
