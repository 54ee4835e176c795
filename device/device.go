// Package device turns a profile.Spec into an initialized panel.
//
// Drivers expose what they can do through small optional interfaces
// (Displayer, Clearer, Packer, ...). A Handle checks them once, when it is
// built, and keeps the resolved operations; callers never test for
// capabilities again.
package device

import (
	"fmt"
	"image"
	"io"

	"github.com/flavioheleno/dcore/internal/errors"
	"github.com/flavioheleno/dcore/profile"
)

// Kind is the refresh behavior of a panel.
type Kind int

const (
	// RefreshCycle panels (e-paper) distinguish full and partial refreshes.
	RefreshCycle Kind = iota
	// PixelAddressable panels (OLED, TFT) redraw continuously.
	PixelAddressable
)

func (k Kind) String() string {
	switch k {
	case RefreshCycle:
		return "refresh-cycle"
	case PixelAddressable:
		return "pixel-addressable"
	default:
		return fmt.Sprintf("device.Kind(%d)", int(k))
	}
}

// Device is what every driver implements.
type Device interface {
	Bounds() image.Rectangle
	Halt() error
}

// FullClearer wipes the panel with a full refresh.
type FullClearer interface{ ClearFull() error }

// Clearer blanks the panel.
type Clearer interface{ Clear() error }

// Displayer sends a whole frame.
type Displayer interface{ Display(img image.Image) error }

// Shower is the alternate spelling some drivers use for Displayer.
type Shower interface{ Show(img image.Image) error }

// PartialDisplayer refreshes with the partial waveform.
type PartialDisplayer interface {
	DisplayPartial(img image.Image, fast bool) error
}

// Packer converts an adapted frame to the driver's native buffer.
type Packer interface {
	Pack(img image.Image) (image.Image, error)
}

// UpdateModer switches a refresh-cycle panel between full and partial mode.
type UpdateModer interface{ SetUpdateMode(partial bool) error }

// Initializer runs the controller initialization.
type Initializer interface{ Init() error }

// Primer seeds a panel that has a single refresh mode with a first frame.
type Primer interface{ Prime(img image.Image) error }

// Inverter selects inverted or normal colors.
type Inverter interface{ Invert(invert bool) error }

// Monochromer reports panels that can only show two colors.
type Monochromer interface{ Monochrome() bool }

// ErrPresentationCapabilityMissing is returned by Handle operations the
// driver does not implement.
var ErrPresentationCapabilityMissing = errors.New("device: presentation capability missing")

// Handle is an initialized panel with its clear and present operations
// resolved.
type Handle struct {
	spec   profile.Spec
	kind   Kind
	dev    Device
	bus    string
	closer io.Closer

	clear   func() error
	present func(image.Image) error
	packer  Packer
	mono    bool

	closed bool
}

// NewHandle wraps an already initialized dev. closer, if not nil, is closed
// after the device is halted.
func NewHandle(spec profile.Spec, kind Kind, dev Device, bus string, closer io.Closer) *Handle {
	h := &Handle{spec: spec, kind: kind, dev: dev, bus: bus, closer: closer}

	switch d := dev.(type) {
	case FullClearer:
		h.clear = d.ClearFull
	case Clearer:
		h.clear = d.Clear
	}

	switch d := dev.(type) {
	case Displayer:
		h.present = d.Display
	case Shower:
		h.present = d.Show
	case PartialDisplayer:
		h.present = func(img image.Image) error { return d.DisplayPartial(img, true) }
	}

	if p, ok := dev.(Packer); ok {
		h.packer = p
	}
	if m, ok := dev.(Monochromer); ok {
		h.mono = m.Monochrome()
	}
	return h
}

// Spec returns the profile the panel was opened with.
func (h *Handle) Spec() profile.Spec { return h.spec }

// Kind tells refresh-cycle panels from pixel-addressable ones.
func (h *Handle) Kind() Kind { return h.kind }

// Bus is the key of the physical bus; handles sharing it must not be used
// concurrently.
func (h *Handle) Bus() string { return h.bus }

// Bounds returns the driver's drawing surface.
func (h *Handle) Bounds() image.Rectangle { return h.dev.Bounds() }

// Device returns the underlying driver.
func (h *Handle) Device() Device { return h.dev }

// Packer returns the driver's packer, nil when it has none.
func (h *Handle) Packer() Packer { return h.packer }

// Monochrome reports two-color panels.
func (h *Handle) Monochrome() bool { return h.mono }

// CanClear and CanPresent report the resolved capabilities.
func (h *Handle) CanClear() bool   { return h.clear != nil }
func (h *Handle) CanPresent() bool { return h.present != nil }

// Clear blanks the panel.
func (h *Handle) Clear() error {
	if h.clear == nil {
		return ErrPresentationCapabilityMissing
	}
	return h.clear()
}

// Present shows img, which must already be adapted to the panel.
func (h *Handle) Present(img image.Image) error {
	if h.present == nil {
		return ErrPresentationCapabilityMissing
	}
	return h.present(img)
}

// Close halts the panel and releases its bus. It is safe to call twice.
func (h *Handle) Close() error {
	if h.closed {
		return nil
	}
	h.closed = true
	err := h.dev.Halt()
	if h.closer != nil {
		err = errors.Join(err, h.closer.Close())
	}
	return err
}

func (h *Handle) String() string {
	return fmt.Sprintf("device.Handle{%s, %s, %s}", h.spec.Key, h.kind, h.bus)
}
