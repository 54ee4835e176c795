// Package epaper adapts periph's Waveshare e-paper HAT drivers to the
// refresh-cycle capabilities used by dcore.
//
// E-paper panels are initialized once in full-update mode, wiped, then
// switched to partial-update mode so subsequent frames do not flash.
package epaper

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"io"

	"github.com/disintegration/imaging"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/devices/v3/waveshare2in13v2"

	"github.com/flavioheleno/dcore/internal/errors"
)

// Panel is the subset of *waveshare2in13v2.Dev the adapter relies on.
type Panel interface {
	Init() error
	SetUpdateMode(mode waveshare2in13v2.PartialUpdate) error
	Clear(c color.Color) error
	Draw(dstRect image.Rectangle, src image.Image, sp image.Point) error
	Halt() error
	Bounds() image.Rectangle
}

// Dev is a refresh-cycle panel.
type Dev struct {
	p      Panel
	closer io.Closer
	model  string
	halted bool
}

// New wraps p. closer, if not nil, is closed by Halt.
func New(p Panel, model string, closer io.Closer) *Dev {
	return &Dev{p: p, closer: closer, model: model}
}

// Open2in13v2 creates the 2.13" v2 HAT driver on port using the HAT pin
// layout. The port is owned by the returned Dev.
func Open2in13v2(port spi.PortCloser) (*Dev, error) {
	p, err := waveshare2in13v2.NewHat(port, &waveshare2in13v2.EPD2in13v2)
	if err != nil {
		return nil, errors.WrapPrefix(err, "epaper: 2in13v2", 0)
	}
	return New(p, "epd2in13v2", port), nil
}

// Init runs the controller initialization for the current update mode.
func (d *Dev) Init() error {
	if err := d.p.Init(); err != nil {
		return errors.WrapPrefix(err, "epaper: init", 0)
	}
	return nil
}

// SetUpdateMode selects partial (no flashing) or full refreshes.
func (d *Dev) SetUpdateMode(partial bool) error {
	mode := waveshare2in13v2.Full
	if partial {
		mode = waveshare2in13v2.Partial
	}
	return d.p.SetUpdateMode(mode)
}

// ClearFull wipes the panel to white with a full refresh.
func (d *Dev) ClearFull() error {
	if d.halted {
		return errHalted
	}
	return d.p.Clear(color.White)
}

// Bounds returns the native panel geometry.
func (d *Dev) Bounds() image.Rectangle { return d.p.Bounds() }

// Monochrome reports that the panel only shows black and white.
func (d *Dev) Monochrome() bool { return true }

// Pack converts img to the panel's native 1-bit page layout. Images whose
// geometry is the transpose of the panel (landscape frames on a portrait
// panel) are turned a quarter counter-clockwise first.
func (d *Dev) Pack(img image.Image) (image.Image, error) {
	native := d.p.Bounds()
	if v, ok := img.(*image1bit.VerticalLSB); ok && v.Bounds() == native {
		return v, nil
	}
	b := img.Bounds()
	if b.Dx() == native.Dy() && b.Dy() == native.Dx() && b.Dx() != b.Dy() {
		img = imaging.Rotate90(img)
		b = img.Bounds()
	}
	if b.Dx() != native.Dx() || b.Dy() != native.Dy() {
		return nil, fmt.Errorf("epaper: cannot pack %dx%d frame for %dx%d panel", b.Dx(), b.Dy(), native.Dx(), native.Dy())
	}
	out := image1bit.NewVerticalLSB(native)
	draw.Draw(out, native, img, b.Min, draw.Src)
	return out, nil
}

// Display sends a full frame. Unpacked frames are packed first.
func (d *Dev) Display(img image.Image) error {
	if d.halted {
		return errHalted
	}
	packed, err := d.Pack(img)
	if err != nil {
		return err
	}
	return d.p.Draw(d.p.Bounds(), packed, packed.Bounds().Min)
}

// Halt puts the panel in deep sleep and releases the port.
func (d *Dev) Halt() error {
	if d.halted {
		return nil
	}
	d.halted = true
	err := d.p.Halt()
	if d.closer != nil {
		err = errors.Join(err, d.closer.Close())
	}
	return err
}

func (d *Dev) String() string {
	b := d.p.Bounds()
	return fmt.Sprintf("epaper.Dev{%s, %dx%d}", d.model, b.Dx(), b.Dy())
}

var errHalted = errors.New("epaper: halted")
