// Package lcd drives MIPI-DCS style TFT controllers (ST7789, ILI9486) over a
// 4-wire SPI link.
//
// The driver keeps the last frame written to the controller RAM and only
// sends the smallest rectangle that changed, the same way periph's OLED
// drivers economize bus bandwidth.
package lcd

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"time"

	"github.com/disintegration/imaging"

	"github.com/flavioheleno/dcore/pixfmt"
	"github.com/flavioheleno/dcore/serial"
)

// Controller selects the command set and pixel format.
type Controller string

const (
	ST7789  Controller = "st7789"
	ILI9486 Controller = "ili9486"
)

// MIPI DCS commands shared by both controllers.
const (
	cmdSoftReset   = 0x01
	cmdSleepIn     = 0x10
	cmdSleepOut    = 0x11
	cmdNormalOn    = 0x13
	cmdInvertOff   = 0x20
	cmdInvertOn    = 0x21
	cmdDisplayOff  = 0x28
	cmdDisplayOn   = 0x29
	cmdColumnAddr  = 0x2A
	cmdRowAddr     = 0x2B
	cmdMemoryWrite = 0x2C
	cmdMADCTL      = 0x36
	cmdPixelFormat = 0x3A
)

// MADCTL bits.
const (
	madctlMX  = 0x40
	madctlBGR = 0x08
)

// Opts is the configuration of a panel.
type Opts struct {
	// Native panel size in pixels.
	W int
	H int

	// Rotate is the number of clockwise quarter turns applied to frames
	// before they reach the panel. Odd values swap the drawing surface.
	Rotate int

	// RAM offsets of the visible area, for panels smaller than the
	// controller RAM (e.g. 240x240 ST7789 modules).
	HOffset int
	VOffset int

	// BGR panels have their red and blue subpixels swapped.
	BGR bool
}

type step struct {
	cmd   byte
	args  []byte
	delay time.Duration
}

type controller struct {
	format pixfmt.Format
	madctl byte
	colmod byte
	init   []step
}

var controllers = map[Controller]controller{
	ST7789: {
		format: pixfmt.RGB565,
		madctl: 0x00,
		colmod: 0x55,
		init: []step{
			{cmd: 0xB2, args: []byte{0x0C, 0x0C, 0x00, 0x33, 0x33}}, // porch
			{cmd: 0xB7, args: []byte{0x35}},                         // gate control
			{cmd: 0xBB, args: []byte{0x19}},                         // VCOM
			{cmd: 0xC0, args: []byte{0x2C}},                         // LCM control
			{cmd: 0xC2, args: []byte{0x01}},                         // VDV/VRH enable
			{cmd: 0xC3, args: []byte{0x12}},                         // VRH
			{cmd: 0xC4, args: []byte{0x20}},                         // VDV
			{cmd: 0xC6, args: []byte{0x0F}},                         // 60Hz frame rate
			{cmd: 0xD0, args: []byte{0xA4, 0xA1}},                   // power control
			{cmd: 0xE0, args: []byte{0xD0, 0x04, 0x0D, 0x11, 0x13, 0x2B, 0x3F, 0x54, 0x4C, 0x18, 0x0D, 0x0B, 0x1F, 0x23}},
			{cmd: 0xE1, args: []byte{0xD0, 0x04, 0x0C, 0x11, 0x13, 0x2C, 0x3F, 0x44, 0x51, 0x2F, 0x1F, 0x1F, 0x20, 0x23}},
		},
	},
	ILI9486: {
		format: pixfmt.RGB666,
		madctl: madctlMX,
		colmod: 0x66,
		init: []step{
			{cmd: 0xB0, args: []byte{0x00}},                   // interface mode
			{cmd: 0xC2, args: []byte{0x44}},                   // power control 3
			{cmd: 0xC5, args: []byte{0x00, 0x00, 0x00, 0x00}}, // VCOM
			{cmd: 0xE0, args: []byte{0x0F, 0x1F, 0x1C, 0x0C, 0x0F, 0x08, 0x48, 0x98, 0x37, 0x0A, 0x13, 0x04, 0x11, 0x0D, 0x00}},
			{cmd: 0xE1, args: []byte{0x0F, 0x32, 0x2E, 0x0B, 0x0D, 0x05, 0x47, 0x75, 0x37, 0x06, 0x10, 0x03, 0x24, 0x20, 0x00}},
		},
	},
}

var errHalted = errors.New("lcd: halted")

// Dev is a handle to a TFT panel.
type Dev struct {
	s    serial.Interface
	name Controller
	ctrl controller
	opts Opts

	// rect is the drawing surface, native is the panel RAM window.
	rect   image.Rectangle
	native image.Rectangle

	buffer []byte      // packed frame as last written to RAM
	next   *image.RGBA // lazily allocated drawing surface

	halted bool
}

// New initializes the controller behind s.
func New(s serial.Interface, c Controller, opts *Opts) (*Dev, error) {
	ctrl, ok := controllers[c]
	if !ok {
		return nil, fmt.Errorf("lcd: unknown controller %q", c)
	}
	if opts == nil || opts.W <= 0 || opts.H <= 0 {
		return nil, errors.New("lcd: width and height are required")
	}
	if opts.Rotate < 0 || opts.Rotate > 3 {
		return nil, fmt.Errorf("lcd: rotation %d out of range", opts.Rotate)
	}
	d := &Dev{
		s:      s,
		name:   c,
		ctrl:   ctrl,
		opts:   *opts,
		native: image.Rect(0, 0, opts.W, opts.H),
		rect:   image.Rect(0, 0, opts.W, opts.H),
	}
	if opts.Rotate%2 == 1 {
		d.rect = image.Rect(0, 0, opts.H, opts.W)
	}
	d.buffer = make([]byte, ctrl.format.Len(opts.W, opts.H))
	if err := d.init(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Dev) init() error {
	if err := d.command(cmdSoftReset); err != nil {
		return err
	}
	sleep(150 * time.Millisecond)
	if err := d.command(cmdSleepOut); err != nil {
		return err
	}
	sleep(120 * time.Millisecond)
	for _, st := range d.ctrl.init {
		if err := d.command(st.cmd, st.args...); err != nil {
			return err
		}
		if st.delay > 0 {
			sleep(st.delay)
		}
	}
	madctl := d.ctrl.madctl
	if d.opts.BGR {
		madctl |= madctlBGR
	}
	if err := d.command(cmdMADCTL, madctl); err != nil {
		return err
	}
	if err := d.command(cmdPixelFormat, d.ctrl.colmod); err != nil {
		return err
	}
	if err := d.command(cmdNormalOn); err != nil {
		return err
	}
	// Blank RAM before turning the panel on.
	if err := d.writeRect(d.native, d.buffer); err != nil {
		return err
	}
	return d.command(cmdDisplayOn)
}

// command sends cmd with D/C low and its parameters as data.
func (d *Dev) command(cmd byte, args ...byte) error {
	if err := d.s.Command(cmd); err != nil {
		return err
	}
	if len(args) == 0 {
		return nil
	}
	return d.s.Data(args)
}

// writeRect sets the RAM window to r (native coordinates) and streams pixels.
func (d *Dev) writeRect(r image.Rectangle, pixels []byte) error {
	x0, x1 := r.Min.X+d.opts.HOffset, r.Max.X-1+d.opts.HOffset
	y0, y1 := r.Min.Y+d.opts.VOffset, r.Max.Y-1+d.opts.VOffset
	if err := d.command(cmdColumnAddr, byte(x0>>8), byte(x0), byte(x1>>8), byte(x1)); err != nil {
		return err
	}
	if err := d.command(cmdRowAddr, byte(y0>>8), byte(y0), byte(y1>>8), byte(y1)); err != nil {
		return err
	}
	if err := d.s.Command(cmdMemoryWrite); err != nil {
		return err
	}
	return d.s.Data(pixels)
}

// ColorModel returns the color model of the display.
func (d *Dev) ColorModel() color.Model { return color.RGBAModel }

// Bounds returns the drawing surface, rotated when Rotate is odd.
func (d *Dev) Bounds() image.Rectangle { return d.rect }

// Draw draws src onto the drawing surface and sends what changed.
func (d *Dev) Draw(dst image.Rectangle, src image.Image, sp image.Point) error {
	if d.halted {
		return errHalted
	}
	dst = dst.Intersect(d.rect)
	if dst.Empty() {
		return nil
	}
	if d.next == nil {
		d.next = image.NewRGBA(d.rect)
	}
	draw.Draw(d.next, dst, src, sp, draw.Src)

	frame := d.ctrl.format.Frame(d.toNative(d.next), d.opts.BGR)
	r, ok := d.diff(frame)
	if !ok {
		return nil
	}
	if err := d.writeRect(r, d.extract(frame, r)); err != nil {
		return err
	}
	copy(d.buffer, frame)
	return nil
}

// Display sends a full frame. img is aligned on the surface origin.
func (d *Dev) Display(img image.Image) error {
	return d.Draw(d.rect, img, img.Bounds().Min)
}

// Clear blanks the panel.
func (d *Dev) Clear() error {
	if d.halted {
		return errHalted
	}
	for i := range d.buffer {
		d.buffer[i] = 0
	}
	if d.next != nil {
		draw.Draw(d.next, d.rect, image.Black, image.Point{}, draw.Src)
	}
	return d.writeRect(d.native, d.buffer)
}

// Invert selects inverted (0x21) or normal (0x20) color mode.
func (d *Dev) Invert(invert bool) error {
	if d.halted {
		return errHalted
	}
	if invert {
		return d.command(cmdInvertOn)
	}
	return d.command(cmdInvertOff)
}

// Halt turns the panel off and puts the controller to sleep.
func (d *Dev) Halt() error {
	if d.halted {
		return nil
	}
	d.halted = true
	if err := d.command(cmdDisplayOff); err != nil {
		return err
	}
	return d.command(cmdSleepIn)
}

func (d *Dev) String() string {
	return fmt.Sprintf("lcd.Dev{%s, %dx%d}", d.name, d.native.Dx(), d.native.Dy())
}

// toNative turns the drawing surface into panel orientation.
func (d *Dev) toNative(img *image.RGBA) image.Image {
	switch d.opts.Rotate {
	case 1:
		return imaging.Rotate270(img)
	case 2:
		return imaging.Rotate180(img)
	case 3:
		return imaging.Rotate90(img)
	default:
		return img
	}
}

// diff returns the smallest native rectangle holding every pixel that
// differs between frame and the RAM copy.
func (d *Dev) diff(frame []byte) (image.Rectangle, bool) {
	w, h := d.native.Dx(), d.native.Dy()
	stride := d.ctrl.format.Stride(w)
	bpp := stride / w

	minRow, maxRow := h, -1
	minCol, maxCol := w, -1
	for y := 0; y < h; y++ {
		row := frame[y*stride : (y+1)*stride]
		old := d.buffer[y*stride : (y+1)*stride]
		if bytes.Equal(row, old) {
			continue
		}
		if y < minRow {
			minRow = y
		}
		maxRow = y
		for x := 0; x < w; x++ {
			if !bytes.Equal(row[x*bpp:(x+1)*bpp], old[x*bpp:(x+1)*bpp]) {
				if x < minCol {
					minCol = x
				}
				if x > maxCol {
					maxCol = x
				}
			}
		}
	}
	if maxRow < 0 {
		return image.Rectangle{}, false
	}
	return image.Rect(minCol, minRow, maxCol+1, maxRow+1), true
}

// extract copies the bytes of r out of a full frame.
func (d *Dev) extract(frame []byte, r image.Rectangle) []byte {
	stride := d.ctrl.format.Stride(d.native.Dx())
	bpp := stride / d.native.Dx()
	rowLen := r.Dx() * bpp
	out := make([]byte, 0, rowLen*r.Dy())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		start := y*stride + r.Min.X*bpp
		out = append(out, frame[start:start+rowLen]...)
	}
	return out
}

// sleep is replaced in tests.
var sleep = time.Sleep
