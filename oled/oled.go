// Package oled drives small OLED controllers over I²C or SPI.
//
// Two controllers are supported:
//
//   - SSD1306: 1-bit, 128x64 or 128x32, RAM organized in 8-pixel pages. The
//     frame is kept as an image1bit.VerticalLSB which matches the page layout
//     byte for byte.
//   - SSD1322: 4-bit grayscale, up to 480x128, 2 pixels per byte. Panels
//     narrower than 480 columns are centered in the controller RAM.
//
// A 180° rotation is done by the controller (segment and COM remap); quarter
// turns are done in software before packing.
package oled

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/disintegration/imaging"
	"periph.io/x/devices/v3/ssd1306/image1bit"

	"github.com/flavioheleno/dcore/pixfmt"
	"github.com/flavioheleno/dcore/serial"
)

// Controller selects the command set.
type Controller string

const (
	SSD1306 Controller = "ssd1306"
	SSD1322 Controller = "ssd1322"
)

// Commands common to both controllers.
const (
	cmdDisplayOff = 0xAE
	cmdDisplayOn  = 0xAF
	cmdNormal     = 0xA6
	cmdInverted   = 0xA7
)

// Opts is the configuration of a panel.
type Opts struct {
	W int
	H int

	// Rotate is the number of clockwise quarter turns applied to frames.
	Rotate int
}

var errHalted = errors.New("oled: halted")

// Dev is a handle to an OLED panel.
type Dev struct {
	s    serial.Interface
	name Controller

	rect   image.Rectangle // drawing surface
	native image.Rectangle
	rotate int

	columnOffset int // SSD1322 only

	buffer []byte // last frame written to RAM
	halted bool
}

// New validates opts and initializes the controller behind s.
func New(s serial.Interface, c Controller, opts *Opts) (*Dev, error) {
	if opts == nil {
		return nil, errors.New("oled: options are required")
	}
	if opts.Rotate < 0 || opts.Rotate > 3 {
		return nil, fmt.Errorf("oled: rotation %d out of range", opts.Rotate)
	}
	d := &Dev{
		s:      s,
		name:   c,
		native: image.Rect(0, 0, opts.W, opts.H),
		rect:   image.Rect(0, 0, opts.W, opts.H),
		rotate: opts.Rotate,
	}
	if opts.Rotate%2 == 1 {
		d.rect = image.Rect(0, 0, opts.H, opts.W)
	}
	var err error
	switch c {
	case SSD1306:
		if opts.W <= 0 || opts.W > 128 || (opts.H != 32 && opts.H != 64) {
			return nil, errors.New("oled: ssd1306 supports 128 columns and 32 or 64 rows")
		}
		d.buffer = make([]byte, opts.W*opts.H/8)
		err = d.initSSD1306()
	case SSD1322:
		if opts.W <= 0 || opts.W%2 != 0 || opts.W > 480 {
			return nil, errors.New("oled: ssd1322 width must be even and between 2 and 480")
		}
		if opts.H <= 0 || opts.H > 128 {
			return nil, errors.New("oled: ssd1322 height must be between 1 and 128")
		}
		d.columnOffset = (480 - opts.W) / 2
		d.buffer = make([]byte, pixfmt.Gray4Nibble.Len(opts.W, opts.H))
		err = d.initSSD1322()
	default:
		return nil, fmt.Errorf("oled: unknown controller %q", c)
	}
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Dev) initSSD1306() error {
	comPins := byte(0x12)
	if d.native.Dy() == 32 {
		comPins = 0x02
	}
	segRemap, comScan := byte(0xA1), byte(0xC8)
	if d.rotate == 2 {
		segRemap, comScan = 0xA0, 0xC0
	}
	cmds := []byte{
		cmdDisplayOff,
		0xD5, 0x80, // clock divider
		0xA8, byte(d.native.Dy() - 1), // multiplex ratio
		0xD3, 0x00, // display offset
		0x40,       // start line
		0x8D, 0x14, // charge pump
		0x20, 0x00, // horizontal addressing
		segRemap,
		comScan,
		0xDA, comPins,
		0x81, 0xCF, // contrast
		0xD9, 0xF1, // pre-charge
		0xDB, 0x40, // VCOMH
		0xA4, // resume to RAM content
		cmdNormal,
	}
	if err := d.s.Command(cmds...); err != nil {
		return err
	}
	if err := d.writeFrame(d.buffer); err != nil {
		return err
	}
	return d.s.Command(cmdDisplayOn)
}

func (d *Dev) initSSD1322() error {
	remap1, remap2 := byte(0x14), byte(0x11)
	if d.rotate == 2 {
		remap1 = 0x06
	}
	cmds := []byte{
		0xFD, 0x12, // unlock
		cmdDisplayOff,
		0xB3, 0xF2, // clock divider and oscillator frequency
		0xCA, byte(d.native.Dy() - 1), // MUX ratio
		0xA2, 0x00, // display offset
		0xA1, 0x00, // start line
		0xA0, remap1, remap2, // remap and dual COM mode
		0xAB, 0x01, // internal VDD
		0xB4, 0xA0, 0xFD, // VSL
		0xC1, 0xFF, // contrast
		0xC7, 0x0F, // master contrast
		0xB9,       // default grayscale table
		0xB1, 0xE2, // phase length
		0xD1, 0x82, 0x20, // display enhancement
		0xBB, 0x1F, // pre-charge voltage
		0xB6, 0x08, // second pre-charge period
		0xBE, 0x07, // VCOMH
		cmdNormal,
		0xA9, // exit partial display
	}
	if err := d.s.Command(cmds...); err != nil {
		return err
	}
	if err := d.writeFrame(d.buffer); err != nil {
		return err
	}
	return d.s.Command(cmdDisplayOn)
}

// writeFrame sets the full addressing window and sends pixels.
func (d *Dev) writeFrame(pixels []byte) error {
	var cmds []byte
	switch d.name {
	case SSD1306:
		cmds = []byte{
			0x21, 0, byte(d.native.Dx() - 1), // column address
			0x22, 0, byte(d.native.Dy()/8 - 1), // page address
		}
	default:
		colStart := byte(d.columnOffset / 4)
		colEnd := byte((d.columnOffset+d.native.Dx())/4 - 1)
		cmds = []byte{
			0x15, colStart, colEnd, // column address, 4 pixels per column
			0x75, 0, byte(d.native.Dy() - 1), // row address
			0x5C, // write RAM
		}
	}
	if err := d.s.Command(cmds...); err != nil {
		return err
	}
	return d.s.Data(pixels)
}

// ColorModel returns the color model of the display.
func (d *Dev) ColorModel() color.Model {
	if d.name == SSD1306 {
		return image1bit.BitModel
	}
	return pixfmt.Gray4Model
}

// Bounds returns the drawing surface.
func (d *Dev) Bounds() image.Rectangle { return d.rect }

// Display sends img, aligned on the surface origin. Frames identical to the
// one in RAM are not sent again.
func (d *Dev) Display(img image.Image) error {
	if d.halted {
		return errHalted
	}
	surface := image.NewRGBA(d.rect)
	draw.Draw(surface, d.rect, img, img.Bounds().Min, draw.Src)
	frame := d.pack(d.toNative(surface))
	if bytes.Equal(frame, d.buffer) {
		return nil
	}
	if err := d.writeFrame(frame); err != nil {
		return err
	}
	copy(d.buffer, frame)
	return nil
}

func (d *Dev) pack(img image.Image) []byte {
	if d.name == SSD1306 {
		bits := image1bit.NewVerticalLSB(d.native)
		draw.Draw(bits, d.native, img, img.Bounds().Min, draw.Src)
		return bits.Pix
	}
	return pixfmt.Gray4Nibble.Frame(img, false)
}

// toNative applies the software part of the rotation.
func (d *Dev) toNative(img *image.RGBA) image.Image {
	switch d.rotate {
	case 1:
		return imaging.Rotate270(img)
	case 3:
		return imaging.Rotate90(img)
	default:
		return img
	}
}

// Clear blanks the RAM.
func (d *Dev) Clear() error {
	if d.halted {
		return errHalted
	}
	for i := range d.buffer {
		d.buffer[i] = 0
	}
	return d.writeFrame(d.buffer)
}

// Invert inverts the display colors (black becomes white and vice versa).
func (d *Dev) Invert(invert bool) error {
	if d.halted {
		return errHalted
	}
	if invert {
		return d.s.Command(cmdInverted)
	}
	return d.s.Command(cmdNormal)
}

// SetContrast sets the display contrast (0-255).
func (d *Dev) SetContrast(level byte) error {
	if d.halted {
		return errHalted
	}
	if d.name == SSD1306 {
		return d.s.Command(0x81, level)
	}
	return d.s.Command(0xC1, level)
}

// Halt powers off the display. Further drawing fails.
func (d *Dev) Halt() error {
	if d.halted {
		return nil
	}
	d.halted = true
	return d.s.Command(cmdDisplayOff)
}

func (d *Dev) String() string {
	return fmt.Sprintf("oled.Dev{%s, %dx%d}", d.name, d.native.Dx(), d.native.Dy())
}
