// Package profile describes display hardware: the immutable Spec of a panel
// and the read-only Catalog of named profiles that screens refer to.
package profile

import (
	"fmt"
	"image"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/flavioheleno/dcore/internal/errors"
)

// Family tags the driver family of a panel.
type Family string

const (
	// FamilyEPD is a refresh-cycle e-paper panel.
	FamilyEPD Family = "epd"
	// FamilyOLED is a pixel-addressable OLED panel.
	FamilyOLED Family = "oled"
	// FamilyLCD is a pixel-addressable TFT panel.
	FamilyLCD Family = "lcd"
)

// Interface is the bus a panel is attached to.
type Interface string

const (
	I2C Interface = "i2c"
	SPI Interface = "spi"
)

// ColorMode is the pixel format the panel expects, named after the usual
// raster mode strings.
type ColorMode string

const (
	Mode1    ColorMode = "1"
	ModeL    ColorMode = "L"
	ModeRGB  ColorMode = "RGB"
	ModeRGBA ColorMode = "RGBA"
)

// Rotation is a number of quarter turns. Refresh-cycle frames are turned
// counter-clockwise before they reach the panel; pixel-addressable drivers
// turn their output clockwise, as the controllers' scan direction does.
type Rotation int

const (
	NoRotation Rotation = iota
	Rotate90
	Rotate180
	Rotate270
)

// Valid reports whether r is one of the four quarter turns.
func (r Rotation) Valid() bool { return r >= NoRotation && r <= Rotate270 }

// Odd reports whether r swaps width and height.
func (r Rotation) Odd() bool { return r == Rotate90 || r == Rotate270 }

// Degrees returns the angle of r.
func (r Rotation) Degrees() int { return int(r) * 90 }

// DefaultFPS is used when a profile does not declare a frame rate.
const DefaultFPS = 30

// Default bus parameters.
const (
	DefaultI2CAddress = 0x3C
	DefaultSPISpeedHz = 8000000
)

// Pin is a BCM GPIO line. The zero Pin is unset, which keeps GPIO0 usable.
type Pin struct {
	n   int
	set bool
}

// GPIO returns the pin for BCM line n.
func GPIO(n int) Pin { return Pin{n: n, set: true} }

// BCM returns the line number and whether the pin was declared.
func (p Pin) BCM() (int, bool) { return p.n, p.set }

func (p Pin) String() string {
	if !p.set {
		return "unset"
	}
	return fmt.Sprintf("GPIO%d", p.n)
}

// UnmarshalYAML reads a BCM number. A null value leaves the pin unset.
func (p *Pin) UnmarshalYAML(value *yaml.Node) error {
	var n int
	if err := value.Decode(&n); err != nil {
		return err
	}
	if n < 0 {
		return errors.Errorf("profile: line %d: negative GPIO %d", value.Line, n)
	}
	*p = GPIO(n)
	return nil
}

// Pins lists the GPIO lines of a panel.
type Pins struct {
	DC        Pin `yaml:"dc"`
	Reset     Pin `yaml:"reset"`
	CS        Pin `yaml:"cs"`
	Busy      Pin `yaml:"busy"`
	Backlight Pin `yaml:"backlight"`
}

// SPIBus holds the SPI parameters of a panel.
type SPIBus struct {
	Port    int `yaml:"port"`
	Device  int `yaml:"device"`
	SpeedHz int `yaml:"speed_hz"`
}

// Spec is the hardware profile of one panel. It is loaded once and never
// mutated; Catalog hands out copies.
type Spec struct {
	Key       string    `yaml:"-"`
	Family    Family    `yaml:"driver"`
	Model     string    `yaml:"model"`
	Width     int       `yaml:"width"`
	Height    int       `yaml:"height"`
	Rotate    Rotation  `yaml:"rotate"`
	Mode      ColorMode `yaml:"mode"`
	BGR       bool      `yaml:"bgr"`
	Invert    bool      `yaml:"invert"`
	Inverse   bool      `yaml:"inverse"`
	HFlip     bool      `yaml:"horizontal_flip"`
	HOffset   int       `yaml:"h_offset"`
	VOffset   int       `yaml:"v_offset"`
	Interface Interface `yaml:"interface"`
	Address   uint16    `yaml:"address"`
	I2CBus    string    `yaml:"i2c_bus"`
	SPI       SPIBus    `yaml:"spi"`
	Pins      Pins      `yaml:"pins"`
	FPS       int       `yaml:"fps"`
	Resample  string    `yaml:"resample"`
}

// Size returns the native panel size.
func (s Spec) Size() image.Point { return image.Pt(s.Width, s.Height) }

// LogicalSize returns the size of the drawing surface once the rotation is
// applied, i.e. width and height swapped for odd quarter turns.
func (s Spec) LogicalSize() image.Point {
	if s.Rotate.Odd() {
		return image.Pt(s.Height, s.Width)
	}
	return s.Size()
}

// ColorMode returns the declared mode, RGB when unset.
func (s Spec) ColorMode() ColorMode {
	if s.Mode == "" {
		return ModeRGB
	}
	return s.Mode
}

// Interval returns the delay between two frames.
func (s Spec) Interval() time.Duration {
	fps := s.FPS
	if fps <= 0 {
		fps = DefaultFPS
	}
	return time.Second / time.Duration(fps)
}

// Mirrored reports whether frames must be flipped left to right.
func (s Spec) Mirrored() bool { return s.Inverse || s.HFlip }

// RefreshCycle reports whether the panel belongs to the e-paper family.
func (s Spec) RefreshCycle() bool { return s.Family == FamilyEPD }

// I2CAddress returns the declared address or the common 0x3C default.
func (s Spec) I2CAddress() uint16 {
	if s.Address == 0 {
		return DefaultI2CAddress
	}
	return s.Address
}

// SPISpeedHz returns the declared clock or 8MHz.
func (s Spec) SPISpeedHz() int {
	if s.SPI.SpeedHz <= 0 {
		return DefaultSPISpeedHz
	}
	return s.SPI.SpeedHz
}

func (s Spec) String() string {
	return fmt.Sprintf("%s{%s/%s %dx%d}", s.Key, s.Family, s.Model, s.Width, s.Height)
}
