package device

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"io"
	"strconv"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/spi"

	"github.com/flavioheleno/dcore/epaper"
	"github.com/flavioheleno/dcore/internal/errors"
	"github.com/flavioheleno/dcore/internal/logx"
	"github.com/flavioheleno/dcore/lcd"
	"github.com/flavioheleno/dcore/oled"
	"github.com/flavioheleno/dcore/profile"
	"github.com/flavioheleno/dcore/serial"
)

// UnsupportedKind classifies UnsupportedError.
type UnsupportedKind int

const (
	UnsupportedDriver UnsupportedKind = iota
	UnsupportedInterface
	UnsupportedDisplayProfile
)

func (k UnsupportedKind) String() string {
	switch k {
	case UnsupportedDriver:
		return "unsupported driver"
	case UnsupportedInterface:
		return "unsupported interface"
	default:
		return "unsupported display profile"
	}
}

// UnsupportedError is returned when a profile names something no driver
// can handle. Field is the offending profile field.
type UnsupportedError struct {
	Kind  UnsupportedKind
	Field string
	Value string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("%s: %s %q", e.Kind, e.Field, e.Value)
}

// BusOpener hands out the buses and pins drivers are built on.
type BusOpener interface {
	SPI(port, device int) (spi.PortCloser, error)
	I2C(bus string) (i2c.BusCloser, error)
	Pin(bcm int) (gpio.PinIO, error)
}

// Driver builds the device object of one model. The returned closer, if
// any, is closed after the device is halted.
type Driver struct {
	Family     profile.Family
	Kind       Kind
	Interfaces []profile.Interface // first is the default
	New        func(spec profile.Spec, o BusOpener, bus string) (Device, io.Closer, error)
}

func (d Driver) supports(i profile.Interface) bool {
	for _, s := range d.Interfaces {
		if s == i {
			return true
		}
	}
	return false
}

var drivers = map[string]Driver{
	"epd2in13v2": {
		Family:     profile.FamilyEPD,
		Kind:       RefreshCycle,
		Interfaces: []profile.Interface{profile.SPI},
		New:        newWaveshare,
	},
	"ssd1306": {
		Family:     profile.FamilyOLED,
		Kind:       PixelAddressable,
		Interfaces: []profile.Interface{profile.I2C, profile.SPI},
		New:        newOLED(oled.SSD1306),
	},
	"ssd1322": {
		Family:     profile.FamilyOLED,
		Kind:       PixelAddressable,
		Interfaces: []profile.Interface{profile.SPI},
		New:        newOLED(oled.SSD1322),
	},
	"st7789": {
		Family:     profile.FamilyLCD,
		Kind:       PixelAddressable,
		Interfaces: []profile.Interface{profile.SPI},
		New:        newLCD(lcd.ST7789),
	},
	"ili9486": {
		Family:     profile.FamilyLCD,
		Kind:       PixelAddressable,
		Interfaces: []profile.Interface{profile.SPI},
		New:        newLCD(lcd.ILI9486),
	},
}

type options struct {
	drivers map[string]Driver
	logger  logx.LoggerProvider
}

// Option configures Open.
type Option func(*options)

// WithDriver registers d for model, replacing a built-in one.
func WithDriver(model string, d Driver) Option {
	return func(o *options) { o.drivers[model] = d }
}

// WithLogger sets the logger used while initializing.
func WithLogger(l logx.LoggerProvider) Option {
	return func(o *options) { o.logger = l }
}

// backlightHold is how long the backlight stays low on power-up.
const backlightHold = 100 * time.Millisecond

// sleep is replaced in tests.
var sleep = time.Sleep

// Open builds and initializes the panel described by spec.
func Open(spec profile.Spec, o BusOpener, opts ...Option) (*Handle, error) {
	cfg := options{drivers: make(map[string]Driver, len(drivers))}
	for k, d := range drivers {
		cfg.drivers[k] = d
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	switch spec.Family {
	case profile.FamilyEPD, profile.FamilyOLED, profile.FamilyLCD:
	default:
		return nil, &UnsupportedError{Kind: UnsupportedDriver, Field: "driver", Value: string(spec.Family)}
	}
	drv, ok := cfg.drivers[spec.Model]
	if !ok || drv.Family != spec.Family {
		return nil, &UnsupportedError{Kind: UnsupportedDriver, Field: "model", Value: spec.Model}
	}
	if spec.Interface == "" && len(drv.Interfaces) > 0 {
		spec.Interface = drv.Interfaces[0]
	}
	if !drv.supports(spec.Interface) {
		return nil, &UnsupportedError{Kind: UnsupportedInterface, Field: "interface", Value: string(spec.Interface)}
	}
	if !spec.Rotate.Valid() {
		return nil, &UnsupportedError{Kind: UnsupportedDisplayProfile, Field: "rotate", Value: strconv.Itoa(int(spec.Rotate))}
	}
	if spec.Width <= 0 || spec.Height <= 0 {
		return nil, &UnsupportedError{Kind: UnsupportedDisplayProfile, Field: "width", Value: fmt.Sprintf("%dx%d", spec.Width, spec.Height)}
	}

	bus := BusKey(spec)
	dev, closer, err := drv.New(spec, o, bus)
	if err != nil {
		return nil, err
	}
	fail := func(err error) (*Handle, error) {
		_ = dev.Halt()
		if closer != nil {
			_ = closer.Close()
		}
		return nil, err
	}

	switch drv.Kind {
	case RefreshCycle:
		if err := initRefreshCycle(dev); err != nil {
			return fail(err)
		}
	default:
		if bl, ok := spec.Pins.Backlight.BCM(); ok {
			pin, err := o.Pin(bl)
			if err != nil {
				return fail(err)
			}
			if err := pulseBacklight(pin); err != nil {
				return fail(err)
			}
		}
		if inv, ok := dev.(Inverter); ok {
			if err := inv.Invert(spec.Invert); err != nil {
				return fail(errors.WrapPrefix(err, "device: color order", 0))
			}
		}
	}

	h := NewHandle(spec, drv.Kind, dev, bus, closer)
	logx.Info("display initialized", cfg.logger,
		"profile", spec.Key, "model", spec.Model, "kind", drv.Kind, "bus", bus)
	return h, nil
}

// BusKey names the physical bus of spec. SPI devices on the same port share
// clock and data lines whatever their chip select.
func BusKey(spec profile.Spec) string {
	switch spec.Interface {
	case profile.I2C:
		if spec.I2CBus == "" {
			return "i2c"
		}
		return "i2c:" + spec.I2CBus
	default:
		return fmt.Sprintf("spi%d", spec.SPI.Port)
	}
}

// initRefreshCycle runs full init, clear, then partial mode when the panel
// has both modes; otherwise a single init and an optional prime.
func initRefreshCycle(dev Device) error {
	if m, ok := dev.(UpdateModer); ok {
		if err := m.SetUpdateMode(false); err != nil {
			return err
		}
		if i, ok := dev.(Initializer); ok {
			if err := i.Init(); err != nil {
				return err
			}
		}
		if c, ok := dev.(FullClearer); ok {
			if err := c.ClearFull(); err != nil {
				return err
			}
		}
		return m.SetUpdateMode(true)
	}
	if i, ok := dev.(Initializer); ok {
		if err := i.Init(); err != nil {
			return err
		}
	}
	if p, ok := dev.(Primer); ok {
		blank := image.NewGray(dev.Bounds())
		draw.Draw(blank, blank.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
		if err := p.Prime(blank); err != nil {
			return err
		}
	}
	return nil
}

func pulseBacklight(pin gpio.PinOut) error {
	if err := pin.Out(gpio.Low); err != nil {
		return errors.WrapPrefix(err, "device: backlight low", 0)
	}
	sleep(backlightHold)
	if err := pin.Out(gpio.High); err != nil {
		return errors.WrapPrefix(err, "device: backlight high", 0)
	}
	return nil
}

func newWaveshare(spec profile.Spec, o BusOpener, _ string) (Device, io.Closer, error) {
	port, err := o.SPI(spec.SPI.Port, spec.SPI.Device)
	if err != nil {
		return nil, nil, err
	}
	d, err := epaper.Open2in13v2(port)
	if err != nil {
		_ = port.Close()
		return nil, nil, err
	}
	// Halt closes the port.
	return d, nil, nil
}

// openSerial builds the command/data link declared by spec.
func openSerial(spec profile.Spec, o BusOpener, bus string) (serial.Interface, error) {
	if spec.Interface == profile.I2C {
		b, err := o.I2C(spec.I2CBus)
		if err != nil {
			return nil, err
		}
		s, err := serial.NewI2C(&i2c.Dev{Bus: b, Addr: spec.I2CAddress()}, bus, b)
		if err != nil {
			_ = b.Close()
			return nil, err
		}
		return s, nil
	}

	dcLine, ok := spec.Pins.DC.BCM()
	if !ok {
		return nil, &UnsupportedError{Kind: UnsupportedDisplayProfile, Field: "pins.dc", Value: spec.Pins.DC.String()}
	}
	dc, err := o.Pin(dcLine)
	if err != nil {
		return nil, err
	}
	var rst gpio.PinOut
	if rstLine, ok := spec.Pins.Reset.BCM(); ok {
		p, err := o.Pin(rstLine)
		if err != nil {
			return nil, err
		}
		rst = p
	}
	port, err := o.SPI(spec.SPI.Port, spec.SPI.Device)
	if err != nil {
		return nil, err
	}
	return serial.OpenSPI(port, spec.SPISpeedHz(), dc, rst, bus)
}

func newOLED(c oled.Controller) func(profile.Spec, BusOpener, string) (Device, io.Closer, error) {
	return func(spec profile.Spec, o BusOpener, bus string) (Device, io.Closer, error) {
		s, err := openSerial(spec, o, bus)
		if err != nil {
			return nil, nil, err
		}
		d, err := oled.New(s, c, &oled.Opts{W: spec.Width, H: spec.Height, Rotate: int(spec.Rotate)})
		if err != nil {
			_ = s.Close()
			return nil, nil, err
		}
		return d, s, nil
	}
}

func newLCD(c lcd.Controller) func(profile.Spec, BusOpener, string) (Device, io.Closer, error) {
	return func(spec profile.Spec, o BusOpener, bus string) (Device, io.Closer, error) {
		s, err := openSerial(spec, o, bus)
		if err != nil {
			return nil, nil, err
		}
		d, err := lcd.New(s, c, &lcd.Opts{
			W:       spec.Width,
			H:       spec.Height,
			Rotate:  int(spec.Rotate),
			HOffset: spec.HOffset,
			VOffset: spec.VOffset,
			BGR:     spec.BGR,
		})
		if err != nil {
			_ = s.Close()
			return nil, nil, err
		}
		return d, s, nil
	}
}
