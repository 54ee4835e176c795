// Package serial implements the command/data link between a display driver
// and its controller.
//
// Controllers distinguish commands from pixel data either with a control
// byte (I²C: 0x00 command, 0x40 data) or with a Data/Command GPIO line (4-wire
// SPI: low for commands, high for data). Drivers only see Interface and are
// indifferent to the bus underneath.
package serial

import (
	"fmt"
	"io"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"

	"github.com/flavioheleno/dcore/internal/errors"
)

// Interface is a command/data link to a display controller.
type Interface interface {
	fmt.Stringer
	// Command sends command bytes.
	Command(cmds ...byte) error
	// Data sends pixel or parameter data.
	Data(data []byte) error
	// Bus identifies the physical bus; links sharing it must not be used
	// concurrently.
	Bus() string
	// Close releases the bus.
	Close() error
}

// defaultMaxTx is used when the connection does not advertise a limit.
const defaultMaxTx = 4096

// resetHold is how long RESET is held low, then high, on SPI panels.
const resetHold = 10 * time.Millisecond

// sleep is replaced in tests.
var sleep = time.Sleep

func maxTxSize(c conn.Conn) int {
	if l, ok := c.(conn.Limits); ok {
		if n := l.MaxTxSize(); n > 0 {
			return n
		}
	}
	return defaultMaxTx
}

// SPI is a 4-wire SPI link: data and clock on the bus, D/C on a GPIO.
type SPI struct {
	c      conn.Conn
	dc     gpio.PinOut
	rst    gpio.PinOut
	closer io.Closer
	bus    string
	maxTx  int
}

// NewSPI wraps an already connected SPI conn. rst and closer may be nil.
// When rst is set the controller is hardware reset before NewSPI returns.
func NewSPI(c conn.Conn, dc, rst gpio.PinOut, bus string, closer io.Closer) (*SPI, error) {
	if c == nil || dc == nil {
		return nil, errors.New("serial: spi needs a connection and a DC pin")
	}
	s := &SPI{c: c, dc: dc, rst: rst, closer: closer, bus: bus, maxTx: maxTxSize(c)}
	if rst != nil {
		if err := s.Reset(); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// OpenSPI connects p at speedHz, Mode0, 8 bits and wraps it. The port is
// closed by Close.
func OpenSPI(p spi.PortCloser, speedHz int, dc, rst gpio.PinOut, bus string) (*SPI, error) {
	c, err := p.Connect(physic.Frequency(speedHz)*physic.Hertz, spi.Mode0, 8)
	if err != nil {
		_ = p.Close()
		return nil, errors.WrapPrefix(err, "serial: spi connect", 0)
	}
	s, err := NewSPI(c, dc, rst, bus, p)
	if err != nil {
		_ = p.Close()
		return nil, err
	}
	return s, nil
}

// Reset pulses the RESET line: low, hold, high, hold.
func (s *SPI) Reset() error {
	if s.rst == nil {
		return nil
	}
	if err := s.rst.Out(gpio.Low); err != nil {
		return errors.WrapPrefix(err, "serial: pull RST low", 0)
	}
	sleep(resetHold)
	if err := s.rst.Out(gpio.High); err != nil {
		return errors.WrapPrefix(err, "serial: pull RST high", 0)
	}
	sleep(resetHold)
	return nil
}

func (s *SPI) Command(cmds ...byte) error {
	if err := s.dc.Out(gpio.Low); err != nil {
		return err
	}
	return s.tx(cmds)
}

func (s *SPI) Data(data []byte) error {
	if err := s.dc.Out(gpio.High); err != nil {
		return err
	}
	return s.tx(data)
}

func (s *SPI) tx(b []byte) error {
	for len(b) > 0 {
		n := len(b)
		if n > s.maxTx {
			n = s.maxTx
		}
		if err := s.c.Tx(b[:n], nil); err != nil {
			return err
		}
		b = b[n:]
	}
	return nil
}

func (s *SPI) Bus() string { return s.bus }

func (s *SPI) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

func (s *SPI) String() string { return fmt.Sprintf("serial.SPI{%s}", s.c) }

// Control bytes prefixed to every I²C transfer.
const (
	i2cCommand = 0x00
	i2cData    = 0x40
)

// I2C is a link where each transfer starts with a control byte.
type I2C struct {
	c      conn.Conn
	closer io.Closer
	bus    string
	maxTx  int
}

// NewI2C wraps c, usually an *i2c.Dev bound to the controller address.
// closer may be nil.
func NewI2C(c conn.Conn, bus string, closer io.Closer) (*I2C, error) {
	if c == nil {
		return nil, errors.New("serial: i2c needs a connection")
	}
	return &I2C{c: c, closer: closer, bus: bus, maxTx: maxTxSize(c)}, nil
}

func (i *I2C) Command(cmds ...byte) error {
	return i.c.Tx(append([]byte{i2cCommand}, cmds...), nil)
}

func (i *I2C) Data(data []byte) error {
	// room for the control byte
	chunk := i.maxTx - 1
	buf := make([]byte, 0, chunk+1)
	for len(data) > 0 {
		n := len(data)
		if n > chunk {
			n = chunk
		}
		buf = append(buf[:0], i2cData)
		buf = append(buf, data[:n]...)
		if err := i.c.Tx(buf, nil); err != nil {
			return err
		}
		data = data[n:]
	}
	return nil
}

func (i *I2C) Bus() string { return i.bus }

func (i *I2C) Close() error {
	if i.closer == nil {
		return nil
	}
	return i.closer.Close()
}

func (i *I2C) String() string { return fmt.Sprintf("serial.I2C{%s}", i.c) }

// Recorder is an Interface that keeps every transfer in memory. It backs
// driver tests and dry runs.
type Recorder struct {
	Ops    []Op
	BusKey string
	Closed bool
	// Err, when set, is returned by every transfer.
	Err error
}

// Op is one recorded transfer.
type Op struct {
	Command bool
	Bytes   []byte
}

func (r *Recorder) Command(cmds ...byte) error {
	if r.Err != nil {
		return r.Err
	}
	r.Ops = append(r.Ops, Op{Command: true, Bytes: append([]byte(nil), cmds...)})
	return nil
}

func (r *Recorder) Data(data []byte) error {
	if r.Err != nil {
		return r.Err
	}
	r.Ops = append(r.Ops, Op{Bytes: append([]byte(nil), data...)})
	return nil
}

func (r *Recorder) Bus() string { return r.BusKey }

func (r *Recorder) Close() error {
	r.Closed = true
	return nil
}

func (r *Recorder) String() string { return "serial.Recorder" }

// Commands returns the recorded command bytes, concatenated.
func (r *Recorder) Commands() []byte {
	var out []byte
	for _, op := range r.Ops {
		if op.Command {
			out = append(out, op.Bytes...)
		}
	}
	return out
}

// Reset forgets the recorded transfers.
func (r *Recorder) Reset() { r.Ops = nil }

var (
	_ Interface = (*SPI)(nil)
	_ Interface = (*I2C)(nil)
	_ Interface = (*Recorder)(nil)
)
