package device

import (
	"fmt"
	"sync"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"

	"github.com/flavioheleno/dcore/internal/errors"
)

// HostOpener opens buses and pins through the periph host drivers.
// host.Init runs on first use.
type HostOpener struct {
	once sync.Once
	err  error
}

func (h *HostOpener) init() error {
	h.once.Do(func() {
		if _, err := host.Init(); err != nil {
			h.err = errors.WrapPrefix(err, "device: periph host init", 0)
		}
	})
	return h.err
}

// SPI opens /dev/spidev<port>.<device>.
func (h *HostOpener) SPI(port, device int) (spi.PortCloser, error) {
	if err := h.init(); err != nil {
		return nil, err
	}
	p, err := spireg.Open(fmt.Sprintf("SPI%d.%d", port, device))
	if err != nil {
		return nil, errors.WrapPrefix(err, fmt.Sprintf("device: open SPI%d.%d", port, device), 0)
	}
	return p, nil
}

// I2C opens the named bus, the first one when name is empty.
func (h *HostOpener) I2C(name string) (i2c.BusCloser, error) {
	if err := h.init(); err != nil {
		return nil, err
	}
	b, err := i2creg.Open(name)
	if err != nil {
		return nil, errors.WrapPrefix(err, "device: open I²C bus", 0)
	}
	return b, nil
}

// Pin returns GPIO<bcm>.
func (h *HostOpener) Pin(bcm int) (gpio.PinIO, error) {
	if err := h.init(); err != nil {
		return nil, err
	}
	p := gpioreg.ByName(fmt.Sprintf("GPIO%d", bcm))
	if p == nil {
		return nil, errors.Errorf("device: GPIO%d not found", bcm)
	}
	return p, nil
}

var _ BusOpener = (*HostOpener)(nil)
