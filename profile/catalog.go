package profile

import (
	"bytes"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/flavioheleno/dcore/internal/errors"
)

// Catalog maps profile keys to Specs. It is filled once at startup and only
// read afterwards.
type Catalog struct {
	specs map[string]Spec
}

// NewCatalog builds a catalog from specs. Keys are taken from the map.
func NewCatalog(specs map[string]Spec) *Catalog {
	c := &Catalog{specs: make(map[string]Spec, len(specs))}
	for k, s := range specs {
		s.Key = k
		c.specs[k] = s
	}
	return c
}

// Lookup returns a copy of the Spec registered under key.
func (c *Catalog) Lookup(key string) (Spec, bool) {
	if c == nil {
		return Spec{}, false
	}
	s, ok := c.specs[key]
	return s, ok
}

// Keys returns the profile keys in sorted order.
func (c *Catalog) Keys() []string {
	if c == nil {
		return nil
	}
	keys := make([]string, 0, len(c.specs))
	for k := range c.specs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of profiles.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.specs)
}

// WithOverlay returns a new catalog holding c's profiles plus the ones in
// extra; extra wins on duplicate keys. c is left untouched and may be nil.
func (c *Catalog) WithOverlay(extra map[string]Spec) *Catalog {
	merged := make(map[string]Spec, c.Len()+len(extra))
	if c != nil {
		for k, s := range c.specs {
			merged[k] = s
		}
	}
	for k, s := range extra {
		merged[k] = s
	}
	return NewCatalog(merged)
}

// LoadOverlay reads a YAML file of extra profiles and merges it over c.
//
// The file is a mapping of profile key to Spec fields:
//
//	my_oled:
//	  driver: oled
//	  model: ssd1306
//	  width: 128
//	  height: 32
//	  interface: i2c
//	  address: 0x3d
func (c *Catalog) LoadOverlay(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New(err)
	}
	extra := map[string]Spec{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&extra); err != nil {
		return nil, errors.WrapPrefix(err, "profile: "+path, 0)
	}
	return c.WithOverlay(extra), nil
}

// Default returns the built-in catalog.
func Default() *Catalog { return NewCatalog(builtin) }

var builtin = map[string]Spec{
	"waveshare_epd_2in13": {
		Family: FamilyEPD,
		Model:  "epd2in13v2",
		Width:  250,
		Height: 122,
		Mode:   Mode1,
		Pins:   Pins{CS: GPIO(8), DC: GPIO(25), Reset: GPIO(17), Busy: GPIO(24)},
		FPS:    1,
	},
	"luma_oled_128x64": {
		Family:    FamilyOLED,
		Model:     "ssd1306",
		Width:     128,
		Height:    64,
		Mode:      Mode1,
		Interface: I2C,
		Address:   0x3C,
	},
	"oled_ssd1322_256x64": {
		Family:    FamilyOLED,
		Model:     "ssd1322",
		Width:     256,
		Height:    64,
		Mode:      ModeL,
		Interface: SPI,
		SPI:       SPIBus{SpeedHz: 10000000},
		Pins:      Pins{DC: GPIO(25), Reset: GPIO(27)},
	},
	"luma_lcd_480x320": {
		Family:    FamilyLCD,
		Model:     "ili9486",
		Width:     480,
		Height:    320,
		Interface: SPI,
		Pins:      Pins{DC: GPIO(18), Reset: GPIO(25)},
	},
	"gamepi_1.5_lcd": {
		Family:    FamilyLCD,
		Model:     "st7789",
		Width:     240,
		Height:    240,
		Interface: SPI,
		SPI:       SPIBus{SpeedHz: 16000000},
		Pins:      Pins{DC: GPIO(25), Reset: GPIO(27), CS: GPIO(8), Backlight: GPIO(24)},
		FPS:       60,
	},
	"displayhatmini": {
		Family:    FamilyLCD,
		Model:     "st7789",
		Width:     320,
		Height:    240,
		Invert:    true,
		Interface: SPI,
		SPI:       SPIBus{Device: 1, SpeedHz: 60000000},
		Pins:      Pins{DC: GPIO(9), CS: GPIO(1), Backlight: GPIO(13)},
		FPS:       60,
		Mode:      ModeRGBA,
	},
	"waveshare_3.5_clone": {
		Family:    FamilyLCD,
		Model:     "ili9486",
		Width:     320,
		Height:    480,
		Rotate:    Rotate90,
		HFlip:     true,
		Interface: SPI,
		SPI:       SPIBus{SpeedHz: 16000000},
		Pins:      Pins{DC: GPIO(24), Reset: GPIO(25)},
		FPS:       60,
		Mode:      ModeRGB,
	},
}
