package lcd

import (
	"bytes"
	"image"
	"image/color"
	"testing"
	"time"

	"github.com/flavioheleno/dcore/serial"
)

func init() {
	sleep = func(time.Duration) {}
}

func newDev(t *testing.T, c Controller, opts *Opts) (*Dev, *serial.Recorder) {
	t.Helper()
	rec := &serial.Recorder{BusKey: "spi0"}
	d, err := New(rec, c, opts)
	if err != nil {
		t.Fatalf("New() = %v", err)
	}
	rec.Reset()
	return d, rec
}

func TestNewValidation(t *testing.T) {
	tests := []struct {
		name    string
		c       Controller
		opts    *Opts
		wantErr bool
	}{
		{"st7789", ST7789, &Opts{W: 240, H: 240}, false},
		{"ili9486 rotated", ILI9486, &Opts{W: 320, H: 480, Rotate: 1}, false},
		{"nil opts", ST7789, nil, true},
		{"zero width", ST7789, &Opts{H: 10}, true},
		{"bad rotation", ST7789, &Opts{W: 10, H: 10, Rotate: 4}, true},
		{"unknown controller", Controller("hx8357"), &Opts{W: 10, H: 10}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(&serial.Recorder{}, tt.c, tt.opts)
			if (err != nil) != tt.wantErr {
				t.Errorf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestInitSequence(t *testing.T) {
	rec := &serial.Recorder{}
	if _, err := New(rec, ST7789, &Opts{W: 4, H: 2, BGR: true}); err != nil {
		t.Fatal(err)
	}
	cmds := rec.Commands()
	if cmds[0] != cmdSoftReset || cmds[1] != cmdSleepOut {
		t.Errorf("init starts with % X, want reset then sleep out", cmds[:2])
	}
	if cmds[len(cmds)-1] != cmdDisplayOn {
		t.Errorf("init ends with %#x, want display on", cmds[len(cmds)-1])
	}
	// MADCTL parameter carries the BGR bit.
	for i, op := range rec.Ops {
		if op.Command && op.Bytes[0] == cmdMADCTL {
			if got := rec.Ops[i+1].Bytes[0]; got != madctlBGR {
				t.Errorf("MADCTL = %#x, want %#x", got, madctlBGR)
			}
		}
	}
}

func TestBoundsRotation(t *testing.T) {
	d, _ := newDev(t, ILI9486, &Opts{W: 320, H: 480, Rotate: 1})
	if got, want := d.Bounds(), image.Rect(0, 0, 480, 320); got != want {
		t.Errorf("Bounds() = %v, want %v", got, want)
	}
	if d.ColorModel() != color.RGBAModel {
		t.Error("ColorModel() should be RGBA")
	}
}

func TestDrawDifferential(t *testing.T) {
	d, rec := newDev(t, ST7789, &Opts{W: 8, H: 4, HOffset: 80})

	img := image.NewRGBA(d.Bounds())
	img.Set(2, 1, color.RGBA{0xFF, 0, 0, 0xFF})
	img.Set(5, 2, color.RGBA{0, 0, 0xFF, 0xFF})
	if err := d.Display(img); err != nil {
		t.Fatal(err)
	}

	// CASET with the 80px offset: columns 82..85, RASET rows 1..2.
	wantOps := []serial.Op{
		{Command: true, Bytes: []byte{cmdColumnAddr}},
		{Bytes: []byte{0, 82, 0, 85}},
		{Command: true, Bytes: []byte{cmdRowAddr}},
		{Bytes: []byte{0, 1, 0, 2}},
		{Command: true, Bytes: []byte{cmdMemoryWrite}},
	}
	if len(rec.Ops) != len(wantOps)+1 {
		t.Fatalf("got %d ops, want %d", len(rec.Ops), len(wantOps)+1)
	}
	for i, w := range wantOps {
		if rec.Ops[i].Command != w.Command || !bytes.Equal(rec.Ops[i].Bytes, w.Bytes) {
			t.Errorf("op %d = %+v, want %+v", i, rec.Ops[i], w)
		}
	}
	// 4x2 window, 2 bytes per pixel
	if n := len(rec.Ops[5].Bytes); n != 16 {
		t.Errorf("pixel payload = %d bytes, want 16", n)
	}

	// Same frame again: nothing to send.
	rec.Reset()
	if err := d.Display(img); err != nil {
		t.Fatal(err)
	}
	if len(rec.Ops) != 0 {
		t.Errorf("unchanged frame sent %d ops", len(rec.Ops))
	}
}

func TestClearAndInvert(t *testing.T) {
	d, rec := newDev(t, ST7789, &Opts{W: 2, H: 2})
	if err := d.Clear(); err != nil {
		t.Fatal(err)
	}
	if n := len(rec.Ops[len(rec.Ops)-1].Bytes); n != 8 {
		t.Errorf("clear payload = %d bytes, want 8", n)
	}
	rec.Reset()
	if err := d.Invert(true); err != nil {
		t.Fatal(err)
	}
	if err := d.Invert(false); err != nil {
		t.Fatal(err)
	}
	if got := rec.Commands(); !bytes.Equal(got, []byte{cmdInvertOn, cmdInvertOff}) {
		t.Errorf("commands = % X, want 21 20", got)
	}
}

func TestHalted(t *testing.T) {
	d, rec := newDev(t, ILI9486, &Opts{W: 4, H: 4})
	if err := d.Halt(); err != nil {
		t.Fatal(err)
	}
	if got := rec.Commands(); !bytes.Equal(got, []byte{cmdDisplayOff, cmdSleepIn}) {
		t.Errorf("halt commands = % X", got)
	}
	if err := d.Halt(); err != nil {
		t.Error("second Halt should be a no-op")
	}
	if err := d.Display(image.NewRGBA(d.Bounds())); err == nil {
		t.Error("Display should fail when halted")
	}
	if err := d.Clear(); err == nil {
		t.Error("Clear should fail when halted")
	}
	if err := d.Invert(true); err == nil {
		t.Error("Invert should fail when halted")
	}
}

func TestRotatedPixelLands(t *testing.T) {
	// 2x4 panel rotated a quarter turn: surface is 4x2.
	d, rec := newDev(t, ILI9486, &Opts{W: 2, H: 4, Rotate: 1})
	img := image.NewRGBA(d.Bounds())
	// top-left of the surface ends up top-right of the panel
	img.Set(0, 0, color.RGBA{0xFF, 0xFF, 0xFF, 0xFF})
	if err := d.Display(img); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(rec.Ops[1].Bytes, []byte{0, 1, 0, 1}) {
		t.Errorf("column window = % X, want 00 01 00 01", rec.Ops[1].Bytes)
	}
	if !bytes.Equal(rec.Ops[3].Bytes, []byte{0, 0, 0, 0}) {
		t.Errorf("row window = % X, want 00 00 00 00", rec.Ops[3].Bytes)
	}
}

func TestString(t *testing.T) {
	d, _ := newDev(t, ST7789, &Opts{W: 240, H: 240})
	if got, want := d.String(), "lcd.Dev{st7789, 240x240}"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
