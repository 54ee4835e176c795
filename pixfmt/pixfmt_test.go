package pixfmt

import (
	"image"
	"image/color"
	"testing"
)

func TestGray4RGBA(t *testing.T) {
	tests := []struct {
		name string
		gray Gray4
		want uint32
	}{
		{"black", Gray4{Y: 0}, 0x0000},
		{"dark gray", Gray4{Y: 5}, 0x5555},
		{"white", Gray4{Y: 15}, 0xFFFF},
		{"mask ignored", Gray4{Y: 0x5F}, 0xFFFF},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, g, b, a := tt.gray.RGBA()
			if r != tt.want || g != tt.want || b != tt.want || a != 0xFFFF {
				t.Errorf("RGBA() = (%x, %x, %x, %x), want %x", r, g, b, a, tt.want)
			}
		})
	}
}

func TestGray4ModelConvert(t *testing.T) {
	tests := []struct {
		name  string
		input color.Color
		want  uint8
	}{
		{"passthrough", Gray4{Y: 7}, 7},
		{"black", color.Black, 0},
		{"white", color.White, 15},
		{"gray rgb", color.RGBA{0x88, 0x88, 0x88, 0xFF}, 8},
		{"pure red", color.RGBA{0xFF, 0x00, 0x00, 0xFF}, 4},
		{"gray16", color.Gray16{Y: 0x8000}, 8},
		{"nrgba", color.NRGBA{0xFF, 0xFF, 0xFF, 0xFF}, 15},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Gray4Model.Convert(tt.input).(Gray4); got.Y != tt.want {
				t.Errorf("Convert(%v).Y = %d, want %d", tt.input, got.Y, tt.want)
			}
		})
	}
}

func TestStride(t *testing.T) {
	tests := []struct {
		f     Format
		width int
		want  int
	}{
		{Gray4Nibble, 256, 128},
		{Gray4Nibble, 3, 2},
		{RGB565, 240, 480},
		{RGB666, 320, 960},
	}
	for _, tt := range tests {
		if got := tt.f.Stride(tt.width); got != tt.want {
			t.Errorf("%s.Stride(%d) = %d, want %d", tt.f, tt.width, got, tt.want)
		}
	}
	if got := RGB565.Len(240, 240); got != 240*240*2 {
		t.Errorf("Len = %d", got)
	}
}

func TestGray4NibblePacking(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 4, 1))
	for x, v := range []uint8{5, 10, 3, 12} {
		img.SetGray(x, 0, color.Gray{Y: v * 0x11})
	}
	buf := Gray4Nibble.Frame(img, false)
	if len(buf) != 2 {
		t.Fatalf("len = %d, want 2", len(buf))
	}
	// high nibble = even x, low nibble = odd x
	if buf[0] != 0x5A || buf[1] != 0x3C {
		t.Errorf("buf = % X, want 5A 3C", buf)
	}
}

func TestRGB565(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 3, 1))
	img.Set(0, 0, color.RGBA{0xFF, 0, 0, 0xFF})
	img.Set(1, 0, color.RGBA{0, 0xFF, 0, 0xFF})
	img.Set(2, 0, color.RGBA{0, 0, 0xFF, 0xFF})

	got := RGB565.Frame(img, false)
	want := []byte{0xF8, 0x00, 0x07, 0xE0, 0x00, 0x1F}
	if string(got) != string(want) {
		t.Errorf("RGB565 = % X, want % X", got, want)
	}

	got = RGB565.Frame(img, true)
	want = []byte{0x00, 0x1F, 0x07, 0xE0, 0xF8, 0x00}
	if string(got) != string(want) {
		t.Errorf("RGB565 bgr = % X, want % X", got, want)
	}
}

func TestRGB666SubRect(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	img.Set(2, 3, color.NRGBA{0xFF, 0x81, 0x03, 0xFF})
	r := image.Rect(2, 3, 3, 4)
	buf := make([]byte, RGB666.Len(r.Dx(), r.Dy()))
	RGB666.Pack(buf, img, r, false)
	want := []byte{0xFC, 0x80, 0x00}
	if string(buf) != string(want) {
		t.Errorf("RGB666 = % X, want % X", buf, want)
	}
}
