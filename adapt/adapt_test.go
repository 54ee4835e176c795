package adapt

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flavioheleno/dcore/device"
	"github.com/flavioheleno/dcore/profile"
)

var (
	red  = color.RGBA{0xFF, 0, 0, 0xFF}
	blue = color.RGBA{0, 0, 0xFF, 0xFF}
)

func opaque(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 0xFF
	}
	return img
}

func rgbAt(img image.Image, x, y int) color.RGBA {
	r, g, b, a := img.At(x, y).RGBA()
	return color.RGBA{uint8(r >> 8), uint8(g >> 8), uint8(b >> 8), uint8(a >> 8)}
}

func TestIdentity(t *testing.T) {
	src := opaque(320, 480)
	src.Set(10, 10, red)
	out, err := Adapt(src, Target{Size: image.Pt(320, 480), Mode: profile.ModeRGB})
	require.NoError(t, err)
	assert.Same(t, src, out)

	gray := image.NewGray(image.Rect(0, 0, 8, 8))
	out, err = Adapt(gray, Target{Size: image.Pt(8, 8), Mode: profile.ModeL})
	require.NoError(t, err)
	assert.Same(t, gray, out)
}

func TestRotateRefreshCycle(t *testing.T) {
	src := opaque(4, 2)
	src.Set(0, 0, red)

	out, err := Adapt(src, Target{
		Size:         image.Pt(2, 4),
		Rotate:       profile.Rotate90,
		Mode:         profile.ModeRGB,
		RefreshCycle: true,
	})
	require.NoError(t, err)
	assert.Equal(t, image.Pt(2, 4), out.Bounds().Size())
	// counter-clockwise: top-left goes to bottom-left
	assert.Equal(t, red, rgbAt(out, 0, 3))
}

func TestRotate180(t *testing.T) {
	src := opaque(2, 1)
	src.Set(0, 0, red)
	src.Set(1, 0, blue)

	out, err := Adapt(src, Target{Size: image.Pt(2, 1), Rotate: profile.Rotate180, Mode: profile.ModeRGB, RefreshCycle: true})
	require.NoError(t, err)
	assert.Equal(t, blue, rgbAt(out, 0, 0))
	assert.Equal(t, red, rgbAt(out, 1, 0))
}

func TestPixelAddressableIgnoresRotate(t *testing.T) {
	src := opaque(4, 2)
	out, err := Adapt(src, Target{Size: image.Pt(4, 2), Rotate: profile.Rotate90, Mode: profile.ModeRGB})
	require.NoError(t, err)
	assert.Same(t, src, out)
}

func TestMirror(t *testing.T) {
	src := opaque(2, 1)
	src.Set(0, 0, red)
	out, err := Adapt(src, Target{Size: image.Pt(2, 1), Mirror: true, Mode: profile.ModeRGB})
	require.NoError(t, err)
	assert.Equal(t, red, rgbAt(out, 1, 0))
	assert.NotEqual(t, red, rgbAt(out, 0, 0))
}

func TestResizeLandscapeToPortrait(t *testing.T) {
	src := opaque(480, 320)
	out, err := Adapt(src, Target{Size: image.Pt(320, 480), Mode: profile.ModeRGB})
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 320, 480), out.Bounds())
	_, ok := out.(*image.RGBA)
	assert.True(t, ok, "RGB frames are *image.RGBA, got %T", out)
}

func TestMonochromeTwoValues(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 300, 150))
	for y := 0; y < 150; y++ {
		for x := 0; x < 300; x++ {
			v := uint8(x * 255 / 299)
			src.Set(x, y, color.RGBA{v, uint8(y), 255 - v, 0xFF})
		}
	}
	out, err := Adapt(src, Target{
		Size:         image.Pt(250, 122),
		Mode:         profile.ModeRGB,
		RefreshCycle: true,
		Monochrome:   true,
	})
	require.NoError(t, err)
	p, ok := out.(*image.Paletted)
	require.True(t, ok, "got %T", out)
	assert.Equal(t, image.Rect(0, 0, 250, 122), p.Bounds())

	seen := map[uint8]bool{}
	for _, v := range p.Pix {
		seen[v] = true
	}
	assert.Len(t, seen, 2)
}

func TestUnsupportedColorMode(t *testing.T) {
	_, err := Adapt(opaque(2, 2), Target{Size: image.Pt(2, 2), Mode: "CMYK"})
	assert.ErrorIs(t, err, ErrUnsupportedColorMode)
}

func TestConvertModes(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	src.Set(0, 0, color.NRGBA{0xFF, 0xFF, 0xFF, 0x80})

	l, err := Convert(src, profile.ModeL)
	require.NoError(t, err)
	assert.IsType(t, &image.Gray{}, l)

	rgb, err := Convert(src, profile.ModeRGB)
	require.NoError(t, err)
	assert.True(t, rgb.(*image.RGBA).Opaque())

	rgba, err := Convert(src, profile.ModeRGBA)
	require.NoError(t, err)
	assert.Same(t, src, rgba)

	bw, err := Convert(src, profile.Mode1)
	require.NoError(t, err)
	again, err := Convert(bw, profile.Mode1)
	require.NoError(t, err)
	assert.Same(t, bw, again)
}

type recordingPacker struct{ got image.Image }

func (p *recordingPacker) Pack(img image.Image) (image.Image, error) {
	p.got = img
	return image.NewGray(image.Rect(0, 0, 1, 1)), nil
}

func TestPacker(t *testing.T) {
	pk := &recordingPacker{}
	out, err := Adapt(opaque(4, 4), Target{Size: image.Pt(2, 2), Mode: profile.Mode1, Packer: pk})
	require.NoError(t, err)
	assert.Equal(t, image.Pt(1, 1), out.Bounds().Size())
	require.NotNil(t, pk.got)
	assert.Equal(t, image.Pt(2, 2), pk.got.Bounds().Size())
}

func TestResamplers(t *testing.T) {
	src := opaque(64, 32)
	for _, name := range Resamplers() {
		t.Run(name, func(t *testing.T) {
			r, err := ResizerFor(name)
			require.NoError(t, err)
			out, err := r.Resize(src, image.Pt(16, 24))
			require.NoError(t, err)
			assert.Equal(t, image.Pt(16, 24), out.Bounds().Size())
		})
	}
	_, err := ResizerFor("")
	assert.NoError(t, err)
	_, err = ResizerFor("LANCZOS")
	assert.NoError(t, err)
	_, err = ResizerFor("sinc")
	assert.Error(t, err)
}

type fakeDev struct{ bounds image.Rectangle }

func (d *fakeDev) Bounds() image.Rectangle { return d.bounds }
func (d *fakeDev) Halt() error             { return nil }

type monoDev struct{ fakeDev }

func (d *monoDev) Monochrome() bool                          { return true }
func (d *monoDev) Pack(img image.Image) (image.Image, error) { return img, nil }

func TestTargetFor(t *testing.T) {
	lcd := profile.Spec{Width: 320, Height: 480, Rotate: profile.Rotate90, HFlip: true}
	h := device.NewHandle(lcd, device.PixelAddressable, &fakeDev{bounds: image.Rect(0, 0, 480, 320)}, "spi0", nil)
	tg, err := TargetFor(h)
	require.NoError(t, err)
	assert.Equal(t, image.Pt(480, 320), tg.Size)
	assert.False(t, tg.RefreshCycle)
	assert.True(t, tg.Mirror)
	assert.Equal(t, profile.ModeRGB, tg.Mode)

	epd := profile.Spec{Width: 250, Height: 122, Mode: profile.Mode1}
	h = device.NewHandle(epd, device.RefreshCycle, &monoDev{fakeDev{bounds: image.Rect(0, 0, 122, 250)}}, "spi0", nil)
	tg, err = TargetFor(h)
	require.NoError(t, err)
	assert.Equal(t, image.Pt(250, 122), tg.Size)
	assert.True(t, tg.RefreshCycle)
	assert.True(t, tg.Monochrome)
	assert.NotNil(t, tg.Packer)

	bad := profile.Spec{Width: 1, Height: 1, Resample: "sinc"}
	_, err = TargetFor(device.NewHandle(bad, device.PixelAddressable, &fakeDev{}, "spi0", nil))
	assert.Error(t, err)
}
