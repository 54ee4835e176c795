// Package adapt turns an arbitrary source frame into a frame a panel can
// show: mirror, rotate, resize, color-mode conversion, then the driver's
// native packing.
package adapt

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/disintegration/imaging"

	"github.com/flavioheleno/dcore/device"
	"github.com/flavioheleno/dcore/internal/errors"
	"github.com/flavioheleno/dcore/profile"
)

// ErrUnsupportedColorMode is returned for modes the adapter cannot produce.
var ErrUnsupportedColorMode = errors.New("adapt: unsupported color mode")

// Target describes the frame a panel expects.
type Target struct {
	// Size is the frame size after rotation.
	Size image.Point
	// Rotate is applied only to refresh-cycle targets; pixel-addressable
	// drivers rotate on their own.
	Rotate       profile.Rotation
	Mirror       bool
	Mode         profile.ColorMode
	RefreshCycle bool
	Monochrome   bool
	// Resizer defaults to Lanczos when nil.
	Resizer Resizer
	// Packer, when set, produces the final native buffer.
	Packer device.Packer
}

// TargetFor derives the target of an opened panel.
func TargetFor(h *device.Handle) (Target, error) {
	spec := h.Spec()
	r, err := ResizerFor(spec.Resample)
	if err != nil {
		return Target{}, err
	}
	t := Target{
		Mirror:     spec.Mirrored(),
		Mode:       spec.ColorMode(),
		Monochrome: h.Monochrome(),
		Resizer:    r,
		Packer:     h.Packer(),
	}
	if h.Kind() == device.RefreshCycle {
		t.RefreshCycle = true
		t.Rotate = spec.Rotate
		t.Size = spec.Size()
	} else {
		t.Size = h.Bounds().Size()
	}
	return t, nil
}

// Adapt converts src for t. A src already matching t, with no mirror or
// rotation to apply, is returned as is.
func Adapt(src image.Image, t Target) (image.Image, error) {
	if src == nil {
		return nil, errors.New("adapt: nil image")
	}
	if t.Size.X <= 0 || t.Size.Y <= 0 {
		return nil, errors.Errorf("adapt: invalid target size %v", t.Size)
	}
	mode := t.Mode
	if mode == "" {
		mode = profile.ModeRGB
	}
	if t.RefreshCycle && t.Monochrome {
		mode = profile.Mode1
	}

	img := src
	if t.Mirror {
		img = imaging.FlipH(img)
	}
	if t.RefreshCycle {
		switch t.Rotate {
		case profile.Rotate90:
			img = imaging.Rotate90(img)
		case profile.Rotate180:
			img = imaging.Rotate180(img)
		case profile.Rotate270:
			img = imaging.Rotate270(img)
		}
	}
	if img.Bounds().Size() != t.Size {
		r := t.Resizer
		if r == nil {
			r = resizers[DefaultResampler]
		}
		var err error
		if img, err = r.Resize(img, t.Size); err != nil {
			return nil, errors.WrapPrefix(err, "adapt: resize", 0)
		}
	}
	img, err := Convert(img, mode)
	if err != nil {
		return nil, err
	}
	if t.Packer != nil {
		return t.Packer.Pack(img)
	}
	return img, nil
}

// BlackWhite is the palette of 1-bit frames.
var BlackWhite = color.Palette{color.Black, color.White}

// Convert returns img in mode. Images already in mode are returned as is.
//
//	"1"    *image.Paletted, BlackWhite, Floyd-Steinberg dithered
//	"L"    *image.Gray
//	"RGB"  opaque *image.RGBA, transparency flattened on black
//	"RGBA" *image.NRGBA
func Convert(img image.Image, mode profile.ColorMode) (image.Image, error) {
	b := img.Bounds()
	r := image.Rectangle{Max: b.Size()}
	switch mode {
	case profile.Mode1:
		if p, ok := img.(*image.Paletted); ok && isBlackWhite(p.Palette) {
			return p, nil
		}
		dst := image.NewPaletted(r, BlackWhite)
		draw.FloydSteinberg.Draw(dst, r, img, b.Min)
		return dst, nil
	case profile.ModeL:
		if g, ok := img.(*image.Gray); ok {
			return g, nil
		}
		dst := image.NewGray(r)
		draw.Draw(dst, r, img, b.Min, draw.Src)
		return dst, nil
	case profile.ModeRGB:
		if m, ok := img.(*image.RGBA); ok && m.Opaque() {
			return m, nil
		}
		dst := image.NewRGBA(r)
		draw.Draw(dst, r, image.Black, image.Point{}, draw.Src)
		draw.Draw(dst, r, img, b.Min, draw.Over)
		return dst, nil
	case profile.ModeRGBA:
		if m, ok := img.(*image.NRGBA); ok {
			return m, nil
		}
		dst := image.NewNRGBA(r)
		draw.Draw(dst, r, img, b.Min, draw.Src)
		return dst, nil
	default:
		return nil, errors.Errorf("%w %q", ErrUnsupportedColorMode, mode)
	}
}

func isBlackWhite(p color.Palette) bool {
	if len(p) != 2 {
		return false
	}
	for i, c := range p {
		if colorEq(c, BlackWhite[i]) {
			continue
		}
		return false
	}
	return true
}

func colorEq(a, b color.Color) bool {
	ar, ag, ab, aa := a.RGBA()
	br, bg, bb, ba := b.RGBA()
	return ar == br && ag == bg && ab == bb && aa == ba
}
