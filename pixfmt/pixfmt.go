// Package pixfmt packs images into the byte layouts display controllers
// read from their RAM.
//
// Three layouts are provided:
//
//	Gray4   2 pixels per byte, high nibble = left pixel (SSD1322)
//	RGB565  2 bytes per pixel, big endian (ST7789 and most TFTs)
//	RGB666  3 bytes per pixel, 6 significant bits each (ILI9486)
//
// Monochrome paged layouts use periph's image1bit.VerticalLSB directly.
package pixfmt

import (
	"fmt"
	"image"
	"image/color"
)

// Gray4 represents a 4-bit grayscale color (0-15 intensity levels).
// Only the lower 4 bits of Y are used.
type Gray4 struct {
	Y uint8
}

// RGBA scales the 4-bit value to 16 bits: 0xF * 0x1111 = 0xFFFF.
func (c Gray4) RGBA() (r, g, b, a uint32) {
	y := uint32(c.Y&0x0F) * 0x1111
	return y, y, y, 0xFFFF
}

func toGray4(c color.Color) color.Color {
	if g, ok := c.(Gray4); ok {
		return g
	}
	return Gray4{Y: uint8(luma16(c) >> 12)}
}

// Gray4Model converts colors to Gray4.
var Gray4Model = color.ModelFunc(toGray4)

// luma16 returns 0.299R + 0.587G + 0.114B on the 16-bit scale.
func luma16(c color.Color) uint32 {
	r, g, b, _ := c.RGBA()
	return (299*r + 587*g + 114*b + 500) / 1000
}

// Format is a controller RAM layout.
type Format int

const (
	Gray4Nibble Format = iota
	RGB565
	RGB666
)

func (f Format) String() string {
	switch f {
	case Gray4Nibble:
		return "gray4"
	case RGB565:
		return "rgb565"
	case RGB666:
		return "rgb666"
	default:
		return fmt.Sprintf("pixfmt.Format(%d)", int(f))
	}
}

// Stride returns the number of bytes of a row of width pixels. Gray4 rows
// are rounded up to a whole byte.
func (f Format) Stride(width int) int {
	switch f {
	case Gray4Nibble:
		return (width + 1) / 2
	case RGB565:
		return width * 2
	default:
		return width * 3
	}
}

// Len returns the buffer size for a w×h frame.
func (f Format) Len(w, h int) int { return f.Stride(w) * h }

// Pack writes the pixels of r from img into dst, row by row, starting at
// dst[0]. dst must hold at least f.Len(r.Dx(), r.Dy()) bytes. When bgr is set
// the red and blue channels are swapped.
func (f Format) Pack(dst []byte, img image.Image, r image.Rectangle, bgr bool) {
	stride := f.Stride(r.Dx())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		row := dst[(y-r.Min.Y)*stride:]
		switch f {
		case Gray4Nibble:
			packGray4Row(row[:stride], img, r.Min.X, r.Max.X, y)
		case RGB565:
			packRGB565Row(row[:stride], img, r.Min.X, r.Max.X, y, bgr)
		default:
			packRGB666Row(row[:stride], img, r.Min.X, r.Max.X, y, bgr)
		}
	}
}

// Frame packs the whole image into a new buffer.
func (f Format) Frame(img image.Image, bgr bool) []byte {
	b := img.Bounds()
	buf := make([]byte, f.Len(b.Dx(), b.Dy()))
	f.Pack(buf, img, b, bgr)
	return buf
}

func packGray4Row(row []byte, img image.Image, x0, x1, y int) {
	for i := range row {
		row[i] = 0
	}
	for x := x0; x < x1; x++ {
		v := Gray4Model.Convert(img.At(x, y)).(Gray4).Y & 0x0F
		// even column -> high nibble
		shift := uint(4 * (1 - ((x - x0) & 1)))
		row[(x-x0)/2] |= v << shift
	}
}

func rgb8(img image.Image, x, y int, bgr bool) (r, g, b uint8) {
	if rgba, ok := img.(*image.RGBA); ok {
		i := rgba.PixOffset(x, y)
		r, g, b = rgba.Pix[i], rgba.Pix[i+1], rgba.Pix[i+2]
	} else {
		r16, g16, b16, _ := img.At(x, y).RGBA()
		r, g, b = uint8(r16>>8), uint8(g16>>8), uint8(b16>>8)
	}
	if bgr {
		r, b = b, r
	}
	return
}

func packRGB565Row(row []byte, img image.Image, x0, x1, y int, bgr bool) {
	for x := x0; x < x1; x++ {
		r, g, b := rgb8(img, x, y, bgr)
		v := uint16(r&0xF8)<<8 | uint16(g&0xFC)<<3 | uint16(b)>>3
		i := (x - x0) * 2
		row[i] = byte(v >> 8)
		row[i+1] = byte(v)
	}
}

func packRGB666Row(row []byte, img image.Image, x0, x1, y int, bgr bool) {
	for x := x0; x < x1; x++ {
		r, g, b := rgb8(img, x, y, bgr)
		i := (x - x0) * 3
		row[i] = r & 0xFC
		row[i+1] = g & 0xFC
		row[i+2] = b & 0xFC
	}
}
