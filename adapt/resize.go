package adapt

import (
	"image"
	"sort"
	"strings"

	"github.com/anthonynsimon/bild/transform"
	"github.com/disintegration/gift"
	"github.com/disintegration/imaging"
	"github.com/nfnt/resize"
	xdraw "golang.org/x/image/draw"

	"github.com/flavioheleno/dcore/internal/errors"
)

// Resizer scales an image to size.
type Resizer interface {
	Resize(img image.Image, size image.Point) (image.Image, error)
}

// DefaultResampler is used when a profile does not name one.
const DefaultResampler = "lanczos"

// imagingResizer uses "github.com/disintegration/imaging"
type imagingResizer struct{ filter imaging.ResampleFilter }

func (r imagingResizer) Resize(img image.Image, size image.Point) (image.Image, error) {
	return imaging.Resize(img, size.X, size.Y, r.filter), nil
}

// giftResizer uses "github.com/disintegration/gift"
type giftResizer struct{}

func (giftResizer) Resize(img image.Image, size image.Point) (image.Image, error) {
	m := image.NewNRGBA(image.Rectangle{Max: size})
	gift.Resize(size.X, size.Y, gift.LanczosResampling).Draw(m, img, &gift.Options{Parallelization: true})
	return m, nil
}

// bildResizer uses "github.com/anthonynsimon/bild/transform"
type bildResizer struct{}

func (bildResizer) Resize(img image.Image, size image.Point) (image.Image, error) {
	return transform.Resize(img, size.X, size.Y, transform.Lanczos), nil
}

// nfntResizer uses "github.com/nfnt/resize"
type nfntResizer struct{}

func (nfntResizer) Resize(img image.Image, size image.Point) (image.Image, error) {
	return resize.Resize(uint(size.X), uint(size.Y), img, resize.Lanczos3), nil
}

// scalerResizer uses "golang.org/x/image/draw"
type scalerResizer struct{ scaler xdraw.Scaler }

func (r scalerResizer) Resize(img image.Image, size image.Point) (image.Image, error) {
	dst := image.NewRGBA(image.Rectangle{Max: size})
	r.scaler.Scale(dst, dst.Bounds(), img, img.Bounds(), xdraw.Src, nil)
	return dst, nil
}

var resizers = map[string]Resizer{
	"lanczos":        imagingResizer{filter: imaging.Lanczos},
	"nearest":        imagingResizer{filter: imaging.NearestNeighbor},
	"gift":           giftResizer{},
	"bild":           bildResizer{},
	"nfnt":           nfntResizer{},
	"bilinear":       scalerResizer{scaler: xdraw.BiLinear},
	"approxbilinear": scalerResizer{scaler: xdraw.ApproxBiLinear},
	"catmullrom":     scalerResizer{scaler: xdraw.CatmullRom},
}

// ResizerFor returns the resampler registered under name, case
// insensitively. An empty name selects DefaultResampler.
func ResizerFor(name string) (Resizer, error) {
	if name == "" {
		name = DefaultResampler
	}
	r, ok := resizers[strings.ToLower(name)]
	if !ok {
		return nil, errors.Errorf("adapt: unknown resampler %q (have %s)", name, strings.Join(Resamplers(), ", "))
	}
	return r, nil
}

// Resamplers lists the registered resampler names.
func Resamplers() []string {
	names := make([]string, 0, len(resizers))
	for n := range resizers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
