package render

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/flavioheleno/dcore/internal/errors"
)

// Source produces the frames of a screen.
type Source interface {
	Frame() (image.Image, error)
}

// FileSource reads a raster file on every call, so a producer rewriting the
// file is picked up on the next tick.
type FileSource struct {
	Path string
}

func (s FileSource) Frame() (image.Image, error) { return DecodeFile(s.Path) }

// DecodeFile reads and decodes the image at path. PNG, JPEG, GIF, BMP, TIFF
// and WebP are supported.
func DecodeFile(path string) (image.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New(err)
	}
	if len(data) == 0 {
		return nil, errors.Errorf("render: %s is empty", path)
	}
	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return nil, errors.Errorf("render: %s is %s, not an image", path, mt.String())
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errors.WrapPrefix(err, "render: decode "+path+" ("+mt.String()+")", 0)
	}
	return img, nil
}

// FrameSourceError is reported when a screen's frame cannot be read or
// decoded. The loop falls back to the last good frame.
type FrameSourceError struct {
	Screen string
	Input  string
	Path   string
	Err    error
}

func (e *FrameSourceError) Error() string {
	return fmt.Sprintf("render: screen %q: frame input %q (%s): %v", e.Screen, e.Input, e.Path, e.Err)
}

func (e *FrameSourceError) Unwrap() error { return e.Err }
