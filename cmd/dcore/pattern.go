package main

import (
	"context"
	"image"
	"image/color"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/flavioheleno/dcore/adapt"
	"github.com/flavioheleno/dcore/internal/errors"
	"github.com/flavioheleno/dcore/internal/logx"
)

func init() {
	rootCmd.AddCommand(patternCmd)
	patternCmd.Flags().StringVarP(&patternFlag, `pattern`, `p`, `gradient`, "test `pattern`: "+strings.Join(patternNames(), ", "))
	patternCmd.Flags().BoolVar(&onceFlag, `once`, false, `release the panel right after drawing instead of waiting for a signal`)
}

var patternCmd = &cobra.Command{
	Use:   patternCmdStr + ` SCREEN`,
	Short: `draw a test pattern on a screen`,
	Long:  `draw a grayscale test pattern sized for the screen, useful to check wiring, rotation and color order of a new panel`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		run(patternFunc(args[0]))
	},
}

var (
	patternCmdStr = "pattern"
	patternFlag   string
)

// patterns draw 16 gray levels, matching the depth of a 4-bit OLED.
var patterns = map[string]func(w, h int) *image.Gray{
	"gradient": gradient,
	"checker":  checker,
	"bars":     bars,
	"stripes":  stripes,
}

func patternNames() []string {
	names := make([]string, 0, len(patterns))
	for n := range patterns {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func patternFunc(screen string) command {
	return func(ctx context.Context, logger logx.LoggerProvider) error {
		gen, ok := patterns[strings.ToLower(patternFlag)]
		if !ok {
			return errors.Errorf("unknown pattern %q, want one of %s", patternFlag, strings.Join(patternNames(), ", "))
		}
		return showOn(ctx, screen, logger, func(t adapt.Target) image.Image {
			w, h := patternSize(t)
			return gen(w, h)
		})
	}
}

// patternSize is the source size that maps onto t without distortion.
func patternSize(t adapt.Target) (w, h int) {
	if t.RefreshCycle && t.Rotate.Odd() {
		return t.Size.Y, t.Size.X
	}
	return t.Size.X, t.Size.Y
}

func level(l int) color.Gray { return color.Gray{Y: uint8(l * 17)} }

// gradient goes from black on the left to white on the right.
func gradient(w, h int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetGray(x, y, level(x*16/w))
		}
	}
	return img
}

func checker(w, h int) *image.Gray {
	const size = 4
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if (x/size+y/size)%2 == 0 {
				img.SetGray(x, y, level(15))
			}
		}
	}
	return img
}

// bars draws 16 vertical bars, one per gray level.
func bars(w, h int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	bw := w / 16
	if bw == 0 {
		bw = 1
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			l := x / bw
			if l > 15 {
				l = 15
			}
			img.SetGray(x, y, level(l))
		}
	}
	return img
}

func stripes(w, h int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if (x/2)%8 == 0 || (y/8)%2 == 0 {
				img.SetGray(x, y, level(15))
			}
		}
	}
	return img
}
