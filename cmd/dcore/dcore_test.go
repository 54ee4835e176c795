package main

import (
	"bytes"
	"image"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flavioheleno/dcore/adapt"
	"github.com/flavioheleno/dcore/config"
	"github.com/flavioheleno/dcore/internal/logx"
	"github.com/flavioheleno/dcore/profile"
	"github.com/flavioheleno/dcore/registry"
)

func TestPatterns(t *testing.T) {
	for _, name := range patternNames() {
		t.Run(name, func(t *testing.T) {
			img := patterns[name](256, 64)
			assert.Equal(t, image.Rect(0, 0, 256, 64), img.Bounds())
			for _, p := range img.Pix {
				require.Zero(t, p%17, "gray level off the 16-step scale")
			}
		})
	}
}

func TestGradient(t *testing.T) {
	img := gradient(256, 2)
	assert.Equal(t, uint8(0), img.GrayAt(0, 0).Y)
	assert.Equal(t, uint8(255), img.GrayAt(255, 1).Y)
	assert.Equal(t, uint8(8*17), img.GrayAt(128, 0).Y)
}

func TestBarsNarrowPanel(t *testing.T) {
	img := bars(8, 1)
	assert.Equal(t, uint8(7*17), img.GrayAt(7, 0).Y)
}

func TestPatternSize(t *testing.T) {
	w, h := patternSize(adapt.Target{Size: image.Pt(250, 122), RefreshCycle: true, Rotate: profile.Rotate90})
	assert.Equal(t, 122, w)
	assert.Equal(t, 250, h)

	w, h = patternSize(adapt.Target{Size: image.Pt(480, 320), Rotate: profile.Rotate90})
	assert.Equal(t, 480, w)
	assert.Equal(t, 320, h)
}

func TestListProfiles(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, listProfiles(&buf, profile.Default()))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, profile.Default().Len()+1)
	assert.True(t, strings.HasPrefix(lines[0], "KEY"))
	assert.Contains(t, buf.String(), "oled_ssd1322_256x64")
	assert.Contains(t, buf.String(), "256x64")
}

func TestOpenScreensRejectsUnknown(t *testing.T) {
	cfg, err := config.Parse(strings.NewReader(`
screens:
  screen1: {name: crt}
`))
	require.NoError(t, err)

	_, err = openScreens(cfg, profile.Default(), nil, []string{"nope"}, logx.Discard())
	assert.ErrorIs(t, err, registry.ErrUnknownScreen)

	_, err = openScreens(cfg, profile.Default(), nil, nil, logx.Discard())
	var upe *config.UnknownProfileError
	assert.ErrorAs(t, err, &upe)
}
