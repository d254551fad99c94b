package ansi

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solid(w, h int, c color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestRender_Dimensions(t *testing.T) {
	art := Render(solid(40, 40, color.RGBA{255, 0, 0, 255}), 8, 4, true)
	lines := strings.Split(strings.TrimRight(art, "\n"), "\n")
	require.Len(t, lines, 4)
	for _, l := range lines {
		assert.Equal(t, 8, Width(l))
	}
	assert.True(t, strings.HasPrefix(art, "\x1b[38;2;"), "cells carry 24-bit color")
}

func TestRender_Plain(t *testing.T) {
	art := Render(solid(10, 10, color.White), 3, 2, false)
	assert.Equal(t, "▀▀▀\n▀▀▀\n", art)
}

func TestHeightFor(t *testing.T) {
	// Scryfall PNGs are 745x1040
	assert.Equal(t, 22, HeightFor(solid(745, 1040, color.Black), 32))
	assert.Equal(t, 1, HeightFor(solid(100, 1, color.Black), 10))
}

func TestDecode(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, solid(4, 4, color.Black)))
	img, err := Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, 4, img.Bounds().Dx())

	_, err = Decode(strings.NewReader("not an image"))
	assert.Error(t, err)
}

func TestCached(t *testing.T) {
	dir := t.TempDir()
	builds := 0
	build := func() (string, error) {
		builds++
		return "art", nil
	}
	for i := 0; i < 2; i++ {
		art, err := Cached(dir, "https://img/x.png", build)
		require.NoError(t, err)
		assert.Equal(t, "art", art)
	}
	assert.Equal(t, 1, builds)

	_, err := Cached(dir, "other", func() (string, error) { return "", errors.New("offline") })
	assert.EqualError(t, err, "offline")
}

func TestStripAndWidth(t *testing.T) {
	s := "\x1b[38;2;1;2;3mé\x1b[0mx"
	assert.Equal(t, "éx", Strip(s))
	assert.Equal(t, 2, Width(s))
}

func TestWrap(t *testing.T) {
	got := Wrap("Flying, first strike\nWhen this creature enters, draw a card.", 20)
	assert.Equal(t, []string{
		"Flying, first strike",
		"When this creature",
		"enters, draw a card.",
	}, got)
	assert.Equal(t, []string{""}, Wrap("", 20))
}

func TestSideBySide(t *testing.T) {
	var buf bytes.Buffer
	SideBySide(&buf, "ab\ncd\n", []string{"one", "two", "three"})
	assert.Equal(t, "  ab    one\n  cd    two\n        three\n", buf.String())
}
