// Package ansi renders card images as terminal art and lays them out beside text.
package ansi

import (
	"crypto/md5"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/nfnt/resize"
)

// Decode reads a PNG, JPEG or GIF image.
func Decode(r io.Reader) (image.Image, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

// HeightFor returns the number of text rows that keep img's aspect ratio at
// width columns. Each row holds two pixel rows.
func HeightFor(img image.Image, width int) int {
	b := img.Bounds()
	if b.Dx() == 0 {
		return width
	}
	h := width * b.Dy() / b.Dx() / 2
	if h < 1 {
		h = 1
	}
	return h
}

// Render converts img to rows of upper-half-block characters, width columns
// by height rows. With trueColor false the blocks are left uncolored.
func Render(img image.Image, width, height int, trueColor bool) string {
	resized := resize.Resize(uint(width*2), uint(height*2), img, resize.Lanczos3)

	var b strings.Builder
	for y := 0; y < height*2; y += 2 {
		for x := 0; x < width*2; x += 2 {
			c1, _ := colorful.MakeColor(colorAt(resized, x, y))
			c2, _ := colorful.MakeColor(colorAt(resized, x+1, y))
			c3, _ := colorful.MakeColor(colorAt(resized, x, y+1))
			c4, _ := colorful.MakeColor(colorAt(resized, x+1, y+1))

			// top pixels are the foreground, bottom pixels the background
			fg := toRGBA(average(c1, c2))
			bg := toRGBA(average(c3, c4))
			b.WriteString(cell('▀', fg, bg, trueColor))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func colorAt(img image.Image, x, y int) color.Color {
	bounds := img.Bounds()
	if x >= bounds.Min.X && x < bounds.Max.X && y >= bounds.Min.Y && y < bounds.Max.Y {
		return img.At(x, y)
	}
	return color.RGBA{0, 0, 0, 255}
}

func average(colors ...colorful.Color) colorful.Color {
	var r, g, b float64
	for _, c := range colors {
		r += c.R
		g += c.G
		b += c.B
	}
	n := float64(len(colors))
	return colorful.Color{R: r / n, G: g / n, B: b / n}
}

func toRGBA(c colorful.Color) color.RGBA {
	r, g, b := c.Clamped().RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

func cell(char rune, fg, bg color.RGBA, trueColor bool) string {
	if !trueColor {
		return string(char)
	}
	return fmt.Sprintf("\x1b[38;2;%d;%d;%dm\x1b[48;2;%d;%d;%dm%c\x1b[0m",
		fg.R, fg.G, fg.B, bg.R, bg.G, bg.B, char)
}

// Cached returns the art stored under key in dir, or builds and stores it.
// A failure to write the cache is not an error.
func Cached(dir, key string, build func() (string, error)) (string, error) {
	path := filepath.Join(dir, fmt.Sprintf("%x.ansi", md5.Sum([]byte(key))))
	if data, err := os.ReadFile(path); err == nil {
		return string(data), nil
	}
	art, err := build()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0755); err == nil {
		_ = os.WriteFile(path, []byte(art), 0644)
	}
	return art, nil
}

// Strip removes ANSI escape sequences from s.
func Strip(s string) string {
	var b strings.Builder
	inEscape := false
	for _, c := range s {
		switch {
		case inEscape:
			if c == 'm' {
				inEscape = false
			}
		case c == '\033':
			inEscape = true
		default:
			b.WriteRune(c)
		}
	}
	return b.String()
}

// Width is the number of visible runes in s.
func Width(s string) int {
	return len([]rune(Strip(s)))
}

// Wrap breaks text into lines of at most width runes, splitting on spaces.
// Newlines in text start new paragraphs.
func Wrap(text string, width int) []string {
	if width < 10 {
		width = 40
	}
	var out []string
	for _, para := range strings.Split(text, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			out = append(out, "")
			continue
		}
		line := words[0]
		for _, w := range words[1:] {
			if len([]rune(line))+1+len([]rune(w)) <= width {
				line += " " + w
				continue
			}
			out = append(out, line)
			line = w
		}
		out = append(out, line)
	}
	return out
}

// SideBySide prints art on the left and info lines to its right.
func SideBySide(w io.Writer, art string, info []string) {
	artLines := strings.Split(strings.TrimRight(art, "\n"), "\n")
	artWidth := 0
	for _, l := range artLines {
		artWidth = max(artWidth, Width(l))
	}
	col := artWidth + 4

	rows := max(len(artLines), len(info))
	for i := 0; i < rows; i++ {
		fmt.Fprint(w, "  ")
		if i < len(artLines) {
			fmt.Fprint(w, artLines[i])
			fmt.Fprint(w, strings.Repeat(" ", col-Width(artLines[i])))
		} else {
			fmt.Fprint(w, strings.Repeat(" ", col))
		}
		if i < len(info) {
			fmt.Fprint(w, info[i])
		}
		fmt.Fprintln(w)
	}
}
