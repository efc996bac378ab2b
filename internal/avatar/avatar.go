// Package avatar renders letter avatars: one uppercase glyph centered on a solid square.
package avatar

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/chai2010/webp"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

const (
	DefaultSize       = 100
	DefaultBackground = "#007bff"

	// glyph size relative to the canvas: 48px on a 100px square
	glyphRatio = 0.48
)

// Output formats.
const (
	FormatPNG  = "png"
	FormatWebP = "webp"
)

// ErrUnsupportedFormat is returned for formats other than png and webp.
var ErrUnsupportedFormat = errors.New("unsupported avatar format")

// Options configures a Generator.
type Options struct {
	Size       int
	Background string
}

// Generator rasterizes letter avatars. It is safe for concurrent use; each
// render builds its own font face.
type Generator struct {
	size       int
	background color.RGBA
	foreground color.RGBA
	font       *opentype.Font
}

// NewGenerator parses the embedded Go Bold font and validates opts.
func NewGenerator(opts Options) (*Generator, error) {
	if opts.Size == 0 {
		opts.Size = DefaultSize
	}
	if opts.Size < 1 {
		return nil, fmt.Errorf("invalid avatar size %d", opts.Size)
	}
	if opts.Background == "" {
		opts.Background = DefaultBackground
	}

	bg, err := ParseHexColor(opts.Background)
	if err != nil {
		return nil, err
	}

	f, err := opentype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse avatar font: %w", err)
	}

	return &Generator{
		size:       opts.Size,
		background: bg,
		foreground: color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff},
		font:       f,
	}, nil
}

// Size returns the edge length of rendered avatars in pixels.
func (g *Generator) Size() int { return g.size }

// Background returns the configured background as #rrggbb.
func (g *Generator) Background() string {
	return fmt.Sprintf("#%02x%02x%02x", g.background.R, g.background.G, g.background.B)
}

// Letter returns the glyph drawn for name: its first rune, uppercased. Empty names map to "?".
func Letter(name string) string {
	name = strings.TrimSpace(name)
	r, _ := utf8.DecodeRuneInString(name)
	if r == utf8.RuneError {
		return "?"
	}
	return string(unicode.ToUpper(r))
}

// Render draws letter centered on the background.
func (g *Generator) Render(letter string) (*image.RGBA, error) {
	face, err := opentype.NewFace(g.font, &opentype.FaceOptions{
		Size:    float64(g.size) * glyphRatio,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build font face: %w", err)
	}
	defer face.Close()

	img := image.NewRGBA(image.Rect(0, 0, g.size, g.size))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: g.background}, image.Point{}, draw.Src)

	bounds, advance := font.BoundString(face, letter)
	x := (fixed.I(g.size) - advance) / 2
	// vertical center on the inked box, not the em box
	y := fixed.I(g.size)/2 - (bounds.Min.Y+bounds.Max.Y)/2

	d := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{C: g.foreground},
		Face: face,
		Dot:  fixed.Point26_6{X: x, Y: y},
	}
	d.DrawString(letter)

	return img, nil
}

// Encode renders letter and encodes it in format. Output is byte-identical
// for identical inputs.
func (g *Generator) Encode(letter, format string) ([]byte, error) {
	img, err := g.Render(letter)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	switch format {
	case "", FormatPNG:
		enc := png.Encoder{CompressionLevel: png.DefaultCompression}
		err = enc.Encode(&buf, img)
	case FormatWebP:
		err = webp.Encode(&buf, img, &webp.Options{Lossless: true})
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to encode avatar: %w", err)
	}
	return buf.Bytes(), nil
}

// ContentType maps a format to its MIME type.
func ContentType(format string) string {
	if format == FormatWebP {
		return "image/webp"
	}
	return "image/png"
}

// ParseHexColor parses #rgb or #rrggbb.
func ParseHexColor(s string) (color.RGBA, error) {
	c := color.RGBA{A: 0xff}
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")

	var err error
	switch len(s) {
	case 6:
		_, err = fmt.Sscanf(s, "%2x%2x%2x", &c.R, &c.G, &c.B)
	case 3:
		_, err = fmt.Sscanf(s, "%1x%1x%1x", &c.R, &c.G, &c.B)
		c.R *= 17
		c.G *= 17
		c.B *= 17
	default:
		err = errors.New("want #rgb or #rrggbb")
	}
	if err != nil {
		return c, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return c, nil
}
