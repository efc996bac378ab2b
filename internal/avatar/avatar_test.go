package avatar

import (
	"bytes"
	"image/color"
	"image/png"
	"testing"

	"github.com/chai2010/webp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGenerator(t *testing.T) *Generator {
	t.Helper()
	g, err := NewGenerator(Options{})
	require.NoError(t, err)
	return g
}

func TestLetter(t *testing.T) {
	tests := map[string]string{
		"zed":    "Z",
		"alice":  "A",
		"élodie": "É",
		"  bob":  "B",
		"":       "?",
		"7up":    "7",
	}
	for in, want := range tests {
		assert.Equal(t, want, Letter(in), "Letter(%q)", in)
	}
}

func TestEncode_PNGDimensionsAndColors(t *testing.T) {
	g := newGenerator(t)

	b, err := g.Encode("Z", FormatPNG)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(b))
	require.NoError(t, err)
	assert.Equal(t, 100, img.Bounds().Dx())
	assert.Equal(t, 100, img.Bounds().Dy())

	r, gr, bl, _ := img.At(0, 0).RGBA()
	assert.Equal(t, uint32(0x00), r>>8)
	assert.Equal(t, uint32(0x7b), gr>>8)
	assert.Equal(t, uint32(0xff), bl>>8)

	// some pixel near the middle belongs to the white glyph
	white := false
	for x := 30; x < 70 && !white; x++ {
		for y := 30; y < 70; y++ {
			if c := color.RGBAModel.Convert(img.At(x, y)).(color.RGBA); c.R > 0xf0 && c.G > 0xf0 {
				white = true
				break
			}
		}
	}
	assert.True(t, white, "expected glyph pixels near the center")
}

func TestEncode_Deterministic(t *testing.T) {
	g := newGenerator(t)

	a, err := g.Encode("Z", FormatPNG)
	require.NoError(t, err)
	b, err := g.Encode("Z", FormatPNG)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(a, b))

	other, err := newGenerator(t).Encode("Z", FormatPNG)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(a, other))

	y, err := g.Encode("Y", FormatPNG)
	require.NoError(t, err)
	assert.False(t, bytes.Equal(a, y))
}

func TestEncode_WebP(t *testing.T) {
	g := newGenerator(t)

	b, err := g.Encode("Q", FormatWebP)
	require.NoError(t, err)

	img, err := webp.Decode(bytes.NewReader(b))
	require.NoError(t, err)
	assert.Equal(t, 100, img.Bounds().Dx())
}

func TestEncode_UnsupportedFormat(t *testing.T) {
	_, err := newGenerator(t).Encode("A", "gif")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestNewGenerator_CustomOptions(t *testing.T) {
	g, err := NewGenerator(Options{Size: 64, Background: "#fff"})
	require.NoError(t, err)
	assert.Equal(t, 64, g.Size())
	assert.Equal(t, "#ffffff", g.Background())

	_, err = NewGenerator(Options{Background: "blue"})
	assert.Error(t, err)
}

func TestParseHexColor(t *testing.T) {
	c, err := ParseHexColor("#007bff")
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{R: 0x00, G: 0x7b, B: 0xff, A: 0xff}, c)

	_, err = ParseHexColor("#12345")
	assert.Error(t, err)
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "image/png", ContentType(FormatPNG))
	assert.Equal(t, "image/webp", ContentType(FormatWebP))
}
