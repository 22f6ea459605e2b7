package imageprep

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodePNG(t *testing.T, w, h int, fill func(x, y int) color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, fill(x, y))
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestPrepareScalesAndGrays(t *testing.T) {
	raw := encodePNG(t, 400, 200, func(x, y int) color.Color {
		if x < 200 {
			return color.RGBA{R: 60, G: 60, B: 60, A: 255}
		}
		return color.RGBA{R: 200, G: 180, B: 190, A: 255}
	})

	out, mime := Prepare(raw, "image/png", Options{MaxSide: 100})
	assert.Equal(t, "image/png", mime)

	img, err := png.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 100, img.Bounds().Dx())
	assert.Equal(t, 50, img.Bounds().Dy())

	g, ok := img.(*image.Gray)
	require.True(t, ok)
	assert.Equal(t, uint8(0), g.GrayAt(5, 25).Y)
	assert.Equal(t, uint8(255), g.GrayAt(95, 25).Y)
}

func TestPrepareKeepsSmallImagesAtSize(t *testing.T) {
	raw := encodePNG(t, 30, 20, func(x, y int) color.Color { return color.White })
	out, _ := Prepare(raw, "image/png", Options{})
	img, err := png.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 30, 20), img.Bounds())
}

func TestPrepareReturnsUndecodableInput(t *testing.T) {
	raw := []byte("not an image")
	out, mime := Prepare(raw, "image/heic", Options{})
	assert.Equal(t, raw, out)
	assert.Equal(t, "image/heic", mime)
}
