package imageprep

import (
	"bytes"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// DefaultMaxSide keeps phone photos under OCR request limits without losing small print.
const DefaultMaxSide = 2400

type Options struct {
	MaxSide int
}

// Prepare turns a photographed page into a grayscale, contrast-stretched PNG no larger than
// MaxSide on its longest edge. Undecodable input is returned unchanged with its original mime type.
func Prepare(raw []byte, mimeType string, opts Options) ([]byte, string) {
	if opts.MaxSide <= 0 {
		opts.MaxSide = DefaultMaxSide
	}
	src, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return raw, mimeType
	}

	gray := toGray(scaleDown(src, opts.MaxSide))
	stretchContrast(gray)

	var buf bytes.Buffer
	if err := png.Encode(&buf, gray); err != nil {
		return raw, mimeType
	}
	return buf.Bytes(), "image/png"
}

func scaleDown(src image.Image, maxSide int) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	longest := w
	if h > longest {
		longest = h
	}
	if longest <= maxSide {
		return src
	}
	nw := w * maxSide / longest
	nh := h * maxSide / longest
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.BiLinear.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
	return dst
}

func toGray(src image.Image) *image.Gray {
	b := src.Bounds()
	dst := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return dst
}

// stretchContrast maps the darkest pixel to 0 and the lightest to 255.
func stretchContrast(img *image.Gray) {
	if len(img.Pix) == 0 {
		return
	}
	lo, hi := uint8(255), uint8(0)
	for _, p := range img.Pix {
		if p < lo {
			lo = p
		}
		if p > hi {
			hi = p
		}
	}
	if hi <= lo {
		return
	}
	span := int(hi) - int(lo)
	for i, p := range img.Pix {
		img.Pix[i] = uint8((int(p) - int(lo)) * 255 / span)
	}
}
