package image2bit

import (
	"image"
	"image/color"
)

// Levels are the four 8-bit values the panel can show, darkest first.
var Levels = [4]uint8{0, 85, 170, 255}

// Quantize maps an 8-bit gray value onto one of Levels.
// The input range is split into four 64-wide bins: [0,64) [64,128) [128,192) [192,255].
func Quantize(v uint8) uint8 {
	return Levels[v>>6]
}

// IsLevel reports whether v is one of Levels.
func IsLevel(v uint8) bool {
	return v == 0 || v == 85 || v == 170 || v == 255
}

// Gray2 represents a 4-level grayscale color (levels 0-3).
// Only the lower 2 bits of Y are used.
type Gray2 struct {
	Y uint8
}

// RGBA converts the Gray2 color to standard RGBA.
// The 2-bit level (0-3) is scaled to 16-bit (0-65535).
func (c Gray2) RGBA() (r, g, b, a uint32) {
	// 0x3 * 0x5555 = 0xFFFF, 0x1 * 0x5555 = 0x5555
	y := uint32(c.Y&0x03) * 0x5555
	return y, y, y, 0xFFFF
}

// Gray returns the 8-bit value of the level.
func (c Gray2) Gray() uint8 {
	return Levels[c.Y&0x03]
}

// toGray2 converts any color.Color to Gray2.
func toGray2(c color.Color) color.Color {
	if g, ok := c.(Gray2); ok {
		return g
	}
	// color.GrayModel uses the same 0.299R + 0.587G + 0.114B weights as the
	// luminance conversion applied by the normalizer.
	y := color.GrayModel.Convert(c).(color.Gray).Y
	return Gray2{Y: y >> 6}
}

// Gray2Model converts colors to Gray2.
var Gray2Model = color.ModelFunc(toGray2)

// QuantizeGray quantizes every pixel of img inside r in place.
func QuantizeGray(img *image.Gray, r image.Rectangle) {
	r = r.Intersect(img.Rect)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		row := img.Pix[img.PixOffset(r.Min.X, y):img.PixOffset(r.Max.X, y)]
		for i, v := range row {
			row[i] = Quantize(v)
		}
	}
}

// IsQuantized reports whether every pixel of img is one of Levels.
func IsQuantized(img *image.Gray) bool {
	b := img.Rect
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for _, v := range img.Pix[img.PixOffset(b.Min.X, y):img.PixOffset(b.Max.X, y)] {
			if !IsLevel(v) {
				return false
			}
		}
	}
	return true
}
