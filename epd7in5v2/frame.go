package epd7in5v2

import (
	"image"
	"image/color"

	"periph.io/x/devices/v3/ssd1306/image1bit"
)

// Frame is a 1-bit image in the panel's native layout.
// Each byte holds 8 horizontal pixels, most significant bit = leftmost pixel.
// A set bit is white (image1bit.On), a cleared bit is black.
//
// Memory layout example for an 8-pixel row:
//
//	Pixels: 0 1 2 3 4 5 6 7
//	Values: W B W W B B B W
//	Byte:   0b10110001 = 0xB1
type Frame struct {
	Pix    []byte          // Pixel data (8 pixels per byte)
	Stride int             // Bytes per row
	Rect   image.Rectangle // Image bounds
}

// NewFrame creates a new all-black Frame with the specified bounds.
// The width must be a multiple of 8.
func NewFrame(r image.Rectangle) *Frame {
	w, h := r.Dx(), r.Dy()
	if w < 0 || h < 0 {
		return &Frame{Rect: r}
	}
	if w%8 != 0 {
		panic("epd7in5v2: frame width must be a multiple of 8")
	}

	stride := w / 8
	return &Frame{
		Pix:    make([]byte, stride*h),
		Stride: stride,
		Rect:   r,
	}
}

// ColorModel returns the color model of the image.
func (f *Frame) ColorModel() color.Model {
	return image1bit.BitModel
}

// Bounds returns the image bounds.
func (f *Frame) Bounds() image.Rectangle {
	return f.Rect
}

// At returns the color of the pixel at (x, y).
func (f *Frame) At(x, y int) color.Color {
	return f.BitAt(x, y)
}

// BitAt returns the pixel at (x, y). Out of bounds pixels are black.
func (f *Frame) BitAt(x, y int) image1bit.Bit {
	if !(image.Point{X: x, Y: y}.In(f.Rect)) {
		return image1bit.Off
	}
	offset, mask := f.pixOffset(x, y)
	return image1bit.Bit(f.Pix[offset]&mask != 0)
}

// Set sets the color of the pixel at (x, y).
func (f *Frame) Set(x, y int, c color.Color) {
	f.SetBit(x, y, image1bit.BitModel.Convert(c).(image1bit.Bit))
}

// SetBit sets the pixel at (x, y) without color conversion.
func (f *Frame) SetBit(x, y int, b image1bit.Bit) {
	if !(image.Point{X: x, Y: y}.In(f.Rect)) {
		return
	}
	offset, mask := f.pixOffset(x, y)
	if b {
		f.Pix[offset] |= mask
	} else {
		f.Pix[offset] &^= mask
	}
}

// pixOffset returns the byte offset and bit mask for the pixel at (x, y).
func (f *Frame) pixOffset(x, y int) (offset int, mask byte) {
	dx := x - f.Rect.Min.X
	offset = (y-f.Rect.Min.Y)*f.Stride + dx/8
	mask = 0x80 >> uint(dx&7)
	return
}
