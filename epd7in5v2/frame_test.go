package epd7in5v2

import (
	"image"
	"image/color"
	"testing"

	"periph.io/x/devices/v3/ssd1306/image1bit"
)

func TestNewFrame(t *testing.T) {
	tests := []struct {
		name       string
		rect       image.Rectangle
		wantPanic  bool
		wantStride int
		wantPixLen int
	}{
		{"800x480", image.Rect(0, 0, 800, 480), false, 100, 48000},
		{"8x1", image.Rect(0, 0, 8, 1), false, 1, 1},
		{"16x2", image.Rect(0, 0, 16, 2), false, 2, 4},
		{"offset rect", image.Rect(8, 4, 24, 6), false, 2, 4},
		{"width not multiple of 8 panics", image.Rect(0, 0, 12, 2), true, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				r := recover()
				if (r != nil) != tt.wantPanic {
					t.Errorf("panic = %v, want panic = %v", r != nil, tt.wantPanic)
				}
			}()

			f := NewFrame(tt.rect)
			if f.Rect != tt.rect {
				t.Errorf("Rect = %v, want %v", f.Rect, tt.rect)
			}
			if f.Stride != tt.wantStride {
				t.Errorf("Stride = %d, want %d", f.Stride, tt.wantStride)
			}
			if len(f.Pix) != tt.wantPixLen {
				t.Errorf("len(Pix) = %d, want %d", len(f.Pix), tt.wantPixLen)
			}
		})
	}
}

func TestFrameBitPacking(t *testing.T) {
	f := NewFrame(image.Rect(0, 0, 16, 1))

	// W B W W B B B W, then the leftmost pixel of the second byte
	row := []image1bit.Bit{image1bit.On, image1bit.Off, image1bit.On, image1bit.On,
		image1bit.Off, image1bit.Off, image1bit.Off, image1bit.On, image1bit.On}
	for x, b := range row {
		f.SetBit(x, 0, b)
	}

	if f.Pix[0] != 0xB1 {
		t.Errorf("Pix[0] = 0x%02X, want 0xB1", f.Pix[0])
	}
	if f.Pix[1] != 0x80 {
		t.Errorf("Pix[1] = 0x%02X, want 0x80", f.Pix[1])
	}

	// Clearing a bit leaves its neighbours alone
	f.SetBit(2, 0, image1bit.Off)
	if f.Pix[0] != 0x91 {
		t.Errorf("after clear Pix[0] = 0x%02X, want 0x91", f.Pix[0])
	}
}

func TestFrameSetGet(t *testing.T) {
	f := NewFrame(image.Rect(0, 0, 8, 2))

	pattern := [][]bool{
		{true, false, false, true, true, false, true, false},
		{false, true, true, false, false, true, false, true},
	}
	for y, row := range pattern {
		for x, v := range row {
			f.SetBit(x, y, image1bit.Bit(v))
		}
	}
	for y, row := range pattern {
		for x, want := range row {
			if got := f.BitAt(x, y); got != image1bit.Bit(want) {
				t.Errorf("BitAt(%d, %d) = %v, want %v", x, y, got, want)
			}
		}
	}
}

func TestFrameSet(t *testing.T) {
	f := NewFrame(image.Rect(0, 0, 8, 1))

	f.Set(0, 0, color.White)
	f.Set(1, 0, color.Gray{Y: 0xC0})
	f.Set(2, 0, color.Gray{Y: 0x20})
	f.Set(3, 0, color.Black)

	want := []image1bit.Bit{image1bit.On, image1bit.On, image1bit.Off, image1bit.Off}
	for x, w := range want {
		if got := f.BitAt(x, 0); got != w {
			t.Errorf("BitAt(%d, 0) = %v, want %v", x, got, w)
		}
	}

	c, ok := f.At(0, 0).(image1bit.Bit)
	if !ok {
		t.Fatalf("At(0, 0) returned %T, want image1bit.Bit", f.At(0, 0))
	}
	if c != image1bit.On {
		t.Errorf("At(0, 0) = %v, want On", c)
	}
}

func TestFrameOffsetRect(t *testing.T) {
	f := NewFrame(image.Rect(8, 10, 24, 12))

	f.SetBit(8, 10, image1bit.On)
	f.SetBit(23, 11, image1bit.On)

	if f.Pix[0] != 0x80 {
		t.Errorf("Pix[0] = 0x%02X, want 0x80", f.Pix[0])
	}
	if f.Pix[3] != 0x01 {
		t.Errorf("Pix[3] = 0x%02X, want 0x01", f.Pix[3])
	}
}

func TestFrameOutOfBounds(t *testing.T) {
	f := NewFrame(image.Rect(0, 0, 8, 1))
	f.SetBit(0, 0, image1bit.On)

	// Writes outside the frame are ignored
	f.SetBit(8, 0, image1bit.On)
	f.SetBit(-1, 0, image1bit.On)
	f.SetBit(0, 1, image1bit.On)
	if f.Pix[0] != 0x80 {
		t.Errorf("Pix[0] = 0x%02X, want 0x80", f.Pix[0])
	}

	// Reads outside the frame are black
	for _, p := range []image.Point{{8, 0}, {-1, 0}, {0, -1}, {0, 1}} {
		if got := f.BitAt(p.X, p.Y); got != image1bit.Off {
			t.Errorf("BitAt(%d, %d) = %v, want Off", p.X, p.Y, got)
		}
	}
}

func TestFramePixOffset(t *testing.T) {
	f := NewFrame(image.Rect(0, 0, 16, 2))

	tests := []struct {
		x, y       int
		wantOffset int
		wantMask   byte
	}{
		{0, 0, 0, 0x80},
		{7, 0, 0, 0x01},
		{8, 0, 1, 0x80},
		{3, 1, 2, 0x10},
		{15, 1, 3, 0x01},
	}

	for _, tt := range tests {
		offset, mask := f.pixOffset(tt.x, tt.y)
		if offset != tt.wantOffset || mask != tt.wantMask {
			t.Errorf("pixOffset(%d, %d) = (%d, 0x%02X), want (%d, 0x%02X)",
				tt.x, tt.y, offset, mask, tt.wantOffset, tt.wantMask)
		}
	}
}

func TestFrameColorModel(t *testing.T) {
	f := NewFrame(image.Rect(0, 0, 8, 8))
	if f.ColorModel() != image1bit.BitModel {
		t.Error("ColorModel() did not return image1bit.BitModel")
	}
}
