package image2bit

import (
	"image"
	"image/color"
	"testing"
)

func TestQuantizeBins(t *testing.T) {
	tests := []struct {
		name string
		in   uint8
		want uint8
	}{
		{"black", 0, 0},
		{"top of first bin", 63, 0},
		{"bottom of second bin", 64, 85},
		{"top of second bin", 127, 85},
		{"bottom of third bin", 128, 170},
		{"top of third bin", 191, 170},
		{"bottom of last bin", 192, 255},
		{"white", 255, 255},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Quantize(tt.in); got != tt.want {
				t.Errorf("Quantize(%d) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestQuantizeTotalAndMonotonic(t *testing.T) {
	prev := uint8(0)
	for p := 0; p <= 255; p++ {
		got := Quantize(uint8(p))
		if !IsLevel(got) {
			t.Fatalf("Quantize(%d) = %d, not one of %v", p, got, Levels)
		}
		if got < prev {
			t.Fatalf("Quantize(%d) = %d, smaller than Quantize(%d) = %d", p, got, p-1, prev)
		}
		prev = got
	}
}

func TestQuantizeIsIdempotent(t *testing.T) {
	for _, v := range Levels {
		if got := Quantize(v); got != v {
			t.Errorf("Quantize(%d) = %d, want level unchanged", v, got)
		}
	}
}

func TestIsLevel(t *testing.T) {
	count := 0
	for p := 0; p <= 255; p++ {
		if IsLevel(uint8(p)) {
			count++
		}
	}
	if count != 4 {
		t.Errorf("IsLevel accepted %d values, want 4", count)
	}
}

func TestGray2RGBA(t *testing.T) {
	tests := []struct {
		name string
		gray Gray2
		want uint32
	}{
		{"black", Gray2{Y: 0}, 0x0000},
		{"dark gray", Gray2{Y: 1}, 0x5555},
		{"light gray", Gray2{Y: 2}, 0xAAAA},
		{"white", Gray2{Y: 3}, 0xFFFF},
		{"mask ignored", Gray2{Y: 0xF3}, 0xFFFF}, // Only lower 2 bits used
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, g, b, a := tt.gray.RGBA()
			if r != tt.want || g != tt.want || b != tt.want || a != 0xFFFF {
				t.Errorf("RGBA() = (%x, %x, %x, %x), want (%x, %x, %x, %x)",
					r, g, b, a, tt.want, tt.want, tt.want, uint32(0xFFFF))
			}
		})
	}
}

func TestGray2Gray(t *testing.T) {
	for level, want := range Levels {
		if got := (Gray2{Y: uint8(level)}).Gray(); got != want {
			t.Errorf("Gray2{%d}.Gray() = %d, want %d", level, got, want)
		}
	}
}

func TestGray2ModelConvert(t *testing.T) {
	tests := []struct {
		name  string
		input color.Color
		want  uint8
	}{
		{"gray2 passthrough", Gray2{Y: 2}, 2},
		{"black", color.Black, 0},
		{"white", color.White, 3},
		{"gray rgb", color.RGBA{0x88, 0x88, 0x88, 0xFF}, 2},
		{"dark gray", color.Gray{Y: 100}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Gray2Model.Convert(tt.input).(Gray2)
			if result.Y != tt.want {
				t.Errorf("Gray2Model.Convert(%v).Y = %d, want %d", tt.input, result.Y, tt.want)
			}
		})
	}
}

func TestQuantizeGray(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 4, 2))
	copy(img.Pix, []uint8{10, 70, 130, 200, 63, 64, 191, 192})

	QuantizeGray(img, img.Bounds())

	want := []uint8{0, 85, 170, 255, 0, 85, 170, 255}
	for i, v := range img.Pix {
		if v != want[i] {
			t.Errorf("Pix[%d] = %d, want %d", i, v, want[i])
		}
	}
}

func TestQuantizeGrayRegionOnly(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 4, 1))
	copy(img.Pix, []uint8{100, 100, 100, 100})

	// Only the middle two pixels are quantized
	QuantizeGray(img, image.Rect(1, 0, 3, 1))

	want := []uint8{100, 85, 85, 100}
	for i, v := range img.Pix {
		if v != want[i] {
			t.Errorf("Pix[%d] = %d, want %d", i, v, want[i])
		}
	}
}

func TestIsQuantized(t *testing.T) {
	tests := []struct {
		name string
		pix  []uint8
		want bool
	}{
		{"levels", []uint8{0, 85, 170, 255}, true},
		{"white", []uint8{255, 255, 255, 255}, true},
		{"one off level", []uint8{0, 85, 171, 255}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := image.NewGray(image.Rect(0, 0, 2, 2))
			copy(img.Pix, tt.pix)
			if got := IsQuantized(img); got != tt.want {
				t.Errorf("IsQuantized() = %v, want %v", got, tt.want)
			}
		})
	}

	// Only pixels inside the sub-image count.
	img := image.NewGray(image.Rect(0, 0, 4, 1))
	copy(img.Pix, []uint8{0, 85, 170, 7})
	if !IsQuantized(img.SubImage(image.Rect(0, 0, 3, 1)).(*image.Gray)) {
		t.Error("IsQuantized(sub-image) = false, want true")
	}
}
