// Package image2bit provides the 4-level grayscale color used by the e-paper panel.
//
// The panel accepts exactly four luminance levels. They are stored as 8-bit gray
// values so that normalized images stay ordinary single channel PNG files:
//
//	Level:  0    1    2    3
//	Value:  0    85   170  255
//	Input:  0-63 64-127 128-191 192-255
//
// This package provides:
//
// - Quantize: the pixel quantizer mapping any 8-bit value onto one of the four values
// - Gray2: a color type holding a level (0-3)
// - Gray2Model: a color model converting standard Go colors to Gray2
// - QuantizeGray: in-place quantization of an *image.Gray
//
// Example usage:
//
//	// Quantize a single pixel
//	v := image2bit.Quantize(100) // 85
//
//	// Quantize a whole grayscale image
//	img := image.NewGray(image.Rect(0, 0, 480, 800))
//	image2bit.QuantizeGray(img, img.Bounds())
//
//	// Use with standard Go image operations
//	draw.Draw(img, img.Bounds(), image.NewUniform(image2bit.Gray2{Y: 3}), image.Point{}, draw.Src)
package image2bit
