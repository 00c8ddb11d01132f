// Package normalize converts arbitrary source images into panel-native
// bitmaps: a fixed-size single channel canvas, the source scaled to fit with
// its aspect ratio kept, centred on white, every pixel on one of the four
// levels of package image2bit.
package normalize

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/walltodo/walltodo/image2bit"
	"github.com/walltodo/walltodo/internal/fsutil"

	// Decoders for every extension accepted by IsImage.
	_ "image/gif"
	_ "image/jpeg"

	_ "golang.org/x/image/bmp"
)

// Portrait geometry of the stored images.
const (
	Width  = 480
	Height = 800
)

var extensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".bmp":  true,
}

// IsImage reports whether name has one of the recognized raster extensions
// (png, jpg, jpeg, gif, bmp; case-insensitive).
func IsImage(name string) bool {
	return extensions[strings.ToLower(filepath.Ext(name))]
}

// Normalizer letterboxes images onto a Width×Height canvas.
type Normalizer struct {
	Width  int
	Height int
}

// New returns a Normalizer for a canvas of the given size.
// Non-positive dimensions select the default 480×800.
func New(width, height int) *Normalizer {
	if width <= 0 || height <= 0 {
		width, height = Width, Height
	}
	return &Normalizer{Width: width, Height: height}
}

// Fit returns the scaled size of a srcW×srcH image and its top-left offset
// on the canvas.
//
// The scale is the same on both axes, min(Width/srcW, Height/srcH), and
// applies to images smaller than the canvas as well as larger ones. Scaled
// sizes are rounded half to even and kept within [1, canvas]. Offsets are
// floored, so odd padding puts the extra pixel on the right or bottom.
func (n *Normalizer) Fit(srcW, srcH int) (w, h, x, y int) {
	scale := math.Min(float64(n.Width)/float64(srcW), float64(n.Height)/float64(srcH))
	w = clamp(int(math.RoundToEven(float64(srcW)*scale)), 1, n.Width)
	h = clamp(int(math.RoundToEven(float64(srcH)*scale)), 1, n.Height)
	return w, h, (n.Width - w) / 2, (n.Height - h) / 2
}

// Normalize converts src to luminance, resizes it with a Lanczos filter to
// the size given by Fit, quantizes the resized pixels and composites them
// onto a white canvas. Transparent source pixels become white.
//
// An empty source yields a blank white canvas.
func (n *Normalizer) Normalize(src image.Image) *image.Gray {
	canvas := image.NewGray(image.Rect(0, 0, n.Width, n.Height))
	for i := range canvas.Pix {
		canvas.Pix[i] = 0xFF
	}

	b := src.Bounds()
	if b.Empty() {
		return canvas
	}

	if g, ok := src.(*image.Gray); ok && b.Dx() == n.Width && b.Dy() == n.Height && image2bit.IsQuantized(g) {
		// Already normalized.
		for y := 0; y < n.Height; y++ {
			copy(canvas.Pix[y*canvas.Stride:], g.Pix[g.PixOffset(b.Min.X, b.Min.Y+y):g.PixOffset(b.Max.X, b.Min.Y+y)])
		}
		return canvas
	}

	w, h, x0, y0 := n.Fit(b.Dx(), b.Dy())
	resized := imaging.Resize(imaging.Grayscale(src), w, h, imaging.Lanczos)

	for y := 0; y < h; y++ {
		row := resized.Pix[y*resized.Stride : y*resized.Stride+w*4]
		dst := canvas.Pix[canvas.PixOffset(x0, y0+y):]
		for x := 0; x < w; x++ {
			// Grayscale output has R == G == B.
			v, a := row[x*4], row[x*4+3]
			dst[x] = image2bit.Quantize(overWhite(v, a))
		}
	}
	return canvas
}

// overWhite flattens a non-premultiplied gray value with alpha onto white.
func overWhite(v, a uint8) uint8 {
	if a == 0xFF {
		return v
	}
	return uint8((uint32(v)*uint32(a) + 0xFF*uint32(0xFF-a) + 0x7F) / 0xFF)
}

// Decode reads an image file. JPEG orientation tags are applied so camera
// photos come out upright.
func Decode(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, err := imaging.Decode(f, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", filepath.Base(path), err)
	}
	return img, nil
}

// Encode writes img as a lossless PNG. *image.Gray is stored single channel.
func Encode(w io.Writer, img image.Image) error {
	return png.Encode(w, img)
}

// ConvertFile normalizes the image at in and writes it to out as PNG.
// out is replaced atomically; on error it is left untouched.
func (n *Normalizer) ConvertFile(in, out string) error {
	src, err := Decode(in)
	if err != nil {
		return err
	}
	img := n.Normalize(src)
	return fsutil.WriteAtomic(out, 0o644, func(w io.Writer) error {
		return Encode(w, img)
	})
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
