// Package render draws the task board: a dated header, one checkbox row per
// task and an update timestamp, on a portrait canvas quantized to the four
// panel levels.
package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/fogleman/gg"
	"github.com/walltodo/walltodo/image2bit"
	"github.com/walltodo/walltodo/internal/fsutil"
	"github.com/walltodo/walltodo/todoist"
)

const (
	Width           = 480
	Height          = 800
	DefaultFontSize = 28
	// MaxRunes is the longest task title shown before it is cut with "…".
	MaxRunes = 30
)

const ellipsis = "…"

// Renderer draws task boards. The zero value renders 480×800 with the
// built-in fonts in local time.
type Renderer struct {
	Width  int
	Height int

	// Fonts is used as is when set. Otherwise FontNames are loaded on the
	// first render, or the built-in fonts when FontNames is empty.
	Fonts     *FontSet
	FontNames []string
	FontSize  float64

	Location *time.Location
	Now      func() time.Time
	Logger   *slog.Logger
}

// Render draws tasks in order. Rows that do not fit are summarized by a
// "+N more" line; an empty list shows a placeholder line.
func (r *Renderer) Render(tasks []todoist.Task) (*image.Gray, error) {
	w, h := r.Width, r.Height
	if w <= 0 || h <= 0 {
		w, h = Width, Height
	}
	size := r.FontSize
	if size <= 0 {
		size = DefaultFontSize
	}
	fonts := r.fonts()

	title, err := fonts.BoldFace(size * 1.6)
	if err != nil {
		return nil, err
	}
	defer title.Close()
	body, err := fonts.Face(size)
	if err != nil {
		return nil, err
	}
	defer body.Close()
	small, err := fonts.Face(size * 0.6)
	if err != nil {
		return nil, err
	}
	defer small.Close()

	now := r.now()
	W, H := float64(w), float64(h)
	margin := W * 0.07

	dc := gg.NewContext(w, h)
	dc.SetColor(color.White)
	dc.Clear()
	dc.SetColor(color.Black)

	// Header
	y := margin + float64(title.Metrics().Ascent.Ceil())
	dc.SetFontFace(title)
	dc.DrawString(now.Format("Mon 01.02"), margin, y)
	y += size * 0.6
	dc.SetLineWidth(3)
	dc.DrawLine(margin, y, W-margin, y)
	dc.Stroke()
	y += size * 0.6

	// Footer
	footerY := H - margin
	dc.SetFontFace(small)
	dc.SetColor(image2bit.Gray2{Y: 1})
	dc.DrawStringAnchored("updated "+now.Format("01.02 15:04"), W-margin, footerY, 1, 0)
	dc.SetColor(color.Black)

	// Tasks
	dc.SetFontFace(body)
	bottom := footerY - size*1.2
	if len(tasks) == 0 {
		dc.DrawStringAnchored("No tasks today", W/2, (y+bottom)/2, 0.5, 0.5)
	}
	rowH := size * 2
	box := size * 0.75
	textX := margin + box + size*0.6
	rows := max(int((bottom-y)/rowH), 1)
	shown := tasks
	if len(tasks) > rows {
		shown = tasks[:rows-1]
	}
	for i, t := range shown {
		baseline := y + rowH*float64(i) + size*1.3
		dc.SetLineWidth(2)
		dc.DrawRectangle(margin, baseline-box, box, box)
		dc.Stroke()
		dc.DrawString(fitWidth(dc, Truncate(t.Content(), MaxRunes), W-margin-textX), textX, baseline)
	}
	if more := len(tasks) - len(shown); more > 0 {
		baseline := y + rowH*float64(len(shown)) + size*1.3
		dc.DrawString(fmt.Sprintf("+%d more", more), textX, baseline)
	}

	src := dc.Image()
	out := image.NewGray(image.Rect(0, 0, w, h))
	draw.Draw(out, out.Rect, src, src.Bounds().Min, draw.Src)
	image2bit.QuantizeGray(out, out.Rect)
	return out, nil
}

// RenderFile renders tasks and writes the result to path as PNG, atomically.
func (r *Renderer) RenderFile(tasks []todoist.Task, path string) error {
	img, err := r.Render(tasks)
	if err != nil {
		return err
	}
	return fsutil.WriteAtomic(path, 0o644, func(w io.Writer) error {
		return png.Encode(w, img)
	})
}

func (r *Renderer) fonts() *FontSet {
	if r.Fonts == nil {
		if len(r.FontNames) > 0 {
			r.Fonts = LoadFonts(r.FontNames, r.Logger)
		} else {
			r.Fonts = BuiltinFonts()
		}
	}
	return r.Fonts
}

func (r *Renderer) now() time.Time {
	now := time.Now()
	if r.Now != nil {
		now = r.Now()
	}
	if r.Location != nil {
		now = now.In(r.Location)
	}
	return now
}

// Truncate cuts s to n runes followed by "…" when it is longer than n.
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n]) + ellipsis
}

// fitWidth shortens s until it is at most maxW wide in the current face.
func fitWidth(dc *gg.Context, s string, maxW float64) string {
	if w, _ := dc.MeasureString(s); w <= maxW {
		return s
	}
	runes := []rune(s)
	if n := len(runes); n > 0 && string(runes[n-1:]) == ellipsis {
		runes = runes[:n-1]
	}
	for len(runes) > 0 {
		runes = runes[:len(runes)-1]
		t := string(runes) + ellipsis
		if w, _ := dc.MeasureString(t); w <= maxW {
			return t
		}
	}
	return ellipsis
}
