package render

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"os"
	"strings"

	"github.com/flopp/go-findfont"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
)

// fallbackFonts are tried after the requested fonts so that task titles in
// Japanese and other scripts still find glyphs.
var fallbackFonts = []string{
	// linux
	"NotoSansCJK-Regular.ttc", "NotoSansJP-Regular", "NotoSansCJKjp-Regular",
	"IPAexGothic", "ipagp", "DroidSansFallbackFull", "DejaVuSans",
	// macOS
	"Hiragino Sans GB", "AppleSDGothicNeo", "Apple Symbols",
	// windows
	"YuGothM", "msgothic", "Segoe UI", "Segoe UI Symbol",
}

// AppendFallbackFonts appends the fallback font names to names.
func AppendFallbackFonts(names []string) []string {
	return append(append([]string(nil), names...), fallbackFonts...)
}

// glyphCacheSize bounds the rune to face lookup cache of each Face.
const glyphCacheSize = 4096

// FontSet is an ordered list of fonts. A rune is drawn with the first font
// that has a glyph for it. The Go fonts are always at the end of the list.
type FontSet struct {
	Names []string // names of the fonts that loaded, in order
	fonts []*sfnt.Font
	bold  *sfnt.Font
}

// BuiltinFonts returns a FontSet holding only the embedded Go fonts.
func BuiltinFonts() *FontSet {
	s := &FontSet{}
	s.appendBuiltin()
	return s
}

// LoadFonts resolves each name with go-findfont, falling back to reading it
// as a file path, and parses it. Fonts that fail to load are logged and
// skipped.
func LoadFonts(names []string, logger *slog.Logger) *FontSet {
	if logger == nil {
		logger = slog.Default()
	}
	s := &FontSet{}
	for _, name := range names {
		fnt, err := loadFont(name)
		if err != nil {
			logger.LogAttrs(context.Background(), slog.LevelDebug, "FontSet.load",
				slog.String("name", name), slog.String("err", err.Error()))
			continue
		}
		logger.LogAttrs(context.Background(), slog.LevelDebug, "FontSet.load", slog.String("name", name))
		s.Names = append(s.Names, name)
		s.fonts = append(s.fonts, fnt)
	}
	s.appendBuiltin()
	return s
}

func (s *FontSet) appendBuiltin() {
	regular, err := opentype.Parse(goregular.TTF)
	if err != nil {
		panic(err)
	}
	bold, err := opentype.Parse(gobold.TTF)
	if err != nil {
		panic(err)
	}
	s.Names = append(s.Names, "Go Regular")
	s.fonts = append(s.fonts, regular)
	s.bold = bold
}

func loadFont(name string) (*sfnt.Font, error) {
	path, err := findfont.Find(name)
	if err != nil {
		path = name
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	lower := strings.ToLower(path)
	if strings.HasSuffix(lower, ".ttc") || strings.HasSuffix(lower, ".otc") {
		coll, err := opentype.ParseCollection(data)
		if err != nil {
			return nil, err
		}
		if coll.NumFonts() == 0 {
			return nil, fmt.Errorf("%s: empty font collection", path)
		}
		return coll.Font(0)
	}
	return opentype.Parse(data)
}

// Face returns a face of the given size in points (72 DPI) that draws each
// rune with the first font that has it.
func (s *FontSet) Face(size float64) (font.Face, error) {
	return s.face(s.fonts, size)
}

// BoldFace is like Face with Go Bold in front of the list.
func (s *FontSet) BoldFace(size float64) (font.Face, error) {
	fonts := s.fonts
	if s.bold != nil {
		fonts = append([]*sfnt.Font{s.bold}, fonts...)
	}
	return s.face(fonts, size)
}

func (s *FontSet) face(fonts []*sfnt.Font, size float64) (font.Face, error) {
	if len(fonts) == 0 {
		return nil, fmt.Errorf("render: empty font set")
	}
	opts := &opentype.FaceOptions{Size: size, DPI: 72, Hinting: font.HintingFull}
	faces := make([]font.Face, 0, len(fonts))
	for _, f := range fonts {
		face, err := opentype.NewFace(f, opts)
		if err != nil {
			return nil, err
		}
		faces = append(faces, face)
	}
	return newMultiFace(fonts, faces), nil
}

// multiFace implements font.Face over several faces, picking per rune.
type multiFace struct {
	fonts []*sfnt.Font
	faces []font.Face
	buf   sfnt.Buffer
	cache *lru.Cache[rune, int]
}

func newMultiFace(fonts []*sfnt.Font, faces []font.Face) *multiFace {
	cache, err := lru.New[rune, int](glyphCacheSize)
	if err != nil {
		panic(err)
	}
	return &multiFace{fonts: fonts, faces: faces, cache: cache}
}

// index returns the first face with a glyph for r, or 0 when none has one.
func (m *multiFace) index(r rune) int {
	if i, ok := m.cache.Get(r); ok {
		return i
	}
	i := 0
	for j, f := range m.fonts {
		if x, err := f.GlyphIndex(&m.buf, r); err == nil && x != 0 {
			i = j
			break
		}
	}
	m.cache.Add(r, i)
	return i
}

func (m *multiFace) Close() error {
	for _, f := range m.faces {
		f.Close()
	}
	return nil
}

func (m *multiFace) Glyph(dot fixed.Point26_6, r rune) (image.Rectangle, image.Image, image.Point, fixed.Int26_6, bool) {
	return m.faces[m.index(r)].Glyph(dot, r)
}

func (m *multiFace) GlyphBounds(r rune) (fixed.Rectangle26_6, fixed.Int26_6, bool) {
	return m.faces[m.index(r)].GlyphBounds(r)
}

func (m *multiFace) GlyphAdvance(r rune) (fixed.Int26_6, bool) {
	return m.faces[m.index(r)].GlyphAdvance(r)
}

func (m *multiFace) Kern(r0, r1 rune) fixed.Int26_6 {
	i := m.index(r0)
	if i != m.index(r1) {
		return 0
	}
	return m.faces[i].Kern(r0, r1)
}

func (m *multiFace) Metrics() font.Metrics {
	return m.faces[0].Metrics()
}
