package core

import (
	"fmt"
	"image"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// HUDVertex matches the vertex input of text.wgsl.
type HUDVertex struct {
	Pos   [2]float32 // NDC
	UV    [2]float32
	Color [4]float32
}

// HUDLine is one line of overlay text anchored at a pixel position
// (top-left origin).
type HUDLine struct {
	Text  string
	X, Y  float32
	Color [4]float32
}

type glyph struct {
	uvMin, uvMax [2]float32
	size         [2]float32
	offset       [2]float32
	advance      float32
}

// GlyphAtlas is a single-channel atlas of printable ASCII glyphs.
type GlyphAtlas struct {
	Image      *image.Alpha
	glyphs     map[rune]glyph
	ascent     float32
	lineHeight float32
}

const atlasSize = 512

// NewGlyphAtlas rasterizes the Go Regular font at size points.
func NewGlyphAtlas(size float64) (*GlyphAtlas, error) {
	return NewGlyphAtlasFromTTF(goregular.TTF, size)
}

func NewGlyphAtlasFromTTF(ttf []byte, size float64) (*GlyphAtlas, error) {
	f, err := opentype.Parse(ttf)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font: %w", err)
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create face: %w", err)
	}
	defer face.Close()

	a := &GlyphAtlas{
		Image:  image.NewAlpha(image.Rect(0, 0, atlasSize, atlasSize)),
		glyphs: make(map[rune]glyph),
	}
	m := face.Metrics()
	a.ascent = float32(m.Ascent.Ceil())
	a.lineHeight = float32(m.Height.Ceil())

	x, y, rowHeight := 2, 2, 0
	for r := rune(32); r < 127; r++ {
		bounds, mask, maskp, adv, ok := face.Glyph(fixed.Point26_6{}, r)
		if !ok {
			continue
		}
		w, h := bounds.Dx(), bounds.Dy()
		if x+w >= atlasSize {
			x = 2
			y += rowHeight + 4
			rowHeight = 0
		}
		if y+h >= atlasSize {
			return nil, fmt.Errorf("glyph atlas full at %q", r)
		}

		draw.Draw(a.Image, image.Rect(x, y, x+w, y+h), mask, maskp, draw.Src)
		a.glyphs[r] = glyph{
			uvMin:   [2]float32{float32(x) / atlasSize, float32(y) / atlasSize},
			uvMax:   [2]float32{float32(x+w) / atlasSize, float32(y+h) / atlasSize},
			size:    [2]float32{float32(w), float32(h)},
			offset:  [2]float32{float32(bounds.Min.X), float32(bounds.Min.Y)},
			advance: float32(adv) / 64,
		}

		x += w + 4
		if h > rowHeight {
			rowHeight = h
		}
	}
	return a, nil
}

func (a *GlyphAtlas) LineHeight() float32 { return a.lineHeight }

// Measure returns the pixel width of the widest line of text.
func (a *GlyphAtlas) Measure(text string) float32 {
	var width, line float32
	for _, r := range text {
		if r == '\n' {
			line = 0
			continue
		}
		line += a.glyphs[r].advance
		if line > width {
			width = line
		}
	}
	return width
}

// Layout builds two triangles per visible glyph for a screen of the given
// pixel size. Runes without a glyph are skipped.
func (a *GlyphAtlas) Layout(lines []HUDLine, screenW, screenH int) []HUDVertex {
	if screenW <= 0 || screenH <= 0 {
		return nil
	}
	sw, sh := float32(screenW), float32(screenH)
	toNDC := func(px, py float32) [2]float32 {
		return [2]float32{px/sw*2 - 1, 1 - py/sh*2}
	}

	var out []HUDVertex
	for _, l := range lines {
		penX, baseline := l.X, l.Y+a.ascent
		for _, r := range l.Text {
			if r == '\n' {
				penX = l.X
				baseline += a.lineHeight
				continue
			}
			g, ok := a.glyphs[r]
			if !ok {
				continue
			}
			if g.size[0] > 0 && g.size[1] > 0 {
				p0 := toNDC(penX+g.offset[0], baseline+g.offset[1])
				p1 := toNDC(penX+g.offset[0]+g.size[0], baseline+g.offset[1]+g.size[1])
				tl := HUDVertex{Pos: p0, UV: g.uvMin, Color: l.Color}
				tr := HUDVertex{Pos: [2]float32{p1[0], p0[1]}, UV: [2]float32{g.uvMax[0], g.uvMin[1]}, Color: l.Color}
				bl := HUDVertex{Pos: [2]float32{p0[0], p1[1]}, UV: [2]float32{g.uvMin[0], g.uvMax[1]}, Color: l.Color}
				br := HUDVertex{Pos: p1, UV: g.uvMax, Color: l.Color}
				out = append(out, tl, tr, bl, tr, br, bl)
			}
			penX += g.advance
		}
	}
	return out
}
