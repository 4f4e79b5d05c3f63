// Package capture annotates read-back frames and writes them to disk.
package capture

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/spaghettifunk/anima-tessellation/engine/core"
	"github.com/spaghettifunk/anima-tessellation/engine/renderer/metadata"
	"github.com/spaghettifunk/anima-tessellation/engine/resources"
	"github.com/spaghettifunk/anima-tessellation/engine/tessellation"
	"golang.org/x/image/bmp"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/tiff"
)

const margin = 4

var (
	captionInk        = image.NewUniform(color.RGBA{A: 255})
	captionBackground = image.NewUniform(color.RGBA{R: 255, G: 255, B: 255, A: 200})
)

// Caption describes the state a frame was rendered with.
func Caption(patchType tessellation.PatchType, factor float32, mode metadata.FillMode) string {
	return fmt.Sprintf("%s patches  factor %g  %s", patchType, factor, mode)
}

// Annotate draws text in the top left corner of img. With a nil font the
// built-in 7x13 face is used.
func Annotate(img *image.RGBA, text string, bf *resources.BitmapFontResourceData) {
	if bf == nil {
		annotateBasic(img, text)
		return
	}
	annotateBitmap(img, text, bf)
}

func annotateBasic(img *image.RGBA, text string) {
	face := basicfont.Face7x13
	width := font.MeasureString(face, text).Ceil()
	metrics := face.Metrics()
	height := (metrics.Ascent + metrics.Descent).Ceil()

	origin := img.Rect.Min
	box := image.Rect(0, 0, width+2*margin, height+2*margin).Add(origin)
	draw.Draw(img, box, captionBackground, image.Point{}, draw.Over)

	d := &font.Drawer{
		Dst:  img,
		Src:  captionInk,
		Face: face,
		Dot:  fixed.P(origin.X+margin, origin.Y+margin+metrics.Ascent.Ceil()),
	}
	d.DrawString(text)
}

func annotateBitmap(img *image.RGBA, text string, bf *resources.BitmapFontResourceData) {
	width := measureBitmap(text, bf)
	origin := img.Rect.Min
	box := image.Rect(0, 0, width+2*margin, int(bf.LineHeight)+2*margin).Add(origin)
	draw.Draw(img, box, captionBackground, image.Point{}, draw.Over)

	pen := image.Pt(origin.X+margin, origin.Y+margin)
	var prev int32 = -1
	for _, r := range text {
		g, ok := bf.Glyphs[int32(r)]
		if !ok {
			core.LogDebug("caption font %s has no glyph for %q", bf.Face, r)
			prev = -1
			continue
		}
		if prev >= 0 {
			pen.X += int(bf.Kerning(prev, g.Codepoint))
		}
		if page := bf.Page(g.PageID); page != nil && g.Width > 0 && g.Height > 0 {
			src := image.Rect(int(g.X), int(g.Y), int(g.X)+int(g.Width), int(g.Y)+int(g.Height))
			dst := image.Rect(0, 0, int(g.Width), int(g.Height)).Add(pen.Add(image.Pt(int(g.XOffset), int(g.YOffset))))
			draw.Draw(img, dst, page.Image, src.Min, draw.Over)
		}
		pen.X += int(g.XAdvance)
		prev = g.Codepoint
	}
}

func measureBitmap(text string, bf *resources.BitmapFontResourceData) int {
	width := 0
	var prev int32 = -1
	for _, r := range text {
		g, ok := bf.Glyphs[int32(r)]
		if !ok {
			prev = -1
			continue
		}
		if prev >= 0 {
			width += int(bf.Kerning(prev, g.Codepoint))
		}
		width += int(g.XAdvance)
		prev = g.Codepoint
	}
	return width
}

// Save encodes img by the extension of path: .png, .bmp, .tif or .tiff.
func Save(path string, img image.Image) error {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".png", ".bmp", ".tif", ".tiff":
	default:
		return fmt.Errorf("capture format %q: %w", ext, core.ErrInvalidParameter)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	switch ext {
	case ".png":
		err = png.Encode(f, img)
	case ".bmp":
		err = bmp.Encode(f, img)
	default:
		err = tiff.Encode(f, img, &tiff.Options{Compression: tiff.Deflate})
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("writing capture %s: %w", path, err)
	}
	core.LogInfo("capture written to %s", path)
	return nil
}
