package capture

import (
	"errors"
	"image"
	"image/color"
	"image/draw"
	"os"
	"path/filepath"
	"testing"

	"github.com/spaghettifunk/anima-tessellation/engine/core"
	"github.com/spaghettifunk/anima-tessellation/engine/renderer/metadata"
	"github.com/spaghettifunk/anima-tessellation/engine/resources"
	"github.com/spaghettifunk/anima-tessellation/engine/tessellation"
)

func white(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)
	return img
}

func darkPixels(img *image.RGBA, r image.Rectangle) int {
	n := 0
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if img.RGBAAt(x, y).R < 128 {
				n++
			}
		}
	}
	return n
}

func TestCaption(t *testing.T) {
	got := Caption(tessellation.PatchTypeQuad, 8, metadata.FillModeWireframe)
	if want := "quad patches  factor 8  wireframe"; got != want {
		t.Errorf("Caption = %q, want %q", got, want)
	}
}

func TestAnnotateBasicFont(t *testing.T) {
	img := white(200, 50)
	Annotate(img, "factor 8", nil)
	if darkPixels(img, image.Rect(0, 0, 80, 25)) == 0 {
		t.Error("no caption ink in the top left corner")
	}
	if darkPixels(img, image.Rect(100, 25, 200, 50)) != 0 {
		t.Error("caption leaked outside its corner")
	}
}

func TestAnnotateBitmapFont(t *testing.T) {
	page := image.NewRGBA(image.Rect(0, 0, 16, 16))
	draw.Draw(page, image.Rect(0, 0, 8, 8), image.NewUniform(color.RGBA{A: 255}), image.Point{}, draw.Src)
	bf := &resources.BitmapFontResourceData{
		Face:       "Test",
		LineHeight: 10,
		Glyphs: map[int32]*resources.FontGlyph{
			'A': {Codepoint: 'A', Width: 8, Height: 8, XAdvance: 9},
		},
		Kernings: []*resources.FontKerning{{Codepoint0: 'A', Codepoint1: 'A', Amount: -2}},
		Pages:    []*resources.BitmapFontPage{{ID: 0, Image: page}},
	}
	if w := measureBitmap("AA", bf); w != 16 {
		t.Errorf("measureBitmap = %d, want 16", w)
	}

	img := white(64, 32)
	Annotate(img, "A?", bf)
	if got := darkPixels(img, image.Rect(margin, margin, margin+8, margin+8)); got != 64 {
		t.Errorf("glyph covered %d pixels, want 64", got)
	}
}

func TestSaveByExtension(t *testing.T) {
	dir := t.TempDir()
	img := white(4, 4)
	for _, name := range []string{"frame.png", "frame.bmp", "frame.tiff"} {
		path := filepath.Join(dir, name)
		if err := Save(path, img); err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		f, err := os.Open(path)
		if err != nil {
			t.Fatal(err)
		}
		_, format, err := image.DecodeConfig(f)
		f.Close()
		if err != nil {
			t.Errorf("%s: %v", name, err)
			continue
		}
		if want := filepath.Ext(name)[1:]; format != want {
			t.Errorf("%s decoded as %s", name, format)
		}
	}
}

func TestSaveRejectsUnknownFormat(t *testing.T) {
	err := Save(filepath.Join(t.TempDir(), "frame.gif"), white(1, 1))
	if !errors.Is(err, core.ErrInvalidParameter) {
		t.Errorf("err = %v, want ErrInvalidParameter", err)
	}
}
