package loaders

import (
	"fmt"
	"path/filepath"

	"github.com/fzipp/bmfont"
	"github.com/spaghettifunk/anima-tessellation/engine/resources"
)

// BitmapFontLoader imports AngelCode .fnt descriptors and their page atlases.
type BitmapFontLoader struct{}

func (fl *BitmapFontLoader) Load(path string, params interface{}) (*resources.Resource, error) {
	if filepath.Ext(path) != ".fnt" {
		return nil, fmt.Errorf("unsupported bitmap font file %s", path)
	}
	data, err := fl.importFNTFile(path)
	if err != nil {
		return nil, err
	}
	return &resources.Resource{
		Type:     resources.ResourceTypeBitmapFont,
		Name:     resourceName(path),
		FullPath: path,
		Data:     data,
		DataSize: uint64(len(data.Glyphs)),
	}, nil
}

func (fl *BitmapFontLoader) Unload(resource *resources.Resource) error {
	if resource.Data != nil {
		data := resource.Data.(*resources.BitmapFontResourceData)
		data.Glyphs = nil
		data.Pages = nil
		data.Kernings = nil
		resource.Data = nil
		resource.DataSize = 0
		resource.FullPath = ""
	}
	return nil
}

func (fl *BitmapFontLoader) importFNTFile(fntFileName string) (*resources.BitmapFontResourceData, error) {
	font, err := bmfont.Load(fntFileName)
	if err != nil {
		return nil, err
	}

	outData := &resources.BitmapFontResourceData{
		Face:       font.Descriptor.Info.Face,
		Size:       uint32(font.Descriptor.Info.Size),
		LineHeight: int32(font.Descriptor.Common.LineHeight),
		Baseline:   int32(font.Descriptor.Common.Base),
		AtlasSizeX: int32(font.Descriptor.Common.ScaleW),
		AtlasSizeY: int32(font.Descriptor.Common.ScaleH),
		Glyphs:     make(map[int32]*resources.FontGlyph, len(font.Descriptor.Chars)),
		Kernings:   make([]*resources.FontKerning, 0, len(font.Descriptor.Kerning)),
		Pages:      make([]*resources.BitmapFontPage, 0, len(font.Descriptor.Pages)),
	}

	// Page files are relative to the descriptor.
	dir := filepath.Dir(fntFileName)
	for _, p := range font.Descriptor.Pages {
		img, _, err := decodeImage(filepath.Join(dir, p.File))
		if err != nil {
			return nil, fmt.Errorf("font page %d of %s: %w", p.ID, fntFileName, err)
		}
		outData.Pages = append(outData.Pages, &resources.BitmapFontPage{
			ID:    int8(p.ID),
			File:  p.File,
			Image: img,
		})
	}

	for _, g := range font.Descriptor.Chars {
		outData.Glyphs[int32(g.ID)] = &resources.FontGlyph{
			Codepoint: int32(g.ID),
			Height:    uint16(g.Height),
			Width:     uint16(g.Width),
			X:         uint16(g.X),
			Y:         uint16(g.Y),
			XAdvance:  int16(g.XAdvance),
			XOffset:   int16(g.XOffset),
			YOffset:   int16(g.YOffset),
			PageID:    uint8(g.Page),
		}
	}

	for p, k := range font.Descriptor.Kerning {
		outData.Kernings = append(outData.Kernings, &resources.FontKerning{
			Amount:     int16(k.Amount),
			Codepoint0: int32(p.First),
			Codepoint1: int32(p.Second),
		})
	}

	return outData, nil
}
