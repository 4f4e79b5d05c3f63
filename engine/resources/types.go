package resources

import (
	"image"
)

type ResourceType int

/** @brief Pre-defined resource types. */
const (
	/** @brief Files the asset manager does not track. */
	ResourceTypeNone ResourceType = iota
	/** @brief TOML configuration. */
	ResourceTypeConfig
	/** @brief Compiled SPIR-V shader module. */
	ResourceTypeShader
	/** @brief Decodable image, used as texture. */
	ResourceTypeImage
	/** @brief AngelCode bitmap font descriptor. */
	ResourceTypeBitmapFont
)

func (rt ResourceType) String() string {
	switch rt {
	case ResourceTypeConfig:
		return "config"
	case ResourceTypeShader:
		return "shader"
	case ResourceTypeImage:
		return "image"
	case ResourceTypeBitmapFont:
		return "bitmap font"
	}
	return "none"
}

/** @brief The SPIR-V magic number, first word of every module. */
const SPIRVMagic uint32 = 0x07230203

/**
 * @brief A generic structure for a resource. All resource loaders
 * load data into these.
 */
type Resource struct {
	Type ResourceType
	/** @brief The name of the resource. */
	Name string
	/** @brief The full file path of the resource. */
	FullPath string
	/** @brief The size of the resource data in bytes. */
	DataSize uint64
	/** @brief The resource data, one of the *ResourceData types below. */
	Data interface{}
}

type ShaderResourceData struct {
	/** @brief SPIR-V words, host endian. */
	Code []uint32
}

/** @brief Parameters for loading a texture image. */
type ImageResourceParams struct {
	/** @brief Flip the image rows on load. */
	FlipY bool
	/** @brief Largest accepted edge in pixels. Bigger images are resampled down. 0 keeps the size. */
	MaxExtent uint32
}

type ImageResourceData struct {
	Width  uint32
	Height uint32
	/** @brief Tightly packed RGBA8 pixels. */
	Pixels []uint8
}

// RGBA wraps the pixels without copying.
func (d *ImageResourceData) RGBA() *image.RGBA {
	return &image.RGBA{
		Pix:    d.Pixels,
		Stride: int(d.Width) * 4,
		Rect:   image.Rect(0, 0, int(d.Width), int(d.Height)),
	}
}

type FontGlyph struct {
	Codepoint int32
	X         uint16
	Y         uint16
	Width     uint16
	Height    uint16
	XOffset   int16
	YOffset   int16
	XAdvance  int16
	PageID    uint8
}

type FontKerning struct {
	Codepoint0 int32
	Codepoint1 int32
	Amount     int16
}

type BitmapFontPage struct {
	ID    int8
	File  string
	Image *image.RGBA
}

/** @brief A bitmap font with its page atlases decoded. */
type BitmapFontResourceData struct {
	Face       string
	Size       uint32
	LineHeight int32
	Baseline   int32
	AtlasSizeX int32
	AtlasSizeY int32
	Glyphs     map[int32]*FontGlyph
	Kernings   []*FontKerning
	Pages      []*BitmapFontPage
}

// Kerning returns the advance adjustment between two codepoints.
func (f *BitmapFontResourceData) Kerning(a, b int32) int16 {
	for _, k := range f.Kernings {
		if k.Codepoint0 == a && k.Codepoint1 == b {
			return k.Amount
		}
	}
	return 0
}

// Page returns the page with the given id, or nil.
func (f *BitmapFontResourceData) Page(id uint8) *BitmapFontPage {
	for _, p := range f.Pages {
		if p.ID == int8(id) {
			return p
		}
	}
	return nil
}
