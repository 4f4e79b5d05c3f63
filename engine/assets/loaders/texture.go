package loaders

import (
	"fmt"

	"github.com/spaghettifunk/anima-tessellation/engine/core"
	"github.com/spaghettifunk/anima-tessellation/engine/resources"
)

// TextureLoader decodes an image into tightly packed RGBA8 pixels.
type TextureLoader struct{}

func (tl *TextureLoader) Load(path string, params interface{}) (*resources.Resource, error) {
	var p resources.ImageResourceParams
	if typed, ok := params.(*resources.ImageResourceParams); ok && typed != nil {
		p = *typed
	}

	img, format, err := decodeImage(path)
	if err != nil {
		return nil, fmt.Errorf("texture %s: %w: %w", path, err, core.ErrTextureNotFound)
	}
	img = fitExtent(img, p.MaxExtent)
	if p.FlipY {
		flipRows(img)
	}
	core.LogDebug("loaded %s texture %s (%dx%d)", format, path, img.Rect.Dx(), img.Rect.Dy())

	// The upload expects no row padding.
	pixels := img.Pix
	if img.Stride != img.Rect.Dx()*4 {
		pixels = make([]uint8, 0, img.Rect.Dx()*img.Rect.Dy()*4)
		for y := 0; y < img.Rect.Dy(); y++ {
			pixels = append(pixels, img.Pix[y*img.Stride:y*img.Stride+img.Rect.Dx()*4]...)
		}
	}

	return &resources.Resource{
		Type:     resources.ResourceTypeImage,
		Name:     resourceName(path),
		FullPath: path,
		DataSize: uint64(len(pixels)),
		Data: &resources.ImageResourceData{
			Width:  uint32(img.Rect.Dx()),
			Height: uint32(img.Rect.Dy()),
			Pixels: pixels,
		},
	}, nil
}

func (tl *TextureLoader) Unload(resource *resources.Resource) error {
	resource.Data = nil
	resource.DataSize = 0
	return nil
}
