package loaders

import (
	"image"
	"image/draw"
	"os"

	// Decoders for image.Decode.
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	xdraw "golang.org/x/image/draw"
)

// decodeImage opens path and converts whatever format it holds to RGBA.
func decodeImage(path string) (*image.RGBA, string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, "", err
	}
	defer file.Close()

	img, format, err := image.Decode(file)
	if err != nil {
		return nil, "", err
	}
	if rgba, ok := img.(*image.RGBA); ok && rgba.Rect.Min == (image.Point{}) {
		return rgba, format, nil
	}
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	return rgba, format, nil
}

// fitExtent resamples img so neither edge exceeds maxExtent, keeping the
// aspect ratio.
func fitExtent(img *image.RGBA, maxExtent uint32) *image.RGBA {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	if maxExtent == 0 || (w <= int(maxExtent) && h <= int(maxExtent)) {
		return img
	}
	scale := float64(maxExtent) / float64(max(w, h))
	dw := max(1, int(float64(w)*scale))
	dh := max(1, int(float64(h)*scale))

	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), xdraw.Src, nil)
	return dst
}

func flipRows(img *image.RGBA) {
	h := img.Rect.Dy()
	row := make([]uint8, img.Stride)
	for y := 0; y < h/2; y++ {
		top := img.Pix[y*img.Stride : (y+1)*img.Stride]
		bottom := img.Pix[(h-1-y)*img.Stride : (h-y)*img.Stride]
		copy(row, top)
		copy(top, bottom)
		copy(bottom, row)
	}
}
