package session

import (
	"image"
	"image/color"

	"github.com/pkg/errors"

	"github.com/ru-wallace/triton/internal/frame"
)

// frameToImage renders a Frame's raw buffer as an image.Image suitable for
// PNG encoding: image.Gray for monochrome, demosaiced RGB (via
// average-greens) for Bayer (§6 "PNG, 8-bit, monochrome or RGB as
// appropriate").
func frameToImage(f *frame.Frame) (image.Image, error) {
	switch f.Format {
	case frame.FormatMono8:
		img := image.NewGray(image.Rect(0, 0, f.Width, f.Height))
		copy(img.Pix, f.Pix)
		return img, nil
	case frame.FormatBayerRGGB8:
		rgb, err := frame.Demosaic(f, frame.AverageGreens)
		if err != nil {
			return nil, errors.Wrap(err, "session: demosaicing frame for PNG encode")
		}
		img := image.NewRGBA(image.Rect(0, 0, rgb.Width, rgb.Height))
		for y := 0; y < rgb.Height; y++ {
			for x := 0; x < rgb.Width; x++ {
				r, g, b := rgb.At(x, y)
				img.SetRGBA(x, y, color.RGBA{R: r, G: g, B: b, A: 255})
			}
		}
		return img, nil
	default:
		return nil, errors.Errorf("session: unsupported pixel format %v for PNG encode", f.Format)
	}
}
