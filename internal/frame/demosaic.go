package frame

import "errors"

// RGBImage is a packed, planar-free RGB image at half the raw Bayer frame's
// resolution, the result of a demosaic pass. It plays the same role for
// post-demosaic RGB data that devices/lepton/image14bit.Gray14 plays for
// raw 14-bit thermal pixels in the teacher repo: a minimal pixel container
// with no behavior beyond indexed access.
type RGBImage struct {
	Width, Height int
	// Pix holds 3 bytes (R, G, B) per pixel, row-major.
	Pix []byte
}

// At returns the channel values at (x, y).
func (im *RGBImage) At(x, y int) (r, g, b byte) {
	i := (y*im.Width + x) * 3
	return im.Pix[i], im.Pix[i+1], im.Pix[i+2]
}

// DemosaicMethod names the algorithm used to turn a Bayer CFA buffer into
// an RGB image. Only AverageGreens is implemented; the others are named so
// that a future addition has a contract-compatible slot (§4.3: "the
// contract is that the chosen method is declared and recorded").
type DemosaicMethod string

// Supported and named-but-unimplemented demosaic methods.
const (
	AverageGreens DemosaicMethod = "average_greens"
	Menon2007     DemosaicMethod = "menon_2007"
	Malvar2004    DemosaicMethod = "malvar_2004"
	Bilinear      DemosaicMethod = "bilinear"
)

// Demosaic converts a Bayer RGGB8 frame to a half-resolution RGB image
// using the average-greens method (§4.3): the CFA is split into four
// per-channel subarrays at half resolution, the two green subarrays are
// averaged, and the result is (height/2, width/2, 3).
//
// Only AverageGreens is implemented; requesting any other method returns
// an error rather than silently falling back, so a caller can tell the
// difference between "not yet implemented" and "succeeded".
func Demosaic(f *Frame, method DemosaicMethod) (*RGBImage, error) {
	if f.Format != FormatBayerRGGB8 {
		return nil, errors.New("frame: demosaic requires a bayer_rggb8 frame")
	}
	if method != AverageGreens {
		return nil, errors.New("frame: demosaic method " + string(method) + " not implemented")
	}
	w2, h2 := f.Width/2, f.Height/2
	out := &RGBImage{Width: w2, Height: h2, Pix: make([]byte, w2*h2*3)}
	stride := f.Width
	for y := 0; y < h2; y++ {
		row0 := 2 * y * stride
		row1 := (2*y + 1) * stride
		for x := 0; x < w2; x++ {
			r := f.Pix[row0+2*x]
			g1 := f.Pix[row0+2*x+1]
			g2 := f.Pix[row1+2*x]
			b := f.Pix[row1+2*x+1]
			g := byte((uint16(g1) + uint16(g2)) / 2)
			i := (y*w2 + x) * 3
			out.Pix[i] = r
			out.Pix[i+1] = g
			out.Pix[i+2] = b
		}
	}
	return out, nil
}
