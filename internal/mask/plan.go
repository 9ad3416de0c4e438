package mask

import (
	"image"
	"math"
)

// Params are the active-circle parameters resolved once per image size, per
// §4.3: the default active circle at full resolution is centred at
// (1226, 1034) with radius 472 and an annulus margin of 100px; at half
// resolution (post average-greens demosaic) centre and radius are halved
// and the margin becomes 50px.
type Params struct {
	Centre image.Point
	Radius float64
	Margin float64
}

// DefaultParams returns the default active-circle parameters for an image
// of the given size, scaling from the full-resolution defaults the way
// §4.3 specifies for the half-resolution case.
func DefaultParams(width, height int) Params {
	const (
		fullCX, fullCY = 1226, 1034
		fullRadius     = 472
		fullMargin     = 100
		fullWidth      = 2452
	)
	scale := float64(width) / fullWidth
	return Params{
		Centre: image.Point{X: int(fullCX * scale), Y: int(fullCY * scale)},
		Radius: fullRadius * scale,
		Margin: fullMargin * scale,
	}
}

// Plan is a MaskPlan (§3): the active circle, its complementary outer
// annulus, four corner discs, and a ladder of concentric annuli spanning
// from the active radius to half the image diagonal.
type Plan struct {
	Width, Height int
	Params        Params

	ActiveCircle *Mask
	OuterAnnulus *Mask
	Corners      *Mask
	Rings        []*Mask
}

// Resolve builds a Plan for an image of the given size using p. Width and
// height are in pixels of the plane the mask applies to (the analyzer calls
// this once, lazily, on first demand — see internal/frame).
func Resolve(width, height int, p Params) *Plan {
	diag := math.Hypot(float64(width), float64(height)) / 2
	return &Plan{
		Width:        width,
		Height:       height,
		Params:       p,
		ActiveCircle: Circle(width, height, p.Centre, p.Radius),
		OuterAnnulus: Annulus(width, height, p.Centre, p.Radius+p.Margin, math.Inf(1)),
		Corners:      Corners(width, height, 2*p.Margin),
		Rings:        ConcentricRings(width, height, p.Centre, p.Radius, diag, p.Margin),
	}
}
