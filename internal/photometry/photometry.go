// Package photometry linearizes sRGB channel means and derives relative and
// unscaled absolute luminance from them, per §4.3. It is a pure function
// library, with no dependency on image decoding or masking — the same
// layering periph.io/x/periph keeps between conn/physic (unit math) and the
// devices that produce the readings.
package photometry

import "math"

// sRGB to CIE XYZ conversion matrix, Y row only (IEC 61966-2-1:1999/AMD1:2003
// §5.2), since only relative luminance (Y) is required.
const (
	yR = 0.2126729
	yG = 0.7151522
	yB = 0.0721750
)

// Linearize applies the sRGB electro-optical transfer function inverse
// (gamma decoding) to a channel value normalized to [0, 1].
func Linearize(c float64) float64 {
	if c <= 0.04045 {
		return c / 12.92
	}
	return math.Pow((c+0.055)/1.055, 2.4)
}

// RelativeLuminanceRGB computes the Y component of CIE XYZ from the three
// per-channel masked means (each normalized to [0, 1] before linearizing),
// per §4.3.
func RelativeLuminanceRGB(meanR, meanG, meanB float64) float64 {
	r := Linearize(meanR)
	g := Linearize(meanG)
	b := Linearize(meanB)
	return yR*r + yG*g + yB*b
}

// RelativeLuminanceMono computes relative luminance for a monochrome frame:
// masked mean divided by the 8-bit full scale, per §4.3.
func RelativeLuminanceMono(mean float64) float64 {
	return mean / 255
}

// AbsoluteLuminance computes the unscaled absolute luminance per
// ISO 2720:1974: L * N^2 / (S * t), where N is aperture, t is integration
// time in seconds, S is ISO sensor speed, and L is relative luminance. The
// reflected-light-meter calibration constant K is deliberately omitted, as
// the spec calls this quantity "unscaled".
func AbsoluteLuminance(relativeLuminance, aperture, integrationTimeSeconds, isoSpeed float64) float64 {
	if isoSpeed == 0 || integrationTimeSeconds == 0 {
		return 0
	}
	return relativeLuminance * aperture * aperture / (isoSpeed * integrationTimeSeconds)
}
