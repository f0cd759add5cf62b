package avatar

import (
	"image"
	"image/color"
	"math"
)

// CircularMask crops img to a circle inscribed in its bounds, with a one pixel
// anti-aliased edge. Pixels outside the circle stay fully transparent.
func CircularMask(img image.Image) *image.NRGBA {
	b := img.Bounds()
	size := min(b.Dx(), b.Dy())
	out := image.NewNRGBA(image.Rect(0, 0, size, size))

	center := float64(size) / 2
	radius := center
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			dx := float64(x) + 0.5 - center
			dy := float64(y) + 0.5 - center
			dist := math.Sqrt(dx*dx + dy*dy)

			src := color.NRGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
			alpha, inside := MaskAlpha(dist, radius, src.A)
			if !inside {
				continue
			}
			src.A = alpha
			out.SetNRGBA(x, y, src)
		}
	}
	return out
}

// MaskAlpha returns the alpha for a pixel at dist from the center of a circle.
// inside is false beyond the radius. Inside the one pixel feather band the alpha
// ramps from 255 down to 0 at the radius and never exceeds the source alpha.
func MaskAlpha(dist, radius float64, srcAlpha uint8) (alpha uint8, inside bool) {
	if dist > radius {
		return 0, false
	}
	if dist <= radius-1 {
		return srcAlpha, true
	}
	a := math.Round((radius - dist) * 255)
	a = math.Max(0, math.Min(255, a))
	return min(uint8(a), srcAlpha), true
}
