// Package align normalizes a raw bubble-sheet scan onto the canonical
// template canvas.
//
// The aligner makes no attempt at geometric correction: it assumes the
// scanner produces sheets with a stable aspect ratio and framing, and simply
// resizes the thresholded scan onto the template's fixed canvas. Corner
// marker detection with a perspective warp is a known limitation, not
// implemented.
package align

import (
	"image"
	"image/color"

	"github.com/anthonynsimon/bild/blur"
	"github.com/disintegration/imaging"
)

// blurRadius smooths scan noise ahead of thresholding. Comparable to a 5x5
// Gaussian kernel at 300dpi scan resolution.
const blurRadius = 1.4

// Align converts a raw scan into a binary canvas of the given size.
//
// Stages: grayscale, Gaussian blur, global Otsu threshold, non-uniform
// resize to width x height. Polarity is normalized so that pencil marks come
// out dark (0) and paper comes out white (255); the fill classifier depends
// on filled patches having low mean intensity.
//
// The input image is never modified. Align cannot fail: any decodable image
// produces a canvas.
func Align(img image.Image, width, height int) *image.Gray {
	gray := toGray(imaging.Grayscale(img))
	smoothed := toGray(blur.Gaussian(gray, blurRadius))

	threshold := otsuThreshold(smoothed)
	binarize(smoothed, threshold)

	// NearestNeighbor keeps the canvas two-valued; interpolating filters
	// would reintroduce gray halos around every mark.
	resized := imaging.Resize(smoothed, width, height, imaging.NearestNeighbor)
	return toGray(resized)
}

// binarize thresholds in place: at or below the threshold becomes a mark
// (0), everything else paper (255).
func binarize(g *image.Gray, threshold uint8) {
	for i, v := range g.Pix {
		if v <= threshold {
			g.Pix[i] = 0
		} else {
			g.Pix[i] = 255
		}
	}
}

// otsuThreshold picks the global threshold maximizing between-class
// variance over the intensity histogram.
func otsuThreshold(g *image.Gray) uint8 {
	var hist [256]int
	for _, v := range g.Pix {
		hist[v]++
	}
	total := len(g.Pix)
	if total == 0 {
		return 0
	}

	var sum float64
	for i, n := range hist {
		sum += float64(i) * float64(n)
	}

	var (
		sumBack    float64
		weightBack int
		best       float64
		threshold  uint8
	)
	for i := 0; i < 256; i++ {
		weightBack += hist[i]
		if weightBack == 0 {
			continue
		}
		weightFore := total - weightBack
		if weightFore == 0 {
			break
		}
		sumBack += float64(i) * float64(hist[i])

		meanBack := sumBack / float64(weightBack)
		meanFore := (sum - sumBack) / float64(weightFore)
		diff := meanBack - meanFore
		between := float64(weightBack) * float64(weightFore) * diff * diff
		if between > best {
			best = between
			threshold = uint8(i)
		}
	}
	return threshold
}

// toGray collapses a single-channel image stored as RGBA/NRGBA down to
// image.Gray by sampling the red channel. Inputs here are always gray or
// binary, so all channels agree.
func toGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}
	bounds := img.Bounds()
	g := image.NewGray(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, _, _, _ := img.At(x, y).RGBA()
			g.SetGray(x-bounds.Min.X, y-bounds.Min.Y, color.Gray{Y: uint8(r >> 8)})
		}
	}
	return g
}
