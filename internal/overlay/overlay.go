// Package overlay renders a review image for template calibration and
// answer auditing.
//
// The overlay draws a ring around every templated bubble on the aligned
// canvas, colored by the classifier's confidence for that bubble, with the
// winning option per question emphasized. Looking at one render immediately
// shows misplaced template coordinates: the rings stop sitting on the
// printed bubbles.
package overlay

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/ironsheep/omr-scan/internal/patch"
	"github.com/ironsheep/omr-scan/internal/resolve"
)

// Ring geometry: the ring radius matches the patch the classifier saw.
const (
	ringRadius    = patch.Size / 2
	ringThickness = 2.0
	winnerExtra   = 3 // winners get a second, larger ring
)

// Confidence color ramp endpoints, blended in Lab space: cold blue for
// empty bubbles through warm red for confidently filled ones.
var (
	rampLow, _  = colorful.Hex("#2c7bb6")
	rampHigh, _ = colorful.Hex("#d7191c")
)

// confidenceColor maps a probability in [0, 1] onto the ramp.
func confidenceColor(confidence float64) color.Color {
	if confidence < 0 {
		confidence = 0
	} else if confidence > 1 {
		confidence = 1
	}
	return rampLow.BlendLab(rampHigh, confidence).Clamped()
}

// Render draws the review overlay for one resolution over its aligned
// canvas. The canvas is not modified.
func Render(canvas *image.Gray, res *resolve.Resolution) *image.NRGBA {
	bounds := canvas.Bounds()
	out := image.NewNRGBA(bounds)
	draw.Draw(out, bounds, canvas, bounds.Min, draw.Src)

	for _, s := range res.Scores {
		c := confidenceColor(s.Confidence)
		drawRing(out, s.Center.X, s.Center.Y, ringRadius, c)
		if winner, ok := res.Answer(s.Question); ok && winner.Option == s.Option {
			drawRing(out, s.Center.X, s.Center.Y, ringRadius+winnerExtra, c)
		}
	}

	return out
}

// Save writes the overlay next to the run's other outputs. The format is
// inferred from the file extension.
func Save(img image.Image, path string) error {
	if err := imaging.Save(img, path); err != nil {
		return fmt.Errorf("failed to save overlay: %w", err)
	}
	return nil
}

// drawRing paints an annulus of the given radius around (cx, cy), clipped
// to the image bounds.
func drawRing(img *image.NRGBA, cx, cy float64, radius int, c color.Color) {
	bounds := img.Bounds()
	r := float64(radius)
	inner := (r - ringThickness/2) * (r - ringThickness/2)
	outer := (r + ringThickness/2) * (r + ringThickness/2)

	x1 := int(cx-r-ringThickness) - 1
	x2 := int(cx+r+ringThickness) + 1
	y1 := int(cy-r-ringThickness) - 1
	y2 := int(cy+r+ringThickness) + 1

	for y := y1; y <= y2; y++ {
		for x := x1; x <= x2; x++ {
			if x < bounds.Min.X || x >= bounds.Max.X || y < bounds.Min.Y || y >= bounds.Max.Y {
				continue
			}
			dx := float64(x) - cx
			dy := float64(y) - cy
			d := dx*dx + dy*dy
			if d >= inner && d <= outer {
				img.Set(x, y, c)
			}
		}
	}
}
