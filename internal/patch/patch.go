// Package patch extracts fixed-size normalized bubble patches from an
// aligned canvas.
package patch

import (
	"image"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/omr-scan/internal/template"
)

// Size is the patch edge length in pixels. Every extracted patch is exactly
// Size x Size regardless of where its center sits on the canvas.
const Size = 28

// Patch is a single-channel Size x Size pixel grid in row-major order,
// normalized to [0, 1] where 0 is a mark and 1 is paper.
type Patch []float64

// Extract crops the patch centered on the given template point.
//
// Crops that run past the canvas edge come back undersized from the
// intersection; those are resized back to Size x Size rather than padded, so
// every patch in a batch has an identical shape. A center entirely outside
// the canvas yields an all-paper patch. Extract never fails.
func Extract(canvas *image.Gray, center template.Point) Patch {
	half := Size / 2
	cx := int(center.X)
	cy := int(center.Y)
	rect := image.Rect(cx-half, cy-half, cx+half, cy+half)

	cropped := imaging.Crop(canvas, rect)
	b := cropped.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		p := make(Patch, Size*Size)
		for i := range p {
			p[i] = 1.0
		}
		return p
	}
	if b.Dx() != Size || b.Dy() != Size {
		cropped = imaging.Resize(cropped, Size, Size, imaging.Linear)
	}

	p := make(Patch, 0, Size*Size)
	for y := 0; y < Size; y++ {
		for x := 0; x < Size; x++ {
			r, _, _, _ := cropped.At(x, y).RGBA()
			p = append(p, float64(r>>8)/255.0)
		}
	}
	return p
}

// ExtractAll extracts one patch per template entry, order-preserving with
// the entries slice.
func ExtractAll(canvas *image.Gray, entries []template.Entry) []Patch {
	patches := make([]Patch, len(entries))
	for i, e := range entries {
		patches[i] = Extract(canvas, e.Center)
	}
	return patches
}
