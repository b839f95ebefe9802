// Package ocr reads the printed submission identifier from a sheet scan.
//
// Exam sheets carry a printed numeric ID box; reading it from the scan
// saves operators from retyping submission ids on the command line.
// Tesseract must be installed on the system (the gosseract bindings link
// against it).
package ocr

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/otiai10/gosseract/v2"
)

// Box is the pixel region of the printed ID on the original scan
// (pre-alignment coordinates: the ID box is read from the raw image, where
// the print is still sharp).
type Box struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

// upscale factor applied to the cropped box before recognition; small
// printed digits recognize poorly at scan resolution.
const upscale = 3

// ReadSheetID crops the ID box from a scan and recognizes its digits.
// Non-digit characters are discarded; an empty result is an error.
func ReadSheetID(img image.Image, box Box) (string, error) {
	bounds := img.Bounds()
	if box.X1 >= box.X2 || box.Y1 >= box.Y2 {
		return "", fmt.Errorf("invalid id box (%d,%d)-(%d,%d)", box.X1, box.Y1, box.X2, box.Y2)
	}
	rect := image.Rect(box.X1, box.Y1, box.X2, box.Y2)
	if !rect.In(bounds) {
		return "", fmt.Errorf("id box %v outside scan bounds %v", rect, bounds)
	}

	cropped := imaging.Crop(img, rect)
	enlarged := imaging.Resize(cropped, cropped.Bounds().Dx()*upscale, cropped.Bounds().Dy()*upscale, imaging.Lanczos)

	var buf bytes.Buffer
	if err := png.Encode(&buf, enlarged); err != nil {
		return "", fmt.Errorf("failed to encode id box: %w", err)
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetWhitelist("0123456789"); err != nil {
		return "", fmt.Errorf("failed to set digit whitelist: %w", err)
	}
	if err := client.SetPageSegMode(gosseract.PSM_SINGLE_LINE); err != nil {
		return "", fmt.Errorf("failed to set segmentation mode: %w", err)
	}
	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return "", fmt.Errorf("failed to set id box image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("OCR failed: %w", err)
	}

	id := digits(text)
	if id == "" {
		return "", fmt.Errorf("no digits recognized in id box")
	}
	return id, nil
}

// digits strips everything but 0-9 from recognized text.
func digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
