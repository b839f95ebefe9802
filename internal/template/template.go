// Package template defines the bubble-position template for an OMR sheet.
//
// A template maps every (question, option) pair to the pixel center of its
// bubble on the canonical aligned canvas. Templates are authored externally
// (one per sheet layout) and loaded once per run; the extraction pipeline
// treats them as read-only.
//
// # Coordinate System
//
// Bubble centers are expressed on the canonical canvas the template declares
// via CanvasWidth and CanvasHeight: (0,0) is the top-left corner, X increases
// rightward, Y increases downward. Scanned images are resized to this canvas
// before any center is used, so the same template works for any source
// resolution with the same framing.
package template

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
)

// Default canonical canvas: A4 sheet scanned at 300dpi.
const (
	DefaultCanvasWidth  = 2480
	DefaultCanvasHeight = 3508
)

// Point is a bubble center on the canonical canvas.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Entry is one templated bubble: a question, one of its option letters, and
// the center of the corresponding bubble.
type Entry struct {
	Question int
	Option   string
	Center   Point
}

// Map is a complete bubble template for one sheet layout.
//
// A Map is immutable after construction. Iteration via Entries is
// deterministic (ascending question number, then option letter), which the
// resolver relies on for stable tie-breaking.
type Map struct {
	canvasWidth  int
	canvasHeight int
	bubbles      map[int]map[string]Point
	entries      []Entry
	questions    []int
}

// New builds a validated template from a question → option → center table.
//
// Validation rules:
//   - width and height must be positive
//   - every question number must be positive
//   - every question must have at least one option
//   - option labels must be a single uppercase letter A-Z
//
// The centers table is copied; the caller may reuse it afterwards.
func New(width, height int, centers map[int]map[string]Point) (*Map, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid canvas size %dx%d", width, height)
	}
	if len(centers) == 0 {
		return nil, fmt.Errorf("template has no questions")
	}

	m := &Map{
		canvasWidth:  width,
		canvasHeight: height,
		bubbles:      make(map[int]map[string]Point, len(centers)),
	}

	for q, options := range centers {
		if q <= 0 {
			return nil, fmt.Errorf("question number must be positive, got %d", q)
		}
		if len(options) == 0 {
			return nil, fmt.Errorf("question %d has no options", q)
		}
		opts := make(map[string]Point, len(options))
		for opt, center := range options {
			if !validOption(opt) {
				return nil, fmt.Errorf("question %d: option %q is not a single uppercase letter", q, opt)
			}
			opts[opt] = center
		}
		m.bubbles[q] = opts
		m.questions = append(m.questions, q)
	}

	sort.Ints(m.questions)
	for _, q := range m.questions {
		options := m.bubbles[q]
		letters := make([]string, 0, len(options))
		for opt := range options {
			letters = append(letters, opt)
		}
		sort.Strings(letters)
		for _, opt := range letters {
			m.entries = append(m.entries, Entry{Question: q, Option: opt, Center: options[opt]})
		}
	}

	return m, nil
}

func validOption(opt string) bool {
	return len(opt) == 1 && opt[0] >= 'A' && opt[0] <= 'Z'
}

// CanvasWidth returns the width of the canonical canvas in pixels.
func (m *Map) CanvasWidth() int { return m.canvasWidth }

// CanvasHeight returns the height of the canonical canvas in pixels.
func (m *Map) CanvasHeight() int { return m.canvasHeight }

// Questions returns the question numbers in ascending order.
func (m *Map) Questions() []int {
	out := make([]int, len(m.questions))
	copy(out, m.questions)
	return out
}

// Entries returns every templated bubble in the canonical iteration order:
// ascending question number, then ascending option letter. The returned
// slice is shared; callers must not modify it.
func (m *Map) Entries() []Entry { return m.entries }

// Center looks up the bubble center for a (question, option) pair.
func (m *Map) Center(question int, option string) (Point, bool) {
	options, ok := m.bubbles[question]
	if !ok {
		return Point{}, false
	}
	p, ok := options[option]
	return p, ok
}

// mapFile is the on-disk JSON shape:
//
//	{
//	  "canvasWidth": 2480,
//	  "canvasHeight": 3508,
//	  "bubbles": {
//	    "1": {"A": [200, 400], "B": [260, 400]}
//	  }
//	}
//
// canvasWidth/canvasHeight default to A4 @ 300dpi when omitted.
type mapFile struct {
	CanvasWidth  int                              `json:"canvasWidth"`
	CanvasHeight int                              `json:"canvasHeight"`
	Bubbles      map[string]map[string][2]float64 `json:"bubbles"`
}

// LoadFile reads and validates a template from a JSON file.
func LoadFile(path string) (*Map, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read template: %w", err)
	}
	return Parse(data)
}

// Parse validates a template from raw JSON.
func Parse(data []byte) (*Map, error) {
	var f mapFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse template: %w", err)
	}
	if f.CanvasWidth == 0 {
		f.CanvasWidth = DefaultCanvasWidth
	}
	if f.CanvasHeight == 0 {
		f.CanvasHeight = DefaultCanvasHeight
	}

	centers := make(map[int]map[string]Point, len(f.Bubbles))
	for qs, options := range f.Bubbles {
		q, err := strconv.Atoi(qs)
		if err != nil {
			return nil, fmt.Errorf("invalid question number %q", qs)
		}
		opts := make(map[string]Point, len(options))
		for opt, xy := range options {
			opts[opt] = Point{X: xy[0], Y: xy[1]}
		}
		centers[q] = opts
	}

	return New(f.CanvasWidth, f.CanvasHeight, centers)
}
