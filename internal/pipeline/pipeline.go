// Package pipeline wires the extraction stages into the two runs the CLI
// exposes: digitizing an answer key and digitizing a student sheet.
//
// A Pipeline is a blocking pure-function chain over one input image. It
// holds no mutable state between runs, so one Pipeline may serve any number
// of sheets sequentially.
package pipeline

import (
	"image"

	"github.com/ironsheep/omr-scan/internal/align"
	"github.com/ironsheep/omr-scan/internal/classify"
	"github.com/ironsheep/omr-scan/internal/resolve"
	"github.com/ironsheep/omr-scan/internal/results"
	"github.com/ironsheep/omr-scan/internal/template"
)

// Pipeline runs align -> extract -> classify -> resolve for one sheet
// layout.
type Pipeline struct {
	Template      *template.Map
	Classifier    classify.Classifier
	FillThreshold float64
}

// New builds a pipeline for a template. modelPath selects the classifier
// per the classify.New policy (empty = heuristic, unloadable = heuristic
// fallback); fillThreshold <= 0 uses resolve.DefaultFillThreshold.
func New(tmpl *template.Map, modelPath string, fillThreshold float64) *Pipeline {
	return &Pipeline{
		Template:      tmpl,
		Classifier:    classify.New(modelPath),
		FillThreshold: fillThreshold,
	}
}

// Run aligns the scan onto the template canvas and resolves every question.
// The aligned canvas is returned alongside the resolution so callers can
// render review overlays without re-aligning.
func (p *Pipeline) Run(img image.Image) (*image.Gray, *resolve.Resolution, error) {
	canvas := align.Align(img, p.Template.CanvasWidth(), p.Template.CanvasHeight())
	res, err := resolve.Resolve(canvas, p.Template, p.Classifier, p.FillThreshold)
	if err != nil {
		return nil, nil, err
	}
	return canvas, res, nil
}

// AnswerKey digitizes an instructor sheet into answer-key records.
func (p *Pipeline) AnswerKey(img image.Image) ([]results.AnswerKeyEntry, *resolve.Resolution, error) {
	_, res, err := p.Run(img)
	if err != nil {
		return nil, nil, err
	}
	return results.AnswerKey(res), res, nil
}

// StudentAnswers digitizes a student sheet into student-answer records.
func (p *Pipeline) StudentAnswers(img image.Image) ([]results.StudentAnswerEntry, *resolve.Resolution, error) {
	_, res, err := p.Run(img)
	if err != nil {
		return nil, nil, err
	}
	return results.StudentAnswers(res), res, nil
}
