// Package resolve turns per-bubble classifier scores into one answer per
// question.
package resolve

import (
	"fmt"
	"image"

	"github.com/ironsheep/omr-scan/internal/classify"
	"github.com/ironsheep/omr-scan/internal/patch"
	"github.com/ironsheep/omr-scan/internal/template"
)

// DefaultFillThreshold is the minimum classifier probability for a bubble
// to count as marked. Distinct from any decision threshold a learned model
// may have used during training.
const DefaultFillThreshold = 0.7

// Observation is a scored bubble: the classifier's fill confidence for one
// (question, option) position.
type Observation struct {
	Question   int
	Option     string
	Center     template.Point
	Confidence float64
}

// Resolution is the outcome of one extraction run.
//
// Answers hold at most one observation per question. Questions whose bubbles
// all scored below the fill threshold are listed in Unanswered rather than
// silently dropped, so a blank sheet is distinguishable from a failed
// extraction. Scores keep the raw confidence of every templated bubble for
// audit and overlay rendering.
type Resolution struct {
	// Scores lists every templated bubble with its raw confidence, in
	// template iteration order.
	Scores []Observation

	// Unanswered lists template questions with no passing observation,
	// ascending.
	Unanswered []int

	answers map[int]Observation
	order   []int
}

// Answer returns the winning observation for a question, if any bubble
// passed the fill threshold.
func (r *Resolution) Answer(question int) (Observation, bool) {
	obs, ok := r.answers[question]
	return obs, ok
}

// Answers returns winning observations in insertion order: the order in
// which each question first produced a passing observation, which for a
// sorted template is ascending question number.
func (r *Resolution) Answers() []Observation {
	out := make([]Observation, 0, len(r.order))
	for _, q := range r.order {
		out = append(out, r.answers[q])
	}
	return out
}

// Resolve classifies every templated bubble on the canvas in one batched
// call and picks a single winner per question.
//
// A bubble becomes an observation when its confidence is at or above
// fillThreshold (DefaultFillThreshold when <= 0). Among passing observations
// for the same question the strictly highest confidence wins; equal maxima
// keep the first seen in template order, so resolution is stable across
// runs.
func Resolve(canvas *image.Gray, tmpl *template.Map, clf classify.Classifier, fillThreshold float64) (*Resolution, error) {
	if fillThreshold <= 0 {
		fillThreshold = DefaultFillThreshold
	}

	entries := tmpl.Entries()
	patches := patch.ExtractAll(canvas, entries)

	probs, err := clf.Predict(patches)
	if err != nil {
		return nil, fmt.Errorf("bubble classification failed: %w", err)
	}
	if len(probs) != len(entries) {
		return nil, fmt.Errorf("classifier returned %d probabilities for %d bubbles", len(probs), len(entries))
	}

	res := &Resolution{
		Scores:  make([]Observation, 0, len(entries)),
		answers: make(map[int]Observation),
	}

	for i, e := range entries {
		obs := Observation{
			Question:   e.Question,
			Option:     e.Option,
			Center:     e.Center,
			Confidence: probs[i],
		}
		res.Scores = append(res.Scores, obs)

		if obs.Confidence < fillThreshold {
			continue
		}
		best, seen := res.answers[e.Question]
		if !seen {
			res.answers[e.Question] = obs
			res.order = append(res.order, e.Question)
		} else if obs.Confidence > best.Confidence {
			res.answers[e.Question] = obs
		}
	}

	for _, q := range tmpl.Questions() {
		if _, ok := res.answers[q]; !ok {
			res.Unanswered = append(res.Unanswered, q)
		}
	}

	return res, nil
}
