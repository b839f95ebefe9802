// Package classify scores bubble patches with a probability of being
// filled.
//
// Two strategies implement the Classifier interface: an intensity heuristic
// that needs no external artifact, and a small learned dense network loaded
// from a JSON weight file. The strategy is picked once at construction; call
// sites never branch on the variant.
package classify

import (
	"log"

	"github.com/ironsheep/omr-scan/internal/patch"
)

// Classifier scores a batch of patches. The returned probabilities are in
// [0, 1], one per patch, order-preserving with the input batch.
type Classifier interface {
	Predict(batch []patch.Patch) ([]float64, error)
}

// New selects the classification strategy for a run.
//
// With an empty modelPath the intensity heuristic is used. Otherwise the
// model artifact is loaded; any load failure degrades to the heuristic with
// a logged warning and is never fatal.
func New(modelPath string) Classifier {
	if modelPath == "" {
		return Heuristic{}
	}
	m, err := LoadModel(modelPath)
	if err != nil {
		log.Printf("bubble model unavailable, falling back to intensity heuristic: %v", err)
		return Heuristic{}
	}
	return m
}
