package classify

import (
	"gonum.org/v1/gonum/stat"

	"github.com/ironsheep/omr-scan/internal/patch"
)

// Heuristic scores patches by mean intensity: darker patches score closer
// to 1. On a properly aligned canvas (marks dark, paper white) a filled
// bubble fills most of its patch, so 1 - mean separates cleanly.
//
// Heuristic is a pure function of patch contents and never fails.
type Heuristic struct{}

// Predict returns 1 - mean(patch) for each patch in the batch.
func (Heuristic) Predict(batch []patch.Patch) ([]float64, error) {
	probs := make([]float64, len(batch))
	for i, p := range batch {
		probs[i] = 1.0 - stat.Mean(p, nil)
	}
	return probs, nil
}
