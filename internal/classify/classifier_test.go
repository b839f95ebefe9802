package classify

import (
	"math"
	"testing"

	"github.com/ironsheep/omr-scan/internal/patch"
)

// uniformPatch builds a patch with every sample set to v.
func uniformPatch(v float64) patch.Patch {
	p := make(patch.Patch, patch.Size*patch.Size)
	for i := range p {
		p[i] = v
	}
	return p
}

func TestHeuristic_Predict(t *testing.T) {
	tests := []struct {
		name string
		fill float64
		want float64
	}{
		{"all paper", 1.0, 0.0},
		{"all ink", 0.0, 1.0},
		{"half tone", 0.5, 0.5},
		{"light smudge", 0.75, 0.25},
	}

	h := Heuristic{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			probs, err := h.Predict([]patch.Patch{uniformPatch(tt.fill)})
			if err != nil {
				t.Fatalf("Predict failed: %v", err)
			}
			if math.Abs(probs[0]-tt.want) > 1e-9 {
				t.Errorf("probability: got %v, want %v", probs[0], tt.want)
			}
		})
	}
}

func TestHeuristic_BatchOrder(t *testing.T) {
	batch := []patch.Patch{uniformPatch(1.0), uniformPatch(0.0), uniformPatch(0.25)}

	probs, err := Heuristic{}.Predict(batch)
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	if len(probs) != 3 {
		t.Fatalf("probabilities: got %d, want 3", len(probs))
	}

	want := []float64{0.0, 1.0, 0.75}
	for i := range want {
		if math.Abs(probs[i]-want[i]) > 1e-9 {
			t.Errorf("probability %d: got %v, want %v", i, probs[i], want[i])
		}
	}
}

func TestHeuristic_Deterministic(t *testing.T) {
	batch := []patch.Patch{uniformPatch(0.3), uniformPatch(0.8)}

	first, err := Heuristic{}.Predict(batch)
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	second, err := Heuristic{}.Predict(batch)
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("probability %d changed between runs: %v vs %v", i, first[i], second[i])
		}
	}
}

func TestNew_SelectsHeuristic(t *testing.T) {
	if _, ok := New("").(Heuristic); !ok {
		t.Error("New with no model path should select the heuristic")
	}
}

func TestNew_FallbackOnLoadFailure(t *testing.T) {
	// A missing artifact must silently degrade, never fail.
	c := New("/nonexistent/bubbles.model.json")
	if _, ok := c.(Heuristic); !ok {
		t.Fatal("New with an unloadable model should fall back to the heuristic")
	}

	probs, err := c.Predict([]patch.Patch{uniformPatch(0.0)})
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	if math.Abs(probs[0]-1.0) > 1e-9 {
		t.Errorf("fallback probability: got %v, want 1.0", probs[0])
	}
}
