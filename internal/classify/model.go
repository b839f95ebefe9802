package classify

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"

	"gonum.org/v1/gonum/mat"

	"github.com/ironsheep/omr-scan/internal/patch"
)

// ErrModelLoad reports a missing or corrupt model artifact. It is
// recoverable: New degrades to the heuristic instead of failing the run.
var ErrModelLoad = errors.New("cannot load bubble model")

// modelFile is the on-disk artifact: a dense feed-forward network exported
// as JSON. Each layer holds a row-major weight matrix (rows = output units,
// columns = input units) and a bias per output unit.
type modelFile struct {
	InputSize int         `json:"inputSize"`
	Layers    []layerFile `json:"layers"`
}

type layerFile struct {
	Activation string      `json:"activation"`
	Weights    [][]float64 `json:"weights"`
	Bias       []float64   `json:"bias"`
}

type layer struct {
	weights    *mat.Dense
	bias       *mat.VecDense
	activation func(float64) float64
}

// Model is a learned fill classifier: a small dense network whose forward
// pass runs per patch over the flattened pixel vector.
type Model struct {
	inputSize int
	layers    []layer
}

// LoadModel reads and validates a network artifact. All failures wrap
// ErrModelLoad.
func LoadModel(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelLoad, err)
	}

	var f modelFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrModelLoad, path, err)
	}
	if f.InputSize <= 0 || len(f.Layers) == 0 {
		return nil, fmt.Errorf("%w: %s: empty network", ErrModelLoad, path)
	}

	m := &Model{inputSize: f.InputSize}
	in := f.InputSize
	for i, lf := range f.Layers {
		rows := len(lf.Weights)
		if rows == 0 {
			return nil, fmt.Errorf("%w: layer %d has no units", ErrModelLoad, i)
		}
		flat := make([]float64, 0, rows*in)
		for _, row := range lf.Weights {
			if len(row) != in {
				return nil, fmt.Errorf("%w: layer %d expects %d inputs, weight row has %d", ErrModelLoad, i, in, len(row))
			}
			flat = append(flat, row...)
		}
		if len(lf.Bias) != rows {
			return nil, fmt.Errorf("%w: layer %d has %d units but %d biases", ErrModelLoad, i, rows, len(lf.Bias))
		}
		act, err := activation(lf.Activation)
		if err != nil {
			return nil, fmt.Errorf("%w: layer %d: %v", ErrModelLoad, i, err)
		}
		m.layers = append(m.layers, layer{
			weights:    mat.NewDense(rows, in, flat),
			bias:       mat.NewVecDense(rows, append([]float64(nil), lf.Bias...)),
			activation: act,
		})
		in = rows
	}
	if in != 1 {
		return nil, fmt.Errorf("%w: final layer must have exactly 1 unit, has %d", ErrModelLoad, in)
	}

	return m, nil
}

func activation(name string) (func(float64) float64, error) {
	switch name {
	case "relu":
		return func(v float64) float64 { return math.Max(0, v) }, nil
	case "sigmoid":
		return func(v float64) float64 { return 1.0 / (1.0 + math.Exp(-v)) }, nil
	case "linear", "":
		return func(v float64) float64 { return v }, nil
	default:
		return nil, fmt.Errorf("unknown activation %q", name)
	}
}

// Predict runs the forward pass over each patch in the batch. The output is
// clamped to [0, 1] so a linear final layer cannot leak out-of-range
// confidences.
func (m *Model) Predict(batch []patch.Patch) ([]float64, error) {
	probs := make([]float64, len(batch))
	for i, p := range batch {
		if len(p) != m.inputSize {
			return nil, fmt.Errorf("patch %d has %d values, model expects %d", i, len(p), m.inputSize)
		}
		v := mat.NewVecDense(len(p), p)
		for _, l := range m.layers {
			var out mat.VecDense
			out.MulVec(l.weights, v)
			out.AddVec(&out, l.bias)
			for j := 0; j < out.Len(); j++ {
				out.SetVec(j, l.activation(out.AtVec(j)))
			}
			v = &out
		}
		probs[i] = math.Min(1, math.Max(0, v.AtVec(0)))
	}
	return probs, nil
}
