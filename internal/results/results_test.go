package results

import (
	"encoding/json"
	"image"
	"testing"

	"github.com/ironsheep/omr-scan/internal/patch"
	"github.com/ironsheep/omr-scan/internal/resolve"
	"github.com/ironsheep/omr-scan/internal/template"
)

type stubClassifier struct {
	probs []float64
}

func (s stubClassifier) Predict(batch []patch.Patch) ([]float64, error) {
	return s.probs, nil
}

// resolved builds a Resolution over a 2-question, 2-option template with
// the given per-bubble probabilities (order: 1A, 1B, 2A, 2B).
func resolved(t *testing.T, probs []float64) *resolve.Resolution {
	t.Helper()
	tmpl, err := template.New(400, 400, map[int]map[string]template.Point{
		1: {"A": {X: 100, Y: 100}, "B": {X: 300, Y: 100}},
		2: {"A": {X: 100, Y: 300}, "B": {X: 300, Y: 300}},
	})
	if err != nil {
		t.Fatalf("template.New failed: %v", err)
	}
	canvas := image.NewGray(image.Rect(0, 0, 400, 400))
	res, err := resolve.Resolve(canvas, tmpl, stubClassifier{probs: probs}, 0.7)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	return res
}

func TestAnswerKey(t *testing.T) {
	res := resolved(t, []float64{0.1, 0.95, 0.9, 0.2})

	key := AnswerKey(res)
	if len(key) != 2 {
		t.Fatalf("entries: got %d, want 2", len(key))
	}
	if key[0] != (AnswerKeyEntry{QuestionNumber: 1, CorrectOption: "B"}) {
		t.Errorf("entry 0: got %+v", key[0])
	}
	if key[1] != (AnswerKeyEntry{QuestionNumber: 2, CorrectOption: "A"}) {
		t.Errorf("entry 1: got %+v", key[1])
	}
}

func TestStudentAnswers(t *testing.T) {
	res := resolved(t, []float64{0.1, 0.95, 0.9, 0.2})

	answers := StudentAnswers(res)
	if len(answers) != 2 {
		t.Fatalf("entries: got %d, want 2", len(answers))
	}

	want := StudentAnswerEntry{
		QuestionNumber: 1,
		SelectedOption: "B",
		CenterX:        300,
		CenterY:        100,
		Confidence:     0.95,
	}
	if answers[0] != want {
		t.Errorf("entry 0: got %+v, want %+v", answers[0], want)
	}
}

func TestBuilders_SkipUnanswered(t *testing.T) {
	// Question 2 never passes: both shapes carry exactly one entry.
	res := resolved(t, []float64{0.8, 0.1, 0.3, 0.3})

	if got := AnswerKey(res); len(got) != 1 || got[0].QuestionNumber != 1 {
		t.Errorf("answer key: got %+v", got)
	}
	if got := StudentAnswers(res); len(got) != 1 || got[0].QuestionNumber != 1 {
		t.Errorf("student answers: got %+v", got)
	}
}

func TestWireFormat(t *testing.T) {
	res := resolved(t, []float64{0.1, 0.95, 0.9, 0.2})

	keyJSON, err := json.Marshal(AnswerKey(res)[:1])
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if got := string(keyJSON); got != `[{"questionNumber":1,"correctOption":"B"}]` {
		t.Errorf("answer key JSON: got %s", got)
	}

	stuJSON, err := json.Marshal(StudentAnswers(res)[:1])
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	want := `[{"questionNumber":1,"selectedOption":"B","centerX":300,"centerY":100,"confidence":0.95}]`
	if got := string(stuJSON); got != want {
		t.Errorf("student JSON: got %s, want %s", got, want)
	}
}

func TestBuilders_Empty(t *testing.T) {
	res := resolved(t, []float64{0.1, 0.1, 0.1, 0.1})

	if got := AnswerKey(res); len(got) != 0 {
		t.Errorf("answer key: got %+v, want empty", got)
	}
	if got := StudentAnswers(res); len(got) != 0 {
		t.Errorf("student answers: got %+v, want empty", got)
	}
}
