// Package results shapes resolved answers into the records the examiner
// backend consumes.
package results

import (
	"github.com/ironsheep/omr-scan/internal/resolve"
)

// AnswerKeyEntry is the answer-key wire record: position and confidence are
// deliberately dropped, only the correct option survives.
type AnswerKeyEntry struct {
	QuestionNumber int    `json:"questionNumber"`
	CorrectOption  string `json:"correctOption"`
}

// StudentAnswerEntry is the student-answer wire record. Center and
// confidence are retained so a graded submission can be audited against the
// scan.
type StudentAnswerEntry struct {
	QuestionNumber int     `json:"questionNumber"`
	SelectedOption string  `json:"selectedOption"`
	CenterX        float64 `json:"centerX"`
	CenterY        float64 `json:"centerY"`
	Confidence     float64 `json:"confidence"`
}

// AnswerKey builds answer-key records from a resolution, one per answered
// question, in the resolution's insertion order. Unanswered questions are
// reported on the Resolution itself, not here: the backend wire format has
// no null-answer representation.
func AnswerKey(res *resolve.Resolution) []AnswerKeyEntry {
	answers := res.Answers()
	out := make([]AnswerKeyEntry, 0, len(answers))
	for _, a := range answers {
		out = append(out, AnswerKeyEntry{
			QuestionNumber: a.Question,
			CorrectOption:  a.Option,
		})
	}
	return out
}

// StudentAnswers builds student-answer records from a resolution, one per
// answered question, in the resolution's insertion order.
func StudentAnswers(res *resolve.Resolution) []StudentAnswerEntry {
	answers := res.Answers()
	out := make([]StudentAnswerEntry, 0, len(answers))
	for _, a := range answers {
		out = append(out, StudentAnswerEntry{
			QuestionNumber: a.Question,
			SelectedOption: a.Option,
			CenterX:        a.Center.X,
			CenterY:        a.Center.Y,
			Confidence:     a.Confidence,
		})
	}
	return out
}
