// Package feedback produces the placeholder per-answer scores and the session verdict.
//
// Scores are bounded random draws, not an assessment of the answer.
package feedback

import (
	"math"
	"math/rand/v2"
)

const (
	scoreBase  = 7
	scoreRange = 3
)

// SkipSuggestion is the only suggestion attached to a skipped question.
const SkipSuggestion = "This question was skipped"

var suggestions = []string{
	"Try to provide more specific examples",
	"Consider structuring your answer using the STAR method",
	"You could elaborate more on the outcome",
}

// Feedback is attached to an answer once and never changed.
type Feedback struct {
	Clarity      int
	Confidence   float64
	Completeness int
	Suggestions  []string
}

// Mean is the per-answer average of the three scores.
func (f Feedback) Mean() float64 {
	return (float64(f.Clarity) + f.Confidence + float64(f.Completeness)) / 3
}

// Scorer draws uniform integers in [0, n).
type Scorer interface {
	Intn(n int) int
}

// ScorerFunc adapts a function to Scorer.
type ScorerFunc func(n int) int

func (f ScorerFunc) Intn(n int) int { return f(n) }

// RandomScorer is the default Scorer.
func RandomScorer() Scorer {
	return ScorerFunc(rand.IntN)
}

// Generate builds feedback for a submitted answer. sample is the latest
// confidence sample; it is used when present and non-zero.
func Generate(scorer Scorer, sample float64, ok bool) Feedback {
	if scorer == nil {
		scorer = RandomScorer()
	}

	clarity := draw(scorer)
	confidence := sample
	if !ok || sample == 0 {
		confidence = float64(draw(scorer))
	}
	completeness := draw(scorer)

	return Feedback{
		Clarity:      clarity,
		Confidence:   confidence,
		Completeness: completeness,
		Suggestions:  append([]string(nil), suggestions...),
	}
}

// Skipped returns the fixed all-zero feedback for a skipped question.
func Skipped() Feedback {
	return Feedback{Suggestions: []string{SkipSuggestion}}
}

// Aggregate is the mean of per-answer means, rounded to one decimal place.
func Aggregate(items []Feedback) float64 {
	if len(items) == 0 {
		return 0
	}
	var total float64
	for _, item := range items {
		total += item.Mean()
	}
	return math.Round(total/float64(len(items))*10) / 10
}

// Verdict maps an aggregate score to its summary sentence.
func Verdict(score float64) string {
	switch {
	case score >= 9:
		return "Exceptional performance! You're well-prepared for real interviews."
	case score >= 8:
		return "Great job! With a few minor improvements, you'll be ready."
	case score >= 7:
		return "Good effort! Focus on the suggested improvements."
	default:
		return "Keep practicing! Review the feedback and try again."
	}
}

func draw(scorer Scorer) int {
	n := scorer.Intn(scoreRange)
	if n < 0 {
		n = 0
	}
	if n >= scoreRange {
		n = scoreRange - 1
	}
	return scoreBase + n
}
