package session

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rbright/rehearse/internal/feedback"
)

func TestInterviewScoreAveragesAnswerMeans(t *testing.T) {
	interview := Interview{Answers: []Answer{
		{Feedback: feedback.Feedback{Clarity: 9, Confidence: 9, Completeness: 9}},
		{Feedback: feedback.Feedback{Clarity: 9, Confidence: 8.5, Completeness: 8}},
	}}
	require.Equal(t, 8.8, interview.Score())
	require.Equal(t, feedback.Verdict(8.8), interview.Verdict())
}

func TestInterviewCounts(t *testing.T) {
	interview := Interview{Answers: []Answer{
		{Text: "a"},
		{Text: SkippedText, Skipped: true, Feedback: feedback.Skipped()},
		{Text: "b"},
	}}
	answered, skipped := interview.Counts()
	require.Equal(t, 2, answered)
	require.Equal(t, 1, skipped)
}

func TestEmptyInterviewScoresZero(t *testing.T) {
	require.Zero(t, Interview{}.Score())
	require.Equal(t, "Keep practicing! Review the feedback and try again.", Interview{}.Verdict())
}
