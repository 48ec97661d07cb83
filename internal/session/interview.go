package session

import (
	"time"

	"github.com/rbright/rehearse/internal/feedback"
	"github.com/rbright/rehearse/internal/question"
)

// SkippedText is the recorded answer for a skipped question.
const SkippedText = "[Question skipped]"

// Answer is the immutable record of one question's outcome.
type Answer struct {
	QuestionID string
	Text       string
	Skipped    bool
	Feedback   feedback.Feedback
}

// Interview is the snapshot handed to the report once every question has an
// answer. Answers line up with Questions by index.
type Interview struct {
	ID        string
	Type      question.Type
	Questions []question.Question
	Answers   []Answer
	Date      time.Time
}

// Score is the mean of each answer's own mean, rounded to one decimal.
func (i Interview) Score() float64 {
	items := make([]feedback.Feedback, 0, len(i.Answers))
	for _, answer := range i.Answers {
		items = append(items, answer.Feedback)
	}
	return feedback.Aggregate(items)
}

func (i Interview) Verdict() string {
	return feedback.Verdict(i.Score())
}

// Counts returns how many questions were answered and skipped.
func (i Interview) Counts() (answered int, skipped int) {
	for _, answer := range i.Answers {
		if answer.Skipped {
			skipped++
			continue
		}
		answered++
	}
	return answered, skipped
}
