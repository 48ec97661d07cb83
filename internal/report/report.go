// Package report renders finished interviews and the progress dashboard as
// plain text.
package report

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/rbright/rehearse/internal/question"
	"github.com/rbright/rehearse/internal/session"
)

const dateLayout = "2006-01-02"

// Interview renders the end-of-session feedback report.
func Interview(in session.Interview) string {
	var b strings.Builder

	category := question.Describe(in.Type)
	fmt.Fprintf(&b, "Interview Feedback: %s\n", category.Title)
	if !in.Date.IsZero() {
		fmt.Fprintf(&b, "Date: %s\n", in.Date.Format(dateLayout))
	}

	answered, skipped := in.Counts()
	fmt.Fprintf(&b, "Overall score: %.1f/10\n", in.Score())
	fmt.Fprintf(&b, "%s\n", in.Verdict())
	fmt.Fprintf(&b, "Answered: %d  Skipped: %d\n", answered, skipped)

	for i, q := range in.Questions {
		fmt.Fprintf(&b, "\nQuestion %d: %s\n", i+1, q.Text)
		if i >= len(in.Answers) {
			b.WriteString("  (no answer)\n")
			continue
		}

		answer := in.Answers[i]
		fmt.Fprintf(&b, "  Answer: %s\n", indent(answer.Text))
		fmt.Fprintf(&b, "  Clarity: %s/10  Confidence: %s/10  Completeness: %s/10\n",
			strconv.Itoa(answer.Feedback.Clarity),
			formatScore(answer.Feedback.Confidence),
			strconv.Itoa(answer.Feedback.Completeness),
		)
		if len(answer.Feedback.Suggestions) > 0 {
			b.WriteString("  Suggestions for improvement:\n")
			for _, s := range answer.Feedback.Suggestions {
				fmt.Fprintf(&b, "    - %s\n", s)
			}
		}
	}

	return b.String()
}

// formatScore drops a trailing ".0" so integer scores print as integers.
func formatScore(v float64) string {
	return strconv.FormatFloat(math.Round(v*10)/10, 'f', -1, 64)
}

// indent keeps multi-line answers aligned under the "Answer:" label.
func indent(text string) string {
	return strings.ReplaceAll(strings.TrimSpace(text), "\n", "\n          ")
}
