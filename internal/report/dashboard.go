package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/rbright/rehearse/internal/question"
)

// Stats is the progress summary shown by `rehearse dashboard`. Live sessions
// never feed it; sessions are not persisted.
type Stats struct {
	TotalInterviews int
	AverageScore    float64
	StreakDays      int
	LastSession     time.Time
	Recent          []Entry
}

// Entry is one past session in the recent list.
type Entry struct {
	Date  time.Time
	Type  question.Type
	Score float64
}

// SampleStats returns the fixed demonstration history.
func SampleStats() Stats {
	return Stats{
		TotalInterviews: 12,
		AverageScore:    8.2,
		StreakDays:      5,
		LastSession:     day(2024, time.March, 10),
		Recent: []Entry{
			{Date: day(2024, time.March, 10), Type: question.TypeBehavioral, Score: 8.5},
			{Date: day(2024, time.March, 8), Type: question.TypeTechnical, Score: 7.8},
			{Date: day(2024, time.March, 5), Type: question.TypeProduct, Score: 8.1},
			{Date: day(2024, time.March, 3), Type: question.TypeBehavioral, Score: 7.5},
		},
	}
}

// Dashboard renders stats.
func Dashboard(stats Stats) string {
	var b strings.Builder

	b.WriteString("Your Progress\n")
	fmt.Fprintf(&b, "Total interviews: %d\n", stats.TotalInterviews)
	fmt.Fprintf(&b, "Average score:    %s\n", formatScore(stats.AverageScore))
	fmt.Fprintf(&b, "Current streak:   %d days\n", stats.StreakDays)
	if !stats.LastSession.IsZero() {
		fmt.Fprintf(&b, "Last session:     %s\n", stats.LastSession.Format(dateLayout))
	}

	if len(stats.Recent) == 0 {
		return b.String()
	}

	b.WriteString("\nRecent Sessions\n")
	for _, entry := range stats.Recent {
		trend := "↓"
		if entry.Score >= 8 {
			trend = "↑"
		}
		fmt.Fprintf(&b, "  %s  %-12s %s %s\n", entry.Date.Format(dateLayout), entry.Type, trend, formatScore(entry.Score))
	}
	return b.String()
}

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}
