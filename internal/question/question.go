// Package question defines interview questions, the built-in category banks,
// and user-authored custom sets.
package question

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Type identifies an interview category.
type Type string

const (
	TypeBehavioral Type = "behavioral"
	TypeTechnical  Type = "technical"
	TypeProduct    Type = "product"
	TypeF1Visa     Type = "f1-visa"
	TypeB1B2Visa   Type = "b1b2-visa"
	TypeCustom     Type = "custom"
)

// MinCustom is the smallest accepted custom question set.
const MinCustom = 3

var (
	ErrEmptyQuestion   = errors.New("please fill in all questions")
	ErrTooFewQuestions = errors.New("please add at least 3 questions")
)

// Question is immutable once a session's list is fixed.
type Question struct {
	ID   string
	Text string
	Type Type
	Tip  string
}

// ParseType resolves a category identifier.
func ParseType(raw string) (Type, error) {
	t := Type(strings.ToLower(strings.TrimSpace(raw)))
	for _, known := range Types() {
		if t == known {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown interview type %q", raw)
}

// Types lists categories in display order.
func Types() []Type {
	return []Type{TypeBehavioral, TypeTechnical, TypeProduct, TypeF1Visa, TypeB1B2Visa, TypeCustom}
}

// BuildCustom turns user-authored prompts into a custom question list.
func BuildCustom(texts []string) ([]Question, error) {
	for _, text := range texts {
		if strings.TrimSpace(text) == "" {
			return nil, ErrEmptyQuestion
		}
	}
	if len(texts) < MinCustom {
		return nil, ErrTooFewQuestions
	}

	questions := make([]Question, 0, len(texts))
	for i, text := range texts {
		questions = append(questions, Question{
			ID:   strconv.Itoa(i + 1),
			Text: strings.TrimSpace(text),
			Type: TypeCustom,
		})
	}
	return questions, nil
}

// Validate checks the contract a session requires of its question list.
func Validate(questions []Question) error {
	if len(questions) == 0 {
		return errors.New("question list is empty")
	}

	kind := questions[0].Type
	seen := make(map[string]struct{}, len(questions))
	for i, q := range questions {
		if strings.TrimSpace(q.ID) == "" {
			return fmt.Errorf("question %d: id is empty", i+1)
		}
		if _, dup := seen[q.ID]; dup {
			return fmt.Errorf("question %d: duplicate id %q", i+1, q.ID)
		}
		seen[q.ID] = struct{}{}

		if strings.TrimSpace(q.Text) == "" {
			return fmt.Errorf("question %d: %w", i+1, ErrEmptyQuestion)
		}
		if q.Type != kind {
			return fmt.Errorf("question %d: type %q does not match session type %q", i+1, q.Type, kind)
		}
	}
	return nil
}
