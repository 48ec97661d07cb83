package question

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Set is a custom question set as authored on disk.
type Set struct {
	Title     string     `yaml:"title"`
	Questions []SetEntry `yaml:"questions"`
}

type SetEntry struct {
	Text string `yaml:"text"`
	Tip  string `yaml:"tip"`
}

// LoadFile reads a YAML question set and builds a custom question list from it.
func LoadFile(path string) ([]Question, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("read question file %s: %w", path, err)
	}
	return ParseSet(data)
}

// ParseSet decodes a YAML question set.
func ParseSet(data []byte) ([]Question, string, error) {
	var set Set
	if err := yaml.Unmarshal(data, &set); err != nil {
		return nil, "", fmt.Errorf("parse question file: %w", err)
	}

	texts := make([]string, 0, len(set.Questions))
	for _, entry := range set.Questions {
		texts = append(texts, entry.Text)
	}

	questions, err := BuildCustom(texts)
	if err != nil {
		return nil, "", err
	}
	for i := range questions {
		questions[i].Tip = strings.TrimSpace(set.Questions[i].Tip)
	}
	return questions, strings.TrimSpace(set.Title), nil
}
