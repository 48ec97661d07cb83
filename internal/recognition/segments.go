package recognition

import (
	"strings"
	"unicode"
)

// segments tracks the live transcript of one listening session: finalized
// segments plus the latest interim hypothesis.
type segments struct {
	finals  []string
	interim string
	// consumed is the interim text already handed to the caller before a
	// reset; leading words it shares with later results are dropped.
	consumed []string
}

func (s *segments) record(result Result) {
	transcript := s.stripConsumed(cleanSegment(result.Transcript), result.Final)
	if result.Final {
		s.finals = appendSegment(s.finals, transcript)
		s.interim = ""
		return
	}
	if s.interim != "" && !isInterimContinuation(s.interim, transcript) {
		s.finals = appendSegment(s.finals, s.interim)
	}
	s.interim = transcript
}

func (s *segments) live() string {
	parts := append([]string(nil), s.finals...)
	if interim := cleanSegment(s.interim); interim != "" {
		parts = appendSegment(parts, interim)
	}
	return strings.Join(parts, " ")
}

// consume removes committed text from the front of the live transcript and
// leaves the rest. Interim words it covers are remembered so the engine's
// later restatement of the same utterance is not reported again.
func (s *segments) consume(committed string) {
	done := strings.Fields(committed)
	var finalWords []string
	for _, final := range s.finals {
		finalWords = append(finalWords, strings.Fields(final)...)
	}

	n := commonPrefixWords(done, finalWords)
	if n < len(finalWords) {
		s.finals = appendSegment(nil, strings.Join(finalWords[n:], " "))
		return
	}
	s.finals = nil

	interimWords := strings.Fields(s.interim)
	k := commonPrefixWords(done[n:], interimWords)
	if k > 0 {
		s.consumed = append(s.consumed, interimWords[:k]...)
	}
	s.interim = strings.Join(interimWords[k:], " ")
}

func (s *segments) clear() {
	*s = segments{}
}

func (s *segments) stripConsumed(transcript string, final bool) string {
	if len(s.consumed) == 0 {
		return transcript
	}
	words := strings.Fields(transcript)
	common := commonPrefixWords(s.consumed, words)
	if final || common == 0 {
		s.consumed = nil
	}
	return strings.Join(words[common:], " ")
}

// appendSegment merges continuation segments to avoid duplicate transcript growth.
func appendSegment(list []string, transcript string) []string {
	transcript = cleanSegment(transcript)
	if transcript == "" {
		return list
	}
	if len(list) == 0 {
		return append(list, transcript)
	}

	last := list[len(list)-1]
	switch {
	case transcript == last:
		return list
	case strings.HasPrefix(transcript, last):
		list[len(list)-1] = transcript
		return list
	case strings.HasPrefix(last, transcript):
		return list
	default:
		return append(list, transcript)
	}
}

// isInterimContinuation decides whether an interim update extends prior speech.
func isInterimContinuation(previous string, current string) bool {
	if previous == "" || current == "" || previous == current {
		return true
	}
	if strings.HasPrefix(current, previous) || strings.HasPrefix(previous, current) {
		return true
	}

	prevWords := strings.Fields(previous)
	currWords := strings.Fields(current)
	shorter := min(len(prevWords), len(currWords))
	if shorter == 0 {
		return true
	}
	return commonPrefixWords(prevWords, currWords)*2 >= shorter
}

func commonPrefixWords(left []string, right []string) int {
	limit := min(len(left), len(right))
	count := 0
	for i := 0; i < limit; i++ {
		if normalizeWord(left[i]) != normalizeWord(right[i]) {
			break
		}
		count++
	}
	return count
}

// normalizeWord folds case and edge punctuation so "team." matches "Team".
func normalizeWord(word string) string {
	return strings.ToLower(strings.TrimFunc(word, unicode.IsPunct))
}

func cleanSegment(raw string) string {
	return strings.Join(strings.Fields(raw), " ")
}
