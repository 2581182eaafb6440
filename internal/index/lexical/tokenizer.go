package lexical

import (
	"strings"
	"unicode"
)

// defaultStopWords is the list applied when stop-word removal is enabled.
// Removal is off by default because it changes recall; enabling it is an
// explicit configuration choice.
var defaultStopWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {},
	"be": {}, "by": {}, "for": {}, "from": {}, "has": {}, "he": {},
	"in": {}, "is": {}, "it": {}, "its": {}, "of": {}, "on": {},
	"or": {}, "that": {}, "the": {}, "to": {}, "was": {}, "were": {},
	"will": {}, "with": {},
}

// Tokenizer normalizes text into index terms: lowercase, punctuation
// stripped, split on whitespace.
type Tokenizer struct {
	removeStopWords bool
	stopWords       map[string]struct{}
}

// NewTokenizer creates a tokenizer. Stop-word removal is disabled unless
// requested.
func NewTokenizer(removeStopWords bool) *Tokenizer {
	return &Tokenizer{
		removeStopWords: removeStopWords,
		stopWords:       defaultStopWords,
	}
}

// Tokenize splits text into normalized terms. Empty input yields nil.
func (t *Tokenizer) Tokenize(text string) []string {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	if len(fields) == 0 {
		return nil
	}

	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		term := strings.ToLower(f)
		if t.removeStopWords {
			if _, stop := t.stopWords[term]; stop {
				continue
			}
		}
		terms = append(terms, term)
	}
	return terms
}
