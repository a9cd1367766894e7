package search

import (
	"strings"
	"unicode"

	"github.com/hyperjump/podsearch/internal/indexer"
)

// Highlight wraps every word of text whose normalized form appears among the
// query's content words with pre and post. Stopwords never match.
func Highlight(text, query, pre, post string) string {
	terms := make(map[string]struct{})
	for _, w := range strings.Fields(indexer.Preprocess(query)) {
		terms[w] = struct{}{}
	}
	if len(terms) == 0 {
		return text
	}

	var b strings.Builder
	wordStart := -1
	flush := func(end int) {
		if wordStart < 0 {
			return
		}
		word := text[wordStart:end]
		if _, ok := terms[indexer.Preprocess(word)]; ok {
			b.WriteString(pre)
			b.WriteString(word)
			b.WriteString(post)
		} else {
			b.WriteString(word)
		}
		wordStart = -1
	}
	for i, r := range text {
		if unicode.IsLetter(r) || r == '\'' || r == '’' {
			if wordStart < 0 {
				wordStart = i
			}
			continue
		}
		flush(i)
		b.WriteRune(r)
	}
	flush(len(text))
	return b.String()
}
