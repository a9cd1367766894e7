package indexer

import (
	"strings"
	"unicode"
)

// stopwords is the English stopword list applied before embedding.
var stopwords = toSet(`a about above after again against all am an and any are aren't as at be because been
before being below between both but by can couldn't did didn't do does doesn't doing don't down during
each few for from further had hadn't has hasn't have haven't having he he'd he'll he's her here here's
hers herself him himself his how how's i i'd i'll i'm i've if in into is isn't it it's its itself just
let's me more most mustn't my myself no nor not now of off on once only or other ought our ours ourselves
out over own same shan't she she'd she'll she's should shouldn't so some such than that that's the their
theirs them themselves then there there's these they they'd they'll they're they've this those through
to too under until up very was wasn't we we'd we'll we're we've were weren't what what's when when's where
where's which while who who's whom why why's will with won't would wouldn't you you'd you'll you're you've
your yours yourself yourselves`)

// homographs are contractions that read as ordinary words once the
// apostrophe is gone ("we'll" -> "well"). Only their apostrophe forms are
// stopwords.
var homographs = map[string]struct{}{
	"well": {}, "shell": {}, "shed": {}, "hell": {}, "ill": {},
	"wed": {}, "id": {}, "hed": {},
}

// toSet splits words into a set, adding the apostrophe-free spelling of each
// contraction unless it is a homograph.
func toSet(words string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(words) {
		set[w] = struct{}{}
		if !strings.Contains(w, "'") {
			continue
		}
		bare := strings.ReplaceAll(w, "'", "")
		if _, ok := homographs[bare]; !ok {
			set[bare] = struct{}{}
		}
	}
	return set
}

// Preprocess normalizes utterance or query text for embedding: lowercase,
// punctuation and digits removed, stopwords dropped, whitespace collapsed.
// Stopwords are matched with apostrophes intact, then apostrophes inside
// words are dropped so "don't" becomes "dont".
func Preprocess(text string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(text) {
		switch {
		case r == '\'' || r == '’':
			b.WriteRune('\'')
		case unicode.IsLetter(r):
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}
	var kept []string
	for _, w := range strings.Fields(b.String()) {
		w = strings.Trim(w, "'")
		if _, ok := stopwords[w]; ok {
			continue
		}
		w = strings.ReplaceAll(w, "'", "")
		if w == "" {
			continue
		}
		if _, ok := stopwords[w]; !ok {
			kept = append(kept, w)
		}
	}
	return strings.Join(kept, " ")
}

// IsStopword reports whether word, lowercased, is on the stopword list.
func IsStopword(word string) bool {
	_, ok := stopwords[strings.ToLower(word)]
	return ok
}
