package search

import "testing"

func TestHighlight(t *testing.T) {
	tests := []struct {
		text, query, want string
	}{
		{"I love Coffee, and coffee loves me.", "coffee", "I love [Coffee], and [coffee] loves me."},
		{"the best of the best", "the best", "the [best] of the [best]"},
		{"no match here", "basketball", "no match here"},
		{"only stopwords", "the and", "only stopwords"},
		{"Greta’s boat", "gretas", "[Greta’s] boat"},
		{"", "coffee", ""},
	}
	for _, tt := range tests {
		if got := Highlight(tt.text, tt.query, "[", "]"); got != tt.want {
			t.Errorf("Highlight(%q, %q) = %q, want %q", tt.text, tt.query, got, tt.want)
		}
	}
}
