package indexer

import "testing"

func TestPreprocess(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Hello, World!", "hello world"},
		{"  The coronavirus   spread in 2020.  ", "coronavirus spread"},
		{"I don't think it's 42%", "think"},
		{"Greta’s boat crossed the Atlantic", "gretas boat crossed atlantic"},
		{"well-known covid-19 facts", "well known covid facts"},
		{"", ""},
		{"123 456", ""},
		{"Café au lait", "café au lait"},
		{"sea shell", "sea shell"},
		{"ill patient", "ill patient"},
		{"garden shed", "garden shed"},
		{"well water", "well water"},
		{"We'll see, she'd said", "see said"},
	}
	for _, tt := range tests {
		if got := Preprocess(tt.in); got != tt.want {
			t.Errorf("Preprocess(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestIsStopword(t *testing.T) {
	for _, w := range []string{"the", "The", "dont", "don't", "ourselves"} {
		if !IsStopword(w) {
			t.Errorf("%q should be a stopword", w)
		}
	}
	for _, w := range []string{"podcast", "coffee", "", "well", "shell", "ill", "id"} {
		if IsStopword(w) {
			t.Errorf("%q should not be a stopword", w)
		}
	}
}
