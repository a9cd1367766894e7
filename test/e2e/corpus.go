// Package e2e provides end-to-end tests over a generated podcast corpus.
package e2e

import (
	"fmt"
	"strings"
)

// Utterance is one transcript segment of a generated episode.
type Utterance struct {
	Text    string
	Seconds int
	Speaker int
}

// Episode is a generated episode with its metadata and transcript.
type Episode struct {
	ID          string
	ShowID      string
	ShowName    string
	Name        string
	Description string
	Publisher   string
	Minutes     float64
	Utterances  []Utterance
}

// URI returns the episode URI as the transcript reader derives it.
func (e Episode) URI() string { return "spotify:episode:" + e.ID }

// QueryTestCase defines a topic and the episode whose signature utterance
// must appear among the results.
type QueryTestCase struct {
	Number          int
	Query           string
	Description     string
	ExpectedEpisode string
}

// Corpus holds episodes and query test cases for e2e tests.
type Corpus struct {
	Episodes        []Episode
	TestCases       []QueryTestCase
	TotalEpisodes   int
	TotalUtterances int
}

var shows = []struct {
	name      string
	publisher string
	lines     []string
}{
	{"Morning Brew", "Bean Media", []string{
		"we tried a new pour over method this week",
		"the grind size matters more than the kettle",
		"espresso needs fresh beans and patience",
	}},
	{"Court Side", "Hoops Network", []string{
		"the playoffs started with a buzzer beater",
		"defense wins championships every single season",
		"the rookie scored thirty points off the bench",
	}},
	{"Night Files", "Mystery House", []string{
		"the detective found a letter under the floorboards",
		"nobody saw the suspect leave the harbor",
		"the case went cold for almost twenty years",
	}},
	{"Green Thumb", "Garden Radio", []string{
		"tomatoes need full sun and steady watering",
		"compost turns kitchen scraps into soil",
		"prune the roses before the first frost",
	}},
	{"Orbit", "Space Cast", []string{
		"the rover landed near an ancient river delta",
		"telescopes measure light from distant galaxies",
		"rockets reuse boosters to cut launch costs",
	}},
	{"Ledger", "Money Talk", []string{
		"index funds keep fees low for savers",
		"inflation eats into cash held in checking",
		"budgets work when you track every purchase",
	}},
}

// BuildCorpus returns episodesPerShow episodes for each show. Every episode
// carries one signature utterance made of words no other episode uses, and
// one query test case built from those words.
func BuildCorpus(episodesPerShow int) *Corpus {
	c := &Corpus{}
	for s, show := range shows {
		for e := range episodesPerShow {
			n := s*episodesPerShow + e
			ep := Episode{
				ID:          fmt.Sprintf("ep%03d", n),
				ShowID:      fmt.Sprintf("show%02d", s),
				ShowName:    show.name,
				Name:        fmt.Sprintf("%s episode %d", show.name, e+1),
				Description: "A generated episode about " + strings.ToLower(show.name),
				Publisher:   show.publisher,
				Minutes:     float64(30 + n%30),
			}
			for i, line := range show.lines {
				ep.Utterances = append(ep.Utterances, Utterance{Text: line, Seconds: 45 * i, Speaker: i % 2})
			}
			a, b := signature(n)
			ep.Utterances = append(ep.Utterances, Utterance{
				Text:    fmt.Sprintf("today we talk about %s and %s", a, b),
				Seconds: 45 * len(show.lines),
			})
			c.Episodes = append(c.Episodes, ep)
			c.TotalUtterances += len(ep.Utterances)
			c.TestCases = append(c.TestCases, QueryTestCase{
				Number:          n + 1,
				Query:           a + " " + b,
				Description:     "signature of " + ep.ID,
				ExpectedEpisode: ep.URI(),
			})
		}
	}
	c.TotalEpisodes = len(c.Episodes)
	return c
}

// signature returns two letter-only words unique to episode n. Digits would
// be stripped by preprocessing, so n is spelled in base 26.
func signature(n int) (string, string) {
	return "zorp" + letters(n), "quill" + letters(n+7919)
}

func letters(n int) string {
	var b []byte
	for {
		b = append(b, byte('a'+n%26))
		n /= 26
		if n == 0 {
			break
		}
	}
	return string(b)
}
