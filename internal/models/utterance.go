// Package models defines the payloads that travel alongside search space
// positions: utterances, episodes, queries and search results.
package models

import (
	"fmt"
	"time"
)

// Episode is one podcast episode from the corpus metadata.
type Episode struct {
	URI         string `json:"uri" db:"uri"`
	ShowURI     string `json:"show_uri" db:"show_uri"`
	ShowName    string `json:"show_name" db:"show_name"`
	Name        string `json:"name" db:"name"`
	Description string `json:"description,omitempty" db:"description"`
	Publisher   string `json:"publisher,omitempty" db:"publisher"`
	Language    string `json:"language,omitempty" db:"language"`
	// Prefix is the episode's transcript file name without extension.
	Prefix   string  `json:"prefix" db:"prefix"`
	Duration float64 `json:"duration_min,omitempty" db:"duration"`
}

// Utterance is one transcribed speech segment. Index is its position in the
// search space.
type Utterance struct {
	ID         string        `json:"id" db:"id"`
	Index      int           `json:"index" db:"idx"`
	EpisodeURI string        `json:"episode_uri" db:"episode_uri"`
	Text       string        `json:"text" db:"text"`
	Start      time.Duration `json:"start_ns" db:"start_ns"`
	Speaker    int           `json:"speaker,omitempty" db:"speaker"`
	Embedding  []float32     `json:"-" db:"-"`
}

// Vector returns the utterance embedding.
func (u *Utterance) Vector() []float32 { return u.Embedding }

// Timestamp formats Start as h:mm:ss.
func (u *Utterance) Timestamp() string {
	return FormatTimestamp(u.Start)
}

// FormatTimestamp renders d as h:mm:ss, dropping sub-second precision.
func FormatTimestamp(d time.Duration) string {
	s := int(d / time.Second)
	return fmt.Sprintf("%d:%02d:%02d", s/3600, (s/60)%60, s%60)
}
