package models

import "fmt"

// Query is a search request. Topic queries read from the corpus carry a
// number and a description; ad hoc queries only carry text.
type Query struct {
	Number      int       `json:"number,omitempty"`
	Text        string    `json:"query"`
	Type        string    `json:"type,omitempty"`
	Description string    `json:"description,omitempty"`
	K           int       `json:"k,omitempty"`
	Embedding   []float32 `json:"-"`
}

// Validate ensures the query has text and normalizes K against the given
// default and maximum.
func (q *Query) Validate(defaultK, maxK int) error {
	if q.Text == "" && len(q.Embedding) == 0 {
		return fmt.Errorf("query cannot be empty")
	}
	if q.K <= 0 {
		q.K = defaultK
	}
	if maxK > 0 && q.K > maxK {
		q.K = maxK
	}
	return nil
}
