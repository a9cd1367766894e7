package models

// SearchResult is a single ranked hit.
type SearchResult struct {
	Rank      int        `json:"rank"`
	Index     int        `json:"index"`
	Distance  float64    `json:"distance"`
	Utterance *Utterance `json:"utterance,omitempty"`
	Episode   *Episode   `json:"episode,omitempty"`
}

// SearchResponse is the response for a search request.
type SearchResponse struct {
	Query     string          `json:"query"`
	Index     string          `json:"index"`
	K         int             `json:"k"`
	Results   []*SearchResult `json:"results"`
	Total     int             `json:"total"`
	QueryTime int64           `json:"query_time_us"`
}
