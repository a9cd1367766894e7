package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/hyperjump/podsearch/internal/bench"
	"github.com/hyperjump/podsearch/internal/models"
	"github.com/hyperjump/podsearch/internal/vector"
)

func testResponse() *models.SearchResponse {
	return &models.SearchResponse{
		Query:     "coffee beans",
		Index:     "cluster",
		K:         2,
		QueryTime: 1500,
		Total:     2,
		Results: []*models.SearchResult{
			{
				Rank:     1,
				Index:    7,
				Distance: 0.25,
				Utterance: &models.Utterance{
					Index:      7,
					EpisodeURI: "spotify:episode:abc",
					Text:       "We roast coffee beans every morning",
					Start:      83 * time.Second,
				},
				Episode: &models.Episode{URI: "spotify:episode:abc", ShowName: "Morning Brew", Name: "Roasting"},
			},
			{Rank: 2, Index: 3, Distance: 0.5},
		},
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    OutputFormat
		wantErr bool
	}{
		{"", OutputText, false},
		{"text", OutputText, false},
		{"JSON", OutputJSON, false},
		{"compact", OutputCompact, false},
		{"yaml", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, %v", tt.in, got, err)
		}
	}
}

func TestWriteSearchResults_JSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSearchResults(&buf, testResponse(), OutputJSON); err != nil {
		t.Fatalf("WriteSearchResults(json): %v", err)
	}
	var decoded models.SearchResponse
	if err := json.NewDecoder(&buf).Decode(&decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded.Query != "coffee beans" || decoded.QueryTime != 1500 || len(decoded.Results) != 2 {
		t.Errorf("decoded = %+v", decoded)
	}
	if decoded.Results[0].Utterance.Start != 83*time.Second {
		t.Errorf("start = %v", decoded.Results[0].Utterance.Start)
	}
}

func TestWriteSearchResults_text(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSearchResults(&buf, testResponse(), OutputText); err != nil {
		t.Fatalf("WriteSearchResults(text): %v", err)
	}
	out := buf.String()
	for _, sub := range []string{
		"Query: coffee beans",
		"Found 2 results in 1.50ms",
		"index: cluster",
		"Rank: 1 | Distance: 0.2500 | Index: 7",
		"Show: Morning Brew",
		"At: 0:01:23",
		"We roast *coffee* *beans* every morning",
		"Rank: 2",
	} {
		if !strings.Contains(out, sub) {
			t.Errorf("text output missing %q:\n%s", sub, out)
		}
	}
}

func TestWriteSearchResults_compact(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSearchResults(&buf, testResponse(), OutputCompact); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines:\n%s", len(lines), buf.String())
	}
	if !strings.HasPrefix(lines[0], "1\t0.2500\t7\t0:01:23\tRoasting\t") {
		t.Errorf("line 1 = %q", lines[0])
	}
	if lines[1] != "2\t0.5000\t3\t-\t-\t" {
		t.Errorf("line 2 = %q", lines[1])
	}
}

func TestWriteSearchResults_unknownFormatTreatedAsText(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSearchResults(&buf, &models.SearchResponse{Query: "x"}, OutputFormat("unknown")); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "Found 0 results") {
		t.Errorf("unknown format should fall back to text; got %q", buf.String())
	}
}

func TestWriteSearchResponses_JSONArray(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSearchResponses(&buf, []*models.SearchResponse{testResponse(), testResponse()}, OutputJSON); err != nil {
		t.Fatal(err)
	}
	var decoded []models.SearchResponse
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatal(err)
	}
	if len(decoded) != 2 {
		t.Errorf("got %d responses", len(decoded))
	}
}

func TestWriteReports(t *testing.T) {
	recall := 0.875
	reports := []*bench.Report{
		{Backend: vector.IndexTypeLinear, K: 5, Vectors: 1000, Dimensions: 384, Queries: 10,
			BuildTime: 2 * time.Millisecond, P50: 300 * time.Microsecond},
		{Backend: vector.IndexTypeCluster, K: 5, Vectors: 1000, Dimensions: 384, Queries: 10,
			BuildTime: 3 * time.Second, P50: 40 * time.Microsecond, Recall: &recall},
	}

	var buf bytes.Buffer
	if err := WriteReports(&buf, reports, OutputText); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, sub := range []string{"1000 vectors x 384 dims, 10 queries, k=5", "BACKEND", "linear", "cluster", "3.00s", "300.0µs", "0.875"} {
		if !strings.Contains(out, sub) {
			t.Errorf("report table missing %q:\n%s", sub, out)
		}
	}

	buf.Reset()
	if err := WriteReports(&buf, reports, OutputJSON); err != nil {
		t.Fatal(err)
	}
	var decoded []bench.Report
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded[0].Recall != nil || decoded[1].Recall == nil || *decoded[1].Recall != recall {
		t.Errorf("recall round trip: %+v", decoded)
	}
}
