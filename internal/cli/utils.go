// Package cli renders search responses and benchmark reports for the
// podsearch command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/hyperjump/podsearch/internal/bench"
	"github.com/hyperjump/podsearch/internal/models"
	"github.com/hyperjump/podsearch/internal/search"
	"github.com/hyperjump/podsearch/pkg/utils"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputCompact prints one line per result.
	OutputCompact OutputFormat = "compact"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseFormat validates a --output value.
func ParseFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(s)); f {
	case OutputText, OutputCompact, OutputJSON:
		return f, nil
	case "":
		return OutputText, nil
	default:
		return "", fmt.Errorf("unknown output format %q; use text, compact, or json", s)
	}
}

const snippetLen = 200

// WriteSearchResults writes one response to w in the given format.
// Unknown formats fall back to text.
func WriteSearchResults(w io.Writer, response *models.SearchResponse, format OutputFormat) error {
	switch format {
	case OutputJSON:
		return writeJSON(w, response)
	case OutputCompact:
		writeSearchResultsCompact(w, response)
	default:
		writeSearchResultsText(w, response)
	}
	return nil
}

// WriteSearchResponses writes several responses, as produced for a topic
// file. JSON output is a single array.
func WriteSearchResponses(w io.Writer, responses []*models.SearchResponse, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, responses)
	}
	for _, r := range responses {
		if err := WriteSearchResults(w, r, format); err != nil {
			return err
		}
	}
	return nil
}

func writeSearchResultsText(w io.Writer, response *models.SearchResponse) {
	fmt.Fprintf(w, "\nQuery: %s\n", response.Query)
	fmt.Fprintf(w, "Found %d results in %s (index: %s, k=%d)\n\n",
		response.Total, utils.FormatDuration(queryDuration(response)), response.Index, response.K)
	for _, result := range response.Results {
		writeOneResult(w, result, response.Query)
	}
}

func writeOneResult(w io.Writer, result *models.SearchResult, query string) {
	fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
	fmt.Fprintf(w, "Rank: %d | Distance: %.4f | Index: %d\n", result.Rank, result.Distance, result.Index)
	if ep := result.Episode; ep != nil {
		fmt.Fprintf(w, "Show: %s\n", ep.ShowName)
		fmt.Fprintf(w, "Episode: %s\n", ep.Name)
	}
	if u := result.Utterance; u != nil {
		if result.Episode == nil {
			fmt.Fprintf(w, "Episode: %s\n", u.EpisodeURI)
		}
		fmt.Fprintf(w, "At: %s\n", u.Timestamp())
		fmt.Fprintf(w, "\n%s\n", search.Highlight(utils.Truncate(u.Text, snippetLen), query, "*", "*"))
	}
	fmt.Fprintln(w)
}

func writeSearchResultsCompact(w io.Writer, response *models.SearchResponse) {
	for _, result := range response.Results {
		episode, at, text := "-", "-", ""
		if u := result.Utterance; u != nil {
			episode, at = u.EpisodeURI, u.Timestamp()
			text = utils.Truncate(u.Text, 80)
		}
		if result.Episode != nil && result.Episode.Name != "" {
			episode = result.Episode.Name
		}
		fmt.Fprintf(w, "%d\t%.4f\t%d\t%s\t%s\t%s\n",
			result.Rank, result.Distance, result.Index, at, episode, text)
	}
}

// WriteReports writes benchmark reports as a comparison table, or as JSON.
func WriteReports(w io.Writer, reports []*bench.Report, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, reports)
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	if format != OutputCompact && len(reports) > 0 {
		r := reports[0]
		fmt.Fprintf(w, "\n%d vectors x %d dims, %d queries, k=%d\n\n", r.Vectors, r.Dimensions, r.Queries, r.K)
	}
	fmt.Fprintln(tw, "BACKEND\tBUILD\tMIN\tMEAN\tP50\tP95\tMAX\tTOTAL\tRECALL")
	for _, r := range reports {
		recall := "-"
		if r.Recall != nil {
			recall = fmt.Sprintf("%.3f", *r.Recall)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.Backend,
			utils.FormatDuration(r.BuildTime),
			utils.FormatDuration(r.Min),
			utils.FormatDuration(r.Mean),
			utils.FormatDuration(r.P50),
			utils.FormatDuration(r.P95),
			utils.FormatDuration(r.Max),
			utils.FormatDuration(r.Total),
			recall)
	}
	return tw.Flush()
}

func queryDuration(r *models.SearchResponse) time.Duration {
	return time.Duration(r.QueryTime) * time.Microsecond
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
