package transcript

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/hyperjump/podsearch/internal/models"
)

// Column order of metadata.tsv.
const (
	colShowURI = iota
	colShowName
	colShowDescription
	colPublisher
	colLanguage
	colRSSLink
	colEpisodeURI
	colEpisodeName
	colEpisodeDescription
	colDuration
	colShowPrefix
	colEpisodePrefix
	metadataColumns
)

// ReadMetadata loads metadata.tsv and returns episodes in file order.
func ReadMetadata(path string) ([]*models.Episode, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseMetadata(f)
}

// ParseMetadata reads the tab-separated metadata table. The first row is a
// header.
func ParseMetadata(r io.Reader) ([]*models.Episode, error) {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1

	if _, err := cr.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: metadata header: %v", ErrMalformed, err)
	}

	var out []*models.Episode
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: metadata: %v", ErrMalformed, err)
		}
		if len(row) < metadataColumns {
			line, _ := cr.FieldPos(0)
			return nil, fmt.Errorf("%w: metadata line %d has %d columns, want %d", ErrMalformed, line, len(row), metadataColumns)
		}
		var duration float64
		if s := strings.TrimSpace(row[colDuration]); s != "" {
			if duration, err = strconv.ParseFloat(s, 64); err != nil {
				return nil, fmt.Errorf("%w: duration %q", ErrMalformed, s)
			}
		}
		out = append(out, &models.Episode{
			URI:         row[colEpisodeURI],
			ShowURI:     row[colShowURI],
			ShowName:    row[colShowName],
			Name:        row[colEpisodeName],
			Description: row[colEpisodeDescription],
			Publisher:   row[colPublisher],
			Language:    row[colLanguage],
			Prefix:      row[colEpisodePrefix],
			Duration:    duration,
		})
	}
	return out, nil
}
