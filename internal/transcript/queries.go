package transcript

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/hyperjump/podsearch/internal/models"
)

type topicsFile struct {
	Topics []struct {
		Num         int    `xml:"num"`
		Query       string `xml:"query"`
		Type        string `xml:"type"`
		Description string `xml:"description"`
	} `xml:"topic"`
}

// ReadQueries loads TREC topics from path, keeping at most limit of them.
// A non-positive limit keeps all.
func ReadQueries(path string, limit int) ([]*models.Query, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseQueries(f, limit)
}

// ParseQueries decodes a <topics> document.
func ParseQueries(r io.Reader, limit int) ([]*models.Query, error) {
	var tf topicsFile
	if err := xml.NewDecoder(r).Decode(&tf); err != nil {
		return nil, fmt.Errorf("%w: topics: %v", ErrMalformed, err)
	}
	var out []*models.Query
	for _, t := range tf.Topics {
		text := strings.TrimSpace(t.Query)
		if text == "" {
			continue
		}
		out = append(out, &models.Query{
			Number:      t.Num,
			Text:        text,
			Type:        strings.TrimSpace(t.Type),
			Description: strings.TrimSpace(t.Description),
		})
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}
