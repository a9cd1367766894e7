// Package transcript reads the podcast corpus: transcript JSON files,
// the episode metadata table and the TREC topic file.
package transcript

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/podsearch/internal/models"
)

// EpisodeURIPrefix is prepended to a transcript file stem to form its episode URI.
const EpisodeURIPrefix = "spotify:episode:"

// ErrMalformed is returned for input files that cannot be parsed.
var ErrMalformed = errors.New("malformed corpus file")

type transcriptFile struct {
	Results []struct {
		Alternatives []struct {
			Transcript string `json:"transcript"`
			Words      []struct {
				StartTime  string `json:"startTime"`
				SpeakerTag int    `json:"speakerTag"`
			} `json:"words"`
		} `json:"alternatives"`
	} `json:"results"`
}

// ParseTranscript decodes one transcript file into utterances attributed to
// episodeURI. Results without a transcript are skipped. Index is left at 0;
// the caller assigns search space positions.
func ParseTranscript(data []byte, episodeURI string) ([]*models.Utterance, error) {
	var f transcriptFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	var out []*models.Utterance
	for _, r := range f.Results {
		if len(r.Alternatives) == 0 {
			continue
		}
		alt := r.Alternatives[0]
		text := strings.TrimSpace(alt.Transcript)
		if text == "" {
			continue
		}
		u := &models.Utterance{
			ID:         utteranceID(episodeURI, len(out)),
			EpisodeURI: episodeURI,
			Text:       text,
		}
		if len(alt.Words) > 0 {
			start, err := parseOffset(alt.Words[0].StartTime)
			if err != nil {
				return nil, err
			}
			u.Start = start
			u.Speaker = alt.Words[0].SpeakerTag
		}
		out = append(out, u)
	}
	return out, nil
}

// parseOffset parses offsets like "12.300s". An empty offset is zero.
func parseOffset(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%w: start time %q", ErrMalformed, s)
	}
	return d, nil
}

// utteranceID derives a stable id from the episode and ordinal so repeated
// ingestion of the same corpus yields the same ids.
func utteranceID(episodeURI string, ordinal int) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, fmt.Appendf(nil, "%s#%d", episodeURI, ordinal)).String()
}

// Reader walks a transcripts directory.
type Reader struct {
	dir    string
	limit  int
	logger *zap.Logger
}

// ReaderOption configures a Reader.
type ReaderOption func(*Reader)

// WithLogger sets the logger used for per-file progress.
func WithLogger(l *zap.Logger) ReaderOption {
	return func(r *Reader) { r.logger = l }
}

// WithLimit caps the number of transcript files read. A negative limit reads all.
func WithLimit(n int) ReaderOption {
	return func(r *Reader) { r.limit = n }
}

// NewReader returns a reader over dir.
func NewReader(dir string, opts ...ReaderOption) *Reader {
	r := &Reader{dir: dir, limit: -1, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Dir returns the transcripts directory.
func (r *Reader) Dir() string { return r.dir }

// Files returns transcript paths in lexical order, truncated to the limit.
func (r *Reader) Files() ([]string, error) {
	var files []string
	err := filepath.WalkDir(r.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".json") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk transcripts: %w", err)
	}
	slices.Sort(files)
	if r.limit >= 0 && len(files) > r.limit {
		files = files[:r.limit]
	}
	return files, nil
}

// ReadAll reads every transcript and returns utterances with Index set to
// their position in the returned slice.
func (r *Reader) ReadAll(ctx context.Context) ([]*models.Utterance, error) {
	files, err := r.Files()
	if err != nil {
		return nil, err
	}
	var out []*models.Utterance
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		utts, err := ParseTranscript(data, EpisodeURIPrefix+stem)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		for _, u := range utts {
			u.Index = len(out)
			out = append(out, u)
		}
		r.logger.Debug("Read transcript", zap.String("path", path), zap.Int("utterances", len(utts)))
	}
	r.logger.Info("Read transcripts", zap.Int("files", len(files)), zap.Int("utterances", len(out)))
	return out, nil
}
