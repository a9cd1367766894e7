package e2e

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Paths locates a corpus written by WriteCorpus.
type Paths struct {
	TranscriptsDir string
	MetadataPath   string
	QueriesPath    string
}

// WriteCorpus writes c under dir in the on-disk formats of the podcast
// dataset: one transcript JSON per episode grouped by show, a tab-separated
// metadata table and a TREC topics file.
func WriteCorpus(dir string, c *Corpus) (Paths, error) {
	p := Paths{
		TranscriptsDir: filepath.Join(dir, "podcasts-transcripts"),
		MetadataPath:   filepath.Join(dir, "metadata.tsv"),
		QueriesPath:    filepath.Join(dir, "queries.xml"),
	}
	for _, ep := range c.Episodes {
		data, err := TranscriptJSON(ep.Utterances)
		if err != nil {
			return p, err
		}
		path := filepath.Join(p.TranscriptsDir, ep.ShowID, ep.ID+".json")
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return p, err
		}
		if err := os.WriteFile(path, data, 0644); err != nil {
			return p, err
		}
	}
	if err := os.WriteFile(p.MetadataPath, []byte(MetadataTSV(c.Episodes)), 0644); err != nil {
		return p, err
	}
	topics, err := QueriesXML(c.TestCases)
	if err != nil {
		return p, err
	}
	if err := os.WriteFile(p.QueriesPath, topics, 0644); err != nil {
		return p, err
	}
	return p, nil
}

type word struct {
	StartTime  string `json:"startTime"`
	EndTime    string `json:"endTime"`
	Word       string `json:"word"`
	SpeakerTag int    `json:"speakerTag,omitempty"`
}

type alternative struct {
	Transcript string  `json:"transcript"`
	Confidence float64 `json:"confidence"`
	Words      []word  `json:"words"`
}

type segment struct {
	Alternatives []alternative `json:"alternatives"`
}

// TranscriptJSON renders utterances as a speech-to-text transcript: each
// utterance becomes one result whose words carry start offsets, followed by
// the speaker-tagged word list the recognizer appends at the end.
func TranscriptJSON(utts []Utterance) ([]byte, error) {
	var doc struct {
		Results []segment `json:"results"`
	}
	for _, u := range utts {
		var words []word
		for i, w := range strings.Fields(u.Text) {
			at := fmt.Sprintf("%d.%ds", u.Seconds+i/2, (i%2)*5)
			words = append(words, word{StartTime: at, EndTime: at, Word: w, SpeakerTag: u.Speaker + 1})
		}
		doc.Results = append(doc.Results, segment{Alternatives: []alternative{{
			Transcript: u.Text,
			Confidence: 0.9,
			Words:      words,
		}}})
	}
	// Trailing result with words only, as in the dataset.
	doc.Results = append(doc.Results, segment{Alternatives: []alternative{{}}})
	return json.Marshal(doc)
}

// MetadataTSV renders the metadata table with its header row.
func MetadataTSV(episodes []Episode) string {
	var b strings.Builder
	b.WriteString("show_uri\tshow_name\tshow_description\tpublisher\tlanguage\trss_link\tepisode_uri\tepisode_name\tepisode_description\tduration\tshow_filename_prefix\tepisode_filename_prefix\n")
	for _, ep := range episodes {
		fields := []string{
			"spotify:show:" + ep.ShowID,
			ep.ShowName,
			"",
			ep.Publisher,
			"['en']",
			"",
			ep.URI(),
			ep.Name,
			ep.Description,
			strconv.FormatFloat(ep.Minutes, 'f', 2, 64),
			"show_" + ep.ShowID,
			ep.ID,
		}
		b.WriteString(strings.Join(fields, "\t"))
		b.WriteByte('\n')
	}
	return b.String()
}

type topic struct {
	Num         int    `xml:"num"`
	Query       string `xml:"query"`
	Type        string `xml:"type"`
	Description string `xml:"description"`
}

// QueriesXML renders test cases as a TREC topics document.
func QueriesXML(cases []QueryTestCase) ([]byte, error) {
	doc := struct {
		XMLName xml.Name `xml:"topics"`
		Topics  []topic  `xml:"topic"`
	}{}
	for _, tc := range cases {
		doc.Topics = append(doc.Topics, topic{Num: tc.Number, Query: tc.Query, Type: "topical", Description: tc.Description})
	}
	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), out...), nil
}
