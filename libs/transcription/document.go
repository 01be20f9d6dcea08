package transcription

import (
	"encoding/json"
	"strings"

	"github.com/pkg/errors"
)

// Document is the transcript file written by the transcription service.
// Only the fields the report needs are decoded.
type Document struct {
	JobName string `json:"jobName"`
	Status  string `json:"status"`
	Results struct {
		Transcripts []Segment `json:"transcripts"`
	} `json:"results"`
}

// Segment is one block of transcript text.
type Segment struct {
	Transcript string `json:"transcript"`
}

// ParseDocument decodes a transcript document.
func ParseDocument(data []byte) (*Document, error) {
	var d Document
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, errors.Wrap(err, "transcription: bad transcript document")
	}
	return &d, nil
}

// FullText concatenates the segments in document order.
func (d *Document) FullText() string {
	var b strings.Builder
	for _, s := range d.Results.Transcripts {
		b.WriteString(s.Transcript)
	}
	return b.String()
}
